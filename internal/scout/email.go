package scout

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ezazahamad2003/pre-funnel/internal/entity"
	"github.com/ezazahamad2003/pre-funnel/internal/identity"
)

const (
	pdlBaseURL       = "https://api.peopledatalabs.com"
	pdlMinLikelihood = "6"
	maxPublicLinks   = 3
)

// emailConfidence is the per-field trust profile of the enrichment API.
var emailConfidence = map[entity.Field]float64{
	entity.FieldEmail:    0.95,
	entity.FieldName:     0.90,
	entity.FieldTitle:    0.85,
	entity.FieldCompany:  0.85,
	entity.FieldLinkedIn: 0.80,
	entity.FieldXHandle:  0.70,
	entity.FieldPhone:    0.75,
}

// EmailScout enriches a seed email address through the People Data Labs
// person API. The strategy query carries the address.
type EmailScout struct {
	apiKey      string
	baseURL     string
	client      *http.Client
	phoneRegion string
}

// EmailScoutOption configures optional dependencies.
type EmailScoutOption func(*EmailScout)

// WithEmailBaseURL overrides the API endpoint.
func WithEmailBaseURL(base string) EmailScoutOption {
	return func(s *EmailScout) {
		s.baseURL = strings.TrimRight(base, "/")
	}
}

// WithEmailHTTPClient overrides the HTTP client.
func WithEmailHTTPClient(client *http.Client) EmailScoutOption {
	return func(s *EmailScout) {
		if client != nil {
			s.client = client
		}
	}
}

// NewEmailScout builds the enrichment provider.
func NewEmailScout(apiKey, phoneRegion string, opts ...EmailScoutOption) *EmailScout {
	s := &EmailScout{
		apiKey:      apiKey,
		baseURL:     pdlBaseURL,
		client:      defaultClient(),
		phoneRegion: phoneRegion,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *EmailScout) Channel() entity.Channel { return entity.ChannelEmail }

// Execute looks up the person behind the strategy's email address. A miss
// (no person on file) is an empty result, not an error.
func (s *EmailScout) Execute(ctx context.Context, strategy entity.Strategy) ([]entity.Candidate, error) {
	email := strings.TrimSpace(strategy.Query)
	if email == "" {
		return nil, nil
	}

	params := url.Values{}
	params.Set("email", email)
	params.Set("required", "emails")
	params.Set("min_likelihood", pdlMinLikelihood)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/v5/person/enrich?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build enrich request: %w", err)
	}
	req.Header.Set("X-Api-Key", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("enrich request: %w", err)
	}
	defer drainClose(resp)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, nil
	case resp.StatusCode >= 400:
		return nil, &UpstreamStatusError{Provider: "people_data_labs", StatusCode: resp.StatusCode}
	}

	var payload pdlResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode enrich response: %w", err)
	}

	candidate := s.mapPerson(email, payload.Data)
	if candidate.Empty() {
		return nil, nil
	}
	return []entity.Candidate{candidate}, nil
}

func (s *EmailScout) mapPerson(email string, person pdlPerson) entity.Candidate {
	c := entity.Candidate{
		Email:   email,
		Channel: entity.ChannelEmail,
		Source:  string(entity.ChannelEmail),
	}

	c.Name = strings.TrimSpace(person.FullName)
	if c.Name == "" {
		c.Name = strings.TrimSpace(strings.TrimSpace(person.FirstName) + " " + strings.TrimSpace(person.LastName))
	}
	if len(person.Experience) > 0 {
		c.Title = strings.TrimSpace(person.Experience[0].Title.Name)
		c.Company = strings.TrimSpace(person.Experience[0].Company.Name)
	}

	for _, profile := range person.Profiles {
		network := strings.ToLower(profile.Network)
		switch network {
		case "linkedin":
			if c.LinkedIn == "" {
				c.LinkedIn = identity.ProfileURL(profile.URL)
			}
		case "twitter":
			if c.XHandle == "" {
				if handle := handleFromProfileURL(profile.URL); handle != "" {
					c.XHandle = "@" + handle
				}
			}
		case "email":
			// not a public link
		default:
			if len(c.PublicLinks) < maxPublicLinks {
				if link := identity.SanitizeLink(profile.URL); link != "" {
					c.PublicLinks = append(c.PublicLinks, link)
				}
			}
		}
	}

	phone := person.MobilePhone
	if phone == "" && len(person.PhoneNumbers) > 0 {
		phone = person.PhoneNumbers[0]
	}
	c.Phone = identity.NormalizePhone(phone, s.phoneRegion)

	c.Confidence = confidenceFor(c, emailConfidence)
	return c
}

// handleFromProfileURL pulls the trailing path segment out of a social
// profile URL.
func handleFromProfileURL(raw string) string {
	key := identity.CanonicalProfileURL(raw)
	if key == "" {
		return ""
	}
	if idx := strings.LastIndex(key, "/"); idx >= 0 && idx+1 < len(key) {
		return key[idx+1:]
	}
	return ""
}

// confidenceFor copies the profile's confidence for every populated field.
func confidenceFor(c entity.Candidate, profile map[entity.Field]float64) map[entity.Field]float64 {
	conf := make(map[entity.Field]float64)
	for _, f := range entity.IdentityFields {
		if c.Get(f) != "" {
			conf[f] = profile[f]
		}
	}
	return conf
}

type pdlResponse struct {
	Status int       `json:"status"`
	Data   pdlPerson `json:"data"`
}

type pdlPerson struct {
	FullName     string          `json:"full_name"`
	FirstName    string          `json:"first_name"`
	LastName     string          `json:"last_name"`
	Experience   []pdlExperience `json:"experience"`
	Profiles     []pdlProfile    `json:"profiles"`
	MobilePhone  string          `json:"mobile_phone"`
	PhoneNumbers []string        `json:"phone_numbers"`
}

type pdlExperience struct {
	Title   pdlNamed `json:"title"`
	Company pdlNamed `json:"company"`
}

type pdlNamed struct {
	Name string `json:"name"`
}

type pdlProfile struct {
	Network string `json:"network"`
	URL     string `json:"url"`
}

var _ Scout = (*EmailScout)(nil)

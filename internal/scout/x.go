package scout

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/ezazahamad2003/pre-funnel/internal/entity"
	"github.com/ezazahamad2003/pre-funnel/internal/identity"
)

const (
	xBaseURL        = "https://api.twitter.com"
	xSharedCap      = 5
	xPersonalCap    = 10
	xQueryMaxLen    = 400
	xUserFields     = "description,location,public_metrics,url,verified"
	xUserSearchMax  = "10"
	xTweetSearchMax = "20"
)

var (
	xStopWords = map[string]struct{}{
		"find": {}, "looking": {}, "for": {}, "connect": {}, "with": {},
	}
	roleExpr     = regexp.MustCompile(`(?i)\b(CEO|CTO|CFO|COO|Founder|Co-founder|President|Director|VP|Head of [A-Za-z]+|[A-Za-z]+ Lead|[A-Za-z]+ Manager|[A-Za-z]+ Engineer)\b`)
	employerExpr = regexp.MustCompile(`(?i)(?:\bat|@)\s+([A-Z][A-Za-z0-9&.\- ]{2,30})`)
)

var xConfidence = map[entity.Field]float64{
	entity.FieldXHandle: 0.95,
	entity.FieldName:    0.80,
	entity.FieldTitle:   0.60,
	entity.FieldCompany: 0.60,
}

// XScout searches people on X through the v2 API. The shared instance uses
// the app bearer token; WithCredential derives a personal instance with a
// higher result cap.
type XScout struct {
	bearer  string
	baseURL string
	client  *http.Client
	cap     int
}

// XScoutOption configures optional dependencies.
type XScoutOption func(*XScout)

// WithXBaseURL overrides the API endpoint.
func WithXBaseURL(base string) XScoutOption {
	return func(s *XScout) {
		s.baseURL = strings.TrimRight(base, "/")
	}
}

// WithXHTTPClient overrides the HTTP client.
func WithXHTTPClient(client *http.Client) XScoutOption {
	return func(s *XScout) {
		if client != nil {
			s.client = client
		}
	}
}

// NewXScout builds the shared-tier X provider.
func NewXScout(bearer string, opts ...XScoutOption) *XScout {
	s := &XScout{
		bearer:  bearer,
		baseURL: xBaseURL,
		client:  defaultClient(),
		cap:     xSharedCap,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WithCredential returns a copy of the scout running on a user token with
// the personal result cap.
func (s *XScout) WithCredential(token string) *XScout {
	clone := *s
	clone.bearer = token
	clone.cap = xPersonalCap
	return &clone
}

func (s *XScout) Channel() entity.Channel { return entity.ChannelX }

// Execute searches user bios first and falls back to recent-tweet authors
// when the bio search comes back empty.
func (s *XScout) Execute(ctx context.Context, strategy entity.Strategy) ([]entity.Candidate, error) {
	query := cleanXQuery(strategy.Query)
	if query == "" {
		return nil, nil
	}

	users, err := s.searchUsers(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		users, err = s.searchTweetAuthors(ctx, query)
		if err != nil {
			return nil, err
		}
	}

	seen := make(map[string]struct{}, len(users))
	candidates := make([]entity.Candidate, 0, s.cap)
	for _, u := range users {
		handle := identity.NormalizeHandle(u.Username)
		if handle == "" {
			continue
		}
		if _, dup := seen[handle]; dup {
			continue
		}
		seen[handle] = struct{}{}

		title, company := parseBio(u.Description)
		c := entity.Candidate{
			Name:    strings.TrimSpace(u.Name),
			Title:   title,
			Company: company,
			XHandle: "@" + handle,
			Channel: entity.ChannelX,
			Source:  string(entity.ChannelX),
		}
		if link := identity.SanitizeLink(u.URL); link != "" {
			c.PublicLinks = []string{link}
		}
		c.Confidence = confidenceFor(c, xConfidence)
		candidates = append(candidates, c)
		if len(candidates) >= s.cap {
			break
		}
	}
	return candidates, nil
}

func (s *XScout) searchUsers(ctx context.Context, query string) ([]xUser, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("max_results", xUserSearchMax)
	params.Set("user.fields", xUserFields)

	var payload struct {
		Data []xUser `json:"data"`
	}
	if err := s.get(ctx, "/2/users/search?"+params.Encode(), &payload); err != nil {
		return nil, err
	}
	return payload.Data, nil
}

func (s *XScout) searchTweetAuthors(ctx context.Context, query string) ([]xUser, error) {
	params := url.Values{}
	params.Set("query", query+" -is:retweet")
	params.Set("max_results", xTweetSearchMax)
	params.Set("expansions", "author_id")
	params.Set("user.fields", xUserFields)

	var payload struct {
		Includes struct {
			Users []xUser `json:"users"`
		} `json:"includes"`
	}
	if err := s.get(ctx, "/2/tweets/search/recent?"+params.Encode(), &payload); err != nil {
		return nil, err
	}
	return payload.Includes.Users, nil
}

func (s *XScout) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build x request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.bearer)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("x request: %w", err)
	}
	defer drainClose(resp)

	if resp.StatusCode >= 400 {
		return &UpstreamStatusError{Provider: "x_api", StatusCode: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode x response: %w", err)
	}
	return nil
}

// cleanXQuery strips filler words, collapses whitespace and enforces the v2
// query length cap.
func cleanXQuery(raw string) string {
	fields := strings.Fields(raw)
	kept := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, skip := xStopWords[strings.ToLower(f)]; skip {
			continue
		}
		kept = append(kept, f)
	}
	query := strings.Join(kept, " ")
	if len(query) > xQueryMaxLen {
		query = query[:xQueryMaxLen]
	}
	return strings.TrimSpace(query)
}

// parseBio extracts a role and employer from free-form profile text.
func parseBio(bio string) (title, company string) {
	if m := roleExpr.FindString(bio); m != "" {
		title = strings.TrimSpace(m)
	}
	if m := employerExpr.FindStringSubmatch(bio); len(m) > 1 {
		company = strings.TrimSpace(m[1])
	}
	return title, company
}

type xUser struct {
	Name        string `json:"name"`
	Username    string `json:"username"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Verified    bool   `json:"verified"`
}

var _ Scout = (*XScout)(nil)

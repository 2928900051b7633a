package scout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ezazahamad2003/pre-funnel/internal/entity"
	"github.com/ezazahamad2003/pre-funnel/internal/identity"
)

const (
	phantomBaseURL      = "https://api.phantombuster.com"
	phantomPollInterval = 2 * time.Second
	linkedinBaseURL     = "https://api.linkedin.com"
	linkedinSharedCap   = 5
	linkedinPersonalCap = 10
)

var linkedinConfidence = map[entity.Field]float64{
	entity.FieldLinkedIn: 0.95,
	entity.FieldName:     0.90,
	entity.FieldTitle:    0.90,
	entity.FieldCompany:  0.85,
}

var seniorityTerms = []string{"founder", "ceo", "cto", "coo", "president", "director", "vp", "head of"}

// optimizeLinkedInQuery biases a query toward decision makers when it does
// not already name a seniority level.
func optimizeLinkedInQuery(query string) string {
	lower := strings.ToLower(query)
	for _, term := range seniorityTerms {
		if strings.Contains(lower, term) {
			return query
		}
	}
	return query + ` (founder OR CEO OR "co-founder")`
}

// SharedLinkedInScout drives a Phantom search agent: launch a container for
// the query, poll until it finishes, parse the exported rows. The poll loop
// is bounded by the call context.
type SharedLinkedInScout struct {
	apiKey       string
	agentID      string
	baseURL      string
	client       *http.Client
	pollInterval time.Duration
}

// SharedLinkedInOption configures optional dependencies.
type SharedLinkedInOption func(*SharedLinkedInScout)

// WithPhantomBaseURL overrides the agent API endpoint.
func WithPhantomBaseURL(base string) SharedLinkedInOption {
	return func(s *SharedLinkedInScout) {
		s.baseURL = strings.TrimRight(base, "/")
	}
}

// WithPhantomHTTPClient overrides the HTTP client.
func WithPhantomHTTPClient(client *http.Client) SharedLinkedInOption {
	return func(s *SharedLinkedInScout) {
		if client != nil {
			s.client = client
		}
	}
}

// WithPhantomPollInterval overrides the container poll cadence.
func WithPhantomPollInterval(interval time.Duration) SharedLinkedInOption {
	return func(s *SharedLinkedInScout) {
		if interval > 0 {
			s.pollInterval = interval
		}
	}
}

// NewSharedLinkedInScout builds the shared-tier professional network provider.
func NewSharedLinkedInScout(apiKey, agentID string, opts ...SharedLinkedInOption) *SharedLinkedInScout {
	s := &SharedLinkedInScout{
		apiKey:       apiKey,
		agentID:      agentID,
		baseURL:      phantomBaseURL,
		client:       defaultClient(),
		pollInterval: phantomPollInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *SharedLinkedInScout) Channel() entity.Channel { return entity.ChannelLinkedIn }

// Execute launches the search agent and waits for its export within the
// call deadline.
func (s *SharedLinkedInScout) Execute(ctx context.Context, strategy entity.Strategy) ([]entity.Candidate, error) {
	query := strings.TrimSpace(strategy.Query)
	if query == "" {
		return nil, nil
	}

	containerID, err := s.launch(ctx, optimizeLinkedInQuery(query))
	if err != nil {
		return nil, err
	}

	rows, err := s.awaitOutput(ctx, containerID)
	if err != nil {
		return nil, err
	}

	candidates := make([]entity.Candidate, 0, linkedinSharedCap)
	for _, row := range rows {
		c, ok := mapLinkedInRow(row)
		if !ok {
			continue
		}
		candidates = append(candidates, c)
		if len(candidates) >= linkedinSharedCap {
			break
		}
	}
	return candidates, nil
}

func (s *SharedLinkedInScout) launch(ctx context.Context, query string) (string, error) {
	payload := map[string]any{
		"id": s.agentID,
		"argument": map[string]any{
			"search":                   query,
			"numberOfResultsPerLaunch": 10,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal launch payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/v2/agents/launch", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build launch request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Phantombuster-Key-1", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("launch request: %w", err)
	}
	defer drainClose(resp)

	if resp.StatusCode >= 400 {
		return "", &UpstreamStatusError{Provider: "phantombuster", StatusCode: resp.StatusCode}
	}

	var launched struct {
		ContainerID string `json:"containerId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&launched); err != nil {
		return "", fmt.Errorf("decode launch response: %w", err)
	}
	if launched.ContainerID == "" {
		return "", fmt.Errorf("launch response missing container id")
	}
	return launched.ContainerID, nil
}

func (s *SharedLinkedInScout) awaitOutput(ctx context.Context, containerID string) ([]linkedinRow, error) {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		rows, done, err := s.fetchOutput(ctx, containerID)
		if err != nil {
			return nil, err
		}
		if done {
			return rows, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *SharedLinkedInScout) fetchOutput(ctx context.Context, containerID string) ([]linkedinRow, bool, error) {
	params := url.Values{}
	params.Set("id", containerID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/api/v2/containers/fetch-output?"+params.Encode(), nil)
	if err != nil {
		return nil, false, fmt.Errorf("build fetch request: %w", err)
	}
	req.Header.Set("X-Phantombuster-Key-1", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("fetch request: %w", err)
	}
	defer drainClose(resp)

	if resp.StatusCode >= 400 {
		return nil, false, &UpstreamStatusError{Provider: "phantombuster", StatusCode: resp.StatusCode}
	}

	var output struct {
		Status       string `json:"status"`
		ResultObject string `json:"resultObject"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&output); err != nil {
		return nil, false, fmt.Errorf("decode fetch response: %w", err)
	}
	if output.Status != "finished" {
		return nil, false, nil
	}

	if output.ResultObject == "" {
		return nil, true, nil
	}
	var rows []linkedinRow
	if err := json.Unmarshal([]byte(output.ResultObject), &rows); err != nil {
		return nil, false, fmt.Errorf("decode result rows: %w", err)
	}
	return rows, true, nil
}

type linkedinRow struct {
	FullName   string `json:"fullName"`
	Title      string `json:"title"`
	Headline   string `json:"headline"`
	Company    string `json:"company"`
	ProfileURL string `json:"profileUrl"`
}

func mapLinkedInRow(row linkedinRow) (entity.Candidate, bool) {
	c := entity.Candidate{
		Name:     strings.TrimSpace(row.FullName),
		Title:    strings.TrimSpace(row.Title),
		Company:  strings.TrimSpace(row.Company),
		LinkedIn: identity.ProfileURL(row.ProfileURL),
		Channel:  entity.ChannelLinkedIn,
		Source:   string(entity.ChannelLinkedIn),
	}
	if c.Title == "" && row.Headline != "" {
		c.Title, c.Company = splitHeadline(row.Headline)
	}
	if c.Name == "" && c.LinkedIn == "" {
		return entity.Candidate{}, false
	}
	c.Confidence = confidenceFor(c, linkedinConfidence)
	return c, true
}

// splitHeadline breaks a "Title at Company" headline into its parts.
func splitHeadline(headline string) (title, company string) {
	headline = strings.TrimSpace(headline)
	if idx := strings.Index(strings.ToLower(headline), " at "); idx > 0 {
		return strings.TrimSpace(headline[:idx]), strings.TrimSpace(headline[idx+4:])
	}
	return headline, ""
}

// PersonalLinkedInScout searches the member API with a user's OAuth token.
type PersonalLinkedInScout struct {
	token   string
	baseURL string
	client  *http.Client
}

// PersonalLinkedInOption configures optional dependencies.
type PersonalLinkedInOption func(*PersonalLinkedInScout)

// WithLinkedInBaseURL overrides the member API endpoint.
func WithLinkedInBaseURL(base string) PersonalLinkedInOption {
	return func(s *PersonalLinkedInScout) {
		s.baseURL = strings.TrimRight(base, "/")
	}
}

// WithLinkedInHTTPClient overrides the HTTP client.
func WithLinkedInHTTPClient(client *http.Client) PersonalLinkedInOption {
	return func(s *PersonalLinkedInScout) {
		if client != nil {
			s.client = client
		}
	}
}

// NewPersonalLinkedInScout builds a provider bound to one user's token.
func NewPersonalLinkedInScout(token string, opts ...PersonalLinkedInOption) *PersonalLinkedInScout {
	s := &PersonalLinkedInScout{
		token:   token,
		baseURL: linkedinBaseURL,
		client:  defaultClient(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *PersonalLinkedInScout) Channel() entity.Channel { return entity.ChannelLinkedIn }

// Execute searches people by keyword on the member's behalf.
func (s *PersonalLinkedInScout) Execute(ctx context.Context, strategy entity.Strategy) ([]entity.Candidate, error) {
	query := strings.TrimSpace(strategy.Query)
	if query == "" {
		return nil, nil
	}

	params := url.Values{}
	params.Set("keywords", query)
	params.Set("count", fmt.Sprint(linkedinPersonalCap))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/v2/people-search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build people-search request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("people-search request: %w", err)
	}
	defer drainClose(resp)

	if resp.StatusCode >= 400 {
		return nil, &UpstreamStatusError{Provider: "linkedin_api", StatusCode: resp.StatusCode}
	}

	var payload struct {
		Elements []struct {
			FirstName        linkedinLocalized `json:"firstName"`
			LastName         linkedinLocalized `json:"lastName"`
			Headline         linkedinLocalized `json:"headline"`
			VanityName       string            `json:"vanityName"`
			PublicProfileURL string            `json:"publicProfileUrl"`
		} `json:"elements"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode people-search response: %w", err)
	}

	candidates := make([]entity.Candidate, 0, len(payload.Elements))
	for _, el := range payload.Elements {
		name := strings.TrimSpace(el.FirstName.value() + " " + el.LastName.value())
		profileURL := el.PublicProfileURL
		if profileURL == "" && el.VanityName != "" {
			profileURL = "https://linkedin.com/in/" + el.VanityName
		}

		c := entity.Candidate{
			Name:     name,
			LinkedIn: identity.ProfileURL(profileURL),
			Channel:  entity.ChannelLinkedIn,
			Source:   string(entity.ChannelLinkedIn),
		}
		c.Title, c.Company = splitHeadline(el.Headline.value())
		if c.Name == "" && c.LinkedIn == "" {
			continue
		}
		c.Confidence = confidenceFor(c, linkedinConfidence)
		candidates = append(candidates, c)
		if len(candidates) >= linkedinPersonalCap {
			break
		}
	}
	return candidates, nil
}

// linkedinLocalized is the member API's localized-string envelope.
type linkedinLocalized struct {
	Localized map[string]string `json:"localized"`
}

func (l linkedinLocalized) value() string {
	if v, ok := l.Localized["en_US"]; ok {
		return v
	}
	for _, v := range l.Localized {
		return v
	}
	return ""
}

var (
	_ Scout = (*SharedLinkedInScout)(nil)
	_ Scout = (*PersonalLinkedInScout)(nil)
)

package scout

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	customsearch "google.golang.org/api/customsearch/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/ezazahamad2003/pre-funnel/internal/entity"
	"github.com/ezazahamad2003/pre-funnel/internal/identity"
)

const (
	webResultCap    = 5
	webSearchNum    = 10
	webSearchFields = "items(title,link,snippet,displayLink)"

	companyPassSuffix = ` site:crunchbase.com OR site:angel.co OR "team" OR "about us" OR "leadership"`
	peoplePassSuffix  = ` "founder" OR "CEO" OR "CTO" site:linkedin.com OR site:about.me OR "bio"`
)

var (
	personNameExpr  = regexp.MustCompile(`^([A-Z][a-z]+(?: [A-Z][a-z]+){1,2})\s*[-–—|,(]`)
	linkedinURLExpr = regexp.MustCompile(`https?://(?:www\.)?linkedin\.com/in/[A-Za-z0-9\-_%]+`)
	handleExpr      = regexp.MustCompile(`@([A-Za-z0-9_]{2,15})\b`)
)

var webConfidence = map[entity.Field]float64{
	entity.FieldName:     0.50,
	entity.FieldTitle:    0.50,
	entity.FieldCompany:  0.50,
	entity.FieldLinkedIn: 0.70,
	entity.FieldXHandle:  0.50,
}

// WebScout discovers people on the open web through Google Programmable
// Search. Each strategy runs two passes: one biased toward company surfaces
// and one toward personal profiles.
type WebScout struct {
	svc *customsearch.Service
	cx  string
}

// NewWebScout builds the web provider. Extra client options are accepted so
// tests can point the service at a local server.
func NewWebScout(ctx context.Context, apiKey, cx string, opts ...option.ClientOption) (*WebScout, error) {
	clientOpts := append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	svc, err := customsearch.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create customsearch service: %w", err)
	}
	return &WebScout{svc: svc, cx: cx}, nil
}

func (s *WebScout) Channel() entity.Channel { return entity.ChannelWeb }

// Execute runs both passes, keeps one result per domain and maps whatever
// person signals the titles and snippets carry.
func (s *WebScout) Execute(ctx context.Context, strategy entity.Strategy) ([]entity.Candidate, error) {
	query := strings.TrimSpace(strategy.Query)
	if query == "" {
		return nil, nil
	}

	seenDomains := make(map[string]struct{})
	candidates := make([]entity.Candidate, 0, webResultCap)

	for _, pass := range []string{companyPassSuffix, peoplePassSuffix} {
		if len(candidates) >= webResultCap {
			break
		}
		items, err := s.search(ctx, query+pass)
		if err != nil {
			return nil, err
		}
		for _, item := range items {
			domain := strings.ToLower(item.DisplayLink)
			if domain != "" {
				if _, dup := seenDomains[domain]; dup {
					continue
				}
				seenDomains[domain] = struct{}{}
			}
			if c, ok := mapSearchItem(item); ok {
				candidates = append(candidates, c)
				if len(candidates) >= webResultCap {
					break
				}
			}
		}
	}
	return candidates, nil
}

func (s *WebScout) search(ctx context.Context, query string) ([]*customsearch.Result, error) {
	resp, err := s.svc.Cse.List().
		Cx(s.cx).
		Q(query).
		Num(webSearchNum).
		Fields(googleapi.Field(webSearchFields)).
		Context(ctx).
		Do()
	if err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) {
			return nil, &UpstreamStatusError{Provider: "google_cse", StatusCode: gerr.Code}
		}
		return nil, fmt.Errorf("customsearch list: %w", err)
	}
	return resp.Items, nil
}

// mapSearchItem turns one search result into a candidate. Results without a
// person signal (name, profile URL or handle) are dropped.
func mapSearchItem(item *customsearch.Result) (entity.Candidate, bool) {
	text := item.Title + " " + item.Snippet

	c := entity.Candidate{
		Channel: entity.ChannelWeb,
		Source:  string(entity.ChannelWeb),
	}
	if m := personNameExpr.FindStringSubmatch(item.Title); len(m) > 1 {
		c.Name = strings.TrimSpace(m[1])
	}
	c.Title, c.Company = parseBio(text)
	if m := linkedinURLExpr.FindString(text); m != "" {
		c.LinkedIn = identity.ProfileURL(m)
	} else if strings.Contains(item.Link, "linkedin.com/in/") {
		c.LinkedIn = identity.ProfileURL(item.Link)
	}
	if m := handleExpr.FindStringSubmatch(text); len(m) > 1 {
		c.XHandle = "@" + m[1]
	}

	if c.Name == "" && c.LinkedIn == "" && c.XHandle == "" {
		return entity.Candidate{}, false
	}

	if link := identity.SanitizeLink(item.Link); link != "" && link != c.LinkedIn {
		c.PublicLinks = []string{link}
	}
	c.Confidence = confidenceFor(c, webConfidence)
	return c, true
}

var _ Scout = (*WebScout)(nil)

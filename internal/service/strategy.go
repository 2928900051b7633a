package service

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ezazahamad2003/pre-funnel/internal/entity"
	"github.com/ezazahamad2003/pre-funnel/internal/llm"
)

const (
	llmStrategyConfidence      = 0.80
	fallbackStrategyConfidence = 0.40
	maxStrategiesPerChannel    = 3
	defaultNetworkBoost        = 0.10
	defaultPlanTimeout         = 10 * time.Second
)

var capitalizedTokenExpr = regexp.MustCompile(`\b[A-Z][a-zA-Z0-9]{2,}\b`)

// NetworkProfile captures which channels the caller has usable personal
// connections on. The zero value means no connections.
type NetworkProfile struct {
	Connections map[entity.Channel]entity.SocialConnection
}

// Connected reports whether the caller has a usable credential for a channel.
func (p NetworkProfile) Connected(ch entity.Channel) bool {
	_, ok := p.Connections[ch]
	return ok
}

// Handle returns the caller's handle on a channel, empty when not connected.
func (p NetworkProfile) Handle(ch entity.Channel) string {
	return p.Connections[ch].Handle
}

// StrategyService turns a goal and company context into per-channel search
// strategies. The LLM collaborator proposes queries when configured; a
// deterministic keyword builder covers every failure mode, so planning never
// errors.
type StrategyService struct {
	client  llm.Client
	boost   float64
	timeout time.Duration
}

// StrategyOption configures planning tunables.
type StrategyOption func(*StrategyService)

// WithNetworkBoost overrides the confidence boost for network-aware strategies.
func WithNetworkBoost(boost float64) StrategyOption {
	return func(s *StrategyService) {
		if boost >= 0 {
			s.boost = boost
		}
	}
}

// WithPlanTimeout bounds the collaborator call.
func WithPlanTimeout(d time.Duration) StrategyOption {
	return func(s *StrategyService) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// NewStrategyService builds a planner. A nil client disables the collaborator
// path and planning becomes a pure function of its inputs.
func NewStrategyService(client llm.Client, opts ...StrategyOption) *StrategyService {
	s := &StrategyService{
		client:  client,
		boost:   defaultNetworkBoost,
		timeout: defaultPlanTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Plan produces at least one strategy per non-email channel. The email
// channel is driven by seed addresses upstream and never gets generated
// queries here. Strategies on channels the caller is connected to are marked
// network-aware and boosted.
func (s *StrategyService) Plan(ctx context.Context, goal, companyInfo string, network NetworkProfile) []entity.Strategy {
	goal = strings.TrimSpace(goal)
	companyInfo = strings.TrimSpace(companyInfo)

	strategies := s.collaboratorStrategies(ctx, goal, companyInfo)
	if len(strategies) == 0 {
		strategies = fallbackStrategies(goal, companyInfo)
	}
	strategies = append(strategies, networkStrategies(goal, network)...)

	for i := range strategies {
		if network.Connected(strategies[i].Channel) {
			strategies[i].NetworkAware = true
		}
		if strategies[i].NetworkAware {
			strategies[i].Confidence = capConfidence(strategies[i].Confidence + s.boost)
		}
	}
	return strategies
}

type strategyPlan struct {
	LinkedInQueries []string `json:"linkedin_queries"`
	XQueries        []string `json:"x_queries"`
	InternetQueries []string `json:"internet_queries"`
}

// collaboratorStrategies asks the LLM for queries. Any failure, malformed
// payload, or empty plan yields nil and the caller falls back.
func (s *StrategyService) collaboratorStrategies(ctx context.Context, goal, companyInfo string) []entity.Strategy {
	if s.client == nil || goal == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	raw, err := s.client.Generate(ctx, planPrompt(goal, companyInfo))
	if err != nil {
		log.Warn().Err(err).Str("collaborator", s.client.Name()).
			Msg("strategy collaborator failed, using keyword fallback")
		return nil
	}

	var plan strategyPlan
	if err := json.Unmarshal([]byte(llm.StripFences(raw)), &plan); err != nil {
		log.Warn().Err(err).Msg("strategy collaborator returned malformed JSON, using keyword fallback")
		return nil
	}

	var strategies []entity.Strategy
	strategies = appendQueries(strategies, entity.ChannelLinkedIn, plan.LinkedInQueries, "collaborator-proposed professional search")
	strategies = appendQueries(strategies, entity.ChannelX, plan.XQueries, "collaborator-proposed social search")
	strategies = appendQueries(strategies, entity.ChannelWeb, plan.InternetQueries, "collaborator-proposed web search")

	// A plan missing any channel is unusable; the fallback covers all three.
	for _, ch := range []entity.Channel{entity.ChannelLinkedIn, entity.ChannelX, entity.ChannelWeb} {
		if !hasChannel(strategies, ch) {
			log.Warn().Str("channel", string(ch)).Msg("collaborator plan missed a channel, using keyword fallback")
			return nil
		}
	}
	return strategies
}

func planPrompt(goal, companyInfo string) string {
	return fmt.Sprintf(`You generate search queries for B2B lead discovery.

Business goal: %s
Company context: %s

Propose 2-3 short search queries per channel targeting the decision makers
the goal describes. Respond with pure JSON only, no prose, in the form:
{"linkedin_queries": [...], "x_queries": [...], "internet_queries": [...]}`, goal, companyInfo)
}

func appendQueries(strategies []entity.Strategy, ch entity.Channel, queries []string, rationale string) []entity.Strategy {
	seen := make(map[string]struct{})
	count := 0
	for _, q := range queries {
		q = strings.TrimSpace(q)
		if q == "" || count >= maxStrategiesPerChannel {
			continue
		}
		key := strings.ToLower(q)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		strategies = append(strategies, entity.Strategy{
			Channel:    ch,
			Query:      q,
			Confidence: llmStrategyConfidence,
			Rationale:  rationale,
		})
		count++
	}
	return strategies
}

func hasChannel(strategies []entity.Strategy, ch entity.Channel) bool {
	for _, st := range strategies {
		if st.Channel == ch {
			return true
		}
	}
	return false
}

// fallbackStrategies is the deterministic keyword path: literal goal and
// company text plus the goal's capitalized tokens, templated per channel.
// Fixed confidence, same input always yields the same plan.
func fallbackStrategies(goal, companyInfo string) []entity.Strategy {
	company := firstWords(companyInfo, 3)
	keywords := strings.Join(capitalizedTokenExpr.FindAllString(goal+" "+companyInfo, 4), " ")

	build := func(ch entity.Channel, queries ...string) []entity.Strategy {
		var out []entity.Strategy
		seen := make(map[string]struct{})
		for _, q := range queries {
			q = strings.Join(strings.Fields(q), " ")
			if q == "" {
				continue
			}
			if _, dup := seen[strings.ToLower(q)]; dup {
				continue
			}
			seen[strings.ToLower(q)] = struct{}{}
			out = append(out, entity.Strategy{
				Channel:    ch,
				Query:      q,
				Confidence: fallbackStrategyConfidence,
				Rationale:  "keyword fallback",
			})
		}
		return out
	}

	var strategies []entity.Strategy
	strategies = append(strategies, build(entity.ChannelLinkedIn,
		goal+" CEO founder",
		goal+" "+company+" decision maker",
		goal,
	)...)
	strategies = append(strategies, build(entity.ChannelX,
		hashtag(goal)+" founder",
		firstWords(goal, 4)+" startup",
		goal,
	)...)
	strategies = append(strategies, build(entity.ChannelWeb,
		firstWords(goal, 4)+" company",
		goal+" startup",
		company+" "+keywords,
		goal,
	)...)
	return strategies
}

// networkStrategies adds warm-network searches for connected channels.
func networkStrategies(goal string, network NetworkProfile) []entity.Strategy {
	var strategies []entity.Strategy

	if network.Connected(entity.ChannelX) {
		handle := network.Handle(entity.ChannelX)
		if handle == "" {
			handle = "me"
		}
		strategies = append(strategies,
			entity.Strategy{
				Channel:      entity.ChannelX,
				Query:        goal + " followers_of:" + handle,
				Confidence:   0.70,
				Rationale:    "follower overlap on connected account",
				NetworkAware: true,
			},
			entity.Strategy{
				Channel:      entity.ChannelX,
				Query:        "@" + handle + " " + firstWords(goal, 4),
				Confidence:   0.60,
				Rationale:    "mentions of the connected account",
				NetworkAware: true,
			},
		)
	}

	if network.Connected(entity.ChannelLinkedIn) {
		strategies = append(strategies, entity.Strategy{
			Channel:      entity.ChannelLinkedIn,
			Query:        goal + " first-degree connections",
			Confidence:   0.80,
			Rationale:    "first-degree search on connected network",
			NetworkAware: true,
		})
	}
	return strategies
}

func firstWords(s string, n int) string {
	words := strings.Fields(s)
	if len(words) > n {
		words = words[:n]
	}
	return strings.Join(words, " ")
}

func hashtag(goal string) string {
	clean := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return -1
		}
	}, firstWords(goal, 3))
	if clean == "" {
		return goal
	}
	return "#" + clean
}

func capConfidence(c float64) float64 {
	if c > 1 {
		return 1
	}
	return c
}

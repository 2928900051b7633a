package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/ezazahamad2003/pre-funnel/internal/dto"
	"github.com/ezazahamad2003/pre-funnel/internal/entity"
	"github.com/ezazahamad2003/pre-funnel/internal/identity"
	"github.com/ezazahamad2003/pre-funnel/internal/repository"
	"github.com/ezazahamad2003/pre-funnel/internal/service/ranking"
)

const seedEmailConfidence = 0.90

// ValidationError is the only error class a well-formed caller can see.
// Everything else degrades inside the engine.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

func validationErr(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// CandidateDispatcher fans strategies out to the routed providers.
type CandidateDispatcher interface {
	Dispatch(ctx context.Context, userID uuid.UUID, strategies []entity.Strategy) []entity.Candidate
}

// DiscoveryService orchestrates one lead-discovery request: plan, dispatch,
// aggregate, rank, draft.
type DiscoveryService struct {
	strategies  *StrategyService
	dispatcher  CandidateDispatcher
	messages    *MessageService
	connections repository.ConnectionsRepository
	weights     ranking.Weights

	defaultTarget int
	maxTarget     int
	now           func() time.Time
}

// DiscoveryOption configures orchestration tunables.
type DiscoveryOption func(*DiscoveryService)

// WithRankWeights overrides the scoring weights.
func WithRankWeights(w ranking.Weights) DiscoveryOption {
	return func(s *DiscoveryService) { s.weights = w }
}

// WithTargetBounds overrides the default and maximum lead counts.
func WithTargetBounds(def, max int) DiscoveryOption {
	return func(s *DiscoveryService) {
		if def > 0 {
			s.defaultTarget = def
		}
		if max > 0 {
			s.maxTarget = max
		}
	}
}

// WithDiscoveryClock overrides the clock. Tests only.
func WithDiscoveryClock(now func() time.Time) DiscoveryOption {
	return func(s *DiscoveryService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewDiscoveryService wires the orchestrator.
func NewDiscoveryService(
	strategies *StrategyService,
	dispatcher CandidateDispatcher,
	messages *MessageService,
	connections repository.ConnectionsRepository,
	opts ...DiscoveryOption,
) *DiscoveryService {
	s := &DiscoveryService{
		strategies:    strategies,
		dispatcher:    dispatcher,
		messages:      messages,
		connections:   connections,
		weights:       ranking.DefaultWeights(),
		defaultTarget: 5,
		maxTarget:     100,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Discover runs the whole pipeline. The only error it returns is a
// *ValidationError; provider and collaborator failures degrade to partial or
// synthetic results, and zero candidates is a valid empty response.
func (s *DiscoveryService) Discover(ctx context.Context, req dto.DiscoveryRequest) (*dto.DiscoveryResponse, error) {
	goal := strings.TrimSpace(req.Goal)
	if goal == "" {
		return nil, validationErr("goal is required")
	}

	target := s.defaultTarget
	if req.Target != nil {
		if *req.Target <= 0 {
			return nil, validationErr("target must be a positive integer")
		}
		target = *req.Target
	}
	if target > s.maxTarget {
		target = s.maxTarget
	}

	userID := uuid.Nil
	if strings.TrimSpace(req.UserID) != "" {
		parsed, err := uuid.Parse(strings.TrimSpace(req.UserID))
		if err != nil {
			return nil, validationErr("user_id must be a valid UUID")
		}
		userID = parsed
	}

	var warnings []string
	seeds := make([]string, 0, len(req.Emails))
	for _, raw := range req.Emails {
		if email := identity.NormalizeEmail(raw); email != "" {
			seeds = append(seeds, email)
		} else if strings.TrimSpace(raw) != "" {
			warnings = append(warnings, fmt.Sprintf("ignored invalid seed email %q", strings.TrimSpace(raw)))
		}
	}

	network := s.networkProfile(ctx, userID)
	strategies := s.strategies.Plan(ctx, goal, req.CompanyInfo, network)
	for _, email := range seeds {
		strategies = append(strategies, entity.Strategy{
			Channel:    entity.ChannelEmail,
			Query:      email,
			Confidence: seedEmailConfidence,
			Rationale:  "seed email enrichment",
		})
	}

	candidates := s.dispatcher.Dispatch(ctx, userID, strategies)
	leads := ranking.Aggregate(candidates)
	totalFound := len(leads)
	leads = ranking.Rank(leads, s.weights, target)

	profiles := make([]dto.Profile, 0, len(leads))
	synthetic := false
	for _, lead := range leads {
		message := s.messages.Draft(ctx, lead, goal, req.CompanyInfo)
		profiles = append(profiles, toProfile(lead, message))
		synthetic = synthetic || strings.HasSuffix(lead.Source, "_mock")
	}
	if synthetic {
		warnings = append(warnings, "results include sample data from the synthetic tier")
	}

	log.Info().
		Int("strategies", len(strategies)).
		Int("candidates", len(candidates)).
		Int("merged", totalFound).
		Int("returned", len(profiles)).
		Msg("lead discovery completed")

	return &dto.DiscoveryResponse{
		Profiles:   profiles,
		TotalFound: totalFound,
		Returned:   len(profiles),
		UserID:     req.UserID,
		Warnings:   warnings,
	}, nil
}

// PlanStrategies exposes the planner for introspection without dispatching.
func (s *DiscoveryService) PlanStrategies(ctx context.Context, rawUserID, goal, companyInfo string) (*dto.StrategiesResponse, error) {
	goal = strings.TrimSpace(goal)
	if goal == "" {
		return nil, validationErr("goal is required")
	}

	userID := uuid.Nil
	if strings.TrimSpace(rawUserID) != "" {
		parsed, err := uuid.Parse(strings.TrimSpace(rawUserID))
		if err != nil {
			return nil, validationErr("user_id must be a valid UUID")
		}
		userID = parsed
	}

	strategies := s.strategies.Plan(ctx, goal, companyInfo, s.networkProfile(ctx, userID))
	views := make([]dto.StrategyView, 0, len(strategies))
	for _, st := range strategies {
		views = append(views, dto.StrategyView{
			Channel:      string(st.Channel),
			Query:        st.Query,
			Confidence:   st.Confidence,
			Rationale:    st.Rationale,
			NetworkAware: st.NetworkAware,
		})
	}

	return &dto.StrategiesResponse{Goal: goal, UserID: rawUserID, Strategies: views}, nil
}

// networkProfile loads the caller's usable connections. Lookup failures mean
// "no network", never an error.
func (s *DiscoveryService) networkProfile(ctx context.Context, userID uuid.UUID) NetworkProfile {
	if userID == uuid.Nil || s.connections == nil {
		return NetworkProfile{}
	}

	conns, err := s.connections.ListByUser(ctx, userID)
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID.String()).Msg("loading connections failed, planning without network")
		return NetworkProfile{}
	}

	now := s.now()
	profile := NetworkProfile{Connections: make(map[entity.Channel]entity.SocialConnection)}
	for _, conn := range conns {
		if conn.Usable(now) {
			profile.Connections[conn.Platform] = conn
		}
	}
	return profile
}

func toProfile(lead entity.Lead, message string) dto.Profile {
	return dto.Profile{
		Name:        optional(lead.Name),
		Email:       optional(lead.Email),
		Title:       optional(lead.Title),
		Company:     optional(lead.Company),
		LinkedIn:    optional(lead.LinkedIn),
		XHandle:     optional(lead.XHandle),
		Phone:       optional(lead.Phone),
		PublicLinks: lead.PublicLinks,
		Message:     message,
		Source:      lead.Source,
		Score:       lead.Score,
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

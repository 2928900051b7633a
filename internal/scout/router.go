package scout

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/ezazahamad2003/pre-funnel/internal/entity"
	"github.com/ezazahamad2003/pre-funnel/internal/quota"
)

// Tier identifies which credential class answers a scout call.
type Tier string

const (
	TierPersonal  Tier = "personal"
	TierShared    Tier = "shared"
	TierSynthetic Tier = "synthetic"
)

// ChannelMode controls whether a channel may use personal credentials.
type ChannelMode string

const (
	// ModeShared channels only ever run on the pooled credential.
	ModeShared ChannelMode = "shared"
	// ModeHybrid channels prefer a connected personal credential.
	ModeHybrid ChannelMode = "hybrid"
)

// DefaultChannelModes reflects which upstream APIs support user tokens.
func DefaultChannelModes() map[entity.Channel]ChannelMode {
	return map[entity.Channel]ChannelMode{
		entity.ChannelEmail:    ModeShared,
		entity.ChannelLinkedIn: ModeHybrid,
		entity.ChannelX:        ModeHybrid,
		entity.ChannelWeb:      ModeShared,
	}
}

// Selection is the outcome of routing one call: which scout runs and on
// whose credential.
type Selection struct {
	Scout   Scout
	Tier    Tier
	Subject string
}

// ConnectionSource looks up a user's stored credential for a platform.
type ConnectionSource interface {
	Get(ctx context.Context, userID uuid.UUID, platform entity.Channel) (*entity.SocialConnection, error)
}

// PersonalScoutFunc builds a channel scout bound to a user's access token.
type PersonalScoutFunc func(token string) Scout

// Router picks the provider tier for each scout call: a usable personal
// credential first, then the shared credential while quota remains, then the
// synthetic provider. Routing never fails; synthetic is always available.
type Router struct {
	shared      map[entity.Channel]Scout
	personal    map[entity.Channel]PersonalScoutFunc
	synthetic   map[entity.Channel]Scout
	modes       map[entity.Channel]ChannelMode
	connections ConnectionSource
	tracker     quota.Tracker
	now         func() time.Time
}

// RouterOption configures optional router dependencies.
type RouterOption func(*Router)

// WithSharedScout registers the shared-tier provider for a channel.
func WithSharedScout(s Scout) RouterOption {
	return func(r *Router) {
		if s != nil {
			r.shared[s.Channel()] = s
		}
	}
}

// WithPersonalScout registers the personal-tier provider factory for a channel.
func WithPersonalScout(channel entity.Channel, build PersonalScoutFunc) RouterOption {
	return func(r *Router) {
		if build != nil {
			r.personal[channel] = build
		}
	}
}

// WithChannelModes overrides the per-channel access modes.
func WithChannelModes(modes map[entity.Channel]ChannelMode) RouterOption {
	return func(r *Router) {
		for ch, mode := range modes {
			r.modes[ch] = mode
		}
	}
}

// WithRouterClock overrides the router clock. Tests only.
func WithRouterClock(now func() time.Time) RouterOption {
	return func(r *Router) {
		if now != nil {
			r.now = now
		}
	}
}

// NewRouter builds a credential router. Every channel gets a synthetic
// provider; shared and personal providers are attached through options.
func NewRouter(connections ConnectionSource, tracker quota.Tracker, opts ...RouterOption) *Router {
	r := &Router{
		shared:      make(map[entity.Channel]Scout),
		personal:    make(map[entity.Channel]PersonalScoutFunc),
		synthetic:   make(map[entity.Channel]Scout),
		modes:       DefaultChannelModes(),
		connections: connections,
		tracker:     tracker,
		now:         time.Now,
	}
	for _, ch := range entity.Channels {
		r.synthetic[ch] = NewSyntheticScout(ch)
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Route selects the provider for one call. userID may be uuid.Nil for
// anonymous requests. The shared-quota reservation happens here, as part of
// selection; a later provider failure does not refund it. Personal calls are
// recorded against the user but never bounded by the shared ceiling.
func (r *Router) Route(ctx context.Context, channel entity.Channel, userID uuid.UUID) Selection {
	if sel, ok := r.routePersonal(ctx, channel, userID); ok {
		return sel
	}

	if shared, ok := r.shared[channel]; ok {
		err := r.tracker.Reserve(ctx, quota.SharedSubject, channel)
		switch {
		case err == nil:
			return Selection{Scout: shared, Tier: TierShared, Subject: quota.SharedSubject}
		case errors.Is(err, quota.ErrQuotaExceeded):
			log.Warn().Str("channel", string(channel)).Msg("shared quota exhausted, routing synthetic")
		default:
			log.Warn().Err(err).Str("channel", string(channel)).Msg("quota reserve failed, routing synthetic")
		}
	}

	return Selection{Scout: r.synthetic[channel], Tier: TierSynthetic, Subject: quota.SharedSubject}
}

func (r *Router) routePersonal(ctx context.Context, channel entity.Channel, userID uuid.UUID) (Selection, bool) {
	if userID == uuid.Nil || r.modes[channel] != ModeHybrid || r.connections == nil {
		return Selection{}, false
	}
	build, ok := r.personal[channel]
	if !ok {
		return Selection{}, false
	}

	conn, err := r.connections.Get(ctx, userID, channel)
	if err != nil {
		return Selection{}, false
	}
	if !conn.Usable(r.now()) {
		return Selection{}, false
	}

	subject := userID.String()
	if err := r.tracker.Record(ctx, subject, channel); err != nil {
		log.Warn().Err(err).Str("channel", string(channel)).Msg("recording personal usage failed")
	}
	return Selection{Scout: build(conn.AccessToken), Tier: TierPersonal, Subject: subject}, true
}

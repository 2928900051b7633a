package scout

import (
	"context"
	"strings"

	"github.com/ezazahamad2003/pre-funnel/internal/entity"
)

const syntheticConfidence = 0.30

// SyntheticScout produces deterministic placeholder candidates so discovery
// keeps returning a usable shape when no real provider can run. Results are
// tagged with a _mock source so callers can tell them apart.
type SyntheticScout struct {
	channel entity.Channel
}

// NewSyntheticScout builds the placeholder provider for a channel.
func NewSyntheticScout(channel entity.Channel) *SyntheticScout {
	return &SyntheticScout{channel: channel}
}

func (s *SyntheticScout) Channel() entity.Channel { return s.channel }

// Execute returns the channel's fixed demo contact. The email channel echoes
// the strategy's seed address so downstream dedup behaves like the real
// provider. Same strategy in, same candidates out.
func (s *SyntheticScout) Execute(ctx context.Context, strategy entity.Strategy) ([]entity.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var c entity.Candidate
	switch s.channel {
	case entity.ChannelEmail:
		c = entity.Candidate{
			Name:     "John Doe",
			Email:    strings.TrimSpace(strategy.Query),
			Title:    "Founder",
			Company:  "TechStart",
			LinkedIn: "https://linkedin.com/in/johndoe",
			XHandle:  "@johndoe",
		}
	case entity.ChannelLinkedIn:
		c = entity.Candidate{
			Name:     "Bob LinkedIn",
			Title:    "VP Sales",
			Company:  "VoiceAI Corp",
			LinkedIn: "https://linkedin.com/in/boblinkedin",
		}
	case entity.ChannelX:
		c = entity.Candidate{
			Name:    "Alice X",
			Title:   "Tech Lead",
			Company: "ChatVoice",
			XHandle: "@alicex",
		}
	default:
		c = entity.Candidate{
			Name:        "Charlie Web",
			Title:       "CTO",
			Company:     "WebVoice",
			XHandle:     "@charlieweb",
			PublicLinks: []string{"https://webvoice.com/team"},
		}
	}

	c.Channel = s.channel
	c.Source = string(s.channel) + "_mock"
	c.Synthetic = true
	c.Confidence = syntheticFieldConfidence(c)
	return []entity.Candidate{c}, nil
}

func syntheticFieldConfidence(c entity.Candidate) map[entity.Field]float64 {
	conf := make(map[entity.Field]float64)
	for _, f := range entity.IdentityFields {
		if c.Get(f) != "" {
			conf[f] = syntheticConfidence
		}
	}
	return conf
}

var _ Scout = (*SyntheticScout)(nil)

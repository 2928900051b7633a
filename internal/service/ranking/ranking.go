// Package ranking merges raw scout candidates into deduplicated leads and
// orders them against the caller's goal.
package ranking

import (
	"sort"

	"github.com/ezazahamad2003/pre-funnel/internal/entity"
	"github.com/ezazahamad2003/pre-funnel/internal/identity"
)

// Weights groups the components of a lead's relevance score.
type Weights struct {
	Goal         float64
	Reliability  float64
	Completeness float64
	Network      float64
}

// DefaultWeights favors goal fit, then source reliability, then profile
// completeness, with a small warm-network bonus.
func DefaultWeights() Weights {
	return Weights{Goal: 0.40, Reliability: 0.30, Completeness: 0.25, Network: 0.05}
}

// channelReliability ranks sources by how trustworthy their field data is:
// a dedicated enrichment API over the professional network over short-form
// social over generic web search.
var channelReliability = map[entity.Channel]float64{
	entity.ChannelEmail:    0.50,
	entity.ChannelLinkedIn: 0.40,
	entity.ChannelX:        0.30,
	entity.ChannelWeb:      0.20,
}

// lead accumulates merge state alongside the public Lead.
type lead struct {
	entity.Lead

	// bestContribution is the mean populated-field confidence of the
	// strongest contributor so far; that contributor names the Source.
	bestContribution float64
	// keyless marks leads created without any strong identity key; only
	// those participate in fuzzy matching.
	keyless bool
}

// Aggregate deduplicates candidates in arrival order. Candidates sharing a
// normalized email, profile URL or handle collapse into one lead; candidates
// with none of those keys fall back to a fuzzy (name, company) match against
// other keyless leads. Field values merge by per-field confidence.
func Aggregate(candidates []entity.Candidate) []entity.Lead {
	var leads []*lead
	index := make(map[string]*lead)

	for _, c := range candidates {
		if c.Empty() {
			continue
		}
		keys := identity.Keys(c)

		target := findByKey(index, keys)
		if target == nil && len(keys) == 0 {
			target = findFuzzy(leads, c)
		}
		if target == nil {
			target = &lead{keyless: len(keys) == 0}
			leads = append(leads, target)
		}
		merge(target, c)

		// Attach every key of the candidate so later candidates matching
		// any of them land on the same lead.
		for _, key := range keys {
			if _, taken := index[key]; !taken {
				index[key] = target
			}
		}
	}

	out := make([]entity.Lead, len(leads))
	for i, l := range leads {
		out[i] = l.Lead
	}
	return out
}

func findByKey(index map[string]*lead, keys []string) *lead {
	for _, key := range keys {
		if l, ok := index[key]; ok {
			return l
		}
	}
	return nil
}

func findFuzzy(leads []*lead, c entity.Candidate) *lead {
	for _, l := range leads {
		if !l.keyless {
			continue
		}
		if identity.FuzzyMatch(c.Name, c.Company, l.Name, l.Company) {
			return l
		}
	}
	return nil
}

// merge folds one candidate into a lead. Per field the higher-confidence
// value wins; a populated value never gives way to an empty one.
func merge(l *lead, c entity.Candidate) {
	if l.Confidence == nil {
		l.Confidence = make(map[entity.Field]float64)
	}

	for _, f := range entity.IdentityFields {
		value := c.Get(f)
		if value == "" {
			continue
		}
		conf := c.FieldConfidence(f)
		if l.Get(f) == "" || conf > l.Confidence[f] {
			l.Set(f, value)
			l.Confidence[f] = conf
		}
	}

	for _, link := range c.PublicLinks {
		if link != "" && !containsLink(l.PublicLinks, link) {
			l.PublicLinks = append(l.PublicLinks, link)
		}
	}

	if !l.HasChannel(c.Channel) {
		l.Channels = append(l.Channels, c.Channel)
	}
	if c.StrategyConfidence > l.BestStrategyConfidence {
		l.BestStrategyConfidence = c.StrategyConfidence
	}
	l.NetworkAware = l.NetworkAware || c.NetworkAware

	if contribution := meanConfidence(c); contribution > l.bestContribution {
		l.bestContribution = contribution
		l.Source = c.Source
		l.Synthetic = c.Synthetic
	}
}

func meanConfidence(c entity.Candidate) float64 {
	var sum float64
	var n int
	for _, f := range entity.IdentityFields {
		if c.Get(f) == "" {
			continue
		}
		sum += c.FieldConfidence(f)
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func containsLink(links []string, link string) bool {
	for _, l := range links {
		if l == link {
			return true
		}
	}
	return false
}

// Rank scores and orders leads, keeping at most target. The sort is stable,
// so equal scores preserve aggregation order and identical input always
// produces identical output.
func Rank(leads []entity.Lead, w Weights, target int) []entity.Lead {
	for i := range leads {
		leads[i].Score = score(&leads[i], w)
	}

	sort.SliceStable(leads, func(i, j int) bool {
		return leads[i].Score > leads[j].Score
	})

	if target > 0 && len(leads) > target {
		leads = leads[:target]
	}
	return leads
}

func score(l *entity.Lead, w Weights) float64 {
	s := w.Goal * l.BestStrategyConfidence
	s += w.Reliability * reliability(l.Channels)
	s += w.Completeness * completeness(l)
	if l.NetworkAware {
		s += w.Network
	}
	return s
}

// reliability sums distinct contributing-channel weights, capped at 1, so
// multi-channel corroboration outranks any single source.
func reliability(channels []entity.Channel) float64 {
	var sum float64
	for _, ch := range channels {
		sum += channelReliability[ch]
	}
	if sum > 1 {
		return 1
	}
	return sum
}

func completeness(l *entity.Lead) float64 {
	populated := 0
	for _, f := range entity.IdentityFields {
		if l.Get(f) != "" {
			populated++
		}
	}
	return float64(populated) / float64(len(entity.IdentityFields))
}

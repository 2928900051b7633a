package ranking

import (
	"reflect"
	"testing"

	"github.com/ezazahamad2003/pre-funnel/internal/entity"
)

func emailCandidate(email string) entity.Candidate {
	return entity.Candidate{
		Name:    "Jane Smith",
		Email:   email,
		Title:   "CEO",
		Company: "Acme",
		Channel: entity.ChannelEmail,
		Source:  "email",
		Confidence: map[entity.Field]float64{
			entity.FieldName:    0.90,
			entity.FieldEmail:   0.95,
			entity.FieldTitle:   0.85,
			entity.FieldCompany: 0.85,
		},
		StrategyConfidence: 0.9,
	}
}

func TestAggregate_MergesByNormalizedEmail(t *testing.T) {
	a := emailCandidate("jane@acme.com")
	b := entity.Candidate{
		Name:    "Jane A. Smith",
		Email:   " JANE@ACME.COM ",
		Title:   "Chief Executive Officer",
		Channel: entity.ChannelLinkedIn,
		Source:  "linkedin",
		Confidence: map[entity.Field]float64{
			entity.FieldName:  0.60,
			entity.FieldEmail: 0.50,
			entity.FieldTitle: 0.95,
		},
		StrategyConfidence: 0.4,
	}

	leads := Aggregate([]entity.Candidate{a, b})
	if len(leads) != 1 {
		t.Fatalf("expected 1 merged lead, got %d", len(leads))
	}

	lead := leads[0]
	if lead.Name != "Jane Smith" {
		t.Errorf("lower-confidence name replaced the incumbent: %q", lead.Name)
	}
	if lead.Title != "Chief Executive Officer" {
		t.Errorf("higher-confidence title should win, got %q", lead.Title)
	}
	if lead.Email != "jane@acme.com" {
		t.Errorf("unexpected email: %q", lead.Email)
	}
	if len(lead.Channels) != 2 {
		t.Errorf("expected both channels recorded, got %v", lead.Channels)
	}
	if lead.BestStrategyConfidence != 0.9 {
		t.Errorf("expected max strategy confidence kept, got %f", lead.BestStrategyConfidence)
	}
}

func TestAggregate_SourceReflectsStrongestContributor(t *testing.T) {
	// Scenario: the same person arrives from two synthetic providers sharing
	// a normalized email; the source must name the higher-confidence one.
	weak := entity.Candidate{
		Name:      "John Doe",
		Email:     "a@x.com",
		Channel:   entity.ChannelWeb,
		Source:    "web_mock",
		Synthetic: true,
		Confidence: map[entity.Field]float64{
			entity.FieldName:  0.30,
			entity.FieldEmail: 0.30,
		},
	}
	strong := entity.Candidate{
		Name:      "John Doe",
		Email:     "A@X.com",
		Title:     "Founder",
		Company:   "TechStart",
		Channel:   entity.ChannelEmail,
		Source:    "email_mock",
		Synthetic: true,
		Confidence: map[entity.Field]float64{
			entity.FieldName:    0.90,
			entity.FieldEmail:   0.95,
			entity.FieldTitle:   0.85,
			entity.FieldCompany: 0.85,
		},
	}

	leads := Aggregate([]entity.Candidate{weak, strong})
	if len(leads) != 1 {
		t.Fatalf("expected dedup collision to yield 1 lead, got %d", len(leads))
	}
	if leads[0].Source != "email_mock" {
		t.Errorf("expected source email_mock, got %q", leads[0].Source)
	}
	if !leads[0].Synthetic {
		t.Errorf("expected synthetic flag carried from contributor")
	}
}

func TestAggregate_KeyTiers(t *testing.T) {
	byProfile := entity.Candidate{
		Name:     "Ana Gomez",
		LinkedIn: "https://www.linkedin.com/in/anagomez/?utm_source=share",
		Channel:  entity.ChannelLinkedIn,
		Source:   "linkedin",
		Confidence: map[entity.Field]float64{
			entity.FieldName:     0.90,
			entity.FieldLinkedIn: 0.95,
		},
	}
	byProfileAgain := entity.Candidate{
		Title:    "CTO",
		LinkedIn: "linkedin.com/in/anagomez",
		Channel:  entity.ChannelWeb,
		Source:   "web",
		Confidence: map[entity.Field]float64{
			entity.FieldTitle:    0.50,
			entity.FieldLinkedIn: 0.70,
		},
	}
	byHandle := entity.Candidate{
		Name:    "Sam Katz",
		XHandle: "@SamKatz",
		Channel: entity.ChannelX,
		Source:  "x",
		Confidence: map[entity.Field]float64{
			entity.FieldName:    0.80,
			entity.FieldXHandle: 0.95,
		},
	}
	byHandleAgain := entity.Candidate{
		XHandle: "samkatz",
		Company: "Katz Labs",
		Channel: entity.ChannelWeb,
		Source:  "web",
		Confidence: map[entity.Field]float64{
			entity.FieldXHandle: 0.50,
			entity.FieldCompany: 0.50,
		},
	}

	leads := Aggregate([]entity.Candidate{byProfile, byProfileAgain, byHandle, byHandleAgain})
	if len(leads) != 2 {
		t.Fatalf("expected 2 leads, got %d", len(leads))
	}
	if leads[0].Title != "CTO" {
		t.Errorf("profile-URL merge lost the title: %+v", leads[0])
	}
	if leads[1].Company != "Katz Labs" {
		t.Errorf("handle merge lost the company: %+v", leads[1])
	}
}

func TestAggregate_FuzzyLastResort(t *testing.T) {
	a := entity.Candidate{
		Name:    "Maria Lopez",
		Company: "BrightWave",
		Title:   "VP Engineering",
		Channel: entity.ChannelWeb,
		Source:  "web",
		Confidence: map[entity.Field]float64{
			entity.FieldName:    0.50,
			entity.FieldCompany: 0.50,
			entity.FieldTitle:   0.50,
		},
	}
	b := entity.Candidate{
		Name:    "maria lopez",
		Company: "Brightwave",
		Channel: entity.ChannelX,
		Source:  "x",
		Confidence: map[entity.Field]float64{
			entity.FieldName:    0.80,
			entity.FieldCompany: 0.60,
		},
	}
	// Same name, different company: must NOT merge.
	c := entity.Candidate{
		Name:    "Maria Lopez",
		Company: "Totally Different Inc",
		Channel: entity.ChannelWeb,
		Source:  "web",
		Confidence: map[entity.Field]float64{
			entity.FieldName:    0.50,
			entity.FieldCompany: 0.50,
		},
	}
	// Has a strong key: stays out of the fuzzy tier entirely.
	d := entity.Candidate{
		Name:    "Maria Lopez",
		Company: "BrightWave",
		Email:   "maria@brightwave.io",
		Channel: entity.ChannelEmail,
		Source:  "email",
		Confidence: map[entity.Field]float64{
			entity.FieldName:    0.90,
			entity.FieldCompany: 0.85,
			entity.FieldEmail:   0.95,
		},
	}

	leads := Aggregate([]entity.Candidate{a, b, c, d})
	if len(leads) != 3 {
		t.Fatalf("expected 3 leads (fuzzy merge of first two only), got %d", len(leads))
	}
	if len(leads[0].Channels) != 2 {
		t.Errorf("expected fuzzy pair merged, got channels %v", leads[0].Channels)
	}
}

func TestAggregate_DropsEmptyCandidates(t *testing.T) {
	leads := Aggregate([]entity.Candidate{
		{Channel: entity.ChannelWeb, Source: "web"},
		{Channel: entity.ChannelWeb, Source: "web", PublicLinks: []string{"https://acme.com/team"}},
	})
	if len(leads) != 0 {
		t.Fatalf("expected identity-free candidates dropped, got %d leads", len(leads))
	}
}

func TestAggregate_UnionsPublicLinks(t *testing.T) {
	a := emailCandidate("jane@acme.com")
	a.PublicLinks = []string{"https://acme.com/team", "https://github.com/janes"}
	b := emailCandidate("jane@acme.com")
	b.PublicLinks = []string{"https://acme.com/team", "https://janes.dev"}

	leads := Aggregate([]entity.Candidate{a, b})
	want := []string{"https://acme.com/team", "https://github.com/janes", "https://janes.dev"}
	if !reflect.DeepEqual(leads[0].PublicLinks, want) {
		t.Fatalf("expected links %v, got %v", want, leads[0].PublicLinks)
	}
}

func TestRank_OrderAndTruncation(t *testing.T) {
	leads := []entity.Lead{
		{Name: "Web Only", Channels: []entity.Channel{entity.ChannelWeb}, BestStrategyConfidence: 0.4},
		{Name: "Full Profile", Email: "f@x.com", Title: "CEO", Company: "X", LinkedIn: "linkedin.com/in/f",
			Channels: []entity.Channel{entity.ChannelEmail, entity.ChannelLinkedIn}, BestStrategyConfidence: 0.9},
		{Name: "Network Aware", Channels: []entity.Channel{entity.ChannelX}, BestStrategyConfidence: 0.4, NetworkAware: true},
	}

	ranked := Rank(leads, DefaultWeights(), 2)
	if len(ranked) != 2 {
		t.Fatalf("expected truncation to 2, got %d", len(ranked))
	}
	if ranked[0].Name != "Full Profile" {
		t.Fatalf("expected richest lead first, got %q", ranked[0].Name)
	}
	if ranked[1].Name != "Network Aware" {
		t.Fatalf("expected network bonus to break the tie, got %q", ranked[1].Name)
	}
}

func TestRank_Deterministic(t *testing.T) {
	build := func() []entity.Lead {
		return []entity.Lead{
			{Name: "A", Channels: []entity.Channel{entity.ChannelWeb}, BestStrategyConfidence: 0.4},
			{Name: "B", Channels: []entity.Channel{entity.ChannelWeb}, BestStrategyConfidence: 0.4},
			{Name: "C", Channels: []entity.Channel{entity.ChannelX}, BestStrategyConfidence: 0.8},
		}
	}

	first := Rank(build(), DefaultWeights(), 0)
	second := Rank(build(), DefaultWeights(), 0)
	for i := range first {
		if first[i].Name != second[i].Name {
			t.Fatalf("ranking not reproducible: %v vs %v", first, second)
		}
	}
	// Equal-score leads keep aggregation order.
	if first[1].Name != "A" || first[2].Name != "B" {
		t.Fatalf("expected stable order for ties, got %v", first)
	}
}

func TestRank_FewerThanTarget(t *testing.T) {
	leads := []entity.Lead{{Name: "Only One", Channels: []entity.Channel{entity.ChannelWeb}}}
	ranked := Rank(leads, DefaultWeights(), 10)
	if len(ranked) != 1 {
		t.Fatalf("expected all available leads when under target, got %d", len(ranked))
	}
}

func TestReliability_CapsAtOne(t *testing.T) {
	all := []entity.Channel{
		entity.ChannelEmail, entity.ChannelLinkedIn, entity.ChannelX, entity.ChannelWeb,
	}
	if got := reliability(all); got != 1 {
		t.Fatalf("expected reliability capped at 1, got %f", got)
	}
	if got := reliability([]entity.Channel{entity.ChannelEmail}); got != 0.50 {
		t.Fatalf("expected 0.50 for email-only, got %f", got)
	}
}

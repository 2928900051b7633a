package service

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/ezazahamad2003/pre-funnel/internal/entity"
)

type stubLLM struct {
	response string
	err      error
	prompts  []string
}

func (s *stubLLM) Name() string { return "stub" }

func (s *stubLLM) Generate(_ context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func channelsOf(strategies []entity.Strategy) map[entity.Channel]int {
	counts := make(map[entity.Channel]int)
	for _, s := range strategies {
		counts[s.Channel]++
	}
	return counts
}

func TestPlan_CollaboratorPath(t *testing.T) {
	client := &stubLLM{response: "```json\n" + `{
		"linkedin_queries": ["voice AI founders SF", "speech startup CTO"],
		"x_queries": ["#voiceai founder"],
		"internet_queries": ["voice AI startup leadership", "", "voice AI startup leadership"]
	}` + "\n```"}
	s := NewStrategyService(client)

	strategies := s.Plan(context.Background(), "find SF voice AI founders", "Acme builds voice agents", NetworkProfile{})

	counts := channelsOf(strategies)
	if counts[entity.ChannelLinkedIn] != 2 || counts[entity.ChannelX] != 1 || counts[entity.ChannelWeb] != 1 {
		t.Fatalf("unexpected channel distribution: %v", counts)
	}
	for _, st := range strategies {
		if st.Confidence != 0.80 {
			t.Errorf("expected collaborator confidence 0.80, got %f for %q", st.Confidence, st.Query)
		}
		if st.Channel == entity.ChannelEmail {
			t.Errorf("email channel must not receive generated strategies")
		}
	}
}

func TestPlan_FallbackOnCollaboratorError(t *testing.T) {
	s := NewStrategyService(&stubLLM{err: errors.New("upstream down")})

	strategies := s.Plan(context.Background(), "find SF founders", "Acme", NetworkProfile{})
	if len(strategies) == 0 {
		t.Fatal("fallback must produce strategies")
	}
	counts := channelsOf(strategies)
	for _, ch := range []entity.Channel{entity.ChannelLinkedIn, entity.ChannelX, entity.ChannelWeb} {
		if counts[ch] == 0 {
			t.Errorf("fallback missing channel %s", ch)
		}
	}
	for _, st := range strategies {
		if st.Confidence != 0.40 {
			t.Errorf("expected fallback confidence 0.40, got %f", st.Confidence)
		}
	}
}

func TestPlan_FallbackOnMalformedJSON(t *testing.T) {
	s := NewStrategyService(&stubLLM{response: "sure! here are some queries..."})

	strategies := s.Plan(context.Background(), "find founders", "", NetworkProfile{})
	for _, st := range strategies {
		if st.Confidence != 0.40 {
			t.Fatalf("expected keyword fallback, got confidence %f", st.Confidence)
		}
	}
}

func TestPlan_FallbackOnIncompletePlan(t *testing.T) {
	// Valid JSON, but no x queries: the whole plan is discarded.
	s := NewStrategyService(&stubLLM{response: `{"linkedin_queries":["a"],"internet_queries":["b"]}`})

	strategies := s.Plan(context.Background(), "find founders", "", NetworkProfile{})
	for _, st := range strategies {
		if st.Confidence != 0.40 {
			t.Fatalf("expected keyword fallback, got confidence %f", st.Confidence)
		}
	}
}

func TestPlan_DeterministicWithoutCollaborator(t *testing.T) {
	s := NewStrategyService(nil)

	first := s.Plan(context.Background(), "find SF Founders for Acme", "Acme Robotics", NetworkProfile{})
	second := s.Plan(context.Background(), "find SF Founders for Acme", "Acme Robotics", NetworkProfile{})
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("fallback planning must be deterministic:\n%v\n%v", first, second)
	}
	if len(first) == 0 {
		t.Fatal("expected strategies from fallback")
	}
}

func TestPlan_NetworkBoost(t *testing.T) {
	s := NewStrategyService(nil)
	network := NetworkProfile{
		Connections: map[entity.Channel]entity.SocialConnection{
			entity.ChannelX: {Platform: entity.ChannelX, Handle: "acmedev"},
		},
	}

	strategies := s.Plan(context.Background(), "find founders", "Acme", network)

	var sawNetworkDerived bool
	for _, st := range strategies {
		switch st.Channel {
		case entity.ChannelX:
			if !st.NetworkAware {
				t.Errorf("x strategy should be network-aware: %+v", st)
			}
			if st.Confidence < 0.40+0.10 {
				t.Errorf("expected boosted confidence, got %f", st.Confidence)
			}
			if st.Rationale == "follower overlap on connected account" {
				sawNetworkDerived = true
				if st.Confidence != 0.80 {
					t.Errorf("expected 0.70+0.10 boost, got %f", st.Confidence)
				}
			}
		case entity.ChannelLinkedIn, entity.ChannelWeb:
			if st.NetworkAware {
				t.Errorf("unconnected channel marked network-aware: %+v", st)
			}
		}
	}
	if !sawNetworkDerived {
		t.Error("expected a network-derived x strategy")
	}
}

func TestPlan_BoostCapsAtOne(t *testing.T) {
	client := &stubLLM{response: `{"linkedin_queries":["a"],"x_queries":["b"],"internet_queries":["c"]}`}
	s := NewStrategyService(client, WithNetworkBoost(0.5))
	network := NetworkProfile{
		Connections: map[entity.Channel]entity.SocialConnection{
			entity.ChannelLinkedIn: {Platform: entity.ChannelLinkedIn},
		},
	}

	strategies := s.Plan(context.Background(), "find founders", "", network)
	for _, st := range strategies {
		if st.Confidence > 1.0 {
			t.Fatalf("confidence must cap at 1.0, got %f", st.Confidence)
		}
	}
}

package scout

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ezazahamad2003/pre-funnel/internal/entity"
)

func TestSharedLinkedInScoutLaunchAndPoll(t *testing.T) {
	var fetches int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v2/agents/launch":
			if r.Header.Get("X-Phantombuster-Key-1") != "phantom-key" {
				t.Errorf("missing api key header")
			}
			var payload struct {
				ID       string `json:"id"`
				Argument struct {
					Search string `json:"search"`
				} `json:"argument"`
			}
			json.NewDecoder(r.Body).Decode(&payload)
			if payload.ID != "agent-1" {
				t.Errorf("unexpected agent id %q", payload.ID)
			}
			if payload.Argument.Search != `fintech CTO hiring` {
				t.Errorf("seniority query must pass through unchanged, got %q", payload.Argument.Search)
			}
			json.NewEncoder(w).Encode(map[string]string{"containerId": "c-9"})
		case "/api/v2/containers/fetch-output":
			if r.URL.Query().Get("id") != "c-9" {
				t.Errorf("unexpected container id %q", r.URL.Query().Get("id"))
			}
			if atomic.AddInt32(&fetches, 1) == 1 {
				json.NewEncoder(w).Encode(map[string]string{"status": "running"})
				return
			}
			rows := `[{"fullName":"Ada Li","title":"CTO","company":"FinCore","profileUrl":"https://www.linkedin.com/in/adali/"},` +
				`{"fullName":"Board Bot","headline":"Founder at LoopPay","profileUrl":"https://linkedin.com/in/boardbot"}]`
			json.NewEncoder(w).Encode(map[string]string{"status": "finished", "resultObject": rows})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	scout := NewSharedLinkedInScout("phantom-key", "agent-1",
		WithPhantomBaseURL(server.URL),
		WithPhantomPollInterval(5*time.Millisecond),
	)

	got, err := scout.Execute(context.Background(), entity.Strategy{Channel: entity.ChannelLinkedIn, Query: "fintech CTO hiring"})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if atomic.LoadInt32(&fetches) < 2 {
		t.Fatalf("scout must poll until the container finishes, got %d fetches", fetches)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(got))
	}
	if got[0].Name != "Ada Li" || got[0].Title != "CTO" || got[0].Company != "FinCore" {
		t.Fatalf("row mapping wrong: %+v", got[0])
	}
	if got[0].LinkedIn != "https://linkedin.com/in/adali" {
		t.Fatalf("profile url not canonicalized: %q", got[0].LinkedIn)
	}
	if got[1].Title != "Founder" || got[1].Company != "LoopPay" {
		t.Fatalf("headline must split into title and company: %+v", got[1])
	}
	if got[0].Confidence[entity.FieldLinkedIn] != 0.95 {
		t.Fatalf("linkedin confidence wrong: %v", got[0].Confidence)
	}
}

func TestSharedLinkedInScoutOptimizesGenericQuery(t *testing.T) {
	var searched string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v2/agents/launch" {
			var payload struct {
				Argument struct {
					Search string `json:"search"`
				} `json:"argument"`
			}
			json.NewDecoder(r.Body).Decode(&payload)
			searched = payload.Argument.Search
			json.NewEncoder(w).Encode(map[string]string{"containerId": "c-1"})
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"status": "finished", "resultObject": "[]"})
	}))
	defer server.Close()

	scout := NewSharedLinkedInScout("k", "a", WithPhantomBaseURL(server.URL), WithPhantomPollInterval(time.Millisecond))
	if _, err := scout.Execute(context.Background(), entity.Strategy{Query: "voice ai startups"}); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if searched != `voice ai startups (founder OR CEO OR "co-founder")` {
		t.Fatalf("generic query must gain a seniority bias, got %q", searched)
	}
}

func TestSharedLinkedInScoutRespectsCallDeadline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v2/agents/launch" {
			json.NewEncoder(w).Encode(map[string]string{"containerId": "c-2"})
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"status": "running"})
	}))
	defer server.Close()

	scout := NewSharedLinkedInScout("k", "a", WithPhantomBaseURL(server.URL), WithPhantomPollInterval(5*time.Millisecond))
	ctx, cancel := context.WithTimeout(context.Background(), 40*time.Millisecond)
	defer cancel()

	if _, err := scout.Execute(ctx, entity.Strategy{Query: "anything CEO"}); err == nil {
		t.Fatalf("a container that never finishes must error out at the deadline")
	}
}

func TestPersonalLinkedInScoutMapsElements(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer user-token" {
			t.Errorf("missing bearer token, got %q", r.Header.Get("Authorization"))
		}
		if r.URL.Path != "/v2/people-search" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		payload := `{"elements":[
          {"firstName":{"localized":{"en_US":"Maya"}},"lastName":{"localized":{"en_US":"Chen"}},
           "headline":{"localized":{"en_US":"VP Engineering at CloudCo"}},
           "publicProfileUrl":"https://www.linkedin.com/in/mayachen"},
          {"firstName":{"localized":{"de_DE":"Jonas"}},"lastName":{"localized":{"de_DE":"Weber"}},
           "headline":{"localized":{"de_DE":"Gründer"}},"vanityName":"jweber"}
        ]}`
		w.Write([]byte(payload))
	}))
	defer server.Close()

	scout := NewPersonalLinkedInScout("user-token", WithLinkedInBaseURL(server.URL))
	got, err := scout.Execute(context.Background(), entity.Strategy{Query: "platform engineers"})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(got))
	}
	if got[0].Name != "Maya Chen" || got[0].Title != "VP Engineering" || got[0].Company != "CloudCo" {
		t.Fatalf("element mapping wrong: %+v", got[0])
	}
	if got[1].Name != "Jonas Weber" {
		t.Fatalf("non-en_US locale must still resolve, got %q", got[1].Name)
	}
	if got[1].LinkedIn != "https://linkedin.com/in/jweber" {
		t.Fatalf("vanity name must build the profile url, got %q", got[1].LinkedIn)
	}
}

func TestPersonalLinkedInScoutAuthRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "expired", http.StatusUnauthorized)
	}))
	defer server.Close()

	scout := NewPersonalLinkedInScout("stale", WithLinkedInBaseURL(server.URL))
	_, err := scout.Execute(context.Background(), entity.Strategy{Query: "q"})
	if err == nil {
		t.Fatalf("expected error for rejected token")
	}
	if IsTransient(err) {
		t.Fatalf("401 must not be classified transient")
	}
}

func TestSplitHeadline(t *testing.T) {
	cases := []struct {
		in             string
		title, company string
	}{
		{"CTO at Stripe", "CTO", "Stripe"},
		{"Founder & CEO at  Acme Inc", "Founder & CEO", "Acme Inc"},
		{"Angel Investor", "Angel Investor", ""},
		{"", "", ""},
	}
	for _, tc := range cases {
		title, company := splitHeadline(tc.in)
		if title != tc.title || company != tc.company {
			t.Fatalf("splitHeadline(%q) = (%q, %q), want (%q, %q)", tc.in, title, company, tc.title, tc.company)
		}
	}
}

package llm

import (
	"context"
	"testing"
)

func TestNewReturnsNilWhenUnconfigured(t *testing.T) {
	client, err := New(context.Background(), Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client != nil {
		t.Fatalf("expected disabled collaborator, got %T", client)
	}
}

func TestNewPicksOpenAIByKey(t *testing.T) {
	client, err := New(context.Background(), Config{OpenAIAPIKey: "sk-test"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client == nil || client.Name() != "openai" {
		t.Fatalf("expected openai backend, got %#v", client)
	}
}

func TestNewRejectsProviderWithoutKey(t *testing.T) {
	if _, err := New(context.Background(), Config{Provider: "gemini"}); err == nil {
		t.Fatalf("expected error for gemini without key")
	}
	if _, err := New(context.Background(), Config{Provider: "openai"}); err == nil {
		t.Fatalf("expected error for openai without key")
	}
	if _, err := New(context.Background(), Config{Provider: "other", OpenAIAPIKey: "k"}); err == nil {
		t.Fatalf("expected error for unknown provider")
	}
}

func TestStripFences(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n{\"a\":1}\n```", `{"a":1}`},
		{`{"a":1}`, `{"a":1}`},
		{"  plain text  ", "plain text"},
	}
	for _, tc := range cases {
		if got := StripFences(tc.in); got != tc.want {
			t.Fatalf("StripFences(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ezazahamad2003/pre-funnel/internal/entity"
	"github.com/ezazahamad2003/pre-funnel/internal/llm"
)

const (
	defaultDraftTimeout = 10 * time.Second
	minDraftLength      = 10
	maxDraftLength      = 300
)

// MessageService drafts a short outreach message per finalized lead. The LLM
// collaborator writes the personalized version; a fixed template covers every
// failure, so drafting always yields non-empty text.
type MessageService struct {
	client  llm.Client
	timeout time.Duration
}

// MessageOption configures drafting tunables.
type MessageOption func(*MessageService)

// WithDraftTimeout bounds each collaborator call.
func WithDraftTimeout(d time.Duration) MessageOption {
	return func(s *MessageService) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// NewMessageService builds a drafter. A nil client means template-only.
func NewMessageService(client llm.Client, opts ...MessageOption) *MessageService {
	s := &MessageService{client: client, timeout: defaultDraftTimeout}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Draft writes the outreach text for one lead.
func (s *MessageService) Draft(ctx context.Context, lead entity.Lead, goal, companyInfo string) string {
	if msg := s.collaboratorDraft(ctx, lead, goal, companyInfo); msg != "" {
		return msg
	}
	return templateMessage(lead, goal, companyInfo)
}

func (s *MessageService) collaboratorDraft(ctx context.Context, lead entity.Lead, goal, companyInfo string) string {
	if s.client == nil {
		return ""
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	raw, err := s.client.Generate(ctx, draftPrompt(lead, goal, companyInfo))
	if err != nil {
		log.Warn().Err(err).Str("collaborator", s.client.Name()).
			Msg("message collaborator failed, using template")
		return ""
	}

	msg := strings.TrimSpace(raw)
	msg = strings.Trim(msg, `"'`)
	msg = strings.TrimSpace(msg)
	if len(msg) < minDraftLength || len(msg) > maxDraftLength {
		log.Warn().Int("length", len(msg)).Msg("message collaborator draft out of bounds, using template")
		return ""
	}
	return msg
}

func draftPrompt(lead entity.Lead, goal, companyInfo string) string {
	return fmt.Sprintf(`Write a connection request of at most 50 words.

Recipient: %s, %s at %s
Our goal: %s
About us: %s

Friendly, specific, no subject line, no placeholders. Respond with the
message text only.`, orFallback(lead.Name, "a professional"), orFallback(lead.Title, "their role"),
		orFallback(lead.Company, "their company"), goal, companyInfo)
}

// templateMessage is the deterministic fallback draft.
func templateMessage(lead entity.Lead, goal, companyInfo string) string {
	name := orFallback(strings.TrimSpace(lead.Name), "there")
	if lead.Company != "" {
		return fmt.Sprintf("Hi %s, I noticed you're at %s. We're working on %s at %s. Would love to connect and share ideas!",
			name, lead.Company, goal, companyInfo)
	}
	return fmt.Sprintf("Hi %s, I came across your profile and thought you might be interested in %s. We're at %s - would love to connect!",
		name, goal, companyInfo)
}

func orFallback(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

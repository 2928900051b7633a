package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ezazahamad2003/pre-funnel/internal/dto"
	"github.com/ezazahamad2003/pre-funnel/internal/entity"
	"github.com/ezazahamad2003/pre-funnel/internal/identity"
	"github.com/ezazahamad2003/pre-funnel/internal/quota"
	"github.com/ezazahamad2003/pre-funnel/internal/repository"
)

// connectablePlatforms are the channels that accept personal credentials.
var connectablePlatforms = map[entity.Channel]struct{}{
	entity.ChannelX:        {},
	entity.ChannelLinkedIn: {},
}

// UserService manages caller identities, their platform connections and
// their usage view.
type UserService struct {
	users       repository.UsersRepository
	connections repository.ConnectionsRepository
	tracker     quota.Tracker
	now         func() time.Time
}

// NewUserService wires the user-facing account operations.
func NewUserService(users repository.UsersRepository, connections repository.ConnectionsRepository, tracker quota.Tracker) *UserService {
	return &UserService{
		users:       users,
		connections: connections,
		tracker:     tracker,
		now:         time.Now,
	}
}

// SetNow overrides the clock. Tests only.
func (s *UserService) SetNow(now func() time.Time) { s.now = now }

// CreateUser registers a caller identity.
func (s *UserService) CreateUser(ctx context.Context, req dto.CreateUserRequest) (*dto.UserResponse, error) {
	email := identity.NormalizeEmail(req.Email)
	if email == "" {
		return nil, validationErr("a valid email is required")
	}

	user, err := s.users.Create(ctx, email, strings.TrimSpace(req.Name))
	if err != nil {
		return nil, err
	}
	return toUserResponse(user), nil
}

// Connections lists the user's connected platforms without token material.
func (s *UserService) Connections(ctx context.Context, rawID string) ([]dto.ConnectionResponse, error) {
	userID, err := parseUserID(rawID)
	if err != nil {
		return nil, err
	}
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return nil, err
	}

	conns, err := s.connections.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list connections: %w", err)
	}

	now := s.now()
	out := make([]dto.ConnectionResponse, 0, len(conns))
	for _, conn := range conns {
		out = append(out, dto.ConnectionResponse{
			Platform:  string(conn.Platform),
			Handle:    conn.Handle,
			ExpiresAt: conn.ExpiresAt,
			Active:    conn.Usable(now),
			UpdatedAt: conn.UpdatedAt,
		})
	}
	return out, nil
}

// Usage reports the user's metered consumption next to the shared pool.
func (s *UserService) Usage(ctx context.Context, rawID string) (*dto.UsageResponse, error) {
	userID, err := parseUserID(rawID)
	if err != nil {
		return nil, err
	}
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return nil, err
	}

	userRows, err := s.tracker.Usage(ctx, userID.String())
	if err != nil {
		return nil, fmt.Errorf("user usage: %w", err)
	}
	sharedRows, err := s.tracker.Usage(ctx, quota.SharedSubject)
	if err != nil {
		return nil, fmt.Errorf("shared usage: %w", err)
	}

	return &dto.UsageResponse{
		UserID: userID.String(),
		User:   toUsageRows(userRows),
		Shared: toUsageRows(sharedRows),
	}, nil
}

// ConnectProfiles attaches personal credentials supplied directly by the
// caller, outside the OAuth redirect flow.
func (s *UserService) ConnectProfiles(ctx context.Context, req dto.ConnectSocialProfilesRequest) ([]dto.ConnectionResponse, error) {
	userID, err := parseUserID(req.UserID)
	if err != nil {
		return nil, err
	}
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return nil, err
	}
	if len(req.Platforms) == 0 {
		return nil, validationErr("at least one platform is required")
	}

	now := s.now()
	connected := make([]dto.ConnectionResponse, 0, len(req.Platforms))
	for rawPlatform, payload := range req.Platforms {
		platform := entity.Channel(strings.ToLower(strings.TrimSpace(rawPlatform)))
		if _, ok := connectablePlatforms[platform]; !ok {
			return nil, validationErr("unsupported platform %q", rawPlatform)
		}
		if strings.TrimSpace(payload.AccessToken) == "" {
			return nil, validationErr("access_token is required for platform %q", rawPlatform)
		}

		conn := entity.SocialConnection{
			UserID:       userID,
			Platform:     platform,
			AccessToken:  payload.AccessToken,
			RefreshToken: payload.RefreshToken,
			Handle:       identity.NormalizeHandle(payload.Handle),
		}
		if payload.ExpiresIn > 0 {
			expiry := now.Add(time.Duration(payload.ExpiresIn) * time.Second)
			conn.ExpiresAt = &expiry
		}
		if err := s.connections.Upsert(ctx, &conn); err != nil {
			return nil, fmt.Errorf("upsert %s connection: %w", platform, err)
		}
		connected = append(connected, dto.ConnectionResponse{
			Platform:  string(conn.Platform),
			Handle:    conn.Handle,
			ExpiresAt: conn.ExpiresAt,
			Active:    conn.Usable(now),
			UpdatedAt: conn.UpdatedAt,
		})
	}
	return connected, nil
}

// SaveOAuthConnection upserts the credential produced by a completed OAuth
// exchange.
func (s *UserService) SaveOAuthConnection(ctx context.Context, conn *entity.SocialConnection) error {
	if _, ok := connectablePlatforms[conn.Platform]; !ok {
		return validationErr("unsupported platform %q", conn.Platform)
	}
	if _, err := s.users.FindByID(ctx, conn.UserID); err != nil {
		return err
	}
	if err := s.connections.Upsert(ctx, conn); err != nil {
		return fmt.Errorf("upsert %s connection: %w", conn.Platform, err)
	}
	return nil
}

func parseUserID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, validationErr("user_id must be a valid UUID")
	}
	return id, nil
}

func toUserResponse(user *entity.User) *dto.UserResponse {
	return &dto.UserResponse{
		ID:        user.ID.String(),
		Email:     user.Email,
		Name:      user.Name,
		CreatedAt: user.CreatedAt,
	}
}

func toUsageRows(rows []quota.ChannelUsage) []dto.UsageRow {
	out := make([]dto.UsageRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, dto.UsageRow{
			Channel:   string(row.Channel),
			Used:      row.Used,
			Ceiling:   row.Ceiling,
			Remaining: row.Remaining,
			Window:    string(row.Window),
			ResetsAt:  row.ResetsAt,
		})
	}
	return out
}

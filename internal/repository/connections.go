package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ezazahamad2003/pre-funnel/internal/entity"
)

// ErrConnectionNotFound indicates no stored credential for (user, platform).
var ErrConnectionNotFound = errors.New("social connection not found")

// TokenSealer encrypts credential material before it reaches storage.
type TokenSealer interface {
	Seal(plaintext string) ([]byte, error)
	Open(sealed []byte) (string, error)
}

// ConnectionsRepository persists per-user provider credentials.
type ConnectionsRepository interface {
	Upsert(ctx context.Context, conn *entity.SocialConnection) error
	Get(ctx context.Context, userID uuid.UUID, platform entity.Channel) (*entity.SocialConnection, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]entity.SocialConnection, error)
}

// PGXConnectionsRepository implements ConnectionsRepository with pgx. Token
// columns are sealed on the way in and opened on the way out.
type PGXConnectionsRepository struct {
	pool   pgxPool
	sealer TokenSealer
}

// NewPGXConnectionsRepository wires a pgx backed connections repository.
func NewPGXConnectionsRepository(pool *pgxpool.Pool, sealer TokenSealer) *PGXConnectionsRepository {
	return &PGXConnectionsRepository{pool: pool, sealer: sealer}
}

// Upsert inserts or refreshes the credential for (user, platform).
func (r *PGXConnectionsRepository) Upsert(ctx context.Context, conn *entity.SocialConnection) error {
	if conn == nil {
		return fmt.Errorf("connection payload is nil")
	}
	access, err := r.sealer.Seal(conn.AccessToken)
	if err != nil {
		return fmt.Errorf("seal access token: %w", err)
	}
	refresh, err := r.sealer.Seal(conn.RefreshToken)
	if err != nil {
		return fmt.Errorf("seal refresh token: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
        INSERT INTO social_connections (user_id, platform, access_token, refresh_token, expires_at, handle)
        VALUES ($1, $2, $3, $4, $5, $6)
        ON CONFLICT (user_id, platform) DO UPDATE SET
            access_token = EXCLUDED.access_token,
            refresh_token = EXCLUDED.refresh_token,
            expires_at = EXCLUDED.expires_at,
            handle = EXCLUDED.handle,
            updated_at = NOW()
        RETURNING created_at, updated_at
    `, conn.UserID, conn.Platform, access, refresh, conn.ExpiresAt, conn.Handle)

	if err := row.Scan(&conn.CreatedAt, &conn.UpdatedAt); err != nil {
		return fmt.Errorf("upsert connection: %w", err)
	}
	return nil
}

// Get loads and opens the credential for (user, platform).
func (r *PGXConnectionsRepository) Get(ctx context.Context, userID uuid.UUID, platform entity.Channel) (*entity.SocialConnection, error) {
	row := r.pool.QueryRow(ctx, `
        SELECT user_id, platform, access_token, refresh_token, expires_at, handle, created_at, updated_at
        FROM social_connections
        WHERE user_id = $1 AND platform = $2
    `, userID, platform)

	conn, err := r.scanConnection(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrConnectionNotFound
		}
		return nil, fmt.Errorf("query connection: %w", err)
	}
	return conn, nil
}

// ListByUser returns every stored credential for the user.
func (r *PGXConnectionsRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]entity.SocialConnection, error) {
	rows, err := r.pool.Query(ctx, `
        SELECT user_id, platform, access_token, refresh_token, expires_at, handle, created_at, updated_at
        FROM social_connections
        WHERE user_id = $1
        ORDER BY platform
    `, userID)
	if err != nil {
		return nil, fmt.Errorf("list connections: %w", err)
	}
	defer rows.Close()

	var conns []entity.SocialConnection
	for rows.Next() {
		conn, err := r.scanConnection(rows)
		if err != nil {
			return nil, fmt.Errorf("scan connection row: %w", err)
		}
		conns = append(conns, *conn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate connections: %w", err)
	}
	return conns, nil
}

func (r *PGXConnectionsRepository) scanConnection(row pgx.Row) (*entity.SocialConnection, error) {
	var conn entity.SocialConnection
	var access, refresh []byte
	if err := row.Scan(&conn.UserID, &conn.Platform, &access, &refresh, &conn.ExpiresAt, &conn.Handle, &conn.CreatedAt, &conn.UpdatedAt); err != nil {
		return nil, err
	}

	var err error
	if conn.AccessToken, err = r.sealer.Open(access); err != nil {
		return nil, fmt.Errorf("open access token: %w", err)
	}
	if conn.RefreshToken, err = r.sealer.Open(refresh); err != nil {
		return nil, fmt.Errorf("open refresh token: %w", err)
	}
	return &conn, nil
}

var _ ConnectionsRepository = (*PGXConnectionsRepository)(nil)

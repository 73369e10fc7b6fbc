// Package pg implements the user directory over PostgreSQL via pgx.
package pg

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fivemhub/forumd/internal/store/core"
)

type UserRepo struct {
	pool *pgxpool.Pool
}

// Config tunes the connection pool.
type Config struct {
	DSN             string
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

// New connects a pgx pool and returns the repository.
func New(ctx context.Context, cfg Config) (*UserRepo, error) {
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("pg: parse dsn: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		pc.MaxConns = int32(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		pc.MaxConnLifetime = cfg.ConnMaxLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("pg: connect: %w", err)
	}
	return &UserRepo{pool: pool}, nil
}

// NewWithPool wraps an existing pool (tests, migration runner).
func NewWithPool(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

func (r *UserRepo) Close() {
	r.pool.Close()
}

const userColumns = `id, provider, external_id, username, discriminator, email,
	display_name, avatar_url, banner_url, profile_theme, rank, is_active,
	created_at, updated_at, last_login_at`

// Upsert is a single INSERT ... ON CONFLICT DO UPDATE ... RETURNING
// statement, so the uniqueness constraint on (provider, external_id)
// resolves concurrent first logins without an application lock. Mirror
// fields only move when the provider supplied a non-empty value.
func (r *UserRepo) Upsert(ctx context.Context, p core.UpsertProfile) (*core.User, error) {
	if p.Provider == "" || p.ExternalID == "" {
		return nil, core.ErrInvalid
	}
	displayName := p.DisplayName
	if displayName == "" {
		displayName = p.Username
	}
	const query = `
		INSERT INTO users (provider, external_id, username, discriminator, email,
		                   display_name, profile_theme, rank, avatar_url, last_login_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		ON CONFLICT (provider, external_id) DO UPDATE SET
			username      = COALESCE(NULLIF(EXCLUDED.username, ''), users.username),
			discriminator = COALESCE(NULLIF(EXCLUDED.discriminator, ''), users.discriminator),
			email         = COALESCE(NULLIF(EXCLUDED.email, ''), users.email),
			avatar_url    = COALESCE(NULLIF(EXCLUDED.avatar_url, ''), users.avatar_url),
			last_login_at = NOW(),
			updated_at    = NOW()
		RETURNING ` + userColumns
	row := r.pool.QueryRow(ctx, query,
		p.Provider, p.ExternalID, p.Username, p.Discriminator, p.Email,
		displayName, core.DefaultProfileTheme, core.DefaultRank, p.AvatarURL,
	)
	return scanUser(row)
}

// GetByID filters on is_active so deactivated accounts cannot
// authenticate even with a still-valid credential.
func (r *UserRepo) GetByID(ctx context.Context, id int64) (*core.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = $1 AND is_active`
	u, err := scanUser(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	return u, err
}

func (r *UserRepo) UpdateProfile(ctx context.Context, id int64, displayName, theme string) (*core.User, error) {
	const query = `
		UPDATE users SET
			display_name  = COALESCE(NULLIF($2, ''), display_name),
			profile_theme = COALESCE(NULLIF($3, ''), profile_theme),
			updated_at    = NOW()
		WHERE id = $1 AND is_active
		RETURNING ` + userColumns
	u, err := scanUser(r.pool.QueryRow(ctx, query, id, displayName, theme))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	return u, err
}

func (r *UserRepo) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*core.User, error) {
	var u core.User
	err := row.Scan(
		&u.ID, &u.Provider, &u.ExternalID, &u.Username, &u.Discriminator, &u.Email,
		&u.DisplayName, &u.AvatarURL, &u.BannerURL, &u.ProfileTheme, &u.Rank, &u.IsActive,
		&u.CreatedAt, &u.UpdatedAt, &u.LastLoginAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

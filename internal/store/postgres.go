package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/JonMunkholm/cseguard/internal/config"
	"github.com/JonMunkholm/cseguard/internal/core"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS cse_domains (
	id                BIGSERIAL PRIMARY KEY,
	sector            TEXT        NOT NULL,
	organization_name TEXT        NOT NULL,
	domain            TEXT        NOT NULL,
	added_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
	is_active         BOOLEAN     NOT NULL DEFAULT TRUE
);
CREATE UNIQUE INDEX IF NOT EXISTS cse_domains_domain_lower_idx ON cse_domains (lower(domain));
CREATE INDEX IF NOT EXISTS cse_domains_added_at_idx ON cse_domains (added_at DESC);
`

const domainColumns = `id, domain, organization_name, sector, added_at, is_active`

// uniqueViolation is the Postgres SQLSTATE for a unique constraint failure.
const uniqueViolation = "23505"

// Postgres is a Store backed by a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects to the database described by cfg, verifies the
// connection and creates the schema if needed.
func NewPostgres(ctx context.Context, cfg config.DatabaseConfig) (*Postgres, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	p := &Postgres{pool: pool}
	if err := p.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return p, nil
}

// EnsureSchema creates the cse_domains table and its index if missing.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func (p *Postgres) List(ctx context.Context, params ListParams) ([]core.CSEDomain, error) {
	params = params.normalized()

	query := `SELECT ` + domainColumns + ` FROM cse_domains`
	if params.ActiveOnly {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY added_at DESC, id DESC OFFSET $1 LIMIT $2`

	rows, err := p.pool.Query(ctx, query, params.Offset, params.Limit)
	if err != nil {
		return nil, fmt.Errorf("list domains: %w", err)
	}
	domains, err := pgx.CollectRows(rows, scanDomain)
	if err != nil {
		return nil, fmt.Errorf("list domains: %w", err)
	}
	return domains, nil
}

func (p *Postgres) Add(ctx context.Context, rec core.DomainRecord) (core.CSEDomain, error) {
	var active bool
	err := p.pool.QueryRow(ctx,
		`SELECT is_active FROM cse_domains WHERE lower(domain) = lower($1)`, rec.Domain,
	).Scan(&active)
	switch {
	case err == nil && active:
		return core.CSEDomain{}, ErrAlreadyMonitored
	case err == nil:
		return core.CSEDomain{}, ErrPreviouslyRemoved
	case !errors.Is(err, pgx.ErrNoRows):
		return core.CSEDomain{}, fmt.Errorf("look up domain: %w", err)
	}

	rows, err := p.pool.Query(ctx,
		`INSERT INTO cse_domains (domain, organization_name, sector)
		 VALUES ($1, $2, $3)
		 RETURNING `+domainColumns,
		rec.Domain, rec.OrganizationName, rec.Sector,
	)
	if err != nil {
		return core.CSEDomain{}, fmt.Errorf("insert domain: %w", err)
	}
	d, err := pgx.CollectExactlyOneRow(rows, scanDomain)
	if err != nil {
		// Lost a race with a concurrent insert of the same name.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return core.CSEDomain{}, ErrAlreadyMonitored
		}
		return core.CSEDomain{}, fmt.Errorf("insert domain: %w", err)
	}
	return d, nil
}

func (p *Postgres) BulkAdd(ctx context.Context, recs []core.DomainRecord) ([]core.CSEDomain, []string, error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	added := make([]core.CSEDomain, 0, len(recs))
	skipped := []string{}

	for _, rec := range recs {
		rows, err := tx.Query(ctx,
			`INSERT INTO cse_domains (domain, organization_name, sector)
			 VALUES ($1, $2, $3)
			 ON CONFLICT ((lower(domain))) DO NOTHING
			 RETURNING `+domainColumns,
			rec.Domain, rec.OrganizationName, rec.Sector,
		)
		if err != nil {
			return nil, nil, fmt.Errorf("insert %s: %w", rec.Domain, err)
		}
		d, err := pgx.CollectExactlyOneRow(rows, scanDomain)
		if errors.Is(err, pgx.ErrNoRows) {
			skipped = append(skipped, rec.Domain)
			continue
		}
		if err != nil {
			return nil, nil, fmt.Errorf("insert %s: %w", rec.Domain, err)
		}
		added = append(added, d)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("commit: %w", err)
	}
	return added, skipped, nil
}

func (p *Postgres) Deactivate(ctx context.Context, id int64) error {
	tag, err := p.pool.Exec(ctx, `UPDATE cse_domains SET is_active = FALSE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deactivate domain %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) ActiveDomains(ctx context.Context) ([]string, error) {
	rows, err := p.pool.Query(ctx, `SELECT domain FROM cse_domains WHERE is_active`)
	if err != nil {
		return nil, fmt.Errorf("active domains: %w", err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("active domains: %w", err)
	}
	return names, nil
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *Postgres) Close() {
	p.pool.Close()
}

func scanDomain(row pgx.CollectableRow) (core.CSEDomain, error) {
	var d core.CSEDomain
	err := row.Scan(&d.ID, &d.Domain, &d.OrganizationName, &d.Sector, &d.AddedAt, &d.IsActive)
	return d, err
}

// Package store persists monitored CSE domains for the ingestion service.
//
// Two implementations share the Store interface: Postgres (pgx connection
// pool) for deployments and Memory for development and tests. Domain names
// compare case-insensitively. Domains are never deleted; removal deactivates them, and a deactivated domain cannot be
// added again through the single-add path.
package store

import (
	"context"
	"errors"
	"strings"

	"github.com/JonMunkholm/cseguard/internal/core"
)

var (
	// ErrNotFound is returned when no domain has the requested ID.
	ErrNotFound = errors.New("domain not found")

	// ErrAlreadyMonitored is returned by Add for an active domain.
	ErrAlreadyMonitored = errors.New("this domain is already being monitored")

	// ErrPreviouslyRemoved is returned by Add for a deactivated domain.
	ErrPreviouslyRemoved = errors.New("this domain was previously removed from monitoring and cannot be re-added")
)

// DefaultLimit is the page size used when ListParams.Limit is not positive.
const DefaultLimit = 50

// ListParams selects a page of domains, newest first.
type ListParams struct {
	Offset     int
	Limit      int
	ActiveOnly bool
}

func (p ListParams) normalized() ListParams {
	if p.Offset < 0 {
		p.Offset = 0
	}
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	return p
}

// domainKey is the form domain names are compared in.
func domainKey(domain string) string {
	return strings.ToLower(strings.TrimSpace(domain))
}

// Store is the persistence boundary of the ingestion service.
type Store interface {
	// List returns domains ordered by AddedAt descending.
	List(ctx context.Context, p ListParams) ([]core.CSEDomain, error)

	// Add inserts one domain, failing with ErrAlreadyMonitored or
	// ErrPreviouslyRemoved when the name is taken.
	Add(ctx context.Context, rec core.DomainRecord) (core.CSEDomain, error)

	// BulkAdd inserts every record whose domain is not stored yet, in one
	// transaction. Names already stored, active or not, and repeats within
	// the batch are returned in skipped, in input order.
	BulkAdd(ctx context.Context, recs []core.DomainRecord) (added []core.CSEDomain, skipped []string, err error)

	// Deactivate marks a domain inactive. It returns ErrNotFound for an unknown ID.
	Deactivate(ctx context.Context, id int64) error

	// ActiveDomains returns the names of all active domains.
	ActiveDomains(ctx context.Context) ([]string, error)

	Ping(ctx context.Context) error
	Close()
}

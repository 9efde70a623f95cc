package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/JonMunkholm/cseguard/internal/core"
)

// Memory is an in-process Store. It is safe for concurrent use.
type Memory struct {
	mu      sync.RWMutex
	nextID  int64
	domains []core.CSEDomain
	byName  map[string]int // domainKey -> index into domains
	now     func() time.Time
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		nextID: 1,
		byName: make(map[string]int),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (m *Memory) List(ctx context.Context, p ListParams) ([]core.CSEDomain, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p = p.normalized()

	m.mu.RLock()
	selected := make([]core.CSEDomain, 0, len(m.domains))
	for _, d := range m.domains {
		if p.ActiveOnly && !d.IsActive {
			continue
		}
		selected = append(selected, d)
	}
	m.mu.RUnlock()

	sort.SliceStable(selected, func(i, j int) bool {
		if !selected[i].AddedAt.Equal(selected[j].AddedAt) {
			return selected[i].AddedAt.After(selected[j].AddedAt)
		}
		return selected[i].ID > selected[j].ID
	})

	if p.Offset >= len(selected) {
		return []core.CSEDomain{}, nil
	}
	end := p.Offset + p.Limit
	if end > len(selected) {
		end = len(selected)
	}
	return selected[p.Offset:end], nil
}

func (m *Memory) Add(ctx context.Context, rec core.DomainRecord) (core.CSEDomain, error) {
	if err := ctx.Err(); err != nil {
		return core.CSEDomain{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if idx, ok := m.byName[domainKey(rec.Domain)]; ok {
		if m.domains[idx].IsActive {
			return core.CSEDomain{}, ErrAlreadyMonitored
		}
		return core.CSEDomain{}, ErrPreviouslyRemoved
	}
	return m.insertLocked(rec), nil
}

func (m *Memory) BulkAdd(ctx context.Context, recs []core.DomainRecord) ([]core.CSEDomain, []string, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	added := make([]core.CSEDomain, 0, len(recs))
	skipped := []string{}
	for _, rec := range recs {
		if _, ok := m.byName[domainKey(rec.Domain)]; ok {
			skipped = append(skipped, rec.Domain)
			continue
		}
		added = append(added, m.insertLocked(rec))
	}
	return added, skipped, nil
}

func (m *Memory) insertLocked(rec core.DomainRecord) core.CSEDomain {
	d := core.CSEDomain{
		ID:               m.nextID,
		Domain:           rec.Domain,
		OrganizationName: rec.OrganizationName,
		Sector:           rec.Sector,
		AddedAt:          m.now(),
		IsActive:         true,
	}
	m.nextID++
	m.byName[domainKey(d.Domain)] = len(m.domains)
	m.domains = append(m.domains, d)
	return d
}

func (m *Memory) Deactivate(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.domains {
		if m.domains[i].ID == id {
			m.domains[i].IsActive = false
			return nil
		}
	}
	return ErrNotFound
}

func (m *Memory) ActiveDomains(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.domains))
	for _, d := range m.domains {
		if d.IsActive {
			names = append(names, d.Domain)
		}
	}
	return names, nil
}

func (m *Memory) Ping(ctx context.Context) error { return ctx.Err() }

func (m *Memory) Close() {}

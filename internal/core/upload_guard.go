package core

// upload_guard.go serializes bulk imports.
//
// Only one import may be in flight at a time. The guard is a one-slot
// semaphore with a small state machine on top:
//
//	Idle --TryAcquire--> Uploading --Release--> Idle
//
// A second import started while Uploading is rejected immediately with
// ErrUploadInProgress rather than queued, so an operator who double-clicks
// never submits the same file twice.
//
// WaitForDrain blocks until the running import finishes and is used for
// graceful shutdown.

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrUploadInProgress is returned when an import is already running.
var ErrUploadInProgress = errors.New("upload already in progress")

// GuardState is the import state machine position.
type GuardState string

const (
	StateIdle      GuardState = "idle"
	StateUploading GuardState = "uploading"
)

// UploadGuard allows at most one import at a time.
type UploadGuard struct {
	slot chan struct{}

	mu       sync.RWMutex
	importID string
	fileName string
	started  time.Time
}

// NewUploadGuard creates an idle guard.
func NewUploadGuard() *UploadGuard {
	return &UploadGuard{slot: make(chan struct{}, 1)}
}

// TryAcquire moves the guard to Uploading without blocking.
// It returns false if another import holds the slot.
// The caller MUST call Release when the import completes (use defer).
func (g *UploadGuard) TryAcquire(importID, fileName string) bool {
	select {
	case g.slot <- struct{}{}:
		g.mu.Lock()
		g.importID = importID
		g.fileName = fileName
		g.started = time.Now()
		g.mu.Unlock()
		return true
	default:
		return false
	}
}

// Release returns the guard to Idle.
// Must be called exactly once for each successful TryAcquire.
func (g *UploadGuard) Release() {
	g.mu.Lock()
	g.importID = ""
	g.fileName = ""
	g.started = time.Time{}
	g.mu.Unlock()

	<-g.slot
}

// State returns the current state.
func (g *UploadGuard) State() GuardState {
	if len(g.slot) > 0 {
		return StateUploading
	}
	return StateIdle
}

// WaitForDrain blocks until the guard is Idle or ctx is done.
func (g *UploadGuard) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		if g.State() == StateIdle {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// GuardStatus is a snapshot of the guard for monitoring.
type GuardStatus struct {
	State    GuardState `json:"state"`
	ImportID string     `json:"import_id,omitempty"`
	FileName string     `json:"file_name,omitempty"`
	Started  *time.Time `json:"started,omitempty"`
}

// Status returns the current guard state for the status endpoint.
func (g *UploadGuard) Status() GuardStatus {
	g.mu.RLock()
	defer g.mu.RUnlock()

	st := GuardStatus{State: g.State()}
	if st.State == StateUploading && g.importID != "" {
		started := g.started
		st.ImportID = g.importID
		st.FileName = g.fileName
		st.Started = &started
	}
	return st
}

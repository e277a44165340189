// Package store is the record store adapter: it persists job applications,
// scoped by owner, and turns every write into a change notification that
// live subscriptions answer with a fresh, sorted snapshot.
package store

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/cespare/xxhash/v2"

	"github.com/ntrioooo/job-tracker/internal/tracker"
)

// Store is implemented by PostgresStore and MemoryStore.
type Store interface {
	// Subscribe delivers the current snapshot, then a new one after every
	// change to userID's applications, until ctx ends or the subscription
	// is closed.
	Subscribe(ctx context.Context, userID string) (*Subscription, error)
	List(ctx context.Context, userID string) (Snapshot, error)
	Get(ctx context.Context, userID, id string) (tracker.Application, error)
	Create(ctx context.Context, userID string, draft tracker.Draft) (tracker.Application, error)
	Update(ctx context.Context, userID, id string, patch tracker.Patch) (tracker.Application, error)
	Delete(ctx context.Context, userID, id string) error
}

// Snapshot is the full collection of one user at one point in time, sorted
// newest appliedDate first. Consumers must treat it as read-only.
type Snapshot struct {
	UserID       string                `json:"userId"`
	Version      string                `json:"version"`
	Applications []tracker.Application `json:"applications"`
}

// NewSnapshot sorts apps and stamps the snapshot with its fingerprint.
func NewSnapshot(userID string, apps []tracker.Application) Snapshot {
	if apps == nil {
		apps = []tracker.Application{}
	}
	tracker.SortByAppliedDate(apps)
	return Snapshot{
		UserID:       userID,
		Version:      fingerprint(apps),
		Applications: apps,
	}
}

// fingerprint hashes the fields that identify a revision of the collection.
// Two snapshots with equal fingerprints aggregate identically.
func fingerprint(apps []tracker.Application) string {
	h := xxhash.New()
	var ts [8]byte
	for _, a := range apps {
		_, _ = h.WriteString(a.ID)
		_, _ = h.WriteString("\x00")
		_, _ = h.WriteString(string(a.Status))
		_, _ = h.WriteString("\x00")
		_, _ = h.WriteString(a.AppliedDate)
		_, _ = h.WriteString("\x00")
		_, _ = h.WriteString(string(a.JobType))
		binary.BigEndian.PutUint64(ts[:], uint64(a.UpdatedAt.UnixNano()))
		_, _ = h.Write(ts[:])
	}
	return fmt.Sprintf("%016x", h.Sum64())
}

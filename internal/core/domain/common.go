package domain

import (
	"strings"
	"time"
)

// AuditFields holds standard audit information for domain entities.
// Version is bumped on every persisted change and used for optimistic checks.
type AuditFields struct {
	CreatedAt     time.Time `json:"createdAt"`
	CreatedBy     string    `json:"createdBy"` // UserID Reference
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
	LastUpdatedBy string    `json:"lastUpdatedBy"` // UserID Reference
	Version       int64     `json:"version"`
}

// newAuditFields stamps a freshly created entity at version 1.
func newAuditFields(userID string, now time.Time) AuditFields {
	return AuditFields{
		CreatedAt:     now,
		CreatedBy:     userID,
		LastUpdatedAt: now,
		LastUpdatedBy: userID,
		Version:       1,
	}
}

// touch returns a copy stamped with the updater.
func (a AuditFields) touch(userID string, now time.Time) AuditFields {
	a.LastUpdatedAt = now
	a.LastUpdatedBy = userID
	return a
}

// DateOnly truncates t to midnight UTC. Ledger dates carry no time of day.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func appendNote(notes, note string) string {
	if strings.TrimSpace(notes) == "" {
		return note
	}
	return notes + "\n" + note
}

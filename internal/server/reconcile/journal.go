// Package reconcile records credentials that a failed registration could
// not clean up, so an operator or a sweeper can remove them later.
package reconcile

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/logging"
)

// EventReconciliationRequired tags every log entry about an orphan.
const EventReconciliationRequired = "reconciliation_required"

// Orphan is a credential left behind without a profile.
type Orphan struct {
	CredentialID string    `json:"credential_id"`
	Email        string    `json:"email"`
	Reason       string    `json:"reason"`
	Error        string    `json:"error,omitempty"`
	Attempts     int       `json:"attempts"`
	DetectedAt   time.Time `json:"detected_at"`
}

// Journal stores orphans durably.
type Journal interface {
	Record(ctx context.Context, o Orphan) error
}

// LogJournal keeps orphans in the log stream only. It is used when no
// bucket is configured.
type LogJournal struct {
	logger logging.Logger
}

func NewLogJournal(logger logging.Logger) *LogJournal {
	if logger == nil {
		logger = logging.Nop{}
	}
	return &LogJournal{logger: logger.With("module", "reconcile")}
}

func (j *LogJournal) Record(ctx context.Context, o Orphan) error {
	j.logger.Error(ctx, "orphan credential",
		"event", EventReconciliationRequired,
		"credential_id", o.CredentialID,
		"email", o.Email,
		"reason", o.Reason,
		"error", o.Error,
		"attempts", o.Attempts,
		"detected_at", o.DetectedAt,
	)
	return nil
}

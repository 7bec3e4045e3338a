package audit

import (
	"context"

	"github.com/pkg/errors"

	"github.com/devbrain-cz/finance-keeper/internal/entity/session"
)

type auditStorage interface {
	AppendAudit(ctx context.Context, userID int64, action, details string) error
}

// Recorder appends audit records attributed to the session user. Actions
// without a session user are recorded against user 0.
type Recorder struct {
	storage auditStorage
}

func NewRecorder(storage auditStorage) *Recorder {
	return &Recorder{storage: storage}
}

func (r *Recorder) Record(ctx context.Context, action, details string) error {
	userID, _ := session.UserID(ctx)
	return errors.Wrap(r.storage.AppendAudit(ctx, userID, action, details), "record audit")
}

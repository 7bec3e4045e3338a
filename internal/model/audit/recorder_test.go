package audit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/devbrain-cz/finance-keeper/internal/entity/session"
)

type recordingStorage struct {
	userIDs []int64
	actions []string
}

func (r *recordingStorage) AppendAudit(_ context.Context, userID int64, action, _ string) error {
	r.userIDs = append(r.userIDs, userID)
	r.actions = append(r.actions, action)
	return nil
}

func Test_Record_ShouldAttributeToSessionUser(t *testing.T) {
	store := &recordingStorage{}
	recorder := NewRecorder(store)

	ctx := session.WithUser(context.Background(), 42)
	err := recorder.Record(ctx, "LedgerRun", "entries: 1, alerts: 0")

	assert.NoError(t, err)
	assert.Equal(t, []int64{42}, store.userIDs)
	assert.Equal(t, []string{"LedgerRun"}, store.actions)
}

func Test_Record_ShouldFallBackToUserZeroWithoutSession(t *testing.T) {
	store := &recordingStorage{}
	recorder := NewRecorder(store)

	err := recorder.Record(context.Background(), "LedgerRun", "entries: 0, alerts: 0")

	assert.NoError(t, err)
	assert.Equal(t, []int64{0}, store.userIDs)
}

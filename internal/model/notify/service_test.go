package notify

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devbrain-cz/finance-keeper/internal/entity/alert"
)

type testConfig struct{}

func (testConfig) ChatID() int64 {
	return 777
}

type recordingSender struct {
	texts   []string
	chatIDs []int64
}

func (r *recordingSender) SendMessage(text string, chatID int64) error {
	r.texts = append(r.texts, text)
	r.chatIDs = append(r.chatIDs, chatID)
	return nil
}

type fakeAdvisor struct {
	tip string
	err error
}

func (f fakeAdvisor) BudgetTip(context.Context, string, string, string) (string, error) {
	return f.tip, f.err
}

func Test_HandleAlert_ShouldDeliverFormattedMessageToConfiguredChat(t *testing.T) {
	sender := &recordingSender{}
	svc := New(testConfig{}, sender, nil)

	a := alert.NewGoalDeadline("Vacation", 3, time.Now())
	err := svc.HandleAlert(context.Background(), a)

	assert.NoError(t, err)
	require.Len(t, sender.texts, 1)
	assert.Equal(t, "[WARNING] "+a.Message, sender.texts[0])
	assert.Equal(t, []int64{777}, sender.chatIDs)
}

func Test_HandleAlert_ShouldAppendAdvisorTipForExceededBudget(t *testing.T) {
	sender := &recordingSender{}
	svc := New(testConfig{}, sender, fakeAdvisor{tip: "cook at home more often"})

	a := alert.NewBudgetExceeded("Food", decimal.NewFromInt(1000), decimal.NewFromInt(1200), time.Now())
	err := svc.HandleAlert(context.Background(), a)

	assert.NoError(t, err)
	require.Len(t, sender.texts, 1)
	assert.Equal(t, "[CRITICAL] "+a.Message+"\n\nTip: cook at home more often", sender.texts[0])
}

func Test_HandleAlert_ShouldNotAskAdvisorForWarnings(t *testing.T) {
	sender := &recordingSender{}
	svc := New(testConfig{}, sender, fakeAdvisor{tip: "should not appear"})

	a := alert.NewBudgetNearLimit("Food", decimal.NewFromInt(1000), decimal.NewFromInt(900), time.Now())
	err := svc.HandleAlert(context.Background(), a)

	assert.NoError(t, err)
	require.Len(t, sender.texts, 1)
	assert.NotContains(t, sender.texts[0], "Tip:")
}

func Test_HandleAlert_ShouldStillDeliverWhenAdvisorFails(t *testing.T) {
	sender := &recordingSender{}
	svc := New(testConfig{}, sender, fakeAdvisor{err: assert.AnError})

	a := alert.NewBudgetExceeded("Food", decimal.NewFromInt(1000), decimal.NewFromInt(1200), time.Now())
	err := svc.HandleAlert(context.Background(), a)

	assert.NoError(t, err)
	require.Len(t, sender.texts, 1)
	assert.Equal(t, "[CRITICAL] "+a.Message, sender.texts[0])
}

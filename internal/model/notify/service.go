package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/devbrain-cz/finance-keeper/internal/entity/alert"
	"github.com/devbrain-cz/finance-keeper/internal/logger"
)

const tipTimeout = 20 * time.Second

type messageSender interface {
	SendMessage(text string, chatID int64) error
}

type tipProvider interface {
	BudgetTip(ctx context.Context, category string, spent, limit string) (string, error)
}

type config interface {
	ChatID() int64
}

// Service renders alert events and delivers them to the configured chat.
// For exceeded budgets it additionally asks the advisor for a tip; the tip
// is strictly best-effort and its failure never blocks delivery.
type Service struct {
	sender  messageSender
	advisor tipProvider
	chatID  int64
}

func New(config config, sender messageSender, advisor tipProvider) *Service {
	return &Service{
		sender:  sender,
		advisor: advisor,
		chatID:  config.ChatID(),
	}
}

func (s *Service) HandleAlert(ctx context.Context, a alert.Alert) error {
	text := format(a)

	if a.Kind == alert.BudgetExceeded && s.advisor != nil {
		if tip := s.budgetTip(ctx, a); tip != "" {
			text += "\n\nTip: " + tip
		}
	}

	return s.sender.SendMessage(text, s.chatID)
}

func (s *Service) budgetTip(ctx context.Context, a alert.Alert) string {
	ctx, cancel := context.WithTimeout(ctx, tipTimeout)
	defer cancel()

	tip, err := s.advisor.BudgetTip(ctx, a.Category, a.Spent.StringFixed(2), a.Limit.StringFixed(2))
	if err != nil {
		logger.Warn("advisor tip unavailable", zap.Error(err))
		return ""
	}
	return tip
}

func format(a alert.Alert) string {
	return fmt.Sprintf("[%s] %s", strings.ToUpper(string(a.Severity)), a.Message)
}

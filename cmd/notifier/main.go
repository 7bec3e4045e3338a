package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/devbrain-cz/finance-keeper/internal/clients/advisor"
	"github.com/devbrain-cz/finance-keeper/internal/clients/kafka"
	"github.com/devbrain-cz/finance-keeper/internal/clients/tg"
	"github.com/devbrain-cz/finance-keeper/internal/config"
	"github.com/devbrain-cz/finance-keeper/internal/logger"
	"github.com/devbrain-cz/finance-keeper/internal/model/notify"
)

func main() {
	logger.Info("Notifier init - start")

	_ = godotenv.Load()

	conf, err := config.New()
	if err != nil {
		logger.Fatal("failed to init config:", zap.Error(err))
	}

	tgClient, err := tg.New(conf.Telegram())
	if err != nil {
		logger.Fatal("failed to init telegram client:", zap.Error(err))
	}

	var svc *notify.Service
	if conf.Advisor().ApiKey() != "" {
		svc = notify.New(conf.Telegram(), tgClient, advisor.New(conf.Advisor()))
	} else {
		logger.Info("advisor tips disabled, no api key configured")
		svc = notify.New(conf.Telegram(), tgClient, nil)
	}

	consumer, err := kafka.NewConsumer(conf.Kafka(), svc)
	if err != nil {
		logger.Fatal("failed to init kafka consumer:", zap.Error(err))
	}
	defer func() {
		_ = consumer.Close()
	}()

	logger.Info("Notifier init - end")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err = consumer.StartConsuming(ctx); err != nil {
		logger.Fatal("consumer stopped:", zap.Error(err))
	}
}

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/devbrain-cz/finance-keeper/internal/clients/cache"
	"github.com/devbrain-cz/finance-keeper/internal/clients/kafka"
	"github.com/devbrain-cz/finance-keeper/internal/config"
	"github.com/devbrain-cz/finance-keeper/internal/entity/session"
	"github.com/devbrain-cz/finance-keeper/internal/logger"
	"github.com/devbrain-cz/finance-keeper/internal/model/audit"
	"github.com/devbrain-cz/finance-keeper/internal/model/backup"
	"github.com/devbrain-cz/finance-keeper/internal/model/monitor"
	"github.com/devbrain-cz/finance-keeper/internal/model/recurrence"
	"github.com/devbrain-cz/finance-keeper/internal/model/reports"
	"github.com/devbrain-cz/finance-keeper/internal/model/scheduler"
	"github.com/devbrain-cz/finance-keeper/internal/model/storage"
	"github.com/devbrain-cz/finance-keeper/internal/tracing"
)

const serviceName = "finance-keeper"

func main() {
	logger.Info("Keeper init - start")

	_ = godotenv.Load()

	conf, err := config.New()
	if err != nil {
		logger.Fatal("failed to init config:", zap.Error(err))
	}
	logger.Info("currency table",
		zap.String("base", conf.App().BaseCurrency()),
		zap.Any("rates", conf.App().Rates()),
	)

	closer, err := tracing.Init(serviceName)
	if err != nil {
		logger.Warn("tracing disabled", zap.Error(err))
	} else {
		defer func() {
			_ = closer.Close()
		}()
	}

	db, err := storage.NewPostgresStorage(conf.Postgres())
	if err != nil {
		logger.Fatal("failed to init postgres:", zap.Error(err))
	}
	defer func() {
		_ = db.Close()
	}()

	if err = storage.RunMigrations(db.DB()); err != nil {
		logger.Fatal("failed to run migrations:", zap.Error(err))
	}

	generator := reports.NewGenerator(db, nil)
	mc, err := cache.NewMemcache(conf.Memcached())
	if err != nil {
		logger.Warn("report cache disabled", zap.Error(err))
	} else {
		generator = reports.NewGenerator(db, mc)
	}

	producer, err := kafka.NewProducer(conf.Kafka())
	if err != nil {
		logger.Fatal("failed to init kafka producer:", zap.Error(err))
	}
	defer producer.Close()

	expander := recurrence.NewExpander(conf.App(), db, db)
	thresholds := monitor.New(db, db, db)
	recorder := audit.NewRecorder(db)
	runner := scheduler.NewRunner(conf.App(), expander, thresholds, producer, generator, recorder)

	backupRunner, err := backup.NewRunner(conf.Backup(), db)
	if err != nil {
		logger.Fatal("failed to init backup:", zap.Error(err))
	}

	go serveMetrics(conf.App().MetricsAddr())

	logger.Info("Keeper init - end")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	ctx = session.WithUser(ctx, conf.App().UserID())

	go backupRunner.Run(ctx)
	runner.Run(ctx)
}

func serveMetrics(addr string) {
	if addr == "" {
		return
	}
	http.Handle("/metrics", promhttp.Handler())
	if err := http.ListenAndServe(addr, nil); err != nil {
		logger.Error("metrics server stopped", zap.Error(err))
	}
}

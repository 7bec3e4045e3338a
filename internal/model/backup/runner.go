package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/devbrain-cz/finance-keeper/internal/logger"
)

const fileTimeLayout = "20060102_150405"

type storeDumper interface {
	Dump(ctx context.Context) ([]byte, error)
}

type config interface {
	Folder() string
	BackupIntervalMinutes() int64
}

// Runner periodically snapshots the store into timestamped files. It is
// best-effort: it takes no locks against concurrent writers, and a snapshot
// only promises to reflect some consistent prior state. Failures are logged
// and the next tick simply tries again.
type Runner struct {
	store    storeDumper
	folder   string
	interval int64
}

func NewRunner(config config, store storeDumper) (*Runner, error) {
	if err := os.MkdirAll(config.Folder(), 0o755); err != nil {
		return nil, errors.Wrap(err, "create backup folder")
	}
	return &Runner{
		store:    store,
		folder:   config.Folder(),
		interval: config.BackupIntervalMinutes(),
	}, nil
}

func (r *Runner) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Duration(r.interval) * time.Minute)
	defer ticker.Stop()

	logger.Info("Start backup timer", zap.String("folder", r.folder))
	for {
		select {
		case <-ctx.Done():
			logger.Info("Stop backup timer")
			return
		case <-ticker.C:
			r.BackupOnce(ctx)
		}
	}
}

// BackupOnce writes a single snapshot file.
func (r *Runner) BackupOnce(ctx context.Context) {
	data, err := r.store.Dump(ctx)
	if err != nil {
		logger.Error("backup dump failed", zap.Error(err))
		return
	}

	name := fmt.Sprintf("backup_%s.json", time.Now().Format(fileTimeLayout))
	path := filepath.Join(r.folder, name)
	if err = os.WriteFile(path, data, 0o644); err != nil {
		logger.Error("backup write failed", zap.Error(err), zap.String("path", path))
		return
	}
	logger.Info("backup written", zap.String("path", path))
}

package backup

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	folder string
}

func (c testConfig) Folder() string {
	return c.folder
}

func (c testConfig) BackupIntervalMinutes() int64 {
	return 60
}

type fakeDumper struct {
	data []byte
	err  error
}

func (f fakeDumper) Dump(context.Context) ([]byte, error) {
	return f.data, f.err
}

func Test_BackupOnce_ShouldWriteTimestampedSnapshot(t *testing.T) {
	folder := filepath.Join(t.TempDir(), "backups")
	runner, err := NewRunner(testConfig{folder: folder}, fakeDumper{data: []byte(`{"entries":[]}`)})
	require.NoError(t, err)

	runner.BackupOnce(context.Background())

	files, err := os.ReadDir(folder)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Regexp(t, `^backup_\d{8}_\d{6}\.json$`, files[0].Name())

	content, err := os.ReadFile(filepath.Join(folder, files[0].Name()))
	require.NoError(t, err)
	assert.Equal(t, `{"entries":[]}`, string(content))
}

func Test_BackupOnce_ShouldWriteNothingWhenDumpFails(t *testing.T) {
	folder := filepath.Join(t.TempDir(), "backups")
	runner, err := NewRunner(testConfig{folder: folder}, fakeDumper{err: assert.AnError})
	require.NoError(t, err)

	runner.BackupOnce(context.Background())

	files, err := os.ReadDir(folder)
	require.NoError(t, err)
	assert.Empty(t, files)
}

func Test_NewRunner_ShouldCreateTheBackupFolder(t *testing.T) {
	folder := filepath.Join(t.TempDir(), "nested", "backups")
	_, err := NewRunner(testConfig{folder: folder}, fakeDumper{})
	require.NoError(t, err)

	info, err := os.Stat(folder)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

package config

type BackupConfig struct {
	BackupFolder    string `yaml:"folder"`
	IntervalMinutes int64  `yaml:"interval-minutes"`
}

func (b *BackupConfig) Folder() string {
	return b.BackupFolder
}

func (b *BackupConfig) BackupIntervalMinutes() int64 {
	return b.IntervalMinutes
}

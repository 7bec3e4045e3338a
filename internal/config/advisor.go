package config

type AdvisorConfig struct {
	AdvisorApiKey string `yaml:"api-key"`
	ModelName     string `yaml:"model"`
}

func (a *AdvisorConfig) ApiKey() string {
	return a.AdvisorApiKey
}

func (a *AdvisorConfig) Model() string {
	return a.ModelName
}

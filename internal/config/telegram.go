package config

type TelegramConfig struct {
	ApiToken string `yaml:"token"`
	Chat     int64  `yaml:"chat-id"`
}

func (t *TelegramConfig) Token() string {
	return t.ApiToken
}

func (t *TelegramConfig) ChatID() int64 {
	return t.Chat
}

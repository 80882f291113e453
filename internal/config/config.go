package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	BotToken string `envconfig:"BOT_TOKEN" required:"true"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"` // debug|info|warn|error
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`

	DB       DB
	GigaChat GigaChat
}

// DB holds database settings. Kept separate so schema commands can load it
// without the bot and API credentials.
type DB struct {
	Path string `envconfig:"DB_PATH" default:"./data/gigamovie.db"`
}

// GigaChat holds GigaChat API settings.
type GigaChat struct {
	AuthorizationKey   string        `envconfig:"GIGACHAT_AUTHORIZATION_KEY" required:"true"`
	ClientID           string        `envconfig:"GIGACHAT_CLIENT_ID" required:"true"`
	OAuthURL           string        `envconfig:"GIGACHAT_OAUTH_URL" default:"https://ngw.devices.sberbank.ru:9443/api/v2/oauth"`
	CompletionsURL     string        `envconfig:"GIGACHAT_API_URL" default:"https://gigachat.devices.sberbank.ru/api/v1/chat/completions"`
	Scope              string        `envconfig:"GIGACHAT_SCOPE" default:"GIGACHAT_API_PERS"`
	Model              string        `envconfig:"GIGACHAT_MODEL" default:"GigaChat"`
	Timeout            time.Duration `envconfig:"GIGACHAT_HTTP_TIMEOUT" default:"30s"`
	InsecureSkipVerify bool          `envconfig:"GIGACHAT_INSECURE_SKIP_VERIFY" default:"true"` // provider CA is not in common bundles
}

// Load reads environment variables into Config.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadDB reads only the database settings.
func LoadDB() (DB, error) {
	var db DB
	if err := envconfig.Process("", &db); err != nil {
		return db, err
	}
	return db, nil
}

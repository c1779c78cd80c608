package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Stores supported by STORE.
const (
	StorePostgres = "postgres"
	StoreMongo    = "mongo"
	StoreMemory   = "memory"
)

type Config struct {
	Env      string `env:"ENV" envDefault:"local"`
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`

	Store       string `env:"STORE" envDefault:"postgres"`
	DatabaseURL string `env:"DATABASE_URL"`
	Migrations  bool   `env:"MIGRATIONS" envDefault:"true"`
	MongoURI    string `env:"MONGO_URI"`
	MongoDB     string `env:"MONGO_DATABASE" envDefault:"rollcall"`

	RedisURL     string   `env:"REDIS_URL"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTopic   string   `env:"KAFKA_TOPIC" envDefault:"rollcall.participations"`

	DiscordToken   string `env:"DISCORD_TOKEN"`
	DiscordGuildID string `env:"DISCORD_GUILD_ID"`
	TelegramToken  string `env:"TELEGRAM_TOKEN"`
	TelegramChatID int64  `env:"TELEGRAM_CHAT_ID"`
	Locale         string `env:"LOCALE" envDefault:"fr"`
	Timezone       string `env:"TIMEZONE" envDefault:"Europe/Paris"`

	TokenSecret         string        `env:"TOKEN_SECRET"`
	TicketGrace         time.Duration `env:"TICKET_GRACE" envDefault:"2h"`
	SweepInterval       time.Duration `env:"SWEEP_INTERVAL" envDefault:"10m"`
	SweepBatch          int           `env:"SWEEP_BATCH" envDefault:"100"`
	ScanThrottle        time.Duration `env:"SCAN_THROTTLE" envDefault:"2s"`
	RetryMaxAttempts    int           `env:"RETRY_MAX_ATTEMPTS" envDefault:"3"`
	RetryInitialBackoff time.Duration `env:"RETRY_INITIAL_BACKOFF" envDefault:"20ms"`
	NotifyBuffer        int           `env:"NOTIFY_BUFFER" envDefault:"256"`

	OTelEndpoint string `env:"OTEL_ENDPOINT"`
}

// Load charge la configuration depuis les variables d'environnement et la valide.
func Load() (*Config, error) {
	// .env est optionnel lorsque les variables sont fournies par l'environnement (Docker, CI, etc.).
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate applique toutes les règles métier sur la configuration chargée.
func (c *Config) validate() error {
	switch c.Env {
	case "local", "dev", "prod":
	default:
		return fmt.Errorf("config: ENV doit valoir local, dev ou prod (reçu %q)", c.Env)
	}

	if len(strings.TrimSpace(c.TokenSecret)) < 16 {
		return fmt.Errorf("config: TOKEN_SECRET est requis (16 caractères minimum)")
	}

	switch c.Store {
	case StorePostgres:
		if strings.TrimSpace(c.DatabaseURL) == "" {
			// Valeur par défaut utile en local lorsque DATABASE_URL n'est pas fournie.
			c.DatabaseURL = "postgres://localhost:5432/rollcall?sslmode=disable"
		}
		if err := checkURL("DATABASE_URL", c.DatabaseURL); err != nil {
			return err
		}
	case StoreMongo:
		if strings.TrimSpace(c.MongoURI) == "" {
			return fmt.Errorf("config: MONGO_URI est requis avec STORE=mongo")
		}
		if err := checkURL("MONGO_URI", c.MongoURI); err != nil {
			return err
		}
	case StoreMemory:
		if c.Env == "prod" {
			return fmt.Errorf("config: STORE=memory n'est pas autorisé en prod")
		}
	default:
		return fmt.Errorf("config: STORE inconnu %q (postgres, mongo ou memory)", c.Store)
	}

	if c.RedisURL != "" {
		if err := checkURL("REDIS_URL", c.RedisURL); err != nil {
			return err
		}
	}

	if c.TelegramToken != "" && c.TelegramChatID == 0 {
		return fmt.Errorf("config: TELEGRAM_CHAT_ID est requis avec TELEGRAM_TOKEN")
	}

	for _, r := range c.DiscordGuildID {
		if r < '0' || r > '9' {
			return fmt.Errorf("config: DISCORD_GUILD_ID doit être un ID de serveur Discord (chiffres uniquement)")
		}
	}

	if c.TicketGrace < 0 {
		return fmt.Errorf("config: TICKET_GRACE ne peut pas être négatif")
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("config: SWEEP_INTERVAL doit être positif")
	}
	if c.SweepBatch <= 0 {
		return fmt.Errorf("config: SWEEP_BATCH doit être positif")
	}
	if c.RetryMaxAttempts < 1 {
		return fmt.Errorf("config: RETRY_MAX_ATTEMPTS doit valoir au moins 1")
	}

	return nil
}

func checkURL(name, raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("config: %s invalide (%q): %w", name, raw, err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("config: %s invalide (%q): scheme ou host manquant", name, raw)
	}
	return nil
}

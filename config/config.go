package config

import (
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds every runtime parameter, loaded from environment variables.
type Config struct {
	HTTPPort string `envconfig:"HTTP_PORT" default:"4242"`

	// Store backend: "file", "sqlite" or "memory".
	StoreDriver string `envconfig:"STORE_DRIVER" default:"file"`
	DataDir     string `envconfig:"DATA_DIR" default:"./data"`
	SQLitePath  string `envconfig:"SQLITE_PATH" default:"./data/store.db"`

	// Uploaded documents above this size keep their metadata but are not
	// retained for download. Covers above their limit are rejected.
	MaxEmbedBytes int64 `envconfig:"MAX_EMBED_BYTES" default:"3145728"`
	MaxCoverBytes int64 `envconfig:"MAX_COVER_BYTES" default:"2097152"`

	JournalPageSize int `envconfig:"JOURNAL_PAGE_SIZE" default:"10"`
	OpinionPageSize int `envconfig:"OPINION_PAGE_SIZE" default:"12"`

	// Reconcile-from-storage fallback for surfaces that may miss change
	// events.
	PollSchedule string `envconfig:"POLL_SCHEDULE" default:"@every 5s"`

	AdminEmail    string `envconfig:"ADMIN_EMAIL" default:"admin@ksm.ac.id"`
	AdminPassword string `envconfig:"ADMIN_PASSWORD" default:"admin123"`

	PlaceholderCover string `envconfig:"PLACEHOLDER_COVER" default:"https://via.placeholder.com/150x200/4a5568/ffffff?text=No+Cover"`
}

// Load reads the configuration from the environment, with a best-effort
// .env file on top.
func Load() (*Config, error) {
	_ = godotenv.Load()
	var c Config
	err := envconfig.Process("", &c)
	return &c, err
}

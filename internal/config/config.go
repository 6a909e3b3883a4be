// Package config loads and validates scraper configuration via Viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/JakeFAU/election-results-scraper/internal/logging"
)

// EnvPrefix prefixes every environment override, e.g. ELECTIONS_OUTPUT_DIR.
const EnvPrefix = "ELECTIONS"

// Config captures all configuration knobs loaded via Viper.
type Config struct {
	Logging      logging.Config     `mapstructure:"logging"`
	HTTP         HTTPConfig         `mapstructure:"http"`
	Scrape       ScrapeConfig       `mapstructure:"scrape"`
	Municipales  MunicipalesConfig  `mapstructure:"municipales"`
	Legislatives LegislativesConfig `mapstructure:"legislatives"`
	Output       OutputConfig       `mapstructure:"output"`
	DB           DBConfig           `mapstructure:"db"`
	PubSub       PubSubConfig       `mapstructure:"pubsub"`
	Metrics      MetricsConfig      `mapstructure:"metrics"`
}

// HTTPConfig configures the fetcher.
type HTTPConfig struct {
	UserAgent      string `mapstructure:"user_agent"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	RespectRobots  bool   `mapstructure:"respect_robots"`
}

// ScrapeConfig bounds how many terminal pages are in flight.
type ScrapeConfig struct {
	Workers int `mapstructure:"workers"`
}

// MunicipalesConfig describes the municipal results site.
type MunicipalesConfig struct {
	BaseURL         string   `mapstructure:"base_url"`
	Sectorized      []string `mapstructure:"sectorized"`
	NoResultsMarker string   `mapstructure:"no_results_marker"`
}

// LegislativesConfig describes the legislative results site.
type LegislativesConfig struct {
	IndexURL string `mapstructure:"index_url"`
}

// OutputConfig selects the result file format and destination.
type OutputConfig struct {
	Dir       string `mapstructure:"dir"`
	Format    string `mapstructure:"format"`
	GCSBucket string `mapstructure:"gcs_bucket"`
	GCSPrefix string `mapstructure:"gcs_prefix"`
}

// DBConfig enables the optional Postgres sink when DSN is set.
type DBConfig struct {
	DSN   string `mapstructure:"dsn"`
	Table string `mapstructure:"table"`
}

// PubSubConfig enables run notifications when both fields are set.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	Topic     string `mapstructure:"topic"`
}

// MetricsConfig enables the Prometheus textfile export when set.
type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"`
}

// Load builds a Config from disk/environment. Without an explicit path it
// looks for config.yaml in the working directory, /etc/election-scraper and
// $HOME/.election-scraper; finding none is not an error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/election-scraper/")
		v.AddConfigPath("$HOME/.election-scraper")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.development", false)
	v.SetDefault("logging.level", "")
	v.SetDefault("http.user_agent", "election-results-scraper/0.1")
	v.SetDefault("http.timeout_seconds", 15)
	v.SetDefault("http.respect_robots", false)
	v.SetDefault("scrape.workers", 1)
	v.SetDefault("municipales.base_url", "https://elections.interieur.gouv.fr/municipales-2020")
	v.SetDefault("municipales.sectorized", []string{"069/069123.html", "075/075056.html", "013/013055.html"})
	v.SetDefault("municipales.no_results_marker", "Aucun résultat reçu")
	v.SetDefault("legislatives.index_url", "https://elections.interieur.gouv.fr/legislatives-2017/index.html")
	v.SetDefault("output.dir", ".")
	v.SetDefault("output.format", "xlsx")
	v.SetDefault("output.gcs_bucket", "")
	v.SetDefault("output.gcs_prefix", "")
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.table", "election_results")
	v.SetDefault("pubsub.project_id", "")
	v.SetDefault("pubsub.topic", "")
	v.SetDefault("metrics.textfile", "")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.Scrape.Workers <= 0 {
		return fmt.Errorf("scrape.workers must be > 0")
	}
	if strings.TrimSpace(c.Municipales.BaseURL) == "" {
		return fmt.Errorf("municipales.base_url is required")
	}
	if strings.TrimSpace(c.Legislatives.IndexURL) == "" {
		return fmt.Errorf("legislatives.index_url is required")
	}
	switch strings.ToLower(c.Output.Format) {
	case "xlsx", "csv":
	default:
		return fmt.Errorf("output.format must be xlsx or csv, got %q", c.Output.Format)
	}
	if c.Output.GCSBucket == "" && strings.TrimSpace(c.Output.Dir) == "" {
		return fmt.Errorf("output.dir is required when output.gcs_bucket is empty")
	}
	if (c.PubSub.ProjectID == "") != (c.PubSub.Topic == "") {
		return fmt.Errorf("pubsub.project_id and pubsub.topic must be set together")
	}
	return nil
}

// Timeout returns the per-request timeout.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

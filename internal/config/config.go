package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	configPathEnv    = "NEWSPIPE_CONFIG"
	feedURLEnv       = "FEED_URL"
	feedSelectorEnv  = "FEED_SELECTOR"
	feedScannerEnv   = "FEED_SCANNER"
	geminiAPIKeyEnv  = "GEMINI_API_KEY"
	geminiModelEnv   = "GEMINI_MODEL"
	dataDirEnv       = "DATA_DIR"
	ledgerFileEnv    = "PROCESSED_IDS_FILE"
	siteDirEnv       = "SITE_DIR"
	npmCommandEnv    = "NPM_COMMAND"
	reviewAppEnv     = "REVIEW_APP_PATH"
	logLevelEnv      = "LOG_LEVEL"
	cronEnv          = "SCHEDULE_CRON"
	defaultScanner   = "html"
	defaultDataDir   = "data"
	defaultModel     = "gemini-2.5-flash"
	defaultEndpoint  = "https://generativelanguage.googleapis.com"
	defaultSelector  = ".newsFeed_list"
	defaultNPM       = "npm"
	defaultLogDir    = "logs"
	defaultPauseSecs = 4
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging LoggingConfig `yaml:"logging"`
	Feed    FeedConfig    `yaml:"feed"`
	Gemini  GeminiConfig  `yaml:"gemini"`
	Paths   PathsConfig   `yaml:"paths"`
	Site    SiteConfig    `yaml:"site"`
	Review  ReviewConfig  `yaml:"review"`

	Scheduler SchedulerConfig `yaml:"scheduler"`
}

// SchedulerConfig defines when recurring full runs fire. Empty means the
// pipeline only runs on demand.
type SchedulerConfig struct {
	CronExpression string `yaml:"cronExpression"`
}

// LoggingConfig selects log level and optional log file destination.
type LoggingConfig struct {
	Level string `yaml:"level"`
	Dir   string `yaml:"dir"`
}

// FeedConfig describes the feed page to scrape and which strategy reads it.
type FeedConfig struct {
	URL      string `yaml:"url"`
	Selector string `yaml:"selector"`
	Scanner  string `yaml:"scanner"`
}

// GeminiConfig defines how to contact the Gemini API.
type GeminiConfig struct {
	Endpoint       string `yaml:"endpoint"`
	Model          string `yaml:"model"`
	APIKey         string `yaml:"apiKey"`
	TargetLanguage string `yaml:"targetLanguage"`
	PauseSeconds   int    `yaml:"pauseSeconds"`
}

// Pause is the delay inserted between consecutive translation calls.
func (g GeminiConfig) Pause() time.Duration {
	secs := g.PauseSeconds
	if secs <= 0 {
		secs = defaultPauseSecs
	}
	return time.Duration(secs) * time.Second
}

// PathsConfig locates the stage directories and the processed-ID ledger.
type PathsConfig struct {
	DataDir    string `yaml:"dataDir"`
	LedgerFile string `yaml:"ledgerFile"`
}

// SiteConfig points at the external static-site project.
type SiteConfig struct {
	Dir        string `yaml:"dir"`
	NPMCommand string `yaml:"npmCommand"`
}

// ReviewConfig wires the optional external review application.
type ReviewConfig struct {
	AppPath string `yaml:"appPath"`
}

// Load reads YAML configuration (if present) and applies environment
// overrides. A .env file in the working directory is honored first.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("config: cannot load .env: %v", err)
	}

	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

// Validate reports the settings without which no pipeline run can start.
func (c Config) Validate() error {
	if c.Feed.URL == "" {
		return fmt.Errorf("feed url is not configured (set %s)", feedURLEnv)
	}
	if c.Gemini.APIKey == "" {
		log.Printf("config: no Gemini API key set, grouping falls back to one group per article")
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(feedURLEnv); v != "" {
		c.Feed.URL = v
	}
	if v := os.Getenv(feedSelectorEnv); v != "" {
		c.Feed.Selector = v
	}
	if v := os.Getenv(feedScannerEnv); v != "" {
		c.Feed.Scanner = v
	}
	if v := os.Getenv(geminiAPIKeyEnv); v != "" {
		c.Gemini.APIKey = v
	}
	if v := os.Getenv(geminiModelEnv); v != "" {
		c.Gemini.Model = v
	}
	if v := os.Getenv(dataDirEnv); v != "" {
		c.Paths.DataDir = v
	}
	if v := os.Getenv(ledgerFileEnv); v != "" {
		c.Paths.LedgerFile = v
	}
	if v := os.Getenv(siteDirEnv); v != "" {
		c.Site.Dir = v
	}
	if v := os.Getenv(npmCommandEnv); v != "" {
		c.Site.NPMCommand = v
	}
	if v := os.Getenv(reviewAppEnv); v != "" {
		c.Review.AppPath = v
	}
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(cronEnv); v != "" {
		c.Scheduler.CronExpression = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Dir != "" {
		base.Logging.Dir = override.Logging.Dir
	}

	if override.Feed.URL != "" {
		base.Feed.URL = override.Feed.URL
	}
	if override.Feed.Selector != "" {
		base.Feed.Selector = override.Feed.Selector
	}
	if override.Feed.Scanner != "" {
		base.Feed.Scanner = override.Feed.Scanner
	}

	if override.Gemini.Endpoint != "" {
		base.Gemini.Endpoint = override.Gemini.Endpoint
	}
	if override.Gemini.Model != "" {
		base.Gemini.Model = override.Gemini.Model
	}
	if override.Gemini.APIKey != "" {
		base.Gemini.APIKey = override.Gemini.APIKey
	}
	if override.Gemini.TargetLanguage != "" {
		base.Gemini.TargetLanguage = override.Gemini.TargetLanguage
	}
	if override.Gemini.PauseSeconds != 0 {
		base.Gemini.PauseSeconds = override.Gemini.PauseSeconds
	}

	if override.Paths.DataDir != "" {
		base.Paths.DataDir = override.Paths.DataDir
	}
	if override.Paths.LedgerFile != "" {
		base.Paths.LedgerFile = override.Paths.LedgerFile
	}

	if override.Site.Dir != "" {
		base.Site.Dir = override.Site.Dir
	}
	if override.Site.NPMCommand != "" {
		base.Site.NPMCommand = override.Site.NPMCommand
	}

	if override.Review.AppPath != "" {
		base.Review.AppPath = override.Review.AppPath
	}

	if override.Scheduler.CronExpression != "" {
		base.Scheduler.CronExpression = override.Scheduler.CronExpression
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Logging: LoggingConfig{Level: "info", Dir: defaultLogDir},
		Feed: FeedConfig{
			Selector: defaultSelector,
			Scanner:  defaultScanner,
		},
		Gemini: GeminiConfig{
			Endpoint:       defaultEndpoint,
			Model:          defaultModel,
			TargetLanguage: "Vietnamese",
			PauseSeconds:   defaultPauseSecs,
		},
		Paths: PathsConfig{
			DataDir:    defaultDataDir,
			LedgerFile: "processed_ids.txt",
		},
		Site: SiteConfig{NPMCommand: defaultNPM},
	}
}

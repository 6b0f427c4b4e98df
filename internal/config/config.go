package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the application's configuration model.
// It captures credentials, bot behavior, rendering, and storage settings.
type Config struct {
	Account     AccountConfig     `yaml:"account"`
	Credentials CredentialsConfig `yaml:"credentials"`
	Bot         BotConfig         `yaml:"bot"`
	Vision      VisionConfig      `yaml:"vision"`
	Render      RenderConfig      `yaml:"render"`
	Watermark   WatermarkConfig   `yaml:"watermark"`
	Storage     StorageConfig     `yaml:"storage"`
	Metrics     MetricsConfig     `yaml:"metrics"`
}

type AccountConfig struct {
	// Bot account username and user id on X.
	Username string `yaml:"username"`
	UserID   string `yaml:"userId"`
}

type CredentialsConfig struct {
	// X/Twitter API bearer token for v2 reads. If empty, read from env X_BEARER_TOKEN
	BearerToken string `yaml:"bearerToken"`
	// OAuth1.0a credentials for media upload and posting replies
	ConsumerKey    string `yaml:"consumerKey"`
	ConsumerSecret string `yaml:"consumerSecret"`
	AccessToken    string `yaml:"accessToken"`
	AccessSecret   string `yaml:"accessSecret"`
}

type BotConfig struct {
	// Phrase that must appear (case-insensitively) in a mention to trigger the bot
	TriggerPhrase string `yaml:"triggerPhrase"`
	// Optional author allow-list (user ids). Empty means everyone is allowed.
	AllowedAuthors []string `yaml:"allowedAuthors"`
	// Poll interval in milliseconds
	PollIntervalMS int `yaml:"pollIntervalMs"`
	// Max mention entries requested per poll
	MaxResults int `yaml:"maxResults"`
	// Quiet hours (UTC) during which poll cycles are skipped
	QuietHours []int `yaml:"quietHours"`
	// Max replies per hour/day; 0 means unlimited
	MaxRepliesPerHour int `yaml:"maxRepliesPerHour"`
	MaxRepliesPerDay  int `yaml:"maxRepliesPerDay"`
}

type VisionConfig struct {
	Model string `yaml:"model"`
	// If empty, read from env OPENAI_API_KEY
	APIKey string `yaml:"apiKey"`
	// Optional base URL override for OpenAI-compatible endpoints
	BaseURL string `yaml:"baseUrl"`
}

type RenderConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TimeoutMS int `yaml:"timeoutMs"`
}

type WatermarkConfig struct {
	Text    string  `yaml:"text"`
	Opacity float64 `yaml:"opacity"`
}

type StorageConfig struct {
	DBPath string `yaml:"dbPath"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns a sensible default configuration.
func Default() Config {
	return Config{
		Account: AccountConfig{Username: "", UserID: ""},
		Bot: BotConfig{
			TriggerPhrase:  "make it epic",
			PollIntervalMS: 60000,
			MaxResults:     25,
		},
		Vision:    VisionConfig{Model: "gpt-4o"},
		Render:    RenderConfig{Width: 800, Height: 600, TimeoutMS: 45000},
		Watermark: WatermarkConfig{Text: "made with chartabot", Opacity: 0.45},
		Storage:   StorageConfig{DBPath: "./chartabot.db"},
	}
}

// ResolveEnv fills in config fields from environment variables if not set.
func (c *Config) ResolveEnv() {
	if c.Credentials.BearerToken == "" {
		c.Credentials.BearerToken = os.Getenv("X_BEARER_TOKEN")
	}
	if c.Credentials.ConsumerKey == "" {
		c.Credentials.ConsumerKey = os.Getenv("X_CONSUMER_KEY")
	}
	if c.Credentials.ConsumerSecret == "" {
		c.Credentials.ConsumerSecret = os.Getenv("X_CONSUMER_SECRET")
	}
	if c.Credentials.AccessToken == "" {
		c.Credentials.AccessToken = os.Getenv("X_ACCESS_TOKEN")
	}
	if c.Credentials.AccessSecret == "" {
		c.Credentials.AccessSecret = os.Getenv("X_ACCESS_SECRET")
	}
	if c.Vision.APIKey == "" {
		c.Vision.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if c.Account.UserID == "" {
		c.Account.UserID = os.Getenv("BOT_USER_ID")
	}
}

// Validate checks that everything required to run the bot is present.
// A failure here is fatal: the process must not start half-configured.
func (c Config) Validate() error {
	if c.Account.UserID == "" && c.Account.Username == "" {
		return errors.New("missing bot account: set account.userId or account.username")
	}
	if c.Credentials.BearerToken == "" {
		return errors.New("missing X bearer token (X_BEARER_TOKEN)")
	}
	if c.Credentials.ConsumerKey == "" || c.Credentials.ConsumerSecret == "" ||
		c.Credentials.AccessToken == "" || c.Credentials.AccessSecret == "" {
		return errors.New("missing OAuth1.0a credentials for posting (X_CONSUMER_KEY/SECRET, X_ACCESS_TOKEN/SECRET)")
	}
	if c.Vision.APIKey == "" {
		return errors.New("missing vision model API key (OPENAI_API_KEY)")
	}
	if c.Bot.TriggerPhrase == "" {
		return errors.New("missing bot.triggerPhrase")
	}
	return nil
}

// PollInterval returns the poll interval as a duration, floored at one second.
func (c Config) PollInterval() time.Duration {
	if c.Bot.PollIntervalMS < 1000 {
		return time.Second
	}
	return time.Duration(c.Bot.PollIntervalMS) * time.Millisecond
}

// RenderTimeout returns the per-render timeout.
func (c Config) RenderTimeout() time.Duration {
	if c.Render.TimeoutMS <= 0 {
		return 45 * time.Second
	}
	return time.Duration(c.Render.TimeoutMS) * time.Millisecond
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	cfg.ResolveEnv()
	return cfg, nil
}

// Save writes YAML config to path, creating directories as needed.
func Save(path string, cfg Config) error {
	if path == "" {
		return errors.New("empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"chartabot/internal/chart"
	"chartabot/internal/cmdlog"
	"chartabot/internal/config"
	"chartabot/internal/engage"
	"chartabot/internal/jobs"
	"chartabot/internal/logging"
	"chartabot/internal/metrics"
	"chartabot/internal/pipeline"
	"chartabot/internal/poll"
	"chartabot/internal/store/botdb"
	"chartabot/internal/theme"
	"chartabot/internal/vision"
	"chartabot/internal/xclient"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	cmd := ""
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}
	switch cmd {
	case "init":
		cmdInit()
	case "run":
		cmdRun()
	case "once":
		cmdOnce()
	case "stats":
		cmdStats()
	default:
		printHelp()
	}
}

func printHelp() {
	theme.PrintBanner()
	fmt.Println("Usage: chartabot <command> [options]")
	fmt.Println("Commands:")
	fmt.Println("  init        Create a config file at ./chartabot.yaml")
	fmt.Println("  run         Poll mentions and reply with charts until stopped")
	fmt.Println("  once        Run a single poll + process cycle and exit")
	fmt.Println("  stats       Show hourly pipeline outcome analytics")
}

func cmdInit() {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	path := fs.String("path", "./chartabot.yaml", "path to write config")
	_ = fs.Parse(os.Args[2:])
	cfg := config.Default()
	if err := config.Save(*path, cfg); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
	abs, _ := filepath.Abs(*path)
	theme.PrintBanner()
	fmt.Println("Config written to:", abs)
}

func loadConfig(path string) config.Config {
	cfg, err := config.Load(path)
	if err != nil {
		// env-only deploys run without a config file
		cfg = config.Default()
		cfg.ResolveEnv()
	}
	return cfg
}

// bot bundles everything a poll cycle needs, plus what shutdown must release.
type bot struct {
	poller    *poll.Poller
	processor *pipeline.Processor
	engine    *chart.Engine
	db        *botdb.DB
}

func buildBot(ctx context.Context, cfg config.Config) (*bot, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	client := xclient.New(cfg.Credentials.BearerToken, cfg.Credentials.ConsumerKey,
		cfg.Credentials.ConsumerSecret, cfg.Credentials.AccessToken, cfg.Credentials.AccessSecret)
	userID := cfg.Account.UserID
	if userID == "" {
		id, err := client.LookupUserID(ctx, cfg.Account.Username)
		if err != nil {
			return nil, fmt.Errorf("resolve bot user id: %w", err)
		}
		userID = id
	}
	engine := chart.NewEngine(cfg.Render.Width, cfg.Render.Height, cfg.RenderTimeout())
	marker := chart.NewWatermarker(cfg.Watermark.Text, cfg.Watermark.Opacity)
	extractor := vision.NewExtractor(cfg.Vision)
	processor := pipeline.NewProcessor(client, extractor, engine, marker)

	var db *botdb.DB
	if cfg.Storage.DBPath != "" {
		d, err := botdb.Open(cfg.Storage.DBPath)
		if err != nil {
			logging.Warn("journal_open_failed", map[string]any{"error": err.Error(), "path": cfg.Storage.DBPath})
		} else {
			db = d
			processor.WithJournal(db).WithGate(engage.NewBudgetGate(db, cfg.Bot))
		}
	}
	poller := poll.New(client, userID, cfg.Bot.TriggerPhrase, cfg.Bot.AllowedAuthors, cfg.Bot.MaxResults)
	return &bot{poller: poller, processor: processor, engine: engine, db: db}, nil
}

func (b *bot) shutdown() {
	b.engine.Shutdown()
	if b.db != nil {
		_ = b.db.Close()
	}
}

func cmdRun() {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	cfgPath := fs.String("config", "./chartabot.yaml", "config path")
	_ = fs.Parse(os.Args[2:])
	cfg := loadConfig(*cfgPath)
	metrics.StartServer(cfg.Metrics.Addr)

	err := cmdlog.Run("run", func() error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		b, err := buildBot(ctx, cfg)
		if err != nil {
			return err
		}
		// released on every exit path, including panic unwind
		defer b.shutdown()
		theme.PrintBanner()
		logging.Info("bot_started", map[string]any{"interval": cfg.PollInterval().String()})
		if err := jobs.RunLoop(ctx, b.poller, b.processor, cfg.PollInterval(), cfg.Bot.QuietHours); err != context.Canceled {
			return err
		}
		return nil
	})
	if err != nil {
		os.Exit(1)
	}
}

func cmdOnce() {
	fs := flag.NewFlagSet("once", flag.ExitOnError)
	cfgPath := fs.String("config", "./chartabot.yaml", "config path")
	_ = fs.Parse(os.Args[2:])
	cfg := loadConfig(*cfgPath)

	err := cmdlog.Run("once", func() error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		b, err := buildBot(ctx, cfg)
		if err != nil {
			return err
		}
		defer b.shutdown()
		jobs.RunOnce(ctx, b.poller, b.processor)
		return nil
	})
	if err != nil {
		os.Exit(1)
	}
}

func cmdStats() {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	cfgPath := fs.String("config", "./chartabot.yaml", "config path")
	hours := fs.Int("hours", 24, "look-back window in hours")
	_ = fs.Parse(os.Args[2:])
	cfg := loadConfig(*cfgPath)
	if cfg.Storage.DBPath == "" {
		fmt.Println("no journal configured (storage.dbPath)")
		os.Exit(1)
	}
	db, err := botdb.Open(cfg.Storage.DBPath)
	if err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
	defer db.Close()
	now := time.Now().UTC()
	events, err := db.LoadOutcomesRange(context.Background(), now.Add(-time.Duration(*hours)*time.Hour), now, "")
	if err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
	printStats(events)
}

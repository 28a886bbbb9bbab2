package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docsearch/internal/config"
	logpkg "github.com/kailas-cloud/docsearch/internal/logger"
	"github.com/kailas-cloud/docsearch/internal/transport/backend"
	"github.com/kailas-cloud/docsearch/internal/transport/tui"
	"github.com/kailas-cloud/docsearch/internal/usecase/search"
	"github.com/kailas-cloud/docsearch/internal/version"
)

func main() {
	_ = godotenv.Load()

	var env, cfgPath, logPath string
	flag.StringVar(&env, "env", config.GetEnv(), "Environment name; selects config/<env>.yaml")
	flag.StringVar(&cfgPath, "config", "", "Explicit config file (overrides -env)")
	flag.StringVar(&logPath, "log", "docsearch-tui.log", "Log file; the terminal belongs to the UI")
	flag.Parse()

	var (
		cfg config.Config
		err error
	)
	if cfgPath != "" {
		cfg, err = config.LoadFile(cfgPath)
	} else {
		cfg, err = config.Load(env)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}

	logger, err := logpkg.NewFileLogger(logPath, cfg.Logging.Level)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to create logger:", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting docsearch console",
		zap.String("version", version.Version),
		zap.String("backend_url", cfg.Backend.BaseURL),
	)

	// Backend counters still tick here but are never registered or served.
	client := backend.NewClient(cfg.Backend.BaseURL,
		backend.WithTimeout(time.Duration(cfg.Backend.TimeoutSec)*time.Second),
		backend.WithUserAgent(version.UserAgent("docsearch-tui")),
		backend.WithLogger(logger),
	)

	page := search.NewPage(client, logger)
	defer page.Close()

	if _, err := tea.NewProgram(tui.New(page, client.BaseURL()), tea.WithAltScreen()).Run(); err != nil {
		logger.Error("console exited with error", zap.Error(err))
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

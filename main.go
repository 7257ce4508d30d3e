package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/orwex/calldeck/internal/api"
	"github.com/orwex/calldeck/internal/config"
	"github.com/orwex/calldeck/internal/logger"
	"github.com/orwex/calldeck/internal/query"
	"github.com/orwex/calldeck/internal/tui"
)

var CLI struct {
	Version kong.VersionFlag

	APIURL       string        `help:"Calling backend base URL." env:"CALLDECK_API_URL"`
	PollInterval time.Duration `help:"Refresh interval for live views." env:"CALLDECK_POLL_INTERVAL"`
	Debug        bool          `help:"Log debug output to stderr." env:"CALLDECK_DEBUG"`
}

func main() {
	kong.Parse(&CLI,
		kong.Name("calldeck"),
		kong.Description("Terminal dashboard for the outbound calling agent"),
		kong.UsageOnError(),
		kong.Vars{"version": "v0.3.0"},
	)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if CLI.APIURL != "" {
		cfg.APIBaseURL = CLI.APIURL
	}
	if CLI.PollInterval > 0 {
		cfg.PollInterval = CLI.PollInterval
	}
	if CLI.Debug {
		cfg.Debug = true
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = "."
	}
	if err := logger.Init(filepath.Join(configDir, "calldeck"), cfg.Debug); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logger.Info("starting", "api", cfg.APIBaseURL, "poll", cfg.PollInterval)

	client := api.New(cfg.APIBaseURL, cfg.HTTPTimeout)
	cache := query.NewCache()

	app := tui.NewApp(cache, client, cfg)
	p := tea.NewProgram(app, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

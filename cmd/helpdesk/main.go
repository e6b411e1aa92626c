package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ahmednasr/githelpdesk/internal/app"
	"github.com/ahmednasr/githelpdesk/internal/config"
	"github.com/ahmednasr/githelpdesk/pkg/logger"
)

var version = "dev"

var verbose bool

var rootCmd = &cobra.Command{
	Use:     "helpdesk",
	Short:   "Ask GitHelpDesk about open-source contribution from a terminal",
	Version: version,
	Long: `helpdesk runs the GitHelpDesk pipeline in-process and prints JSON.

Configuration comes from the same environment variables (and .env file)
as the server.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log to stderr")

	rootCmd.AddCommand(askCmd, reposCmd, issuesCmd, guideCmd, insightsCmd, trendingCmd, questionsCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// openApp builds the application for one command invocation.
func openApp(ctx context.Context) (*app.App, error) {
	cfg := config.Load()

	log := logger.Nop()
	if verbose {
		var err error
		// The development logger writes to stderr, keeping stdout clean JSON.
		if log, err = logger.NewDevelopment(); err != nil {
			return nil, fmt.Errorf("init logger: %w", err)
		}
	}

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("building app: %w", err)
	}
	return a, nil
}

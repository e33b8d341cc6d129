package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/teamdraw/internal/cli"
	"github.com/okian/teamdraw/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Logs go to stderr so stdout stays parseable for -o json/yaml.
	if err := logger.Init(logger.WithOutput(os.Stderr)); err != nil {
		_, _ = os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	level := os.Getenv("TEAMDRAW_LOG_LEVEL")
	if level == "" {
		level = "warn"
	}
	if err := logger.SetLevelString(level); err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}

	if err := cli.Execute(ctx); err != nil {
		os.Exit(1)
	}
}

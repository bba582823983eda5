package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"budget/internal/cli"
	"budget/internal/config"
)

func main() {
	cli.LoadEnvFile()
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd := cli.NewRootCommand(cli.NewApp(os.Stdout, cfg.SQLiteDBPath))
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(cli.ExitCode(err))
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	// Initialize context that cancelled on SIGTERM
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	err := run(ctx, os.Getenv, os.Getwd, os.Stdin, os.Stdout, os.Args[1:])
	if err != nil {
		var f *failure
		if errors.As(err, &f) {
			fmt.Fprintln(os.Stderr, f.Error()) // nolint:errcheck
		} else {
			slog.Error("clinic failed", "error", err.Error())
		}
		cancel()
		os.Exit(1)
	}
}

// run loads config in order: defaults, '.env' file, environment, flags, and runs the command
func run(
	ctx context.Context,
	getenv func(string) string,
	getwd func() (string, error),
	stdin io.Reader,
	stdout io.Writer,
	args []string,
) error {
	c := NewConfig()

	if err := c.LoadDotEnv(getwd); err != nil {
		return fmt.Errorf("error while loading .env: %w", err)
	}
	if err := c.LoadEnv(getenv); err != nil {
		return fmt.Errorf("error while loading environment: %w", err)
	}
	if err := c.ParseFlags(args); err != nil {
		return err
	}
	if c.Command == "" {
		return errors.New("command is required: login, register, logout, status, refresh, dashboard")
	}

	app, err := NewApp(ctx, c, stdout)
	if err != nil {
		return err
	}
	defer app.Close()

	return app.Run(ctx, c.Command, c.Args, stdin)
}

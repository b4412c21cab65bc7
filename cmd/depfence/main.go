package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/charmbracelet/fang"

	"github.com/macropower/depfence/internal/cli"
	"github.com/macropower/depfence/pkg/telemetry"
	"github.com/macropower/depfence/pkg/version"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx := context.Background()

	shutdown, err := telemetry.Setup(ctx, version.GetVersion())
	if err != nil {
		slog.Error("set up tracing", slog.Any("error", err))

		shutdown = func(context.Context) error { return nil }
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		err := shutdown(shutdownCtx)
		if err != nil {
			slog.Error("flush traces", slog.Any("error", err))
		}
	}()

	err = fang.Execute(ctx, cli.NewRootCmd(),
		fang.WithVersion(version.Get().String()),
		fang.WithCommit(version.Revision),
		fang.WithErrorHandler(cli.ErrorHandler),
		fang.WithColorSchemeFunc(cli.ColorSchemeFunc),
		fang.WithNotifySignal(os.Interrupt),
	)
	if err != nil {
		return 1
	}

	return 0
}

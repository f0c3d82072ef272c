package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/gemora/internal/cmd"
	"github.com/felixgeelhaar/gemora/internal/exitcode"
	"github.com/felixgeelhaar/gemora/internal/tui"
	"github.com/felixgeelhaar/gemora/internal/ux"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := cmd.ExecuteContext(ctx)
	switch {
	case err == nil:
		exitcode.Exit(exitcode.Success)
	case errors.Is(ctx.Err(), context.Canceled), errors.Is(err, tui.ErrAborted):
		fmt.Fprintln(os.Stderr, "\nOperation cancelled by user")
		exitcode.Exit(exitcode.Interrupted)
	default:
		fmt.Fprintf(os.Stderr, "Error: %v\n", ux.EnhanceError(err))
		exitcode.ExitWithError(err)
	}
}

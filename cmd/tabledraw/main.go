package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/matzehuels/tabledraw/internal/cli"
	tderrors "github.com/matzehuels/tabledraw/pkg/errors"
)

// Exit codes.
const (
	exitFailure   = 1
	exitBadInput  = 2
	exitInterrupt = 130
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx)
	stop()
	if err == nil {
		return
	}
	if errors.Is(err, context.Canceled) {
		os.Exit(exitInterrupt)
	}
	fmt.Fprintln(os.Stderr, err)
	os.Exit(exitCode(err))
}

// exitCode separates problems with the user's tables or config from
// everything else.
func exitCode(err error) int {
	switch tderrors.GetCode(err) {
	case tderrors.ErrCodeMalformedRecord, tderrors.ErrCodeInvalidConfig,
		tderrors.ErrCodeInvalidInput, tderrors.ErrCodeFileNotFound:
		return exitBadInput
	}
	return exitFailure
}

func run(ctx context.Context) error {
	c := cli.New(os.Stderr, cli.LogInfo)
	root := c.RootCommand()

	var verbose bool
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	attach := root.PersistentPreRunE
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if verbose {
			c.SetLogLevel(cli.LogDebug)
		}
		return attach(cmd, args)
	}

	return root.ExecuteContext(ctx)
}

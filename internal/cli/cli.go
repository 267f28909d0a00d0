package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"pt2rknn/internal/pipeline"
)

// MainContext runs the CLI with explicit arguments and streams and returns
// the process exit code: 0 on success, 2 for usage errors, 1 for any other
// failure.
func MainContext(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	a := newApp(stderr)
	root := buildRootCmd(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	if isUsageError(err) {
		fmt.Fprintf(stderr, "Error: %v\nRun 'pt2rknn --help' for usage.\n", err)
		return 2
	}
	a.log.Error().Msg(err.Error())
	return pipeline.ExitCode(err)
}

// MainWithArgs is a testable variant of Main that accepts args explicitly.
func MainWithArgs(args []string) int {
	return MainContext(context.Background(), args, os.Stdout, os.Stderr)
}

// Main returns an exit code for use by cmd/pt2rknn. SIGINT and SIGTERM
// cancel the running stage.
func Main() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return MainContext(ctx, os.Args[1:], os.Stdout, os.Stderr)
}

// Command bayesfit fits a Bayesian linear regression with an explicit
// Gaussian likelihood. Run without arguments for the textbook run.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/arloliu/bayesfit/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.Execute(ctx)
	stop()

	if err != nil {
		os.Exit(1)
	}
}

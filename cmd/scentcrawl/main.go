// cmd/scentcrawl/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/law-makers/scentcrawl/internal/cli"
	"github.com/rs/zerolog/log"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())

	// First signal: stop between items and keep the checkpoint. Second: exit now.
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Warn().Msg("Interrupt received, finishing items in flight (press Ctrl+C again to force)")
		cancel()
		<-sigCh
		log.Warn().Msg("Forced exit")
		os.Exit(130)
	}()

	code := cli.Execute(ctx)
	cancel()
	os.Exit(code)
}

package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/emiliopalmerini/poisonbench/internal/apperr"
)

// parseFractions parses a comma separated list such as "0.05,0.1,0.5".
func parseFractions(s string) ([]float64, error) {
	var out []float64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		f, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, apperr.Validation(err, "invalid fraction %q", part)
		}
		if f < 0 || f > 1 {
			return nil, apperr.Validation(nil, "fraction %v outside [0,1]", f)
		}
		out = append(out, f)
	}
	if len(out) == 0 {
		return nil, apperr.Validation(nil, "no fractions given")
	}
	return out, nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigChan:
			fmt.Fprintln(os.Stderr, "\nShutting down...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()
	return ctx, cancel
}

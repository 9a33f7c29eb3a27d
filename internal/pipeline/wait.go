package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/webstrike/webstrike/internal/model"
)

// waitPollInterval is how often WaitForTarget retries the connection.
const waitPollInterval = 2 * time.Second

// WaitForTarget polls the target until it accepts TCP connections or the
// timeout expires. Used when the target container is still booting at
// the time the run starts.
func WaitForTarget(ctx context.Context, target *model.Target, timeout time.Duration, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	deadline := time.Now().Add(timeout)
	dialer := &net.Dialer{Timeout: waitPollInterval}

	logger.Info("waiting for target", "target", target.HostPort(), "timeout", timeout)

	for attempt := 1; ; attempt++ {
		conn, err := dialer.DialContext(ctx, "tcp", target.HostPort())
		if err == nil {
			_ = conn.Close()
			logger.Info("target is up", "target", target.HostPort(), "attempts", attempt)
			return nil
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("target %s not reachable after %s: %w", target.HostPort(), timeout, err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(waitPollInterval):
		}
	}
}

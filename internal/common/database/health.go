// internal/common/database/health.go
package database

import (
	"context"
	"fmt"
	"time"
)

// Checker is a dependency that can report readiness.
type Checker interface {
	Name() string
	Ping(ctx context.Context) error
}

// CheckAll pings every checker and returns a status per name ("ok" or the error).
// The boolean is false when any checker failed.
func CheckAll(ctx context.Context, timeout time.Duration, checkers ...Checker) (map[string]string, bool) {
	status := make(map[string]string, len(checkers))
	healthy := true

	for _, ch := range checkers {
		pingCtx, cancel := context.WithTimeout(ctx, timeout)
		err := ch.Ping(pingCtx)
		cancel()

		if err != nil {
			status[ch.Name()] = fmt.Sprintf("error: %v", err)
			healthy = false
			continue
		}
		status[ch.Name()] = "ok"
	}
	return status, healthy
}

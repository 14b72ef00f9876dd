// Package system reports the health of the API and its backing services.
package system

import (
	"context"
	"time"

	"homni_backend/platform/logger"

	"golang.org/x/sync/errgroup"
)

const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"

	degradedErrorCount  = 10
	unhealthyErrorCount = 50

	pingTimeout = 3 * time.Second
)

// Database is the part of the connection pool the health check needs.
type Database interface {
	Ping(ctx context.Context) error
	Connections() int
}

// ErrorCounter reports recent server errors.
type ErrorCounter interface {
	RecentCount() int
}

type DatabaseCheck struct {
	Status      string `json:"status"`
	Connections int    `json:"connections"`
	Error       string `json:"error,omitempty"`
}

type ErrorsCheck struct {
	RecentCount int    `json:"recent_count"`
	Status      string `json:"status"`
}

type Checks struct {
	Database DatabaseCheck `json:"database"`
	Errors   ErrorsCheck   `json:"errors"`
}

type Report struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Checks    Checks    `json:"checks"`
}

type Checker struct {
	db     Database
	errors ErrorCounter
	log    *logger.Logger
	now    func() time.Time
}

func NewChecker(db Database, errors ErrorCounter, log *logger.Logger) *Checker {
	return &Checker{db: db, errors: errors, log: log, now: time.Now}
}

// Check runs every probe concurrently. The overall status is the worst one.
func (c *Checker) Check(ctx context.Context) Report {
	var checks Checks

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		checks.Database = c.checkDatabase(gctx)
		return nil
	})
	g.Go(func() error {
		checks.Errors = c.checkErrors()
		return nil
	})
	_ = g.Wait()

	return Report{
		Status:    worst(checks.Database.Status, checks.Errors.Status),
		Timestamp: c.now().UTC(),
		Checks:    checks,
	}
}

func (c *Checker) checkDatabase(ctx context.Context) DatabaseCheck {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := c.db.Ping(ctx); err != nil {
		c.log.Error("health check database ping failed", "error", err)
		return DatabaseCheck{Status: StatusUnhealthy, Error: "database unreachable"}
	}
	return DatabaseCheck{Status: StatusHealthy, Connections: c.db.Connections()}
}

func (c *Checker) checkErrors() ErrorsCheck {
	n := c.errors.RecentCount()
	return ErrorsCheck{RecentCount: n, Status: errorStatus(n)}
}

func errorStatus(n int) string {
	switch {
	case n < degradedErrorCount:
		return StatusHealthy
	case n < unhealthyErrorCount:
		return StatusDegraded
	default:
		return StatusUnhealthy
	}
}

func worst(statuses ...string) string {
	result := StatusHealthy
	for _, s := range statuses {
		if rank(s) > rank(result) {
			result = s
		}
	}
	return result
}

func rank(status string) int {
	switch status {
	case StatusHealthy:
		return 0
	case StatusDegraded:
		return 1
	default:
		return 2
	}
}

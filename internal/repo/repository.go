package repo

import (
	"context"
	"errors"

	"github.com/hamed0406/wazuhcheck/internal/probe"
	"github.com/hamed0406/wazuhcheck/internal/suite"
)

// ErrNotFound is returned when nothing has been stored yet.
var ErrNotFound = errors.New("not found")

// ReportStore keeps recent suite reports for the status API and the alerter.
type ReportStore interface {
	Save(ctx context.Context, r *suite.Report) error
	// Latest returns the most recent report or ErrNotFound.
	Latest(ctx context.Context) (*suite.Report, error)
	// List returns up to limit reports, newest first. limit <= 0 means all.
	List(ctx context.Context, limit int) ([]*suite.Report, error)
	// LatestResults returns the newest result of every check that has run,
	// even when the latest report only covered a subset of checks.
	LatestResults(ctx context.Context) ([]probe.CheckResult, error)
}

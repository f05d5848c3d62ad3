package repo_test

import (
	"testing"

	"github.com/hamed0406/wazuhcheck/internal/repo"
	"github.com/hamed0406/wazuhcheck/internal/repo/memory"
)

// Compile-time interface satisfaction checks.
// Using external test package avoids import cycle.
func TestInterfaceSatisfaction(t *testing.T) {
	var _ repo.ReportStore = memory.New(1)
	var _ repo.AlertStore = memory.New(1)
}

package probe

import "context"

// MultiChecker runs several checkers against one target, in order.
type MultiChecker struct {
	Checkers []Checker
}

func NewMultiChecker(checkers ...Checker) *MultiChecker {
	return &MultiChecker{Checkers: checkers}
}

func (m *MultiChecker) Run(ctx context.Context, target string) []CheckResult {
	results := make([]CheckResult, 0, len(m.Checkers))
	for _, c := range m.Checkers {
		results = append(results, c.Check(ctx, target))
	}
	return results
}

// Check returns the first failing result, or the first result when all
// passed. Later checkers still run after an earlier failure.
func (m *MultiChecker) Check(ctx context.Context, target string) CheckResult {
	var out CheckResult
	for i, r := range m.Run(ctx, target) {
		if i == 0 || (out.Success() && !r.Success()) {
			out = r
		}
	}
	return out
}

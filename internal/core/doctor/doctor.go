// Package doctor runs health checks against a scribe installation.
package doctor

import "context"

// Status is the outcome of one check item.
type Status string

const (
	StatusPass Status = "pass"
	StatusWarn Status = "warn"
	StatusFail Status = "fail"
)

// CheckItem is one line of a check result. Fixable items can be repaired by
// running the check with autofix enabled.
type CheckItem struct {
	Label   string `json:"label"`
	Status  Status `json:"status"`
	Detail  string `json:"detail,omitempty"`
	Fixable bool   `json:"fixable,omitempty"`
}

// Result groups the items reported by one check.
type Result struct {
	Name  string      `json:"name"`
	Items []CheckItem `json:"items"`
}

// Check inspects one part of the installation.
type Check interface {
	Name() string
	Run(ctx context.Context) Result
}

// RunAll runs checks in order. Once ctx is done the remaining checks are
// reported as failed without running.
func RunAll(ctx context.Context, checks []Check) []Result {
	results := make([]Result, 0, len(checks))
	for _, check := range checks {
		if err := ctx.Err(); err != nil {
			results = append(results, Result{
				Name:  check.Name(),
				Items: []CheckItem{{Label: "skipped", Status: StatusFail, Detail: err.Error()}},
			})
			continue
		}
		results = append(results, check.Run(ctx))
	}
	return results
}

// Tally counts item outcomes across results.
type Tally struct {
	Passed  int `json:"passed"`
	Warned  int `json:"warned"`
	Failed  int `json:"failed"`
	Fixable int `json:"fixable"`
}

// Healthy reports whether no item failed.
func (t Tally) Healthy() bool {
	return t.Failed == 0
}

// Summarize tallies results. Fixable counts only items that warned or failed.
func Summarize(results []Result) Tally {
	var t Tally
	for _, r := range results {
		for _, item := range r.Items {
			switch item.Status {
			case StatusPass:
				t.Passed++
				continue
			case StatusWarn:
				t.Warned++
			case StatusFail:
				t.Failed++
			}
			if item.Fixable {
				t.Fixable++
			}
		}
	}
	return t
}

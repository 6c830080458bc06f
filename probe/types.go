package probe

import (
	"fmt"
	"time"
)

// StatusError is returned when the server answers with an unexpected
// status. Code and Message come from the JSON error body when present.
type StatusError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *StatusError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status %d: %s: %s", e.StatusCode, e.Code, e.Message)
}

// FileResult is the outcome of a GET /file request. Non-2xx statuses are
// reported here rather than as errors.
type FileResult struct {
	Name       string `json:"name"`
	StatusCode int    `json:"status"`
	Body       string `json:"body,omitempty"`
	ErrorCode  string `json:"error,omitempty"`
	Message    string `json:"message,omitempty"`
}

// DuplicatesResult is the outcome of a timed GET /duplicates request.
type DuplicatesResult struct {
	Duplicates []int         `json:"duplicates"`
	Elapsed    time.Duration `json:"elapsed_ns"`
}

// TraversalOptions configures CheckTraversal.
type TraversalOptions struct {
	// Names overrides the built-in malicious names.
	Names []string `validate:"dive,required"`
	// ValidName, when set, is also requested and must be served with 200.
	ValidName string
}

// TraversalCase is one requested name and how the server answered.
type TraversalCase struct {
	Name     string `json:"name"`
	Expected int    `json:"expected_status"`
	Status   int    `json:"status"`
	Passed   bool   `json:"passed"`
	Error    string `json:"error,omitempty"`
}

// TraversalReport is the outcome of CheckTraversal.
type TraversalReport struct {
	Cases  []TraversalCase `json:"cases"`
	Passed bool            `json:"passed"`
}

// RaceOptions configures CheckRace.
type RaceOptions struct {
	Concurrency int `validate:"min=2,max=1000"`
}

// RaceReport is the outcome of CheckRace.
type RaceReport struct {
	Requests   int      `json:"requests"`
	Values     []int64  `json:"values"`
	Unique     int      `json:"unique"`
	Duplicates []int64  `json:"duplicates,omitempty"`
	Errors     []string `json:"errors,omitempty"`
	Passed     bool     `json:"passed"`
}

// Grade classifies a /duplicates response time.
type Grade string

const (
	GradeExcellent Grade = "excellent"
	GradeGood      Grade = "good"
	GradeWarning   Grade = "warning"
	GradeFail      Grade = "fail"
)

// PerfOptions configures CheckPerf. Zero thresholds select the defaults.
type PerfOptions struct {
	Excellent time.Duration `validate:"min=0"`
	Good      time.Duration `validate:"eq=0|gtefield=Excellent"`
	Warning   time.Duration `validate:"eq=0|gtefield=Good"`
}

// PerfReport is the outcome of CheckPerf.
type PerfReport struct {
	Elapsed      time.Duration `json:"elapsed_ns"`
	Milliseconds int64         `json:"elapsed_ms"`
	Duplicates   int           `json:"duplicates"`
	Grade        Grade         `json:"grade"`
	Passed       bool          `json:"passed"`
}

// Report aggregates the three checks run by RunAll.
type Report struct {
	Traversal *TraversalReport `json:"traversal,omitempty"`
	Race      *RaceReport      `json:"race,omitempty"`
	Perf      *PerfReport      `json:"perf,omitempty"`
	Errors    []string         `json:"errors,omitempty"`
}

// Passed reports whether every check ran and passed.
func (r *Report) Passed() bool {
	return len(r.Errors) == 0 &&
		r.Traversal != nil && r.Traversal.Passed &&
		r.Race != nil && r.Race.Passed &&
		r.Perf != nil && r.Perf.Passed
}

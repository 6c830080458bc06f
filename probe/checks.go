package probe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

// DefaultTraversalNames are the names CheckTraversal requests when no
// override is given. Every one must be rejected with 400.
var DefaultTraversalNames = []string{
	"../../../etc/passwd",
	"../../app.js",
	"../secret.txt",
	"valid.txt/../../etc/passwd",
}

// DefaultRaceConcurrency is the number of simultaneous increments.
const DefaultRaceConcurrency = 10

// Default /duplicates grading thresholds.
const (
	DefaultExcellent = 100 * time.Millisecond
	DefaultGood      = 500 * time.Millisecond
	DefaultWarning   = time.Second
)

var validate = validator.New(validator.WithRequiredStructEnabled())

func validateOptions(opts any) error {
	if err := validate.Struct(opts); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	return nil
}

// CheckTraversal requests every malicious name and expects 400 for each.
// When opts.ValidName is set it must come back 200.
func CheckTraversal(ctx context.Context, c *Client, opts TraversalOptions) (*TraversalReport, error) {
	if err := validateOptions(opts); err != nil {
		return nil, err
	}

	names := opts.Names
	if len(names) == 0 {
		names = DefaultTraversalNames
	}

	report := &TraversalReport{Passed: true}

	for _, name := range names {
		report.Cases = append(report.Cases, runFileCase(ctx, c, name, http.StatusBadRequest))
	}
	if opts.ValidName != "" {
		report.Cases = append(report.Cases, runFileCase(ctx, c, opts.ValidName, http.StatusOK))
	}

	for i := range report.Cases {
		if !report.Cases[i].Passed {
			report.Passed = false
		}
	}

	return report, nil
}

func runFileCase(ctx context.Context, c *Client, name string, expected int) TraversalCase {
	tc := TraversalCase{Name: name, Expected: expected}

	result, err := c.File(ctx, name)
	if err != nil {
		tc.Error = err.Error()
		return tc
	}

	tc.Status = result.StatusCode
	tc.Passed = result.StatusCode == expected
	return tc
}

// CheckRace fires opts.Concurrency increments at once and passes when
// every returned value is distinct.
func CheckRace(ctx context.Context, c *Client, opts RaceOptions) (*RaceReport, error) {
	if opts.Concurrency == 0 {
		opts.Concurrency = DefaultRaceConcurrency
	}
	if err := validateOptions(opts); err != nil {
		return nil, err
	}

	values := make([]int64, opts.Concurrency)
	errs := make([]error, opts.Concurrency)

	var (
		wg    sync.WaitGroup
		start = make(chan struct{})
	)
	for i := range opts.Concurrency {
		wg.Go(func() {
			<-start
			values[i], errs[i] = c.Increment(ctx)
		})
	}
	close(start)
	wg.Wait()

	report := &RaceReport{Requests: opts.Concurrency}

	seen := make(map[int64]int, opts.Concurrency)
	for i := range values {
		if errs[i] != nil {
			report.Errors = append(report.Errors, errs[i].Error())
			continue
		}
		report.Values = append(report.Values, values[i])
		seen[values[i]]++
	}
	slices.Sort(report.Values)

	for v, n := range seen {
		if n > 1 {
			report.Duplicates = append(report.Duplicates, v)
		}
	}
	slices.Sort(report.Duplicates)

	report.Unique = len(seen)
	report.Passed = len(report.Errors) == 0 && report.Unique == opts.Concurrency

	return report, nil
}

// CheckPerf times one /duplicates request and grades it.
func CheckPerf(ctx context.Context, c *Client, opts PerfOptions) (*PerfReport, error) {
	if err := validateOptions(opts); err != nil {
		return nil, err
	}

	result, err := c.Duplicates(ctx)
	if err != nil {
		return nil, fmt.Errorf("duplicates: %w", err)
	}

	grade := GradeDuration(result.Elapsed, opts)
	return &PerfReport{
		Elapsed:      result.Elapsed,
		Milliseconds: result.Elapsed.Milliseconds(),
		Duplicates:   len(result.Duplicates),
		Grade:        grade,
		Passed:       grade != GradeFail,
	}, nil
}

// GradeDuration maps d onto the thresholds in opts. Zero thresholds fall
// back to the defaults.
func GradeDuration(d time.Duration, opts PerfOptions) Grade {
	excellent := cmpOr(opts.Excellent, DefaultExcellent)
	good := cmpOr(opts.Good, DefaultGood)
	warning := cmpOr(opts.Warning, DefaultWarning)

	switch {
	case d < excellent:
		return GradeExcellent
	case d < good:
		return GradeGood
	case d < warning:
		return GradeWarning
	default:
		return GradeFail
	}
}

func cmpOr(v, fallback time.Duration) time.Duration {
	if v > 0 {
		return v
	}
	return fallback
}

// AllOptions bundles the options for RunAll.
type AllOptions struct {
	Traversal TraversalOptions
	Race      RaceOptions
	Perf      PerfOptions
}

// RunAll runs traversal, race and perf in order. A check that cannot run
// is recorded in Report.Errors and the rest still run.
func RunAll(ctx context.Context, c *Client, opts AllOptions) *Report {
	report := &Report{}

	var err error
	if report.Traversal, err = CheckTraversal(ctx, c, opts.Traversal); err != nil {
		report.Errors = append(report.Errors, "traversal: "+err.Error())
	}
	if report.Race, err = CheckRace(ctx, c, opts.Race); err != nil {
		report.Errors = append(report.Errors, "race: "+err.Error())
	}
	if report.Perf, err = CheckPerf(ctx, c, opts.Perf); err != nil {
		report.Errors = append(report.Errors, "perf: "+err.Error())
	}

	return report
}

// IsStatus reports whether err is a *StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}

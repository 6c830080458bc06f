package probe

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/sagarc03/pitfall"
)

// Formatter formats check results for output.
type Formatter interface {
	FormatTraversal(w io.Writer, report *TraversalReport) error
	FormatRace(w io.Writer, report *RaceReport) error
	FormatPerf(w io.Writer, report *PerfReport) error
	FormatReport(w io.Writer, report *Report) error
	FormatLogin(w io.Writer, result *pitfall.LoginResult) error
	FormatError(w io.Writer, err error) error
	FormatProfileList(w io.Writer, profiles []Profile, defaultName string) error
	FormatProfileShow(w io.Writer, profile Profile, isDefault bool) error
}

// NewFormatter returns the appropriate formatter based on flags.
func NewFormatter(jsonOutput, quiet bool) Formatter {
	if jsonOutput {
		return &JSONFormatter{}
	}
	return &HumanFormatter{Quiet: quiet}
}

// HumanFormatter outputs human-readable text. Quiet keeps only the
// verdict lines.
type HumanFormatter struct {
	Quiet bool
}

func passFail(ok bool) string {
	if ok {
		return "PASS"
	}
	return "FAIL"
}

// FormatTraversal formats a traversal report.
func (f *HumanFormatter) FormatTraversal(w io.Writer, report *TraversalReport) error {
	if !f.Quiet {
		maxNameLen := 4
		for i := range report.Cases {
			maxNameLen = max(maxNameLen, len(report.Cases[i].Name))
		}

		_, _ = fmt.Fprintf(w, "%-*s  %8s  %6s  %s\n", maxNameLen, "NAME", "EXPECTED", "STATUS", "RESULT")
		_, _ = fmt.Fprintf(w, "%s  %s  %s  %s\n", strings.Repeat("-", maxNameLen), strings.Repeat("-", 8), strings.Repeat("-", 6), strings.Repeat("-", 6))
		for i := range report.Cases {
			c := &report.Cases[i]
			result := passFail(c.Passed)
			if c.Error != "" {
				result += " (" + c.Error + ")"
			}
			_, _ = fmt.Fprintf(w, "%-*s  %8d  %6d  %s\n", maxNameLen, c.Name, c.Expected, c.Status, result)
		}
		_, _ = fmt.Fprintln(w)
	}
	_, _ = fmt.Fprintf(w, "Traversal: %s\n", passFail(report.Passed))
	return nil
}

// FormatRace formats a race report.
func (f *HumanFormatter) FormatRace(w io.Writer, report *RaceReport) error {
	if !f.Quiet {
		_, _ = fmt.Fprintf(w, "Requests:   %d\n", report.Requests)
		_, _ = fmt.Fprintf(w, "Values:     %s\n", joinInts(report.Values))
		_, _ = fmt.Fprintf(w, "Unique:     %d\n", report.Unique)
		if len(report.Duplicates) > 0 {
			_, _ = fmt.Fprintf(w, "Duplicates: %s\n", joinInts(report.Duplicates))
		}
		for _, e := range report.Errors {
			_, _ = fmt.Fprintf(w, "Error: %s\n", e)
		}
	}
	_, _ = fmt.Fprintf(w, "Race: %s\n", passFail(report.Passed))
	return nil
}

// FormatPerf formats a perf report.
func (f *HumanFormatter) FormatPerf(w io.Writer, report *PerfReport) error {
	if !f.Quiet {
		_, _ = fmt.Fprintf(w, "Duplicates found: %d\n", report.Duplicates)
		_, _ = fmt.Fprintf(w, "Response time:    %dms (%s)\n", report.Milliseconds, report.Grade)
	}
	_, _ = fmt.Fprintf(w, "Perf: %s\n", passFail(report.Passed))
	return nil
}

// FormatReport formats the combined report of RunAll.
func (f *HumanFormatter) FormatReport(w io.Writer, report *Report) error {
	if report.Traversal != nil {
		_ = f.FormatTraversal(w, report.Traversal)
	}
	if report.Race != nil {
		_ = f.FormatRace(w, report.Race)
	}
	if report.Perf != nil {
		_ = f.FormatPerf(w, report.Perf)
	}
	for _, e := range report.Errors {
		_, _ = fmt.Fprintf(w, "Error: %s\n", e)
	}
	_, _ = fmt.Fprintf(w, "Overall: %s\n", passFail(report.Passed()))
	return nil
}

// FormatLogin formats a successful login.
func (f *HumanFormatter) FormatLogin(w io.Writer, result *pitfall.LoginResult) error {
	if f.Quiet {
		return nil
	}
	_, _ = fmt.Fprintf(w, "%s\n", result.Message)
	_, _ = fmt.Fprintf(w, "  ID:       %d\n", result.User.ID)
	_, _ = fmt.Fprintf(w, "  Username: %s\n", result.User.Username)
	_, _ = fmt.Fprintf(w, "  Role:     %s\n", result.User.Role)
	if result.User.Password != "" {
		_, _ = fmt.Fprintf(w, "  Password: %s (exposed by server)\n", result.User.Password)
	}
	return nil
}

// FormatError formats an error as human-readable text.
func (f *HumanFormatter) FormatError(w io.Writer, err error) error {
	_, _ = fmt.Fprintf(w, "Error: %v\n", err)
	return nil
}

// FormatProfileList formats profiles as a table with the default marked *.
func (f *HumanFormatter) FormatProfileList(w io.Writer, profiles []Profile, defaultName string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "\tNAME\tENDPOINT\tTIMEOUT")
	for _, p := range profiles {
		marker := ""
		if p.Name == defaultName {
			marker = "*"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", marker, p.Name, p.Endpoint, timeoutLabel(p.Timeout))
	}
	return tw.Flush()
}

// FormatProfileShow formats a single profile.
func (f *HumanFormatter) FormatProfileShow(w io.Writer, profile Profile, isDefault bool) error {
	name := profile.Name
	if isDefault {
		name += " (default)"
	}
	_, _ = fmt.Fprintf(w, "Profile:  %s\nEndpoint: %s\nTimeout:  %s\n", name, profile.Endpoint, timeoutLabel(profile.Timeout))
	return nil
}

func timeoutLabel(d time.Duration) string {
	if d <= 0 {
		return "default"
	}
	return d.String()
}

// JSONFormatter outputs indented JSON.
type JSONFormatter struct{}

// FormatTraversal formats a traversal report as JSON.
func (f *JSONFormatter) FormatTraversal(w io.Writer, report *TraversalReport) error {
	return writeJSON(w, report)
}

// FormatRace formats a race report as JSON.
func (f *JSONFormatter) FormatRace(w io.Writer, report *RaceReport) error {
	return writeJSON(w, report)
}

// FormatPerf formats a perf report as JSON.
func (f *JSONFormatter) FormatPerf(w io.Writer, report *PerfReport) error {
	return writeJSON(w, report)
}

// FormatReport formats the combined report as JSON.
func (f *JSONFormatter) FormatReport(w io.Writer, report *Report) error {
	output := struct {
		*Report
		Passed bool `json:"passed"`
	}{
		Report: report,
		Passed: report.Passed(),
	}
	return writeJSON(w, output)
}

// FormatLogin formats a login result as JSON.
func (f *JSONFormatter) FormatLogin(w io.Writer, result *pitfall.LoginResult) error {
	return writeJSON(w, result)
}

// FormatError formats an error as JSON.
func (f *JSONFormatter) FormatError(w io.Writer, err error) error {
	output := struct {
		Error string `json:"error"`
	}{
		Error: err.Error(),
	}
	return writeJSON(w, output)
}

type jsonProfile struct {
	Name     string `json:"name"`
	Endpoint string `json:"endpoint"`
	Timeout  string `json:"timeout,omitempty"`
	Default  bool   `json:"default"`
}

func toJSONProfile(p Profile, isDefault bool) jsonProfile {
	out := jsonProfile{Name: p.Name, Endpoint: p.Endpoint, Default: isDefault}
	if p.Timeout > 0 {
		out.Timeout = p.Timeout.String()
	}
	return out
}

// FormatProfileList formats profiles as JSON.
func (f *JSONFormatter) FormatProfileList(w io.Writer, profiles []Profile, defaultName string) error {
	out := make([]jsonProfile, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, toJSONProfile(p, p.Name == defaultName))
	}
	return writeJSON(w, map[string][]jsonProfile{"profiles": out})
}

// FormatProfileShow formats a single profile as JSON.
func (f *JSONFormatter) FormatProfileShow(w io.Writer, profile Profile, isDefault bool) error {
	return writeJSON(w, toJSONProfile(profile, isDefault))
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func joinInts(values []int64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, ", ")
}

package probe_test

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sagarc03/pitfall/probe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckTraversal(t *testing.T) {
	guarded := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("name") == "sample.txt" {
			_, _ = w.Write([]byte("ok"))
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_path", "message": "Invalid file path"})
	})

	t.Run("all rejected", func(t *testing.T) {
		client := newTestClient(t, guarded)
		report, err := probe.CheckTraversal(context.Background(), client, probe.TraversalOptions{ValidName: "sample.txt"})
		require.NoError(t, err)
		assert.True(t, report.Passed)
		require.Len(t, report.Cases, len(probe.DefaultTraversalNames)+1)
		for i, name := range probe.DefaultTraversalNames {
			assert.Equal(t, name, report.Cases[i].Name)
			assert.Equal(t, http.StatusBadRequest, report.Cases[i].Status)
		}
		assert.Equal(t, http.StatusOK, report.Cases[len(report.Cases)-1].Status)
	})

	t.Run("one leak fails", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("name") == "../secret.txt" {
				_, _ = w.Write([]byte("top secret"))
				return
			}
			guarded(w, r)
		}))
		report, err := probe.CheckTraversal(context.Background(), client, probe.TraversalOptions{})
		require.NoError(t, err)
		assert.False(t, report.Passed)
		assert.False(t, report.Cases[2].Passed)
		assert.Equal(t, http.StatusOK, report.Cases[2].Status)
	})

	t.Run("custom names", func(t *testing.T) {
		client := newTestClient(t, guarded)
		report, err := probe.CheckTraversal(context.Background(), client, probe.TraversalOptions{Names: []string{"../x"}})
		require.NoError(t, err)
		assert.Len(t, report.Cases, 1)
	})

	t.Run("empty name rejected by options", func(t *testing.T) {
		client := newTestClient(t, guarded)
		_, err := probe.CheckTraversal(context.Background(), client, probe.TraversalOptions{Names: []string{""}})
		assert.ErrorIs(t, err, probe.ErrInvalidOptions)
	})
}

func TestCheckRace(t *testing.T) {
	t.Run("unique values pass", func(t *testing.T) {
		var counter atomic.Int64
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]int64{"counter": counter.Add(1)})
		}))

		report, err := probe.CheckRace(context.Background(), client, probe.RaceOptions{})
		require.NoError(t, err)
		assert.True(t, report.Passed)
		assert.Equal(t, probe.DefaultRaceConcurrency, report.Requests)
		assert.Equal(t, probe.DefaultRaceConcurrency, report.Unique)
		assert.Equal(t, []int64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, report.Values)
		assert.Empty(t, report.Duplicates)
	})

	t.Run("lost updates fail", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]int64{"counter": 1})
		}))

		report, err := probe.CheckRace(context.Background(), client, probe.RaceOptions{Concurrency: 5})
		require.NoError(t, err)
		assert.False(t, report.Passed)
		assert.Equal(t, 1, report.Unique)
		assert.Equal(t, []int64{1}, report.Duplicates)
	})

	t.Run("errors fail", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))

		report, err := probe.CheckRace(context.Background(), client, probe.RaceOptions{Concurrency: 3})
		require.NoError(t, err)
		assert.False(t, report.Passed)
		assert.Len(t, report.Errors, 3)
	})

	t.Run("invalid concurrency", func(t *testing.T) {
		client := newTestClient(t, http.NotFoundHandler())
		_, err := probe.CheckRace(context.Background(), client, probe.RaceOptions{Concurrency: 1})
		assert.ErrorIs(t, err, probe.ErrInvalidOptions)
	})
}

func TestGradeDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want probe.Grade
	}{
		{0, probe.GradeExcellent},
		{99 * time.Millisecond, probe.GradeExcellent},
		{100 * time.Millisecond, probe.GradeGood},
		{499 * time.Millisecond, probe.GradeGood},
		{500 * time.Millisecond, probe.GradeWarning},
		{999 * time.Millisecond, probe.GradeWarning},
		{time.Second, probe.GradeFail},
		{5 * time.Second, probe.GradeFail},
	}

	for _, tt := range tests {
		t.Run(tt.d.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, probe.GradeDuration(tt.d, probe.PerfOptions{}))
		})
	}

	custom := probe.PerfOptions{Excellent: time.Millisecond, Good: 2 * time.Millisecond, Warning: 3 * time.Millisecond}
	assert.Equal(t, probe.GradeFail, probe.GradeDuration(10*time.Millisecond, custom))
}

func TestCheckPerf(t *testing.T) {
	t.Run("fast server", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string][]int{"duplicates": {1, 2, 3}})
		}))

		report, err := probe.CheckPerf(context.Background(), client, probe.PerfOptions{})
		require.NoError(t, err)
		assert.True(t, report.Passed)
		assert.Equal(t, 3, report.Duplicates)
		assert.Equal(t, report.Elapsed.Milliseconds(), report.Milliseconds)
	})

	t.Run("slow server fails tight thresholds", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			time.Sleep(20 * time.Millisecond)
			writeJSON(w, http.StatusOK, map[string][]int{"duplicates": {}})
		}))

		opts := probe.PerfOptions{Excellent: time.Millisecond, Good: 2 * time.Millisecond, Warning: 5 * time.Millisecond}
		report, err := probe.CheckPerf(context.Background(), client, opts)
		require.NoError(t, err)
		assert.Equal(t, probe.GradeFail, report.Grade)
		assert.False(t, report.Passed)
	})

	t.Run("inverted thresholds", func(t *testing.T) {
		client := newTestClient(t, http.NotFoundHandler())
		_, err := probe.CheckPerf(context.Background(), client, probe.PerfOptions{Excellent: time.Second, Good: time.Millisecond})
		assert.ErrorIs(t, err, probe.ErrInvalidOptions)
	})

	t.Run("server error", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		_, err := probe.CheckPerf(context.Background(), client, probe.PerfOptions{})
		assert.True(t, probe.IsStatus(err, http.StatusInternalServerError))
	})
}

func TestRunAll(t *testing.T) {
	var counter atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("GET /file", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_path"})
	})
	mux.HandleFunc("POST /increment", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]int64{"counter": counter.Add(1)})
	})
	mux.HandleFunc("GET /duplicates", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string][]int{"duplicates": {}})
	})
	client := newTestClient(t, mux)

	report := probe.RunAll(context.Background(), client, probe.AllOptions{})
	assert.Empty(t, report.Errors)
	assert.True(t, report.Passed())

	report = probe.RunAll(context.Background(), client, probe.AllOptions{Race: probe.RaceOptions{Concurrency: 1}})
	assert.Len(t, report.Errors, 1)
	assert.Nil(t, report.Race)
	assert.False(t, report.Passed())
}

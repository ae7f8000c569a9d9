package notify

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/LISSConsulting/LISSTech.Reforge/internal/optimizer"
	"github.com/LISSConsulting/LISSTech.Reforge/internal/report"
)

type delivery struct {
	header http.Header
	body   string
}

// endpoint records every POST it receives on a buffered channel.
func endpoint(t *testing.T, status int) (string, <-chan delivery) {
	t.Helper()
	got := make(chan delivery, 16)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		b, _ := io.ReadAll(r.Body)
		got <- delivery{header: r.Header.Clone(), body: string(b)}
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv.URL, got
}

func drain(ch <-chan delivery) []delivery {
	var out []delivery
	for {
		select {
		case d := <-ch:
			out = append(out, d)
		default:
			return out
		}
	}
}

func TestFailureNotification(t *testing.T) {
	url, got := endpoint(t, http.StatusOK)
	n := New(Options{URL: url, Title: "kernels", OnFailure: true})

	n.Hook(optimizer.LogEntry{Kind: optimizer.LogFailed, Message: "Error processing b.py: boom"})
	n.Wait(2 * time.Second)

	ds := drain(got)
	require.Len(t, ds, 1)
	assert.Equal(t, "Error processing b.py: boom", ds[0].body)
	assert.Equal(t, "text/plain", ds[0].header.Get("Content-Type"))
	assert.Equal(t, "kernels", ds[0].header.Get("X-Title"))
	assert.Equal(t, "warning", ds[0].header.Get("X-Tags"))
}

func TestDoneNotificationCarriesSummary(t *testing.T) {
	url, got := endpoint(t, http.StatusOK)
	n := New(Options{URL: url, OnDone: true})

	n.Hook(optimizer.LogEntry{
		Kind:    optimizer.LogDone,
		Message: "Batch complete",
		Summary: &report.Summary{Processed: 2, Optimized: 1, Failed: 1, KeysUsed: []int{1}, TotalTokens: 1500},
	})
	n.Wait(2 * time.Second)

	ds := drain(got)
	require.Len(t, ds, 1)
	assert.Contains(t, ds[0].body, "Batch complete\n")
	assert.Contains(t, ds[0].body, "Optimized: 1")
	assert.Contains(t, ds[0].body, "Total Tokens Used: 1,500")
	assert.Equal(t, "Reforge", ds[0].header.Get("X-Title"))
	assert.Equal(t, "white_check_mark", ds[0].header.Get("X-Tags"))
}

func TestHookSelection(t *testing.T) {
	tests := []struct {
		name   string
		opts   Options
		kind   optimizer.LogKind
		wanted bool
	}{
		{"failed", Options{OnFailure: true}, optimizer.LogFailed, true},
		{"error is a failure", Options{OnFailure: true}, optimizer.LogError, true},
		{"failures off", Options{OnDone: true}, optimizer.LogFailed, false},
		{"done", Options{OnDone: true}, optimizer.LogDone, true},
		{"stopped is done", Options{OnDone: true}, optimizer.LogStopped, true},
		{"done off", Options{OnFailure: true}, optimizer.LogDone, false},
		{"success", Options{OnFailure: true, OnDone: true}, optimizer.LogSucceeded, false},
		{"skipped", Options{OnFailure: true, OnDone: true}, optimizer.LogSkipped, false},
		{"rotation", Options{OnFailure: true, OnDone: true}, optimizer.LogRotated, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			url, got := endpoint(t, http.StatusOK)
			tt.opts.URL = url
			n := New(tt.opts)
			n.Hook(optimizer.LogEntry{Kind: tt.kind, Message: "msg"})
			n.Wait(2 * time.Second)
			assert.Equal(t, tt.wanted, len(drain(got)) == 1)
		})
	}
}

func TestDeliveryErrorsAreLogged(t *testing.T) {
	closed := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	closed.Close()
	rejecting, _ := endpoint(t, http.StatusForbidden)

	for name, url := range map[string]string{
		"unreachable": closed.URL,
		"rejected":    rejecting,
		"bad url":     "://bad",
	} {
		t.Run(name, func(t *testing.T) {
			core, logs := observer.New(zapcore.DebugLevel)
			n := New(Options{URL: url, OnFailure: true, Logger: zap.New(core)})
			n.Hook(optimizer.LogEntry{Kind: optimizer.LogError, Message: "err"})
			n.Wait(2 * time.Second)

			entries := logs.FilterMessage("delivery failed").All()
			require.Len(t, entries, 1)
			assert.Equal(t, "notify", entries[0].LoggerName)
		})
	}
}

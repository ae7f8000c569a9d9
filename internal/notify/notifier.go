// Package notify posts batch failures and completions to an ntfy topic or
// any other HTTP endpoint that accepts a plain-text body.
package notify

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/LISSConsulting/LISSTech.Reforge/internal/optimizer"
)

const (
	defaultTitle   = "Reforge"
	requestTimeout = 10 * time.Second

	tagFailure = "warning"
	tagDone    = "white_check_mark"
)

// Options configures a Notifier.
type Options struct {
	URL       string
	Title     string // X-Title header; defaults to "Reforge"
	OnFailure bool   // LogFailed and LogError
	OnDone    bool   // LogDone and LogStopped
	Logger    *zap.Logger
}

// Notifier delivers messages in the background. Delivery errors are
// logged and otherwise ignored.
type Notifier struct {
	opts    Options
	client  *http.Client
	log     *zap.Logger
	pending sync.WaitGroup
}

func New(opts Options) *Notifier {
	if opts.Title == "" {
		opts.Title = defaultTitle
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Notifier{
		opts:   opts,
		client: &http.Client{Timeout: requestTimeout},
		log:    log.Named("notify"),
	}
}

// Hook matches optimizer.Orchestrator.NotificationHook. It never blocks.
func (n *Notifier) Hook(entry optimizer.LogEntry) {
	switch {
	case entry.Kind == optimizer.LogFailed || entry.Kind == optimizer.LogError:
		if n.opts.OnFailure {
			n.dispatch(entry.Message, tagFailure)
		}
	case entry.Kind == optimizer.LogDone || entry.Kind == optimizer.LogStopped:
		if n.opts.OnDone {
			n.dispatch(doneMessage(entry), tagDone)
		}
	}
}

func doneMessage(entry optimizer.LogEntry) string {
	if entry.Summary == nil {
		return entry.Message
	}
	return entry.Message + "\n" + strings.Join(entry.Summary.Lines(), "\n")
}

// Wait returns once every dispatched message is delivered or after
// timeout, whichever comes first.
func (n *Notifier) Wait(timeout time.Duration) {
	done := make(chan struct{})
	go func() {
		n.pending.Wait()
		close(done)
	}()
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-done:
	case <-t.C:
		n.log.Warn("notifications still in flight at exit", zap.Duration("waited", timeout))
	}
}

func (n *Notifier) dispatch(body, tag string) {
	n.pending.Add(1)
	go func() {
		defer n.pending.Done()
		if err := n.post(context.Background(), body, tag); err != nil {
			n.log.Debug("delivery failed", zap.String("tag", tag), zap.Error(err))
		}
	}()
}

func (n *Notifier) post(ctx context.Context, body, tag string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.opts.URL, strings.NewReader(body))
	if err != nil {
		return fmt.Errorf("notify: build request: %w", err)
	}
	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("X-Title", n.opts.Title)
	req.Header.Set("X-Tags", tag)
	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("notify: post: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("notify: post: status %s", resp.Status)
	}
	return nil
}

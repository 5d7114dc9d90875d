// Package heartbeat runs the periodic plugin checks. Each run reports the
// plugin version to the business extension when it changed since the last
// successful report. Failures are logged and retried on the next run.
package heartbeat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/blang/semver"
	"github.com/rs/zerolog"

	"github.com/s0up4200/metasync/fbe"
	"github.com/s0up4200/metasync/graph"
	"github.com/s0up4200/metasync/store"
)

// DefaultInterval is the time between runs
const DefaultInterval = time.Hour

// VersionReporter sends the plugin version. *fbe.Service implements it.
type VersionReporter interface {
	UpdatePluginVersion(ctx context.Context, version fbe.PluginVersion) error
}

// State persists the last reported version. *store.Store implements it.
type State interface {
	Get(ctx context.Context, name string) (string, error)
	Set(ctx context.Context, name, value string) error
}

// Heartbeat reports the plugin version when it changes
type Heartbeat struct {
	reporter VersionReporter
	state    State
	version  fbe.PluginVersion
	logger   zerolog.Logger
}

// New creates a heartbeat for the running plugin version
func New(reporter VersionReporter, state State, version fbe.PluginVersion, logger zerolog.Logger) *Heartbeat {
	return &Heartbeat{
		reporter: reporter,
		state:    state,
		version:  version,
		logger:   logger,
	}
}

// NeedsUpdate reports whether current differs from the last sent version.
// Versions are compared semantically when both parse, textually otherwise.
func NeedsUpdate(current, lastSent string) bool {
	if lastSent == "" {
		return true
	}

	cur, errCur := semver.ParseTolerant(current)
	last, errLast := semver.ParseTolerant(lastSent)
	if errCur != nil || errLast != nil {
		return current != lastSent
	}
	return !cur.Equals(last)
}

// Run performs one heartbeat. Failures are logged and the version stays
// unrecorded so the next run retries.
func (h *Heartbeat) Run(ctx context.Context) {
	err := h.report(ctx)
	if err == nil {
		return
	}

	event := h.logger.Error()
	var rlErr *graph.RateLimitError
	if errors.As(err, &rlErr) {
		event = h.logger.Warn().Time("throttle_end", rlErr.ThrottleEnd)
	}
	event.Err(err).Msg("Heartbeat failed, deferring to next run")
}

func (h *Heartbeat) report(ctx context.Context) error {
	lastSent, err := h.state.Get(ctx, store.OptionPluginVersion)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("failed to read last sent version: %w", err)
	}

	if !NeedsUpdate(h.version.Version, lastSent) {
		h.logger.Debug().Str("version", h.version.Version).Msg("Plugin version unchanged")
		return nil
	}

	if err := h.reporter.UpdatePluginVersion(ctx, h.version); err != nil {
		return fmt.Errorf("failed to report plugin version: %w", err)
	}
	if err := h.state.Set(ctx, store.OptionPluginVersion, h.version.Version); err != nil {
		return fmt.Errorf("failed to record sent version: %w", err)
	}

	h.logger.Info().
		Str("version", h.version.Version).
		Str("previous", lastSent).
		Msg("Plugin version reported")
	return nil
}

// Loop runs the heartbeat immediately and then every interval until ctx is done.
// Failures are logged and retried on the next tick.
func (h *Heartbeat) Loop(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultInterval
	}

	h.Run(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.Run(ctx)
		}
	}
}

// Package scheduler runs the periodic update-check sweep.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/RRZE-Webteam/rrze-updater/internal/inspector"
	"github.com/RRZE-Webteam/rrze-updater/internal/settings"
)

const (
	// DefaultInterval is the sweep cadence (twice daily)
	DefaultInterval = 12 * time.Hour

	// DefaultRecheckAfter is the minimum age of a check before it is redone
	DefaultRecheckAfter = time.Hour
)

// ErrNotPrimary is returned by PrimarySweep on a secondary tenant
var ErrNotPrimary = errors.New("not the primary tenant")

// Tenant identifies this instance in a multi-tenant deployment. Only the
// primary tenant schedules sweeps.
type Tenant struct {
	ID        int
	PrimaryID int
}

// IsPrimary reports whether this instance is the scheduling authority
func (t Tenant) IsPrimary() bool {
	return t.ID == t.PrimaryID
}

// Options configures a Scheduler. Zero values take the defaults.
type Options struct {
	Interval     time.Duration
	RecheckAfter time.Duration
	InitialDelay time.Duration // wait before the first sweep after Start
	Tenant       Tenant
	Now          func() time.Time
	Logger       *slog.Logger
}

// Report summarises one sweep
type Report struct {
	Pruned  int // untracked because no longer installed
	Checked int // checked against the remote
	Skipped int // checked recently or tracking disabled
	Failed  int // checked, but the connector reported an error
}

// Scheduler reconciles the registry and checks stale extensions on a
// fixed cadence
type Scheduler struct {
	settings  *settings.Settings
	inspector inspector.Inspector
	opts      Options

	sweepMu sync.Mutex // one sweep at a time

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

// New creates a scheduler over a registry
func New(s *settings.Settings, insp inspector.Inspector, opts Options) *Scheduler {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.RecheckAfter <= 0 {
		opts.RecheckAfter = DefaultRecheckAfter
	}
	if opts.Tenant == (Tenant{}) {
		opts.Tenant = Tenant{ID: 1, PrimaryID: 1}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Scheduler{settings: s, inspector: insp, opts: opts}
}

// IsPrimary reports whether this instance may schedule sweeps
func (s *Scheduler) IsPrimary() bool {
	return s.opts.Tenant.IsPrimary()
}

// Sweep reloads the registry, prunes extensions that are no longer
// installed, checks every extension whose last check is older than the
// recheck interval, and saves once at the end.
func (s *Scheduler) Sweep(ctx context.Context) (Report, error) {
	s.sweepMu.Lock()
	defer s.sweepMu.Unlock()

	var report Report

	if err := s.settings.Load(ctx); err != nil {
		return report, err
	}

	plugins, err := s.inspector.InstalledPluginFolders()
	if err != nil {
		return report, fmt.Errorf("list installed plugins: %w", err)
	}
	themes, err := s.inspector.InstalledThemeFolders()
	if err != nil {
		return report, fmt.Errorf("list installed themes: %w", err)
	}
	report.Pruned = len(s.settings.Reconcile(plugins, themes))

	for _, e := range s.settings.All() {
		if err := ctx.Err(); err != nil {
			break
		}
		if !e.Updates.Enabled() || !e.DueForCheck(s.opts.Now(), s.opts.RecheckAfter) {
			report.Skipped++
			continue
		}

		e.CheckForUpdates(ctx)
		report.Checked++
		if e.LastError != "" {
			report.Failed++
			s.opts.Logger.Warn("update check failed",
				"kind", e.Kind, "repository", e.Repository, "error", e.LastError)
		}
	}

	if err := s.settings.Save(context.WithoutCancel(ctx)); err != nil {
		return report, err
	}

	s.opts.Logger.Info("update sweep finished",
		"checked", report.Checked,
		"pruned", report.Pruned,
		"skipped", report.Skipped,
		"failed", report.Failed)
	return report, nil
}

// PrimarySweep runs Sweep only on the primary tenant. Other tenants get
// ErrNotPrimary and nothing is loaded or fetched.
func (s *Scheduler) PrimarySweep(ctx context.Context) (Report, error) {
	if !s.IsPrimary() {
		return Report{}, ErrNotPrimary
	}
	return s.Sweep(ctx)
}

// Activate starts the loop on the primary tenant. On any other tenant it
// stops a loop that may already be running and returns false.
func (s *Scheduler) Activate() bool {
	if !s.IsPrimary() {
		s.Stop()
		s.opts.Logger.Info("not the primary tenant, update sweeps disabled",
			"tenant", s.opts.Tenant.ID,
			"primary", s.opts.Tenant.PrimaryID)
		return false
	}
	s.Start()
	return true
}

// Running reports whether the loop is active
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Start begins the background sweep loop.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}

	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.running = true

	s.wg.Add(1)
	go s.run(s.ctx)

	s.opts.Logger.Info("update scheduler started",
		"interval", s.opts.Interval,
		"recheck_after", s.opts.RecheckAfter)
}

// Stop cancels the loop and waits for an in-flight sweep to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.cancel()
	s.running = false
	s.mu.Unlock()

	s.wg.Wait()
	s.opts.Logger.Info("update scheduler stopped")
}

func (s *Scheduler) run(ctx context.Context) {
	defer s.wg.Done()

	select {
	case <-time.After(s.opts.InitialDelay):
		s.sweep(ctx)
	case <-ctx.Done():
		return
	}

	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (s *Scheduler) sweep(ctx context.Context) {
	if _, err := s.Sweep(ctx); err != nil {
		s.opts.Logger.Error("update sweep failed", "error", err)
	}
}

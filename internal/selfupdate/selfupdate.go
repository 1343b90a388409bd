package selfupdate

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"

	"warden/internal/ident"
	"warden/internal/logging"
)

// Installer resolves and installs a candidate build from the update source.
// Failures are opaque to the updater; they are logged and the poll loop
// continues.
type Installer interface {
	Install(ctx context.Context, url string, source ident.Ident, channel string) (*Package, error)
}

// Package describes a build the installer has staged on disk.
type Package struct {
	Ident ident.Ident
	Path  string
}

// SelfUpdater watches the update depot for a build of the daemon newer than
// the running one. A background task polls on a fixed period (after a
// randomized initial splay) and hands the first strictly-newer staged build
// back through a one-shot channel. The updater must outlive every task it
// spawns; Updated is the only reader of the channel and replaces it wholesale
// when the task is observed dead.
type SelfUpdater struct {
	ctx       context.Context
	rx        <-chan *Package
	current   ident.Ident
	updateURL string
	channel   string
	period    time.Duration
	installer Installer
	logger    *slog.Logger
}

// runner is the subset of SelfUpdater state snapshot-copied into the
// background task so the hot poll path shares nothing with the owner.
type runner struct {
	current   ident.Ident
	source    ident.Ident
	updateURL string
	channel   string
	period    time.Duration
	installer Installer
	logger    *slog.Logger
}

// New constructs a SelfUpdater and immediately spawns its background task.
// Construction never blocks. The context bounds the lifetime of every task
// the updater spawns.
func New(ctx context.Context, current ident.Ident, updateURL, channel string, period time.Duration, installer Installer, logger *slog.Logger) *SelfUpdater {
	u := &SelfUpdater{
		ctx:       ctx,
		current:   current,
		updateURL: updateURL,
		channel:   channel,
		period:    period,
		installer: installer,
		logger:    logging.NewComponentLogger(logger, "self-updater"),
	}
	u.rx = spawn(ctx, u.snapshot())
	return u
}

// Current returns the identifier of the running build.
func (u *SelfUpdater) Current() ident.Ident {
	return u.current
}

// Updated polls for a staged newer build without blocking. It returns the
// staged package exactly once after the background task signals; nil while
// the task is still polling. A task observed dead (channel closed without a
// pending value) is transparently replaced with a fresh one, so a crashed
// watcher costs callers nothing beyond a missed poll.
func (u *SelfUpdater) Updated() *Package {
	select {
	case pkg, ok := <-u.rx:
		if ok {
			return pkg
		}
		u.logger.Debug("self updater task exited, respawning")
		u.rx = spawn(u.ctx, u.snapshot())
		return nil
	default:
		return nil
	}
}

func (u *SelfUpdater) snapshot() runner {
	source := ident.Ident{Origin: u.current.Origin, Name: u.current.Name}
	return runner{
		current:   u.current,
		source:    source,
		updateURL: u.updateURL,
		channel:   u.channel,
		period:    u.period,
		installer: u.installer,
		logger:    u.logger,
	}
}

func spawn(ctx context.Context, r runner) <-chan *Package {
	tx := make(chan *Package, 1)
	go r.run(ctx, tx)
	return tx
}

// run polls the depot until it stages a strictly-newer build, sends it once,
// and returns. The deferred close marks task death for Updated; a delivered
// value is read before the close is observed because the channel is buffered.
func (r runner) run(ctx context.Context, tx chan<- *Package) {
	defer close(tx)
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("self updater task panicked", logging.Any("panic", rec))
		}
	}()

	delay := splay(r.period)
	r.logger.Debug("starting self updater",
		logging.String(logging.FieldPackage, r.current.String()),
		logging.Duration("splay", delay))
	if !sleepContext(ctx, delay) {
		return
	}

	for {
		pkg, err := r.installer.Install(ctx, r.updateURL, r.source, r.channel)
		switch {
		case err != nil:
			r.logger.Warn("self updater failed to get latest", logging.Error(err))
		case r.current.Less(pkg.Ident):
			r.logger.Debug("self updater staged newer build",
				logging.String(logging.FieldPackage, pkg.Ident.String()))
			tx <- pkg
			return
		default:
			r.logger.Debug("candidate build is not newer than ours",
				logging.String(logging.FieldPackage, pkg.Ident.String()))
		}
		if !sleepContext(ctx, r.period) {
			return
		}
	}
}

// splay draws the initial delay uniformly from [0, period) so a fleet of
// daemons restarted together does not stampede the depot.
func splay(period time.Duration) time.Duration {
	if period <= 0 {
		return 0
	}
	return rand.N(period)
}

func sleepContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

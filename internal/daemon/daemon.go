package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/sys/unix"

	"warden/internal/config"
	"warden/internal/history"
	"warden/internal/ident"
	"warden/internal/launcher"
	"warden/internal/logging"
	"warden/internal/notifications"
	"warden/internal/selfupdate"
)

const pollTick = time.Second

// Daemon coordinates the self updater, helper channel, and update history,
// and enforces single-instance execution.
type Daemon struct {
	cfg       *config.Config
	current   ident.Ident
	installer selfupdate.Installer
	store     *history.Store
	logger    *slog.Logger
	notifier  notifications.Service
	helper    *launcher.Client
	metrics   *metrics
	api       *apiServer

	lockPath string
	lock     *flock.Flock

	// execFn re-execs the process into a staged binary. Overridable in tests.
	execFn func(argv0 string, argv []string, envv []string) error

	updater *selfupdate.SelfUpdater

	// pollMu serializes access to the updater: its receive channel is
	// replaced wholesale on respawn, so only one poller may run at a time.
	pollMu sync.Mutex

	mu     sync.Mutex
	staged *selfupdate.Package

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, current ident.Ident, installer selfupdate.Installer, store *history.Store, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || installer == nil || store == nil {
		return nil, errors.New("daemon requires config, installer, and history store")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	d := &Daemon{
		cfg:       cfg,
		current:   current,
		installer: installer,
		store:     store,
		logger:    logger,
		notifier:  notifications.NewService(cfg),
		metrics:   newMetrics(),
		lockPath:  cfg.LockPath(),
		lock:      flock.New(cfg.LockPath()),
		execFn:    unix.Exec,
	}
	return d, nil
}

// SetHelper attaches an established helper channel. Must be called before
// Start.
func (d *Daemon) SetHelper(helper *launcher.Client) {
	d.helper = helper
}

// SetNotifier overrides the notification service (used in tests).
func (d *Daemon) SetNotifier(n notifications.Service) {
	if n != nil {
		d.notifier = n
	}
}

// Start acquires the daemon lock, spawns the self updater, and launches the
// poll loop and status endpoint.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another wardend instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	d.updater = selfupdate.New(
		d.ctx,
		d.current,
		d.cfg.Update.URL,
		d.cfg.Update.Channel,
		d.cfg.UpdatePeriod(),
		&instrumentedInstaller{inner: d.installer, metrics: d.metrics},
		d.logger,
	)

	if api, err := newAPIServer(d.cfg, d, d.logger); err != nil {
		d.releaseLock()
		d.cancel()
		return err
	} else if api != nil {
		if err := api.start(d.ctx); err != nil {
			d.releaseLock()
			d.cancel()
			return err
		}
		d.api = api
	}

	d.wg.Add(1)
	go d.run()

	d.running.Store(true)
	d.logger.Info("wardend started",
		logging.String(logging.FieldPackage, d.current.String()),
		logging.String("lock", d.lockPath))
	return nil
}

// Stop halts the poll loop and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.wg.Wait()
	if d.api != nil {
		d.api.stop()
		d.api = nil
	}
	d.releaseLock()
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("wardend stopped")
}

// Close releases all resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	var err error
	if d.helper != nil {
		err = d.helper.Close()
		d.helper = nil
	}
	if d.store != nil {
		if serr := d.store.Close(); err == nil {
			err = serr
		}
	}
	return err
}

func (d *Daemon) releaseLock() {
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
}

// run polls the self updater every tick until shutdown.
func (d *Daemon) run() {
	defer d.wg.Done()
	ticker := time.NewTicker(pollTick)
	defer ticker.Stop()
	for {
		select {
		case <-d.ctx.Done():
			return
		case <-ticker.C:
			d.pollOnce()
		}
	}
}

func (d *Daemon) pollOnce() {
	d.pollMu.Lock()
	pkg := d.updater.Updated()
	d.pollMu.Unlock()
	if pkg != nil {
		d.handleUpdate(pkg)
	}
}

// Check polls the updater immediately and returns the resulting status.
func (d *Daemon) Check() Status {
	if d.running.Load() {
		d.pollOnce()
	}
	return d.Status()
}

// History returns up to limit recorded update events, newest first.
func (d *Daemon) History(ctx context.Context, limit int) ([]history.Event, error) {
	if d.store == nil {
		return nil, errors.New("history store unavailable")
	}
	return d.store.Recent(ctx, limit)
}

// TestNotification sends a test push through the configured notifier.
func (d *Daemon) TestNotification(ctx context.Context) error {
	return d.notifier.TestNotification(ctx)
}

// Status represents daemon runtime information.
type Status struct {
	Running         bool
	PID             int
	Current         string
	Staged          string
	HelperConnected bool
	LockPath        string
	HistoryPath     string
	APIBind         string
}

// Status reports a snapshot of daemon state.
func (d *Daemon) Status() Status {
	d.mu.Lock()
	staged := ""
	if d.staged != nil {
		staged = d.staged.Ident.String()
	}
	d.mu.Unlock()

	historyPath := ""
	if d.store != nil {
		historyPath = d.store.Path()
	}
	return Status{
		Running:         d.running.Load(),
		PID:             os.Getpid(),
		Current:         d.current.String(),
		Staged:          staged,
		HelperConnected: d.helper != nil,
		LockPath:        d.lockPath,
		HistoryPath:     historyPath,
		APIBind:         d.apiAddr(),
	}
}

func (d *Daemon) apiAddr() string {
	if d.api != nil {
		return d.api.addr()
	}
	return d.cfg.APIBind
}

package daemon

import (
	"context"
	"errors"
	"os"
	"time"

	"warden/internal/history"
	"warden/internal/launcher"
	"warden/internal/logging"
	"warden/internal/selfupdate"
)

const applyTimeout = 30 * time.Second

// handleUpdate runs once per staged build: record it, notify, then apply
// according to policy. A connected helper performs the privileged restart;
// otherwise auto_restart re-execs into the staged binary; otherwise the
// build stays staged and visible in status until an operator acts.
func (d *Daemon) handleUpdate(pkg *selfupdate.Package) {
	d.mu.Lock()
	d.staged = pkg
	d.mu.Unlock()
	d.metrics.updatesStaged.Inc()

	candidate := pkg.Ident.String()
	d.logger.Info("newer build staged",
		logging.String(logging.FieldPackage, candidate),
		logging.String("path", pkg.Path))

	ctx, cancel := context.WithTimeout(context.Background(), applyTimeout)
	defer cancel()

	d.recordEvent(ctx, candidate, history.ActionStaged, pkg.Path)
	if err := d.notifier.NotifyUpdateStaged(ctx, d.current.String(), candidate); err != nil {
		d.logger.Warn("staged-update notification failed", logging.Error(err))
	}

	switch {
	case d.helper != nil:
		d.applyViaHelper(ctx, pkg)
	case d.cfg.Update.AutoRestart:
		d.applySelfExec(ctx, pkg)
	default:
		d.logger.Info("update staged; restart manually or enable auto_restart",
			logging.String(logging.FieldPackage, candidate))
	}
}

func (d *Daemon) applyViaHelper(ctx context.Context, pkg *selfupdate.Package) {
	candidate := pkg.Ident.String()
	err := d.helper.Restart(pkg.Path, d.cfg.HelperCommandTimeout())
	if err == nil {
		d.recordEvent(ctx, candidate, history.ActionApplied, "helper restart")
		if nerr := d.notifier.NotifyUpdateApplied(ctx, candidate, "helper restart"); nerr != nil {
			d.logger.Warn("applied-update notification failed", logging.Error(nerr))
		}
		d.logger.Info("helper accepted restart; awaiting handoff",
			logging.String(logging.FieldPackage, candidate))
		return
	}

	d.metrics.helperFailures.Inc()
	var tryErr *launcher.TryCommandError
	switch {
	case errors.As(err, &tryErr) && tryErr.Timeout():
		// Deadline elapsed without a response; the channel is still healthy,
		// so leave the build staged and let the operator retry.
		d.logger.Warn("helper restart timed out",
			logging.String(logging.FieldCommand, tryErr.Cmd),
			logging.Error(err))
	default:
		d.logger.Error("helper restart failed",
			logging.String(logging.FieldPackage, candidate),
			logging.Error(err))
	}
	d.recordEvent(ctx, candidate, history.ActionFailed, err.Error())
	if nerr := d.notifier.NotifyUpdateFailed(ctx, candidate, err); nerr != nil {
		d.logger.Warn("failed-update notification failed", logging.Error(nerr))
	}
}

func (d *Daemon) applySelfExec(ctx context.Context, pkg *selfupdate.Package) {
	candidate := pkg.Ident.String()
	d.recordEvent(ctx, candidate, history.ActionApplied, "self exec")
	if nerr := d.notifier.NotifyUpdateApplied(ctx, candidate, "self exec"); nerr != nil {
		d.logger.Warn("applied-update notification failed", logging.Error(nerr))
	}
	d.logger.Info("re-executing into staged build",
		logging.String(logging.FieldPackage, candidate),
		logging.String("path", pkg.Path))

	d.releaseLock()
	argv := append([]string{pkg.Path}, os.Args[1:]...)
	if err := d.execFn(pkg.Path, argv, os.Environ()); err != nil {
		// Exec only returns on failure; reacquire the lock and keep running
		// the old build.
		if ok, lerr := d.lock.TryLock(); lerr != nil || !ok {
			d.logger.Error("failed to reacquire lock after exec failure", logging.Error(lerr))
		}
		d.metrics.execFailures.Inc()
		d.logger.Error("exec into staged build failed", logging.Error(err))
		d.recordEvent(ctx, candidate, history.ActionFailed, err.Error())
	}
}

func (d *Daemon) recordEvent(ctx context.Context, candidate string, action history.Action, detail string) {
	if _, err := d.store.Record(ctx, d.current.String(), candidate, action, detail); err != nil {
		d.logger.Warn("failed to record update event",
			logging.String("action", string(action)),
			logging.Error(err))
	}
}

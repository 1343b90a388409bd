package daemon

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"warden/internal/ident"
	"warden/internal/selfupdate"
)

// metrics holds the daemon's Prometheus collectors. Each daemon carries its
// own registry so tests can run several instances in one process.
type metrics struct {
	registry *prometheus.Registry

	checks          prometheus.Counter
	installFailures prometheus.Counter
	updatesStaged   prometheus.Counter
	helperFailures  prometheus.Counter
	execFailures    prometheus.Counter
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		checks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "warden_update_checks_total",
			Help: "Update checks performed against the depot.",
		}),
		installFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "warden_update_install_failures_total",
			Help: "Depot install attempts that failed.",
		}),
		updatesStaged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "warden_updates_staged_total",
			Help: "Newer builds staged by the self updater.",
		}),
		helperFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "warden_helper_command_failures_total",
			Help: "Helper commands that failed or timed out.",
		}),
		execFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "warden_self_exec_failures_total",
			Help: "Failed attempts to re-exec into a staged build.",
		}),
	}
	m.registry.MustRegister(m.checks, m.installFailures, m.updatesStaged, m.helperFailures, m.execFailures)
	return m
}

// instrumentedInstaller counts install attempts and failures around the real
// installer.
type instrumentedInstaller struct {
	inner   selfupdate.Installer
	metrics *metrics
}

func (i *instrumentedInstaller) Install(ctx context.Context, url string, source ident.Ident, channel string) (*selfupdate.Package, error) {
	i.metrics.checks.Inc()
	pkg, err := i.inner.Install(ctx, url, source, channel)
	if err != nil {
		i.metrics.installFailures.Inc()
	}
	return pkg, err
}

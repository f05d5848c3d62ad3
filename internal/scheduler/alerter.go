package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/wazuhcheck/internal/notify"
	"github.com/hamed0406/wazuhcheck/internal/repo"
)

type AlerterConfig struct {
	AlertOnRecovery bool
	Cooldown        time.Duration
	PollInterval    time.Duration
}

// Alerter watches the latest result of every check and notifies on
// pass/fail transitions.
type Alerter struct {
	logger   *zap.Logger
	results  repo.ReportStore
	alertDB  repo.AlertStore
	notifier notify.Notifier
	cfg      AlerterConfig
	now      func() time.Time
}

func NewAlerter(
	logger *zap.Logger,
	results repo.ReportStore,
	alertDB repo.AlertStore,
	notifier notify.Notifier,
	cfg AlerterConfig,
) *Alerter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 30 * time.Second
	}
	return &Alerter{
		logger:   logger,
		results:  results,
		alertDB:  alertDB,
		notifier: notifier,
		cfg:      cfg,
		now:      time.Now,
	}
}

func (a *Alerter) Run(ctx context.Context) error {
	t := time.NewTicker(a.cfg.PollInterval)
	defer t.Stop()

	// initial pass
	a.logScan(a.scanOnce(ctx))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			a.logScan(a.scanOnce(ctx))
		}
	}
}

func (a *Alerter) logScan(err error) {
	if err != nil {
		a.logger.Warn("alerter_scan_error", zap.Error(err))
	}
}

func (a *Alerter) scanOnce(ctx context.Context) error {
	rows, err := a.results.LatestResults(ctx)
	if err != nil {
		return err
	}

	now := a.now()

	for _, r := range rows {
		rec, err := a.alertDB.Get(ctx, r.Name)
		if err != nil {
			a.logger.Warn("alerter_state_error", zap.String("check", r.Name), zap.Error(err))
			continue
		}
		up := r.Success()

		// A check seen for the first time only alerts when it is down.
		stateChanged := (rec == nil && !up) || (rec != nil && rec.LastState != up)

		// Cooldown only matters for DOWN alerts (suppresses flapping).
		cooled := true
		if rec != nil && rec.LastSentAt != nil {
			cooled = now.Sub(*rec.LastSentAt) >= a.cfg.Cooldown
		}

		downAlert := stateChanged && !up && cooled
		recoveryAlert := stateChanged && up && a.cfg.AlertOnRecovery // bypass cooldown

		if downAlert || recoveryAlert {
			title, text := notify.CheckAlert(r)
			if err := a.notifier.Send(ctx, title, text); err != nil {
				// Leave the stored state alone so the transition is
				// still pending on the next scan.
				a.logger.Warn("alert_send_error", zap.String("check", r.Name), zap.Error(err))
				continue
			}
			a.logger.Info("alert_sent", zap.String("check", r.Name), zap.Bool("up", up))
			_ = a.alertDB.Set(ctx, r.Name, up, now)
			continue
		}

		// Record the new state even when nothing was sent (down within
		// cooldown, recovery alerts off, first sighting while up).
		if stateChanged || rec == nil {
			_ = a.alertDB.Set(ctx, r.Name, up, time.Time{})
		}
	}

	return nil
}

package daemon

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"murmur/internal/logging"
	"murmur/internal/notifications"
	"murmur/internal/scanner"
)

// scanRunner wraps the scanner with completion notifications. It serves both
// the scheduler and API-triggered scans.
type scanRunner struct {
	scanner  *scanner.Scanner
	notifier notifications.Service
	logger   *slog.Logger
}

func (r *scanRunner) Scan(ctx context.Context, trigger scanner.Trigger) (int, error) {
	count, err := r.scanner.Scan(ctx, trigger)
	if count > 0 {
		payload := notifications.Payload{"newJobs": count, "trigger": string(trigger)}
		if notifyErr := r.notifier.Publish(ctx, notifications.EventScanCompleted, payload); notifyErr != nil && !errors.Is(notifyErr, context.Canceled) {
			r.logger.Debug("scan notification failed", logging.Error(notifyErr))
		}
	}
	return count, err
}

func (r *scanRunner) Extensions() []string {
	return r.scanner.Extensions()
}

// scheduleScans runs a startup scan and then one scan per interval until ctx
// is cancelled. Scans that queue work wake the worker.
func (d *Daemon) scheduleScans(ctx context.Context, interval time.Duration) {
	defer d.wg.Done()
	d.logger.Info("scan scheduler started",
		logging.Duration("interval", interval),
		logging.String(logging.FieldEventType, "scan_scheduler_started"),
	)

	d.runScheduledScan(ctx, scanner.TriggerStartup)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.runScheduledScan(ctx, scanner.TriggerScheduled)
		}
	}
}

func (d *Daemon) runScheduledScan(ctx context.Context, trigger scanner.Trigger) {
	count, err := d.scans.Scan(ctx, trigger)
	if err != nil && ctx.Err() == nil {
		logging.WarnWithContext(d.logger, "scheduled scan failed", "scheduled_scan_failed",
			logging.Error(err),
			logging.String("trigger", string(trigger)),
			logging.String(logging.FieldImpact, "new files are picked up on the next scan"),
		)
	}
	if count > 0 {
		d.worker.Wake()
	}
}

package jobs

import (
	"context"
	"fmt"

	"car-rental-client/internal/logger"
	"car-rental-client/internal/service"
)

// ReconcileAvailability retries the car releases the journal recorded as
// failed when a rental closed.
func (jr *JobRunner) ReconcileAvailability() {
	jr.runWithRecovery("ReconcileAvailability", func() {
		if _, err := jr.reconcileAvailability(context.Background()); err != nil {
			logger.Error("Availability reconciliation failed", "error", err)
		}
	})
}

func (jr *JobRunner) reconcileAvailability(ctx context.Context) (*service.ReconcileReport, error) {
	admin := jr.config.Admin
	sess, _, err := jr.services.Auth.Login(ctx, admin.Username, admin.Password)
	if err != nil {
		return nil, fmt.Errorf("admin sign-in failed: %w", err)
	}
	if !sess.IsAdmin() {
		return nil, fmt.Errorf("account %s is not an admin", admin.Username)
	}

	report, err := jr.services.Rental.ReconcileAvailability(ctx, sess)
	if err != nil {
		return nil, err
	}

	logger.Info("Availability reconciliation summary",
		"carsChecked", report.CarsChecked,
		"freed", report.Freed,
		"failed", len(report.Failed),
		"journalSynced", report.JournalSynced,
	)
	return report, nil
}

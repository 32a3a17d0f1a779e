package cron

import (
	"context"
	"time"

	"github.com/questx-lab/prizeengine/internal/domain"
	"github.com/questx-lab/prizeengine/internal/model"
	"github.com/questx-lab/prizeengine/pkg/xcontext"
)

// ReconcileCronJob logs the reconciliation report every hour. It never fixes
// anything.
type ReconcileCronJob struct {
	reconcileDomain domain.ReconcileDomain
}

func NewReconcileCronJob(reconcileDomain domain.ReconcileDomain) *ReconcileCronJob {
	return &ReconcileCronJob{reconcileDomain: reconcileDomain}
}

func (job *ReconcileCronJob) Do(ctx context.Context) {
	resp, err := job.reconcileDomain.Reconcile(ctx, &model.ReconcileRequest{})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot reconcile: %v", err)
		return
	}

	anomalies := 0
	for _, p := range resp.Prizes {
		if p.Anomaly {
			anomalies++
		}
	}

	xcontext.Logger(ctx).Infof("Reconciled %d batches and %d prizes, %d pending enable, %d anomalies",
		len(resp.Batches), len(resp.Prizes), resp.PendingEnable, anomalies)
}

func (job *ReconcileCronJob) RunNow() bool {
	return false
}

func (job *ReconcileCronJob) Next() time.Time {
	return time.Now().Add(time.Hour).Truncate(time.Hour)
}

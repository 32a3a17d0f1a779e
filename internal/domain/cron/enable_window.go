package cron

import (
	"context"
	"time"

	"github.com/questx-lab/prizeengine/internal/domain"
	"github.com/questx-lab/prizeengine/internal/model"
	"github.com/questx-lab/prizeengine/pkg/xcontext"
)

// EnableHourlyCronJob opens the hourly windows whose start has passed.
type EnableHourlyCronJob struct {
	scheduleDomain domain.ScheduleDomain
}

func NewEnableHourlyCronJob(scheduleDomain domain.ScheduleDomain) *EnableHourlyCronJob {
	return &EnableHourlyCronJob{scheduleDomain: scheduleDomain}
}

func (job *EnableHourlyCronJob) Do(ctx context.Context) {
	if _, err := job.scheduleDomain.EnableHourly(ctx, &model.EnableHourlyRequest{}); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot enable hourly windows: %v", err)
	}
}

func (job *EnableHourlyCronJob) RunNow() bool {
	return true
}

func (job *EnableHourlyCronJob) Next() time.Time {
	return time.Now().Add(time.Minute).Truncate(time.Minute)
}

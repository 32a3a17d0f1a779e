package cron

import (
	"context"
	"time"

	"github.com/questx-lab/prizeengine/internal/domain"
	"github.com/questx-lab/prizeengine/internal/model"
	"github.com/questx-lab/prizeengine/pkg/dateutil"
	"github.com/questx-lab/prizeengine/pkg/xcontext"
)

// DailyWindowCronJob enables the tokens of the new day and purges the unused
// tokens of the day before.
type DailyWindowCronJob struct {
	scheduleDomain domain.ScheduleDomain
	loc            *time.Location
	now            func() time.Time
}

func NewDailyWindowCronJob(scheduleDomain domain.ScheduleDomain, loc *time.Location) *DailyWindowCronJob {
	return &DailyWindowCronJob{scheduleDomain: scheduleDomain, loc: loc, now: time.Now}
}

func (job *DailyWindowCronJob) Do(ctx context.Context) {
	now := job.now().In(job.loc)
	today := dateutil.FormatDay(now, job.loc)
	yesterday := dateutil.FormatDay(now.AddDate(0, 0, -1), job.loc)

	_, err := job.scheduleDomain.EnableScheduled(ctx, &model.EnableScheduledRequest{Day: today})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot enable tokens of %s: %v", today, err)
	}

	_, err = job.scheduleDomain.DeleteScheduled(ctx, &model.DeleteScheduledRequest{Day: yesterday})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot delete tokens of %s: %v", yesterday, err)
	}
}

func (job *DailyWindowCronJob) RunNow() bool {
	return true
}

// Next returns one minute after the next midnight of the reference timezone.
func (job *DailyWindowCronJob) Next() time.Time {
	return dateutil.NextDay(job.now().In(job.loc)).Add(time.Minute)
}

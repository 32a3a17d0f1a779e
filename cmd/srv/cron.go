package main

import (
	"github.com/questx-lab/prizeengine/internal/domain/cron"
	"github.com/questx-lab/prizeengine/pkg/xcontext"
	"github.com/urfave/cli/v2"
)

func (s *srv) startCron(*cli.Context) error {
	s.loadAll()

	cronJobManager := cron.NewCronJobManager()
	cronJobManager.Register(cron.NewEnableHourlyCronJob(s.scheduleDomain))
	cronJobManager.Register(cron.NewDailyWindowCronJob(s.scheduleDomain, s.configs.Schedule.Location()))
	cronJobManager.Register(cron.NewReconcileCronJob(s.reconcileDomain))

	xcontext.Logger(s.ctx).Infof("Start cron jobs successfully")
	cronJobManager.Start(s.ctx)

	return nil
}

package main

import (
	"fmt"
	"net/http"

	"github.com/questx-lab/prizeengine/internal/middleware"
	"github.com/questx-lab/prizeengine/pkg/prometheus"
	"github.com/questx-lab/prizeengine/pkg/router"
	"github.com/questx-lab/prizeengine/pkg/xcontext"

	"github.com/urfave/cli/v2"
)

func (s *srv) startApi(*cli.Context) error {
	s.loadAll()
	s.loadRouter()

	cfg := s.configs.ApiServer
	s.server = &http.Server{
		Addr:    fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Handler: s.router.Handler(),
	}

	xcontext.Logger(s.ctx).Infof("Starting server on port: %s", cfg.Port)
	if err := s.server.ListenAndServe(); err != nil {
		return err
	}

	xcontext.Logger(s.ctx).Infof("Server stop")
	return nil
}

func (s *srv) loadRouter() {
	s.router = router.New(s.db, *s.configs, s.logger)
	s.router.Before(middleware.WithStartTime())
	s.router.AddCloser(middleware.Logger())
	s.router.AddCloser(middleware.Prometheus())

	// Token API. Reads must never be cached by intermediaries.
	tokenRouter := s.router.Branch()
	tokenRouter.After(middleware.NoStore())
	{
		router.GET(tokenRouter, "/token/:id", s.tokenDomain.Get)
		router.GET(tokenRouter, "/token/:id/wait-ready", s.tokenDomain.WaitReady)
		router.POST(tokenRouter, "/token/:id/reveal", s.tokenDomain.Reveal)
		router.POST(tokenRouter, "/token/:id/redeem", s.tokenDomain.Redeem)
		router.POST(tokenRouter, "/token/:id/deliver", s.tokenDomain.Deliver)
		router.POST(tokenRouter, "/token/:id/consume", s.tokenDomain.Consume)
	}

	// Batch API
	router.POST(s.router, "/batch/generate", s.batchDomain.Generate)

	// Roulette API
	router.POST(s.router, "/roulette", s.rouletteDomain.Create)
	router.GET(s.router, "/roulette/:id", s.rouletteDomain.Get)
	router.POST(s.router, "/roulette/:id/spin", s.rouletteDomain.Spin)
	router.POST(s.router, "/roulette/:id/cancel", s.rouletteDomain.Cancel)

	// These following APIs are called by the external scheduler only.
	schedulerRouter := s.router.Branch()
	schedulerRouter.Before(middleware.SchedulerSecret())
	{
		router.POST(schedulerRouter, "/tokens/enable-scheduled", s.scheduleDomain.EnableScheduled)
		router.POST(schedulerRouter, "/tokens/enable-hourly", s.scheduleDomain.EnableHourly)
		router.POST(schedulerRouter, "/tokens/delete-scheduled", s.scheduleDomain.DeleteScheduled)
		router.POST(schedulerRouter, "/tokens/reconcile", s.reconcileDomain.Reconcile)
		router.POST(schedulerRouter, "/system/redemption", s.scheduleDomain.SetRedemption)
	}

	s.router.Handle(http.MethodGet, "/metrics", prometheus.NewHandler())
}

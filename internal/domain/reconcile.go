package domain

import (
	"context"
	"time"

	"github.com/questx-lab/prizeengine/internal/entity"
	"github.com/questx-lab/prizeengine/internal/model"
	"github.com/questx-lab/prizeengine/internal/repository"
	"github.com/questx-lab/prizeengine/pkg/errorx"
	"github.com/questx-lab/prizeengine/pkg/xcontext"
	"golang.org/x/sync/errgroup"
)

type ReconcileDomain interface {
	Reconcile(context.Context, *model.ReconcileRequest) (*model.ReconcileResponse, error)
}

type reconcileDomain struct {
	tokenRepo         repository.TokenRepository
	reusableTokenRepo repository.ReusableTokenRepository
	prizeRepo         repository.PrizeRepository
	scheduleDomain    ScheduleDomain
}

func NewReconcileDomain(
	tokenRepo repository.TokenRepository,
	reusableTokenRepo repository.ReusableTokenRepository,
	prizeRepo repository.PrizeRepository,
	scheduleDomain ScheduleDomain,
) *reconcileDomain {
	return &reconcileDomain{
		tokenRepo:         tokenRepo,
		reusableTokenRepo: reusableTokenRepo,
		prizeRepo:         prizeRepo,
		scheduleDomain:    scheduleDomain,
	}
}

// Reconcile reports the per batch and per prize counters. When Fix is set it
// only re-runs the enabling steps of the scheduler, nothing else is written.
func (d *reconcileDomain) Reconcile(
	ctx context.Context, req *model.ReconcileRequest,
) (*model.ReconcileResponse, error) {
	resp := &model.ReconcileResponse{}
	if req.Fix {
		enabled, err := d.fix(ctx)
		if err != nil {
			return nil, err
		}

		resp.Fixed = true
		resp.Enabled = enabled
	}

	now := time.Now().UTC()

	var (
		stats         []entity.BatchStats
		tokenCounts   []repository.PrizeCount
		reusableCount []repository.PrizeCount
		prizes        []entity.Prize
		pendingEnable int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stats, err = d.tokenRepo.Statistic(gctx, now)
		return err
	})
	g.Go(func() (err error) {
		tokenCounts, err = d.tokenRepo.CountByPrize(gctx)
		return err
	})
	g.Go(func() (err error) {
		reusableCount, err = d.reusableTokenRepo.CountByPrize(gctx)
		return err
	})
	g.Go(func() (err error) {
		prizes, err = d.prizeRepo.GetList(gctx)
		return err
	})
	g.Go(func() (err error) {
		pendingEnable, err = d.tokenRepo.CountPendingEnable(gctx, now)
		return err
	})

	if err := g.Wait(); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot collect reconciliation counters: %v", err)
		return nil, errorx.Unknown
	}

	for _, s := range stats {
		resp.Batches = append(resp.Batches, model.BatchReport{
			BatchID:       s.BatchID,
			Total:         s.Total,
			Enabled:       s.Enabled,
			Disabled:      s.Disabled,
			PendingEnable: s.PendingEnable,
			Expired:       s.Expired,
			Revealed:      s.Revealed,
			Delivered:     s.Delivered,
			Redeemed:      s.Redeemed,
		})
	}

	live := map[string]int64{}
	for _, c := range tokenCounts {
		live[c.PrizeID] += c.Count
	}

	for _, c := range reusableCount {
		live[c.PrizeID] += c.Count
	}

	for _, p := range prizes {
		drift := int64(p.EmittedTotal) - live[p.ID]
		report := model.PrizeReport{
			PrizeID:      p.ID,
			Key:          p.Key,
			Stock:        p.Stock,
			EmittedTotal: p.EmittedTotal,
			LiveTokens:   live[p.ID],
			Drift:        drift,
			Anomaly:      drift < 0,
		}

		if report.Anomaly {
			xcontext.Logger(ctx).Warnf("Prize %s has more live tokens (%d) than emitted (%d)",
				p.Key, report.LiveTokens, p.EmittedTotal)
		}

		resp.Prizes = append(resp.Prizes, report)
	}

	resp.PendingEnable = pendingEnable
	return resp, nil
}

func (d *reconcileDomain) fix(ctx context.Context) (int64, error) {
	hourly, err := d.scheduleDomain.EnableHourly(ctx, &model.EnableHourlyRequest{})
	if err != nil {
		return 0, err
	}

	daily, err := d.scheduleDomain.EnableScheduled(ctx, &model.EnableScheduledRequest{Day: today(ctx)})
	if err != nil {
		return 0, err
	}

	return hourly.Tokens + hourly.ReusableTokens + daily.Tokens + daily.ReusableTokens, nil
}

package domain

import (
	"context"
	"time"

	"github.com/questx-lab/prizeengine/internal/common"
	"github.com/questx-lab/prizeengine/internal/model"
	"github.com/questx-lab/prizeengine/internal/repository"
	"github.com/questx-lab/prizeengine/pkg/dateutil"
	"github.com/questx-lab/prizeengine/pkg/errorx"
	"github.com/questx-lab/prizeengine/pkg/xcontext"
)

type ScheduleDomain interface {
	EnableScheduled(context.Context, *model.EnableScheduledRequest) (*model.EnableScheduledResponse, error)
	EnableHourly(context.Context, *model.EnableHourlyRequest) (*model.EnableHourlyResponse, error)
	DeleteScheduled(context.Context, *model.DeleteScheduledRequest) (*model.DeleteScheduledResponse, error)
	SetRedemption(context.Context, *model.SetRedemptionRequest) (*model.SetRedemptionResponse, error)
}

type scheduleDomain struct {
	tokenRepo         repository.TokenRepository
	reusableTokenRepo repository.ReusableTokenRepository
	batchRepo         repository.BatchRepository
	redemptionSwitch  *common.RedemptionSwitch
}

func NewScheduleDomain(
	tokenRepo repository.TokenRepository,
	reusableTokenRepo repository.ReusableTokenRepository,
	batchRepo repository.BatchRepository,
	redemptionSwitch *common.RedemptionSwitch,
) *scheduleDomain {
	return &scheduleDomain{
		tokenRepo:         tokenRepo,
		reusableTokenRepo: reusableTokenRepo,
		batchRepo:         batchRepo,
		redemptionSwitch:  redemptionSwitch,
	}
}

// EnableScheduled enables every disabled token expiring inside the given day,
// hourly windows included. valid_from still gates their use.
func (d *scheduleDomain) EnableScheduled(
	ctx context.Context, req *model.EnableScheduledRequest,
) (*model.EnableScheduledResponse, error) {
	start, end, err := d.dayRange(ctx, req.Day)
	if err != nil {
		return nil, err
	}

	tokens, err := d.tokenRepo.EnableInRange(ctx, start, end)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot enable tokens of %s: %v", req.Day, err)
		return nil, errorx.Unknown
	}

	reusableTokens, err := d.reusableTokenRepo.EnableInRange(ctx, start, end)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot enable reusable tokens of %s: %v", req.Day, err)
		return nil, errorx.Unknown
	}

	if tokens+reusableTokens > 0 {
		xcontext.Logger(ctx).Infof("Enabled %d tokens and %d reusable tokens of %s",
			tokens, reusableTokens, req.Day)
	}

	return &model.EnableScheduledResponse{Tokens: tokens, ReusableTokens: reusableTokens}, nil
}

// EnableHourly enables every disabled token whose window contains now.
func (d *scheduleDomain) EnableHourly(
	ctx context.Context, req *model.EnableHourlyRequest,
) (*model.EnableHourlyResponse, error) {
	now := time.Now().UTC()

	tokens, err := d.tokenRepo.EnableActiveWindow(ctx, now)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot enable tokens of active windows: %v", err)
		return nil, errorx.Unknown
	}

	reusableTokens, err := d.reusableTokenRepo.EnableActiveWindow(ctx, now)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot enable reusable tokens of active windows: %v", err)
		return nil, errorx.Unknown
	}

	if tokens+reusableTokens > 0 {
		xcontext.Logger(ctx).Infof("Enabled %d tokens and %d reusable tokens of active windows",
			tokens, reusableTokens)
	}

	return &model.EnableHourlyResponse{Tokens: tokens, ReusableTokens: reusableTokens}, nil
}

// DeleteScheduled purges the unused tokens expiring inside the given day and
// then every batch left without tokens.
func (d *scheduleDomain) DeleteScheduled(
	ctx context.Context, req *model.DeleteScheduledRequest,
) (*model.DeleteScheduledResponse, error) {
	start, end, err := d.dayRange(ctx, req.Day)
	if err != nil {
		return nil, err
	}

	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	tokens, err := d.tokenRepo.DeleteUnusedInRange(ctx, start, end)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot delete tokens of %s: %v", req.Day, err)
		return nil, errorx.Unknown
	}

	reusableTokens, err := d.reusableTokenRepo.DeleteUnusedInRange(ctx, start, end)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot delete reusable tokens of %s: %v", req.Day, err)
		return nil, errorx.Unknown
	}

	batches, err := d.batchRepo.DeleteEmpty(ctx)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot delete empty batches: %v", err)
		return nil, errorx.Unknown
	}

	if err := xcontext.WithCommitDBTransaction(ctx); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot commit deletion of %s: %v", req.Day, err)
		return nil, errorx.Unknown
	}

	xcontext.Logger(ctx).Infof("Deleted %d tokens, %d reusable tokens and %d batches of %s",
		tokens, reusableTokens, batches, req.Day)

	return &model.DeleteScheduledResponse{
		Tokens:         tokens,
		ReusableTokens: reusableTokens,
		Batches:        batches,
	}, nil
}

func (d *scheduleDomain) SetRedemption(
	ctx context.Context, req *model.SetRedemptionRequest,
) (*model.SetRedemptionResponse, error) {
	if req.Enabled == nil {
		return nil, errorx.New(errorx.BadRequest, "Missing enabled")
	}

	if err := d.redemptionSwitch.Set(ctx, *req.Enabled); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot set redemption switch: %v", err)
		return nil, errorx.Unknown
	}

	xcontext.Logger(ctx).Infof("Redemption switch set to %t", *req.Enabled)
	return &model.SetRedemptionResponse{Enabled: *req.Enabled}, nil
}

// dayRange resolves day in the reference timezone and returns it in UTC.
func (d *scheduleDomain) dayRange(ctx context.Context, day string) (time.Time, time.Time, error) {
	start, end, err := dateutil.DayRange(day, xcontext.Configs(ctx).Schedule.Location())
	if err != nil {
		return time.Time{}, time.Time{}, errorx.New(errorx.BadRequest, "Invalid day")
	}

	return start.UTC(), end.UTC(), nil
}

// today returns the current day in the reference timezone.
func today(ctx context.Context) string {
	return dateutil.FormatDay(time.Now(), xcontext.Configs(ctx).Schedule.Location())
}

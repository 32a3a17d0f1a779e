package domain

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/questx-lab/prizeengine/internal/common"
	"github.com/questx-lab/prizeengine/internal/domain/signer"
	"github.com/questx-lab/prizeengine/internal/entity"
	"github.com/questx-lab/prizeengine/internal/model"
	"github.com/questx-lab/prizeengine/internal/repository"
	"github.com/questx-lab/prizeengine/pkg/dateutil"
	"github.com/questx-lab/prizeengine/pkg/enum"
	"github.com/questx-lab/prizeengine/pkg/errorx"
	"github.com/questx-lab/prizeengine/pkg/pubsub"
	"github.com/questx-lab/prizeengine/pkg/xcache"
	"github.com/questx-lab/prizeengine/pkg/xcontext"
	"gorm.io/gorm"
)

const defaultExpirationDays = 30

// Outcome statuses of an allocation.
const (
	outcomeIssued            = "ISSUED"
	outcomeNotFound          = "NOT_FOUND"
	outcomeInactive          = "INACTIVE"
	outcomeInsufficientStock = "INSUFFICIENT_STOCK"
)

type BatchDomain interface {
	Generate(context.Context, *model.GenerateBatchRequest) (*model.GenerateBatchResponse, error)
}

type batchDomain struct {
	batchRepo         repository.BatchRepository
	prizeRepo         repository.PrizeRepository
	tokenRepo         repository.TokenRepository
	reusableTokenRepo repository.ReusableTokenRepository
	signer            signer.Signer
	prizeCache        xcache.Cache[entity.Prize]
	publisher         pubsub.Publisher
}

func NewBatchDomain(
	batchRepo repository.BatchRepository,
	prizeRepo repository.PrizeRepository,
	tokenRepo repository.TokenRepository,
	reusableTokenRepo repository.ReusableTokenRepository,
	signer signer.Signer,
	prizeCache xcache.Cache[entity.Prize],
	publisher pubsub.Publisher,
) *batchDomain {
	return &batchDomain{
		batchRepo:         batchRepo,
		prizeRepo:         prizeRepo,
		tokenRepo:         tokenRepo,
		reusableTokenRepo: reusableTokenRepo,
		signer:            signer,
		prizeCache:        prizeCache,
		publisher:         publisher,
	}
}

// window is the validity applied uniformly to every token of a batch.
type window struct {
	validFrom *time.Time
	startTime *time.Time
	endTime   *time.Time
	expiresAt time.Time
	disabled  bool
}

type batchEvent struct {
	BatchID     string `structs:"batch_id"`
	TotalTokens int    `structs:"total_tokens"`
	IsReusable  bool   `structs:"is_reusable"`
}

func (d *batchDomain) Generate(
	ctx context.Context, req *model.GenerateBatchRequest,
) (*model.GenerateBatchResponse, error) {
	mode := entity.WindowNone
	if req.WindowMode != "" {
		var err error
		mode, err = enum.ToEnum[entity.WindowMode](req.WindowMode)
		if err != nil {
			xcontext.Logger(ctx).Debugf("Invalid window mode: %v", err)
			return nil, errorx.New(errorx.BadRequest, "Invalid window mode")
		}
	}

	loc := xcontext.Configs(ctx).Schedule.Location()
	now := time.Now().UTC().Truncate(time.Second)

	functionalDate := sql.NullTime{}
	if req.FunctionalDate != "" {
		day, err := dateutil.ParseDay(req.FunctionalDate, loc)
		if err != nil {
			return nil, errorx.New(errorx.BadRequest, "Invalid functional date")
		}

		functionalDate = sql.NullTime{Time: day.UTC(), Valid: true}
	}

	w, err := d.resolveWindow(req, mode, now, loc)
	if err != nil {
		return nil, err
	}

	maxUses := req.MaxUses
	if req.IsReusable && maxUses == 0 {
		maxUses = 1
	}

	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	batch := &entity.Batch{
		RecordBase:     entity.RecordBase{ID: uuid.NewString()},
		Description:    req.Description,
		FunctionalDate: functionalDate,
		IsReusable:     req.IsReusable,
		IsStatic:       req.IsStatic,
		StaticTargetURL: sql.NullString{
			String: req.StaticTargetURL,
			Valid:  req.StaticTargetURL != "",
		},
		WindowMode: mode,
	}

	if err := d.batchRepo.Create(ctx, batch); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create batch: %v", err)
		return nil, errorx.Unknown
	}

	outcomes := []model.PrizeOutcome{}
	tokens := []entity.Token{}
	reusableTokens := []entity.ReusableToken{}
	issuedTokens := []model.IssuedToken{}
	issuedPrizes := []string{}

	for _, alloc := range req.Allocations {
		outcome := model.PrizeOutcome{PrizeRef: alloc.PrizeRef, Requested: alloc.Count}

		prize, err := d.resolvePrize(ctx, alloc.PrizeRef)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				xcontext.Logger(ctx).Errorf("Cannot get prize %s: %v", alloc.PrizeRef, err)
				return nil, errorx.Unknown
			}

			outcome.Status = outcomeNotFound
			outcomes = append(outcomes, outcome)
			continue
		}

		outcome.PrizeID = prize.ID
		outcome.Key = prize.Key
		outcome.Label = prize.Label

		if !prize.Active {
			outcome.Status = outcomeInactive
			outcomes = append(outcomes, outcome)
			continue
		}

		if err := d.prizeRepo.CheckAndConsumeStock(ctx, prize.ID, alloc.Count); err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				xcontext.Logger(ctx).Errorf("Cannot consume stock of prize %s: %v", prize.ID, err)
				return nil, errorx.Unknown
			}

			outcome.Status = outcomeInsufficientStock
			outcomes = append(outcomes, outcome)
			continue
		}

		for i := 0; i < alloc.Count; i++ {
			core, id, err := d.mintCore(batch.ID, prize.ID, w)
			if err != nil {
				xcontext.Logger(ctx).Errorf("Cannot sign token: %v", err)
				return nil, errorx.Unknown
			}

			if req.IsReusable {
				reusableTokens = append(reusableTokens, entity.ReusableToken{
					RecordBase: entity.RecordBase{ID: id},
					TokenCore:  core,
					MaxUses:    maxUses,
				})
			} else {
				tokens = append(tokens, entity.Token{
					RecordBase: entity.RecordBase{ID: id},
					TokenCore:  core,
				})
			}

			issuedTokens = append(issuedTokens, model.IssuedToken{
				ID:               id,
				PrizeID:          prize.ID,
				Signature:        core.Signature,
				SignatureVersion: core.SignatureVersion,
			})
		}

		outcome.Issued = alloc.Count
		outcome.Status = outcomeIssued
		outcomes = append(outcomes, outcome)
		issuedPrizes = append(issuedPrizes, prize.ID)
	}

	if len(issuedTokens) == 0 {
		return nil, errorx.Of(errorx.NoActivePrizes)
	}

	if err := d.tokenRepo.CreateMany(ctx, tokens); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create tokens: %v", err)
		return nil, errorx.Unknown
	}

	if err := d.reusableTokenRepo.CreateMany(ctx, reusableTokens); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create reusable tokens: %v", err)
		return nil, errorx.Unknown
	}

	if err := xcontext.WithCommitDBTransaction(ctx); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot commit batch %s: %v", batch.ID, err)
		return nil, errorx.Unknown
	}

	for _, prizeID := range issuedPrizes {
		if err := d.prizeCache.Invalidate(ctx, prizeID); err != nil {
			xcontext.Logger(ctx).Warnf("Cannot invalidate prize %s: %v", prizeID, err)
		}
	}

	common.PromCounters[common.BatchTokensIssuedTotal].
		WithLabelValues(strconv.FormatBool(req.IsReusable)).
		Add(float64(len(issuedTokens)))

	common.Publish(ctx, d.publisher, common.BatchTopic, common.EventBatchGenerated, batch.ID, batchEvent{
		BatchID:     batch.ID,
		TotalTokens: len(issuedTokens),
		IsReusable:  req.IsReusable,
	})

	return &model.GenerateBatchResponse{
		BatchID:     batch.ID,
		TotalTokens: len(issuedTokens),
		Prizes:      outcomes,
		Tokens:      issuedTokens,
	}, nil
}

// resolvePrize accepts either a prize id or a prize key.
func (d *batchDomain) resolvePrize(ctx context.Context, ref string) (*entity.Prize, error) {
	prize, err := d.prizeRepo.GetByID(ctx, ref)
	if err == nil {
		return prize, nil
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	return d.prizeRepo.GetByKey(ctx, ref)
}

// mintCore signs a new token id. The window is resolved before signing so the
// signature covers the final expiry.
func (d *batchDomain) mintCore(batchID, prizeID string, w window) (entity.TokenCore, string, error) {
	id := uuid.NewString()
	signature, version, err := d.signer.Sign(id, prizeID, w.expiresAt)
	if err != nil {
		return entity.TokenCore{}, "", err
	}

	return entity.TokenCore{
		PrizeID:          prizeID,
		BatchID:          batchID,
		Signature:        signature,
		SignatureVersion: version,
		ValidFrom:        w.validFrom,
		StartTime:        w.startTime,
		EndTime:          w.endTime,
		ExpiresAt:        w.expiresAt,
		Disabled:         w.disabled,
	}, id, nil
}

func (d *batchDomain) resolveWindow(
	req *model.GenerateBatchRequest, mode entity.WindowMode, now time.Time, loc *time.Location,
) (window, error) {
	switch mode {
	case entity.WindowNone:
		days := req.ExpirationDays
		if days == 0 {
			days = defaultExpirationDays
		}

		return window{expiresAt: now.AddDate(0, 0, days)}, nil

	case entity.WindowSingleDay:
		start, err := d.targetDay(req, now, loc)
		if err != nil {
			return window{}, err
		}

		validFrom := start.UTC()
		expiresAt := start.AddDate(0, 0, 1).Add(-time.Second).UTC()
		if !expiresAt.After(now) {
			return window{}, errorx.New(errorx.BadRequest, "The target day has already ended")
		}

		return window{
			validFrom: &validFrom,
			expiresAt: expiresAt,
			disabled:  validFrom.After(now),
		}, nil

	case entity.WindowSingleHour:
		day, err := d.targetDay(req, now, loc)
		if err != nil {
			return window{}, err
		}

		duration := req.DurationHours
		if duration == 0 {
			duration = 1
		}

		start := day.Add(time.Duration(req.Hour) * time.Hour).UTC()
		end := start.Add(time.Duration(duration) * time.Hour)
		if !end.After(now) {
			return window{}, errorx.New(errorx.BadRequest, "The target hour has already ended")
		}

		return window{
			validFrom: &start,
			startTime: &start,
			endTime:   &end,
			expiresAt: end,
			disabled:  start.After(now),
		}, nil
	}

	return window{}, errorx.New(errorx.BadRequest, "Invalid window mode")
}

// targetDay returns the beginning of the target day in loc. It defaults to
// the functional date, then to today.
func (d *batchDomain) targetDay(
	req *model.GenerateBatchRequest, now time.Time, loc *time.Location,
) (time.Time, error) {
	day := req.TargetDay
	if day == "" {
		day = req.FunctionalDate
	}

	if day == "" {
		return dateutil.BeginningOfDay(now.In(loc)), nil
	}

	start, err := dateutil.ParseDay(day, loc)
	if err != nil {
		return time.Time{}, errorx.New(errorx.BadRequest, "Invalid target day")
	}

	return start, nil
}

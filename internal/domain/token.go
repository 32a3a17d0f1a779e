package domain

import (
	"context"
	"errors"
	"time"

	"github.com/questx-lab/prizeengine/internal/common"
	"github.com/questx-lab/prizeengine/internal/domain/signer"
	"github.com/questx-lab/prizeengine/internal/entity"
	"github.com/questx-lab/prizeengine/internal/model"
	"github.com/questx-lab/prizeengine/internal/repository"
	"github.com/questx-lab/prizeengine/pkg/errorx"
	"github.com/questx-lab/prizeengine/pkg/pubsub"
	"github.com/questx-lab/prizeengine/pkg/xcache"
	"github.com/questx-lab/prizeengine/pkg/xcontext"
	"gorm.io/gorm"
)

type TokenDomain interface {
	Get(context.Context, *model.GetTokenRequest) (*model.GetTokenResponse, error)
	Reveal(context.Context, *model.RevealTokenRequest) (*model.RevealTokenResponse, error)
	Redeem(context.Context, *model.RedeemTokenRequest) (*model.RedeemTokenResponse, error)
	Deliver(context.Context, *model.DeliverTokenRequest) (*model.DeliverTokenResponse, error)
	Consume(context.Context, *model.ConsumeTokenRequest) (*model.ConsumeTokenResponse, error)
	WaitReady(context.Context, *model.WaitReadyTokenRequest) (*model.WaitReadyTokenResponse, error)
}

type tokenDomain struct {
	tokenRepo         repository.TokenRepository
	reusableTokenRepo repository.ReusableTokenRepository
	batchRepo         repository.BatchRepository
	prizeRepo         repository.PrizeRepository
	signer            signer.Signer
	redemptionSwitch  *common.RedemptionSwitch
	prizeCache        xcache.Cache[entity.Prize]
	publisher         pubsub.Publisher
}

type tokenEvent struct {
	TokenID string    `structs:"token_id"`
	PrizeID string    `structs:"prize_id"`
	BatchID string    `structs:"batch_id"`
	At      time.Time `structs:"at,omitnested"`
}

func NewTokenDomain(
	tokenRepo repository.TokenRepository,
	reusableTokenRepo repository.ReusableTokenRepository,
	batchRepo repository.BatchRepository,
	prizeRepo repository.PrizeRepository,
	signer signer.Signer,
	redemptionSwitch *common.RedemptionSwitch,
	prizeCache xcache.Cache[entity.Prize],
	publisher pubsub.Publisher,
) *tokenDomain {
	return &tokenDomain{
		tokenRepo:         tokenRepo,
		reusableTokenRepo: reusableTokenRepo,
		batchRepo:         batchRepo,
		prizeRepo:         prizeRepo,
		signer:            signer,
		redemptionSwitch:  redemptionSwitch,
		prizeCache:        prizeCache,
		publisher:         publisher,
	}
}

func (d *tokenDomain) Get(
	ctx context.Context, req *model.GetTokenRequest,
) (*model.GetTokenResponse, error) {
	token, err := d.getToken(ctx, req.ID, "")
	if errorx.Is(err, errorx.NotFound) {
		return d.getReusable(ctx, req.ID)
	}

	if err != nil {
		return nil, err
	}

	batch, err := d.batchRepo.GetByID(ctx, token.BatchID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get batch of token %s: %v", token.ID, err)
		return nil, errorx.Unknown
	}

	now := time.Now().UTC()

	// Static batches have no interactive reveal, the first read reveals the
	// token's own prize.
	if batch.IsStatic && token.RevealedAt == nil && token.State(now) == entity.TokenEnabled &&
		(token.ValidFrom == nil || !token.ValidFrom.After(now)) {
		err := d.tokenRepo.Reveal(ctx, token.ID, now)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			xcontext.Logger(ctx).Errorf("Cannot auto reveal token %s: %v", token.ID, err)
			return nil, errorx.Unknown
		}

		if err == nil {
			common.ObserveTransition("reveal", "ok")
			d.publish(ctx, common.EventTokenRevealed, token, now)
		}

		token, err = d.tokenRepo.GetByID(ctx, token.ID)
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot reload token %s: %v", req.ID, err)
			return nil, errorx.Unknown
		}
	}

	prize, err := d.getPrize(ctx, token.AwardedPrizeID())
	if err != nil {
		return nil, err
	}

	return &model.GetTokenResponse{
		Token: convertToken(token, convertPrize(prize), convertBatch(batch), now),
	}, nil
}

// getReusable resolves a reusable token. Reusable tokens are never revealed.
func (d *tokenDomain) getReusable(ctx context.Context, id string) (*model.GetTokenResponse, error) {
	token, err := d.reusableTokenRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.Of(errorx.NotFound)
		}

		xcontext.Logger(ctx).Errorf("Cannot get reusable token %s: %v", id, err)
		return nil, errorx.Unknown
	}

	if err := d.verify(&token.RecordBase, &token.TokenCore, ""); err != nil {
		return nil, err
	}

	batch, err := d.batchRepo.GetByID(ctx, token.BatchID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get batch of reusable token %s: %v", token.ID, err)
		return nil, errorx.Unknown
	}

	prize, err := d.getPrize(ctx, token.PrizeID)
	if err != nil {
		return nil, err
	}

	return &model.GetTokenResponse{
		Token: convertReusableToken(token, convertPrize(prize), convertBatch(batch), time.Now().UTC()),
	}, nil
}

func (d *tokenDomain) Reveal(
	ctx context.Context, req *model.RevealTokenRequest,
) (resp *model.RevealTokenResponse, err error) {
	defer func() { observe("reveal", err) }()

	token, err := d.getToken(ctx, req.ID, req.Signature)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if !token.ExpiresAt.After(now) {
		return nil, errorx.Of(errorx.Expired)
	}

	if token.RevealedAt == nil {
		if err := d.checkUsable(&token.TokenCore, now); err != nil {
			return nil, err
		}

		err = d.tokenRepo.Reveal(ctx, token.ID, now)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			xcontext.Logger(ctx).Errorf("Cannot reveal token %s: %v", token.ID, err)
			return nil, errorx.Unknown
		}

		won := err == nil

		// Either this call revealed the token or a concurrent one did. Both
		// return the stored assignment.
		token, err = d.tokenRepo.GetByID(ctx, token.ID)
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot reload token %s: %v", req.ID, err)
			return nil, errorx.Unknown
		}

		if token.RevealedAt == nil {
			return nil, d.classify(&token.TokenCore, now)
		}

		if won {
			d.publish(ctx, common.EventTokenRevealed, token, now)
		}
	}

	prize, err := d.getPrize(ctx, token.AwardedPrizeID())
	if err != nil {
		return nil, err
	}

	return &model.RevealTokenResponse{
		PrizeID:    prize.ID,
		PrizeKey:   prize.Key,
		PrizeLabel: prize.Label,
	}, nil
}

func (d *tokenDomain) Redeem(
	ctx context.Context, req *model.RedeemTokenRequest,
) (resp *model.RedeemTokenResponse, err error) {
	defer func() { observe("redeem", err) }()

	enabled, err := d.redemptionSwitch.Enabled(ctx)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get redemption switch: %v", err)
		return nil, errorx.Unknown
	}

	if !enabled {
		return nil, errorx.Of(errorx.SystemOff)
	}

	token, err := d.getToken(ctx, req.ID, req.Signature)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	err = d.tokenRepo.Redeem(ctx, token.ID, now)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			xcontext.Logger(ctx).Errorf("Cannot redeem token %s: %v", token.ID, err)
			return nil, errorx.Unknown
		}

		// The conditional update matched no row, the current state tells why.
		token, err = d.tokenRepo.GetByID(ctx, token.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, errorx.Of(errorx.NotFound)
			}

			xcontext.Logger(ctx).Errorf("Cannot reload token %s: %v", req.ID, err)
			return nil, errorx.Unknown
		}

		if token.ExpiresAt.After(now) && token.RedeemedAt != nil {
			return nil, errorx.Of(errorx.AlreadyRedeemed)
		}

		return nil, d.classify(&token.TokenCore, now)
	}

	if token.RevealedAt == nil {
		d.publish(ctx, common.EventTokenRevealed, token, now)
	}
	d.publish(ctx, common.EventTokenRedeemed, token, now)

	return &model.RedeemTokenResponse{
		ID:         token.ID,
		PrizeID:    token.AwardedPrizeID(),
		RedeemedAt: now,
	}, nil
}

func (d *tokenDomain) Deliver(
	ctx context.Context, req *model.DeliverTokenRequest,
) (resp *model.DeliverTokenResponse, err error) {
	defer func() { observe("deliver", err) }()

	token, err := d.getToken(ctx, req.ID, "")
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if !token.ExpiresAt.After(now) {
		return nil, errorx.Of(errorx.Expired)
	}

	if token.DeliveredAt != nil {
		return &model.DeliverTokenResponse{DeliveredAt: *token.DeliveredAt}, nil
	}

	if token.RevealedAt == nil {
		return nil, errorx.Of(errorx.NotRevealed)
	}

	err = d.tokenRepo.Deliver(ctx, token.ID, now)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		xcontext.Logger(ctx).Errorf("Cannot deliver token %s: %v", token.ID, err)
		return nil, errorx.Unknown
	}

	won := err == nil
	token, err = d.tokenRepo.GetByID(ctx, token.ID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot reload token %s: %v", req.ID, err)
		return nil, errorx.Unknown
	}

	if token.DeliveredAt == nil {
		return nil, d.classify(&token.TokenCore, now)
	}

	if won {
		d.publish(ctx, common.EventTokenDelivered, token, now)
	}

	return &model.DeliverTokenResponse{DeliveredAt: *token.DeliveredAt}, nil
}

func (d *tokenDomain) Consume(
	ctx context.Context, req *model.ConsumeTokenRequest,
) (resp *model.ConsumeTokenResponse, err error) {
	defer func() { observe("consume", err) }()

	enabled, err := d.redemptionSwitch.Enabled(ctx)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get redemption switch: %v", err)
		return nil, errorx.Unknown
	}

	if !enabled {
		return nil, errorx.Of(errorx.SystemOff)
	}

	token, err := d.reusableTokenRepo.GetByID(ctx, req.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.Of(errorx.NotFound)
		}

		xcontext.Logger(ctx).Errorf("Cannot get reusable token %s: %v", req.ID, err)
		return nil, errorx.Unknown
	}

	if err := d.verify(&token.RecordBase, &token.TokenCore, req.Signature); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	err = d.reusableTokenRepo.Consume(ctx, token.ID, now)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			xcontext.Logger(ctx).Errorf("Cannot consume token %s: %v", token.ID, err)
			return nil, errorx.Unknown
		}

		token, err = d.reusableTokenRepo.GetByID(ctx, req.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, errorx.Of(errorx.NotFound)
			}

			xcontext.Logger(ctx).Errorf("Cannot reload reusable token %s: %v", req.ID, err)
			return nil, errorx.Unknown
		}

		if token.ExpiresAt.After(now) && token.UsedCount >= token.MaxUses {
			return nil, errorx.Of(errorx.Exhausted)
		}

		return nil, d.classify(&token.TokenCore, now)
	}

	common.Publish(ctx, d.publisher, common.TokenTopic, common.EventTokenConsumed, token.ID, tokenEvent{
		TokenID: token.ID,
		PrizeID: token.PrizeID,
		BatchID: token.BatchID,
		At:      now,
	})

	usedCount := token.UsedCount + 1
	if updated, err := d.reusableTokenRepo.GetByID(ctx, req.ID); err == nil {
		usedCount = updated.UsedCount
	}

	return &model.ConsumeTokenResponse{
		UsedCount: usedCount,
		MaxUses:   token.MaxUses,
	}, nil
}

func (d *tokenDomain) WaitReady(
	ctx context.Context, req *model.WaitReadyTokenRequest,
) (*model.WaitReadyTokenResponse, error) {
	cfg := xcontext.Configs(ctx).WaitReady
	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	deadline := time.NewTimer(cfg.Deadline)
	defer deadline.Stop()

	for {
		core, err := d.getTokenCore(ctx, req.ID)
		if err != nil {
			return nil, err
		}

		now := time.Now().UTC()
		if !core.ExpiresAt.After(now) {
			return nil, errorx.Of(errorx.Expired)
		}

		// An enabled token is still not usable before its window opens.
		if !core.Disabled && (core.ValidFrom == nil || !core.ValidFrom.After(now)) {
			return &model.WaitReadyTokenResponse{Ready: true}, nil
		}

		select {
		case <-ticker.C:
		case <-deadline.C:
			return nil, errorx.Of(errorx.Timeout)
		case <-ctx.Done():
			return nil, errorx.Of(errorx.Timeout)
		}
	}
}

// getToken loads a single-use token and checks its signature. A non-empty
// presented signature must also equal the stored one.
func (d *tokenDomain) getToken(ctx context.Context, id, presented string) (*entity.Token, error) {
	token, err := d.tokenRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.Of(errorx.NotFound)
		}

		xcontext.Logger(ctx).Errorf("Cannot get token %s: %v", id, err)
		return nil, errorx.Unknown
	}

	if err := d.verify(&token.RecordBase, &token.TokenCore, presented); err != nil {
		return nil, err
	}

	return token, nil
}

func (d *tokenDomain) getTokenCore(ctx context.Context, id string) (*entity.TokenCore, error) {
	token, err := d.tokenRepo.GetByID(ctx, id)
	if err == nil {
		return &token.TokenCore, nil
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		xcontext.Logger(ctx).Errorf("Cannot get token %s: %v", id, err)
		return nil, errorx.Unknown
	}

	reusable, err := d.reusableTokenRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.Of(errorx.NotFound)
		}

		xcontext.Logger(ctx).Errorf("Cannot get reusable token %s: %v", id, err)
		return nil, errorx.Unknown
	}

	return &reusable.TokenCore, nil
}

func (d *tokenDomain) verify(base *entity.RecordBase, core *entity.TokenCore, presented string) error {
	if presented != "" && presented != core.Signature {
		return errorx.Of(errorx.InvalidSignature)
	}

	if !d.signer.Verify(base.ID, core.PrizeID, core.ExpiresAt, core.SignatureVersion, core.Signature) {
		return errorx.Of(errorx.InvalidSignature)
	}

	return nil
}

// checkUsable returns the error of a token which cannot move forward at now.
func (d *tokenDomain) checkUsable(core *entity.TokenCore, now time.Time) error {
	switch {
	case !core.ExpiresAt.After(now):
		return errorx.Of(errorx.Expired)
	case core.Disabled:
		return errorx.Of(errorx.Disabled)
	case core.ValidFrom != nil && core.ValidFrom.After(now):
		return errorx.Of(errorx.TooEarly)
	}

	return nil
}

// classify explains a conditional update which matched no row. Expiry wins
// over every other cause.
func (d *tokenDomain) classify(core *entity.TokenCore, now time.Time) error {
	if err := d.checkUsable(core, now); err != nil {
		return err
	}

	return errorx.Unknown
}

func (d *tokenDomain) getPrize(ctx context.Context, prizeID string) (*entity.Prize, error) {
	prize, err := d.prizeCache.Get(ctx, prizeID, func(ctx context.Context) (entity.Prize, error) {
		prize, err := d.prizeRepo.GetByID(ctx, prizeID)
		if err != nil {
			return entity.Prize{}, err
		}

		return *prize, nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.Of(errorx.NotFound)
		}

		xcontext.Logger(ctx).Errorf("Cannot get prize %s: %v", prizeID, err)
		return nil, errorx.Unknown
	}

	return &prize, nil
}

func (d *tokenDomain) publish(ctx context.Context, event string, token *entity.Token, now time.Time) {
	common.Publish(ctx, d.publisher, common.TokenTopic, event, token.ID, tokenEvent{
		TokenID: token.ID,
		PrizeID: token.AwardedPrizeID(),
		BatchID: token.BatchID,
		At:      now,
	})
}

func observe(op string, err error) {
	if err == nil {
		common.ObserveTransition(op, "ok")
		return
	}

	common.ObserveTransition(op, errorx.Reason(errorx.CodeOf(err)))
}

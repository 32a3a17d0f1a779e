package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/questx-lab/prizeengine/internal/common"
	"github.com/questx-lab/prizeengine/internal/entity"
	"github.com/questx-lab/prizeengine/internal/model"
	"github.com/questx-lab/prizeengine/internal/repository"
	"github.com/questx-lab/prizeengine/pkg/crypto"
	"github.com/questx-lab/prizeengine/pkg/enum"
	"github.com/questx-lab/prizeengine/pkg/errorx"
	"github.com/questx-lab/prizeengine/pkg/pubsub"
	"github.com/questx-lab/prizeengine/pkg/xcontext"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"gorm.io/gorm"
)

var errSpinConflict = errors.New("session was advanced by another writer")

type RouletteDomain interface {
	Create(context.Context, *model.CreateRouletteRequest) (*model.CreateRouletteResponse, error)
	Get(context.Context, *model.GetRouletteRequest) (*model.GetRouletteResponse, error)
	Spin(context.Context, *model.SpinRouletteRequest) (*model.SpinRouletteResponse, error)
	Cancel(context.Context, *model.CancelRouletteRequest) (*model.CancelRouletteResponse, error)
}

type rouletteDomain struct {
	rouletteRepo repository.RouletteRepository
	batchRepo    repository.BatchRepository
	tokenRepo    repository.TokenRepository
	prizeRepo    repository.PrizeRepository
	publisher    pubsub.Publisher
	idGenerator  *snowflake.Node

	// sessionLocks serializes spins of the same session inside this process.
	sessionLocks *sessionLocker
	randIntn     func(int) int
}

type rouletteEvent struct {
	SessionID string `structs:"session_id"`
	BatchID   string `structs:"batch_id"`
	Mode      string `structs:"mode"`
	ChosenID  string `structs:"chosen_id,omitempty"`
	Order     int    `structs:"order,omitempty"`
	Status    string `structs:"status"`
}

func NewRouletteDomain(
	rouletteRepo repository.RouletteRepository,
	batchRepo repository.BatchRepository,
	tokenRepo repository.TokenRepository,
	prizeRepo repository.PrizeRepository,
	publisher pubsub.Publisher,
	idGenerator *snowflake.Node,
) *rouletteDomain {
	return &rouletteDomain{
		rouletteRepo: rouletteRepo,
		batchRepo:    batchRepo,
		tokenRepo:    tokenRepo,
		prizeRepo:    prizeRepo,
		publisher:    publisher,
		idGenerator:  idGenerator,
		sessionLocks: newSessionLocker(),
		randIntn:     crypto.RandIntn,
	}
}

func (d *rouletteDomain) Create(
	ctx context.Context, req *model.CreateRouletteRequest,
) (*model.CreateRouletteResponse, error) {
	mode, err := enum.ToEnum[entity.RouletteMode](req.Mode)
	if err != nil {
		xcontext.Logger(ctx).Debugf("Invalid roulette mode: %v", err)
		return nil, errorx.New(errorx.BadRequest, "Invalid roulette mode")
	}

	if _, err := d.batchRepo.GetByID(ctx, req.BatchID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.Of(errorx.NotFound)
		}

		xcontext.Logger(ctx).Errorf("Cannot get batch: %v", err)
		return nil, errorx.Unknown
	}

	now := time.Now().UTC()
	tokens, err := d.tokenRepo.GetEligibleByBatchID(ctx, req.BatchID, now)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get eligible tokens: %v", err)
		return nil, errorx.Unknown
	}

	if len(tokens) == 0 {
		return nil, errorx.Of(errorx.Exhausted)
	}

	snapshot, err := d.snapshot(ctx, mode, tokens)
	if err != nil {
		return nil, err
	}

	session := &entity.RouletteSession{
		Base:     entity.Base{ID: uuid.NewString()},
		BatchID:  req.BatchID,
		Mode:     mode,
		Status:   entity.RouletteActive,
		Snapshot: snapshot,
	}

	if err := d.rouletteRepo.CreateSession(ctx, session); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create roulette session: %v", err)
		return nil, errorx.Unknown
	}

	elements := []model.RouletteElement{}
	for _, e := range snapshot {
		elements = append(elements, convertRouletteElement(e, e.Weight))
	}

	return &model.CreateRouletteResponse{
		SessionID: session.ID,
		Elements:  elements,
		Mode:      string(mode),
		MaxSpins:  session.TotalWeight(),
	}, nil
}

func (d *rouletteDomain) Get(
	ctx context.Context, req *model.GetRouletteRequest,
) (*model.GetRouletteResponse, error) {
	session, err := d.getSession(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	spins, err := d.rouletteRepo.GetSpinsBySessionID(ctx, session.ID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get spins: %v", err)
		return nil, errorx.Unknown
	}

	weights := remainingWeights(session.Snapshot, spins)
	elements := []model.RouletteElement{}
	for i, e := range session.Snapshot {
		elements = append(elements, convertRouletteElement(e, weights[i]))
	}

	clientSpins := []model.RouletteSpin{}
	for i := range spins {
		clientSpins = append(clientSpins, convertRouletteSpin(&spins[i]))
	}

	return &model.GetRouletteResponse{RouletteSession: model.RouletteSession{
		ID:         session.ID,
		BatchID:    session.BatchID,
		Mode:       string(session.Mode),
		Status:     string(session.Status),
		Elements:   elements,
		Spins:      clientSpins,
		Remaining:  totalWeight(weights),
		FinishedAt: convertNullTime(session.FinishedAt),
	}}, nil
}

// Spin draws one element of the session. Spins of the same session are
// serialized by a process-local lock and the version of the session row, so
// two spins can never record the same order.
func (d *rouletteDomain) Spin(
	ctx context.Context, req *model.SpinRouletteRequest,
) (*model.SpinRouletteResponse, error) {
	unlock := d.sessionLocks.Lock(req.ID)
	defer unlock()

	retries := xcontext.Configs(ctx).Roulette.MaxSpinRetries
	if retries <= 0 {
		retries = 1
	}

	for i := 0; i < retries; i++ {
		resp, err := d.spinOnce(ctx, req.ID)
		if errors.Is(err, errSpinConflict) {
			xcontext.Logger(ctx).Debugf("Spin of session %s conflicted, retry %d", req.ID, i+1)
			continue
		}

		return resp, err
	}

	xcontext.Logger(ctx).Warnf("Spin of session %s still conflicts after %d retries", req.ID, retries)
	return nil, errorx.Of(errorx.Unavailable)
}

func (d *rouletteDomain) spinOnce(ctx context.Context, sessionID string) (*model.SpinRouletteResponse, error) {
	session, err := d.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	switch session.Status {
	case entity.RouletteCancelled:
		return nil, errorx.Of(errorx.SessionClosed)
	case entity.RouletteFinished:
		return nil, errorx.Of(errorx.Exhausted)
	}

	spins, err := d.rouletteRepo.GetSpinsBySessionID(ctx, session.ID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get spins: %v", err)
		return nil, errorx.Unknown
	}

	weights := remainingWeights(session.Snapshot, spins)
	total := totalWeight(weights)
	index := drawWeighted(weights, d.randIntn)
	if index < 0 {
		return nil, errorx.Of(errorx.Exhausted)
	}

	now := time.Now().UTC()
	finished := total == 1
	chosen := session.Snapshot[index]
	spin := &entity.RouletteSpin{
		SnowFlakeBase:  entity.SnowFlakeBase{ID: d.idGenerator.Generate().Int64()},
		SessionID:      session.ID,
		Order:          session.SpinCount + 1,
		ChosenID:       chosen.ID,
		WeightSnapshot: weights[index],
	}

	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	err = d.rouletteRepo.AdvanceSession(ctx, session.ID, session.Version, finished, now)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errSpinConflict
		}

		xcontext.Logger(ctx).Errorf("Cannot advance roulette session: %v", err)
		return nil, errorx.Unknown
	}

	if err := d.rouletteRepo.CreateSpin(ctx, spin); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create roulette spin: %v", err)
		return nil, errorx.Unknown
	}

	if err := xcontext.WithCommitDBTransaction(ctx); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot commit roulette spin: %v", err)
		return nil, errorx.Unknown
	}

	common.PromCounters[common.RouletteSpinsTotal].WithLabelValues(string(session.Mode)).Inc()

	status := entity.RouletteActive
	if finished {
		status = entity.RouletteFinished
	}

	common.Publish(ctx, d.publisher, common.RouletteTopic, common.EventRouletteSpun, session.ID, rouletteEvent{
		SessionID: session.ID,
		BatchID:   session.BatchID,
		Mode:      string(session.Mode),
		ChosenID:  chosen.ID,
		Order:     spin.Order,
		Status:    string(status),
	})

	if finished {
		d.publishStopped(ctx, session, status)
	}

	return &model.SpinRouletteResponse{
		Chosen:    convertRouletteElement(chosen, weights[index]-1),
		Order:     spin.Order,
		Finished:  finished,
		Remaining: total - 1,
	}, nil
}

// Cancel stops an active session. Cancelling a session which is already
// finished or cancelled returns its current state.
func (d *rouletteDomain) Cancel(
	ctx context.Context, req *model.CancelRouletteRequest,
) (*model.CancelRouletteResponse, error) {
	now := time.Now().UTC()
	err := d.rouletteRepo.CancelSession(ctx, req.ID, now)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		xcontext.Logger(ctx).Errorf("Cannot cancel roulette session: %v", err)
		return nil, errorx.Unknown
	}

	cancelled := err == nil
	session, err := d.getSession(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	if cancelled {
		d.publishStopped(ctx, session, session.Status)
	}

	return &model.CancelRouletteResponse{
		Status:     string(session.Status),
		FinishedAt: convertNullTime(session.FinishedAt),
	}, nil
}

// snapshot builds the candidates of a new session, ordered deterministically.
func (d *rouletteDomain) snapshot(
	ctx context.Context, mode entity.RouletteMode, tokens []entity.Token,
) ([]entity.RouletteElement, error) {
	counts := map[string]int{}
	for _, t := range tokens {
		counts[t.AwardedPrizeID()]++
	}

	prizes, err := d.prizeRepo.GetByIDs(ctx, maps.Keys(counts))
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get prizes: %v", err)
		return nil, errorx.Unknown
	}

	prizeSet := map[string]entity.Prize{}
	for _, p := range prizes {
		prizeSet[p.ID] = p
	}

	elements := []entity.RouletteElement{}
	switch mode {
	case entity.RouletteByPrize:
		for prizeID, count := range counts {
			prize := prizeSet[prizeID]
			elements = append(elements, entity.RouletteElement{
				ID:      prizeID,
				PrizeID: prizeID,
				Key:     prize.Key,
				Label:   prize.Label,
				Weight:  count,
			})
		}

		slices.SortFunc(elements, func(a, b entity.RouletteElement) bool {
			if a.Key != b.Key {
				return a.Key < b.Key
			}

			return a.ID < b.ID
		})

	case entity.RouletteByToken:
		for _, t := range tokens {
			prize := prizeSet[t.AwardedPrizeID()]
			elements = append(elements, entity.RouletteElement{
				ID:      t.ID,
				PrizeID: t.AwardedPrizeID(),
				Key:     prize.Key,
				Label:   prize.Label,
				Weight:  1,
			})
		}
	}

	return elements, nil
}

func (d *rouletteDomain) getSession(ctx context.Context, id string) (*entity.RouletteSession, error) {
	session, err := d.rouletteRepo.GetSessionByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.Of(errorx.NotFound)
		}

		xcontext.Logger(ctx).Errorf("Cannot get roulette session: %v", err)
		return nil, errorx.Unknown
	}

	return session, nil
}

func (d *rouletteDomain) publishStopped(
	ctx context.Context, session *entity.RouletteSession, status entity.RouletteStatus,
) {
	common.Publish(ctx, d.publisher, common.RouletteTopic, common.EventRouletteStopped, session.ID, rouletteEvent{
		SessionID: session.ID,
		BatchID:   session.BatchID,
		Mode:      string(session.Mode),
		Status:    string(status),
	})
}

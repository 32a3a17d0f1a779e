package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/questx-lab/prizeengine/internal/common"
	"github.com/questx-lab/prizeengine/internal/domain/signer"
	"github.com/questx-lab/prizeengine/internal/entity"
	"github.com/questx-lab/prizeengine/internal/repository"
	"github.com/questx-lab/prizeengine/pkg/testutil"
	"github.com/questx-lab/prizeengine/pkg/xcache"
	"github.com/questx-lab/prizeengine/pkg/xcontext"
)

// suite wires every domain on top of the database held by ctx.
type suite struct {
	publisher *testutil.MockPublisher
	signer    signer.Signer

	tokenRepo         repository.TokenRepository
	reusableTokenRepo repository.ReusableTokenRepository
	batchRepo         repository.BatchRepository
	prizeRepo         repository.PrizeRepository
	rouletteRepo      repository.RouletteRepository

	redemptionSwitch *common.RedemptionSwitch

	tokenDomain     *tokenDomain
	batchDomain     *batchDomain
	scheduleDomain  *scheduleDomain
	rouletteDomain  *rouletteDomain
	reconcileDomain *reconcileDomain
}

func newSuite(ctx context.Context) *suite {
	cfg := xcontext.Configs(ctx)
	s, err := signer.New(cfg.Signer.CurrentVersion, cfg.Signer.Keys)
	if err != nil {
		panic(err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}

	st := &suite{
		publisher:         &testutil.MockPublisher{},
		signer:            s,
		tokenRepo:         repository.NewTokenRepository(),
		reusableTokenRepo: repository.NewReusableTokenRepository(),
		batchRepo:         repository.NewBatchRepository(),
		prizeRepo:         repository.NewPrizeRepository(),
		rouletteRepo:      repository.NewRouletteRepository(),
	}

	st.redemptionSwitch = common.NewRedemptionSwitch(
		repository.NewSystemSettingRepository(),
		xcache.NewMemory[bool](cfg.Cache.SwitchTTL),
	)

	prizeCache := xcache.NewMemory[entity.Prize](cfg.Cache.PrizeTTL)

	st.tokenDomain = NewTokenDomain(st.tokenRepo, st.reusableTokenRepo, st.batchRepo, st.prizeRepo,
		st.signer, st.redemptionSwitch, prizeCache, st.publisher)
	st.batchDomain = NewBatchDomain(st.batchRepo, st.prizeRepo, st.tokenRepo, st.reusableTokenRepo,
		st.signer, prizeCache, st.publisher)
	st.scheduleDomain = NewScheduleDomain(st.tokenRepo, st.reusableTokenRepo, st.batchRepo,
		st.redemptionSwitch)
	st.rouletteDomain = NewRouletteDomain(st.rouletteRepo, st.batchRepo, st.tokenRepo, st.prizeRepo,
		st.publisher, node)
	st.reconcileDomain = NewReconcileDomain(st.tokenRepo, st.reusableTokenRepo, st.prizeRepo,
		st.scheduleDomain)

	return st
}

// signedToken creates a token of batch signed with the current key.
func (s *suite) signedToken(ctx context.Context, init entity.Token) entity.Token {
	if init.ExpiresAt.IsZero() {
		init.ExpiresAt = time.Now().UTC().Add(24 * time.Hour).Truncate(time.Second)
	}

	if init.ID == "" {
		init.ID = uuid.NewString()
	}

	sig, version, err := s.signer.Sign(init.ID, init.PrizeID, init.ExpiresAt)
	if err != nil {
		panic(err)
	}

	init.Signature = sig
	init.SignatureVersion = version
	return testutil.SampleToken(ctx, init)
}

func (s *suite) signedReusableToken(ctx context.Context, init entity.ReusableToken) entity.ReusableToken {
	if init.ExpiresAt.IsZero() {
		init.ExpiresAt = time.Now().UTC().Add(24 * time.Hour).Truncate(time.Second)
	}

	if init.ID == "" {
		init.ID = uuid.NewString()
	}

	sig, version, err := s.signer.Sign(init.ID, init.PrizeID, init.ExpiresAt)
	if err != nil {
		panic(err)
	}

	init.Signature = sig
	init.SignatureVersion = version
	return testutil.SampleReusableToken(ctx, init)
}

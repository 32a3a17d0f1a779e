package domain

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/questx-lab/prizeengine/internal/entity"
	"github.com/questx-lab/prizeengine/internal/model"
	"github.com/questx-lab/prizeengine/internal/repository"
	"github.com/questx-lab/prizeengine/pkg/errorx"
	"github.com/questx-lab/prizeengine/pkg/testutil"
	"github.com/questx-lab/prizeengine/pkg/xcontext"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

type tokenFixture struct {
	prize entity.Prize
	batch entity.Batch
}

func newTokenFixture(ctx context.Context, static bool) tokenFixture {
	prize := testutil.SamplePrize(ctx, entity.Prize{Active: true})
	batch := testutil.SampleBatch(ctx, entity.Batch{IsStatic: static})
	return tokenFixture{prize: prize, batch: batch}
}

func (f tokenFixture) core() entity.TokenCore {
	return entity.TokenCore{PrizeID: f.prize.ID, BatchID: f.batch.ID}
}

func Test_tokenDomain_Redeem_Concurrent(t *testing.T) {
	ctx := testutil.MockContext()
	s := newSuite(ctx)
	f := newTokenFixture(ctx, false)
	token := s.signedToken(ctx, entity.Token{TokenCore: f.core()})

	var succeeded, redeemed int32
	g := errgroup.Group{}
	for i := 0; i < 10; i++ {
		g.Go(func() error {
			_, err := s.tokenDomain.Redeem(ctx, &model.RedeemTokenRequest{ID: token.ID})
			switch {
			case err == nil:
				atomic.AddInt32(&succeeded, 1)
			case errorx.Is(err, errorx.AlreadyRedeemed):
				atomic.AddInt32(&redeemed, 1)
			default:
				return err
			}

			return nil
		})
	}

	require.NoError(t, g.Wait())
	require.Equal(t, int32(1), succeeded)
	require.Equal(t, int32(9), redeemed)

	// The winning redeem also reveals the token.
	require.Equal(t, 2, s.publisher.Count("token"))
}

func Test_tokenDomain_Redeem_Errors(t *testing.T) {
	ctx := testutil.MockContext()
	s := newSuite(ctx)
	f := newTokenFixture(ctx, false)
	now := time.Now().UTC()

	expired := s.signedToken(ctx, entity.Token{
		TokenCore:  entity.TokenCore{PrizeID: f.prize.ID, BatchID: f.batch.ID, ExpiresAt: now.Add(-time.Hour).Truncate(time.Second)},
		RedeemedAt: testutil.TimePtr(now.Add(-2 * time.Hour)),
	})
	expiredDisabled := s.signedToken(ctx, entity.Token{
		TokenCore: entity.TokenCore{PrizeID: f.prize.ID, BatchID: f.batch.ID, ExpiresAt: now.Add(-time.Minute).Truncate(time.Second), Disabled: true},
	})
	disabled := s.signedToken(ctx, entity.Token{
		TokenCore: entity.TokenCore{PrizeID: f.prize.ID, BatchID: f.batch.ID, Disabled: true},
	})
	early := s.signedToken(ctx, entity.Token{
		TokenCore: entity.TokenCore{PrizeID: f.prize.ID, BatchID: f.batch.ID, ValidFrom: testutil.TimePtr(now.Add(time.Hour))},
	})

	testCases := []struct {
		name string
		req  *model.RedeemTokenRequest
		want errorx.Code
	}{
		{"not found", &model.RedeemTokenRequest{ID: "unknown"}, errorx.NotFound},
		{"expired wins over redeemed", &model.RedeemTokenRequest{ID: expired.ID}, errorx.Expired},
		{"expired wins over disabled", &model.RedeemTokenRequest{ID: expiredDisabled.ID}, errorx.Expired},
		{"disabled", &model.RedeemTokenRequest{ID: disabled.ID}, errorx.Disabled},
		{"too early", &model.RedeemTokenRequest{ID: early.ID}, errorx.TooEarly},
		{"wrong signature", &model.RedeemTokenRequest{ID: disabled.ID, Signature: "forged"}, errorx.InvalidSignature},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.tokenDomain.Redeem(ctx, tt.req)
			require.Error(t, err)
			require.Equal(t, tt.want, errorx.CodeOf(err))
		})
	}
}

func Test_tokenDomain_Redeem_SystemOff(t *testing.T) {
	ctx := testutil.MockContext()
	s := newSuite(ctx)
	f := newTokenFixture(ctx, false)
	token := s.signedToken(ctx, entity.Token{TokenCore: f.core()})

	enabled := false
	_, err := s.scheduleDomain.SetRedemption(ctx, &model.SetRedemptionRequest{Enabled: &enabled})
	require.NoError(t, err)

	_, err = s.tokenDomain.Redeem(ctx, &model.RedeemTokenRequest{ID: token.ID})
	require.True(t, errorx.Is(err, errorx.SystemOff))

	stored, err := s.tokenRepo.GetByID(ctx, token.ID)
	require.NoError(t, err)
	require.Nil(t, stored.RedeemedAt)

	enabled = true
	_, err = s.scheduleDomain.SetRedemption(ctx, &model.SetRedemptionRequest{Enabled: &enabled})
	require.NoError(t, err)

	resp, err := s.tokenDomain.Redeem(ctx, &model.RedeemTokenRequest{ID: token.ID, Signature: token.Signature})
	require.NoError(t, err)
	require.Equal(t, token.ID, resp.ID)
}

func Test_tokenDomain_Redeem_TamperedSignature(t *testing.T) {
	ctx := testutil.MockContext()
	s := newSuite(ctx)
	f := newTokenFixture(ctx, false)

	// A token signed with a retired key version still verifies.
	expiresAt := time.Now().UTC().Add(time.Hour).Truncate(time.Second)
	legacy := entity.Token{TokenCore: f.core()}
	legacy.ID = "legacy-token"
	legacy.ExpiresAt = expiresAt
	sig, err := s.signer.SignWithVersion(legacy.ID, f.prize.ID, expiresAt, 1)
	require.NoError(t, err)
	legacy.Signature = sig
	legacy.SignatureVersion = 1
	testutil.SampleToken(ctx, legacy)

	_, err = s.tokenDomain.Redeem(ctx, &model.RedeemTokenRequest{ID: legacy.ID})
	require.NoError(t, err)

	// A stored row whose prize was changed no longer matches its signature.
	tampered := s.signedToken(ctx, entity.Token{TokenCore: f.core()})
	other := testutil.SamplePrize(ctx, entity.Prize{Active: true})
	err = xcontext.DB(ctx).Model(&entity.Token{}).Where("id=?", tampered.ID).
		Update("prize_id", other.ID).Error
	require.NoError(t, err)

	_, err = s.tokenDomain.Redeem(ctx, &model.RedeemTokenRequest{ID: tampered.ID})
	require.True(t, errorx.Is(err, errorx.InvalidSignature))
}

func Test_tokenDomain_Reveal(t *testing.T) {
	ctx := testutil.MockContext()
	s := newSuite(ctx)

	t.Run("static batch shows its own prize", func(t *testing.T) {
		f := newTokenFixture(ctx, true)
		token := s.signedToken(ctx, entity.Token{TokenCore: f.core()})

		resp, err := s.tokenDomain.Reveal(ctx, &model.RevealTokenRequest{ID: token.ID})
		require.NoError(t, err)
		require.Equal(t, f.prize.ID, resp.PrizeID)
	})

	t.Run("interactive batch shows each token's prize", func(t *testing.T) {
		prizeB := testutil.SamplePrize(ctx, entity.Prize{Key: "B2", Active: true})
		prizeC := testutil.SamplePrize(ctx, entity.Prize{Key: "C2", Active: true})
		batch := testutil.SampleBatch(ctx, entity.Batch{})
		first := s.signedToken(ctx, entity.Token{TokenCore: entity.TokenCore{PrizeID: prizeB.ID, BatchID: batch.ID}})
		second := s.signedToken(ctx, entity.Token{TokenCore: entity.TokenCore{PrizeID: prizeC.ID, BatchID: batch.ID}})

		r1, err := s.tokenDomain.Reveal(ctx, &model.RevealTokenRequest{ID: first.ID})
		require.NoError(t, err)
		r2, err := s.tokenDomain.Reveal(ctx, &model.RevealTokenRequest{ID: second.ID})
		require.NoError(t, err)

		require.Equal(t, prizeB.ID, r1.PrizeID)
		require.Equal(t, prizeC.ID, r2.PrizeID)

		// Revealing again returns the stored assignment.
		again, err := s.tokenDomain.Reveal(ctx, &model.RevealTokenRequest{ID: first.ID})
		require.NoError(t, err)
		require.Equal(t, r1.PrizeID, again.PrizeID)
	})

	t.Run("disabled token", func(t *testing.T) {
		f := newTokenFixture(ctx, false)
		core := f.core()
		core.Disabled = true
		token := s.signedToken(ctx, entity.Token{TokenCore: core})

		_, err := s.tokenDomain.Reveal(ctx, &model.RevealTokenRequest{ID: token.ID})
		require.True(t, errorx.Is(err, errorx.Disabled))
	})

	t.Run("expired disabled token", func(t *testing.T) {
		f := newTokenFixture(ctx, false)
		core := f.core()
		core.Disabled = true
		core.ExpiresAt = time.Now().UTC().Add(-time.Hour).Truncate(time.Second)
		token := s.signedToken(ctx, entity.Token{TokenCore: core})

		_, err := s.tokenDomain.Reveal(ctx, &model.RevealTokenRequest{ID: token.ID})
		require.True(t, errorx.Is(err, errorx.Expired))
	})

	t.Run("expired token already revealed", func(t *testing.T) {
		f := newTokenFixture(ctx, false)
		core := f.core()
		core.ExpiresAt = time.Now().UTC().Add(-time.Hour).Truncate(time.Second)
		token := s.signedToken(ctx, entity.Token{
			TokenCore:       core,
			RevealedAt:      testutil.TimePtr(time.Now().UTC().Add(-2 * time.Hour)),
			AssignedPrizeID: sql.NullString{String: f.prize.ID, Valid: true},
		})

		_, err := s.tokenDomain.Reveal(ctx, &model.RevealTokenRequest{ID: token.ID})
		require.True(t, errorx.Is(err, errorx.Expired))
	})
}

func Test_tokenDomain_Reveal_Concurrent(t *testing.T) {
	ctx := testutil.MockContext()
	s := newSuite(ctx)

	prizeA := testutil.SamplePrize(ctx, entity.Prize{Active: true})
	prizeB := testutil.SamplePrize(ctx, entity.Prize{Active: true})
	batch := testutil.SampleBatch(ctx, entity.Batch{})

	issued := map[string]int{}
	tokens := []entity.Token{}
	for i := 0; i < 6; i++ {
		prizeID := prizeA.ID
		if i%3 == 0 {
			prizeID = prizeB.ID
		}

		tokens = append(tokens, s.signedToken(ctx, entity.Token{
			TokenCore: entity.TokenCore{PrizeID: prizeID, BatchID: batch.ID},
		}))
		issued[prizeID]++
	}

	g := errgroup.Group{}
	for _, token := range tokens {
		token := token
		for i := 0; i < 3; i++ {
			g.Go(func() error {
				resp, err := s.tokenDomain.Reveal(ctx, &model.RevealTokenRequest{ID: token.ID})
				if err != nil {
					return err
				}

				if resp.PrizeID != token.PrizeID {
					return fmt.Errorf("token %s revealed prize %s", token.ID, resp.PrizeID)
				}

				return nil
			})
		}
	}
	require.NoError(t, g.Wait())

	assigned := map[string]int{}
	for _, token := range tokens {
		stored, err := s.tokenRepo.GetByID(ctx, token.ID)
		require.NoError(t, err)
		require.True(t, stored.AssignedPrizeID.Valid)
		assigned[stored.AssignedPrizeID.String]++
	}

	// No prize is shown more often than it was issued.
	require.Equal(t, issued, assigned)

	// One reveal event per token.
	require.Equal(t, len(tokens), s.publisher.Count("token"))
}

func Test_tokenDomain_Redeem_Unrevealed(t *testing.T) {
	ctx := testutil.MockContext()
	s := newSuite(ctx)
	f := newTokenFixture(ctx, false)
	token := s.signedToken(ctx, entity.Token{TokenCore: f.core()})

	resp, err := s.tokenDomain.Redeem(ctx, &model.RedeemTokenRequest{ID: token.ID})
	require.NoError(t, err)
	require.Equal(t, f.prize.ID, resp.PrizeID)

	stored, err := s.tokenRepo.GetByID(ctx, token.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.RevealedAt)
	require.NotNil(t, stored.RedeemedAt)
	require.False(t, stored.RevealedAt.After(*stored.RedeemedAt))
	require.Equal(t, sql.NullString{String: f.prize.ID, Valid: true}, stored.AssignedPrizeID)

	// Reveal still answers after the redeem.
	revealed, err := s.tokenDomain.Reveal(ctx, &model.RevealTokenRequest{ID: token.ID})
	require.NoError(t, err)
	require.Equal(t, f.prize.ID, revealed.PrizeID)
}

func Test_tokenDomain_Redeem_AssignedPrize(t *testing.T) {
	ctx := testutil.MockContext()
	s := newSuite(ctx)

	t.Run("redeem returns the revealed prize", func(t *testing.T) {
		prizeA := testutil.SamplePrize(ctx, entity.Prize{Active: true})
		prizeB := testutil.SamplePrize(ctx, entity.Prize{Active: true})
		batch := testutil.SampleBatch(ctx, entity.Batch{})
		s.signedToken(ctx, entity.Token{TokenCore: entity.TokenCore{PrizeID: prizeA.ID, BatchID: batch.ID}})
		token := s.signedToken(ctx, entity.Token{TokenCore: entity.TokenCore{PrizeID: prizeB.ID, BatchID: batch.ID}})

		revealed, err := s.tokenDomain.Reveal(ctx, &model.RevealTokenRequest{ID: token.ID})
		require.NoError(t, err)

		redeemed, err := s.tokenDomain.Redeem(ctx, &model.RedeemTokenRequest{ID: token.ID})
		require.NoError(t, err)
		require.Equal(t, revealed.PrizeID, redeemed.PrizeID)
	})

	t.Run("assignment differs from the issued prize", func(t *testing.T) {
		f := newTokenFixture(ctx, false)
		other := testutil.SamplePrize(ctx, entity.Prize{Active: true})
		token := s.signedToken(ctx, entity.Token{
			TokenCore:       f.core(),
			RevealedAt:      testutil.TimePtr(time.Now().UTC()),
			AssignedPrizeID: sql.NullString{String: other.ID, Valid: true},
		})

		redeemed, err := s.tokenDomain.Redeem(ctx, &model.RedeemTokenRequest{ID: token.ID})
		require.NoError(t, err)
		require.Equal(t, other.ID, redeemed.PrizeID)

		// The stored assignment is kept by the redeem.
		stored, err := s.tokenRepo.GetByID(ctx, token.ID)
		require.NoError(t, err)
		require.Equal(t, other.ID, stored.AssignedPrizeID.String)
	})
}

func Test_tokenDomain_Deliver(t *testing.T) {
	ctx := testutil.MockContext()
	s := newSuite(ctx)
	f := newTokenFixture(ctx, true)
	token := s.signedToken(ctx, entity.Token{TokenCore: f.core()})

	_, err := s.tokenDomain.Deliver(ctx, &model.DeliverTokenRequest{ID: token.ID})
	require.True(t, errorx.Is(err, errorx.NotRevealed))

	_, err = s.tokenDomain.Reveal(ctx, &model.RevealTokenRequest{ID: token.ID})
	require.NoError(t, err)

	first, err := s.tokenDomain.Deliver(ctx, &model.DeliverTokenRequest{ID: token.ID})
	require.NoError(t, err)

	second, err := s.tokenDomain.Deliver(ctx, &model.DeliverTokenRequest{ID: token.ID})
	require.NoError(t, err)
	require.True(t, first.DeliveredAt.Equal(second.DeliveredAt))
}

func Test_tokenDomain_Get_StaticAutoReveal(t *testing.T) {
	ctx := testutil.MockContext()
	s := newSuite(ctx)
	f := newTokenFixture(ctx, true)
	token := s.signedToken(ctx, entity.Token{TokenCore: f.core()})

	resp, err := s.tokenDomain.Get(ctx, &model.GetTokenRequest{ID: token.ID})
	require.NoError(t, err)
	require.Equal(t, string(entity.TokenRevealed), resp.State)
	require.NotNil(t, resp.RevealedAt)
	require.Equal(t, f.prize.Key, resp.Prize.Key)

	// An interactive batch is never revealed by a read.
	g := newTokenFixture(ctx, false)
	plain := s.signedToken(ctx, entity.Token{TokenCore: g.core()})
	resp, err = s.tokenDomain.Get(ctx, &model.GetTokenRequest{ID: plain.ID})
	require.NoError(t, err)
	require.Equal(t, string(entity.TokenEnabled), resp.State)
	require.Nil(t, resp.RevealedAt)
}

func Test_tokenDomain_Consume(t *testing.T) {
	ctx := testutil.MockContext()
	s := newSuite(ctx)
	f := newTokenFixture(ctx, false)
	token := s.signedReusableToken(ctx, entity.ReusableToken{TokenCore: f.core(), MaxUses: 2})

	resp, err := s.tokenDomain.Consume(ctx, &model.ConsumeTokenRequest{ID: token.ID})
	require.NoError(t, err)
	require.Equal(t, 1, resp.UsedCount)

	resp, err = s.tokenDomain.Consume(ctx, &model.ConsumeTokenRequest{ID: token.ID, Signature: token.Signature})
	require.NoError(t, err)
	require.Equal(t, 2, resp.UsedCount)
	require.Equal(t, 2, resp.MaxUses)

	_, err = s.tokenDomain.Consume(ctx, &model.ConsumeTokenRequest{ID: token.ID})
	require.True(t, errorx.Is(err, errorx.Exhausted))
}

func Test_tokenDomain_Consume_Errors(t *testing.T) {
	ctx := testutil.MockContext()
	s := newSuite(ctx)
	f := newTokenFixture(ctx, false)

	disabledCore := f.core()
	disabledCore.Disabled = true
	disabled := s.signedReusableToken(ctx, entity.ReusableToken{TokenCore: disabledCore, MaxUses: 2})

	expiredCore := f.core()
	expiredCore.ExpiresAt = time.Now().UTC().Add(-time.Hour).Truncate(time.Second)
	expired := s.signedReusableToken(ctx, entity.ReusableToken{TokenCore: expiredCore, MaxUses: 2})

	// An expired token which is also used up reports the expiry.
	expiredUsedUp := s.signedReusableToken(ctx, entity.ReusableToken{TokenCore: expiredCore, MaxUses: 1, UsedCount: 1})

	tests := []struct {
		name string
		id   string
		want errorx.Code
	}{
		{name: "disabled", id: disabled.ID, want: errorx.Disabled},
		{name: "expired", id: expired.ID, want: errorx.Expired},
		{name: "expired and used up", id: expiredUsedUp.ID, want: errorx.Expired},
		{name: "unknown", id: "unknown", want: errorx.NotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.tokenDomain.Consume(ctx, &model.ConsumeTokenRequest{ID: tt.id})
			require.True(t, errorx.Is(err, tt.want))
		})
	}

	stored, err := s.reusableTokenRepo.GetByID(ctx, disabled.ID)
	require.NoError(t, err)
	require.Equal(t, 0, stored.UsedCount)
}

func Test_tokenDomain_Consume_Concurrent(t *testing.T) {
	ctx := testutil.MockContext()
	s := newSuite(ctx)
	f := newTokenFixture(ctx, false)
	token := s.signedReusableToken(ctx, entity.ReusableToken{TokenCore: f.core(), MaxUses: 3})

	var succeeded, exhausted int32
	g := errgroup.Group{}
	for i := 0; i < 10; i++ {
		g.Go(func() error {
			_, err := s.tokenDomain.Consume(ctx, &model.ConsumeTokenRequest{ID: token.ID})
			switch {
			case err == nil:
				atomic.AddInt32(&succeeded, 1)
			case errorx.Is(err, errorx.Exhausted):
				atomic.AddInt32(&exhausted, 1)
			default:
				return err
			}

			return nil
		})
	}

	require.NoError(t, g.Wait())
	require.Equal(t, int32(3), succeeded)
	require.Equal(t, int32(7), exhausted)

	stored, err := s.reusableTokenRepo.GetByID(ctx, token.ID)
	require.NoError(t, err)
	require.Equal(t, 3, stored.UsedCount)
	require.Equal(t, 3, s.publisher.Count("token"))
}

func Test_tokenDomain_Get_Reusable(t *testing.T) {
	ctx := testutil.MockContext()
	s := newSuite(ctx)
	f := newTokenFixture(ctx, false)
	token := s.signedReusableToken(ctx, entity.ReusableToken{TokenCore: f.core(), MaxUses: 5, UsedCount: 2})

	resp, err := s.tokenDomain.Get(ctx, &model.GetTokenRequest{ID: token.ID})
	require.NoError(t, err)
	require.Equal(t, token.ID, resp.ID)
	require.True(t, resp.Reusable)
	require.Equal(t, 2, resp.UsedCount)
	require.Equal(t, 5, resp.MaxUses)
	require.Equal(t, string(entity.TokenEnabled), resp.State)
	require.Equal(t, f.prize.Key, resp.Prize.Key)
	require.Nil(t, resp.RevealedAt)

	_, err = s.tokenDomain.Get(ctx, &model.GetTokenRequest{ID: "unknown"})
	require.True(t, errorx.Is(err, errorx.NotFound))
}

func Test_tokenDomain_WaitReady(t *testing.T) {
	ctx := testutil.MockContext()
	s := newSuite(ctx)
	f := newTokenFixture(ctx, false)

	enabled := s.signedToken(ctx, entity.Token{TokenCore: f.core()})
	resp, err := s.tokenDomain.WaitReady(ctx, &model.WaitReadyTokenRequest{ID: enabled.ID})
	require.NoError(t, err)
	require.True(t, resp.Ready)

	core := f.core()
	core.Disabled = true
	disabled := s.signedToken(ctx, entity.Token{TokenCore: core})
	_, err = s.tokenDomain.WaitReady(ctx, &model.WaitReadyTokenRequest{ID: disabled.ID})
	require.True(t, errorx.Is(err, errorx.Timeout))

	// The token gets enabled while the caller is waiting.
	go func() {
		time.Sleep(50 * time.Millisecond)
		xcontext.DB(ctx).Model(&entity.Token{}).Where("id=?", disabled.ID).Update("disabled", false)
	}()

	resp, err = s.tokenDomain.WaitReady(ctx, &model.WaitReadyTokenRequest{ID: disabled.ID})
	require.NoError(t, err)
	require.True(t, resp.Ready)

	// Enabled ahead of its window, the token is not ready yet.
	early := f.core()
	early.ValidFrom = testutil.TimePtr(time.Now().UTC().Add(time.Hour))
	notYet := s.signedToken(ctx, entity.Token{TokenCore: early})
	_, err = s.tokenDomain.WaitReady(ctx, &model.WaitReadyTokenRequest{ID: notYet.ID})
	require.True(t, errorx.Is(err, errorx.Timeout))

	_, err = s.tokenDomain.WaitReady(ctx, &model.WaitReadyTokenRequest{ID: "unknown"})
	require.True(t, errorx.Is(err, errorx.NotFound))
}

func Test_tokenDomain_Reveal_Assigned(t *testing.T) {
	ctx := testutil.MockContext()
	s := newSuite(ctx)
	f := newTokenFixture(ctx, false)
	token := s.signedToken(ctx, entity.Token{TokenCore: f.core()})

	_, err := s.tokenDomain.Reveal(ctx, &model.RevealTokenRequest{ID: token.ID})
	require.NoError(t, err)

	stored, err := repository.NewTokenRepository().GetByID(ctx, token.ID)
	require.NoError(t, err)
	require.Equal(t, sql.NullString{String: f.prize.ID, Valid: true}, stored.AssignedPrizeID)
}

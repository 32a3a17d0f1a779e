package domain

import (
	"database/sql"
	"time"

	"github.com/questx-lab/prizeengine/internal/entity"
	"github.com/questx-lab/prizeengine/internal/model"
)

func convertPrize(prize *entity.Prize) model.Prize {
	if prize == nil {
		return model.Prize{}
	}

	return model.Prize{
		ID:    prize.ID,
		Key:   prize.Key,
		Label: prize.Label,
		Color: prize.Color,
	}
}

func convertBatch(batch *entity.Batch) model.Batch {
	if batch == nil {
		return model.Batch{}
	}

	return model.Batch{
		ID:              batch.ID,
		Description:     batch.Description,
		StaticTargetURL: batch.StaticTargetURL.String,
		CreatedAt:       batch.CreatedAt,
	}
}

func convertToken(token *entity.Token, prize model.Prize, batch model.Batch, now time.Time) model.Token {
	return model.Token{
		ID:          token.ID,
		Prize:       prize,
		Batch:       batch,
		ExpiresAt:   token.ExpiresAt,
		ValidFrom:   token.ValidFrom,
		Disabled:    token.Disabled,
		RevealedAt:  token.RevealedAt,
		DeliveredAt: token.DeliveredAt,
		State:       string(token.State(now)),
	}
}

func convertReusableToken(
	token *entity.ReusableToken, prize model.Prize, batch model.Batch, now time.Time,
) model.Token {
	return model.Token{
		ID:        token.ID,
		Prize:     prize,
		Batch:     batch,
		ExpiresAt: token.ExpiresAt,
		ValidFrom: token.ValidFrom,
		Disabled:  token.Disabled,
		State:     string(token.State(now)),
		Reusable:  true,
		UsedCount: token.UsedCount,
		MaxUses:   token.MaxUses,
	}
}

func convertRouletteElement(e entity.RouletteElement, remaining int) model.RouletteElement {
	return model.RouletteElement{
		ID:        e.ID,
		PrizeID:   e.PrizeID,
		Key:       e.Key,
		Label:     e.Label,
		Weight:    e.Weight,
		Remaining: remaining,
	}
}

func convertRouletteSpin(spin *entity.RouletteSpin) model.RouletteSpin {
	return model.RouletteSpin{
		Order:          spin.Order,
		ChosenID:       spin.ChosenID,
		WeightSnapshot: spin.WeightSnapshot,
		CreatedAt:      spin.CreatedAt,
	}
}

func convertNullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}

	return &t.Time
}

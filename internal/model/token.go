package model

import "time"

type GetTokenRequest struct {
	ID string `uri:"id" validate:"required"`
}

type GetTokenResponse struct {
	Token
}

type RedeemTokenRequest struct {
	ID        string `uri:"id" validate:"required"`
	Signature string `json:"signature"`
}

type RedeemTokenResponse struct {
	ID         string    `json:"id"`
	PrizeID    string    `json:"prize_id"`
	RedeemedAt time.Time `json:"redeemed_at"`
}

type RevealTokenRequest struct {
	ID        string `uri:"id" validate:"required"`
	Signature string `json:"signature"`
}

type RevealTokenResponse struct {
	PrizeID    string `json:"prize_id"`
	PrizeKey   string `json:"prize_key"`
	PrizeLabel string `json:"prize_label"`
}

type DeliverTokenRequest struct {
	ID string `uri:"id" validate:"required"`
}

type DeliverTokenResponse struct {
	DeliveredAt time.Time `json:"delivered_at"`
}

type ConsumeTokenRequest struct {
	ID        string `uri:"id" validate:"required"`
	Signature string `json:"signature"`
}

type ConsumeTokenResponse struct {
	UsedCount int `json:"used_count"`
	MaxUses   int `json:"max_uses"`
}

type WaitReadyTokenRequest struct {
	ID string `uri:"id" validate:"required"`
}

type WaitReadyTokenResponse struct {
	Ready bool `json:"ready"`
}

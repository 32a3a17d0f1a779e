package entity

import (
	"database/sql"

	"github.com/questx-lab/prizeengine/pkg/enum"
)

type RouletteMode string

var (
	RouletteByPrize = enum.New(RouletteMode("BY_PRIZE"))
	RouletteByToken = enum.New(RouletteMode("BY_TOKEN"))
)

type RouletteStatus string

var (
	RouletteActive    = enum.New(RouletteStatus("ACTIVE"))
	RouletteFinished  = enum.New(RouletteStatus("FINISHED"))
	RouletteCancelled = enum.New(RouletteStatus("CANCELLED"))
)

// RouletteElement is one candidate of a snapshot. For BY_PRIZE sessions ID is
// a prize id and Weight its remaining token count; for BY_TOKEN sessions ID is
// a token id with weight 1.
type RouletteElement struct {
	ID      string `json:"id"`
	PrizeID string `json:"prize_id"`
	Key     string `json:"key"`
	Label   string `json:"label"`
	Weight  int    `json:"weight"`
}

type RouletteSession struct {
	Base

	BatchID    string `gorm:"index"`
	Mode       RouletteMode
	Status     RouletteStatus
	Snapshot   Array[RouletteElement]
	SpinCount  int
	Version    int
	FinishedAt sql.NullTime
}

func (s *RouletteSession) TotalWeight() int {
	total := 0
	for _, e := range s.Snapshot {
		total += e.Weight
	}

	return total
}

type RouletteSpin struct {
	SnowFlakeBase

	SessionID      string `gorm:"uniqueIndex:idx_roulette_spin_order"`
	Order          int    `gorm:"column:spin_order;uniqueIndex:idx_roulette_spin_order"`
	ChosenID       string
	WeightSnapshot int
}

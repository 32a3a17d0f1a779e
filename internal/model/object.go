package model

import "time"

type Prize struct {
	ID    string `json:"id,omitempty"`
	Key   string `json:"key"`
	Label string `json:"label"`
	Color string `json:"color"`
}

type Batch struct {
	ID              string    `json:"id"`
	Description     string    `json:"description"`
	StaticTargetURL string    `json:"static_target_url,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

type Token struct {
	ID          string     `json:"id"`
	Prize       Prize      `json:"prize"`
	Batch       Batch      `json:"batch"`
	ExpiresAt   time.Time  `json:"expires_at"`
	ValidFrom   *time.Time `json:"valid_from"`
	Disabled    bool       `json:"disabled"`
	RevealedAt  *time.Time `json:"revealed_at"`
	DeliveredAt *time.Time `json:"delivered_at"`
	State       string     `json:"state"`

	Reusable  bool `json:"reusable"`
	UsedCount int  `json:"used_count,omitempty"`
	MaxUses   int  `json:"max_uses,omitempty"`
}

type RouletteElement struct {
	ID        string `json:"id"`
	PrizeID   string `json:"prize_id,omitempty"`
	Key       string `json:"key"`
	Label     string `json:"label"`
	Weight    int    `json:"weight"`
	Remaining int    `json:"remaining"`
}

type RouletteSpin struct {
	Order          int       `json:"order"`
	ChosenID       string    `json:"chosen_id"`
	WeightSnapshot int       `json:"weight_snapshot"`
	CreatedAt      time.Time `json:"created_at"`
}

type RouletteSession struct {
	ID         string            `json:"id"`
	BatchID    string            `json:"batch_id"`
	Mode       string            `json:"mode"`
	Status     string            `json:"status"`
	Elements   []RouletteElement `json:"elements"`
	Spins      []RouletteSpin    `json:"spins"`
	Remaining  int               `json:"remaining"`
	FinishedAt *time.Time        `json:"finished_at"`
}

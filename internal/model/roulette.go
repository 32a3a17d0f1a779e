package model

import "time"

type CreateRouletteRequest struct {
	BatchID string `json:"batch_id" validate:"required"`
	Mode    string `json:"mode" validate:"required"`
}

type CreateRouletteResponse struct {
	SessionID string            `json:"session_id"`
	Elements  []RouletteElement `json:"elements"`
	Mode      string            `json:"mode"`
	MaxSpins  int               `json:"max_spins"`
}

type GetRouletteRequest struct {
	ID string `uri:"id" validate:"required"`
}

type GetRouletteResponse struct {
	RouletteSession
}

type SpinRouletteRequest struct {
	ID string `uri:"id" validate:"required"`
}

type SpinRouletteResponse struct {
	Chosen    RouletteElement `json:"chosen"`
	Order     int             `json:"order"`
	Finished  bool            `json:"finished"`
	Remaining int             `json:"remaining"`
}

type CancelRouletteRequest struct {
	ID string `uri:"id" validate:"required"`
}

type CancelRouletteResponse struct {
	Status     string     `json:"status"`
	FinishedAt *time.Time `json:"finished_at"`
}

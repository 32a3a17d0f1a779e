package model

type ReconcileRequest struct {
	Fix bool `json:"fix"`
}

type BatchReport struct {
	BatchID       string `json:"batch_id"`
	Total         int64  `json:"total"`
	Enabled       int64  `json:"enabled"`
	Disabled      int64  `json:"disabled"`
	PendingEnable int64  `json:"pending_enable"`
	Expired       int64  `json:"expired"`
	Revealed      int64  `json:"revealed"`
	Delivered     int64  `json:"delivered"`
	Redeemed      int64  `json:"redeemed"`
}

type PrizeReport struct {
	PrizeID      string `json:"prize_id"`
	Key          string `json:"key"`
	Stock        int    `json:"stock"`
	EmittedTotal int    `json:"emitted_total"`
	LiveTokens   int64  `json:"live_tokens"`

	// Drift is EmittedTotal minus LiveTokens. Purged tokens make it positive,
	// a negative drift is an anomaly.
	Drift   int64 `json:"drift"`
	Anomaly bool  `json:"anomaly"`
}

type ReconcileResponse struct {
	Batches       []BatchReport `json:"batches"`
	Prizes        []PrizeReport `json:"prizes"`
	PendingEnable int64         `json:"pending_enable"`
	Fixed         bool          `json:"fixed"`
	Enabled       int64         `json:"enabled"`
}

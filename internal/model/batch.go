package model

type Allocation struct {
	PrizeRef string `json:"prize_ref" validate:"required"`
	Count    int    `json:"count" validate:"gt=0"`
}

type GenerateBatchRequest struct {
	Allocations     []Allocation `json:"allocations" validate:"required,min=1,dive"`
	Description     string       `json:"description"`
	FunctionalDate  string       `json:"functional_date"`
	ExpirationDays  int          `json:"expiration_days" validate:"gte=0"`
	IsReusable      bool         `json:"is_reusable"`
	MaxUses         int          `json:"max_uses" validate:"gte=0"`
	IsStatic        bool         `json:"is_static"`
	StaticTargetURL string       `json:"static_target_url"`

	// WindowMode is one of none, singleDay and singleHour. TargetDay defaults
	// to FunctionalDate, then to today.
	WindowMode    string `json:"window_mode"`
	TargetDay     string `json:"target_day"`
	Hour          int    `json:"hour" validate:"gte=0,lte=23"`
	DurationHours int    `json:"duration_hours" validate:"gte=0,lte=24"`
}

type PrizeOutcome struct {
	PrizeID   string `json:"prize_id,omitempty"`
	Key       string `json:"key,omitempty"`
	Label     string `json:"label,omitempty"`
	PrizeRef  string `json:"prize_ref"`
	Requested int    `json:"requested"`
	Issued    int    `json:"issued"`
	Status    string `json:"status"`
}

type IssuedToken struct {
	ID               string `json:"id"`
	PrizeID          string `json:"prize_id"`
	Signature        string `json:"signature"`
	SignatureVersion int    `json:"signature_version"`
}

type GenerateBatchResponse struct {
	BatchID     string         `json:"batch_id"`
	TotalTokens int            `json:"total_tokens"`
	Prizes      []PrizeOutcome `json:"prizes"`
	Tokens      []IssuedToken  `json:"tokens"`
}

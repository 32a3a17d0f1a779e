package model

type EnableScheduledRequest struct {
	Day string `json:"day" validate:"required,datetime=2006-01-02"`
}

type EnableScheduledResponse struct {
	Tokens         int64 `json:"tokens"`
	ReusableTokens int64 `json:"reusable_tokens"`
}

type EnableHourlyRequest struct{}

type EnableHourlyResponse struct {
	Tokens         int64 `json:"tokens"`
	ReusableTokens int64 `json:"reusable_tokens"`
}

type DeleteScheduledRequest struct {
	Day string `json:"day" validate:"required,datetime=2006-01-02"`
}

type DeleteScheduledResponse struct {
	Tokens         int64 `json:"tokens"`
	ReusableTokens int64 `json:"reusable_tokens"`
	Batches        int64 `json:"batches"`
}

type SetRedemptionRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

type SetRedemptionResponse struct {
	Enabled bool `json:"enabled"`
}

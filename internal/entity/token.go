package entity

import (
	"database/sql"
	"time"

	"github.com/questx-lab/prizeengine/pkg/enum"
)

type TokenState string

var (
	TokenNew               = enum.New(TokenState("NEW"))
	TokenScheduledDisabled = enum.New(TokenState("SCHEDULED_DISABLED"))
	TokenEnabled           = enum.New(TokenState("ENABLED"))
	TokenRevealed          = enum.New(TokenState("REVEALED"))
	TokenDelivered         = enum.New(TokenState("DELIVERED"))
	TokenRedeemed          = enum.New(TokenState("REDEEMED"))
	TokenExpired           = enum.New(TokenState("EXPIRED"))
)

// TokenCore holds the columns shared by single-use and reusable tokens. The
// scheduler only touches these columns.
type TokenCore struct {
	PrizeID string `gorm:"index"`
	BatchID string `gorm:"index"`

	Signature        string
	SignatureVersion int

	ValidFrom *time.Time
	StartTime *time.Time
	EndTime   *time.Time
	ExpiresAt time.Time `gorm:"index"`
	Disabled  bool      `gorm:"index"`
}

type Token struct {
	RecordBase
	TokenCore

	RevealedAt      *time.Time
	AssignedPrizeID sql.NullString
	DeliveredAt     *time.Time
	RedeemedAt      *time.Time
}

// State derives the lifecycle state at now. Expiry wins over every other
// field.
func (t *Token) State(now time.Time) TokenState {
	switch {
	case t.ID == "":
		return TokenNew
	case !t.ExpiresAt.After(now):
		return TokenExpired
	case t.RedeemedAt != nil:
		return TokenRedeemed
	case t.DeliveredAt != nil:
		return TokenDelivered
	case t.RevealedAt != nil:
		return TokenRevealed
	case t.Disabled:
		return TokenScheduledDisabled
	default:
		return TokenEnabled
	}
}

// AwardedPrizeID is the prize shown on reveal, or the issued prize if the
// token was never revealed.
func (t *Token) AwardedPrizeID() string {
	if t.AssignedPrizeID.Valid {
		return t.AssignedPrizeID.String
	}

	return t.PrizeID
}

type ReusableToken struct {
	RecordBase
	TokenCore

	MaxUses    int
	UsedCount  int
	LastUsedAt *time.Time
}

// State derives the lifecycle state of a reusable token at now.
func (t *ReusableToken) State(now time.Time) TokenState {
	switch {
	case t.ID == "":
		return TokenNew
	case !t.ExpiresAt.After(now):
		return TokenExpired
	case t.Disabled:
		return TokenScheduledDisabled
	default:
		return TokenEnabled
	}
}

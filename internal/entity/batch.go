package entity

import (
	"database/sql"

	"github.com/questx-lab/prizeengine/pkg/enum"
)

type WindowMode string

var (
	WindowNone       = enum.New(WindowMode("none"))
	WindowSingleDay  = enum.New(WindowMode("singleDay"))
	WindowSingleHour = enum.New(WindowMode("singleHour"))
)

type Batch struct {
	RecordBase

	Description     string
	FunctionalDate  sql.NullTime
	IsReusable      bool
	IsStatic        bool
	StaticTargetURL sql.NullString
	WindowMode      WindowMode
}

// BatchStats is the per batch aggregate computed by reconciliation.
type BatchStats struct {
	BatchID   string
	Total     int64
	Enabled   int64
	Disabled  int64
	Expired   int64
	Revealed  int64
	Delivered int64
	Redeemed  int64

	// PendingEnable counts disabled tokens whose window is already open.
	PendingEnable int64
}

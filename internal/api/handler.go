package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"fleet-timesheet-backend/internal/clock"
	"fleet-timesheet-backend/internal/mw"
	"fleet-timesheet-backend/internal/operators"
	"fleet-timesheet-backend/internal/report"
	"fleet-timesheet-backend/internal/shift"
	"fleet-timesheet-backend/internal/store"
)

// Deps are the services the handlers call into. DB and WebPush are optional:
// without DB the subscription endpoints answer 503. A nil Tokens gets a
// fresh set with a 12 hour idle lifetime.
type Deps struct {
	Store     *store.Store
	Operators *operators.Service
	Shifts    *shift.Service
	Reports   *report.Builder
	Clock     clock.Clock
	DB        *gorm.DB
	WebPush   *webpush.Options
	Tokens    *mw.Tokens
	Log       *zap.Logger
}

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store     *store.Store
	operators *operators.Service
	shifts    *shift.Service
	reports   *report.Builder
	clock     clock.Clock
	db        *gorm.DB
	webpush   *webpush.Options
	tokens    *mw.Tokens
	log       *zap.Logger
}

// NewHandler creates a new API handler.
func NewHandler(d Deps) *Handler {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	clk := d.Clock
	if clk == nil {
		clk = clock.Real{}
	}
	tokens := d.Tokens
	if tokens == nil {
		tokens = mw.NewTokens(12 * time.Hour)
	}
	return &Handler{
		store:     d.Store,
		operators: d.Operators,
		shifts:    d.Shifts,
		reports:   d.Reports,
		clock:     clk,
		db:        d.DB,
		webpush:   d.WebPush,
		tokens:    tokens,
		log:       log,
	}
}

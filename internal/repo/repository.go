package repo

import (
	"context"
	"time"

	"github.com/hamed0406/staffbot/internal/domain"
)

// StateStore is the live shift and report state. It is authoritative for
// status and counts; implementations never fail.
type StateStore interface {
	StartShift(phone string, at time.Time) domain.ShiftRecord
	StopShift(phone string, at time.Time) domain.ShiftRecord
	Shift(phone string) (domain.ShiftRecord, bool)
	AppendReport(phone, text string, at time.Time) domain.Report
	CountOnShift() int
	ReportCount() int
}

// Journal is an optional durable copy of shift events and reports.
type Journal interface {
	RecordShift(ctx context.Context, rec domain.ShiftRecord, at time.Time) error
	RecordReport(ctx context.Context, r domain.Report) error
}

// NopJournal is used when no database is configured.
type NopJournal struct{}

func (NopJournal) RecordShift(context.Context, domain.ShiftRecord, time.Time) error { return nil }
func (NopJournal) RecordReport(context.Context, domain.Report) error                { return nil }

package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"pocketmoney/internal/allowance"
	"pocketmoney/internal/cache"
	"pocketmoney/internal/core"
	"pocketmoney/internal/ledger"
	"pocketmoney/internal/log"
	"pocketmoney/internal/store"
)

// Summary is a kid's money overview for one month.
type Summary struct {
	KidID string `json:"kidId"`
	Month string `json:"month"`
	allowance.Projection
	Warnings []core.Warning `json:"warnings"`

	// Degraded is set when store data could not be fetched and empty
	// collections were used instead. LastGood then carries the most recent
	// complete projection for the same kid and month, if one is cached.
	Degraded   bool                  `json:"degraded"`
	LastGood   *allowance.Projection `json:"lastGood,omitempty"`
	LastGoodAt *time.Time            `json:"lastGoodAt,omitempty"`
}

// Balance is the balance at the end of a date plus that day's movements.
type Balance struct {
	KidID    string             `json:"kidId"`
	Date     core.Date          `json:"date"`
	Balance  decimal.Decimal    `json:"balance"`
	MoneyIn  decimal.Decimal    `json:"moneyIn"`
	MoneyOut decimal.Decimal    `json:"moneyOut"`
	Net      decimal.Decimal    `json:"net"`
	Entries  []core.LedgerEntry `json:"entries"`
	Warnings []core.Warning     `json:"warnings"`
}

// SummaryService assembles ledger and chore data into projections.
type SummaryService struct {
	ledger    store.LedgerReader
	overviews store.OverviewReader
	lastGood  *cache.LRUCache[allowance.Projection]
}

func NewSummaryService(ledger store.LedgerReader, overviews store.OverviewReader, lastGood *cache.LRUCache[allowance.Projection]) *SummaryService {
	return &SummaryService{
		ledger:    ledger,
		overviews: overviews,
		lastGood:  lastGood,
	}
}

// Summary projects a kid's balance for month as seen on today. The cutoff is
// today for the current month and the month end for past months; future
// months fail with *core.InvalidRangeError.
//
// Fetch failures do not fail the call: the missing data is treated as empty
// and the summary is marked Degraded.
func (s *SummaryService) Summary(ctx context.Context, kidID string, month core.Month, today core.Date) (Summary, error) {
	if kidID == "" {
		return Summary{}, core.ErrEmptyKid
	}
	cutoff, err := cutoffFor(month, today)
	if err != nil {
		return Summary{}, err
	}

	sum := Summary{KidID: kidID, Month: month.String(), Warnings: []core.Warning{}}

	var (
		records     []core.LedgerRecord
		overview    core.MonthOverview
		ledgerErr   error
		overviewErr error
	)
	var g errgroup.Group
	g.Go(func() error {
		records, ledgerErr = s.ledger.FetchLedger(ctx, kidID, &core.DateRange{To: month.End()})
		return nil
	})
	g.Go(func() error {
		overview, overviewErr = s.overviews.FetchMonthOverview(ctx, kidID, month)
		return nil
	})
	_ = g.Wait()

	if ledgerErr != nil {
		s.degrade(ctx, &sum, &core.DataFetchError{Source: "ledger", KidID: kidID, Err: ledgerErr})
		records = nil
	}
	if overviewErr != nil {
		s.degrade(ctx, &sum, &core.DataFetchError{Source: "overview", KidID: kidID, Err: overviewErr})
		overview = core.MonthOverview{Month: month}
	}

	idx := ledger.New(records)
	sum.Warnings = append(sum.Warnings, ledgerWarnings(idx)...)
	days, bad := allowance.IngestOverviews(overview.Days)
	if w, ok := core.MalformedDateWarning("day overview", bad); ok {
		sum.Warnings = append(sum.Warnings, w)
	}
	if w, ok := core.MalformedDateWarning("chore entry", overview.Quarantined); ok {
		sum.Warnings = append(sum.Warnings, w)
	}
	if len(idx.Quarantined())+len(idx.Unreadable())+len(bad)+len(overview.Quarantined) > 0 {
		slog.WarnContext(ctx, "Excluded malformed records",
			log.FieldKidID, kidID,
			"month", sum.Month,
			"ledger", len(idx.Quarantined()),
			"ledger_unreadable", len(idx.Unreadable()),
			"overview", len(bad),
			"chore_entries", len(overview.Quarantined))
	}

	proj, err := allowance.Project(month.Start(), month.End(), cutoff, idx, days, overview.Rule)
	if err != nil {
		return Summary{}, err
	}
	sum.Projection = proj

	if overview.Rule != nil && !overview.DailySlice.IsZero() && !overview.DailySlice.Equal(proj.DailySlice) {
		sum.Warnings = append(sum.Warnings, core.Warning{
			Code: core.WarnSliceMismatch,
			Message: fmt.Sprintf("store daily slice %s differs from computed %s",
				core.FormatAmount(overview.DailySlice), core.FormatAmount(proj.DailySlice)),
		})
	}

	key := summaryKey(kidID, month)
	if sum.Degraded {
		if s.lastGood != nil {
			if p, at, ok := s.lastGood.GetWithTime(key); ok {
				sum.LastGood = &p
				sum.LastGoodAt = &at
			}
		}
	} else if s.lastGood != nil {
		s.lastGood.Set(key, proj)
	}

	slog.DebugContext(ctx, "Computed summary",
		log.FieldKidID, kidID,
		"month", sum.Month,
		"cutoff", cutoff,
		"current", proj.CurrentTotal,
		"projected", proj.ProjectedTotal,
		"degraded", sum.Degraded)
	return sum, nil
}

func (s *SummaryService) degrade(ctx context.Context, sum *Summary, err *core.DataFetchError) {
	slog.WarnContext(ctx, "Store fetch failed, continuing with empty data",
		"source", err.Source,
		log.FieldKidID, err.KidID,
		log.FieldError, err.Err)
	sum.Degraded = true
	sum.Warnings = append(sum.Warnings, core.FetchWarning(err))
}

// BalanceOn returns the balance at the end of date and that day's entries.
// Unlike Summary it fails when the ledger cannot be fetched.
func (s *SummaryService) BalanceOn(ctx context.Context, kidID string, date core.Date) (Balance, error) {
	if kidID == "" {
		return Balance{}, core.ErrEmptyKid
	}
	if date.IsZero() {
		return Balance{}, core.ErrInvalidDate
	}
	records, err := s.ledger.FetchLedger(ctx, kidID, &core.DateRange{To: date})
	if err != nil {
		return Balance{}, &core.DataFetchError{Source: "ledger", KidID: kidID, Err: err}
	}

	idx := ledger.New(records)
	totals := idx.TotalsOn(date)
	b := Balance{
		KidID:    kidID,
		Date:     date,
		Balance:  idx.BalanceAsOf(date),
		MoneyIn:  totals.MoneyIn,
		MoneyOut: totals.MoneyOut,
		Net:      totals.Net,
		Entries:  idx.EntriesOn(date),
		Warnings: []core.Warning{},
	}
	b.Warnings = append(b.Warnings, ledgerWarnings(idx)...)
	return b, nil
}

// ledgerWarnings reports ledger records idx had to exclude.
func ledgerWarnings(idx *ledger.Index) []core.Warning {
	var out []core.Warning
	if w, ok := core.MalformedDateWarning("ledger entry", idx.Quarantined()); ok {
		out = append(out, w)
	}
	if w, ok := core.UnreadableWarning("ledger entry", idx.Unreadable()); ok {
		out = append(out, w)
	}
	return out
}

// cutoffFor picks the last actual date of a month summary requested on today.
func cutoffFor(m core.Month, today core.Date) (core.Date, error) {
	switch {
	case today.IsZero():
		return core.Date{}, &core.InvalidRangeError{Start: m.Start(), End: m.End(), Reason: "missing today"}
	case m.Contains(today):
		return today, nil
	case m.End().Before(today):
		return m.End(), nil
	default:
		return core.Date{}, &core.InvalidRangeError{Start: m.Start(), End: m.End(), Cutoff: today, Reason: "month has not started"}
	}
}

func summaryKey(kidID string, m core.Month) string {
	return kidID + "|" + m.String()
}


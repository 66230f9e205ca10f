// Package analytics turns the raw transaction history into summaries,
// trends and exports. All aggregation happens in Go on decimal amounts;
// the database only filters by date range.
package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"budgetd/internal/cache"
	"budgetd/internal/core"
	"budgetd/internal/log"
)

// Bucket granularities for Trend.
const (
	BucketDay   = "day"
	BucketWeek  = "week"
	BucketMonth = "month"
)

// Uncategorized is the label used for transactions without a category.
const Uncategorized = "uncategorized"

// Store is the persistence surface the aggregator needs.
type Store interface {
	TransactionsInRange(ctx context.Context, userID int64, start, end time.Time) ([]core.Transaction, error)
}

// Summary is an income and expense breakdown over a date range.
type Summary struct {
	TotalIncome  decimal.Decimal
	TotalExpense decimal.Decimal
	Categories   []CategoryLine
}

// CategoryLine is one category's subtotals within a summary.
type CategoryLine struct {
	Category string
	Income   decimal.Decimal
	Expense  decimal.Decimal
}

// TrendPoint is one bucket of a trend series.
type TrendPoint struct {
	BucketStart time.Time
	Income      decimal.Decimal
	Expense     decimal.Decimal
}

// CategoryTotal is one category's expense total.
type CategoryTotal struct {
	Category string
	Total    decimal.Decimal
}

type Aggregator struct {
	store     Store
	summaries *cache.LRUCache[*Summary]
	logger    *log.Logger
}

func NewAggregator(store Store, logger *log.Logger) *Aggregator {
	return &Aggregator{
		store:  store,
		logger: logger.WithComponent(log.ComponentAnalytics),
	}
}

// WithSummaryCache caches Summarize results until a write for the same
// user invalidates them.
func (a *Aggregator) WithSummaryCache(c *cache.LRUCache[*Summary]) *Aggregator {
	a.summaries = c
	return a
}

// InvalidateUser drops all cached summaries for one user. Wired as a
// ledger post-commit hook so reads never serve stale totals.
func (a *Aggregator) InvalidateUser(ctx context.Context, t core.Transaction) {
	if a.summaries == nil {
		return
	}
	a.summaries.DeletePrefix(summaryKeyPrefix(t.UserID))
}

// Summarize totals income and expense over the range and breaks both down
// per category, ordered by category name. Range bounds are calendar dates,
// both inclusive.
func (a *Aggregator) Summarize(ctx context.Context, userID int64, start, end time.Time) (*Summary, error) {
	key := summaryKey(userID, start, end)
	if a.summaries != nil {
		if cached, ok := a.summaries.Get(key); ok {
			return cached, nil
		}
	}

	txns, err := a.store.TransactionsInRange(ctx, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	summary := &Summary{TotalIncome: decimal.Zero, TotalExpense: decimal.Zero}
	byCategory := make(map[string]*CategoryLine)
	for _, t := range txns {
		name := categoryLabel(t)
		line, ok := byCategory[name]
		if !ok {
			line = &CategoryLine{Category: name, Income: decimal.Zero, Expense: decimal.Zero}
			byCategory[name] = line
		}
		switch t.Type {
		case core.Income:
			summary.TotalIncome = summary.TotalIncome.Add(t.Amount)
			line.Income = line.Income.Add(t.Amount)
		case core.Expense:
			summary.TotalExpense = summary.TotalExpense.Add(t.Amount)
			line.Expense = line.Expense.Add(t.Amount)
		}
	}

	summary.Categories = make([]CategoryLine, 0, len(byCategory))
	for _, line := range byCategory {
		summary.Categories = append(summary.Categories, *line)
	}
	sort.Slice(summary.Categories, func(i, j int) bool {
		return summary.Categories[i].Category < summary.Categories[j].Category
	})

	if a.summaries != nil {
		a.summaries.Set(key, summary)
	}
	return summary, nil
}

func summaryKeyPrefix(userID int64) string {
	return fmt.Sprintf("summary:%d:", userID)
}

func summaryKey(userID int64, start, end time.Time) string {
	return fmt.Sprintf("%s%s:%s", summaryKeyPrefix(userID),
		start.Format("2006-01-02"), end.Format("2006-01-02"))
}

// Trend buckets income and expense by day, week or month. Buckets are
// emitted in chronological order and only for periods that saw activity.
// Week buckets start on Monday.
func (a *Aggregator) Trend(ctx context.Context, userID int64, start, end time.Time, bucket string) ([]TrendPoint, error) {
	switch bucket {
	case BucketDay, BucketWeek, BucketMonth:
	default:
		return nil, core.Invalidf("unknown trend bucket %q", bucket)
	}

	txns, err := a.store.TransactionsInRange(ctx, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	points := make(map[time.Time]*TrendPoint)
	for _, t := range txns {
		key := bucketStart(t.OccurredAt, bucket)
		p, ok := points[key]
		if !ok {
			p = &TrendPoint{BucketStart: key, Income: decimal.Zero, Expense: decimal.Zero}
			points[key] = p
		}
		switch t.Type {
		case core.Income:
			p.Income = p.Income.Add(t.Amount)
		case core.Expense:
			p.Expense = p.Expense.Add(t.Amount)
		}
	}

	series := make([]TrendPoint, 0, len(points))
	for _, p := range points {
		series = append(series, *p)
	}
	sort.Slice(series, func(i, j int) bool {
		return series[i].BucketStart.Before(series[j].BucketStart)
	})
	return series, nil
}

// TopExpenseCategories returns the heaviest expense categories over the
// range, largest first. Ties break alphabetically so the order is stable.
// A non-positive limit falls back to five.
func (a *Aggregator) TopExpenseCategories(ctx context.Context, userID int64, start, end time.Time, limit int) ([]CategoryTotal, error) {
	if limit <= 0 {
		limit = 5
	}
	txns, err := a.store.TransactionsInRange(ctx, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	totals := make(map[string]decimal.Decimal)
	for _, t := range txns {
		if t.Type != core.Expense {
			continue
		}
		name := categoryLabel(t)
		totals[name] = totals[name].Add(t.Amount)
	}

	ranked := make([]CategoryTotal, 0, len(totals))
	for name, total := range totals {
		ranked = append(ranked, CategoryTotal{Category: name, Total: total})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if !ranked[i].Total.Equal(ranked[j].Total) {
			return ranked[i].Total.GreaterThan(ranked[j].Total)
		}
		return ranked[i].Category < ranked[j].Category
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

func categoryLabel(t core.Transaction) string {
	if t.CategoryID == nil || t.CategoryName == "" {
		return Uncategorized
	}
	return t.CategoryName
}

func bucketStart(t time.Time, bucket string) time.Time {
	d := core.DateOf(t)
	switch bucket {
	case BucketWeek:
		// time.Weekday counts from Sunday; shift so Monday opens the week.
		offset := (int(d.Weekday()) + 6) % 7
		return d.AddDate(0, 0, -offset)
	case BucketMonth:
		return time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return d
	}
}

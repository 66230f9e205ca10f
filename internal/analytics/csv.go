package analytics

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"time"
)

var csvHeader = []string{"date", "type", "category", "amount", "description"}

// ExportCSV renders the owner's transactions in the range as CSV, oldest
// first. Missing categories export as "uncategorized" and empty
// descriptions as "-".
func (a *Aggregator) ExportCSV(ctx context.Context, userID int64, start, end time.Time) ([]byte, error) {
	txns, err := a.store.TransactionsInRange(ctx, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, t := range txns {
		description := t.Description
		if description == "" {
			description = "-"
		}
		record := []string{
			t.OccurredAt.Format("2006-01-02"),
			string(t.Type),
			categoryLabel(t),
			t.Amount.StringFixed(2),
			description,
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("write csv record: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}

	a.logger.InfoContext(ctx, "CSV export generated",
		"rows", len(txns))
	return buf.Bytes(), nil
}

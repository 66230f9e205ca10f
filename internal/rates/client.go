// Package rates refreshes stored currency rates from the National Bank of
// the Republic of Belarus exchange rate API.
package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"budgetd/internal/log"
)

// Store updates stored rates.
type Store interface {
	UpdateCurrencyRate(ctx context.Context, code string, rate decimal.Decimal) error
}

// officialRate mirrors one entry of the NBRB daily rates payload.
type officialRate struct {
	Abbreviation string  `json:"Cur_Abbreviation"`
	Scale        int64   `json:"Cur_Scale"`
	OfficialRate float64 `json:"Cur_OfficialRate"`
}

type Client struct {
	apiURL string
	http   *http.Client
	store  Store
	logger *log.Logger
}

func NewClient(apiURL string, store Store, logger *log.Logger) *Client {
	return &Client{
		apiURL: apiURL,
		http:   &http.Client{Timeout: 15 * time.Second},
		store:  store,
		logger: logger.WithComponent(log.ComponentRates),
	}
}

// Fetch downloads the current rates and returns them keyed by currency
// code, normalized to a single unit. The API quotes some currencies per
// 10 or 100 units; dividing by the scale puts them all on one footing.
func (c *Client) Fetch(ctx context.Context) (map[string]decimal.Decimal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build rates request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch rates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rates API returned status %d", resp.StatusCode)
	}

	var payload []officialRate
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode rates payload: %w", err)
	}

	rates := make(map[string]decimal.Decimal, len(payload))
	for _, r := range payload {
		if r.Scale <= 0 || r.OfficialRate <= 0 {
			continue
		}
		rate := decimal.NewFromFloat(r.OfficialRate).
			Div(decimal.NewFromInt(r.Scale)).
			Round(4)
		rates[r.Abbreviation] = rate
	}
	return rates, nil
}

// Update fetches current rates and stores them for the given codes.
// Currencies the API does not quote, or that are not in the database, are
// reported as errors only after every other code has been tried.
func (c *Client) Update(ctx context.Context, codes []string) error {
	rates, err := c.Fetch(ctx)
	if err != nil {
		return err
	}

	var failed []string
	for _, code := range codes {
		rate, ok := rates[code]
		if !ok {
			c.logger.WarnContext(ctx, "Rate not quoted by API", log.FieldCurrency, code)
			failed = append(failed, code)
			continue
		}
		if err := c.store.UpdateCurrencyRate(ctx, code, rate); err != nil {
			c.logger.ErrorContext(ctx, "Rate update failed",
				log.FieldCurrency, code, log.FieldError, err)
			failed = append(failed, code)
			continue
		}
		c.logger.InfoContext(ctx, "Rate updated",
			log.FieldCurrency, code, "rate", rate.String())
	}
	if len(failed) > 0 {
		return fmt.Errorf("failed to update rates for %v", failed)
	}
	return nil
}

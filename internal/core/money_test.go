package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "plain", in: "12.34", want: "12.34"},
		{name: "comma separator", in: "12,34", want: "12.34"},
		{name: "integer", in: "100", want: "100"},
		{name: "trims whitespace", in: " 5.00 ", want: "5"},
		{name: "zero rejected", in: "0", wantErr: true},
		{name: "negative rejected", in: "-3.50", wantErr: true},
		{name: "three decimals rejected", in: "1.234", wantErr: true},
		{name: "empty rejected", in: "", wantErr: true},
		{name: "garbage rejected", in: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAmount(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseAmount(%q) = %v, want error", tt.in, got)
				}
				if !IsValidation(err) {
					t.Errorf("ParseAmount(%q) error = %v, want ValidationError", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAmount(%q) error: %v", tt.in, err)
			}
			if got.String() != tt.want {
				t.Errorf("ParseAmount(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseBalance(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "zero allowed", in: "0", want: "0"},
		{name: "zero with cents", in: "0.00", want: "0"},
		{name: "positive", in: "250.50", want: "250.5"},
		{name: "comma separator", in: "12,34", want: "12.34"},
		{name: "negative rejected", in: "-1.00", wantErr: true},
		{name: "three decimals rejected", in: "1.234", wantErr: true},
		{name: "empty rejected", in: "", wantErr: true},
		{name: "garbage rejected", in: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseBalance(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseBalance(%q) = %v, want error", tt.in, got)
				}
				if !IsValidation(err) {
					t.Errorf("ParseBalance(%q) error = %v, want ValidationError", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseBalance(%q) error: %v", tt.in, err)
			}
			if got.String() != tt.want {
				t.Errorf("ParseBalance(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestConvert(t *testing.T) {
	byn := Currency{Code: "BYN", RateToBase: decimal.NewFromInt(1)}
	usd := Currency{Code: "USD", RateToBase: decimal.RequireFromString("3.25")}
	eur := Currency{Code: "EUR", RateToBase: decimal.RequireFromString("3.50")}

	t.Run("same currency is untouched", func(t *testing.T) {
		amount := decimal.RequireFromString("99.99")
		got, err := Convert(amount, usd, usd)
		if err != nil {
			t.Fatalf("Convert error: %v", err)
		}
		if !got.Equal(amount) {
			t.Errorf("Convert same currency = %s, want %s", got, amount)
		}
	})

	t.Run("goes through base", func(t *testing.T) {
		// 100 USD -> base: 100/3.25, -> EUR: *3.50 = 107.6923... -> 107.69
		got, err := Convert(decimal.NewFromInt(100), usd, eur)
		if err != nil {
			t.Fatalf("Convert error: %v", err)
		}
		if want := decimal.RequireFromString("107.69"); !got.Equal(want) {
			t.Errorf("Convert(100 USD -> EUR) = %s, want %s", got, want)
		}
	})

	t.Run("to base currency divides only", func(t *testing.T) {
		got, err := Convert(decimal.NewFromInt(65), usd, byn)
		if err != nil {
			t.Fatalf("Convert error: %v", err)
		}
		if want := decimal.RequireFromString("211.25"); !got.Equal(want) {
			t.Errorf("Convert(65 USD -> BYN) = %s, want %s", got, want)
		}
	})

	t.Run("zero rate fails before mutation", func(t *testing.T) {
		broken := Currency{Code: "XXX", RateToBase: decimal.Zero}
		if _, err := Convert(decimal.NewFromInt(10), broken, eur); err != ErrBadRate {
			t.Errorf("Convert with zero rate error = %v, want ErrBadRate", err)
		}
	})
}

func TestSignedAmount(t *testing.T) {
	amount := decimal.RequireFromString("42.50")
	if got := SignedAmount(Income, amount); !got.Equal(amount) {
		t.Errorf("SignedAmount(income) = %s, want %s", got, amount)
	}
	if got := SignedAmount(Expense, amount); !got.Equal(amount.Neg()) {
		t.Errorf("SignedAmount(expense) = %s, want %s", got, amount.Neg())
	}
}

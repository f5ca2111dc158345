package validation

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/api/request"
	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/apperrors"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

// fieldsOf returns the field messages of a validation error, nil on success.
func fieldsOf(t *testing.T, err error) map[string]string {
	t.Helper()
	if err == nil {
		return nil
	}
	var verr *Error
	require.True(t, errors.As(err, &verr), "expected *validation.Error, got %T", err)
	return verr.Fields
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    *time.Time
		wantErr bool
	}{
		{"empty is undated", "", nil, false},
		{"whitespace is undated", "  ", nil, false},
		{"plain date", "2024-03-01", ptr(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)), false},
		{"rfc3339 with offset", "2024-03-01T03:00:00+03:00", ptr(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)), false},
		{"garbage", "01/03/2024", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, apperrors.ErrInvalidDateRange)
				return
			}
			require.NoError(t, err)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.True(t, tt.want.Equal(*got), "got %v", got)
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}

func ptr(t time.Time) *time.Time { return &t }

func TestParseRange(t *testing.T) {
	start, end, err := ParseRange("2024-01-01", "2024-01-11")
	require.NoError(t, err)
	assert.Equal(t, 10*24*time.Hour, end.Sub(start))

	for _, tc := range [][2]string{
		{"2024-01-11", "2024-01-01"},
		{"2024-01-01", "2024-01-01"},
		{"", "2024-01-01"},
		{"2024-01-01", "nope"},
	} {
		_, _, err := ParseRange(tc[0], tc[1])
		assert.ErrorIs(t, err, apperrors.ErrInvalidDateRange, "%v", tc)
	}
}

func TestValidateUUID(t *testing.T) {
	assert.NoError(t, ValidateUUID("3fa85f64-5717-4562-b3fc-2c963f66afa6"))
	assert.ErrorIs(t, ValidateUUID("3fa85f64"), apperrors.ErrInvalidUUID)
}

func TestValidateCreatePortfolio(t *testing.T) {
	assert.NoError(t, ValidateCreatePortfolio(request.CreatePortfolioRequest{Name: "Main"}))

	f := fieldsOf(t, ValidateCreatePortfolio(request.CreatePortfolioRequest{Name: "  "}))
	assert.Equal(t, "name is required", f["name"])

	long := make([]byte, 101)
	for i := range long {
		long[i] = 'a'
	}
	f = fieldsOf(t, ValidateCreatePortfolio(request.CreatePortfolioRequest{Name: string(long)}))
	assert.Contains(t, f["name"], "100 characters")
}

// TestValidateDeposit covers the shared amount, currency, rate and date checks.
func TestValidateDeposit(t *testing.T) {
	tests := []struct {
		name   string
		req    request.DepositRequest
		fields []string
	}{
		{"valid", request.DepositRequest{Amount: dec("100"), Currency: "usd"}, nil},
		{"valid cross-currency", request.DepositRequest{Amount: dec("400"), Currency: "TRY", TradeCurrency: "USD", Rate: decPtr("40")}, nil},
		{"zero amount", request.DepositRequest{Amount: dec("0"), Currency: "USD"}, []string{"amount"}},
		{"negative amount", request.DepositRequest{Amount: dec("-1"), Currency: "USD"}, []string{"amount"}},
		{"missing currency", request.DepositRequest{Amount: dec("1")}, []string{"currency"}},
		{"unknown currencies", request.DepositRequest{Amount: dec("1"), Currency: "EUR", TradeCurrency: "GBP"}, []string{"currency", "tradeCurrency"}},
		{"bad rate", request.DepositRequest{Amount: dec("1"), Currency: "USD", Rate: decPtr("0")}, []string{"rate"}},
		{"bad date", request.DepositRequest{Amount: dec("1"), Currency: "USD", Date: "yesterday"}, []string{"date"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := fieldsOf(t, ValidateDeposit(tt.req))
			assert.Len(t, f, len(tt.fields))
			for _, name := range tt.fields {
				assert.Contains(t, f, name)
			}
		})
	}
}

func TestValidateWithdraw(t *testing.T) {
	assert.NoError(t, ValidateWithdraw(request.WithdrawRequest{Amount: dec("5"), Currency: "TRY"}))
	f := fieldsOf(t, ValidateWithdraw(request.WithdrawRequest{Amount: dec("0"), Currency: "JPY"}))
	assert.Contains(t, f, "amount")
	assert.Contains(t, f, "currency")
}

func TestValidateExchange(t *testing.T) {
	assert.NoError(t, ValidateExchange(request.ExchangeRequest{Direction: "BUY_USD", Amount: dec("300")}))
	assert.NoError(t, ValidateExchange(request.ExchangeRequest{Direction: "sell_usd", Amount: dec("10")}))

	f := fieldsOf(t, ValidateExchange(request.ExchangeRequest{Amount: dec("1")}))
	assert.Equal(t, "direction is required", f["direction"])

	f = fieldsOf(t, ValidateExchange(request.ExchangeRequest{Direction: "sideways", Amount: dec("1")}))
	assert.Contains(t, f["direction"], "sideways")
}

func TestValidateTrade(t *testing.T) {
	tests := []struct {
		name  string
		req   request.TradeRequest
		field string
	}{
		{"by quantity", request.TradeRequest{Symbol: "AAPL", Quantity: decPtr("2")}, ""},
		{"by amount with price", request.TradeRequest{Symbol: "THYAO.IS", Amount: decPtr("1000"), Price: decPtr("250"), Currency: "TRY"}, ""},
		{"no symbol", request.TradeRequest{Quantity: decPtr("1")}, "symbol"},
		{"neither size", request.TradeRequest{Symbol: "AAPL"}, "quantity"},
		{"both sizes", request.TradeRequest{Symbol: "AAPL", Quantity: decPtr("1"), Amount: decPtr("1")}, "quantity"},
		{"zero price", request.TradeRequest{Symbol: "AAPL", Quantity: decPtr("1"), Price: decPtr("0")}, "price"},
		{"bad currency", request.TradeRequest{Symbol: "AAPL", Quantity: decPtr("1"), Currency: "EUR"}, "currency"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := fieldsOf(t, ValidateTrade(tt.req))
			if tt.field == "" {
				assert.Empty(t, f)
				return
			}
			assert.Contains(t, f, tt.field)
		})
	}
}

func TestValidateInterest(t *testing.T) {
	valid := request.InterestInRequest{
		Amount: dec("1000"), Currency: "TRY", AnnualRate: dec("45"),
		StartDate: "2024-01-01", EndDate: "2024-02-01",
	}
	assert.NoError(t, ValidateInterestIn(valid))

	bad := valid
	bad.EndDate = "2023-12-01"
	bad.PaymentInterval = "yearly"
	bad.AnnualRate = dec("-1")
	f := fieldsOf(t, ValidateInterestIn(bad))
	assert.Contains(t, f, "endDate")
	assert.Contains(t, f, "paymentInterval")
	assert.Contains(t, f, "annualRate")

	assert.NoError(t, ValidateInterestOut(request.InterestOutRequest{Principal: dec("1000"), Earned: dec("0"), Currency: "TRY"}))
	f = fieldsOf(t, ValidateInterestOut(request.InterestOutRequest{Principal: dec("0"), Earned: dec("-1"), Currency: "TRY"}))
	assert.Contains(t, f, "principal")
	assert.Contains(t, f, "earned")
}

func TestError_Message(t *testing.T) {
	err := &Error{Fields: map[string]string{"b": "second", "a": "first"}}
	assert.Equal(t, "a: first; b: second", err.Error())
}

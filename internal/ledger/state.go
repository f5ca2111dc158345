package ledger

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/model"
)

// Tolerances used by both replay and validation.
var (
	CurrencyTolerance = decimal.RequireFromString("0.01")
	QuantityTolerance = decimal.RequireFromString("0.0001")
)

// Position is the replayed holding of one symbol.
type Position struct {
	Quantity     decimal.Decimal
	TotalCostUSD decimal.Decimal
}

// AvgCostUSD is the weighted-average cost per unit, zero for an empty position.
func (p Position) AvgCostUSD() decimal.Decimal {
	if p.Quantity.IsZero() {
		return decimal.Zero
	}
	return p.TotalCostUSD.DivRound(p.Quantity, 8)
}

// State is the balance and holdings snapshot produced by replay.
type State struct {
	CashTRY           decimal.Decimal
	CashUSD           decimal.Decimal
	InterestTRY       decimal.Decimal
	InterestUSD       decimal.Decimal
	TotalDepositedTRY decimal.Decimal
	TotalDepositedUSD decimal.Decimal
	Holdings          map[string]Position
}

// NewState returns the zero state.
func NewState() State {
	return State{Holdings: make(map[string]Position)}
}

// StateOf loads a state from a portfolio's cached balances and holdings.
func StateOf(p *model.Portfolio, holdings []model.Holding) State {
	s := NewState()
	s.CashTRY = p.CashTRY
	s.CashUSD = p.CashUSD
	s.InterestTRY = p.InterestTRY
	s.InterestUSD = p.InterestUSD
	s.TotalDepositedTRY = p.TotalDepositedTRY
	s.TotalDepositedUSD = p.TotalDepositedUSD
	for _, h := range holdings {
		s.Holdings[h.Symbol] = Position{Quantity: h.Quantity, TotalCostUSD: h.TotalCostUSD}
	}
	return s
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	c := s
	c.Holdings = make(map[string]Position, len(s.Holdings))
	for k, v := range s.Holdings {
		c.Holdings[k] = v
	}
	return c
}

// Cash returns the cash balance in c.
func (s *State) Cash(c model.Currency) decimal.Decimal {
	if c == model.TRY {
		return s.CashTRY
	}
	return s.CashUSD
}

// Interest returns the interest deposit balance in c.
func (s *State) Interest(c model.Currency) decimal.Decimal {
	if c == model.TRY {
		return s.InterestTRY
	}
	return s.InterestUSD
}

func (s *State) cash(c model.Currency) *decimal.Decimal {
	if c == model.TRY {
		return &s.CashTRY
	}
	return &s.CashUSD
}

func (s *State) interest(c model.Currency) *decimal.Decimal {
	if c == model.TRY {
		return &s.InterestTRY
	}
	return &s.InterestUSD
}

// Symbols returns the held symbols in lexical order.
func (s *State) Symbols() []string {
	out := make([]string, 0, len(s.Holdings))
	for sym := range s.Holdings {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

// ApplyTo copies the balances of s onto the portfolio cache fields.
func (s *State) ApplyTo(p *model.Portfolio) {
	p.CashTRY = s.CashTRY
	p.CashUSD = s.CashUSD
	p.InterestTRY = s.InterestTRY
	p.InterestUSD = s.InterestUSD
	p.TotalDepositedTRY = s.TotalDepositedTRY
	p.TotalDepositedUSD = s.TotalDepositedUSD
}

// HoldingRows converts the positions into holding rows ordered by symbol.
func (s *State) HoldingRows(portfolioID string, now time.Time) []model.Holding {
	rows := make([]model.Holding, 0, len(s.Holdings))
	for _, sym := range s.Symbols() {
		pos := s.Holdings[sym]
		rows = append(rows, model.Holding{
			PortfolioID:  portfolioID,
			Symbol:       sym,
			Quantity:     pos.Quantity,
			TotalCostUSD: pos.TotalCostUSD,
			AvgCostUSD:   pos.AvgCostUSD(),
			UpdatedAt:    now,
		})
	}
	return rows
}

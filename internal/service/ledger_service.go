package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/api/request"
	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/apperrors"
	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/ledger"
	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/model"
	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/provider"
	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/repository"
	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/validation"
)

// LedgerService records ledger transactions. Writes to one portfolio are
// serialized, and every write validates the whole timeline with the new entry
// spliced in before anything is stored.
type LedgerService struct {
	store   *repository.Store
	prices  provider.PriceProvider
	fx      provider.FxProvider
	locks   *portfolioLocks
	timeout time.Duration
	now     func() time.Time
	log     zerolog.Logger
}

// LedgerOption configures a LedgerService.
type LedgerOption func(*LedgerService)

// WithLedgerClock sets the clock used for insertion timestamps.
func WithLedgerClock(now func() time.Time) LedgerOption {
	return func(s *LedgerService) {
		s.now = now
	}
}

// WithLedgerTimeout bounds each price and rate lookup.
func WithLedgerTimeout(d time.Duration) LedgerOption {
	return func(s *LedgerService) {
		s.timeout = d
	}
}

// NewLedgerService creates a LedgerService.
func NewLedgerService(store *repository.Store, prices provider.PriceProvider, fx provider.FxProvider, log zerolog.Logger, opts ...LedgerOption) *LedgerService {
	s := &LedgerService{
		store:   store,
		prices:  prices,
		fx:      fx,
		locks:   newPortfolioLocks(),
		timeout: 10 * time.Second,
		now:     time.Now,
		log:     log.With().Str("component", "ledger").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OperationResult is the stored transaction and the portfolio after it.
type OperationResult struct {
	Transaction    model.Transaction `json:"transaction"`
	Portfolio      model.Portfolio   `json:"portfolio"`
	RateSource     string            `json:"rateSource"`
	PriceSource    string            `json:"priceSource,omitempty"`
	RealizedPnLUSD *decimal.Decimal  `json:"realizedPnlUsd,omitempty"`
}

// Deposit adds external money to the portfolio.
func (s *LedgerService) Deposit(ctx context.Context, owner, portfolioID string, req request.DepositRequest) (*OperationResult, error) {
	if !req.Amount.IsPositive() {
		return nil, apperrors.ErrInvalidAmount
	}
	cur, err := parseCurrency(req.Currency)
	if err != nil {
		return nil, err
	}
	credit := cur
	if req.TradeCurrency != "" {
		if credit, err = parseCurrency(req.TradeCurrency); err != nil {
			return nil, err
		}
	}
	date, err := s.transactionDate(req.Date)
	if err != nil {
		return nil, err
	}
	rate, rateSource, err := s.resolveRate(ctx, req.Rate, date)
	if err != nil {
		return nil, err
	}

	amountTRY, amountUSD := split(req.Amount, cur, rate)
	note := fmt.Sprintf("Deposited %s at rate %s", money(req.Amount, cur), rate.StringFixed(4))
	if credit != cur {
		credited := amountUSD
		if credit == model.TRY {
			credited = amountTRY
		}
		note += fmt.Sprintf(", credited as %s", money(credited, credit))
	}

	return s.record(ctx, owner, portfolioID, rateSource, model.Transaction{
		Type:            model.TxDeposit,
		AmountTRY:       amountTRY,
		AmountUSD:       amountUSD,
		USDTRYRate:      rate,
		TradeCurrency:   credit,
		TransactionDate: date,
		Note:            noteOr(req.Note, note),
	}, nil)
}

// Withdraw takes money out of a cash balance.
func (s *LedgerService) Withdraw(ctx context.Context, owner, portfolioID string, req request.WithdrawRequest) (*OperationResult, error) {
	if !req.Amount.IsPositive() {
		return nil, apperrors.ErrInvalidAmount
	}
	cur, err := parseCurrency(req.Currency)
	if err != nil {
		return nil, err
	}
	date, err := s.transactionDate(req.Date)
	if err != nil {
		return nil, err
	}
	rate, rateSource, err := s.resolveRate(ctx, req.Rate, date)
	if err != nil {
		return nil, err
	}

	amountTRY, amountUSD := split(req.Amount, cur, rate)
	return s.record(ctx, owner, portfolioID, rateSource, model.Transaction{
		Type:            model.TxWithdraw,
		AmountTRY:       amountTRY,
		AmountUSD:       amountUSD,
		USDTRYRate:      rate,
		TradeCurrency:   cur,
		TransactionDate: date,
		Note:            noteOr(req.Note, fmt.Sprintf("Withdrew %s", money(req.Amount, cur))),
	}, nil)
}

// Exchange converts between the TRY and USD cash balances. The amount is in
// the currency being spent.
func (s *LedgerService) Exchange(ctx context.Context, owner, portfolioID string, req request.ExchangeRequest) (*OperationResult, error) {
	dir := model.ExchangeDirection(strings.ToLower(strings.TrimSpace(req.Direction)))
	if dir != model.BuyUSD && dir != model.SellUSD {
		return nil, fmt.Errorf("%w: unknown direction %q", apperrors.ErrInconsistentTransaction, req.Direction)
	}
	if !req.Amount.IsPositive() {
		return nil, apperrors.ErrInvalidAmount
	}
	date, err := s.transactionDate(req.Date)
	if err != nil {
		return nil, err
	}
	rate, rateSource, err := s.resolveRate(ctx, req.Rate, date)
	if err != nil {
		return nil, err
	}

	spend := dir.SpendCurrency()
	amountTRY, amountUSD := split(req.Amount, spend, rate)

	note := fmt.Sprintf("Bought %s with %s at %s", money(amountUSD, model.USD), money(amountTRY, model.TRY), rate.StringFixed(4))
	if dir == model.SellUSD {
		note = fmt.Sprintf("Sold %s for %s at %s", money(amountUSD, model.USD), money(amountTRY, model.TRY), rate.StringFixed(4))
	}

	return s.record(ctx, owner, portfolioID, rateSource, model.Transaction{
		Type:            model.TxExchange,
		AmountTRY:       amountTRY,
		AmountUSD:       amountUSD,
		USDTRYRate:      rate,
		TradeCurrency:   spend,
		Direction:       dir,
		TransactionDate: date,
		Note:            noteOr(req.Note, note),
	}, nil)
}

// Buy purchases a symbol with cash in the trade currency.
func (s *LedgerService) Buy(ctx context.Context, owner, portfolioID string, req request.TradeRequest) (*OperationResult, error) {
	return s.trade(ctx, owner, portfolioID, model.TxBuy, req)
}

// Sell disposes of a holding. The result carries the realized P&L against
// the average cost at the sale's effective date.
func (s *LedgerService) Sell(ctx context.Context, owner, portfolioID string, req request.TradeRequest) (*OperationResult, error) {
	return s.trade(ctx, owner, portfolioID, model.TxSell, req)
}

func (s *LedgerService) trade(ctx context.Context, owner, portfolioID string, kind model.TransactionType, req request.TradeRequest) (*OperationResult, error) {
	symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))
	if symbol == "" {
		return nil, apperrors.ErrInvalidSymbol
	}
	if (req.Quantity == nil) == (req.Amount == nil) {
		return nil, fmt.Errorf("%w: specify either quantity or amount", apperrors.ErrInvalidAmount)
	}
	for _, v := range []*decimal.Decimal{req.Quantity, req.Amount, req.Price} {
		if v != nil && !v.IsPositive() {
			return nil, apperrors.ErrInvalidAmount
		}
	}

	cur := model.QuoteCurrency(symbol)
	if req.Currency != "" {
		var err error
		if cur, err = parseCurrency(req.Currency); err != nil {
			return nil, err
		}
	}
	date, err := s.transactionDate(req.Date)
	if err != nil {
		return nil, err
	}
	rate, rateSource, err := s.resolveRate(ctx, req.Rate, date)
	if err != nil {
		return nil, err
	}
	price, priceSource, err := s.resolvePrice(ctx, symbol, req.Price, cur, rate, date)
	if err != nil {
		return nil, err
	}

	var qty, total decimal.Decimal
	if req.Quantity != nil {
		qty = req.Quantity.Round(quantityPlaces)
		total = price.Mul(qty)
	} else {
		total = *req.Amount
		qty = total.DivRound(price, quantityPlaces)
	}
	if !qty.IsPositive() {
		return nil, apperrors.ErrInvalidAmount
	}
	amountTRY, amountUSD := split(total, cur, rate)

	verb := "Bought"
	if kind == model.TxSell {
		verb = "Sold"
	}
	tx := model.Transaction{
		Type:            kind,
		Symbol:          symbol,
		Quantity:        qty,
		Price:           price,
		AmountTRY:       amountTRY,
		AmountUSD:       amountUSD,
		USDTRYRate:      rate,
		TradeCurrency:   cur,
		TransactionDate: date,
		Note:            noteOr(req.Note, fmt.Sprintf("%s %s %s at %s", verb, qty.String(), symbol, money(price, cur))),
	}

	var realized *decimal.Decimal
	var prepare func([]model.Transaction, *model.Transaction) error
	if kind == model.TxSell {
		prepare = func(existing []model.Transaction, tx *model.Transaction) error {
			pos, ok := ledger.ReplayBefore(existing, tx).Holdings[symbol]
			if !ok {
				return nil
			}
			unitUSD := tx.AmountUSD.DivRound(tx.Quantity, quantityPlaces)
			pnl := unitUSD.Sub(pos.AvgCostUSD()).Mul(tx.Quantity).Round(usdPlaces)
			realized = &pnl
			return nil
		}
	}

	res, err := s.record(ctx, owner, portfolioID, rateSource, tx, prepare)
	if err != nil {
		return nil, err
	}
	res.PriceSource = priceSource
	res.RealizedPnLUSD = realized
	return res, nil
}

// InterestIn moves cash into a simple-interest deposit dated at its start.
func (s *LedgerService) InterestIn(ctx context.Context, owner, portfolioID string, req request.InterestInRequest) (*OperationResult, error) {
	if !req.Amount.IsPositive() || req.AnnualRate.IsNegative() {
		return nil, apperrors.ErrInvalidAmount
	}
	cur, err := parseCurrency(req.Currency)
	if err != nil {
		return nil, err
	}
	start, end, err := validation.ParseRange(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	if start.After(s.now()) {
		return nil, fmt.Errorf("%w: start date %s is in the future", apperrors.ErrInvalidDateRange, start.Format(time.DateOnly))
	}
	interval := req.PaymentInterval
	if interval == "" {
		interval = model.PayAtEnd
	}
	if !validation.ValidPaymentInterval[interval] {
		return nil, &validation.Error{Fields: map[string]string{
			"paymentInterval": fmt.Sprintf("invalid paymentInterval: %s", interval),
		}}
	}
	rate, rateSource, err := s.resolveRate(ctx, req.Rate, &start)
	if err != nil {
		return nil, err
	}

	days := int(end.Sub(start).Hours() / 24)
	earned := SimpleInterest(req.Amount, req.AnnualRate, days).Round(places(cur))
	terms := &model.InterestTerms{
		AnnualRate:      req.AnnualRate,
		Days:            days,
		StartDate:       &start,
		EndDate:         &end,
		PaymentInterval: interval,
	}
	if cur == model.TRY {
		terms.EarnedTRY = earned
	} else {
		terms.EarnedUSD = earned
	}

	amountTRY, amountUSD := split(req.Amount, cur, rate)
	note := fmt.Sprintf("%s interest deposit: %s at %s%% from %s to %s (%d days, %s payments), earned %s",
		cur, money(req.Amount, cur), req.AnnualRate.String(),
		start.Format("2006-01-02"), end.Format("2006-01-02"), days, interval, money(earned, cur))

	return s.record(ctx, owner, portfolioID, rateSource, model.Transaction{
		Type:            model.TxInterestIn,
		AmountTRY:       amountTRY,
		AmountUSD:       amountUSD,
		USDTRYRate:      rate,
		TradeCurrency:   cur,
		Interest:        terms,
		TransactionDate: &start,
		Note:            noteOr(req.Note, note),
	}, nil)
}

// InterestOut returns principal plus earned interest from a deposit to cash.
func (s *LedgerService) InterestOut(ctx context.Context, owner, portfolioID string, req request.InterestOutRequest) (*OperationResult, error) {
	if !req.Principal.IsPositive() || req.Earned.IsNegative() {
		return nil, apperrors.ErrInvalidAmount
	}
	cur, err := parseCurrency(req.Currency)
	if err != nil {
		return nil, err
	}
	date, err := s.transactionDate(req.Date)
	if err != nil {
		return nil, err
	}
	rate, rateSource, err := s.resolveRate(ctx, req.Rate, date)
	if err != nil {
		return nil, err
	}

	earned := req.Earned.Round(places(cur))
	terms := &model.InterestTerms{}
	if cur == model.TRY {
		terms.EarnedTRY = earned
	} else {
		terms.EarnedUSD = earned
	}

	amountTRY, amountUSD := split(req.Principal.Add(earned), cur, rate)
	note := fmt.Sprintf("%s interest withdrawal: %s + %s interest", cur, money(req.Principal, cur), money(earned, cur))

	return s.record(ctx, owner, portfolioID, rateSource, model.Transaction{
		Type:            model.TxInterestOut,
		AmountTRY:       amountTRY,
		AmountUSD:       amountUSD,
		USDTRYRate:      rate,
		TradeCurrency:   cur,
		Interest:        terms,
		TransactionDate: date,
		Note:            noteOr(req.Note, note),
	}, nil)
}

// DeleteTransaction removes a transaction when the rest of the timeline stays
// valid without it, then rebuilds balances and holdings by full replay.
func (s *LedgerService) DeleteTransaction(ctx context.Context, owner, portfolioID, txID string) (*model.Portfolio, error) {
	unlock := s.locks.lock(portfolioID)
	defer unlock()

	var out *model.Portfolio
	err := s.store.InTx(ctx, func(st *repository.Store) error {
		p, err := st.LoadPortfolio(ctx, owner, portfolioID)
		if err != nil {
			return err
		}
		existing, err := st.ListTransactions(ctx, p.ID)
		if err != nil {
			return err
		}
		if err := ledger.ValidateWithout(existing, txID); err != nil {
			return err
		}
		if err := st.DeleteTransaction(ctx, p.ID, txID); err != nil {
			return err
		}

		rest := make([]model.Transaction, 0, len(existing)-1)
		for _, tx := range existing {
			if tx.ID != txID {
				rest = append(rest, tx)
			}
		}
		if err := s.persist(ctx, st, p, ledger.ReplayAll(rest)); err != nil {
			return err
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("portfolio_id", portfolioID).
		Str("transaction_id", txID).
		Msg("transaction deleted, balances rebuilt")
	return out, nil
}

// Rebuild recomputes the cached balances and holdings from the full log.
func (s *LedgerService) Rebuild(ctx context.Context, owner, portfolioID string) (*model.Portfolio, error) {
	unlock := s.locks.lock(portfolioID)
	defer unlock()

	var out *model.Portfolio
	err := s.store.InTx(ctx, func(st *repository.Store) error {
		p, err := st.LoadPortfolio(ctx, owner, portfolioID)
		if err != nil {
			return err
		}
		txs, err := st.ListTransactions(ctx, p.ID)
		if err != nil {
			return err
		}
		if err := s.persist(ctx, st, p, ledger.ReplayAll(txs)); err != nil {
			return err
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// record validates tx against the log and stores it with the updated
// balances in one database transaction. prepare, when set, runs under the
// portfolio lock with the current log before validation.
func (s *LedgerService) record(ctx context.Context, owner, portfolioID, rateSource string, tx model.Transaction, prepare func([]model.Transaction, *model.Transaction) error) (*OperationResult, error) {
	unlock := s.locks.lock(portfolioID)
	defer unlock()

	var result OperationResult
	err := s.store.InTx(ctx, func(st *repository.Store) error {
		p, err := st.LoadPortfolio(ctx, owner, portfolioID)
		if err != nil {
			return err
		}
		existing, err := st.ListTransactions(ctx, p.ID)
		if err != nil {
			return err
		}

		tx.ID = uuid.New().String()
		tx.PortfolioID = p.ID
		tx.CreatedAt = s.now().UTC()
		if latest := latestCreatedAt(existing); !tx.CreatedAt.After(latest) {
			// insertion order must stay strictly increasing
			tx.CreatedAt = latest.Add(time.Microsecond)
		}

		if prepare != nil {
			if err := prepare(existing, &tx); err != nil {
				return err
			}
		}

		if err := ledger.ValidateInsert(existing, tx); err != nil {
			return err
		}
		if err := st.AppendTransaction(ctx, &tx); err != nil {
			return err
		}

		var state ledger.State
		if ledger.SortsLast(existing, &tx) {
			holdings, err := st.ListHoldings(ctx, p.ID)
			if err != nil {
				return err
			}
			state = ledger.StateOf(p, holdings)
			state.Apply(&tx)
		} else {
			state = ledger.ReplayAll(append(existing, tx))
		}

		if err := s.persist(ctx, st, p, state); err != nil {
			return err
		}
		result = OperationResult{Transaction: tx, Portfolio: *p, RateSource: rateSource}
		return nil
	})
	if err != nil {
		var ib *apperrors.InsufficientBalanceError
		if errors.As(err, &ib) {
			s.log.Info().Err(err).Str("portfolio_id", portfolioID).Str("type", string(tx.Type)).Msg("transaction rejected")
		}
		return nil, err
	}

	s.log.Info().
		Str("portfolio_id", portfolioID).
		Str("transaction_id", result.Transaction.ID).
		Str("type", string(tx.Type)).
		Msg("transaction recorded")
	return &result, nil
}

func (s *LedgerService) persist(ctx context.Context, st *repository.Store, p *model.Portfolio, state ledger.State) error {
	now := s.now().UTC()
	state.ApplyTo(p)
	p.UpdatedAt = now
	if err := st.SavePortfolio(ctx, p); err != nil {
		return err
	}
	return st.ReplaceHoldings(ctx, p.ID, state.HoldingRows(p.ID, now))
}

// resolveRate returns the USD/TRY rate for a write: an explicit rate, the
// close of a past date, or the current rate. It fails with
// apperrors.ErrProviderDegraded only when no rate is available at all.
func (s *LedgerService) resolveRate(ctx context.Context, explicit *decimal.Decimal, date *time.Time) (decimal.Decimal, string, error) {
	if explicit != nil {
		if !explicit.IsPositive() {
			return decimal.Zero, "", apperrors.ErrInvalidAmount
		}
		return *explicit, model.SourceManual, nil
	}

	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if date != nil && date.Before(s.today()) {
		r, err := s.fx.HistoricalUSDTRY(cctx, *date)
		if err == nil && r.Value.IsPositive() {
			return r.Value, r.Source, nil
		}
		s.log.Warn().Err(err).Time("date", *date).Msg("historical usd/try rate unavailable, using current rate")
	}

	r, err := s.fx.CurrentUSDTRY(cctx)
	if err != nil {
		if errors.Is(err, apperrors.ErrProviderDegraded) {
			return decimal.Zero, "", fmt.Errorf("failed to get usd/try rate: %w", err)
		}
		return decimal.Zero, "", fmt.Errorf("%w: usd/try rate: %v", apperrors.ErrProviderDegraded, err)
	}
	if !r.Value.IsPositive() {
		return decimal.Zero, "", fmt.Errorf("%w: usd/try rate is %s", apperrors.ErrProviderDegraded, r.Value)
	}
	return r.Value, r.Source, nil
}

// resolvePrice returns the unit price of symbol in cur: a custom price, the
// close of a past date, or the live price.
func (s *LedgerService) resolvePrice(ctx context.Context, symbol string, custom *decimal.Decimal, cur model.Currency, rate decimal.Decimal, date *time.Time) (decimal.Decimal, string, error) {
	if custom != nil {
		return *custom, model.SourceManual, nil
	}

	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var q model.Quote
	var err error
	if date != nil && date.Before(s.today()) {
		q, err = s.prices.HistoricalPrice(cctx, symbol, *date)
	} else {
		q, err = s.prices.LivePrice(cctx, symbol)
	}
	if err != nil {
		return decimal.Zero, "", fmt.Errorf("%w: %s: %v", apperrors.ErrPriceNotFound, symbol, err)
	}
	if !q.Price.IsPositive() {
		return decimal.Zero, "", fmt.Errorf("%w: %s", apperrors.ErrPriceNotFound, symbol)
	}

	qc := q.Currency
	if !qc.Valid() {
		qc = model.QuoteCurrency(symbol)
	}
	return convert(q.Price, qc, cur, rate), q.Source, nil
}

// transactionDate parses an optional transaction date. Dates after now are
// rejected: a dated entry sorts before every undated one, so a future date
// would hide later undated entries from snapshots taken today.
func (s *LedgerService) transactionDate(raw string) (*time.Time, error) {
	date, err := validation.ParseDate(raw)
	if err != nil || date == nil {
		return date, err
	}
	if date.After(s.now()) {
		return nil, fmt.Errorf("%w: transaction date %s is in the future", apperrors.ErrInvalidDateRange, date.Format(time.DateOnly))
	}
	return date, nil
}

func (s *LedgerService) today() time.Time {
	return s.now().UTC().Truncate(24 * time.Hour)
}

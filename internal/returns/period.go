package returns

import (
	"fmt"
	"strings"
	"time"

	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/apperrors"
)

// Named periods accepted by ResolvePeriod.
const (
	Period1D  = "1d"
	Period1W  = "1w"
	Period1M  = "1m"
	Period3M  = "3m"
	Period6M  = "6m"
	PeriodYTD = "ytd"
	Period1Y  = "1y"
	PeriodAll = "all"
)

// ResolvePeriod turns a named period into a [start, now] range. "all" starts
// at the zero time, which the calculator clamps to the first transaction.
func ResolvePeriod(name string, now time.Time) (start, end time.Time, err error) {
	now = now.UTC()
	switch strings.ToLower(name) {
	case Period1D:
		return now.AddDate(0, 0, -1), now, nil
	case Period1W:
		return now.AddDate(0, 0, -7), now, nil
	case Period1M:
		return now.AddDate(0, -1, 0), now, nil
	case Period3M:
		return now.AddDate(0, -3, 0), now, nil
	case Period6M:
		return now.AddDate(0, -6, 0), now, nil
	case PeriodYTD:
		return time.Date(now.Year(), 1, 1, 0, 0, 0, 0, time.UTC), now, nil
	case Period1Y:
		return now.AddDate(-1, 0, 0), now, nil
	case PeriodAll:
		return time.Time{}, now, nil
	}
	return time.Time{}, time.Time{}, fmt.Errorf("%w: unknown period %q", apperrors.ErrInvalidDateRange, name)
}

package inflation

import (
	"cmp"
	"math"
	"slices"
	"time"

	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/model"
)

// quarter is a sequential quarter number: year*4 + (quarter-1).
type quarter int

func quarterOf(t time.Time) quarter {
	t = t.UTC()
	return quarter(t.Year()*4 + (int(t.Month())-1)/3)
}

func quarterKey(p model.CPIPoint) quarter {
	return quarter(p.Year*4 + p.Quarter - 1)
}

func (q quarter) start() time.Time {
	return time.Date(int(q)/4, time.Month(int(q)%4*3+1), 1, 0, 0, 0, 0, time.UTC)
}

func (q quarter) end() time.Time {
	return (q + 1).start()
}

// table is a CPI series indexed by quarter plus the quarterly growth rate
// assumed for quarters after the last published one.
type table struct {
	values         map[quarter]float64
	first, last    quarter
	expectedRate   float64
	expectedSource string
}

func newTable(series []model.CPIPoint, expectation *model.Expectation) table {
	t := table{values: make(map[quarter]float64, len(series))}

	points := slices.Clone(series)
	slices.SortFunc(points, func(a, b model.CPIPoint) int {
		return cmp.Compare(quarterKey(a), quarterKey(b))
	})
	for _, p := range points {
		if p.Value <= 0 {
			continue
		}
		k := quarterKey(p)
		if len(t.values) == 0 {
			t.first = k
		}
		t.values[k] = p.Value
		t.last = k
	}

	t.expectedRate, t.expectedSource = expectedQuarterlyRate(points, expectation)
	return t
}

// expectedQuarterlyRate converts an annual expectation, or failing that the
// trailing four-quarter growth, to an equivalent quarterly rate.
func expectedQuarterlyRate(points []model.CPIPoint, expectation *model.Expectation) (float64, string) {
	if expectation != nil {
		src := expectation.Source
		if src == "" {
			src = SourceExpected
		}
		return quarterlyFromAnnual(expectation.AnnualRate / 100), src
	}
	if n := len(points); n >= 5 && points[n-5].Value > 0 {
		annual := points[n-1].Value/points[n-5].Value - 1
		return quarterlyFromAnnual(annual), model.SourceTrailing
	}
	return 0, model.SourceFallback
}

func quarterlyFromAnnual(annual float64) float64 {
	if annual <= -1 {
		return 0
	}
	return math.Pow(1+annual, 0.25) - 1
}

// growth is the CPI growth factor over quarter q. Quarters before the series
// (or the first one, which has no predecessor) contribute 1; quarters after the
// last published one use the expected rate.
func (t table) growth(q quarter) (g float64, estimated bool) {
	if len(t.values) == 0 {
		return 1, false
	}
	if q > t.last {
		return 1 + t.expectedRate, true
	}
	cur, ok := t.values[q]
	prev, okPrev := t.values[q-1]
	if !ok || !okPrev {
		return 1, false
	}
	return cur / prev, false
}

// multiplier compounds quarterly growth over [from, to). Boundary quarters
// contribute the fraction of the quarter actually spanned.
func (t table) multiplier(from, to time.Time) (m float64, estimated bool) {
	m = 1
	if !to.After(from) {
		return m, false
	}
	for q := quarterOf(from); q <= quarterOf(to); q++ {
		qs, qe := q.start(), q.end()
		lo, hi := qs, qe
		if from.After(lo) {
			lo = from
		}
		if to.Before(hi) {
			hi = to
		}
		if !hi.After(lo) {
			continue
		}
		frac := hi.Sub(lo).Seconds() / qe.Sub(qs).Seconds()
		g, est := t.growth(q)
		if est {
			estimated = true
		}
		m *= math.Pow(g, frac)
	}
	return m, estimated
}

package market

import (
	"math"

	"github.com/cinar/indicator/v2/momentum"
	"github.com/cinar/indicator/v2/trend"
	"github.com/shopspring/decimal"
)

// Indicator periods used for price summaries
const (
	SMAPeriod = 20
	EMAPeriod = 10
	RSIPeriod = 14
)

// Summary condenses a price series for prompts and API consumers
type Summary struct {
	Bars      int             `json:"bars"`
	First     decimal.Decimal `json:"first_close"`
	Last      decimal.Decimal `json:"last_close"`
	ChangePct decimal.Decimal `json:"change_pct"`
	High      decimal.Decimal `json:"high"`
	Low       decimal.Decimal `json:"low"`
	SMA       *float64        `json:"sma_20,omitempty"`
	EMA       *float64        `json:"ema_10,omitempty"`
	RSI       *float64        `json:"rsi_14,omitempty"`
	RSISignal string          `json:"rsi_signal,omitempty"` // "oversold", "overbought", "neutral"
}

// Summarize computes a summary over bars in time order. Indicators are only
// attached when the series is long enough for their period.
func Summarize(bars []PriceBar) *Summary {
	if len(bars) == 0 {
		return nil
	}

	s := &Summary{
		Bars:  len(bars),
		First: bars[0].Close,
		Last:  bars[len(bars)-1].Close,
		High:  bars[0].High,
		Low:   bars[0].Low,
	}
	for _, b := range bars[1:] {
		if b.High.GreaterThan(s.High) {
			s.High = b.High
		}
		if b.Low.LessThan(s.Low) {
			s.Low = b.Low
		}
	}
	if !s.First.IsZero() {
		s.ChangePct = s.Last.Sub(s.First).Div(s.First).Mul(decimal.NewFromInt(100)).Round(2)
	}

	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close.InexactFloat64()
	}

	if len(closes) >= SMAPeriod {
		s.SMA = last(trend.NewSmaWithPeriod[float64](SMAPeriod).Compute(feed(closes)))
	}
	if len(closes) >= EMAPeriod {
		s.EMA = last(trend.NewEmaWithPeriod[float64](EMAPeriod).Compute(feed(closes)))
	}
	if len(closes) > RSIPeriod {
		s.RSI = last(momentum.NewRsiWithPeriod[float64](RSIPeriod).Compute(feed(closes)))
		if s.RSI != nil {
			s.RSISignal = "neutral"
			if *s.RSI < 30 {
				s.RSISignal = "oversold"
			} else if *s.RSI > 70 {
				s.RSISignal = "overbought"
			}
		}
	}

	return s
}

// feed converts a slice to the channel form the indicator library consumes
func feed(values []float64) <-chan float64 {
	ch := make(chan float64, len(values))
	for _, v := range values {
		ch <- v
	}
	close(ch)
	return ch
}

func last(ch <-chan float64) *float64 {
	var (
		v  float64
		ok bool
	)
	for x := range ch {
		v, ok = x, true
	}
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

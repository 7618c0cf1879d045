// Package analytics aggregates canonical trades into performance figures.
package analytics

import (
	"github.com/shopspring/decimal"

	"tradeimport/src/model"
	"tradeimport/src/numeric"
)

type InstrumentSummary struct {
	Trades int             `json:"trades"`
	NetPnL decimal.Decimal `json:"net_pnl"`
}

type Summary struct {
	Trades    int `json:"trades"`
	Winners   int `json:"winners"`
	Losers    int `json:"losers"`
	Breakeven int `json:"breakeven"`
	Long      int `json:"long"`
	Short     int `json:"short"`

	WinRate     decimal.Decimal `json:"win_rate"` // winners / trades, 0..1
	GrossPnL    decimal.Decimal `json:"gross_pnl"`
	NetPnL      decimal.Decimal `json:"net_pnl"`
	Commission  decimal.Decimal `json:"commission"`
	AverageNet  decimal.Decimal `json:"average_net"`
	LargestWin  decimal.Decimal `json:"largest_win"`
	LargestLoss decimal.Decimal `json:"largest_loss"`

	ByInstrument map[model.InstrumentType]InstrumentSummary `json:"by_instrument"`

	// R figures only cover trades that carry an R-multiple.
	RTrades  int                 `json:"r_trades"`
	TotalR   decimal.Decimal     `json:"total_r"`
	AverageR decimal.NullDecimal `json:"average_r"`
}

// Summarize computes the summary of trades. Trades without risk data are left
// out of the R figures instead of being counted as zero.
func Summarize(trades []model.CanonicalTrade) Summary {
	s := Summary{
		WinRate:      decimal.Zero,
		GrossPnL:     decimal.Zero,
		NetPnL:       decimal.Zero,
		Commission:   decimal.Zero,
		AverageNet:   decimal.Zero,
		LargestWin:   decimal.Zero,
		LargestLoss:  decimal.Zero,
		TotalR:       decimal.Zero,
		ByInstrument: make(map[model.InstrumentType]InstrumentSummary),
	}

	for _, t := range trades {
		s.Trades++
		s.GrossPnL = s.GrossPnL.Add(t.GrossPnL)
		s.NetPnL = s.NetPnL.Add(t.NetPnL)
		s.Commission = s.Commission.Add(t.Commission)

		switch {
		case t.NetPnL.IsPositive():
			s.Winners++
			s.LargestWin = decimal.Max(s.LargestWin, t.NetPnL)
		case t.NetPnL.IsNegative():
			s.Losers++
			s.LargestLoss = decimal.Min(s.LargestLoss, t.NetPnL)
		default:
			s.Breakeven++
		}

		if t.Side == model.SideShort {
			s.Short++
		} else {
			s.Long++
		}

		inst := s.ByInstrument[t.InstrumentType]
		inst.Trades++
		inst.NetPnL = inst.NetPnL.Add(t.NetPnL)
		s.ByInstrument[t.InstrumentType] = inst

		if t.RMultiple.Valid {
			s.RTrades++
			s.TotalR = s.TotalR.Add(t.RMultiple.Decimal)
		}
	}

	if s.Trades > 0 {
		n := decimal.NewFromInt(int64(s.Trades))
		s.WinRate = decimal.NewFromInt(int64(s.Winners)).DivRound(n, numeric.Scale)
		s.AverageNet = s.NetPnL.DivRound(n, numeric.Scale)
	}
	if s.RTrades > 0 {
		s.AverageR = decimal.NewNullDecimal(s.TotalR.DivRound(decimal.NewFromInt(int64(s.RTrades)), numeric.Scale))
	}

	return s
}

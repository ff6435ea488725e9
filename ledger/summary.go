package ledger

import "github.com/rustyeddy/goldtracker/risk"

// Summary aggregates a challenge's history.
type Summary struct {
	Trades int
	Wins   int
	Losses int

	TotalWon  float64
	TotalLost float64
	Net       float64
	WinRate   float64 // percent

	InitialBalance float64
	CurrentBalance float64
	PeakBalance    float64
	MaxDrawdownPct float64
	WipedOut       bool
}

// Summarize folds newest-first history starting from initialBalance.
// Losses count what the balance actually lost, so a loss floored at zero
// contributes only the remaining balance.
func Summarize(initialBalance float64, newestFirst []TradeRecord) Summary {
	s := Summary{
		InitialBalance: initialBalance,
		CurrentBalance: initialBalance,
		PeakBalance:    initialBalance,
	}

	for i := len(newestFirst) - 1; i >= 0; i-- {
		r := newestFirst[i]
		s.Trades++
		if r.Result == Win {
			s.Wins++
			s.TotalWon += r.Change()
		} else {
			s.Losses++
			s.TotalLost += -r.Change()
		}

		s.CurrentBalance = r.EndingBalance
		if s.CurrentBalance > s.PeakBalance {
			s.PeakBalance = s.CurrentBalance
		}
		if s.PeakBalance > 0 {
			dd := (s.PeakBalance - s.CurrentBalance) / s.PeakBalance * 100
			if dd > s.MaxDrawdownPct {
				s.MaxDrawdownPct = dd
			}
		}
	}

	s.TotalWon = risk.Round2(s.TotalWon)
	s.TotalLost = risk.Round2(s.TotalLost)
	s.Net = risk.Round2(s.CurrentBalance - initialBalance)
	s.MaxDrawdownPct = risk.Round2(s.MaxDrawdownPct)
	if s.Trades > 0 {
		s.WinRate = risk.Round2(float64(s.Wins) / float64(s.Trades) * 100)
	}
	s.WipedOut = s.Trades > 0 && s.CurrentBalance <= 0
	return s
}

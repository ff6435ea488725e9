package ledger

import (
	"github.com/rustyeddy/goldtracker/pkg/errs"
)

// Restore rebuilds a ledger from stored records, newest first. Stored values
// are trusted: the current level is records[0].Level+1 and the balance is
// records[0].EndingBalance. Every record is still checked against the chain
// it belongs to, and all problems are returned together as a
// *errs.ConsistencyError alongside the rebuilt ledger.
//
// initialBalance anchors the chain; pass 0 to skip the anchor check and take
// the oldest record's starting balance as the initial balance.
func Restore(initialBalance float64, newestFirst []TradeRecord, opts ...Option) (*Ledger, error) {
	initial := initialBalance
	if initial <= 0 && len(newestFirst) > 0 {
		initial = newestFirst[len(newestFirst)-1].StartingBalance
	}

	l, err := New(initial, opts...)
	if err != nil {
		return nil, err
	}
	if len(newestFirst) == 0 {
		return l, nil
	}

	l.history = make([]TradeRecord, len(newestFirst))
	for i, r := range newestFirst {
		l.history[i] = r.clone()
	}
	l.level = newestFirst[0].Level + 1
	l.balance = newestFirst[0].EndingBalance

	ce := Verify(initialBalance, newestFirst)
	return l, ce.OrNil()
}

// Verify replays newest-first records oldest to newest and collects every
// inconsistency: level gaps and duplicates, result/amount mismatches, ending
// balances that do not follow from their trade, starting balances that do
// not continue the previous record, and an oldest record that does not start
// at initialBalance (skipped when initialBalance <= 0).
func Verify(initialBalance float64, newestFirst []TradeRecord) *errs.ConsistencyError {
	ce := &errs.ConsistencyError{}
	n := len(newestFirst)
	if n == 0 {
		return ce
	}

	oldest := newestFirst[n-1]
	if oldest.Level != 1 {
		ce.Add(oldest.Level, errs.IssueLevelGap, "oldest record is level %d, want 1", oldest.Level)
	}
	if initialBalance > 0 && !moneyEqual(oldest.StartingBalance, initialBalance) {
		ce.Add(oldest.Level, errs.IssueAnchor, "starts at %.2f, challenge starts at %.2f",
			oldest.StartingBalance, initialBalance)
	}

	for i := n - 1; i >= 0; i-- {
		r := newestFirst[i]

		if err := r.checkAmounts(); err != nil || !r.Result.Valid() {
			ce.Add(r.Level, errs.IssueAmount, "result %q with win=%v loss=%v", r.Result, r.WinAmount != nil, r.LossAmount != nil)
		} else if want := EndingBalance(r.StartingBalance, r.Result, r.Amount()); !moneyEqual(want, r.EndingBalance) {
			ce.Add(r.Level, errs.IssueEndingBalance, "ending %.2f, recomputed %.2f", r.EndingBalance, want)
		}

		if i == n-1 {
			continue
		}
		prev := newestFirst[i+1] // older neighbour
		switch {
		case r.Level == prev.Level:
			ce.Add(r.Level, errs.IssueLevelDuplicate, "level appears more than once")
		case r.Level != prev.Level+1:
			ce.Add(r.Level, errs.IssueLevelGap, "follows level %d", prev.Level)
		}
		if !moneyEqual(r.StartingBalance, prev.EndingBalance) {
			ce.Add(r.Level, errs.IssueChain, "starts at %.2f, level %d ended at %.2f",
				r.StartingBalance, prev.Level, prev.EndingBalance)
		}
	}
	return ce
}

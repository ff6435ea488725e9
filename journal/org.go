package journal

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/rustyeddy/goldtracker/ledger"
)

// FormatTradeOrg renders a record as an Org-mode block for a trading journal.
// Facts go in the PROPERTIES drawer; the narrative headings are left empty.
func FormatTradeOrg(r ledger.TradeRecord) string {
	sign := "+"
	if r.Result == ledger.Loss {
		sign = "-"
	}
	heading := fmt.Sprintf("** Level %d: %s %s%.2f (%s)", r.Level, r.Result, sign, r.Amount(), shortID(r.ID))

	var b strings.Builder
	b.WriteString(heading)
	b.WriteString("\n")
	b.WriteString(":PROPERTIES:\n")
	b.WriteString(fmt.Sprintf(":ID: %s\n", r.ID))
	b.WriteString(fmt.Sprintf(":LEVEL: %d\n", r.Level))
	b.WriteString(fmt.Sprintf(":RESULT: %s\n", r.Result))
	b.WriteString(fmt.Sprintf(":STARTING_BALANCE: %.2f\n", r.StartingBalance))
	b.WriteString(fmt.Sprintf(":RISK_PCT: %s\n", num(r.RiskPercentage)))
	b.WriteString(fmt.Sprintf(":RISK_AMOUNT: %.2f\n", r.RiskAmount))
	b.WriteString(fmt.Sprintf(":PROFIT_GOAL: %.2f\n", r.ProfitGoal))
	b.WriteString(fmt.Sprintf(":PIPS: %s\n", num(r.Pips)))
	b.WriteString(fmt.Sprintf(":LOT_SIZE: %.2f\n", r.LotSize))
	b.WriteString(fmt.Sprintf(":REWARD_RATIO: %s\n", r.RewardRatio))
	b.WriteString(fmt.Sprintf(":AMOUNT: %.2f\n", r.Amount()))
	b.WriteString(fmt.Sprintf(":ENDING_BALANCE: %.2f\n", r.EndingBalance))
	b.WriteString(fmt.Sprintf(":CREATED: %s\n", r.CreatedAt.UTC().Format(time.RFC3339)))
	b.WriteString(":END:\n")
	b.WriteString("\n")
	b.WriteString("*** Setup\n- \n\n")
	b.WriteString("*** Execution\n- \n\n")
	b.WriteString("*** Review\n- \n")

	return b.String()
}

// FormatTradesOrg renders multiple records separated by blank lines.
func FormatTradesOrg(records []ledger.TradeRecord) string {
	var b strings.Builder
	for i, r := range records {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(FormatTradeOrg(r))
	}
	return b.String()
}

func shortID(full string) string {
	if len(full) <= 8 {
		return full
	}
	return full[len(full)-8:]
}

// ChallengeReport is the data behind the Org summary of one challenge.
type ChallengeReport struct {
	SessionID  string
	Instrument string
	TargetPips float64
	RiskPct    float64
	Created    time.Time
	Summary    ledger.Summary
}

var challengeOrgFuncs = template.FuncMap{
	"orTime": func(t time.Time) time.Time {
		if t.IsZero() {
			return time.Now()
		}
		return t
	},
}

var challengeOrg = template.Must(template.New("challenge").Funcs(challengeOrgFuncs).Parse(ChallengeOrgTemplate))

// FormatChallengeOrg renders the summary block of a challenge.
func FormatChallengeOrg(rep ChallengeReport) (string, error) {
	buf := new(bytes.Buffer)
	if err := challengeOrg.Execute(buf, rep); err != nil {
		return "", err
	}
	return buf.String(), nil
}

const ChallengeOrgTemplate = `* CHALLENGE: {{.Instrument}} {{printf "%g" .TargetPips}} pips @ {{printf "%g" .RiskPct}}%
:PROPERTIES:
:SESSION_ID:  {{if .SessionID}}{{.SessionID}}{{else}}(session?){{end}}
:INSTRUMENT:  {{.Instrument}}
:START_BAL:   {{printf "%.2f" .Summary.InitialBalance}}
:END_BAL:     {{printf "%.2f" .Summary.CurrentBalance}}
:NET:         {{printf "%.2f" .Summary.Net}}
:PEAK_BAL:    {{printf "%.2f" .Summary.PeakBalance}}
:MAX_DD_PCT:  {{printf "%.2f" .Summary.MaxDrawdownPct}}
:TRADES:      {{.Summary.Trades}}
:WINS:        {{.Summary.Wins}}
:LOSSES:      {{.Summary.Losses}}
:WIN_RATE:    {{printf "%.2f" .Summary.WinRate}}
:CREATED:     [{{(orTime .Created).Format "2006-01-02 Mon 15:04"}}]
:END:

** Performance Summary
- Net:            *{{printf "%.2f" .Summary.Net}}*
- Total won:      *{{printf "%.2f" .Summary.TotalWon}}*
- Total lost:     *{{printf "%.2f" .Summary.TotalLost}}*
- Max Drawdown:   *{{printf "%.2f" .Summary.MaxDrawdownPct}}%*
- Win Rate:       *{{printf "%.2f" .Summary.WinRate}}%*
{{- if .Summary.WipedOut }}
- Balance wiped out
{{- end }}

** Trade Distribution
| Outcome | Count |
|---------+-------|
| Wins    | {{.Summary.Wins}} |
| Losses  | {{.Summary.Losses}} |
| Total   | {{.Summary.Trades}} |
`

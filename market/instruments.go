package market

import (
	"fmt"
	"sort"
	"strings"
)

// XAU_USD: 1 pip = 0.01 of quoted price (10 points), $/pip = lot × 10.
const DefaultInstrument = "XAU_USD"

type InstrumentMeta struct {
	Name          string
	BaseCurrency  string
	QuoteCurrency string

	// PipSize is the price increment of one pip.
	PipSize float64

	// PipValuePerLot is the account-currency value of one pip for one lot.
	PipValuePerLot float64

	LotPrecision int
	MinimumLot   float64
}

var Instruments = map[string]InstrumentMeta{
	"XAU_USD": {
		Name:           "XAU_USD",
		BaseCurrency:   "XAU",
		QuoteCurrency:  "USD",
		PipSize:        0.01,
		PipValuePerLot: 10,
		LotPrecision:   2,
		MinimumLot:     0.01,
	},
	"EUR_USD": {
		Name:           "EUR_USD",
		BaseCurrency:   "EUR",
		QuoteCurrency:  "USD",
		PipSize:        0.0001,
		PipValuePerLot: 10,
		LotPrecision:   2,
		MinimumLot:     0.01,
	},
	"GBP_USD": {
		Name:           "GBP_USD",
		BaseCurrency:   "GBP",
		QuoteCurrency:  "USD",
		PipSize:        0.0001,
		PipValuePerLot: 10,
		LotPrecision:   2,
		MinimumLot:     0.01,
	},
}

// NormalizeName accepts "XAU/USD", "xau_usd" or "XAUUSD" style names.
func NormalizeName(name string) string {
	n := strings.ToUpper(strings.TrimSpace(name))
	n = strings.ReplaceAll(n, "/", "_")
	if len(n) == 6 && !strings.Contains(n, "_") {
		n = n[:3] + "_" + n[3:]
	}
	return n
}

// Lookup returns the metadata for an instrument name.
func Lookup(name string) (InstrumentMeta, error) {
	meta, ok := Instruments[NormalizeName(name)]
	if !ok {
		return InstrumentMeta{}, fmt.Errorf("unknown instrument: %s", name)
	}
	return meta, nil
}

// Names lists the known instruments in sorted order.
func Names() []string {
	out := make([]string, 0, len(Instruments))
	for n := range Instruments {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// PipNote is the short pip-economics reminder shown alongside a challenge.
func (m InstrumentMeta) PipNote(targetPips float64) string {
	return fmt.Sprintf("%s: 1 pip = %g. Est. $/pip = lot × %g (0.01 lot=$%.2f, 0.10 lot=$%.2f, 1.00 lot=$%.2f). Target: %g pips (profit target 1.5R-2R).",
		strings.Replace(m.Name, "_", "/", 1), m.PipSize, m.PipValuePerLot,
		0.01*m.PipValuePerLot, 0.10*m.PipValuePerLot, m.PipValuePerLot, targetPips)
}

// Package format renders amounts, dates and relative day labels for display.
package format

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/shopspring/decimal"

	"finview/internal/core"
)

// Formatter renders values for one locale.
type Formatter struct {
	printer    *message.Printer
	symbol     string
	dateLayout string
}

// New returns a Formatter for the BCP 47 locale. Unknown locales fall back to pt-BR.
func New(locale, symbol string) *Formatter {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.BrazilianPortuguese
	}
	layout := "02/01/2006"
	if base, _ := tag.Base(); base.String() == "en" {
		if region, _ := tag.Region(); region.String() == "US" {
			layout = "01/02/2006"
		}
	}
	return &Formatter{
		printer:    message.NewPrinter(tag),
		symbol:     strings.TrimSpace(symbol),
		dateLayout: layout,
	}
}

// Default is the pt-BR formatter with the real symbol.
func Default() *Formatter {
	return New("pt-BR", "R$")
}

// Currency renders an amount with two decimals, e.g. "R$ 1.234,56" or "-R$ 10,00".
func (f *Formatter) Currency(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	n := f.printer.Sprint(number.Decimal(d.Round(2).InexactFloat64(), number.Scale(2)))
	if f.symbol == "" {
		return sign + n
	}
	return sign + f.symbol + " " + n
}

// Number renders a plain count in the formatter's locale.
func (f *Formatter) Number(n int) string {
	return f.printer.Sprint(number.Decimal(n))
}

// Date renders a calendar date, "" when absent.
func (f *Formatter) Date(d core.Date) string {
	if d.IsEmpty() {
		return ""
	}
	return d.Format(f.dateLayout)
}

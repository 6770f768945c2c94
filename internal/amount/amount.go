// Package amount finds monetary amounts in chat messages and infers whether a message
// describes income or an expense.
package amount

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/spicebot/internal/model"
	"github.com/Veraticus/spicebot/internal/textnorm"
)

// amountPattern matches 123, 123.45, 123,45, 1.234,56 and 1 234,56 with an optional
// currency marker. Group 1 is the numeric part.
var amountPattern = regexp.MustCompile(
	`(?i)\b((?:\d{1,3}(?:[., ]\d{3})+|\d+)(?:[.,]\d{1,2})?)(?:\s*(?:€|(?:euros?|eur|e)\b))?`,
)

// Match is one amount found in a message. Start and End are byte offsets into the
// original text covering the number and any currency marker.
type Match struct {
	Amount decimal.Decimal
	Start  int
	End    int
}

// DefaultIncomeKeywords lists income markers per language. Keywords are compared on
// normalized text as whole words.
var DefaultIncomeKeywords = map[string][]string{
	"en": {
		"received", "receive", "got paid", "salary", "payroll", "paycheck", "wage", "wages",
		"sold", "refund", "refunded", "reimbursement", "bonus", "income", "dividend",
		"dividends", "earned", "cashback",
	},
	"pt": {
		"recebi", "recebido", "salario", "ordenado", "ganhei", "vendi", "rendimento",
		"bonus", "vencimento", "reembolso", "subsidio", "premio", "dividendos",
	},
}

// Extractor finds amounts and detects intent.
type Extractor struct {
	incomeKeywords []string
}

// NewExtractor creates an extractor using the income keywords of the given languages.
// With no languages, every known language is used.
func NewExtractor(languages ...string) *Extractor {
	if len(languages) == 0 {
		languages = []string{"en", "pt"}
	}

	e := &Extractor{}
	for _, lang := range languages {
		e.addKeywords(DefaultIncomeKeywords[lang]...)
	}
	return e
}

// WithIncomeKeywords returns a copy of the extractor with extra income keywords.
func (e *Extractor) WithIncomeKeywords(keywords ...string) *Extractor {
	out := &Extractor{incomeKeywords: append([]string(nil), e.incomeKeywords...)}
	out.addKeywords(keywords...)
	return out
}

func (e *Extractor) addKeywords(keywords ...string) {
	for _, kw := range keywords {
		n := textnorm.Normalize(kw)
		if n == "" {
			continue
		}
		duplicate := false
		for _, existing := range e.incomeKeywords {
			if existing == n {
				duplicate = true
				break
			}
		}
		if !duplicate {
			e.incomeKeywords = append(e.incomeKeywords, n)
		}
	}
}

// Extract returns every non-zero amount in text, left to right, without overlaps.
func (e *Extractor) Extract(text string) []Match {
	var matches []Match
	for _, loc := range amountPattern.FindAllStringSubmatchIndex(text, -1) {
		numStart, numEnd := loc[2], loc[3]

		// A digit right after the number means the grammar only matched a prefix.
		if numEnd < len(text) && isDigit(text[numEnd]) {
			continue
		}

		value, ok := ParseNumber(text[numStart:numEnd])
		if !ok || value.IsZero() {
			continue
		}

		matches = append(matches, Match{Amount: value, Start: loc[0], End: loc[1]})
	}
	return matches
}

// Intent scans the whole message for income keywords. Messages without one are expenses.
func (e *Extractor) Intent(text string) model.TransactionType {
	padded := " " + textnorm.Normalize(text) + " "
	for _, kw := range e.incomeKeywords {
		if strings.Contains(padded, " "+kw+" ") {
			return model.TypeIncome
		}
	}
	return model.TypeExpense
}

// ParseNumber converts a locale-formatted number into a decimal. The last '.' or ','
// followed by one or two digits is the decimal point; every other separator groups
// thousands.
func ParseNumber(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false
	}

	intPart, fracPart := s, ""
	if i := strings.LastIndexAny(s, ".,"); i >= 0 {
		if tail := s[i+1:]; len(tail) >= 1 && len(tail) <= 2 {
			intPart, fracPart = s[:i], tail
		}
	}

	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, intPart)
	if digits == "" {
		return decimal.Zero, false
	}
	if fracPart != "" {
		digits += "." + fracPart
	}

	value, err := decimal.NewFromString(digits)
	if err != nil {
		return decimal.Zero, false
	}
	return value, true
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

package finance

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"vanlang-chatbot/internal/models"
)

var financialKeywords = []string{
	"thu nhập", "chi tiêu", "tiết kiệm", "đầu tư", "ngân sách", "số dư", "balance",
	"income", "expense", "saving", "investment", "budget", "money", "tiền",
	"expenses", "savings", "investments", "budgets",
	"của tôi", "my", "hiện tại", "current", "tổng", "total",
}

var dataIntents = map[string]bool{
	"expense.query":      true,
	"expense.summary":    true,
	"expense.detail":     true,
	"income.query":       true,
	"income.summary":     true,
	"income.detail":      true,
	"loan.query":         true,
	"loan.summary":       true,
	"loan.detail":        true,
	"balance.query":      true,
	"budget.check":       true,
	"budget.calculate":   true,
	"investment.query":   true,
	"investment.analyze": true,
	"saving.goal":        true,
	"financial.analyze":  true,
}

// NeedsFinancialData reports whether answering message requires the user's
// account figures, judged by the resolved intent or by keywords in the text.
func NeedsFinancialData(message string, intent *models.IntentResult) bool {
	if intent != nil && dataIntents[intent.Intent] {
		return true
	}

	text := " " + strings.Join(words(message), " ") + " "
	for _, kw := range financialKeywords {
		if strings.Contains(text, " "+kw+" ") {
			return true
		}
	}
	return false
}

// words lowercases s and splits it on anything that is not a letter or digit.
// Keywords therefore match whole words only ("my" does not match "economy").
func words(s string) []string {
	s = strings.ToLower(norm.NFC.String(s))
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.Is(unicode.Mn, r)
	})
}

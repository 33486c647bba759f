package finance

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"vanlang-chatbot/internal/models"
)

type contextLabels struct {
	header       string
	monthHeader  string
	balance      string
	income       string
	expense      string
	loans        string
	monthIncome  string
	monthExpense string
	investments  string
	budgets      string
}

var labels = map[models.Language]contextLabels{
	models.LanguageVietnamese: {
		header:       "\n📊 THÔNG TIN TÀI CHÍNH HIỆN TẠI:\n",
		monthHeader:  "\n📅 DỮ LIỆU THÁNG %d/%d:\n",
		balance:      "💎 Số dư hiện tại: %s VND\n",
		income:       "💰 Tổng thu nhập tích lũy: %s VND\n",
		expense:      "💸 Tổng chi tiêu tích lũy: %s VND\n",
		loans:        "🏦 Tổng khoản vay: %s VND\n",
		monthIncome:  "📈 Thu nhập tháng %d: %s VND\n",
		monthExpense: "📉 Chi tiêu tháng %d: %s VND\n",
		investments:  "🎯 Tổng giá trị đầu tư: %s VND\n",
		budgets:      "📋 Ngân sách đang hoạt động: %d ngân sách\n",
	},
	models.LanguageEnglish: {
		header:       "\n📊 CURRENT FINANCIAL INFORMATION:\n",
		monthHeader:  "\n📅 DATA FOR %d/%d:\n",
		balance:      "💎 Current balance: %s VND\n",
		income:       "💰 Total accumulated income: %s VND\n",
		expense:      "💸 Total accumulated expenses: %s VND\n",
		loans:        "🏦 Total loans: %s VND\n",
		monthIncome:  "📈 Income for month %d: %s VND\n",
		monthExpense: "📉 Expenses for month %d: %s VND\n",
		investments:  "🎯 Total investment value: %s VND\n",
		budgets:      "📋 Active budgets: %d budgets\n",
	},
}

var printers = map[models.Language]*message.Printer{
	models.LanguageVietnamese: message.NewPrinter(language.Vietnamese),
	models.LanguageEnglish:    message.NewPrinter(language.English),
}

// FormatFinancialContext renders fc as the labelled block appended to prompts.
// Amounts are rounded to whole VND and grouped the way the language writes them.
func FormatFinancialContext(fc *models.FinancialContext, lang models.Language) string {
	if fc == nil {
		return ""
	}
	lang = models.NormalizeLanguage(string(lang))
	l := labels[lang]

	var b strings.Builder
	b.WriteString(l.header)
	b.WriteString(fmt.Sprintf(l.balance, FormatVND(fc.TotalBalance, lang)))
	b.WriteString(fmt.Sprintf(l.income, FormatVND(fc.TotalIncomeAllTime, lang)))
	b.WriteString(fmt.Sprintf(l.expense, FormatVND(fc.TotalExpenseAllTime, lang)))
	if fc.TotalLoans > 0 {
		b.WriteString(fmt.Sprintf(l.loans, FormatVND(fc.TotalLoans, lang)))
	}

	b.WriteString(fmt.Sprintf(l.monthHeader, fc.Period.Month, fc.Period.Year))
	b.WriteString(fmt.Sprintf(l.monthIncome, fc.Period.Month, FormatVND(fc.MonthIncome, lang)))
	b.WriteString(fmt.Sprintf(l.monthExpense, fc.Period.Month, FormatVND(fc.MonthExpense, lang)))

	if len(fc.Investments) > 0 {
		b.WriteString(fmt.Sprintf(l.investments, FormatVND(fc.TotalInvestmentValue, lang)))
	}
	if len(fc.ActiveBudgets) > 0 {
		b.WriteString(fmt.Sprintf(l.budgets, len(fc.ActiveBudgets)))
	}
	return b.String()
}

// FormatVND groups thousands: "1.500.000" in Vietnamese, "1,500,000" in English.
func FormatVND(amount float64, lang models.Language) string {
	p := printers[models.NormalizeLanguage(string(lang))]
	return p.Sprintf("%d", int64(math.Round(amount)))
}

package finance

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"vanlang-chatbot/internal/models"
)

func sampleContext() *models.FinancialContext {
	return &models.FinancialContext{
		TotalBalance:         15000000,
		TotalIncomeAllTime:   20000000,
		TotalExpenseAllTime:  5000000,
		MonthIncome:          1500000,
		MonthExpense:         750000.4,
		Investments:          []models.Investment{{Name: "VNM", CurrentValue: 2000000}},
		TotalInvestmentValue: 2000000,
		ActiveBudgets:        []models.Budget{{Category: "Food"}, {Category: "Rent"}},
		Period:               models.Period{Month: 3, Year: 2025},
	}
}

func TestFormatVND(t *testing.T) {
	assert.Equal(t, "1.500.000", FormatVND(1500000, models.LanguageVietnamese))
	assert.Equal(t, "1,500,000", FormatVND(1500000, models.LanguageEnglish))
	assert.Equal(t, "750,001", FormatVND(750000.6, models.LanguageEnglish))
	assert.Equal(t, "0", FormatVND(0, models.LanguageVietnamese))
}

func TestFormatFinancialContext_Vietnamese(t *testing.T) {
	out := FormatFinancialContext(sampleContext(), models.LanguageVietnamese)

	assert.Contains(t, out, "📊 THÔNG TIN TÀI CHÍNH HIỆN TẠI:")
	assert.Contains(t, out, "💎 Số dư hiện tại: 15.000.000 VND")
	assert.Contains(t, out, "📅 DỮ LIỆU THÁNG 3/2025:")
	assert.Contains(t, out, "📈 Thu nhập tháng 3: 1.500.000 VND")
	assert.Contains(t, out, "📉 Chi tiêu tháng 3: 750.000 VND")
	assert.Contains(t, out, "🎯 Tổng giá trị đầu tư: 2.000.000 VND")
	assert.Contains(t, out, "📋 Ngân sách đang hoạt động: 2 ngân sách")
	assert.NotContains(t, out, "🏦")
}

func TestFormatFinancialContext_English(t *testing.T) {
	fc := sampleContext()
	fc.TotalLoans = 12600000
	fc.Investments = nil
	fc.ActiveBudgets = nil

	out := FormatFinancialContext(fc, models.LanguageEnglish)

	assert.Contains(t, out, "💎 Current balance: 15,000,000 VND")
	assert.Contains(t, out, "🏦 Total loans: 12,600,000 VND")
	assert.Contains(t, out, "📅 DATA FOR 3/2025:")
	assert.NotContains(t, out, "🎯")
	assert.NotContains(t, out, "📋")
}

func TestFormatFinancialContext_Nil(t *testing.T) {
	assert.Empty(t, FormatFinancialContext(nil, models.LanguageVietnamese))
}

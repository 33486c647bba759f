package nlp

import (
	"context"
	"math"
	"regexp"
	"strings"
	"sync/atomic"

	"vanlang-chatbot/internal/models"
)

const (
	catGreeting      = "greeting"
	catFarewell      = "farewell"
	catIncome        = "income_query"
	catExpense       = "expense_query"
	catBalance       = "balance_query"
	catLoan          = "loan_query"
	catSavings       = "savings_investment"
	catBudget        = "budget_query"
	catCalculation   = "calculation_query"
	catTimePeriod    = "time_period"
	catTimeDate      = "time_date"
	catGoal          = "goal_planning"
	catQuestion      = "question_words"
	catTrend         = "trend_comparison"
	catFinancialCalc = "financial_calculation"
	catFinancial     = "financial_primary"
	catFinancialCtx  = "financial_contextual"
	catBotIntro      = "about_bot"
	catBotCapability = "bot_capabilities"
	catBlocked       = "blocked_topics"

	IntentBlocked          = "blocked.topic"
	IntentFinancialGeneral = "financial.general"
)

type category struct {
	name     string
	keywords []string
	weight   float64
}

// Categories are evaluated in this order; the order also fixes the order of
// IntentResult.Categories.
var keywordCategories = []category{
	{catGreeting, []string{"chào", "xin chào", "chào bạn", "hello", "hi", "hey", "greetings", "good morning", "good evening"}, 1.0},
	{catFarewell, []string{"tạm biệt", "hẹn gặp lại", "bye", "goodbye", "see you"}, 1.0},
	{catIncome, []string{"thu nhập", "lương", "tiền lương", "kiếm được", "tiền kiếm", "được bao nhiêu", "income", "salary", "wage", "earning", "earn", "make money"}, 1.2},
	{catExpense, []string{"chi tiêu", "tiêu tiền", "chi phí", "tiêu bao nhiêu", "đã chi", "expense", "expenses", "spending", "spend", "cost", "expenditure"}, 1.2},
	{catBalance, []string{"số dư", "còn bao nhiêu tiền", "balance"}, 1.2},
	{catLoan, []string{"khoản vay", "đi vay", "vay tiền", "khoản nợ", "trả nợ", "loan", "loans", "debt"}, 1.1},
	{catSavings, []string{"tiết kiệm", "đầu tư", "cổ phiếu", "vàng", "bitcoin", "crypto", "gửi tiết kiệm", "saving", "savings", "investment", "invest", "stock", "gold"}, 1.1},
	{catBudget, []string{"ngân sách", "giới hạn", "hạn mức", "budget", "budgeting", "limit", "allowance"}, 1.1},
	{catCalculation, []string{"tính", "tính toán", "phân tích", "so sánh", "dự đoán", "ước tính", "calculate", "calculation", "analyze", "analysis", "compare", "predict", "estimate"}, 1.3},
	{catTimePeriod, []string{"tháng này", "tháng trước", "năm nay", "tuần này", "hôm nay", "hiện tại", "this month", "last month", "this year", "current", "today", "this week"}, 0.8},
	{catTimeDate, []string{"mấy giờ", "ngày mấy", "hôm nay là ngày", "bây giờ là", "what time", "what day", "what is the date", "today's date"}, 1.0},
	{catGoal, []string{"mục tiêu", "kế hoạch", "dự định", "muốn", "cần", "sẽ", "goal", "target", "plan", "planning", "want", "need", "will"}, 1.0},
	{catQuestion, []string{"bao nhiêu", "thế nào", "khi nào", "tại sao", "làm sao", "có thể", "how much", "how many", "how", "when", "why", "what", "can"}, 0.6},
	{catTrend, []string{"xu hướng", "tăng", "giảm", "thay đổi", "khác biệt", "hơn", "kém", "trend", "increase", "decrease", "change", "difference", "more", "less", "better", "worse"}, 0.9},
	{catFinancialCalc, []string{"lãi suất", "lợi nhuận", "tỷ lệ", "phần trăm", "%", "tỷ", "triệu", "interest", "profit", "percentage", "rate", "ratio", "million", "billion"}, 1.1},
	{catFinancial, []string{"tài chính", "finance", "financial"}, 1.0},
	{catFinancialCtx, []string{"tiền", "money", "đồng", "vnd", "cash", "dollar", "currency"}, 0.5},
	{catBotIntro, []string{"bạn là ai", "vanlangbot", "who are you", "bot", "assistant"}, 1.0},
	{catBotCapability, []string{"giúp gì", "chức năng", "làm được gì", "what can you do", "help", "function", "features"}, 1.0},
	{catBlocked, []string{"thời tiết", "tin tức", "chính trị", "bóng đá", "game", "weather", "news", "politics", "religion", "sports", "games", "entertainment"}, -1.0},
}

var detailKeywords = []string{"chi tiết", "liệt kê", "từng khoản", "detail", "details", "list", "breakdown"}

var amountPattern = regexp.MustCompile(`(\d+(?:[.,]\d+)*)\s*(triệu|tr|nghìn|ngàn|k|tỷ|million|billion|vnd|đồng|đ)?(?:[^\p{L}]|$)`)

var timePeriods = []struct {
	phrases []string
	value   string
}{
	{[]string{"thang nay", "this month"}, "current_month"},
	{[]string{"thang truoc", "last month"}, "last_month"},
	{[]string{"nam nay", "this year"}, "current_year"},
	{[]string{"hom nay", "today"}, "today"},
}

type compiledCategory struct {
	name    string
	phrases []string
	weight  float64
}

// KeywordClassifier scores weighted keyword categories over diacritic-folded
// text. It needs no network and is the fallback for the other classifiers.
type KeywordClassifier struct {
	categories []compiledCategory
	details    []string
	analyzed   int64
}

func NewKeywordClassifier() *KeywordClassifier {
	k := &KeywordClassifier{}
	for _, c := range keywordCategories {
		cc := compiledCategory{name: c.name, weight: c.weight}
		for _, kw := range c.keywords {
			cc.phrases = append(cc.phrases, strings.TrimSpace(tokenize(kw)))
		}
		k.categories = append(k.categories, cc)
	}
	for _, kw := range detailKeywords {
		k.details = append(k.details, strings.TrimSpace(tokenize(kw)))
	}
	return k
}

func (k *KeywordClassifier) AnalyzeIntent(_ context.Context, message string) (*models.IntentResult, error) {
	atomic.AddInt64(&k.analyzed, 1)
	return k.Analyze(message), nil
}

// Analyze is the synchronous form of AnalyzeIntent.
func (k *KeywordClassifier) Analyze(message string) *models.IntentResult {
	result := &models.IntentResult{
		Intent:     models.IntentNone,
		Entities:   []models.Entity{},
		Language:   models.Language(DetectLanguage(message)),
		Categories: []string{},
	}
	if strings.TrimSpace(message) == "" {
		return result
	}

	tokens := tokenize(message)
	matched := make(map[string]bool)
	var total float64

	for _, c := range k.categories {
		hits := 0
		for _, phrase := range c.phrases {
			if phrase != "" && containsPhrase(tokens, phrase) {
				hits++
			}
		}
		if hits > 0 {
			total += float64(hits) * c.weight
			matched[c.name] = true
			result.Categories = append(result.Categories, c.name)
		}
	}

	intent, confidence := k.resolve(tokens, matched, total)
	result.Intent = intent
	result.Confidence = round2(confidence)
	result.Score = round2(total)
	result.Entities = extractEntities(message, tokens, matched)
	return result
}

func (k *KeywordClassifier) resolve(tokens string, matched map[string]bool, total float64) (string, float64) {
	switch {
	case matched[catFarewell]:
		return models.IntentFarewell, 0.9
	case matched[catGreeting]:
		return models.IntentGreeting, 0.9
	case matched[catBotIntro]:
		return models.IntentIntroduction, 0.9
	case matched[catBotCapability]:
		return models.IntentCapabilities, 0.9
	case matched[catTimeDate]:
		return models.IntentTimeDate, 0.9
	case total <= -0.5 || matched[catBlocked]:
		return IntentBlocked, 0.8
	case matched[catCalculation]:
		conf := math.Min(total/2.0, 0.95)
		switch {
		case matched[catIncome]:
			return "calculate.income", conf
		case matched[catExpense]:
			return "calculate.expense", conf
		case matched[catSavings]:
			return "calculate.investment", conf
		case matched[catBudget]:
			return "calculate.budget", conf
		default:
			return "calculate.general", conf
		}
	case matched[catBalance]:
		return "balance.query", math.Min(total/1.5, 0.9)
	case matched[catExpense]:
		if k.hasDetail(tokens) {
			return "expense.detail", math.Min(total/1.5, 0.9)
		}
		return "expense.query", math.Min(total/1.5, 0.9)
	case matched[catIncome]:
		return "income.query", math.Min(total/1.5, 0.9)
	case matched[catLoan]:
		return "loan.query", math.Min(total/1.5, 0.9)
	case matched[catSavings]:
		if matched[catGoal] {
			return "saving.goal", math.Min(total/1.5, 0.9)
		}
		return "investment.query", math.Min(total/1.5, 0.9)
	case matched[catBudget]:
		return "budget.check", math.Min(total/1.5, 0.9)
	case matched[catTrend]:
		return "financial.trend", math.Min(total/1.3, 0.85)
	case matched[catGoal]:
		return "financial.planning", math.Min(total/1.2, 0.8)
	case total >= 1.0:
		return IntentFinancialGeneral, math.Min(total/2.0, 0.95)
	case total >= 0.5:
		return IntentFinancialGeneral, total * 0.7
	case total > 0:
		return IntentFinancialGeneral, total * 0.5
	default:
		return models.IntentNone, 0
	}
}

func (k *KeywordClassifier) hasDetail(tokens string) bool {
	for _, phrase := range k.details {
		if containsPhrase(tokens, phrase) {
			return true
		}
	}
	return false
}

func extractEntities(message, tokens string, matched map[string]bool) []models.Entity {
	entities := []models.Entity{}

	if matched[catTimePeriod] {
	periods:
		for _, p := range timePeriods {
			for _, phrase := range p.phrases {
				if containsPhrase(tokens, phrase) {
					entities = append(entities, models.Entity{Type: "time_period", Value: p.value, Confidence: 0.9})
					break periods
				}
			}
		}
	}

	for _, m := range amountPattern.FindAllStringSubmatch(strings.ToLower(message), -1) {
		if m[2] == "" && countDigits(m[1]) < 5 {
			continue
		}
		value := m[1]
		if m[2] != "" {
			value += " " + m[2]
		}
		entities = append(entities, models.Entity{Type: "amount", Value: value, Confidence: 0.8})
	}

	return entities
}

func (k *KeywordClassifier) Stats() map[string]interface{} {
	return map[string]interface{}{
		"service":            "keyword",
		"categories":         len(k.categories),
		"analyzed":           atomic.LoadInt64(&k.analyzed),
		"supportedLanguages": []string{"vi", "en"},
	}
}

func (k *KeywordClassifier) Health(_ context.Context) models.ServiceHealth {
	return models.ServiceHealth{Status: models.StatusHealthy, Details: k.Stats()}
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

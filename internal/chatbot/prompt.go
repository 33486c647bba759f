package chatbot

import (
	"fmt"
	"strings"

	"vanlang-chatbot/internal/models"
)

type promptTemplate struct {
	vi string
	en string
}

var intentTemplates = map[string]promptTemplate{
	"expense.query": {
		vi: `Người dùng muốn biết về chi tiêu của họ. Câu hỏi gốc: "%s". Hãy tập trung vào việc cung cấp thông tin tổng quan về các khoản chi tiêu từ dữ liệu tài chính dưới đây.`,
		en: `The user wants to know about their expenses. Original question: "%s". Focus on giving an overview of their expenses from the financial data below.`,
	},
	"expense.detail": {
		vi: `Người dùng muốn biết chi tiết các khoản chi tiêu. Câu hỏi gốc: "%s". Hãy liệt kê các khoản chi tiêu cụ thể từ dữ liệu tài chính dưới đây.`,
		en: `The user wants the details of their expenses. Original question: "%s". List the specific expenses from the financial data below.`,
	},
	"income.query": {
		vi: `Người dùng muốn biết về thu nhập của họ. Câu hỏi gốc: "%s". Hãy tập trung vào việc cung cấp thông tin tổng quan về các khoản thu nhập từ dữ liệu tài chính dưới đây.`,
		en: `The user wants to know about their income. Original question: "%s". Focus on giving an overview of their income from the financial data below.`,
	},
	"balance.query": {
		vi: `Người dùng muốn biết số dư hiện tại. Câu hỏi gốc: "%s". Hãy cung cấp thông tin về số dư dựa trên dữ liệu tài chính.`,
		en: `The user wants to know their current balance. Original question: "%s". Provide the balance based on the financial data.`,
	},
}

var templateAliases = map[string]string{
	"expense.summary": "expense.query",
	"income.summary":  "income.query",
}

var genericFinancialTemplate = promptTemplate{
	vi: `Người dùng có câu hỏi liên quan đến tài chính: "%s". Hãy cố gắng trả lời dựa trên dữ liệu được cung cấp (nếu có).`,
	en: `The user has a finance-related question: "%s". Try to answer based on the data provided (if any).`,
}

var financialDataLabel = promptTemplate{
	vi: "\n\nDữ liệu tài chính tham khảo:\n",
	en: "\n\nFinancial data for reference:\n",
}

// BuildPrompt frames message for the generator. Intents with a dedicated
// template are rewritten; other financial questions get the generic framing.
// financialContext is appended only when needsData is set. The result is
// trimmed and doubles as the response cache key.
func BuildPrompt(message, intent string, lang models.Language, needsData bool, financialContext string) string {
	prompt := message

	key := intent
	if alias, ok := templateAliases[key]; ok {
		key = alias
	}

	if tmpl, ok := intentTemplates[key]; ok {
		prompt = fmt.Sprintf(lang.Pick(tmpl.vi, tmpl.en), message)
	} else if intent != "" && (strings.HasPrefix(intent, "financial.") || strings.HasPrefix(intent, "calculate.") || needsData) {
		prompt = fmt.Sprintf(lang.Pick(genericFinancialTemplate.vi, genericFinancialTemplate.en), message)
	}

	if needsData && financialContext != "" {
		prompt += lang.Pick(financialDataLabel.vi, financialDataLabel.en) + financialContext
	}

	return strings.TrimSpace(prompt)
}

package chatbot

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"vanlang-chatbot/internal/models"
)

func TestBuildPrompt(t *testing.T) {
	tests := []struct {
		name      string
		message   string
		intent    string
		lang      models.Language
		needsData bool
		context   string
		want      string
	}{
		{
			name:    "plain message is kept",
			message: "  kể chuyện cười đi  ",
			intent:  models.IntentNone,
			lang:    models.LanguageVietnamese,
			want:    "kể chuyện cười đi",
		},
		{
			name:    "expense summary shares the query template",
			message: "chi tiêu",
			intent:  "expense.summary",
			lang:    models.LanguageVietnamese,
			want:    `Người dùng muốn biết về chi tiêu của họ. Câu hỏi gốc: "chi tiêu". Hãy tập trung vào việc cung cấp thông tin tổng quan về các khoản chi tiêu từ dữ liệu tài chính dưới đây.`,
		},
		{
			name:    "expense detail",
			message: "liệt kê chi tiêu",
			intent:  "expense.detail",
			lang:    models.LanguageVietnamese,
			want:    `Người dùng muốn biết chi tiết các khoản chi tiêu. Câu hỏi gốc: "liệt kê chi tiêu". Hãy liệt kê các khoản chi tiêu cụ thể từ dữ liệu tài chính dưới đây.`,
		},
		{
			name:    "income in english",
			message: "my income",
			intent:  "income.query",
			lang:    models.LanguageEnglish,
			want:    `The user wants to know about their income. Original question: "my income". Focus on giving an overview of their income from the financial data below.`,
		},
		{
			name:    "calculate intent gets generic framing",
			message: "tính lãi",
			intent:  "calculate.general",
			lang:    models.LanguageVietnamese,
			want:    `Người dùng có câu hỏi liên quan đến tài chính: "tính lãi". Hãy cố gắng trả lời dựa trên dữ liệu được cung cấp (nếu có).`,
		},
		{
			name:      "needsData gets generic framing",
			message:   "how much money",
			intent:    models.IntentNone,
			lang:      models.LanguageEnglish,
			needsData: true,
			want:      `The user has a finance-related question: "how much money". Try to answer based on the data provided (if any).`,
		},
		{
			name:      "context appended when needed",
			message:   "số dư",
			intent:    "balance.query",
			lang:      models.LanguageVietnamese,
			needsData: true,
			context:   "\n📊 THÔNG TIN\n",
			want:      "Người dùng muốn biết số dư hiện tại. Câu hỏi gốc: \"số dư\". Hãy cung cấp thông tin về số dư dựa trên dữ liệu tài chính.\n\nDữ liệu tài chính tham khảo:\n\n📊 THÔNG TIN",
		},
		{
			name:    "context ignored when not needed",
			message: "tính lãi",
			intent:  "financial.trend",
			lang:    models.LanguageVietnamese,
			context: "ignored",
			want:    `Người dùng có câu hỏi liên quan đến tài chính: "tính lãi". Hãy cố gắng trả lời dựa trên dữ liệu được cung cấp (nếu có).`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildPrompt(tt.message, tt.intent, tt.lang, tt.needsData, tt.context))
		})
	}
}

func TestValidateInput(t *testing.T) {
	assert.Empty(t, ValidateInput("xin chào", models.LanguageVietnamese, 1000))
	assert.Equal(t, "Invalid message.", ValidateInput("\t\n", models.LanguageEnglish, 1000))

	// 1000 multi-byte characters are within the limit
	long := ""
	for i := 0; i < 1000; i++ {
		long += "ệ"
	}
	assert.Empty(t, ValidateInput(long, models.LanguageVietnamese, 1000))
	assert.Equal(t, "Message too long.", ValidateInput(long+"a", models.LanguageEnglish, 1000))
}

func TestSimpleReply(t *testing.T) {
	text, ok := SimpleReply(models.IntentFarewell, models.LanguageEnglish, fixedNow)
	assert.True(t, ok)
	assert.Equal(t, "Goodbye! Have a great day. See you later! 👋", text)

	_, ok = SimpleReply(models.IntentNone, models.LanguageVietnamese, fixedNow)
	assert.False(t, ok)
	_, ok = SimpleReply(models.IntentFallback, models.LanguageVietnamese, fixedNow)
	assert.False(t, ok)
}

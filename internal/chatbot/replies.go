package chatbot

import (
	"fmt"
	"time"

	"vanlang-chatbot/internal/models"
	"vanlang-chatbot/internal/nlp"
)

type replyFunc func(lang models.Language, now time.Time) string

func fixedReply(vi, en string) replyFunc {
	return func(lang models.Language, _ time.Time) string {
		return lang.Pick(vi, en)
	}
}

// simpleReplies are answered without calling the generator. None and
// nlu.fallback are deliberately absent.
var simpleReplies = map[string]replyFunc{
	models.IntentGreeting: fixedReply(
		"Chào bạn! Tôi là VanLangBot, trợ lý tài chính AI của bạn. Tôi có thể giúp gì cho bạn hôm nay? 💰",
		"Hello! I am VanLangBot, your AI financial assistant. How can I help you today? 💰",
	),
	models.IntentFarewell: fixedReply(
		"Tạm biệt! Chúc bạn một ngày tốt lành. Hẹn gặp lại! 👋",
		"Goodbye! Have a great day. See you later! 👋",
	),
	models.IntentIntroduction: fixedReply(
		"Tôi là VanLangBot, trợ lý tài chính AI được thiết kế để giúp bạn quản lý tài chính cá nhân, theo dõi thu chi, phân tích đầu tư và lập kế hoạch cho tương lai. Hãy hỏi tôi bất cứ điều gì liên quan đến tài chính của bạn!",
		"I am VanLangBot, an AI financial assistant designed to help you manage your personal finances, track income and expenses, analyze investments, and plan for the future. Feel free to ask me anything about your finances!",
	),
	models.IntentCapabilities: fixedReply(
		"Tôi có thể giúp bạn: theo dõi thu nhập và chi tiêu, phân tích các khoản đầu tư, xem xét các khoản vay, đặt mục tiêu tiết kiệm, và đưa ra các gợi ý tài chính thông minh. Bạn muốn tôi giúp gì cụ thể?",
		"I can help you with: tracking income and expenses, analyzing investments, reviewing loans, setting savings goals, and providing smart financial suggestions. What can I help you with specifically?",
	),
	models.IntentTimeDate: timeDateReply,
	nlp.IntentBlocked: fixedReply(
		"Xin lỗi, tôi chỉ được lập trình để hỗ trợ các vấn đề liên quan đến tài chính cá nhân trong ứng dụng VanLang Budget. Bạn có câu hỏi nào khác về tài chính không?",
		"Sorry, I am only programmed to assist with personal finance matters within the VanLang Budget application. Do you have any other finance-related questions?",
	),
}

func timeDateReply(lang models.Language, now time.Time) string {
	if lang == models.LanguageEnglish {
		return fmt.Sprintf("The current time is %s on %s.", now.Format("3:04:05 PM"), now.Format("1/2/2006"))
	}
	return fmt.Sprintf("Bây giờ là %s ngày %s.", now.Format("15:04:05"), now.Format("2/1/2006"))
}

// SimpleReply returns the canned answer for intent, if it has one.
func SimpleReply(intent string, lang models.Language, now time.Time) (string, bool) {
	fn, ok := simpleReplies[intent]
	if !ok {
		return "", false
	}
	return fn(lang, now), true
}

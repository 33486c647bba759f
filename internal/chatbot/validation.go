package chatbot

import (
	"strings"
	"unicode/utf8"

	"vanlang-chatbot/internal/models"
)

// ValidateInput returns the localized reason message is rejected, or "" when
// it is acceptable. Length is counted in characters.
func ValidateInput(message string, lang models.Language, maxLength int) string {
	if strings.TrimSpace(message) == "" {
		return lang.Pick("Tin nhắn không hợp lệ.", "Invalid message.")
	}
	if maxLength > 0 && utf8.RuneCountInString(message) > maxLength {
		return lang.Pick("Tin nhắn quá dài.", "Message too long.")
	}
	return ""
}

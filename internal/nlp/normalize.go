package nlp

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var diacriticFold = map[rune]rune{
	'à': 'a', 'á': 'a', 'ạ': 'a', 'ả': 'a', 'ã': 'a',
	'â': 'a', 'ầ': 'a', 'ấ': 'a', 'ậ': 'a', 'ẩ': 'a', 'ẫ': 'a',
	'ă': 'a', 'ằ': 'a', 'ắ': 'a', 'ặ': 'a', 'ẳ': 'a', 'ẵ': 'a',
	'è': 'e', 'é': 'e', 'ẹ': 'e', 'ẻ': 'e', 'ẽ': 'e',
	'ê': 'e', 'ề': 'e', 'ế': 'e', 'ệ': 'e', 'ể': 'e', 'ễ': 'e',
	'ì': 'i', 'í': 'i', 'ị': 'i', 'ỉ': 'i', 'ĩ': 'i',
	'ò': 'o', 'ó': 'o', 'ọ': 'o', 'ỏ': 'o', 'õ': 'o',
	'ô': 'o', 'ồ': 'o', 'ố': 'o', 'ộ': 'o', 'ổ': 'o', 'ỗ': 'o',
	'ơ': 'o', 'ờ': 'o', 'ớ': 'o', 'ợ': 'o', 'ở': 'o', 'ỡ': 'o',
	'ù': 'u', 'ú': 'u', 'ụ': 'u', 'ủ': 'u', 'ũ': 'u',
	'ư': 'u', 'ừ': 'u', 'ứ': 'u', 'ự': 'u', 'ử': 'u', 'ữ': 'u',
	'ỳ': 'y', 'ý': 'y', 'ỵ': 'y', 'ỷ': 'y', 'ỹ': 'y',
	'đ': 'd',
}

var vietnameseMarkers = []string{"tôi", "bạn", "của", "là", "và", "có", "này", "được"}

// NormalizeVietnamese lowercases text and folds Vietnamese diacritics to ASCII.
// Input is composed to NFC first so decomposed keyboards fold the same way.
func NormalizeVietnamese(text string) string {
	text = strings.ToLower(norm.NFC.String(text))
	return strings.Map(func(r rune) rune {
		if folded, ok := diacriticFold[r]; ok {
			return folded
		}
		return r
	}, text)
}

// DetectLanguage reports vi when the text carries Vietnamese diacritics or
// common Vietnamese function words.
func DetectLanguage(text string) string {
	text = strings.ToLower(norm.NFC.String(text))
	for _, r := range text {
		if _, ok := diacriticFold[r]; ok {
			return "vi"
		}
	}
	for _, w := range vietnameseMarkers {
		if strings.Contains(text, w) {
			return "vi"
		}
	}
	return "en"
}

// tokenize returns the normalized text padded and separated by single spaces
// so phrases can be matched on word boundaries with strings.Contains.
func tokenize(text string) string {
	normalized := strings.ReplaceAll(NormalizeVietnamese(text), "%", " % ")
	fields := strings.FieldsFunc(normalized, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '%'
	})
	return " " + strings.Join(fields, " ") + " "
}

func containsPhrase(tokens, phrase string) bool {
	return strings.Contains(tokens, " "+phrase+" ")
}

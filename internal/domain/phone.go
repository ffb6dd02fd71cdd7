package domain

import (
	"strings"
	"unicode"
)

// NormalizePhone keeps only ASCII digits: "+7 913 331-84-13" -> "79133318413".
func NormalizePhone(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r <= unicode.MaxASCII && unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// DisplayPhone renders a normalized phone for humans.
func DisplayPhone(phone string) string {
	if phone == "" {
		return "неизвестный номер"
	}
	if strings.HasPrefix(phone, "+") {
		return phone
	}
	return "+" + phone
}

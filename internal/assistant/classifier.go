package assistant

import (
	"context"
	"fmt"
	"strings"
	"unicode"
)

// Image is an inbound media attachment.
type Image struct {
	Data     []byte
	MimeType string
	Filename string
}

// Request is one message to classify. UserKey identifies the conversation
// on the classifier side.
type Request struct {
	UserKey string
	Text    string
	Image   *Image
}

// Classifier maps a message to an Intent.
type Classifier interface {
	Classify(ctx context.Context, req Request) (Intent, error)
}

// expenseKeywords trigger category enrichment before classification.
var expenseKeywords = []string{"gastei", "comprei", "paguei", "despesa"}

// NeedsCategoryContext reports whether text looks like an expense report.
func NeedsCategoryContext(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range expenseKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// EnrichText appends the user's category names so the classifier picks one of them.
func EnrichText(text string, categories []string) string {
	return fmt.Sprintf("%s. Contexto Adicional: Para o campo 'category', use uma das seguintes opções: %s.",
		text, strings.Join(categories, ", "))
}

// UserKey derives the classifier conversation key from a WhatsApp JID.
func UserKey(jid string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, jid)
}

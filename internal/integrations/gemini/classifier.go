// Package gemini classifies WhatsApp messages with Google Gemini. It is the
// alternative to the Dify app and carries the instructions Dify keeps in
// its app configuration.
package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"meugestor/internal/assistant"
	"meugestor/internal/clock"
)

// DefaultModel is used when no model name is configured.
const DefaultModel = "gemini-2.5-flash-lite"

// Classifier implements assistant.Classifier on top of Gemini.
type Classifier struct {
	apiKey    string
	modelName string
	cal       *clock.Calendar
}

var _ assistant.Classifier = (*Classifier)(nil)

// NewClassifier creates a Gemini classifier. cal supplies "today" for
// resolving relative dates in reminders.
func NewClassifier(apiKey, modelName string, cal *clock.Calendar) *Classifier {
	if modelName == "" {
		modelName = DefaultModel
	}
	return &Classifier{apiKey: apiKey, modelName: modelName, cal: cal}
}

// IsAvailable reports whether an API key is configured.
func (c *Classifier) IsAvailable() bool {
	return c.apiKey != ""
}

// Classify asks Gemini for the intent of req.
func (c *Classifier) Classify(ctx context.Context, req assistant.Request) (assistant.Intent, error) {
	if !c.IsAvailable() {
		return assistant.Intent{}, fmt.Errorf("gemini classifier is not configured")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(c.apiKey))
	if err != nil {
		return assistant.Intent{}, fmt.Errorf("failed to create gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(c.modelName)
	model.SetTemperature(0.1)
	model.ResponseMIMEType = "application/json"

	parts := []genai.Part{genai.Text(c.buildPrompt(req.Text))}
	if req.Image != nil {
		parts = append(parts, genai.ImageData(imageFormat(req.Image.MimeType), req.Image.Data))
	}

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return assistant.Intent{}, fmt.Errorf("failed to generate content: %w", err)
	}

	answer, err := responseText(resp)
	if err != nil {
		return assistant.Intent{}, err
	}
	return assistant.ParseAnswer(answer), nil
}

// imageFormat maps a MIME type to the short format genai.ImageData wants.
func imageFormat(mimeType string) string {
	format := strings.TrimPrefix(strings.ToLower(mimeType), "image/")
	if format == "" || format == "jpg" {
		return "jpeg"
	}
	return format
}

func (c *Classifier) buildPrompt(message string) string {
	now := c.cal.Now()
	var sb strings.Builder

	sb.WriteString(`Voce e o Meu Gestor, um assistente financeiro pessoal no WhatsApp. Classifique a mensagem do usuario em UMA acao e extraia os campos.

ACOES E CAMPOS:
- register_expense: description, value (numero), category
- register_income: description, value (numero)
- create_reminder: description, due_date (YYYY-MM-DDTHH:MM:SS, horario local, sem fuso), recurrence ("monthly" ou vazio), notification_day_offset (dias de antecedencia, inteiro)
- add_planned_expense: name, due_day (1-31)
- get_dashboard_link: nenhum campo
- get_summary: period (texto do periodo, ex: "este mes", "hoje", "ontem", "ultimos 10 dias"), category (opcional)
- get_reminders: period (ex: "hoje", "amanha", "25/12/2024")
- create_category: category_name
- list_categories: nenhum campo
- delete_category: category_name
- delete_last_expense: nenhum campo
- edit_last_expense_value: new_value (numero)
- not_understood: raw_response (resposta curta e amigavel em Portugues)

REGRAS:
- Responda apenas com um objeto JSON contendo "action" e os campos da acao.
- Valores monetarios sao numeros com ponto decimal (ex: 1234.56).
- Para imagens de cupom fiscal use register_expense com o total do cupom.
`)
	fmt.Fprintf(&sb, "- Data e hora atual: %s (%s).\n", now.Format("2006-01-02T15:04:05"), now.Format("Monday"))
	sb.WriteString("\nMENSAGEM:\n")
	sb.WriteString(message)
	sb.WriteString("\n")
	return sb.String()
}

// responseText joins the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("empty response from gemini")
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil {
		return "", fmt.Errorf("empty content in gemini response")
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("no text content in gemini response")
	}
	return sb.String(), nil
}

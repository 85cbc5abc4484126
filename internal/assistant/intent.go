package assistant

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Intent is a classified message: the action plus whichever fields it uses.
type Intent struct {
	Action    Action
	RawAction string

	Description string
	Value       decimal.Decimal
	Category    string

	// DueDate is the zone-less local datetime the classifier extracted.
	DueDate               string
	Recurrence            string
	NotificationDayOffset int

	Name   string
	DueDay int

	Period       string
	CategoryName string
	NewValue     decimal.Decimal

	RawResponse string
}

// Monthly reports whether the reminder should repeat every month.
func (i Intent) Monthly() bool {
	return strings.EqualFold(strings.TrimSpace(i.Recurrence), "monthly")
}

type wireIntent struct {
	Action                string      `json:"action"`
	Description           string      `json:"description"`
	Value                 flexDecimal `json:"value"`
	Category              string      `json:"category"`
	DueDate               string      `json:"due_date"`
	Recurrence            string      `json:"recurrence"`
	NotificationDayOffset flexInt     `json:"notification_day_offset"`
	Name                  string      `json:"name"`
	DueDay                flexInt     `json:"due_day"`
	Period                string      `json:"period"`
	CategoryName          string      `json:"category_name"`
	NewValue              flexDecimal `json:"new_value"`
	RawResponse           string      `json:"raw_response"`
}

// ParseAnswer decodes a classifier answer. Answers that are not a JSON
// object become ActionNotUnderstood carrying the text as RawResponse.
func ParseAnswer(answer string) Intent {
	trimmed := strings.TrimSpace(answer)
	body := strings.TrimPrefix(trimmed, "```json")
	body = strings.TrimPrefix(body, "```")
	body = strings.TrimSuffix(body, "```")
	body = strings.TrimSpace(body)

	var w wireIntent
	if err := json.Unmarshal([]byte(body), &w); err != nil {
		return Intent{Action: ActionNotUnderstood, RawAction: string(ActionNotUnderstood), RawResponse: trimmed}
	}

	return Intent{
		Action:                ParseAction(w.Action),
		RawAction:             w.Action,
		Description:           strings.TrimSpace(w.Description),
		Value:                 decimal.Decimal(w.Value),
		Category:              strings.TrimSpace(w.Category),
		DueDate:               strings.TrimSpace(w.DueDate),
		Recurrence:            w.Recurrence,
		NotificationDayOffset: int(w.NotificationDayOffset),
		Name:                  strings.TrimSpace(w.Name),
		DueDay:                int(w.DueDay),
		Period:                strings.TrimSpace(w.Period),
		CategoryName:          strings.TrimSpace(w.CategoryName),
		NewValue:              decimal.Decimal(w.NewValue),
		RawResponse:           w.RawResponse,
	}
}

// flexDecimal accepts 50, 50.5, "50.5", "50,50" and "R$ 1.234,56".
// Anything unparsable decodes as zero.
type flexDecimal decimal.Decimal

func (f *flexDecimal) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	raw := string(b)
	if b[0] == '"' {
		s, err := strconv.Unquote(raw)
		if err != nil {
			return nil
		}
		raw = normalizeAmount(s)
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		*f = flexDecimal(decimal.Zero)
		return nil
	}
	*f = flexDecimal(d)
	return nil
}

func normalizeAmount(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "R$")
	s = strings.ReplaceAll(s, " ", "")
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	}
	return s
}

// flexInt accepts 10, 10.0 and "10".
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	raw := string(b)
	if b[0] == '"' {
		s, err := strconv.Unquote(raw)
		if err != nil {
			return nil
		}
		raw = strings.TrimSpace(s)
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil
	}
	*f = flexInt(d.IntPart())
	return nil
}

package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "meugestor/internal/errors"
	"meugestor/internal/lock"
	"meugestor/internal/logger"
)

// Webhook statuses returned to the gateway. The gateway only checks for a 2xx;
// the status string is for operators reading its delivery log.
const (
	StatusIgnoredEvent      = "evento_ignorado"
	StatusOwnMessage        = "mensagem_propria_ignorada"
	StatusInsufficientData  = "dados_insuficientes"
	StatusUnsupportedType   = "tipo_nao_suportado"
	StatusClassifierFailure = "falha_classificador"
	StatusDuplicate         = "duplicada"
	StatusProcessed         = "processado"
)

const (
	upsertEvent = "messages.upsert"
	// webhookDedupeTTL covers the gateway's redelivery window.
	webhookDedupeTTL = 10 * time.Minute
)

// MessageHandler processes inbound WhatsApp messages.
type MessageHandler interface {
	HandleText(ctx context.Context, sender, text string) error
	HandleImage(ctx context.Context, sender, mediaURL string) error
	HandleAudio(ctx context.Context, sender string) error
}

// WebhookHandler receives Evolution API events.
type WebhookHandler struct {
	messages MessageHandler
	claimer  lock.Claimer
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(messages MessageHandler, claimer lock.Claimer) *WebhookHandler {
	return &WebhookHandler{messages: messages, claimer: claimer}
}

// EvolutionEvent is the subset of an Evolution API webhook body the assistant reads.
type EvolutionEvent struct {
	Event string           `json:"event"`
	Data  EvolutionPayload `json:"data"`
}

// EvolutionPayload carries one message.
type EvolutionPayload struct {
	Key     EvolutionKey      `json:"key"`
	Message *EvolutionMessage `json:"message"`
}

// EvolutionKey identifies a message and its chat.
type EvolutionKey struct {
	ID        string `json:"id"`
	RemoteJID string `json:"remoteJid"`
	FromMe    bool   `json:"fromMe"`
}

// EvolutionMessage holds the supported message kinds.
type EvolutionMessage struct {
	Conversation        string               `json:"conversation"`
	ExtendedTextMessage *EvolutionText       `json:"extendedTextMessage"`
	ImageMessage        *EvolutionAttachment `json:"imageMessage"`
	AudioMessage        *EvolutionAttachment `json:"audioMessage"`
	MediaURL            string               `json:"mediaUrl"`
	URL                 string               `json:"url"`
}

// EvolutionText is a text message with formatting or a quote.
type EvolutionText struct {
	Text string `json:"text"`
}

// EvolutionAttachment is the metadata of a media message.
type EvolutionAttachment struct {
	URL      string `json:"url"`
	Mimetype string `json:"mimetype"`
}

func (m *EvolutionMessage) text() string {
	if m.Conversation != "" {
		return m.Conversation
	}
	if m.ExtendedTextMessage != nil {
		return m.ExtendedTextMessage.Text
	}
	return ""
}

func (m *EvolutionMessage) mediaURL() string {
	switch {
	case m.MediaURL != "":
		return m.MediaURL
	case m.URL != "":
		return m.URL
	case m.ImageMessage != nil:
		return m.ImageMessage.URL
	}
	return ""
}

// Receive handles an Evolution API webhook call
// @Summary     Evolution webhook
// @Description Receives WhatsApp messages from the Evolution API gateway and answers them
// @Tags        webhook
// @Accept      json
// @Produce     json
// @Param       request body     EvolutionEvent true "Webhook event"
// @Success     200     {object} map[string]string "Processing status"
// @Failure     400     {object} ErrorResponse "Malformed body"
// @Failure     500     {object} ErrorResponse "Processing failed; the gateway may retry"
// @Router      /webhook/evolution [post]
func (h *WebhookHandler) Receive(c *gin.Context) {
	var event EvolutionEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	log := logger.Named("webhook")

	if event.Event != upsertEvent {
		c.JSON(http.StatusOK, gin.H{"status": StatusIgnoredEvent})
		return
	}
	data := event.Data
	if data.Key.FromMe {
		c.JSON(http.StatusOK, gin.H{"status": StatusOwnMessage})
		return
	}
	sender := strings.TrimSpace(data.Key.RemoteJID)
	if sender == "" || data.Message == nil {
		c.JSON(http.StatusOK, gin.H{"status": StatusInsufficientData})
		return
	}

	msg := data.Message
	var process func(ctx context.Context) error
	switch {
	case msg.text() != "":
		text := msg.text()
		process = func(ctx context.Context) error { return h.messages.HandleText(ctx, sender, text) }
	case msg.AudioMessage != nil:
		process = func(ctx context.Context) error { return h.messages.HandleAudio(ctx, sender) }
	case msg.ImageMessage != nil && msg.mediaURL() != "":
		url := msg.mediaURL()
		process = func(ctx context.Context) error { return h.messages.HandleImage(ctx, sender, url) }
	default:
		log.Infow("unsupported message type", "sender", sender, "message_id", data.Key.ID)
		c.JSON(http.StatusOK, gin.H{"status": StatusUnsupportedType})
		return
	}

	// The gateway keeps the request open while we work; a client disconnect
	// must not abort a half-applied intent.
	ctx := context.WithoutCancel(c.Request.Context())

	dedupeKey, dedupeToken := "", ""
	if data.Key.ID != "" {
		dedupeKey = "webhook:" + data.Key.ID
		token, claimed, err := h.claimer.Claim(ctx, dedupeKey, webhookDedupeTTL)
		if err != nil {
			// dedupe is best effort; process anyway
			log.Warnw("failed to claim message key", "message_id", data.Key.ID, "error", err)
			dedupeKey = ""
		} else if !claimed {
			log.Infow("duplicate delivery dropped", "message_id", data.Key.ID)
			c.JSON(http.StatusOK, gin.H{"status": StatusDuplicate})
			return
		}
		dedupeToken = token
	}

	if err := process(ctx); err != nil {
		if errors.Is(err, apperrors.ErrClassifierUnavailable) {
			c.JSON(http.StatusOK, gin.H{"status": StatusClassifierFailure})
			return
		}
		log.Errorw("failed to process message", "sender", sender, "message_id", data.Key.ID, "error", err)
		if dedupeKey != "" {
			if rerr := h.claimer.Release(ctx, dedupeKey, dedupeToken); rerr != nil {
				log.Warnw("failed to release message key", "message_id", data.Key.ID, "error", rerr)
			}
		}
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": StatusProcessed})
}

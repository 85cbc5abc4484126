package assistant

import (
	"context"

	"go.uber.org/zap"

	"meugestor/internal/clock"
	apperrors "meugestor/internal/errors"
	"meugestor/internal/logger"
	"meugestor/internal/services"
)

const (
	// ReceiptPrompt accompanies receipt photos sent to the classifier.
	ReceiptPrompt = "Analise este cupom fiscal e registre a despesa."
	// MsgAudioUnsupported answers voice notes.
	MsgAudioUnsupported = "🎙️ Ainda não consigo entender mensagens de áudio. Pode me mandar por texto?"
)

// MediaFetcher downloads an inbound attachment.
type MediaFetcher interface {
	FetchMedia(ctx context.Context, url string) (*Image, error)
}

// Assistant is the inbound message pipeline: identify the sender, classify
// the message, execute the intent and send the reply.
type Assistant struct {
	users      services.UserServicer
	categories services.CategoryServicer
	classifier Classifier
	media      MediaFetcher
	dispatcher *Dispatcher
	notifier   services.Notifier
	cal        *clock.Calendar
	log        *zap.SugaredLogger
}

// New creates an Assistant. media may be nil when image messages are not
// supported by the gateway.
func New(users services.UserServicer, categories services.CategoryServicer, classifier Classifier,
	media MediaFetcher, dispatcher *Dispatcher, notifier services.Notifier, cal *clock.Calendar) *Assistant {
	return &Assistant{
		users:      users,
		categories: categories,
		classifier: classifier,
		media:      media,
		dispatcher: dispatcher,
		notifier:   notifier,
		cal:        cal,
		log:        logger.Named("assistant"),
	}
}

// HandleText processes a text message from sender (a WhatsApp JID).
// It returns ErrClassifierUnavailable when the classifier failed; the
// apology has already been sent in that case.
func (a *Assistant) HandleText(ctx context.Context, sender, text string) error {
	return a.handle(ctx, sender, text, nil)
}

// HandleImage downloads the attachment at mediaURL and classifies it as a receipt.
func (a *Assistant) HandleImage(ctx context.Context, sender, mediaURL string) error {
	if a.media == nil {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "image messages are not supported")
	}
	img, err := a.media.FetchMedia(ctx, mediaURL)
	if err != nil {
		a.log.Errorw("failed to download media", "sender", sender, "error", err)
		a.send(ctx, sender, MsgInternalError)
		return apperrors.Wrap(apperrors.ErrClassifierUnavailable, err)
	}
	return a.handle(ctx, sender, ReceiptPrompt, img)
}

// HandleAudio answers a voice note with the unsupported notice.
func (a *Assistant) HandleAudio(ctx context.Context, sender string) error {
	a.send(ctx, sender, MsgAudioUnsupported)
	return nil
}

func (a *Assistant) handle(ctx context.Context, sender, text string, img *Image) error {
	user, err := a.users.GetOrCreateByPhone(sender)
	if err != nil {
		return err
	}
	if err := a.users.RecordActivity(user.ID, a.cal.Now()); err != nil {
		a.log.Warnw("failed to record activity", "user_id", user.ID, "error", err)
	}

	if img == nil && NeedsCategoryContext(text) {
		text = a.enrich(user.ID, text)
	}

	intent, err := a.classifier.Classify(ctx, Request{UserKey: UserKey(sender), Text: text, Image: img})
	if err != nil {
		a.log.Errorw("classifier failed", "user_id", user.ID, "error", err)
		a.send(ctx, sender, MsgInternalError)
		return apperrors.Wrap(apperrors.ErrClassifierUnavailable, err)
	}

	a.log.Infow("message classified", "user_id", user.ID, "action", intent.Action)
	a.send(ctx, sender, a.dispatcher.Reply(ctx, user, intent))
	return nil
}

func (a *Assistant) enrich(userID, text string) string {
	views, err := a.categories.ListCategories(userID)
	if err != nil {
		a.log.Warnw("failed to load categories for enrichment", "user_id", userID, "error", err)
		return text
	}
	names := make([]string, 0, len(views))
	for _, v := range views {
		names = append(names, v.Name)
	}
	return EnrichText(text, names)
}

// send delivers a reply; failures are logged and dropped.
func (a *Assistant) send(ctx context.Context, recipient, text string) {
	if err := a.notifier.Deliver(ctx, recipient, text); err != nil {
		a.log.Errorw("failed to deliver reply", "recipient", recipient, "error", err)
	}
}

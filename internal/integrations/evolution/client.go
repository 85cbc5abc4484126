// Package evolution talks to the Evolution API WhatsApp gateway.
package evolution

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"meugestor/internal/assistant"
	apperrors "meugestor/internal/errors"
	"meugestor/internal/services"
)

const (
	defaultTimeout = 30 * time.Second
	// sendDelayMs makes the gateway show "typing..." before the message.
	sendDelayMs  = 1200
	maxMediaSize = 16 << 20
)

// Client sends WhatsApp messages and downloads inbound media.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	instance   string
}

var (
	_ services.Notifier      = (*Client)(nil)
	_ assistant.MediaFetcher = (*Client)(nil)
)

// NewClient creates an Evolution API client for one instance.
func NewClient(baseURL, apiKey, instance string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		instance:   instance,
	}
}

type sendTextRequest struct {
	Number  string      `json:"number"`
	Options sendOptions `json:"options"`
	Text    string      `json:"text"`
}

type sendOptions struct {
	Delay int `json:"delay"`
}

// Deliver sends text to recipient. Failures wrap ErrDeliveryFailed.
func (c *Client) Deliver(ctx context.Context, recipient, text string) error {
	body, err := json.Marshal(sendTextRequest{
		Number:  services.DisplayPhone(recipient),
		Options: sendOptions{Delay: sendDelayMs},
		Text:    text,
	})
	if err != nil {
		return apperrors.Wrap(apperrors.ErrDeliveryFailed, err)
	}

	endpoint := fmt.Sprintf("%s/message/sendText/%s", c.baseURL, url.PathEscape(c.instance))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return apperrors.Wrap(apperrors.ErrDeliveryFailed, err)
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrDeliveryFailed, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apperrors.Wrap(apperrors.ErrDeliveryFailed, fmt.Errorf("sendText returned status %d", resp.StatusCode))
	}
	return nil
}

// FetchMedia downloads an attachment referenced by the webhook payload.
func (c *Client) FetchMedia(ctx context.Context, mediaURL string) (*assistant.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download media: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("media download returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxMediaSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read media: %w", err)
	}
	if len(data) > maxMediaSize {
		return nil, fmt.Errorf("media exceeds %d bytes", maxMediaSize)
	}

	mimeType := "image/jpeg"
	if mt, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type")); err == nil && strings.HasPrefix(mt, "image/") {
		mimeType = mt
	}
	return &assistant.Image{Data: data, MimeType: mimeType, Filename: "image.jpeg"}, nil
}

// Package dify classifies WhatsApp messages through a Dify chat app.
package dify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"meugestor/internal/assistant"
	"meugestor/internal/logger"
)

const (
	chatPath       = "/chat-messages"
	uploadPath     = "/files/upload"
	defaultTimeout = 180 * time.Second
	// maxErrorBody bounds how much of a failed response ends up in logs.
	maxErrorBody = 512
)

// Client calls the Dify chat-messages API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

var _ assistant.Classifier = (*Client)(nil)

// NewClient creates a Dify client. A zero timeout uses the default.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
	}
}

// chatRequest is the blocking chat-messages payload.
type chatRequest struct {
	Inputs       map[string]any `json:"inputs"`
	Query        string         `json:"query"`
	User         string         `json:"user"`
	ResponseMode string         `json:"response_mode"`
	Files        []chatFile     `json:"files,omitempty"`
}

type chatFile struct {
	Type           string `json:"type"`
	TransferMethod string `json:"transfer_method"`
	UploadFileID   string `json:"upload_file_id"`
}

type chatResponse struct {
	Answer string `json:"answer"`
}

type uploadResponse struct {
	ID string `json:"id"`
}

func (c *Client) authorization() string {
	if strings.HasPrefix(c.apiKey, "Bearer ") {
		return c.apiKey
	}
	return "Bearer " + c.apiKey
}

// Classify sends the message (uploading the image first, when present) and
// decodes the app's answer into an Intent.
func (c *Client) Classify(ctx context.Context, req assistant.Request) (assistant.Intent, error) {
	payload := chatRequest{
		Inputs:       map[string]any{},
		Query:        req.Text,
		User:         req.UserKey,
		ResponseMode: "blocking",
	}
	if req.Image != nil {
		fileID, err := c.UploadFile(ctx, req.UserKey, req.Image)
		if err != nil {
			return assistant.Intent{}, err
		}
		payload.Files = []chatFile{{Type: "image", TransferMethod: "local_file", UploadFileID: fileID}}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return assistant.Intent{}, fmt.Errorf("failed to encode chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+chatPath, bytes.NewReader(body))
	if err != nil {
		return assistant.Intent{}, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Authorization", c.authorization())
	httpReq.Header.Set("Content-Type", "application/json")

	var resp chatResponse
	if err := c.do(httpReq, &resp); err != nil {
		return assistant.Intent{}, err
	}

	intent := assistant.ParseAnswer(resp.Answer)
	if intent.Action == assistant.ActionNotUnderstood && intent.RawResponse != "" {
		logger.Get().Warnw("dify answered with plain text", "user", req.UserKey)
	}
	return intent, nil
}

// UploadFile stores img on Dify and returns its file id.
func (c *Client) UploadFile(ctx context.Context, user string, img *assistant.Image) (string, error) {
	filename := img.Filename
	if filename == "" {
		filename = "image.jpeg"
	}
	mimeType := img.MimeType
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, filename))
	h.Set("Content-Type", mimeType)
	part, err := w.CreatePart(h)
	if err != nil {
		return "", fmt.Errorf("failed to create file part: %w", err)
	}
	if _, err := part.Write(img.Data); err != nil {
		return "", fmt.Errorf("failed to write file part: %w", err)
	}
	if err := w.WriteField("user", user); err != nil {
		return "", fmt.Errorf("failed to write user field: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to finish multipart body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+uploadPath, &buf)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Authorization", c.authorization())
	httpReq.Header.Set("Content-Type", w.FormDataContentType())

	var resp uploadResponse
	if err := c.do(httpReq, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", fmt.Errorf("dify upload returned no file id")
	}
	return resp.ID, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return fmt.Errorf("dify %s returned status %d: %s", req.URL.Path, resp.StatusCode, string(body))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"voicehook/pkg/faults"
	"voicehook/pkg/logger"

	"go.uber.org/zap"
)

const transcriptionsPath = "/audio/transcriptions"

// Client calls the Whisper speech-to-text endpoint.
type Client struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

func NewClient(apiKey, baseURL, model string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		model:   model,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

type transcriptionResponse struct {
	Text string `json:"text"`
}

// Transcribe uploads the audio stream and returns the recognized text.
// An empty string is a valid result when no speech is detected.
func (c *Client) Transcribe(ctx context.Context, audio io.Reader, filename, language string) (string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", faults.Upstream("transcribe audio", err)
	}
	if _, err := io.Copy(part, audio); err != nil {
		return "", faults.LocalIO("read audio", err)
	}

	if err := writer.WriteField("model", c.model); err != nil {
		return "", faults.Upstream("transcribe audio", err)
	}
	if language != "" {
		if err := writer.WriteField("language", language); err != nil {
			return "", faults.Upstream("transcribe audio", err)
		}
	}

	if err := writer.Close(); err != nil {
		return "", faults.Upstream("transcribe audio", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+transcriptionsPath, &buf)
	if err != nil {
		return "", faults.Upstream("transcribe audio", err)
	}

	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	logger.Debug("Submitting audio for transcription",
		zap.String("model", c.model),
		zap.String("filename", filename))

	resp, err := c.client.Do(req)
	if err != nil {
		return "", faults.FromTransport("transcribe audio", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", faults.FromTransport("transcribe audio", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", faults.Upstreamf("transcribe audio", "status=%d, body=%s", resp.StatusCode, string(body))
	}

	var result transcriptionResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", faults.Upstreamf("transcribe audio", "malformed response: %v", err)
	}

	logger.Info("Transcription completed", zap.Int("text_length", len(result.Text)))

	return result.Text, nil
}

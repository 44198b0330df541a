package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"voicehook/pkg/faults"
	"voicehook/pkg/logger"

	"go.uber.org/zap"
)

const completionsPath = "/chat/completions"

const systemPrompt = `You are an intelligent assistant that extracts structured data from student study voice messages.

The input will be a transcribed sentence from a voice message.

The sentence format is usually:
"{student name} studied {hours} hours a day"

Extract:
- student_name (string)
- hours_per_day (number)

Return output strictly in JSON format like this:

{
  "student_name": "Rahul",
  "hours_per_day": 5
}

If the format is unclear, still try your best to infer.
Do not return anything except JSON.`

// Record is the structured result extracted from a transcript.
type Record struct {
	StudentName string  `json:"student_name"`
	HoursPerDay float64 `json:"hours_per_day"`
}

// Client calls the chat completions endpoint in JSON mode.
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

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

// Temperature is always serialized so the extraction stays pinned to the
// most deterministic setting; it is not a caller-tunable knob.
type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	ResponseFormat responseFormat `json:"response_format"`
	Temperature    float32        `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Extract applies the fixed extraction prompt to free-form text and
// parses the model's JSON-mode reply into a Record.
func (c *Client) Extract(ctx context.Context, text string) (*Record, error) {
	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: text},
		},
		ResponseFormat: responseFormat{Type: "json_object"},
		Temperature:    0,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, faults.Upstream("extract record", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+completionsPath, bytes.NewReader(body))
	if err != nil {
		return nil, faults.Upstream("extract record", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	logger.Debug("Requesting structured extraction",
		zap.String("model", c.model),
		zap.Int("text_length", len(text)))

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, faults.FromTransport("extract record", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, faults.FromTransport("extract record", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, faults.Upstreamf("extract record", "status=%d, body=%s", resp.StatusCode, string(respBody))
	}

	var result chatResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, faults.Upstreamf("extract record", "malformed response: %v", err)
	}
	if result.Error != nil {
		return nil, faults.Upstreamf("extract record", "%s: %s", result.Error.Type, result.Error.Message)
	}
	if len(result.Choices) == 0 {
		return nil, faults.Upstreamf("extract record", "response contains no choices")
	}

	record, err := parseRecord(result.Choices[0].Message.Content)
	if err != nil {
		return nil, faults.Parse("extract record", err)
	}

	logger.Info("Extraction completed",
		zap.String("student_name", record.StudentName),
		zap.Float64("hours_per_day", record.HoursPerDay))

	return record, nil
}

// parseRecord checks that the model reply is a JSON object carrying both
// required keys before decoding it.
func parseRecord(content string) (*Record, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(content), &fields); err != nil {
		return nil, fmt.Errorf("not a JSON object: %w", err)
	}

	for _, key := range []string{"student_name", "hours_per_day"} {
		if _, ok := fields[key]; !ok {
			return nil, fmt.Errorf("missing required key %q", key)
		}
	}

	var record Record
	if err := json.Unmarshal([]byte(content), &record); err != nil {
		return nil, fmt.Errorf("unexpected field types: %w", err)
	}

	return &record, nil
}

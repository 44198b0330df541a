package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"voicehook/pkg/faults"
	"voicehook/pkg/logger"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v4"
)

// Client is a thin wrapper over the Telegram Bot API covering the four
// operations the pipeline needs: file-path resolution, file download,
// text replies and webhook (de)registration.
type Client struct {
	bot  *tele.Bot
	http *http.Client
}

func NewClient(token string) (*Client, error) {
	return newClient(token, "")
}

// newClient allows pointing at a different API base URL in tests.
func newClient(token, apiURL string) (*Client, error) {
	pref := tele.Settings{
		URL:     apiURL,
		Token:   token,
		Offline: true,
		Client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	bot, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	return &Client{
		bot: bot,
		http: &http.Client{
			Timeout: 60 * time.Second,
		},
	}, nil
}

// FilePath resolves a file_id to the short-lived download path on
// Telegram's file servers.
func (c *Client) FilePath(fileID string) (string, error) {
	file, err := c.bot.FileByID(fileID)
	if err != nil {
		return "", faults.FromTransport("get file path", err)
	}

	logger.Debug("Resolved Telegram file path",
		zap.String("file_id", fileID),
		zap.String("file_path", file.FilePath))

	return file.FilePath, nil
}

// DownloadFile fetches the raw bytes behind a resolved file path.
func (c *Client) DownloadFile(ctx context.Context, filePath string) ([]byte, error) {
	fileURL := c.bot.URL + "/file/bot" + c.bot.Token + "/" + filePath

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, faults.Upstream("download file", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, faults.FromTransport("download file", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, faults.Upstreamf("download file", "unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, faults.FromTransport("download file", err)
	}

	logger.Debug("File downloaded from Telegram",
		zap.String("file_path", filePath),
		zap.Int("size", len(data)))

	return data, nil
}

// Send delivers one text message to a chat.
func (c *Client) Send(chatID int64, text string, mode tele.ParseMode) error {
	chat := &tele.Chat{ID: chatID}

	_, err := c.bot.Send(chat, text, &tele.SendOptions{ParseMode: mode})
	if err != nil {
		return faults.FromTransport("send message", err)
	}

	return nil
}

// SetWebhook registers baseURL + "/webhook" as the bot's webhook.
// Calling it again with the same URL is a no-op on Telegram's side.
func (c *Client) SetWebhook(baseURL string) ([]byte, error) {
	payload := map[string]string{
		"url": baseURL + "/webhook",
	}

	data, err := c.bot.Raw("setWebhook", payload)
	if err != nil {
		return nil, faults.FromTransport("set webhook", err)
	}

	logger.Info("Webhook registered", zap.String("base_url", baseURL))

	return data, nil
}

// DeleteWebhook removes the currently registered webhook.
func (c *Client) DeleteWebhook() ([]byte, error) {
	data, err := c.bot.Raw("deleteWebhook", nil)
	if err != nil {
		return nil, faults.FromTransport("delete webhook", err)
	}

	logger.Info("Webhook removed")

	return data, nil
}

package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"voicehook/internal/extract"
	"voicehook/pkg/cache"
	"voicehook/pkg/faults"
	"voicehook/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
	tele "gopkg.in/telebot.v4"
)

const resultCacheTTL = 24 * time.Hour

const (
	replyWelcome = "👋 *Welcome to the Voice Transcriber Bot!*\n\n" +
		"Send me a voice message like:\n" +
		"🎙️ _\"Rahul studied 5 hours a day\"_\n\n" +
		"I'll transcribe it and extract the student's name and study hours."
	replySendVoice  = "🎤 Please send a *voice message* so I can transcribe it."
	replyProcessing = "⏳ Processing your voice message..."
)

// Messenger covers the messaging-platform operations the pipeline needs.
type Messenger interface {
	FilePath(fileID string) (string, error)
	DownloadFile(ctx context.Context, filePath string) ([]byte, error)
	Send(chatID int64, text string, mode tele.ParseMode) error
	SetWebhook(baseURL string) ([]byte, error)
	DeleteWebhook() ([]byte, error)
}

// Transcriber converts an audio stream to plain text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio io.Reader, filename, language string) (string, error)
}

// Extractor produces a structured record from free-form text.
type Extractor interface {
	Extract(ctx context.Context, text string) (*extract.Record, error)
}

// Handler drives the download → transcribe → extract → reply pipeline
// for inbound webhook events.
type Handler struct {
	relay        Messenger
	stt          Transcriber
	extractor    Extractor
	cache        cache.Cache
	downloadsDir string
	language     string
}

func NewHandler(relay Messenger, stt Transcriber, extractor Extractor, resultCache cache.Cache, downloadsDir, language string) *Handler {
	return &Handler{
		relay:        relay,
		stt:          stt,
		extractor:    extractor,
		cache:        resultCache,
		downloadsDir: downloadsDir,
		language:     language,
	}
}

// HandleUpdate processes one inbound event. It always acknowledges with
// {"ok": true} so the platform does not retry delivery.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	defer writeOK(w)

	var update tele.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		logger.Warn("Failed to decode inbound update", zap.Error(err))
		return
	}

	msg := update.Message
	if msg == nil || msg.Chat == nil || msg.Chat.ID == 0 {
		return
	}
	chatID := msg.Chat.ID

	log := logger.With(
		zap.String("event_id", uuid.New().String()),
		zap.Int64("chat_id", chatID))

	switch {
	case strings.HasPrefix(msg.Text, "/start"):
		h.sendReply(log, chatID, replyWelcome)
	case msg.Voice == nil:
		h.sendReply(log, chatID, replySendVoice)
	default:
		h.processVoice(r.Context(), log, chatID, msg.Voice)
	}
}

// processVoice runs the voice pipeline for one event. The transient
// audio file is removed on every exit path.
func (h *Handler) processVoice(ctx context.Context, log *zap.Logger, chatID int64, voice *tele.Voice) {
	localPath := filepath.Join(h.downloadsDir, voice.FileID+".ogg")
	defer h.removeAudio(log, localPath)

	transcript, record, err := h.runPipeline(ctx, log, chatID, voice, localPath)
	if err != nil {
		log.Error("Voice pipeline failed",
			zap.String("file_id", voice.FileID),
			zap.String("kind", faults.Classify(err).String()),
			zap.Error(err))
		h.sendReply(log, chatID, errorReply(err))
		return
	}

	h.sendReply(log, chatID, formatReply(transcript, record))
}

func (h *Handler) runPipeline(ctx context.Context, log *zap.Logger, chatID int64, voice *tele.Voice, localPath string) (string, *extract.Record, error) {
	if err := h.relay.Send(chatID, replyProcessing, tele.ModeMarkdown); err != nil {
		return "", nil, err
	}

	if res, ok := h.cachedResult(ctx, log, voice.UniqueID); ok {
		return res.Transcript, res.Record, nil
	}

	if err := h.download(ctx, log, voice.FileID, localPath); err != nil {
		return "", nil, err
	}

	transcript, err := h.transcribeFile(ctx, localPath)
	if err != nil {
		return "", nil, err
	}
	log.Info("Voice transcribed", zap.Int("text_length", len(transcript)))

	record, err := h.extractor.Extract(ctx, transcript)
	if err != nil {
		return "", nil, err
	}

	h.storeResult(ctx, log, voice.UniqueID, transcript, record)

	return transcript, record, nil
}

func (h *Handler) download(ctx context.Context, log *zap.Logger, fileID, localPath string) error {
	pathToken, err := h.relay.FilePath(fileID)
	if err != nil {
		return err
	}

	data, err := h.relay.DownloadFile(ctx, pathToken)
	if err != nil {
		return err
	}

	if err := os.WriteFile(localPath, data, 0o644); err != nil {
		return faults.LocalIO("save audio", err)
	}

	log.Info("Voice file downloaded",
		zap.String("path", localPath),
		zap.Int("size", len(data)))

	return nil
}

func (h *Handler) transcribeFile(ctx context.Context, localPath string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", faults.LocalIO("open audio", err)
	}
	defer f.Close()

	return h.stt.Transcribe(ctx, f, filepath.Base(localPath), h.language)
}

// removeAudio deletes the transient audio file. Failures are logged
// only; they never reach the caller.
func (h *Handler) removeAudio(log *zap.Logger, path string) {
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return
		}
		log.Warn("Failed to remove audio file",
			zap.String("path", path),
			zap.Error(err))
		return
	}
	log.Debug("Removed audio file", zap.String("path", path))
}

func (h *Handler) sendReply(log *zap.Logger, chatID int64, text string) {
	if err := h.relay.Send(chatID, text, tele.ModeMarkdown); err != nil {
		log.Error("Failed to send reply", zap.Error(err))
	}
}

type cachedResult struct {
	Transcript string          `json:"transcript"`
	Record     *extract.Record `json:"record"`
}

func (h *Handler) cachedResult(ctx context.Context, log *zap.Logger, uniqueID string) (*cachedResult, bool) {
	if h.cache == nil || uniqueID == "" {
		return nil, false
	}

	var res cachedResult
	if err := h.cache.Get(ctx, cache.TranscriptCacheKey(uniqueID), &res); err != nil {
		return nil, false
	}
	if res.Record == nil {
		return nil, false
	}

	log.Info("Pipeline result served from cache", zap.String("file_unique_id", uniqueID))

	return &res, true
}

func (h *Handler) storeResult(ctx context.Context, log *zap.Logger, uniqueID, transcript string, record *extract.Record) {
	if h.cache == nil || uniqueID == "" {
		return
	}

	res := cachedResult{Transcript: transcript, Record: record}
	if err := h.cache.SetWithTTL(ctx, cache.TranscriptCacheKey(uniqueID), res, resultCacheTTL); err != nil {
		log.Warn("Failed to cache pipeline result", zap.Error(err))
	}
}

func formatReply(transcript string, record *extract.Record) string {
	pretty, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		pretty = []byte("{}")
	}

	return fmt.Sprintf("📝 *Transcription:*\n_%s_\n\n📊 *Extracted Data:*\n```json\n%s\n```", transcript, pretty)
}

// errorReply maps a failure kind to the single user-visible error
// message for the event.
func errorReply(err error) string {
	var headline string
	switch faults.Classify(err) {
	case faults.KindTimeout:
		headline = "The upstream service took too long to respond"
	case faults.KindParse:
		headline = "I couldn't parse the extracted data"
	case faults.KindLocalIO:
		headline = "I couldn't handle the audio file"
	default:
		headline = "Sorry, something went wrong"
	}

	return fmt.Sprintf("❌ %s:\n`%v`", headline, err)
}

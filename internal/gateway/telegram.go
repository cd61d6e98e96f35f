package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/rahul/papersum/internal/extract"
)

const telegramUsage = "Send me a research paper as a PDF document (or a link to one) and I will reply with a short summary."

// TelegramGateway summarizes PDFs sent to a bot.
type TelegramGateway struct {
	Bot      *tgbotapi.BotAPI
	Service  *Service
	MaxBytes int64

	// fetch downloads a file by Telegram file ID.
	fetch func(ctx context.Context, fileID string) ([]byte, error)
}

func NewTelegramGateway(token string, svc *Service, maxBytes int64) (*TelegramGateway, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	svc.logger().Zerolog().Info().Str("account", bot.Self.UserName).Msg("telegram authorized")

	tg := &TelegramGateway{
		Bot:      bot,
		Service:  svc,
		MaxBytes: maxBytes,
	}
	tg.fetch = tg.download
	return tg, nil
}

func (tg *TelegramGateway) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := tg.Bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			tg.handle(ctx, update.Message)
		}
	}
}

func (tg *TelegramGateway) handle(ctx context.Context, m *tgbotapi.Message) {
	response := tg.reply(ctx, m)

	msg := tgbotapi.NewMessage(m.Chat.ID, response)
	msg.ReplyToMessageID = m.MessageID
	if _, err := tg.Bot.Send(msg); err != nil {
		tg.Service.logger().Zerolog().Warn().Err(err).Int64("chat_id", m.Chat.ID).Msg("telegram send failed")
	}
}

// reply produces the text answer for one incoming message. Errors become
// user-facing text; nothing here may take the bot down.
func (tg *TelegramGateway) reply(ctx context.Context, m *tgbotapi.Message) string {
	switch {
	case m.Document != nil:
		doc := m.Document
		if !isPDF(doc.FileName, doc.MimeType) {
			return "That does not look like a PDF. " + telegramUsage
		}
		if tg.MaxBytes > 0 && int64(doc.FileSize) > tg.MaxBytes {
			return fmt.Sprintf("That file is too large (limit %d MB).", tg.MaxBytes>>20)
		}
		data, err := tg.fetch(ctx, doc.FileID)
		if err != nil {
			return fmt.Sprintf("Error: could not download the document: %v", err)
		}
		res, err := tg.Service.SummarizeBytes(ctx, "telegram", doc.FileName, data)
		if err != nil {
			return fmt.Sprintf("Error: %v", err)
		}
		return formatReply(res)

	case extract.IsURL(strings.TrimSpace(m.Text)):
		res, err := tg.Service.SummarizeReference(ctx, "telegram", strings.TrimSpace(m.Text))
		if err != nil {
			return fmt.Sprintf("Error: %v", err)
		}
		return formatReply(res)
	}
	return telegramUsage
}

func formatReply(res *Result) string {
	var b strings.Builder
	if res.Title != "" && res.Title != "Unknown" {
		b.WriteString(res.Title)
		b.WriteString("\n\n")
	}
	b.WriteString(res.Summary)
	return b.String()
}

func isPDF(name, mime string) bool {
	return mime == "application/pdf" || strings.HasSuffix(strings.ToLower(name), ".pdf")
}

func (tg *TelegramGateway) download(ctx context.Context, fileID string) ([]byte, error) {
	url, err := tg.Bot.GetFileDirectURL(fileID)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	client := &http.Client{Timeout: 60 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status code %d", resp.StatusCode)
	}

	limit := tg.MaxBytes
	if limit <= 0 {
		limit = 50 << 20
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, errors.New("document exceeds size limit")
	}
	return data, nil
}

func (tg *TelegramGateway) Stop() error {
	tg.Bot.StopReceivingUpdates()
	return nil
}

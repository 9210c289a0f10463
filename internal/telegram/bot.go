package telegram

import (
	"encoding/json"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

type Bot struct {
	api *tgbotapi.BotAPI
	h   *Handlers
	log zerolog.Logger
}

// NewBot connects to the Bot API and points its webhook at webhookURL.
func NewBot(token, webhookURL string, deps Deps, log zerolog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	webhook, err := tgbotapi.NewWebhook(webhookURL)
	if err != nil {
		return nil, err
	}
	if _, err := api.Request(webhook); err != nil {
		return nil, err
	}
	log = log.With().Str("component", "telegram").Logger()
	log.Info().Str("webhook", webhookURL).Str("bot", api.Self.UserName).Msg("telegram webhook set")

	return &Bot{api: api, h: NewHandlers(api, deps, log), log: log}, nil
}

// WebhookHandler decodes an update and handles it in the background so
// Telegram gets its 200 right away. Registered at /telegram/webhook.
func (b *Bot) WebhookHandler(w http.ResponseWriter, r *http.Request) {
	webhookHandler(b.h, b.log)(w, r)
}

func webhookHandler(h *Handlers, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var update tgbotapi.Update
		if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
			http.Error(w, "bad update", http.StatusBadRequest)
			return
		}
		if update.Message == nil {
			log.Debug().Int("update_id", update.UpdateID).Msg("non-message update received")
			w.WriteHeader(http.StatusOK)
			return
		}
		if update.Message.Chat != nil {
			log.Debug().Int64("chat_id", update.Message.Chat.ID).Str("text", update.Message.Text).Msg("webhook message")
		}
		go h.HandleMessage(update.Message)
		w.WriteHeader(http.StatusOK)
	}
}

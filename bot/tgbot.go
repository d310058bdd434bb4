// Package bot implements the Telegram review bot.
//
// Admin chats listed in the config receive approval notices and decide
// pending requests from inline buttons:
//   - tgbot.go     TgBot struct, lifecycle (Start/Stop), Reviewer interface
//   - commands.go  /start, /help, /pending
//   - callbacks.go inline keyboard builder and the approve/deny handler
//   - menus.go     per-chat command menus
//   - messaging.go notice delivery (implements notify.Notifier)
//   - helpers.go   Sanitize, plainResponse, sendWithKeyboard
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"admitgate/entity"
	"admitgate/lib/sl"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers/filters/callbackquery"
)

// Reviewer is the part of the core the bot acts through.
type Reviewer interface {
	DecideApproval(ctx context.Context, caller *entity.Caller, requestId string, approve bool) (*entity.ApprovalRequest, error)
	PendingApprovals(ctx context.Context, caller *entity.Caller) ([]*entity.ApprovalRequest, error)
}

type sender interface {
	SendMessage(chatId int64, text string, opts *tgbotapi.SendMessageOpts) (*tgbotapi.Message, error)
	EditMessageText(text string, opts *tgbotapi.EditMessageTextOpts) (*tgbotapi.Message, bool, error)
}

type BotConfig struct {
	AdminIds []int64
	Topics   []string
}

type TgBot struct {
	log      *slog.Logger
	api      *tgbotapi.Bot
	send     sender
	mu       sync.RWMutex // guards reviewer
	reviewer Reviewer
	admins   map[int64]bool
	topics   map[string]bool
	updater  *ext.Updater
}

func NewTgBot(apiKey string, log *slog.Logger, cfg BotConfig) (*TgBot, error) {
	api, err := tgbotapi.NewBot(apiKey, nil)
	if err != nil {
		return nil, fmt.Errorf("creating api instance: %v", err)
	}
	tgBot := newTgBot(api, log, cfg)
	tgBot.api = api
	tgBot.updater = tgBot.newUpdater()
	return tgBot, nil
}

// newUpdater registers the handlers. The updater is fixed at construction so
// Stop can run from any goroutine.
func (t *TgBot) newUpdater() *ext.Updater {
	dispatcher := ext.NewDispatcher(&ext.DispatcherOpts{
		Error: func(b *tgbotapi.Bot, ctx *ext.Context, err error) ext.DispatcherAction {
			t.log.Error("handling update:", sl.Err(err))
			return ext.DispatcherActionNoop
		},
		MaxRoutines: ext.DefaultMaxRoutines,
	})

	dispatcher.AddHandler(handlers.NewCommand("start", t.start))
	dispatcher.AddHandler(handlers.NewCommand("help", t.help))
	dispatcher.AddHandler(handlers.NewCommand("pending", t.pending))

	dispatcher.AddHandler(handlers.NewCallback(callbackquery.Prefix(cbApprove), t.onDecisionCallback))
	dispatcher.AddHandler(handlers.NewCallback(callbackquery.Prefix(cbDeny), t.onDecisionCallback))

	return ext.NewUpdater(dispatcher, nil)
}

func newTgBot(send sender, log *slog.Logger, cfg BotConfig) *TgBot {
	t := &TgBot{
		log:    log.With(sl.Module("tgbot")),
		send:   send,
		admins: make(map[int64]bool, len(cfg.AdminIds)),
		topics: make(map[string]bool),
	}
	for _, id := range cfg.AdminIds {
		t.admins[id] = true
	}
	topics := cfg.Topics
	if len(topics) == 0 {
		topics = []string{entity.TopicApprovalRequested}
	}
	for _, topic := range topics {
		if entity.IsValidTopic(topic) {
			t.topics[topic] = true
		} else {
			t.log.With(slog.String("topic", topic)).Warn("ignoring unknown topic")
		}
	}
	return t
}

// SetReviewer attaches the core once it is built; the bot is created first
// because the core's services publish notices through it.
func (t *TgBot) SetReviewer(reviewer Reviewer) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.reviewer = reviewer
}

func (t *TgBot) getReviewer() Reviewer {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.reviewer
}

// Start polls for updates and blocks until Stop.
func (t *TgBot) Start() error {
	if t.api == nil || t.updater == nil {
		return fmt.Errorf("telegram api not initialized")
	}
	t.setDefaultCommands()
	t.syncAdminMenus()

	err := t.updater.StartPolling(t.api, &ext.PollingOpts{
		DropPendingUpdates: true,
		GetUpdatesOpts: &tgbotapi.GetUpdatesOpts{
			Timeout: 9,
			RequestOpts: &tgbotapi.RequestOpts{
				Timeout: time.Second * 10,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to start polling: %w", err)
	}
	t.log.With(slog.Int("admins", len(t.admins))).Info("telegram bot started")

	t.updater.Idle()
	return nil
}

func (t *TgBot) Stop() {
	if t.updater != nil {
		t.log.Info("stopping telegram bot")
		t.updater.Stop()
	}
}

func (t *TgBot) isAdmin(chatId int64) bool {
	return t.admins[chatId]
}

// callerFor maps an admin chat to the identity recorded as the reviewer.
func callerFor(chatId int64) *entity.Caller {
	return &entity.Caller{
		UserId: fmt.Sprintf("telegram:%d", chatId),
		Role:   entity.RoleAdmin,
	}
}

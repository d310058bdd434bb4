package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
)

const commandTimeout = 10 * time.Second

func (t *TgBot) start(_ *tgbotapi.Bot, ctx *ext.Context) error {
	chatId := ctx.EffectiveUser.Id
	text := fmt.Sprintf("Your chat id is `%d`\\.", chatId)
	if t.isAdmin(chatId) {
		text += "\nYou review approval requests here\\. Use /pending to see open ones\\."
	} else {
		text += "\nAsk an administrator to add it to the reviewer list\\."
	}
	t.plainResponse(chatId, text)
	return nil
}

func (t *TgBot) help(_ *tgbotapi.Bot, ctx *ext.Context) error {
	chatId := ctx.EffectiveUser.Id
	commands := commandsAnonymous
	if t.isAdmin(chatId) {
		commands = commandsAdmin
	}
	var b strings.Builder
	b.WriteString("*Commands*")
	for _, c := range commands {
		b.WriteString(fmt.Sprintf("\n/%s %s", c.Command, Sanitize("- "+c.Description)))
	}
	t.plainResponse(chatId, b.String())
	return nil
}

func (t *TgBot) pending(_ *tgbotapi.Bot, ctx *ext.Context) error {
	t.listPending(ctx.EffectiveUser.Id)
	return nil
}

// listPending sends one message per pending request, each with its own
// decision buttons.
func (t *TgBot) listPending(chatId int64) {
	if !t.isAdmin(chatId) {
		t.plainResponse(chatId, "Admin access required")
		return
	}
	reviewer := t.getReviewer()
	if reviewer == nil {
		t.plainResponse(chatId, "Service is starting, try again shortly\\.")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	requests, err := reviewer.PendingApprovals(ctx, callerFor(chatId))
	if err != nil {
		t.reportError(chatId, "pending", err)
		return
	}
	if len(requests) == 0 {
		t.plainResponse(chatId, "No pending requests\\.")
		return
	}
	for _, req := range requests {
		t.sendWithKeyboard(chatId, formatRequest(req), decisionKeyboard(req.Id))
	}
}

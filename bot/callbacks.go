package bot

import (
	"context"
	"fmt"
	"strings"

	"admitgate/entity"
	"admitgate/lib/fault"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
)

// Callback data prefixes for inline keyboard buttons.
// Telegram limits callback data to 64 bytes; request ids are uuids.
const (
	cbApprove = "ap:" // ap:<request_id>
	cbDeny    = "dn:" // dn:<request_id>
)

func decisionKeyboard(requestId string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.InlineKeyboardMarkup{
		InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{{
			{Text: "Approve", CallbackData: cbApprove + requestId},
			{Text: "Deny", CallbackData: cbDeny + requestId},
		}},
	}
}

// parseDecision splits callback data into the request id and the verdict.
func parseDecision(data string) (requestId string, approve bool, ok bool) {
	switch {
	case strings.HasPrefix(data, cbApprove):
		requestId, approve = strings.TrimPrefix(data, cbApprove), true
	case strings.HasPrefix(data, cbDeny):
		requestId = strings.TrimPrefix(data, cbDeny)
	default:
		return "", false, false
	}
	return requestId, approve, requestId != ""
}

// decide applies a button press and returns the short answer shown to the
// reviewer plus, on success, the line appended to the original message.
func (t *TgBot) decide(ctx context.Context, chatId int64, data string) (answer, footer string) {
	if !t.isAdmin(chatId) {
		return "Admin access required", ""
	}
	requestId, approve, ok := parseDecision(data)
	if !ok {
		return "Invalid request", ""
	}
	reviewer := t.getReviewer()
	if reviewer == nil {
		return "Service is starting", ""
	}

	req, err := reviewer.DecideApproval(ctx, callerFor(chatId), requestId, approve)
	switch {
	case err == nil:
	case req != nil && req.Status == entity.StatusApproved:
		// approval stored, enrollment failed; the user can still register
		t.log.With("request_id", requestId).Warn("approved without enrollment", "error", err)
	case fault.Is(err, fault.KindConflict), fault.Is(err, fault.KindNotFound):
		return fault.Message(err), "Already processed"
	default:
		t.log.With("request_id", requestId).Error("deciding request", "error", err)
		return "Error occurred", ""
	}

	verdict := "Denied"
	if req.Status == entity.StatusApproved {
		verdict = "Approved"
	}
	return verdict, fmt.Sprintf("%s by %s", verdict, callerFor(chatId).UserId)
}

// onDecisionCallback handles the inline Approve and Deny buttons. The
// buttons are replaced with the outcome once the request is settled.
func (t *TgBot) onDecisionCallback(_ *tgbotapi.Bot, ctx *ext.Context) error {
	cq := ctx.CallbackQuery
	chatId := cq.From.Id

	cctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	answer, footer := t.decide(cctx, chatId, cq.Data)
	_, _ = cq.Answer(t.api, &tgbotapi.AnswerCallbackQueryOpts{Text: answer})
	if footer == "" {
		return nil
	}

	if msg := cq.Message; msg != nil {
		if im, ok := msg.(tgbotapi.Message); ok {
			_, _, _ = t.send.EditMessageText(
				fmt.Sprintf("%s\n\n✓ %s", im.Text, footer),
				&tgbotapi.EditMessageTextOpts{
					ChatId:    im.Chat.Id,
					MessageId: im.MessageId,
				},
			)
		}
	}
	return nil
}

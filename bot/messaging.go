package bot

import (
	"context"
	"strings"

	"admitgate/entity"
)

var titles = map[string]string{
	entity.TopicApprovalRequested:  "Approval requested",
	entity.TopicApprovalDecided:    "Approval decided",
	entity.TopicApprovalCancelled:  "Approval cancelled",
	entity.TopicRegistrationRecord: "Registration recorded",
	entity.TopicCheckInRecorded:    "Check-in recorded",
}

// Notify forwards subscribed notices to every admin chat. New approval
// requests carry decision buttons.
func (t *TgBot) Notify(_ context.Context, n *entity.Notice) {
	if n == nil || !t.topics[n.Topic] {
		return
	}
	go t.deliver(n)
}

func (t *TgBot) deliver(n *entity.Notice) {
	text := formatNotice(n)
	for chatId := range t.admins {
		if n.Topic == entity.TopicApprovalRequested && n.RequestId != "" {
			t.sendWithKeyboard(chatId, text, decisionKeyboard(n.RequestId))
			continue
		}
		t.plainResponse(chatId, text)
	}
}

func formatNotice(n *entity.Notice) string {
	var b strings.Builder
	b.WriteString("*" + Sanitize(titles[n.Topic]) + "*")
	line := func(key, value string) {
		if value != "" {
			b.WriteString("\n" + Sanitize(key+": "+value))
		}
	}
	line("event", n.EventId)
	line("user", n.UserId)
	line("request", n.RequestId)
	line("status", n.Status)
	line("by", n.ActorId)
	line("detail", n.Detail)
	return b.String()
}

func formatRequest(req *entity.ApprovalRequest) string {
	return formatNotice(&entity.Notice{
		Topic:     entity.TopicApprovalRequested,
		EventId:   req.EventId,
		UserId:    req.UserId,
		RequestId: req.Id,
		Detail:    "requested " + req.RequestedAt.UTC().Format("2006-01-02 15:04"),
	})
}

package bot

import (
	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
)

// Command lists for Telegram's menu button, pushed per chat on startup.

var commandsAnonymous = []tgbotapi.BotCommand{
	{Command: "start", Description: "Show your chat id"},
	{Command: "help", Description: "Show available commands"},
}

var commandsAdmin = []tgbotapi.BotCommand{
	{Command: "start", Description: "Show your chat id"},
	{Command: "pending", Description: "Review pending approval requests"},
	{Command: "help", Description: "Show available commands"},
}

func (t *TgBot) setDefaultCommands() {
	_, err := t.api.SetMyCommands(commandsAnonymous, &tgbotapi.SetMyCommandsOpts{
		Scope: tgbotapi.BotCommandScopeDefault{},
	})
	if err != nil {
		t.log.Warn("setting default commands", "error", err)
	}
}

// syncAdminMenus gives every configured admin chat the reviewer menu.
func (t *TgBot) syncAdminMenus() {
	for chatId := range t.admins {
		_, err := t.api.SetMyCommands(commandsAdmin, &tgbotapi.SetMyCommandsOpts{
			Scope: tgbotapi.BotCommandScopeChat{ChatId: chatId},
		})
		if err != nil {
			t.log.Warn("setting admin commands", "chat_id", chatId, "error", err)
		}
	}
}

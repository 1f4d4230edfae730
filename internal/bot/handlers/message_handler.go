package handlers

import (
	"context"
	"strconv"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewDefaultHandler returns the fallback handler for updates no registered
// handler matched: plain text messages feed the dialog engine, and chat
// member updates feed the channel directory. It takes deps by pointer
// because the bot instance must exist before the engine can be built;
// deps.Engine is filled in before the bot starts polling.
func NewDefaultHandler(deps *HandlerDeps) bot.HandlerFunc {
	return defaultHandler{deps}.Handle
}

type defaultHandler struct {
	deps *HandlerDeps
}

func (h defaultHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.MyChatMember != nil {
		h.handleChatMember(ctx, update.MyChatMember)
		return
	}

	msg := update.Message
	if msg == nil || msg.From == nil || msg.Text == "" {
		return
	}
	// Private-chat dialog traffic only; channel posts and group chatter
	// are not part of the setup flow.
	if msg.Chat.Type != models.ChatTypePrivate {
		return
	}

	h.deps.Engine.Text(ctx, msg.From.ID, msg.Text)
}

// handleChatMember records channels where the bot was granted publish
// rights (added as member or administrator).
func (h defaultHandler) handleChatMember(ctx context.Context, upd *models.ChatMemberUpdated) {
	log := h.deps.Logger.With("handler", "chat_member")

	if upd.Chat.Type != models.ChatTypeChannel {
		return
	}

	status := upd.NewChatMember.Type
	if status != models.ChatMemberTypeAdministrator && status != models.ChatMemberTypeMember {
		log.DebugContext(ctx, "Ignoring chat member update", "chat_id", upd.Chat.ID, "status", status)
		return
	}

	channelID := strconv.FormatInt(upd.Chat.ID, 10)
	h.deps.Engine.ChannelGranted(ctx, channelID, upd.Chat.Title)
}

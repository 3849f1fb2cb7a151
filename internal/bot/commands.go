package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ZerkerEOD/slotban/internal/models"
	"github.com/ZerkerEOD/slotban/internal/repository"
	"github.com/ZerkerEOD/slotban/internal/services"
	"github.com/ZerkerEOD/slotban/pkg/debug"
)

const (
	banPrefix      = "!ban "
	unbanPrefix    = "!unban "
	banListCommand = "!banlist"

	// removedBy attribution for chat unbans
	chatRemover = "Moderator"
)

// ChatMessage is a single chat line as seen by the command handler.
type ChatMessage struct {
	Channel       string
	Username      string
	DisplayName   string
	Text          string
	IsModerator   bool
	IsBroadcaster bool
	// Self is set for echoes of the bot's own messages
	Self bool
}

// Sender returns the best available identity for attribution.
func (m ChatMessage) Sender() string {
	switch {
	case m.Username != "":
		return m.Username
	case m.DisplayName != "":
		return m.DisplayName
	default:
		return "Unknown"
	}
}

// Privileged reports whether the sender may run moderator commands.
func (m ChatMessage) Privileged() bool {
	return m.IsModerator || m.IsBroadcaster
}

// BanStore is the subset of the ban service used by chat commands.
type BanStore interface {
	GetAllBannedSlots(ctx context.Context) ([]models.BannedSlot, error)
	AddManualBan(ctx context.Context, slotName, bannedBy string) (*models.BannedSlot, error)
	RemoveBanByName(ctx context.Context, slotName string) (*models.BannedSlot, error)
	GetRequestsStatus(ctx context.Context) (bool, error)
}

// Notifier publishes ban changes made from chat.
type Notifier interface {
	BanAdded(slot models.BannedSlot)
	BanRemovedByName(slotName, removedBy string)
}

// MessageSender writes a reply into a channel.
type MessageSender interface {
	Say(channel, text string)
}

// CommandHandler interprets !ban, !banlist and !unban.
type CommandHandler struct {
	bans     BanStore
	notifier Notifier
	sender   MessageSender
}

// NewCommandHandler creates a new CommandHandler
func NewCommandHandler(bans BanStore, notifier Notifier, sender MessageSender) *CommandHandler {
	return &CommandHandler{
		bans:     bans,
		notifier: notifier,
		sender:   sender,
	}
}

// SetSender replaces the reply target. The transport registers itself here
// once it exists.
func (h *CommandHandler) SetSender(sender MessageSender) {
	h.sender = sender
}

// HandleMessage runs the command in msg, if any. Failures are logged and
// never returned so the chat loop keeps going.
func (h *CommandHandler) HandleMessage(ctx context.Context, msg ChatMessage) {
	if msg.Self {
		return
	}

	text := strings.TrimSpace(msg.Text)

	switch {
	case hasPrefixFold(text, banPrefix):
		if name := strings.TrimSpace(text[len(banPrefix):]); name != "" {
			h.handleBan(ctx, name, msg.Sender())
		}
	case strings.EqualFold(text, banListCommand):
		h.handleBanList(ctx, msg.Channel)
	case hasPrefixFold(text, unbanPrefix) && msg.Privileged():
		if name := strings.TrimSpace(text[len(unbanPrefix):]); name != "" {
			h.handleUnban(ctx, name, msg.Channel)
		}
	}
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

func (h *CommandHandler) handleBan(ctx context.Context, slotName, username string) {
	open, err := h.bans.GetRequestsStatus(ctx)
	if err != nil {
		debug.Error("Error handling ban command: %v", err)
		return
	}
	if !open {
		debug.Debug("Ignoring !ban %q from %s: requests are closed", slotName, username)
		return
	}

	slot, err := h.bans.AddManualBan(ctx, slotName, username)
	if err != nil {
		if errors.Is(err, services.ErrAlreadyBanned) {
			debug.Debug("Ignoring !ban %q from %s: already banned", slotName, username)
			return
		}
		debug.Error("Error handling ban command: %v", err)
		return
	}

	h.notifier.BanAdded(*slot)
}

func (h *CommandHandler) handleBanList(ctx context.Context, channel string) {
	slots, err := h.bans.GetAllBannedSlots(ctx)
	if err != nil {
		debug.Error("Error handling banlist command: %v", err)
		return
	}
	h.reply(channel, FormatBanList(slots))
}

func (h *CommandHandler) handleUnban(ctx context.Context, slotName, channel string) {
	_, err := h.bans.RemoveBanByName(ctx, slotName)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		h.reply(channel, fmt.Sprintf("%s is not on the ban list.", slotName))
	case err != nil:
		debug.Error("Error handling unban command: %v", err)
	default:
		h.reply(channel, fmt.Sprintf("%s was removed from the ban list.", slotName))
		h.notifier.BanRemovedByName(slotName, chatRemover)
	}
}

func (h *CommandHandler) reply(channel, text string) {
	if h.sender == nil {
		return
	}
	h.sender.Say(channel, text)
}

// FormatBanList renders the !banlist reply.
func FormatBanList(slots []models.BannedSlot) string {
	if len(slots) == 0 {
		return "No slots are currently banned."
	}
	return fmt.Sprintf("Banned slots (%d): %s", len(slots), strings.Join(models.SlotNames(slots), ", "))
}

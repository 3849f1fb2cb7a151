package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ZerkerEOD/slotban/pkg/debug"
	"github.com/gempir/go-twitch-irc/v4"
)

const (
	// disconnectWait bounds how long Run waits for the client to return after
	// Disconnect during shutdown.
	disconnectWait  = 5 * time.Second
	disconnectRetry = 100 * time.Millisecond

	defaultReconnectDelay = 5 * time.Second
)

// Credentials identify the bot account and the channels it joins.
type Credentials struct {
	Username string
	Token    string
	Channels []string
}

// Complete reports whether the bot has enough to log in.
func (c Credentials) Complete() bool {
	return c.Username != "" && c.Token != "" && len(c.Channels) > 0
}

// StatusNotifier is told whenever the chat connection goes up or down.
type StatusNotifier interface {
	BotStatusChanged(connected bool)
}

// chatClient is the part of *twitch.Client the bot drives.
type chatClient interface {
	OnConnect(callback func())
	OnReconnectMessage(callback func(message twitch.ReconnectMessage))
	OnPrivateMessage(callback func(message twitch.PrivateMessage))
	Join(channels ...string)
	Connect() error
	Disconnect() error
	Say(channel, text string)
}

var _ chatClient = (*twitch.Client)(nil)

// TwitchBot connects the command handler to Twitch chat.
type TwitchBot struct {
	creds   Credentials
	handler *CommandHandler
	status  StatusNotifier

	newClient      func(username, oauth string) chatClient
	reconnectDelay time.Duration

	mu        sync.RWMutex
	client    chatClient
	connected bool
}

// NewTwitchBot creates a bot and registers it as the handler's reply sender.
func NewTwitchBot(creds Credentials, handler *CommandHandler, status StatusNotifier) *TwitchBot {
	b := &TwitchBot{
		creds:          creds,
		handler:        handler,
		status:         status,
		reconnectDelay: defaultReconnectDelay,
		newClient: func(username, oauth string) chatClient {
			return twitch.NewClient(username, oauth)
		},
	}
	handler.SetSender(b)
	return b
}

// Run connects to chat and blocks until ctx is cancelled or login is
// rejected. Dropped connections are redialed after reconnectDelay. Missing
// credentials are not an error: the bot reports itself offline and returns.
func (b *TwitchBot) Run(ctx context.Context) error {
	if !b.creds.Complete() {
		debug.Warning("Twitch credentials not provided. Bot will not connect.")
		b.status.BotStatusChanged(false)
		return nil
	}

	client := b.newClient(b.creds.Username, oauthToken(b.creds.Token))
	client.OnConnect(func() {
		debug.Info("Connected to Twitch chat as %s", b.creds.Username)
		b.setConnected(true)
	})
	client.OnReconnectMessage(func(twitch.ReconnectMessage) {
		debug.Info("Twitch requested a reconnect")
		b.setConnected(false)
	})
	client.OnPrivateMessage(func(message twitch.PrivateMessage) {
		b.handler.HandleMessage(ctx, toChatMessage(message, b.creds.Username))
	})
	client.Join(b.creds.Channels...)

	b.mu.Lock()
	b.client = client
	b.mu.Unlock()

	debug.Info("Joining Twitch channels: %s", strings.Join(b.creds.Channels, ", "))

	errCh := make(chan error, 1)
	for {
		go func() {
			errCh <- client.Connect()
		}()

		select {
		case <-ctx.Done():
			b.disconnect(client, errCh)
			b.setConnected(false)
			debug.Info("Disconnected from Twitch chat")
			return nil
		case err := <-errCh:
			b.setConnected(false)
			switch {
			case errors.Is(err, twitch.ErrClientDisconnected):
				return nil
			case errors.Is(err, twitch.ErrLoginAuthenticationFailed):
				debug.Error("Twitch login rejected: %v", err)
				return fmt.Errorf("twitch connection failed: %w", err)
			}
			debug.Warning("Twitch connection lost: %v; reconnecting in %s", err, b.reconnectDelay)
		}

		select {
		case <-ctx.Done():
			debug.Info("Disconnected from Twitch chat")
			return nil
		case <-time.After(b.reconnectDelay):
		}
	}
}

// disconnect stops a running Connect call. Before login completes the client
// refuses Disconnect, so it is retried until Connect returns or
// disconnectWait passes. After that the Connect goroutine is abandoned; it
// only outlives Run during process exit.
func (b *TwitchBot) disconnect(client chatClient, errCh <-chan error) {
	err := client.Disconnect()

	retry := time.NewTicker(disconnectRetry)
	defer retry.Stop()
	deadline := time.After(disconnectWait)

	for {
		select {
		case <-errCh:
			return
		case <-deadline:
			debug.Warning("Twitch client did not stop within %s", disconnectWait)
			return
		case <-retry.C:
			if err != nil {
				debug.Debug("Twitch disconnect: %v", err)
				err = client.Disconnect()
			}
		}
	}
}

// IsConnected reports whether the bot is currently logged in to chat.
func (b *TwitchBot) IsConnected() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.connected
}

// Say sends text to channel. Messages are dropped while disconnected.
func (b *TwitchBot) Say(channel, text string) {
	b.mu.RLock()
	client, connected := b.client, b.connected
	b.mu.RUnlock()

	if client == nil || !connected {
		debug.Debug("Not connected, dropping reply to %s: %s", channel, text)
		return
	}
	client.Say(strings.TrimPrefix(channel, "#"), text)
}

func (b *TwitchBot) setConnected(connected bool) {
	b.mu.Lock()
	b.connected = connected
	b.mu.Unlock()

	b.status.BotStatusChanged(connected)
}

func oauthToken(token string) string {
	if strings.HasPrefix(token, "oauth:") {
		return token
	}
	return "oauth:" + token
}

func toChatMessage(message twitch.PrivateMessage, botUsername string) ChatMessage {
	_, moderator := message.User.Badges["moderator"]
	_, broadcaster := message.User.Badges["broadcaster"]

	return ChatMessage{
		Channel:       message.Channel,
		Username:      message.User.Name,
		DisplayName:   message.User.DisplayName,
		Text:          message.Message,
		IsModerator:   moderator || message.Tags["mod"] == "1",
		IsBroadcaster: broadcaster,
		Self:          botUsername != "" && strings.EqualFold(message.User.Name, botUsername),
	}
}

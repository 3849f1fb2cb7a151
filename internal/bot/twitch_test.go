package bot

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gempir/go-twitch-irc/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	mu          sync.Mutex
	username    string
	oauth       string
	joined      []string
	said        []reply
	onConnect   func()
	onReconnect func(twitch.ReconnectMessage)
	onMessage   func(twitch.PrivateMessage)

	// failures are returned by successive Connect calls. Once they run out,
	// Connect blocks until Disconnect.
	failures []error
	// dropAfterConnect logs in before returning a failure
	dropAfterConnect bool
	// skipLogin blocks without ever reporting a login
	skipLogin bool
	// refuseDisconnects is the number of Disconnect calls rejected before one succeeds
	refuseDisconnects int

	attempts        int
	disconnectCalls int

	blocking     chan struct{}
	blockingOnce sync.Once
	disconnected chan struct{}
	disconnect   sync.Once
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		blocking:     make(chan struct{}),
		disconnected: make(chan struct{}),
	}
}

func (f *fakeClient) OnConnect(callback func()) { f.onConnect = callback }

func (f *fakeClient) OnReconnectMessage(callback func(twitch.ReconnectMessage)) {
	f.onReconnect = callback
}

func (f *fakeClient) OnPrivateMessage(callback func(twitch.PrivateMessage)) { f.onMessage = callback }

func (f *fakeClient) Join(channels ...string) { f.joined = append(f.joined, channels...) }

func (f *fakeClient) Connect() error {
	f.mu.Lock()
	f.attempts++
	var err error
	if len(f.failures) > 0 {
		err, f.failures = f.failures[0], f.failures[1:]
	}
	f.mu.Unlock()

	if err != nil {
		if f.dropAfterConnect {
			f.onConnect()
		}
		return err
	}

	if !f.skipLogin {
		f.onConnect()
	}
	f.blockingOnce.Do(func() { close(f.blocking) })
	<-f.disconnected
	return twitch.ErrClientDisconnected
}

func (f *fakeClient) Disconnect() error {
	f.mu.Lock()
	f.disconnectCalls++
	if f.refuseDisconnects > 0 {
		f.refuseDisconnects--
		f.mu.Unlock()
		return errors.New("connection is not open")
	}
	f.mu.Unlock()

	f.disconnect.Do(func() { close(f.disconnected) })
	return nil
}

func (f *fakeClient) Say(channel, text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.said = append(f.said, reply{channel: channel, text: text})
}

func (f *fakeClient) replies() []reply {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]reply(nil), f.said...)
}

func (f *fakeClient) counts() (attempts, disconnects int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.attempts, f.disconnectCalls
}

func waitBlocking(t *testing.T, client *fakeClient) {
	t.Helper()
	select {
	case <-client.blocking:
	case <-time.After(2 * time.Second):
		t.Fatal("client never reached a live connection")
	}
}

func waitRun(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
		return nil
	}
}

type recordingStatus struct {
	mu      sync.Mutex
	updates []bool
}

func (s *recordingStatus) BotStatusChanged(connected bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates = append(s.updates, connected)
}

func (s *recordingStatus) snapshot() []bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]bool(nil), s.updates...)
}

func newTestBot(t *testing.T, creds Credentials, client *fakeClient) (*TwitchBot, *recordingStatus) {
	t.Helper()
	f := newFixture(t)
	status := &recordingStatus{}
	b := NewTwitchBot(creds, f.handler, status)
	b.newClient = func(username, oauth string) chatClient {
		client.username = username
		client.oauth = oauth
		return client
	}
	return b, status
}

var testCreds = Credentials{
	Username: "slotbot",
	Token:    "abc123",
	Channels: []string{"streamer", "backup"},
}

func TestTwitchBot_MissingCredentials(t *testing.T) {
	tests := []struct {
		name  string
		creds Credentials
	}{
		{"empty", Credentials{}},
		{"no token", Credentials{Username: "slotbot", Channels: []string{"streamer"}}},
		{"no channels", Credentials{Username: "slotbot", Token: "abc123"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newFakeClient()
			b, status := newTestBot(t, tt.creds, client)

			require.NoError(t, b.Run(context.Background()))
			assert.Equal(t, []bool{false}, status.snapshot())
			assert.False(t, b.IsConnected())
			assert.Empty(t, client.username, "client must not be created")
		})
	}
}

func TestTwitchBot_RunLifecycle(t *testing.T) {
	client := newFakeClient()
	b, status := newTestBot(t, testCreds, client)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()

	waitBlocking(t, client)
	assert.True(t, b.IsConnected())
	assert.Equal(t, "slotbot", client.username)
	assert.Equal(t, "oauth:abc123", client.oauth)
	assert.Equal(t, []string{"streamer", "backup"}, client.joined)

	client.onMessage(twitch.PrivateMessage{
		Channel: "streamer",
		User:    twitch.User{Name: "viewer1", DisplayName: "Viewer1"},
		Message: "!banlist",
	})
	assert.Equal(t, []reply{{channel: "streamer", text: "No slots are currently banned."}}, client.replies())

	cancel()
	assert.NoError(t, waitRun(t, done))

	assert.False(t, b.IsConnected())
	assert.Equal(t, []bool{true, false}, status.snapshot())
}

func TestTwitchBot_LoginRejected(t *testing.T) {
	client := newFakeClient()
	client.failures = []error{twitch.ErrLoginAuthenticationFailed}
	b, status := newTestBot(t, testCreds, client)
	b.reconnectDelay = time.Millisecond

	err := b.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, twitch.ErrLoginAuthenticationFailed)
	assert.False(t, b.IsConnected())
	assert.Equal(t, []bool{false}, status.snapshot())

	attempts, _ := client.counts()
	assert.Equal(t, 1, attempts, "rejected logins are not retried")
}

func TestTwitchBot_ReconnectsAfterDrop(t *testing.T) {
	client := newFakeClient()
	client.failures = []error{errors.New("dial tcp: lookup irc.chat.twitch.tv: no such host")}
	client.dropAfterConnect = true
	b, status := newTestBot(t, testCreds, client)
	b.reconnectDelay = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()

	waitBlocking(t, client)
	assert.True(t, b.IsConnected(), "bot is back online after a transient drop")
	attempts, _ := client.counts()
	assert.Equal(t, 2, attempts)

	cancel()
	assert.NoError(t, waitRun(t, done))
	assert.Equal(t, []bool{true, false, true, false}, status.snapshot())
}

func TestTwitchBot_ReconnectMessageMarksOffline(t *testing.T) {
	client := newFakeClient()
	b, status := newTestBot(t, testCreds, client)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()

	waitBlocking(t, client)
	client.onReconnect(twitch.ReconnectMessage{})
	assert.False(t, b.IsConnected())
	assert.Equal(t, []bool{true, false}, status.snapshot())

	cancel()
	assert.NoError(t, waitRun(t, done))
}

func TestTwitchBot_CancelWhileWaitingToReconnect(t *testing.T) {
	client := newFakeClient()
	client.failures = []error{errors.New("connection reset by peer")}
	b, _ := newTestBot(t, testCreds, client)
	b.reconnectDelay = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()

	require.Eventually(t, func() bool {
		attempts, _ := client.counts()
		return attempts == 1
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	assert.NoError(t, waitRun(t, done))
}

func TestTwitchBot_ShutdownBeforeLogin(t *testing.T) {
	client := newFakeClient()
	client.skipLogin = true
	client.refuseDisconnects = 2
	b, status := newTestBot(t, testCreds, client)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()

	waitBlocking(t, client)
	cancel()
	assert.NoError(t, waitRun(t, done))

	_, disconnects := client.counts()
	assert.Equal(t, 3, disconnects, "Disconnect is retried until the client accepts it")
	assert.Equal(t, []bool{false}, status.snapshot())
}

func TestTwitchBot_SayWhileDisconnected(t *testing.T) {
	client := newFakeClient()
	b, _ := newTestBot(t, testCreds, client)

	b.Say("streamer", "hello")
	assert.Empty(t, client.replies())
}

func TestOauthToken(t *testing.T) {
	assert.Equal(t, "oauth:abc", oauthToken("abc"))
	assert.Equal(t, "oauth:abc", oauthToken("oauth:abc"))
}

func TestToChatMessage(t *testing.T) {
	tests := []struct {
		name string
		msg  twitch.PrivateMessage
		want ChatMessage
	}{
		{
			name: "viewer",
			msg: twitch.PrivateMessage{
				Channel: "streamer",
				User:    twitch.User{Name: "viewer1", DisplayName: "Viewer1", Badges: map[string]int{"subscriber": 12}},
				Message: "!ban Foo",
			},
			want: ChatMessage{Channel: "streamer", Username: "viewer1", DisplayName: "Viewer1", Text: "!ban Foo"},
		},
		{
			name: "moderator badge",
			msg: twitch.PrivateMessage{
				User: twitch.User{Name: "mod1", Badges: map[string]int{"moderator": 1}},
			},
			want: ChatMessage{Username: "mod1", IsModerator: true},
		},
		{
			name: "mod tag",
			msg: twitch.PrivateMessage{
				User: twitch.User{Name: "mod2"},
				Tags: map[string]string{"mod": "1"},
			},
			want: ChatMessage{Username: "mod2", IsModerator: true},
		},
		{
			name: "broadcaster",
			msg: twitch.PrivateMessage{
				User: twitch.User{Name: "streamer", Badges: map[string]int{"broadcaster": 1}},
			},
			want: ChatMessage{Username: "streamer", IsBroadcaster: true},
		},
		{
			name: "own echo",
			msg: twitch.PrivateMessage{
				User: twitch.User{Name: "SlotBot"},
			},
			want: ChatMessage{Username: "SlotBot", Self: true},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, toChatMessage(tt.msg, "slotbot"))
		})
	}
}

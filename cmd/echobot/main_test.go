package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/luciancaetano/showdown"
	"github.com/luciancaetano/showdown/client"
	"github.com/luciancaetano/showdown/internal/simtest"
)

const wait = 5 * time.Second

func TestEcho(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		msg    showdown.Message
		answer string
		ok     bool
	}{
		{"pm", &showdown.PrivateMessage{Text: "ping"}, "ping", true},
		{"empty pm", &showdown.PrivateMessage{}, "", false},
		{"chat command", &showdown.ChatMessage{Text: "!echo hi there"}, "hi there", true},
		{"chat command without text", &showdown.ChatMessage{Text: "!echo "}, "", false},
		{"plain chat", &showdown.ChatMessage{Text: "hello"}, "", false},
		{"command not at start", &showdown.ChatMessage{Text: "say !echo hi"}, "", false},
		{"command without space", &showdown.ChatMessage{Text: "!echohi"}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			answer, ok := echo(tt.msg)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.answer, answer)
		})
	}
}

func TestRunRequiresCredentials(t *testing.T) {
	t.Parallel()

	err := run(context.Background(), &client.Env{Server: "showdown"}, zap.NewNop())
	assert.Error(t, err)
}

func TestRun(t *testing.T) {
	t.Parallel()

	srv := simtest.New()
	defer srv.Close()

	env := &client.Env{
		DefaultRoom:    showdown.DefaultRoom,
		MessageDelay:   10 * time.Millisecond,
		LoginURL:       srv.LoginURL(),
		CrossDomainURL: srv.CrossDomainURL(),
		Server:         "local",
		Username:       "EchoBot",
		Password:       simtest.Password,
		Rooms:          []string{"lobby"},
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- run(ctx, env, zap.NewNop()) }()

	require.Eventually(t, func() bool { return srv.InRoom("EchoBot", "lobby") }, wait, 10*time.Millisecond)

	tester := client.New(client.NewConfig(srv.LoginURL(), srv.CrossDomainURL(), 10*time.Millisecond, nil))
	defer tester.Disconnect()

	messages := make(chan showdown.Message, 16)
	tester.On(showdown.KindMessage, func(ev showdown.Event) {
		messages <- ev.(showdown.MessageEvent).Message
	})
	joined := make(chan struct{}, 1)
	tester.On(showdown.RawKind("init"), func(ev showdown.Event) { joined <- struct{}{} })

	tctx, tcancel := context.WithTimeout(context.Background(), wait)
	defer tcancel()
	require.NoError(t, tester.Connect(tctx, "local"))
	require.NoError(t, tester.Login(tctx, "Tester", simtest.Password))
	require.NoError(t, tester.JoinRoom("lobby"))
	select {
	case <-joined:
	case <-tctx.Done():
		t.Fatal("tester did not join lobby")
	}

	next := func() showdown.Message {
		t.Helper()
		select {
		case msg := <-messages:
			return msg
		case <-time.After(wait):
			t.Fatal("timed out waiting for the bot")
			return nil
		}
	}

	require.NoError(t, showdown.NewUser("EchoBot", tester).PM("ping"))
	pm := next()
	require.IsType(t, &showdown.PrivateMessage{}, pm)
	assert.True(t, pm.Author().Equals("echobot"))
	assert.Equal(t, "ping", pm.Content())

	require.NoError(t, tester.Say("!echo hello", "lobby"))
	chat := next()
	require.IsType(t, &showdown.ChatMessage{}, chat)
	assert.True(t, chat.Author().Equals("echobot"))
	assert.Equal(t, "hello", chat.Content())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(wait):
		t.Fatal("run did not return after cancellation")
	}
}

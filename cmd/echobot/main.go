// Command echobot logs into a Showdown server, joins the configured rooms
// and echoes private messages and "!echo" chat commands back.
//
// It is configured from SHOWDOWN_* environment variables, optionally read
// from a .env file:
//
//	SHOWDOWN_SERVER=showdown
//	SHOWDOWN_USERNAME=MyEchoBot
//	SHOWDOWN_PASSWORD=...
//	SHOWDOWN_ROOMS=lobby,techcode
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/luciancaetano/showdown"
	"github.com/luciancaetano/showdown/client"
)

const (
	echoCommand = "!echo "
	retryDelay  = 5 * time.Second
)

func run(ctx context.Context, env *client.Env, logger *zap.Logger) error {
	if env.Username == "" || env.Password == "" {
		return errors.New("SHOWDOWN_USERNAME and SHOWDOWN_PASSWORD are required")
	}

	bot := client.New(client.FromEnv(env, logger))

	bot.On(showdown.KindMessage, func(ev showdown.Event) {
		msg := ev.(showdown.MessageEvent).Message
		if answer, ok := echo(msg); ok {
			if err := msg.Reply(answer); err != nil {
				logger.Warn("reply failed", zap.Error(err))
			}
		}
	})

	lost := make(chan struct{}, 1)
	bot.On(showdown.KindDisconnect, func(ev showdown.Event) {
		if dc := ev.(showdown.DisconnectEvent); !dc.Voluntary {
			logger.Warn("connection lost", zap.Error(dc.Err))
			select {
			case lost <- struct{}{}:
			default:
			}
		}
	})

	if err := start(ctx, bot, env); err != nil {
		return err
	}
	logger.Info("echobot ready", zap.String("user", env.Username), zap.Strings("rooms", env.Rooms))

	g, gCtx := errgroup.WithContext(ctx)

	// Reconnect after connection losses
	g.Go(func() error {
		for {
			select {
			case <-gCtx.Done():
				return nil
			case <-lost:
			}

			for {
				select {
				case <-gCtx.Done():
					return nil
				case <-time.After(retryDelay):
				}
				err := start(gCtx, bot, env)
				if err == nil {
					logger.Info("reconnected")
					break
				}
				logger.Warn("reconnect failed", zap.Error(err))
				bot.Disconnect()
			}
		}
	})

	// Wait for context cancellation (signal)
	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("shutting down")
		return bot.Disconnect()
	})

	return g.Wait()
}

// start connects bot, logs in and joins the configured rooms.
func start(ctx context.Context, bot showdown.Client, env *client.Env) error {
	if err := bot.Connect(ctx, env.Server); err != nil {
		return err
	}
	if err := bot.Login(ctx, env.Username, env.Password); err != nil {
		return err
	}
	for _, room := range env.Rooms {
		if err := bot.JoinRoom(room); err != nil {
			return errors.Wrapf(err, "join %s", room)
		}
	}
	return nil
}

// echo returns the answer to msg, if any.
func echo(msg showdown.Message) (string, bool) {
	switch msg.(type) {
	case *showdown.PrivateMessage:
		return msg.Content(), msg.Content() != ""
	case *showdown.ChatMessage:
		text, ok := strings.CutPrefix(msg.Content(), echoCommand)
		if !ok || text == "" {
			return "", false
		}
		return text, true
	}
	return "", false
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func main() {
	envFile := flag.String("env", ".env", "file to read SHOWDOWN_* variables from")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	env, err := client.LoadEnv(*envFile)
	if err != nil {
		os.Stderr.WriteString("echobot: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger, err := newLogger(env.Debug)
	if err != nil {
		os.Stderr.WriteString("echobot: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(ctx, env, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("echobot failed", zap.Error(err))
	}
}

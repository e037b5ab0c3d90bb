package session

import (
	"time"

	"go.uber.org/zap"

	"github.com/luciancaetano/showdown"
	"github.com/luciancaetano/showdown/internal/remote"
	"github.com/luciancaetano/showdown/internal/transport"
)

// Config configures a Session. Zero fields take their defaults in New.
type Config struct {
	// DefaultRoom is the room of frames without a room header.
	DefaultRoom string
	// MessageDelay is the minimum spacing of outbound frames.
	MessageDelay time.Duration
	// Debug logs every frame sent and received at debug level. Without a
	// Logger it installs a development logger.
	Debug bool
	// Logger receives lifecycle and frame logs.
	Logger *zap.Logger

	Dialer        showdown.Dialer
	Resolver      showdown.Resolver
	Authenticator showdown.Authenticator
}

// withDefaults returns a copy of cfg with every zero field set.
func (cfg Config) withDefaults() Config {
	if cfg.DefaultRoom == "" {
		cfg.DefaultRoom = showdown.DefaultRoom
	}
	if cfg.MessageDelay <= 0 {
		cfg.MessageDelay = showdown.MessageDelay
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
		if cfg.Debug {
			if l, err := zap.NewDevelopment(); err == nil {
				cfg.Logger = l
			}
		}
	}
	if cfg.Dialer == nil {
		cfg.Dialer = transport.NewDialer(nil)
	}
	if cfg.Resolver == nil {
		cfg.Resolver = remote.NewResolver(nil, "")
	}
	if cfg.Authenticator == nil {
		cfg.Authenticator = remote.NewAuthenticator(nil, "")
	}
	return cfg
}

package client

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/luciancaetano/showdown"
	"github.com/luciancaetano/showdown/internal/config"
	"github.com/luciancaetano/showdown/internal/remote"
	"github.com/luciancaetano/showdown/internal/session"
	"github.com/luciancaetano/showdown/internal/transport"
)

type Config = session.Config
type Env = config.Config

// HTTPTimeout bounds every request to the login and cross domain servers.
const HTTPTimeout = 10 * time.Second

// New creates a client. It performs no I/O until Connect.
//
// Example:
//
//	c := client.New(client.DefaultConfig())
//	if err := c.Connect(ctx, "showdown"); err != nil {
//	    return err
//	}
func New(cfg Config) showdown.Client {
	return session.New(cfg)
}

// DefaultConfig returns the configuration for the main Showdown servers:
// lobby as default room, 500ms between frames and no logging.
func DefaultConfig() Config {
	return NewConfig(remote.DefaultLoginURL, remote.DefaultCrossDomainURL, showdown.MessageDelay, nil)
}

// NewConfig creates a configuration using loginURL for authentication and
// crossDomainURL for server lookups.
//
// Parameters:
//   - loginURL: base of the login server (e.g., "https://play.pokemonshowdown.com")
//   - crossDomainURL: the crossdomain.php page resolving server names
//   - messageDelay: minimum spacing between outbound frames
//   - logger: receives lifecycle and frame logs. Can be nil.
func NewConfig(loginURL, crossDomainURL string, messageDelay time.Duration, logger *zap.Logger) Config {
	httpClient := &http.Client{Timeout: HTTPTimeout}
	return Config{
		DefaultRoom:   showdown.DefaultRoom,
		MessageDelay:  messageDelay,
		Logger:        logger,
		Dialer:        transport.NewDialer(nil),
		Resolver:      remote.NewResolver(httpClient, crossDomainURL),
		Authenticator: remote.NewAuthenticator(httpClient, loginURL),
	}
}

// LoadEnv reads the SHOWDOWN_* environment variables, after adding those
// of envFile if it exists.
func LoadEnv(envFile string) (*Env, error) {
	return config.Load(envFile)
}

// FromEnv creates a configuration from env.
func FromEnv(env *Env, logger *zap.Logger) Config {
	cfg := NewConfig(env.LoginURL, env.CrossDomainURL, env.MessageDelay, logger)
	cfg.DefaultRoom = env.DefaultRoom
	cfg.Debug = env.Debug
	return cfg
}

package config

import (
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"

	"github.com/luciancaetano/showdown"
	"github.com/luciancaetano/showdown/internal/remote"
)

// Config is the environment configuration of a client.
type Config struct {
	DefaultRoom    string
	MessageDelay   time.Duration
	Debug          bool
	LoginURL       string
	CrossDomainURL string

	// Host program settings, unused by the library itself.
	Server   string
	Username string
	Password string
	Rooms    []string
}

// Load reads the configuration from the environment. Variables from
// envFile are added first unless already set; a missing envFile is not an
// error.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, errors.Wrapf(err, "load %s", envFile)
		}
	}

	delay, err := time.ParseDuration(getEnv("SHOWDOWN_MESSAGE_DELAY", showdown.MessageDelay.String()))
	if err != nil {
		return nil, errors.Wrap(err, "SHOWDOWN_MESSAGE_DELAY")
	}

	debug, err := strconv.ParseBool(getEnv("SHOWDOWN_DEBUG", "false"))
	if err != nil {
		return nil, errors.Wrap(err, "SHOWDOWN_DEBUG")
	}

	cfg := &Config{
		DefaultRoom:    getEnv("SHOWDOWN_DEFAULT_ROOM", showdown.DefaultRoom),
		MessageDelay:   delay,
		Debug:          debug,
		LoginURL:       getEnv("SHOWDOWN_LOGIN_URL", remote.DefaultLoginURL),
		CrossDomainURL: getEnv("SHOWDOWN_CROSSDOMAIN_URL", remote.DefaultCrossDomainURL),
		Server:         getEnv("SHOWDOWN_SERVER", "showdown"),
		Username:       os.Getenv("SHOWDOWN_USERNAME"),
		Password:       os.Getenv("SHOWDOWN_PASSWORD"),
		Rooms:          splitList(os.Getenv("SHOWDOWN_ROOMS")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.MessageDelay <= 0 {
		return errors.New("SHOWDOWN_MESSAGE_DELAY must be greater than 0")
	}

	if showdown.ToRoomID(c.DefaultRoom) == "" {
		return errors.New("SHOWDOWN_DEFAULT_ROOM must name a room")
	}

	for key, value := range map[string]string{
		"SHOWDOWN_LOGIN_URL":       c.LoginURL,
		"SHOWDOWN_CROSSDOMAIN_URL": c.CrossDomainURL,
	} {
		u, err := url.Parse(value)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return errors.Errorf("%s must be an absolute URL, got %q", key, value)
		}
	}

	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

package remote

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/pkg/errors"

	"github.com/luciancaetano/showdown"
)

const (
	// DefaultCrossDomainURL answers server lookups by host name.
	DefaultCrossDomainURL = "https://play.pokemonshowdown.com/crossdomain.php"

	// serverSuffix is appended to names without a dot.
	serverSuffix = ".psim.us"
)

var configPattern = regexp.MustCompile(`(?m)var config = (.*);$`)

// Resolver looks servers up through the cross domain page, which embeds the
// server record in a script.
type Resolver struct {
	client *http.Client
	url    string
}

// NewResolver creates a Resolver querying crossDomainURL. Empty values use
// http.DefaultClient and DefaultCrossDomainURL.
func NewResolver(client *http.Client, crossDomainURL string) *Resolver {
	if client == nil {
		client = http.DefaultClient
	}
	if crossDomainURL == "" {
		crossDomainURL = DefaultCrossDomainURL
	}
	return &Resolver{client: client, url: crossDomainURL}
}

// Resolve returns the server record for name. A name without a dot is a
// short name of a server hosted under psim.us.
func (r *Resolver) Resolve(ctx context.Context, name string) (showdown.Server, error) {
	host := name
	if !strings.Contains(host, ".") {
		host += serverSuffix
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.url+"?"+url.Values{"host": {host}}.Encode(), nil)
	if err != nil {
		return showdown.Server{}, errors.Wrap(err, "build resolve request")
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return showdown.Server{}, errors.Wrapf(err, "resolve %s", host)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return showdown.Server{}, errors.Wrapf(err, "read resolve response for %s", host)
	}

	match := configPattern.FindSubmatch(body)
	if match == nil {
		return showdown.Server{}, errors.Wrapf(showdown.ErrUnknownServer, "server %q", host)
	}

	var server showdown.Server
	if err := json.Unmarshal(match[1], &server); err != nil {
		return showdown.Server{}, errors.Wrapf(err, "decode config of %s", host)
	}
	if server.Host == "" {
		return showdown.Server{}, errors.Wrapf(showdown.ErrUnknownServer, "server %q has no host", host)
	}
	return server, nil
}

package remote

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"

	"github.com/luciancaetano/showdown"
)

// DefaultLoginURL is the base of the login server's action pages.
const DefaultLoginURL = "https://play.pokemonshowdown.com"

// rejectedPrefix marks an assertion that is an error message.
const rejectedPrefix = ";;"

// Authenticator logs in through the login server's action page.
type Authenticator struct {
	client  *http.Client
	baseURL string
}

// NewAuthenticator creates an Authenticator posting to baseURL. Empty
// values use http.DefaultClient and DefaultLoginURL.
func NewAuthenticator(client *http.Client, baseURL string) *Authenticator {
	if client == nil {
		client = http.DefaultClient
	}
	if baseURL == "" {
		baseURL = DefaultLoginURL
	}
	return &Authenticator{client: client, baseURL: strings.TrimSuffix(baseURL, "/")}
}

type loginResponse struct {
	Assertion string `json:"assertion"`
}

// Authenticate exchanges the challenge and credentials for an assertion.
func (a *Authenticator) Authenticate(ctx context.Context, server showdown.Server, challenge showdown.Challenge, name, password string) (string, error) {
	serverID := server.ID
	if serverID == "" {
		serverID = showdown.DefaultServerID
	}

	form := url.Values{
		"act":            {"login"},
		"challengekeyid": {challenge.KeyID},
		"challenge":      {challenge.Value},
		"name":           {name},
		"pass":           {password},
	}

	endpoint := a.baseURL + "/~~" + url.PathEscape(serverID) + "/action.php"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", errors.Wrap(err, "build login request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "login request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrap(err, "read login response")
	}
	if resp.StatusCode != http.StatusOK {
		return "", errors.Errorf("login server returned %s", resp.Status)
	}
	// the body is prefixed with one character to defeat JSON hijacking
	if len(body) < 1 {
		return "", errors.Wrap(showdown.ErrInvalidCredentials, "empty login response")
	}

	var data loginResponse
	if err := json.Unmarshal(body[1:], &data); err != nil {
		return "", errors.Wrap(err, "decode login response")
	}
	if data.Assertion == "" {
		return "", errors.Wrapf(showdown.ErrInvalidCredentials, "no assertion for %s", name)
	}
	if msg, rejected := strings.CutPrefix(data.Assertion, rejectedPrefix); rejected {
		return "", errors.Wrap(showdown.ErrInvalidCredentials, msg)
	}
	return data.Assertion, nil
}

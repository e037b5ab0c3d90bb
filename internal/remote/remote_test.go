package remote

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luciancaetano/showdown"
)

const crossDomainPage = `<!DOCTYPE html>
<script>
var config = {"host":"sim3.psim.us","port":8000,"altport":80,"registered":true,"id":"showdown"};
</script>`

// TestResolve tests that short names are expanded and the embedded config
// is decoded
func TestResolve(t *testing.T) {
	t.Parallel()

	hosts := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hosts <- r.URL.Query().Get("host")
		fmt.Fprint(w, crossDomainPage)
	}))
	defer srv.Close()

	server, err := NewResolver(srv.Client(), srv.URL).Resolve(context.Background(), "showdown")
	require.NoError(t, err)

	assert.Equal(t, "showdown.psim.us", <-hosts)
	assert.Equal(t, showdown.Server{Host: "sim3.psim.us", Port: 8000, ID: "showdown"}, server)
}

// TestResolveFullName tests that names with a dot are sent unchanged
func TestResolveFullName(t *testing.T) {
	t.Parallel()

	hosts := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hosts <- r.URL.Query().Get("host")
		fmt.Fprint(w, crossDomainPage)
	}))
	defer srv.Close()

	_, err := NewResolver(srv.Client(), srv.URL).Resolve(context.Background(), "example.com")
	require.NoError(t, err)
	assert.Equal(t, "example.com", <-hosts)
}

// TestResolveUnknown tests that a page without config fails
func TestResolveUnknown(t *testing.T) {
	t.Parallel()

	for name, body := range map[string]string{
		"empty body":     "",
		"no config":      "<html></html>",
		"config no host": "var config = {\"port\":8000};\n",
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, body)
			}))
			defer srv.Close()

			_, err := NewResolver(srv.Client(), srv.URL).Resolve(context.Background(), "nowhere")
			assert.True(t, errors.Is(err, showdown.ErrUnknownServer), "got %v", err)
		})
	}
}

// TestAuthenticate tests the login form and assertion extraction
func TestAuthenticate(t *testing.T) {
	t.Parallel()

	paths := make(chan string, 1)
	forms := make(chan map[string]string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths <- r.URL.Path
		assert.NoError(t, r.ParseForm())
		forms <- map[string]string{
			"act":            r.PostForm.Get("act"),
			"challengekeyid": r.PostForm.Get("challengekeyid"),
			"challenge":      r.PostForm.Get("challenge"),
			"name":           r.PostForm.Get("name"),
			"pass":           r.PostForm.Get("pass"),
		}
		fmt.Fprint(w, `]{"actionsuccess":true,"assertion":"abc,def"}`)
	}))
	defer srv.Close()

	auth := NewAuthenticator(srv.Client(), srv.URL)
	assertion, err := auth.Authenticate(context.Background(),
		showdown.Server{ID: "smogtours"},
		showdown.Challenge{KeyID: "4", Value: "c0ffee"},
		"Bot", "hunter2")
	require.NoError(t, err)

	assert.Equal(t, "abc,def", assertion)
	assert.Equal(t, "/~~smogtours/action.php", <-paths)
	assert.Equal(t, map[string]string{
		"act":            "login",
		"challengekeyid": "4",
		"challenge":      "c0ffee",
		"name":           "Bot",
		"pass":           "hunter2",
	}, <-forms)
}

// TestAuthenticateDefaultServerID tests that a record without id logs in
// against the main server
func TestAuthenticateDefaultServerID(t *testing.T) {
	t.Parallel()

	paths := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths <- r.URL.Path
		fmt.Fprint(w, `]{"assertion":"ok"}`)
	}))
	defer srv.Close()

	_, err := NewAuthenticator(srv.Client(), srv.URL+"/").Authenticate(context.Background(),
		showdown.Server{}, showdown.Challenge{KeyID: "1", Value: "x"}, "Bot", "pw")
	require.NoError(t, err)
	assert.Equal(t, "/~~showdown/action.php", <-paths)
}

// TestAuthenticateRejected tests that rejected logins match
// ErrInvalidCredentials
func TestAuthenticateRejected(t *testing.T) {
	t.Parallel()

	for name, body := range map[string]string{
		"error assertion": `]{"actionsuccess":false,"assertion":";;Wrong password."}`,
		"no assertion":    `]{"actionsuccess":false}`,
		"empty body":      ``,
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, body)
			}))
			defer srv.Close()

			_, err := NewAuthenticator(srv.Client(), srv.URL).Authenticate(context.Background(),
				showdown.Server{ID: "showdown"}, showdown.Challenge{KeyID: "1", Value: "x"}, "Bot", "bad")
			assert.True(t, errors.Is(err, showdown.ErrInvalidCredentials), "got %v", err)
		})
	}
}

// TestAuthenticateServerError tests that a failing login server is not
// mistaken for bad credentials
func TestAuthenticateServerError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewAuthenticator(srv.Client(), srv.URL).Authenticate(context.Background(),
		showdown.Server{}, showdown.Challenge{}, "Bot", "pw")
	require.Error(t, err)
	assert.False(t, errors.Is(err, showdown.ErrInvalidCredentials))
}

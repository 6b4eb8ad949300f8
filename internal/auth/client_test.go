package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/nightjar-app/nightjar-go/internal/api"
)

// memStore is an in-memory tokenstore.TokenStore for tests.
type memStore struct {
	mu    sync.Mutex
	token string
}

func (m *memStore) Read(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token == "" {
		return "", errors.New("no token")
	}
	return m.token, nil
}

func (m *memStore) Write(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

func (m *memStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	return nil
}

func TestSignInNextSteps(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     SignInResult
	}{
		{
			name:     "done",
			response: `{"next_step":"done","session_token":"sess","refresh_token":"ref"}`,
			want:     SignInResult{Step: StepDone, SessionToken: "sess", RefreshToken: "ref"},
		},
		{
			name:     "confirmation needed",
			response: `{"next_step":"confirmation_needed"}`,
			want:     SignInResult{Step: StepConfirmationNeeded},
		},
		{
			name:     "password reset required",
			response: `{"next_step":"password_reset_required"}`,
			want:     SignInResult{Step: StepPasswordResetRequired},
		},
		{
			name:     "totp required",
			response: `{"next_step":"mfa_required","mfa_kind":"totp"}`,
			want:     SignInResult{Step: StepMFARequired, MFAKind: MFATOTP},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				require.Equal(t, "/auth/sign-in", r.URL.Path)
				var body map[string]string
				require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
				assert.Equal(t, "ada@example.com", body["identifier"])
				w.Header().Set("Content-Type", "application/json")
				fmt.Fprint(w, tt.response)
			}))
			t.Cleanup(server.Close)

			client, err := NewClient(server.URL, &memStore{})
			require.NoError(t, err)

			result, err := client.SignIn(context.Background(), "ada@example.com", "hunter2")
			require.NoError(t, err)
			assert.Equal(t, tt.want, *result)
		})
	}
}

func TestSignInDonePersistsRefreshToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"next_step":"done","session_token":"sess","refresh_token":"ref-1"}`)
	}))
	t.Cleanup(server.Close)

	store := &memStore{}
	client, err := NewClient(server.URL, store)
	require.NoError(t, err)

	_, err = client.SignIn(context.Background(), "ada", "pw")
	require.NoError(t, err)

	stored, err := store.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ref-1", stored)
}

func TestSignInRejectsMalformedResponses(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{name: "missing next_step", response: `{"session_token":"sess"}`},
		{name: "done without token", response: `{"next_step":"done"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				fmt.Fprint(w, tt.response)
			}))
			t.Cleanup(server.Close)

			client, err := NewClient(server.URL, &memStore{})
			require.NoError(t, err)

			_, err = client.SignIn(context.Background(), "ada", "pw")
			require.Error(t, err)
		})
	}
}

func TestSignInSurfacesHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad credentials", http.StatusUnauthorized)
	}))
	t.Cleanup(server.Close)

	client, err := NewClient(server.URL, &memStore{})
	require.NoError(t, err)

	_, err = client.SignIn(context.Background(), "ada", "wrong")

	var httpErr *api.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Status)
}

func TestRefreshSessionRotatesToken(t *testing.T) {
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "stored-refresh", body["refresh_token"])
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"new-session","refresh_token":"rotated","token_type":"Bearer","expires_in":3600}`)
	}))
	t.Cleanup(tokenServer.Close)

	store := &memStore{token: "stored-refresh"}
	client, err := NewClient("https://api.example.com", store,
		WithEndpoint(oauth2.Endpoint{TokenURL: tokenServer.URL, AuthStyle: oauth2.AuthStyleInParams}))
	require.NoError(t, err)

	session, err := client.RefreshSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "new-session", session)

	stored, err := store.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "rotated", stored, "rotated refresh token must be written back")
}

func TestRefreshSessionWithoutStoredToken(t *testing.T) {
	client, err := NewClient("https://api.example.com", &memStore{})
	require.NoError(t, err)

	_, err = client.RefreshSession(context.Background())
	require.Error(t, err)
}

func TestSignOutClearsRefreshToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/sign-out", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(server.Close)

	store := &memStore{token: "stored-refresh"}
	client, err := NewClient(server.URL, store)
	require.NoError(t, err)

	require.NoError(t, client.SignOut(context.Background()))

	_, err = store.Read(context.Background())
	require.Error(t, err, "refresh token must be cleared")
}

func TestPasswordResetFlow(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/password/reset":
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"status":"code_sent","destination":"a***@example.com"}`)
		case "/auth/password/confirm":
			w.WriteHeader(http.StatusNoContent)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	client, err := NewClient(server.URL, &memStore{})
	require.NoError(t, err)

	challenge, err := client.RequestPasswordReset(context.Background(), "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, "code_sent", challenge.Status)
	assert.Equal(t, "a***@example.com", challenge.Destination)

	require.NoError(t, client.ConfirmPasswordReset(context.Background(), "ada@example.com", "123456", "new-pw"))
}

func TestConfirmSignUp(t *testing.T) {
	var gotBody map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/sign-up/confirm", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(server.Close)

	client, err := NewClient(server.URL, &memStore{})
	require.NoError(t, err)

	require.NoError(t, client.ConfirmSignUp(context.Background(), "ada@example.com", "424242"))
	assert.Equal(t, "424242", gotBody["code"])
}

package authclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTokenInfoServer(t *testing.T, status int, body string) (*httptest.Server, <-chan string) {
	t.Helper()

	gotToken := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case gotToken <- r.URL.Query().Get("id_token"):
		default:
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, gotToken
}

func TestIntrospect_DecodesPayload(t *testing.T) {
	t.Parallel()

	srv, got := newTokenInfoServer(t, http.StatusOK, `{
		"aud": "client-1",
		"email": "a@x.com",
		"email_verified": "true",
		"sub": "1234567890",
		"picture": "https://lh3.example.com/a.png",
		"name": "Alice Nguyen"
	}`)

	info, err := NewClient(srv.URL, WithHTTPClient(srv.Client())).Introspect(context.Background(), "id-token-1")
	require.NoError(t, err)

	assert.Equal(t, "id-token-1", <-got)
	assert.Equal(t, "client-1", info.Audience)
	assert.Equal(t, "a@x.com", info.Email)
	require.NotNil(t, info.EmailVerified)
	assert.True(t, *info.EmailVerified)
	assert.Equal(t, "1234567890", info.Subject)
	assert.Equal(t, "https://lh3.example.com/a.png", info.Picture)
	assert.Equal(t, "Alice Nguyen", info.Name)
}

func TestIntrospect_EmailVerifiedForms(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		want *bool
	}{
		{name: "bool false", body: `{"email_verified": false}`, want: boolPtr(false)},
		{name: "string false", body: `{"email_verified": "false"}`, want: boolPtr(false)},
		{name: "bool true", body: `{"email_verified": true}`, want: boolPtr(true)},
		{name: "absent", body: `{}`, want: nil},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv, _ := newTokenInfoServer(t, http.StatusOK, tt.body)
			info, err := NewClient(srv.URL).Introspect(context.Background(), "x")
			require.NoError(t, err)
			assert.Equal(t, tt.want, info.EmailVerified)
		})
	}
}

func TestIntrospect_Rejected(t *testing.T) {
	t.Parallel()

	srv, _ := newTokenInfoServer(t, http.StatusBadRequest, `{"error": "invalid_token"}`)

	_, err := NewClient(srv.URL).Introspect(context.Background(), "bad")
	assert.ErrorIs(t, err, ErrRejected)
}

func TestIntrospect_BadJSON(t *testing.T) {
	t.Parallel()

	srv, _ := newTokenInfoServer(t, http.StatusOK, `not json`)

	_, err := NewClient(srv.URL).Introspect(context.Background(), "x")
	assert.Error(t, err)
}

func boolPtr(b bool) *bool { return &b }

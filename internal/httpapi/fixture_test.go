package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/raimangsxr/my-warehouse/internal/activity"
	"github.com/raimangsxr/my-warehouse/internal/authsvc"
	"github.com/raimangsxr/my-warehouse/internal/authtoken"
	"github.com/raimangsxr/my-warehouse/internal/boxes"
	"github.com/raimangsxr/my-warehouse/internal/items"
	"github.com/raimangsxr/my-warehouse/internal/membership"
	"github.com/raimangsxr/my-warehouse/internal/secretcrypt"
	"github.com/raimangsxr/my-warehouse/internal/settings"
	"github.com/raimangsxr/my-warehouse/internal/store"
	"github.com/raimangsxr/my-warehouse/internal/syncengine"
	"github.com/raimangsxr/my-warehouse/internal/transfer"
)

type testServer struct {
	t   *testing.T
	srv *httptest.Server
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	issuer := authtoken.NewIssuer("test-secret", 15)
	membershipMgr := membership.New()
	boxMgr := boxes.New(nil)
	itemMgr := items.New(boxMgr, nil)
	key := secretcrypt.DeriveKey("test-encryption-key", "test-secret")
	box, err := secretcrypt.New(key)
	require.NoError(t, err)

	server := NewServer(Deps{
		DB:         s.DB(),
		Issuer:     issuer,
		Auth:       authsvc.New(issuer, 30, membershipMgr),
		Membership: membershipMgr,
		Boxes:      boxMgr,
		Items:      itemMgr,
		Sync:       syncengine.New(boxMgr, itemMgr, nil),
		Transfer:   transfer.New(boxMgr, nil),
		Activity:   activity.New(nil),
		Settings:   settings.New(box),
	})

	httpServer := httptest.NewServer(server.Router(""))
	t.Cleanup(httpServer.Close)
	return &testServer{t: t, srv: httpServer}
}

func (ts *testServer) do(method, path, token string, body any) *http.Response {
	ts.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(ts.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, ts.srv.URL+path, reader)
	require.NoError(ts.t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(ts.t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, dst any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dst))
}

// signupAndLogin creates a user and returns an access token for it.
func (ts *testServer) signupAndLogin(email, password string) string {
	ts.t.Helper()
	resp := ts.do(http.MethodPost, "/auth/signup", "", signupRequest{Email: email, Password: password})
	require.Equal(ts.t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = ts.do(http.MethodPost, "/auth/login", "", loginRequest{Email: email, Password: password})
	require.Equal(ts.t, http.StatusOK, resp.StatusCode)
	var session sessionResponse
	decodeBody(ts.t, resp, &session)
	return session.AccessToken
}

func (ts *testServer) createWarehouse(token, name string) string {
	ts.t.Helper()
	resp := ts.do(http.MethodPost, "/warehouses", token, createWarehouseRequest{Name: name})
	require.Equal(ts.t, http.StatusCreated, resp.StatusCode)
	var out map[string]string
	decodeBody(ts.t, resp, &out)
	return out["id"]
}

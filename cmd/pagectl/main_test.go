package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"pagebuilder-go-server/domain/entity"
	domainErrors "pagebuilder-go-server/domain/errors"
	"pagebuilder-go-server/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ========== 测试辅助 ==========

type fakeServer struct {
	*httptest.Server
	token  string
	logins int
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()
	token, err := session.Sign(entity.User{ID: "user_1", Email: "ada@example.com", Name: "Ada"},
		[]byte("secret"), time.Now(), time.Hour)
	require.NoError(t, err)

	fs := &fakeServer{token: token}
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		fs.logins++
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Email != "ada@example.com" || req.Password != "hunter2" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"token": fs.token})
	})
	mux.HandleFunc("/api/pages", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+fs.token {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"pages": []map[string]any{
			{"pageId": "p1", "title": "Spring Drive", "slug": "spring-drive", "status": "draft", "version": 3, "updatedAt": "2026-03-01T10:00:00Z"},
		}})
	})
	fs.Server = httptest.NewServer(mux)
	t.Cleanup(fs.Close)
	return fs
}

// run 模拟一次独立的命令行调用
func run(t *testing.T, configDir, stdin string, args ...string) (string, error) {
	t.Helper()
	a := newApp()
	a.configDir = configDir
	a.in = strings.NewReader(stdin)

	var out bytes.Buffer
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(&out)
	err := root.Execute()
	return out.String(), err
}

// ========== 命令测试 ==========

func TestLogin_WhoamiPagesLogout(t *testing.T) {
	srv := newFakeServer(t)
	dir := t.TempDir()

	out, err := run(t, dir, "", "login", "--server", srv.URL, "-e", "ada@example.com", "-p", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, "Logged in as Ada <ada@example.com>\n", out)

	stored, err := os.ReadFile(filepath.Join(dir, "token"))
	require.NoError(t, err)
	assert.Equal(t, srv.token, strings.TrimSpace(string(stored)))

	out, err = run(t, dir, "", "whoami")
	require.NoError(t, err)
	assert.Equal(t, "Ada <ada@example.com>\n", out)

	out, err = run(t, dir, "", "pages", "--server", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "TITLE")
	assert.Contains(t, out, "Spring Drive")
	assert.Contains(t, out, "2026-03-01T10:00:00Z")

	out, err = run(t, dir, "", "logout")
	require.NoError(t, err)
	assert.Equal(t, "Logged out\n", out)
	assert.NoFileExists(t, filepath.Join(dir, "token"))

	_, err = run(t, dir, "", "whoami")
	assert.ErrorContains(t, err, "not logged in")
}

func TestLogin_PromptsForMissingCredentials(t *testing.T) {
	srv := newFakeServer(t)
	dir := t.TempDir()

	out, err := run(t, dir, "ada@example.com\nhunter2\n", "login", "--server", srv.URL)

	require.NoError(t, err)
	assert.Contains(t, out, "Email: ")
	assert.Contains(t, out, "Password: ")
	assert.Contains(t, out, "Logged in as Ada")
}

func TestLogin_Failures(t *testing.T) {
	testCases := []struct {
		name  string
		stdin string
		args  []string
	}{
		{name: "wrong password", args: []string{"-e", "ada@example.com", "-p", "nope"}},
		{name: "empty prompt input", stdin: "\n\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			srv := newFakeServer(t)
			dir := t.TempDir()

			args := append([]string{"login", "--server", srv.URL}, tc.args...)
			_, err := run(t, dir, tc.stdin, args...)

			assert.ErrorIs(t, err, domainErrors.ErrInvalidCredentials)
			assert.NoFileExists(t, filepath.Join(dir, "token"))
		})
	}
}

func TestPages_RequiresLogin(t *testing.T) {
	srv := newFakeServer(t)

	_, err := run(t, t.TempDir(), "", "pages", "--server", srv.URL)

	assert.ErrorContains(t, err, "not logged in")
}

func TestPages_RejectedTokenClearsSession(t *testing.T) {
	srv := newFakeServer(t)
	dir := t.TempDir()

	_, err := run(t, dir, "", "login", "--server", srv.URL, "-e", "ada@example.com", "-p", "hunter2")
	require.NoError(t, err)

	// 服务端轮换了 token
	srv.token = srv.token + "x"
	_, err = run(t, dir, "", "pages", "--server", srv.URL)

	assert.ErrorContains(t, err, "session expired")
	assert.NoFileExists(t, filepath.Join(dir, "token"))
}

func TestStoredExpiredTokenIsDropped(t *testing.T) {
	dir := t.TempDir()
	token, err := session.Sign(entity.User{ID: "user_1", Email: "ada@example.com"},
		[]byte("secret"), time.Now().Add(-2*time.Hour), time.Hour)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "token"), []byte(token), 0o600))

	_, err = run(t, dir, "", "whoami")

	assert.ErrorContains(t, err, "not logged in")
	assert.NoFileExists(t, filepath.Join(dir, "token"))
}

// ========== 配置测试 ==========

func TestLoadConfig_FileAndDefaults(t *testing.T) {
	srv := newFakeServer(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"),
		[]byte("server: "+srv.URL+"/\n"), 0o644))

	_, err := run(t, dir, "", "login", "-e", "ada@example.com", "-p", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, 1, srv.logins)

	out, err := run(t, dir, "", "pages")
	require.NoError(t, err)
	assert.Contains(t, out, "Spring Drive")
}

func TestLoadConfig_FlagsOverride(t *testing.T) {
	dir := t.TempDir()
	a := newApp()
	a.configDir = dir
	root := newRootCmd(a)
	require.NoError(t, root.ParseFlags([]string{"--server", "http://example.test/", "--token-file", "/tmp/tok"}))

	cfg, err := loadConfig(dir, root)

	require.NoError(t, err)
	assert.Equal(t, config{
		Server:    "http://example.test",
		AuthURL:   "http://example.test/auth/login",
		TokenFile: "/tmp/tok",
	}, cfg)
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	root := newRootCmd(newApp())

	cfg, err := loadConfig(dir, root)

	require.NoError(t, err)
	assert.Equal(t, defaultServer, cfg.Server)
	assert.Equal(t, filepath.Join(dir, "token"), cfg.TokenFile)
}

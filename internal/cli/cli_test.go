package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	nethttp "net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imgshelf/imgshelf/internal/api"
	"github.com/imgshelf/imgshelf/internal/config"
	"github.com/imgshelf/imgshelf/internal/models"
)

// fakeServer serves the images API from memory.
type fakeServer struct {
	mu     sync.Mutex
	moved  []models.MoveRequest
	images map[string][]models.Image
}

func newFakeServer(t *testing.T) (*fakeServer, *httptest.Server) {
	t.Helper()
	fs := &fakeServer{images: map[string][]models.Image{
		"f1": {{ID: "i1", FileName: "beach.jpg", FileSize: 2048}, {ID: "i2", FileName: "city.jpg"}},
		"f2": {},
	}}

	mux := nethttp.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		var req models.LoginRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Password != "secret" {
			w.WriteHeader(nethttp.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(models.LoginResult{Token: "tok-" + req.Username, Username: req.Username})
	})
	authed := func(h nethttp.HandlerFunc) nethttp.HandlerFunc {
		return func(w nethttp.ResponseWriter, r *nethttp.Request) {
			if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer tok-") {
				w.WriteHeader(nethttp.StatusUnauthorized)
				return
			}
			h(w, r)
		}
	}
	mux.HandleFunc("GET /folders", authed(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		_ = json.NewEncoder(w).Encode(models.FolderList{Folders: []models.Folder{
			{ID: "f1", Name: "Trip"}, {ID: "f2", Name: "Work"},
		}})
	}))
	mux.HandleFunc("GET /folders/{id}/images", authed(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		fs.mu.Lock()
		defer fs.mu.Unlock()
		_ = json.NewEncoder(w).Encode(models.ImagePage{Images: fs.images[r.PathValue("id")]})
	}))
	mux.HandleFunc("POST /images/move", authed(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		var req models.MoveRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		fs.mu.Lock()
		fs.moved = append(fs.moved, req)
		fs.mu.Unlock()
		_ = json.NewEncoder(w).Encode(models.MoveResponse{Moved: len(req.ImageIDs)})
	}))

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return fs, srv
}

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	isTerminal = func(*os.File) bool { return false }

	root := NewRootCmd()
	AddCommands(root)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestLoginListLogout(t *testing.T) {
	_, srv := newFakeServer(t)
	cfgPath := filepath.Join(t.TempDir(), "config")

	out, err := runCLI(t, "secret\n", "--config", cfgPath, "--api-url", srv.URL, "login", "--username", "alice")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in as alice")

	stored, err := config.LoadConfig(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, "tok-alice", stored.Token)
	assert.Equal(t, "alice", stored.Username)

	out, err = runCLI(t, "", "--config", cfgPath, "--api-url", srv.URL, "folders", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Trip")
	assert.Contains(t, out, "Work")

	out, err = runCLI(t, "", "--config", cfgPath, "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged out")

	_, err = runCLI(t, "", "--config", cfgPath, "--api-url", srv.URL, "folders", "list")
	assert.ErrorIs(t, err, config.ErrNotLoggedIn)
}

func TestLoginWrongPassword(t *testing.T) {
	_, srv := newFakeServer(t)
	cfgPath := filepath.Join(t.TempDir(), "config")

	_, err := runCLI(t, "nope\n", "--config", cfgPath, "--api-url", srv.URL, "login", "-u", "alice")
	assert.ErrorIs(t, err, api.ErrAuthRequired)
}

func TestImagesListMatch(t *testing.T) {
	_, srv := newFakeServer(t)
	cfgPath := filepath.Join(t.TempDir(), "config")

	out, err := runCLI(t, "", "--config", cfgPath, "--api-url", srv.URL, "--token", "tok-bob",
		"images", "list", "--folder", "f1", "--match", "BEACH")
	require.NoError(t, err)
	assert.Contains(t, out, "beach.jpg")
	assert.Contains(t, out, "2.0 KiB")
	assert.NotContains(t, out, "city.jpg")
}

func TestImagesMove(t *testing.T) {
	fs, srv := newFakeServer(t)
	cfgPath := filepath.Join(t.TempDir(), "config")
	base := []string{"--config", cfgPath, "--api-url", srv.URL, "--token", "tok-bob", "images", "move", "--from", "f1", "--to", "f2"}

	out, err := runCLI(t, "n\n", append(base, "i1", "i2")...)
	require.NoError(t, err)
	assert.Contains(t, out, `Move 2 image(s) to "Work"?`)
	assert.Contains(t, out, "Move cancelled")
	assert.Empty(t, fs.moved)

	out, err = runCLI(t, "", append(base, "--yes", "i1", "i2")...)
	require.NoError(t, err)
	assert.Contains(t, out, "Moved 2 image(s)")
	require.Len(t, fs.moved, 1)
	assert.Equal(t, []string{"i1", "i2"}, fs.moved[0].ImageIDs)
	assert.Equal(t, "f2", fs.moved[0].TargetFolderID)

	_, err = runCLI(t, "", append(base, "--yes", "missing")...)
	assert.ErrorContains(t, err, "not in folder f1")
}

func TestExplain(t *testing.T) {
	assert.NoError(t, explain(nil))

	err := explain(&api.StatusError{Op: "list folders", StatusCode: 401})
	assert.ErrorIs(t, err, api.ErrAuthRequired)
	assert.Contains(t, err.Error(), "imgshelf login")

	wrapped := explain(fmt.Errorf("open folder f1: %w", api.ErrAuthRequired))
	assert.Contains(t, wrapped.Error(), "imgshelf login")

	missing := explain(&api.StatusError{Op: "list images", StatusCode: 404})
	assert.ErrorIs(t, missing, api.ErrNotFound)
	assert.Contains(t, missing.Error(), "check the folder or image id")

	plain := errors.New("boom")
	assert.Equal(t, plain, explain(plain))
}

package route

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beecam/internal/dto"
	"beecam/internal/logger"
	"beecam/internal/model"
	"beecam/internal/repository/sqlite"
	"beecam/internal/service/query"
	hubsvc "beecam/internal/service/websocket"
	"beecam/internal/state"
	"beecam/internal/storage"
)

type env struct {
	fs      afero.Fs
	rt      *state.Runtime
	journal *sqlite.JournalRepository
	hub     *hubsvc.HubService
	srv     *httptest.Server
	client  *http.Client
}

func newEnv(t *testing.T, password string) *env {
	t.Helper()
	log := logger.New(io.Discard)
	fs := afero.NewMemMapFs()
	rt := state.NewRuntime(true, false)

	db, err := sqlite.New(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	journal := sqlite.NewJournalRepository(db)

	hub := hubsvc.NewHubService(log)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	srv := httptest.NewServer(SetupRoutes(Deps{
		Password: password,
		Fs:       fs,
		Runtime:  rt,
		Query:    query.NewService(fs, log),
		Hub:      hub,
		Journal:  journal,
		Logger:   log,
	}))
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})

	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}
	return &env{fs: fs, rt: rt, journal: journal, hub: hub, srv: srv, client: client}
}

func (e *env) do(t *testing.T, method, path string, body io.Reader) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(method, e.srv.URL+path, body)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	resp, err := e.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(raw)
}

func assertNoCache(t *testing.T, resp *http.Response) {
	t.Helper()
	assert.Equal(t, "no-store, no-cache, must-revalidate, max-age=0", resp.Header.Get("Cache-Control"))
	assert.Equal(t, "no-cache", resp.Header.Get("Pragma"))
	assert.Equal(t, "0", resp.Header.Get("Expires"))
}

func TestHealth(t *testing.T) {
	e := newEnv(t, "")
	resp, body := e.do(t, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body)
	assertNoCache(t, resp)
}

func TestState(t *testing.T) {
	e := newEnv(t, "")
	e.rt.AddRound(100, 20)

	resp, body := e.do(t, http.MethodGet, "/api/state", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"infer":true,"save":false,"bees":100,"mites":20,"avg_weighted":20.00}`, body)
	assert.Contains(t, body, `"avg_weighted":20.00`)
	assertNoCache(t, resp)

	resp, body = e.do(t, http.MethodPost, "/api/state?infer=0&save=yes", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, e.rt.InferEnabled())
	assert.True(t, e.rt.SaveEnabled())
	assert.Contains(t, body, `"infer":false`)

	_, _ = e.do(t, http.MethodPost, "/api/state", strings.NewReader("save=0"))
	assert.False(t, e.rt.SaveEnabled())
	assert.False(t, e.rt.InferEnabled(), "absent flag keeps its value")
}

func TestBoots(t *testing.T) {
	e := newEnv(t, "")

	resp, body := e.do(t, http.MethodGet, "/api/boots?root=frames", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.JSONEq(t, `{"error":"bad root"}`, body)
	assertNoCache(t, resp)

	resp, body = e.do(t, http.MethodGet, "/api/boots?root=overlays", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "[]", body)

	require.NoError(t, e.fs.MkdirAll("/bee_overlays/boot_000001", 0755))
	require.NoError(t, e.fs.MkdirAll("/bee_overlays/boot_000002", 0755))
	resp, body = e.do(t, http.MethodGet, "/api/boots?root=bee", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"chunked"}, resp.TransferEncoding)
	assert.Equal(t, int64(-1), resp.ContentLength)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assertNoCache(t, resp)

	var names []string
	require.NoError(t, json.Unmarshal([]byte(body), &names))
	assert.ElementsMatch(t, []string{"boot_000001", "boot_000002"}, names)
}

func TestImages(t *testing.T) {
	e := newEnv(t, "")

	resp, body := e.do(t, http.MethodGet, "/api/images?root=bee_overlays", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.JSONEq(t, `{"error":"missing root/boot"}`, body)

	resp, _ = e.do(t, http.MethodGet, "/api/images?root=nope&boot=boot_000001", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = e.do(t, http.MethodGet, "/api/images?root=overlays&boot=boot_000001&sub=other", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	require.NoError(t, e.fs.MkdirAll("/bee_overlays/boot_000007", 0755))
	require.NoError(t, afero.WriteFile(e.fs, "/bee_overlays/boot_000007/000001.jpg", []byte("a"), 0644))
	require.NoError(t, afero.WriteFile(e.fs, "/bee_overlays/boot_000007/000002.jpg", []byte("b"), 0644))

	resp, body = e.do(t, http.MethodGet, "/api/images?root=bee_overlays&boot=boot_000007", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var entries []dto.ImageEntry
	require.NoError(t, json.Unmarshal([]byte(body), &entries))
	assert.ElementsMatch(t, []dto.ImageEntry{
		{Name: "000001.jpg", Path: "/bee_overlays/boot_000007/000001.jpg"},
		{Name: "000002.jpg", Path: "/bee_overlays/boot_000007/000002.jpg"},
	}, entries)

	resp, body = e.do(t, http.MethodGet, "/api/images?root=overlays&boot=boot_000007", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "[]", body)
}

func TestFile(t *testing.T) {
	e := newEnv(t, "")
	require.NoError(t, e.fs.MkdirAll("/overlays/boot_000001/mite", 0755))
	require.NoError(t, afero.WriteFile(e.fs, "/overlays/boot_000001/mite/000001_00.jpg", []byte("jpegdata"), 0644))
	require.NoError(t, afero.WriteFile(e.fs, "/frames/boot_000001/000001.jpg", []byte("raw"), 0644))

	resp, body := e.do(t, http.MethodGet, "/sd?path="+url.QueryEscape("/overlays/boot_000001/mite/000001_00.jpg"), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "jpegdata", body)
	assert.Equal(t, "image/jpeg", resp.Header.Get("Content-Type"))
	assert.Equal(t, int64(8), resp.ContentLength)
	assert.Equal(t, "inline", resp.Header.Get("Content-Disposition"))

	resp, body = e.do(t, http.MethodGet, "/sd?path="+url.QueryEscape("/frames/boot_000001/000001.jpg"), nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "forbidden", strings.TrimSpace(body))
	assertNoCache(t, resp)

	resp, _ = e.do(t, http.MethodGet, "/sd?path="+url.QueryEscape("/overlays/../frames/boot_000001/000001.jpg"), nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body = e.do(t, http.MethodGet, "/sd?path="+url.QueryEscape("/overlays/boot_000001/mite/none.jpg"), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "not found", strings.TrimSpace(body))

	resp, _ = e.do(t, http.MethodGet, "/sd?path="+url.QueryEscape("/overlays/boot_000001/mite"), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestNotFound(t *testing.T) {
	e := newEnv(t, "")
	resp, body := e.do(t, http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "not found", body)
	assertNoCache(t, resp)
}

func TestViewerPages(t *testing.T) {
	e := newEnv(t, "")
	resp, body := e.do(t, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "/api/boots")

	resp, body = e.do(t, http.MethodGet, "/login", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "/auth/login")
}

func TestJournal(t *testing.T) {
	e := newEnv(t, "")

	resp, body := e.do(t, http.MethodGet, "/api/journal", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, "[]", body)

	id, err := e.journal.InsertFrame(&model.FrameRecord{BootID: 3, Frame: 1, Bees: 4, Mites: 1, Timestamp: time.Now()})
	require.NoError(t, err)
	require.NoError(t, e.journal.InsertCrops([]model.CropRecord{{FrameID: id, BBoxIndex: 0, Mites: 1}}))

	resp, body = e.do(t, http.MethodGet, "/api/journal?boot=3", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var frames []model.FrameRecord
	require.NoError(t, json.Unmarshal([]byte(body), &frames))
	require.Len(t, frames, 1)
	assert.Equal(t, 4, frames[0].Bees)

	resp, body = e.do(t, http.MethodGet, "/api/journal/crops?frame=1", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"mites":1`)

	resp, _ = e.do(t, http.MethodGet, "/api/journal?boot=x", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSessionLog(t *testing.T) {
	e := newEnv(t, "")
	resp, _ := e.do(t, http.MethodGet, "/logs/session", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	session := storage.NewSession(5)
	require.NoError(t, afero.WriteFile(e.fs, session.LogPath, []byte("=== BOOT 5 ===\n"), 0644))
	e.rt.SetSession(session)

	resp, body := e.do(t, http.MethodGet, "/logs/session", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "=== BOOT 5 ===\n", body)
}

func TestAuth(t *testing.T) {
	e := newEnv(t, "hive")

	resp, _ := e.do(t, http.MethodGet, "/api/state", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = e.do(t, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = e.do(t, http.MethodPost, "/auth/login", strings.NewReader("password=wrong"))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = e.do(t, http.MethodPost, "/auth/login", strings.NewReader("password=hive"))
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	cookies := resp.Cookies()
	require.Len(t, cookies, 1)

	req, err := http.NewRequest(http.MethodGet, e.srv.URL+"/api/state", nil)
	require.NoError(t, err)
	req.AddCookie(cookies[0])
	authed, err := e.client.Do(req)
	require.NoError(t, err)
	authed.Body.Close()
	assert.Equal(t, http.StatusOK, authed.StatusCode)
}

func TestLive(t *testing.T) {
	e := newEnv(t, "")
	e.rt.AddRound(10, 5)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(e.srv.URL, "http")+"/api/live", nil)
	require.NoError(t, err)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var first dto.LiveEvent
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, dto.EventState, first.Type)
	require.NotNil(t, first.State)
	assert.Equal(t, uint32(10), first.State.Bees)

	// a state change reaches the viewer through the hub
	require.Eventually(t, func() bool { return e.hub.GetClientCount() == 1 }, time.Second, 10*time.Millisecond)
	resp, _ := e.do(t, http.MethodPost, "/api/state?save=1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var next dto.LiveEvent
	require.NoError(t, conn.ReadJSON(&next))
	assert.Equal(t, dto.EventState, next.Type)
	assert.True(t, next.State.Save)
}

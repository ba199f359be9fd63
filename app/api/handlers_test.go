package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lysyi3m/edgeboard/app/cfg"
	"github.com/lysyi3m/edgeboard/app/content"
	"github.com/lysyi3m/edgeboard/app/database"
	"github.com/lysyi3m/edgeboard/app/probe"
	"github.com/lysyi3m/edgeboard/app/render"
	"github.com/lysyi3m/edgeboard/app/site"
	"github.com/lysyi3m/edgeboard/app/theme"
	"github.com/mmcdole/gofeed"
)

var pngHead = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func setupTestConfig() {
	// Clear os.Args to prevent config parsing from failing
	oldArgs := os.Args
	os.Args = []string{"test", "--base-url", "https://edge.example.com"}
	defer func() { os.Args = oldArgs }()

	cfg.Load()
}

type testServer struct {
	engine   *gin.Engine
	prefRepo *database.PreferenceRepository
}

func newTestServer(t *testing.T, apiAccessKey string) *testServer {
	t.Helper()
	setupTestConfig()
	gin.SetMode(gin.TestMode)

	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/data/projects.json":
			w.Write([]byte(`[{"title": "Tide Pools", "date": "2024-03-01", "tags": ["audio"]}]`))
		case "/data/notes.json":
			w.Write([]byte(`[{"title": "Fog log", "date": "2024-05-01"}]`))
		case "/media/work-01.jpg":
			w.Write([]byte("jpg"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(origin.Close)

	siteDir := t.TempDir()
	files := map[string]string{
		"index.html":       `<html><body data-page="hub"><section id="projectsGrid"></section></body></html>`,
		"css/site.css":     "body{}",
		"about/index.html": "<p>about</p>",
	}
	for name, body := range files {
		file := filepath.Join(siteDir, filepath.FromSlash(name))
		os.MkdirAll(filepath.Dir(file), 0755)
		if err := os.WriteFile(file, []byte(body), 0644); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}

	db, err := database.NewConnection(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if _, _, err := database.RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	prefRepo := database.NewPreferenceRepository(db)
	themes := theme.NewManager(theme.NewPreferenceStore(prefRepo), "theme")

	renderer, err := render.NewRenderer()
	if err != nil {
		t.Fatalf("Failed to create renderer: %v", err)
	}

	pages := site.NewPageCache(filepath.Join(t.TempDir(), "pages"))
	loader := content.NewLoader(origin.Client(), origin.URL, "test", time.Second)
	prober := probe.NewProber(probe.NewHTTPChecker(origin.Client(), origin.URL, "test", time.Second), 10, 2, 2)
	pipeline := site.NewPipeline(siteDir, pages, loader, renderer, prober, themes, 0)

	app := site.NewApp(pages, themes, pipeline)
	if err := app.Boot(); err != nil {
		t.Fatalf("Failed to boot app: %v", err)
	}

	return &testServer{
		engine:   NewServer(NewHandler(app, prefRepo, siteDir), apiAccessKey),
		prefRepo: prefRepo,
	}
}

func (s *testServer) do(method, target string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode response %q: %v", w.Body.String(), err)
	}
	return body
}

func TestGetHealth(t *testing.T) {
	s := newTestServer(t, "")

	w := s.do("GET", "/health", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	body := decodeJSON(t, w)
	if body["loaded_pages"] != float64(5) {
		t.Errorf("Expected 5 loaded pages, got %v", body["loaded_pages"])
	}
	if body["booted"] != true {
		t.Errorf("Expected booted true, got %v", body["booted"])
	}
	if _, ok := body["theme"]; ok {
		t.Errorf("Expected no site-wide theme in health, got %v", body["theme"])
	}
}

func visitorFrom(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == visitorCookie {
			return map[string]string{"Cookie": visitorCookie + "=" + c.Value}
		}
	}
	t.Fatalf("Expected a %s cookie, got %v", visitorCookie, w.Header().Values("Set-Cookie"))
	return nil
}

func TestThemeEndpoints(t *testing.T) {
	s := newTestServer(t, "")

	w := s.do("GET", "/api/theme", nil, nil)
	if body := decodeJSON(t, w); body["theme"] != "dark" || body["next"] != "light" {
		t.Errorf("Expected dark theme with light next, got %v", body)
	}
	visitor := visitorFrom(t, w)
	id := strings.TrimPrefix(visitor["Cookie"], visitorCookie+"=")

	w = s.do("POST", "/api/theme/toggle", nil, visitor)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if body := decodeJSON(t, w); body["theme"] != "light" {
		t.Errorf("Expected toggled theme 'light', got %v", body["theme"])
	}
	if len(w.Result().Cookies()) != 0 {
		t.Error("Expected a known visitor not to get a new cookie")
	}

	pref, err := s.prefRepo.GetPreference("theme:" + id)
	if err != nil || pref == nil || pref.Value != "light" {
		t.Errorf("Expected stored theme 'light', got %+v (err %v)", pref, err)
	}

	headers := map[string]string{"Content-Type": "application/json", "Cookie": visitor["Cookie"]}
	w = s.do("PUT", "/api/theme", []byte(`{"theme": "dark"}`), headers)
	if body := decodeJSON(t, w); w.Code != http.StatusOK || body["theme"] != "dark" {
		t.Errorf("Expected theme set to 'dark', got %d %v", w.Code, body)
	}

	for _, payload := range []string{`{"theme": "neon"}`, `{}`, `not json`} {
		w = s.do("PUT", "/api/theme", []byte(payload), headers)
		if w.Code != http.StatusBadRequest {
			t.Errorf("Payload %s: expected status 400, got %d", payload, w.Code)
		}
	}

	pref, _ = s.prefRepo.GetPreference("theme:" + id)
	if pref == nil || pref.Value != "dark" {
		t.Errorf("Expected rejected updates to leave 'dark' stored, got %+v", pref)
	}
}

func TestThemeIsPerVisitor(t *testing.T) {
	s := newTestServer(t, "")

	alice := visitorFrom(t, s.do("GET", "/", nil, nil))
	bob := visitorFrom(t, s.do("GET", "/", nil, nil))
	if alice["Cookie"] == bob["Cookie"] {
		t.Fatal("Expected each new visitor to get its own id")
	}

	if w := s.do("POST", "/api/theme/toggle", nil, alice); w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	if w := s.do("GET", "/", nil, alice); !strings.Contains(w.Body.String(), `data-theme="light"`) {
		t.Errorf("Expected the toggling visitor to get the light page, got:\n%s", w.Body.String())
	}
	if w := s.do("GET", "/", nil, bob); !strings.Contains(w.Body.String(), `data-theme="dark"`) {
		t.Errorf("Expected the other visitor to keep the dark page, got:\n%s", w.Body.String())
	}
	if body := decodeJSON(t, s.do("GET", "/api/theme", nil, bob)); body["theme"] != "dark" {
		t.Errorf("Expected the other visitor's theme to stay 'dark', got %v", body["theme"])
	}

	// A tampered cookie is replaced rather than trusted.
	w := s.do("GET", "/api/theme", nil, map[string]string{"Cookie": visitorCookie + "=../../theme"})
	if fresh := visitorFrom(t, w); fresh["Cookie"] == visitorCookie+"=../../theme" {
		t.Error("Expected a malformed visitor id to be reissued")
	}
}

func TestGetPageAndStaticFiles(t *testing.T) {
	s := newTestServer(t, "")

	w := s.do("GET", "/", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if !strings.HasPrefix(w.Header().Get("Content-Type"), "text/html") {
		t.Errorf("Expected HTML content type, got '%s'", w.Header().Get("Content-Type"))
	}
	if !strings.Contains(w.Body.String(), "Tide Pools") {
		t.Errorf("Expected rendered projects, got:\n%s", w.Body.String())
	}

	w = s.do("GET", "/css/site.css", nil, nil)
	if w.Code != http.StatusOK || w.Body.String() != "body{}" {
		t.Errorf("Expected static stylesheet, got %d %q", w.Code, w.Body.String())
	}

	w = s.do("GET", "/about/", nil, nil)
	if w.Code != http.StatusOK || w.Body.String() != "<p>about</p>" {
		t.Errorf("Expected static directory index, got %d %q", w.Code, w.Body.String())
	}

	// The notes route exists but its template is missing from the site.
	for _, target := range []string{"/missing.png", "/notes/"} {
		if w = s.do("GET", target, nil, nil); w.Code != http.StatusNotFound {
			t.Errorf("%s: expected status 404, got %d", target, w.Code)
		}
	}

	if w = s.do("DELETE", "/", nil, nil); w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 for DELETE, got %d", w.Code)
	}
}

func TestGetScript(t *testing.T) {
	s := newTestServer(t, "")

	w := s.do("GET", render.ScriptPath, nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if !strings.HasPrefix(w.Header().Get("Content-Type"), "text/javascript") {
		t.Errorf("Expected JavaScript content type, got '%s'", w.Header().Get("Content-Type"))
	}
	if !bytes.Equal(w.Body.Bytes(), render.CardsScript()) {
		t.Error("Expected embedded card script")
	}
}

func TestGetFeed(t *testing.T) {
	s := newTestServer(t, "")

	w := s.do("GET", "/feed.xml", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if w.Header().Get("X-Feed-Items") != "2" {
		t.Errorf("Expected 2 feed items, got '%s'", w.Header().Get("X-Feed-Items"))
	}

	feed, err := gofeed.NewParser().ParseString(w.Body.String())
	if err != nil {
		t.Fatalf("Failed to parse feed: %v", err)
	}
	if feed.Title != "New Drop" {
		t.Errorf("Expected title 'New Drop', got '%s'", feed.Title)
	}
	if len(feed.Items) != 2 || feed.Items[0].Title != "Fog log" {
		t.Errorf("Expected 'Fog log' to lead the feed, got %d items", len(feed.Items))
	}
}

func TestGetNewDrop(t *testing.T) {
	s := newTestServer(t, "")

	w := s.do("GET", "/api/newdrop", nil, nil)
	body := decodeJSON(t, w)
	if body["total"] != float64(2) {
		t.Fatalf("Expected 2 drops, got %v", body["total"])
	}

	items := body["items"].([]interface{})
	first := items[0].(map[string]interface{})
	if first["title"] != "Fog log" || first["kind"] != "note" {
		t.Errorf("Expected newest note first, got %v", first)
	}
}

func TestGetDetected(t *testing.T) {
	s := newTestServer(t, "")

	w := s.do("GET", "/api/detected/work", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	body := decodeJSON(t, w)
	if body["total"] != float64(1) {
		t.Fatalf("Expected 1 detected file, got %v", body["total"])
	}
	item := body["items"].([]interface{})[0].(map[string]interface{})
	if item["name"] != "work-01.jpg" || item["kind"] != "image" {
		t.Errorf("Unexpected detected item: %v", item)
	}

	if w = s.do("GET", "/api/detected/zines", nil, nil); w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 for unknown convention, got %d", w.Code)
	}
}

func TestCreatePreviews(t *testing.T) {
	s := newTestServer(t, "")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, data := range map[string][]byte{"cover.png": pngHead, "notes.txt": []byte("hello world")} {
		part, err := mw.CreateFormFile("files", name)
		if err != nil {
			t.Fatalf("Failed to create form file: %v", err)
		}
		part.Write(data)
	}
	mw.Close()

	w := s.do("POST", "/api/previews", buf.Bytes(), map[string]string{"Content-Type": mw.FormDataContentType()})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	body := decodeJSON(t, w)
	previews := body["previews"].([]interface{})
	if len(previews) != 2 {
		t.Fatalf("Expected 2 previews, got %d", len(previews))
	}

	labels := make(map[string]interface{})
	for _, p := range previews {
		preview := p.(map[string]interface{})
		labels[preview["name"].(string)] = preview["label"]
	}
	if labels["cover.png"] != "Image" {
		t.Errorf("Expected 'Image' label for cover.png, got %v", labels["cover.png"])
	}
	if labels["notes.txt"] != "text/plain" {
		t.Errorf("Expected 'text/plain' label for notes.txt, got %v", labels["notes.txt"])
	}

	w = s.do("POST", "/api/previews", []byte("x"), map[string]string{"Content-Type": "text/plain"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for non-multipart body, got %d", w.Code)
	}
}

func TestPagesAPIAuthentication(t *testing.T) {
	s := newTestServer(t, "secret")

	if w := s.do("GET", "/api/pages", nil, nil); w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401 without key, got %d", w.Code)
	}
	if w := s.do("GET", "/api/pages", nil, map[string]string{"X-API-Key": "wrong"}); w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401 with wrong key, got %d", w.Code)
	}

	w := s.do("GET", "/api/pages", nil, map[string]string{"Authorization": "Bearer secret"})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if body := decodeJSON(t, w); body["total"] != float64(5) {
		t.Errorf("Expected 5 pages, got %v", body["total"])
	}

	w = s.do("GET", "/api/pages/work", nil, map[string]string{"X-API-Key": "secret"})
	if body := decodeJSON(t, w); w.Code != http.StatusOK || body["route"] != "/work/" {
		t.Errorf("Expected work page definition, got %d %v", w.Code, body)
	}

	w = s.do("POST", "/api/pages/zines/reload", nil, map[string]string{"X-API-Key": "secret"})
	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500 reloading a missing definition, got %d", w.Code)
	}
}

func TestPagesAPIDisabledWithoutKey(t *testing.T) {
	s := newTestServer(t, "")

	if w := s.do("GET", "/api/pages", nil, nil); w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 when the page API is disabled, got %d", w.Code)
	}
}

package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap/zapcore"

	"isdn/internal/events"
	"isdn/internal/http/handlers"
	applog "isdn/internal/log"
	"isdn/internal/repos"
)

type testApp struct {
	app    *fiber.App
	db     *sqlx.DB
	deps   *handlers.Deps
	events *events.Recorder
}

// newTestApp wires the real routes over a seeded in-memory database. loginMax > 0
// puts a limiter with that budget in front of the login endpoints.
func newTestApp(t *testing.T, loginMax int) testApp {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	rec := &events.Recorder{}
	deps := handlers.NewDeps(db, nil, rec)
	if err := deps.Missions.Load(context.Background()); err != nil {
		t.Fatalf("load missions: %v", err)
	}

	engine := html.New("../../web/templates", ".html")
	app := fiber.New(fiber.Config{Views: engine, BodyLimit: 1 << 20})
	app.Use(requestid.New())
	app.Use(csrf.New(csrf.Config{
		KeyLookup:      "form:csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		ContextKey:     "csrf",
		Next:           func(c *fiber.Ctx) bool { return strings.HasPrefix(c.Path(), "/api/") },
	}))
	app.Use(func(c *fiber.Ctx) error {
		if tok, ok := c.Locals("csrf").(string); ok {
			c.Locals("CSRFToken", tok)
		}
		return c.Next()
	})
	app.Use(handlers.Attach(deps.Auth))

	var loginLimit fiber.Handler
	if loginMax > 0 {
		loginLimit = limiter.New(limiter.Config{Max: loginMax, Expiration: time.Minute})
	}
	handlers.Mount(app, deps, loginLimit)
	return testApp{app: app, db: db, deps: deps, events: rec}
}

// token logs in through the API and returns the bearer token.
func (ta testApp) token(t *testing.T, username, password string) string {
	t.Helper()
	resp := ta.do(t, "POST", "/api/v1/session", "", map[string]string{"username": username, "password": password})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("login %s: status %d", username, resp.StatusCode)
	}
	out := decode[struct {
		Token string `json:"token"`
	}](t, resp)
	if out.Token == "" {
		t.Fatalf("login %s: empty token", username)
	}
	return out.Token
}

// do sends body as JSON with an optional bearer token.
func (ta testApp) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := ta.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

// page GETs an HTML route with the session cookie set.
func (ta testApp) page(t *testing.T, path, sid string) *http.Response {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	if sid != "" {
		req.AddCookie(&http.Cookie{Name: "sid", Value: sid})
	}
	resp, err := ta.app.Test(req, -1)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return v
}

func bodyString(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func cookieValue(resp *http.Response, name string) string {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

type logEntry struct {
	Level  string         `json:"level"`
	Kind   string         `json:"kind"`
	Action string         `json:"action"`
	Fields map[string]any `json:"fields"`
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

// captureLogs swaps the process logger for the duration of fn and returns what it wrote.
func captureLogs(t *testing.T, fn func()) []logEntry {
	t.Helper()
	var buf lockedBuffer
	prev := applog.L()
	applog.Use(applog.New(&buf, zapcore.DebugLevel))
	defer applog.Use(prev)

	fn()

	var entries []logEntry
	for _, line := range strings.Split(strings.TrimSpace(buf.buf.String()), "\n") {
		if line = strings.TrimSpace(line); line == "" {
			continue
		}
		var e logEntry
		if err := json.Unmarshal([]byte(line), &e); err == nil {
			entries = append(entries, e)
		}
	}
	return entries
}

func findLog(entries []logEntry, action string) (logEntry, bool) {
	for _, e := range entries {
		if e.Action == action {
			return e, true
		}
	}
	return logEntry{}, false
}

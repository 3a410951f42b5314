package browser_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/law-makers/scentcrawl/internal/browser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const itemPage = `<!doctype html>
<html><body>
<h1>Test Scent</h1>
<p>Origine</p>
<button id="sheet" onclick="fetch('/api/sheet').then(r => r.json())">Fiche technique</button>
</body></html>`

const coveredPage = `<!doctype html>
<html><body>
<button id="more" style="position:absolute;top:20px;left:20px">En savoir plus</button>
<div style="position:fixed;top:0;left:0;width:100%;height:100%;z-index:10;background:rgba(0,0,0,0.1)"></div>
</body></html>`

const sheetPayload = `{"name":"DetailDatasheetItems","props":{"items":[{"props":{"title":"Origine","value":"France"}}]}}`

func TestFindChrome_ExplicitMissingFallsBack(t *testing.T) {
	// a bad explicit path never comes back as the answer
	got := browser.FindChrome("/definitely/not/chrome")
	assert.NotEqual(t, "/definitely/not/chrome", got)
}

func newTestPool(t *testing.T) *browser.BrowserPool {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping Chrome integration test in short mode")
	}
	path := browser.FindChrome("")
	if path == "" {
		t.Skip("Chrome not installed")
	}

	pool, err := browser.NewBrowserPool(browser.PoolOptions{
		Size:              1,
		Headless:          true,
		ChromePath:        path,
		AcquireTimeout:    30 * time.Second,
		NavigationTimeout: 30 * time.Second,
		Headers:           map[string]string{"X-Scentcrawl-Test": "1"},
	})
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })
	return pool
}

func newTestSite(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/item", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(itemPage))
	})
	mux.HandleFunc("/covered", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(coveredPage))
	})
	mux.HandleFunc("/api/sheet", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Scentcrawl-Test") != "1" {
			http.Error(w, "missing header", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(sheetPayload))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestChrome_InterceptsPayloadAfterClick(t *testing.T) {
	pool := newTestPool(t)
	srv := newTestSite(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	sess, err := pool.Open(ctx)
	require.NoError(t, err)
	defer sess.Close()

	sub := sess.OnResponse(func(r browser.Response) bool {
		return strings.HasSuffix(r.URL, "/api/sheet")
	})
	defer sub.Close()

	require.NoError(t, sess.Navigate(ctx, srv.URL+"/item"))
	assert.Equal(t, browser.Found, sess.WaitReady(ctx, []string{"Origine"}, 10*time.Second))

	title, out := sess.Text(ctx, browser.Locator{Selector: "h1"}, 5*time.Second)
	assert.Equal(t, browser.Found, out)
	assert.Equal(t, "Test Scent", title)

	control, out := sess.Locate(ctx, browser.Locator{Selector: "#sheet"}, 5*time.Second)
	require.Equal(t, browser.Found, out)
	assert.Equal(t, browser.Found, sess.ScrollIntoView(ctx, control))
	assert.Equal(t, browser.Found, sess.Click(ctx, control))

	body, out := sub.WaitForMatch(ctx, 10*time.Second)
	require.Equal(t, browser.Found, out)
	assert.JSONEq(t, sheetPayload, string(body))
}

func TestChrome_ReportsInterceptedClick(t *testing.T) {
	pool := newTestPool(t)
	srv := newTestSite(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	sess, err := pool.Open(ctx)
	require.NoError(t, err)
	defer sess.Close()

	require.NoError(t, sess.Navigate(ctx, srv.URL+"/covered"))

	control, out := sess.Locate(ctx, browser.Locator{Selector: "#more"}, 5*time.Second)
	require.Equal(t, browser.Found, out)
	assert.Equal(t, browser.Intercepted, sess.Click(ctx, control))

	_, out = sess.Locate(ctx, browser.Locator{Selector: "#absent"}, 500*time.Millisecond)
	assert.Equal(t, browser.NotFound, out)

	assert.Equal(t, browser.TimedOut, sess.WaitReady(ctx, []string{"never rendered"}, 500*time.Millisecond))
}

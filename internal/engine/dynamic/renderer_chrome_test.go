package dynamic

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/law-makers/reviewcrawl/internal/engine"
)

const reviewPage = `<!doctype html>
<html><body>
<div id="pane" style="height:3000px">reviews</div>
<img src="/pixel.png">
<script>fetch('/maps/rpc/review/listugcposts?pb=1').then(r => r.text())</script>
</body></html>`

var reviewPayload = `)]}'
[["Ch123",[null,null,null,null,[null,null,null,null,null,["Ann"]],null,"a week ago"],[[5]],"` +
	strings.Repeat("x", 2000) + `"]]`

func chromeForTest(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}
	path := FindChrome("")
	if path == "" {
		t.Skip("Chrome not installed")
	}
	return path
}

func newReviewServer(t *testing.T, images *atomic.Int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(reviewPage))
	})
	mux.HandleFunc("/pixel.png", func(w http.ResponseWriter, r *http.Request) {
		images.Add(1)
		w.Header().Set("Content-Type", "image/png")
	})
	mux.HandleFunc("/maps/rpc/review/listugcposts", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Write([]byte(reviewPayload))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestRendererLivePage(t *testing.T) {
	path := chromeForTest(t)
	opts := BrowserOptions{Size: 1, Headless: true, ChromePath: path}

	tests := []struct {
		name string
		pool func(t *testing.T) *BrowserPool
	}{
		{"one-off browser", func(*testing.T) *BrowserPool { return nil }},
		{"pooled browser", func(t *testing.T) *BrowserPool {
			pool, err := NewBrowserPool(opts)
			if err != nil {
				t.Fatalf("NewBrowserPool: %v", err)
			}
			t.Cleanup(func() { pool.Close() })
			return pool
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var images atomic.Int32
			srv := newReviewServer(t, &images)

			bodies := make(chan []byte, 4)
			observer := func(url string, body engine.BodyFunc) {
				if !strings.Contains(url, "review/list") {
					return
				}
				data, err := body()
				if err != nil {
					return
				}
				select {
				case bodies <- data:
				default:
				}
			}

			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()

			r := NewRenderer(tt.pool(t), opts, 10*time.Second)
			page, err := r.NewPage(ctx, engine.PageOptions{
				Observer:             observer,
				BlockedResourceTypes: engine.DefaultBlockedResourceTypes,
			})
			if err != nil {
				t.Fatalf("NewPage: %v", err)
			}
			defer page.Close()

			navCtx, navCancel := context.WithTimeout(ctx, 20*time.Second)
			defer navCancel()
			if err := page.Navigate(navCtx, srv.URL+"/"); err != nil {
				t.Fatalf("Navigate after setup: %v", err)
			}

			select {
			case data := <-bodies:
				if len(data) <= 1500 || !strings.Contains(string(data), "Ch123") {
					t.Errorf("unexpected body (%d bytes): %.60q", len(data), data)
				}
			case <-time.After(15 * time.Second):
				t.Fatal("observer never received the review response")
			}

			if err := page.WaitAttached(ctx, "#pane"); err != nil {
				t.Errorf("WaitAttached: %v", err)
			}
			if err := page.Hover(ctx, "#pane"); err != nil {
				t.Errorf("Hover: %v", err)
			}
			if err := page.Scroll(ctx, 500); err != nil {
				t.Errorf("Scroll: %v", err)
			}
			html, err := page.HTML(ctx)
			if err != nil || !strings.Contains(html, `id="pane"`) {
				t.Errorf("HTML = %.80q, %v", html, err)
			}
			if n := images.Load(); n != 0 {
				t.Errorf("image requests reached the server %d times, want blocked", n)
			}
		})
	}
}

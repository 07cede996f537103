package engine

import (
	"context"
	"strconv"
	"strings"
	"sync"
)

const reviewRPC = "https://www.google.com/maps/rpc/listugcposts?authuser=0&hl=en"

// record builds a review record node with a rating and no text
func record(id, name, date string, rating int) string {
	return `["` + id + `",[null,null,null,null,[null,null,null,null,null,["` + name + `"]],null,"` + date + `"],[[` + strconv.Itoa(rating) + `]],null]`
}

// payload wraps records in a guarded response body large enough to pass the size gate
func payload(records ...string) string {
	return ")]}'\n[" + strings.Join(append(records, `"`+strings.Repeat("x", 1600)+`"`), ",") + "]"
}

// pageScript describes how a fake page behaves for one URL
type pageScript struct {
	navErr  error
	waitErr error
	panics  bool
	// bodies delivered on each scroll, by scroll index
	scrolls [][]string
	html    string
}

type fakeRenderer struct {
	mu       sync.Mutex
	scripts  map[string]pageScript
	opened   int
	lastOpts PageOptions
	pages    []*fakePage
	openErr  error
}

func newFakeRenderer(scripts map[string]pageScript) *fakeRenderer {
	return &fakeRenderer{scripts: scripts}
}

func (r *fakeRenderer) NewPage(_ context.Context, opts PageOptions) (Page, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.openErr != nil {
		return nil, r.openErr
	}
	r.opened++
	r.lastOpts = opts
	p := &fakePage{r: r, opts: opts}
	r.pages = append(r.pages, p)
	return p, nil
}

func (r *fakeRenderer) openedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.opened
}

type fakePage struct {
	r        *fakeRenderer
	opts     PageOptions
	script   pageScript
	navCalls int
	scrolls  int
	hovered  string
	closed   bool
}

func (p *fakePage) Navigate(_ context.Context, url string) error {
	p.r.mu.Lock()
	p.script = p.r.scripts[url]
	p.r.mu.Unlock()

	p.navCalls++
	if p.script.panics {
		panic("renderer exploded")
	}
	return p.script.navErr
}

func (p *fakePage) WaitAttached(context.Context, string) error {
	return p.script.waitErr
}

func (p *fakePage) Hover(_ context.Context, selector string) error {
	p.hovered = selector
	return nil
}

func (p *fakePage) Scroll(context.Context, float64) error {
	if p.scrolls < len(p.script.scrolls) {
		for _, body := range p.script.scrolls[p.scrolls] {
			b := []byte(body)
			p.opts.Observer(reviewRPC, func() ([]byte, error) { return b, nil })
		}
	}
	p.scrolls++
	return nil
}

func (p *fakePage) HTML(context.Context) (string, error) {
	return p.script.html, nil
}

func (p *fakePage) Close() error {
	p.closed = true
	return nil
}

package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/maltedev/occasion-scraper/internal/fetch"
)

var fixtureSpecs = []string{
	"85 000 km",
	"2018",
	"Diesel",
	"Berline",
	"Manuelle",
	"6 CV",
	"Gris",
	"20.01.2024",
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// detailPage renders a listing. An empty price leaves the price node out.
func detailPage(title, price string) string {
	var b strings.Builder
	b.WriteString(`<!DOCTYPE html><html><body><div id="content_container"><div class="occasion-details-v2">`)
	fmt.Fprintf(&b, "<h1>%s</h1>", title)
	b.WriteString(`<div class="price-box">`)
	if price != "" {
		fmt.Fprintf(&b, `<span class="price">%s</span>`, price)
	}
	b.WriteString(`</div><ul class="main-specs">`)
	for _, v := range fixtureSpecs {
		fmt.Fprintf(&b, `<li><span class="spec-value">%s</span></li>`, v)
	}
	b.WriteString(`</ul></div></div></body></html>`)
	return b.String()
}

// indexPage renders one listing entry per href plus a sponsored entry
// without a link.
func indexPage(hrefs ...string) string {
	var b strings.Builder
	b.WriteString(`<!DOCTYPE html><html><body><div class="occasions">`)
	for i, href := range hrefs {
		fmt.Fprintf(&b, `<div data-key="%d"><a class="occasion-link-overlay" href="%s"></a></div>`, i, href)
	}
	b.WriteString(`<div data-key="ad"><span>Sponsorisé</span></div>`)
	b.WriteString(`</div></body></html>`)
	return b.String()
}

// fixtureSite serves index pages under /fr/occasion/{page} and listings
// under /annonce/{id}.
type fixtureSite struct {
	pages   map[int][]string
	details map[string]string
	slow    map[int]time.Duration
	status  map[int]int
}

func (s *fixtureSite) start(t *testing.T) *httptest.Server {
	t.Helper()

	r := chi.NewRouter()
	r.Get("/fr/occasion/{page}", func(w http.ResponseWriter, req *http.Request) {
		n, err := strconv.Atoi(chi.URLParam(req, "page"))
		if err != nil {
			http.NotFound(w, req)
			return
		}
		if d, ok := s.slow[n]; ok {
			select {
			case <-time.After(d):
			case <-req.Context().Done():
				return
			}
		}
		if code, ok := s.status[n]; ok {
			w.WriteHeader(code)
			return
		}
		hrefs, ok := s.pages[n]
		if !ok {
			http.NotFound(w, req)
			return
		}
		fmt.Fprint(w, indexPage(hrefs...))
	})
	r.Get("/annonce/{id}", func(w http.ResponseWriter, req *http.Request) {
		html, ok := s.details[chi.URLParam(req, "id")]
		if !ok {
			http.NotFound(w, req)
			return
		}
		fmt.Fprint(w, html)
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func httpFetcher(timeout time.Duration) *fetch.HTTPFetcher {
	return fetch.NewHTTPFetcher(fetch.Options{Timeout: timeout}, quietLogger())
}

// fakeFetcher serves canned bodies by URL and records every call.
type fakeFetcher struct {
	mu       sync.Mutex
	bodies   map[string]string
	calls    map[string]int
	delay    time.Duration
	inFlight int
	maxSeen  int
}

func newFakeFetcher(bodies map[string]string) *fakeFetcher {
	return &fakeFetcher{bodies: bodies, calls: make(map[string]int)}
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) (string, error) {
	f.mu.Lock()
	f.calls[url]++
	f.inFlight++
	if f.inFlight > f.maxSeen {
		f.maxSeen = f.inFlight
	}
	body, ok := f.bodies[url]
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", &fetch.Error{URL: url, Kind: fetch.KindTimeout, Err: ctx.Err()}
		}
	}

	if !ok {
		return "", &fetch.Error{URL: url, Kind: fetch.KindStatus, StatusCode: http.StatusNotFound, Err: errors.New("not found")}
	}
	return body, nil
}

func (f *fakeFetcher) callCount(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[url]
}

func (f *fakeFetcher) maxInFlight() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.maxSeen
}

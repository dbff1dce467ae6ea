package osuapi

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
)

func init() { SetLogger(nil) }

func newClient(t *testing.T, srv *httptest.Server, cfg Config) *Client {
	t.Helper()
	cfg.BaseURL = srv.URL
	if cfg.Backoff == 0 {
		cfg.Backoff = time.Millisecond
	}
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestBeatmapLookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if r.URL.Path != "/api/get_beatmaps" || q.Get("k") != "secret" || q.Get("b") != "129891" || q.Get("m") != "0" {
			http.Error(w, "bad request "+r.URL.String(), http.StatusBadRequest)
			return
		}
		fmt.Fprint(w, `[{"beatmap_id":"129891","beatmapset_id":"39804","title":"FREEDOM DiVE","version":"FOUR DIMENSIONS","difficultyrating":"7.06","diff_aim":"3.4","diff_speed":"3.3","max_combo":null}]`)
	}))
	defer srv.Close()

	c := newClient(t, srv, Config{Key: "secret"})
	b, err := c.Beatmap(context.Background(), 129891)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if b.Stars() != 7.06 || b.Aim() != 3.4 || b.SetID() != 39804 || b.Version != "FOUR DIMENSIONS" {
		t.Fatalf("beatmap = %+v", b)
	}
}

func TestBeatmapEmptyAndKeyless(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[]`)
	}))
	defer srv.Close()

	if _, err := newClient(t, srv, Config{Key: "k"}).Beatmap(context.Background(), 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("empty result: %v", err)
	}
	if _, err := newClient(t, srv, Config{}).Beatmap(context.Background(), 1); !errors.Is(err, ErrNoKey) {
		t.Fatalf("no key: %v", err)
	}
}

func TestDownloadRetriesSlowDown(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch calls.Add(1) {
		case 1:
			w.WriteHeader(http.StatusTooManyRequests)
		case 2:
			fmt.Fprint(w, "Slow down, play more.")
		default:
			fmt.Fprint(w, "osu file format v14\n")
		}
	}))
	defer srv.Close()

	c := newClient(t, srv, Config{Retries: 3})
	body, err := c.DownloadOsu(context.Background(), 5)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	if string(body) != "osu file format v14\n" || calls.Load() != 3 {
		t.Fatalf("body %q after %d calls", body, calls.Load())
	}
}

func TestDownloadGivesUp(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newClient(t, srv, Config{Retries: 1}).DownloadOsu(context.Background(), 5)
	if !errors.Is(err, ErrRateLimited) || calls.Load() != 2 {
		t.Fatalf("err = %v after %d calls", err, calls.Load())
	}
}

func TestDownloadMissing(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	if _, err := newClient(t, srv, Config{Retries: 3}).DownloadOsu(context.Background(), 5); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func osz(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		w.Write([]byte(body))
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestDownloadSet(t *testing.T) {
	archive := osz(t, map[string]string{
		"a [Easy].osu":   "easy",
		"a [Hard].osu":   "hard",
		"audio.mp3":      "mp3",
		"sub/extra.osu":  "nested",
		"background.jpg": "jpg",
	})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ck, err := r.Cookie("osu_session")
		if err != nil || ck.Value != "cookie" || r.URL.Path != "/beatmapsets/42/download" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Write(archive)
	}))
	defer srv.Close()

	files, err := newClient(t, srv, Config{Session: "cookie"}).DownloadSet(context.Background(), 42)
	if err != nil {
		t.Fatalf("download set: %v", err)
	}
	if len(files) != 2 || string(files["a [Hard].osu"]) != "hard" {
		t.Fatalf("files = %v", files)
	}

	if _, err := newClient(t, srv, Config{}).DownloadSet(context.Background(), 42); !errors.Is(err, ErrNoSession) {
		t.Fatalf("no session: %v", err)
	}
}

func TestLimiterConcurrency(t *testing.T) {
	l := NewLimiter(1000, time.Second, 1)
	defer l.Stop()
	ctx := context.Background()

	release, err := l.Acquire(ctx)
	if err != nil {
		t.Fatal(err)
	}
	short, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	if _, err := l.Acquire(short); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("second acquire: %v", err)
	}
	release()
	if _, err := l.Acquire(ctx); err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
}

func TestLimiterWindow(t *testing.T) {
	l := NewLimiter(2, 40*time.Millisecond, 1)
	defer l.Stop()
	ctx := context.Background()

	start := time.Now()
	for range 3 {
		if err := l.Wait(ctx); err != nil {
			t.Fatal(err)
		}
	}
	if el := time.Since(start); el < 40*time.Millisecond {
		t.Fatalf("three requests within %v", el)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if err := l.Wait(cancelled); !errors.Is(err, context.Canceled) {
		t.Fatalf("cancelled wait: %v", err)
	}
}

func TestPublishedV2ReusesToken(t *testing.T) {
	var tokens atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/oauth/token":
			if r.Method != http.MethodPost || r.FormValue("grant_type") != "client_credentials" || r.FormValue("client_id") != "12" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			tokens.Add(1)
			fmt.Fprint(w, `{"access_token":"abc","token_type":"Bearer","expires_in":86400,"scope":"public"}`)
		case "/api/v2/beatmaps/7":
			if r.Header.Get("Authorization") != "Bearer abc" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			fmt.Fprint(w, `{"id":7,"beatmapset_id":3,"checksum":"abc123","difficulty_rating":5.25,"version":"Extra","beatmapset":{"title":"Song"}}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := newClient(t, srv, Config{ClientID: 12, ClientSecret: "secret"})
	for range 2 {
		p, err := c.Published(context.Background(), 7)
		if err != nil {
			t.Fatalf("published: %v", err)
		}
		if p.Stars != 5.25 || p.SetID != 3 || p.Title != "Song" || p.Checksum != "abc123" {
			t.Fatalf("published = %+v", p)
		}
	}
	if tokens.Load() != 1 {
		t.Fatalf("%d token requests", tokens.Load())
	}

	if _, err := newClient(t, srv, Config{}).BeatmapV2(context.Background(), 7); !errors.Is(err, ErrNoCredentials) {
		t.Fatalf("no credentials: %v", err)
	}
}

func TestPublishedV1(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"beatmap_id":"7","beatmapset_id":"3","title":"Song","version":"Extra","file_md5":"abc123","difficultyrating":"5.25","diff_aim":"2.5","diff_speed":"2.25"}]`)
	}))
	defer srv.Close()

	p, err := newClient(t, srv, Config{Key: "k"}).Published(context.Background(), 7)
	if err != nil {
		t.Fatalf("published: %v", err)
	}
	if p.BeatmapID != 7 || p.Stars != 5.25 || p.Aim != 2.5 || p.Speed != 2.25 || p.Checksum != "abc123" {
		t.Fatalf("published = %+v", p)
	}
}

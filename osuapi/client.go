// Package osuapi talks to the osu! website: .osu downloads and published
// star ratings.
package osuapi

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/go-querystring/query"
	"github.com/levigross/grequests"
	"github.com/pkg/errors"
	"golang.org/x/net/publicsuffix"
)

var (
	ErrNotFound    = errors.New("beatmap not found")
	ErrRateLimited = errors.New("rate limited")
	ErrNoKey       = errors.New("api key required")
	ErrNoSession   = errors.New("osu_session cookie required")
)

var logger = log.New(os.Stderr, "osuapi: ", log.LstdFlags)

// SetLogger replaces the logger used for retry messages.
func SetLogger(l *log.Logger) {
	if l == nil {
		l = log.New(io.Discard, "", 0)
	}
	logger = l
}

type Config struct {
	BaseURL string
	// Key is a legacy API v1 key.
	Key string
	// Session is the value of the osu_session cookie.
	Session string
	// ClientID and ClientSecret are OAuth client credentials for API v2.
	ClientID     int
	ClientSecret string
	// Limiter is shared by every request of the client. Nil means no limit.
	Limiter *Limiter
	Retries int
	// Backoff is the first retry delay; it doubles per attempt.
	Backoff time.Duration
	Timeout time.Duration
}

type Client struct {
	cfg  Config
	base *url.URL
	jar  http.CookieJar

	tokenMu sync.Mutex
	token   *Token
}

func New(cfg Config) (*Client, error) {
	base, err := url.Parse(strings.TrimSuffix(cfg.BaseURL, "/"))
	if err != nil {
		return nil, errors.Wrapf(err, "base url %q", cfg.BaseURL)
	}
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, errors.Wrap(err, "cookie jar")
	}
	if cfg.Session != "" {
		jar.SetCookies(base, []*http.Cookie{{Name: "osu_session", Value: cfg.Session, Path: "/"}})
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = time.Minute
	}
	return &Client{cfg: cfg, base: base, jar: jar}, nil
}

// Beatmap is one entry of the API v1 get_beatmaps response. The API sends
// every value as a string.
type Beatmap struct {
	BeatmapID        string `json:"beatmap_id"`
	BeatmapsetID     string `json:"beatmapset_id"`
	Artist           string `json:"artist"`
	Title            string `json:"title"`
	Version          string `json:"version"`
	Creator          string `json:"creator"`
	Mode             string `json:"mode"`
	FileMD5          string `json:"file_md5"`
	DifficultyRating string `json:"difficultyrating"`
	DiffAim          string `json:"diff_aim"`
	DiffSpeed        string `json:"diff_speed"`
	MaxCombo         string `json:"max_combo"`
	Approved         string `json:"approved"`
}

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

func (b Beatmap) Stars() float64 { return parseFloat(b.DifficultyRating) }
func (b Beatmap) Aim() float64   { return parseFloat(b.DiffAim) }
func (b Beatmap) Speed() float64 { return parseFloat(b.DiffSpeed) }

func (b Beatmap) SetID() int {
	id, _ := strconv.Atoi(b.BeatmapsetID)
	return id
}

type beatmapQuery struct {
	Key       string `url:"k"`
	BeatmapID int    `url:"b"`
	Mode      int    `url:"m"`
	Converted int    `url:"a,omitempty"`
}

// Beatmap looks up the published standard rating of a beatmap.
func (c *Client) Beatmap(ctx context.Context, id int) (*Beatmap, error) {
	if c.cfg.Key == "" {
		return nil, ErrNoKey
	}
	q, err := query.Values(beatmapQuery{Key: c.cfg.Key, BeatmapID: id})
	if err != nil {
		return nil, errors.Wrap(err, "encode query")
	}
	body, err := c.get(ctx, "/api/get_beatmaps?"+q.Encode(), nil)
	if err != nil {
		return nil, errors.Wrapf(err, "beatmap %d", id)
	}

	var maps []Beatmap
	if err := json.Unmarshal(body, &maps); err != nil {
		return nil, errors.Wrapf(err, "beatmap %d: decode", id)
	}
	if len(maps) == 0 {
		return nil, errors.Wrapf(ErrNotFound, "beatmap %d", id)
	}
	return &maps[0], nil
}

// DownloadOsu fetches the .osu file of a single difficulty.
func (c *Client) DownloadOsu(ctx context.Context, id int) ([]byte, error) {
	body, err := c.get(ctx, fmt.Sprintf("/osu/%d", id), nil)
	if err != nil {
		return nil, errors.Wrapf(err, "download %d", id)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, errors.Wrapf(ErrNotFound, "download %d", id)
	}
	return body, nil
}

// DownloadSet fetches a beatmapset archive and returns its .osu files by
// name. Downloads need the session cookie.
func (c *Client) DownloadSet(ctx context.Context, setID int) (map[string][]byte, error) {
	if c.cfg.Session == "" {
		return nil, ErrNoSession
	}
	body, err := c.get(ctx, fmt.Sprintf("/beatmapsets/%d/download", setID), nil)
	if err != nil {
		return nil, errors.Wrapf(err, "download set %d", setID)
	}
	zr, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return nil, errors.Wrapf(err, "open osz %d", setID)
	}

	files := make(map[string][]byte)
	for _, f := range zr.File {
		if !strings.EqualFold(filepath.Ext(f.Name), ".osu") || f.FileInfo().IsDir() {
			continue
		}
		if strings.ContainsAny(f.Name, `/\`) {
			logger.Printf("set %d: skipping nested file %s", setID, f.Name)
			continue
		}
		data, err := readZipFile(f)
		if err != nil {
			return nil, errors.Wrapf(err, "set %d: %s", setID, f.Name)
		}
		files[f.Name] = data
	}
	if len(files) == 0 {
		return nil, errors.Wrapf(ErrNotFound, "set %d has no .osu files", setID)
	}
	return files, nil
}

func readZipFile(f *zip.File) ([]byte, error) {
	r, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

// get retries rate limiting and refused connections with a doubling
// backoff.
func (c *Client) get(ctx context.Context, path string, headers map[string]string) ([]byte, error) {
	if c.cfg.Limiter != nil {
		release, err := c.cfg.Limiter.Acquire(ctx)
		if err != nil {
			return nil, err
		}
		defer release()
	}

	backoff := c.cfg.Backoff
	for attempt := 0; ; attempt++ {
		body, err := c.tryGet(ctx, path, headers)
		if err == nil {
			return body, nil
		}
		if !retryable(err) || attempt >= c.cfg.Retries {
			return nil, err
		}
		logger.Printf("%s: %v, retrying in %s", path, err, backoff)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
}

func retryable(err error) bool {
	return errors.Is(err, ErrRateLimited) || strings.Contains(err.Error(), "connection refused")
}

func (c *Client) tryGet(ctx context.Context, path string, headers map[string]string) ([]byte, error) {
	if c.cfg.Limiter != nil {
		if err := c.cfg.Limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	resp, err := grequests.Get(c.base.String()+path, grequests.FromRequestOptions(&grequests.RequestOptions{
		Context:        ctx,
		UseCookieJar:   true,
		CookieJar:      c.jar,
		RequestTimeout: c.cfg.Timeout,
		UserAgent:      "mapcheck",
		Headers:        withAccept(headers),
	}))
	if err != nil {
		return nil, err
	}
	defer resp.Close()

	return checkResponse(resp)
}

func withAccept(headers map[string]string) map[string]string {
	h := map[string]string{"Accept": "application/json, text/plain, */*"}
	for k, v := range headers {
		h[k] = v
	}
	return h
}

func checkResponse(resp *grequests.Response) ([]byte, error) {
	body := resp.Bytes()
	switch {
	case resp.StatusCode == http.StatusTooManyRequests,
		bytes.Contains(body, []byte("Slow down, play more.")):
		return nil, ErrRateLimited
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case !resp.Ok:
		return nil, errors.Errorf("status %d: %s", resp.StatusCode, truncate(body, 200))
	}
	return body, nil
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}

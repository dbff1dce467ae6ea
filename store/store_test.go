package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "ratings.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPutGet(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	r := &Rating{Checksum: Checksum([]byte("osu file format v14")), BeatmapID: 7, Title: "Song", Version: "Hard", Stars: 4.5, Aim: 2.1, Speed: 1.9}
	if err := s.Put(ctx, r); err != nil {
		t.Fatalf("put: %v", err)
	}
	if r.ID == "" || r.CreatedAt.IsZero() {
		t.Fatalf("id/created not filled: %+v", r)
	}

	got, err := s.Get(ctx, r.Checksum)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != r.ID || got.Stars != 4.5 || got.Version != "Hard" || !got.CreatedAt.Equal(r.CreatedAt) {
		t.Fatalf("got %+v, want %+v", got, r)
	}

	r2 := *r
	r2.Stars = 5
	r2.CreatedAt = r.CreatedAt.Add(time.Second)
	if err := s.Put(ctx, &r2); err != nil {
		t.Fatalf("replace: %v", err)
	}
	all, err := s.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 1 || all[0].Stars != 5 {
		t.Fatalf("list = %+v", all)
	}
}

func TestGetMissing(t *testing.T) {
	s := openTemp(t)
	if _, err := s.Get(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestPutWithoutChecksum(t *testing.T) {
	s := openTemp(t)
	if err := s.Put(context.Background(), &Rating{}); err == nil {
		t.Fatalf("rating without checksum stored")
	}
}

func TestChecksum(t *testing.T) {
	if got := Checksum([]byte("")); got != "d41d8cd98f00b204e9800998ecf8427e" {
		t.Fatalf("checksum = %s", got)
	}
}

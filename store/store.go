// Package store caches star ratings in SQLite, keyed by the checksum of the
// .osu file they were computed from.
package store

import (
	"context"
	"crypto/md5"
	"database/sql"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

var ErrNotFound = errors.New("rating not found")

type Rating struct {
	ID        string    `json:"id"`
	Checksum  string    `json:"checksum"`
	BeatmapID int       `json:"beatmap_id"`
	Title     string    `json:"title"`
	Version   string    `json:"version"`
	Stars     float64   `json:"stars"`
	Aim       float64   `json:"aim"`
	Speed     float64   `json:"speed"`
	CreatedAt time.Time `json:"created_at"`
}

type Store struct {
	db *sql.DB
}

const schema = `
create table if not exists ratings
  (
	  checksum text not null primary key,
	  id text not null,
	  beatmap_id integer,
	  title text,
	  version text,
	  stars real,
	  aim real,
	  speed real,
	  created_at text
  );
`

// Open opens or creates the cache at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "create schema in %s", path)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Checksum is the hex md5 of a .osu file, the same hash the game uses.
func Checksum(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}

// Put stores r, replacing any rating with the same checksum. A missing ID
// or creation time is filled in.
func (s *Store) Put(ctx context.Context, r *Rating) error {
	if r.Checksum == "" {
		return errors.New("rating without checksum")
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`insert or replace into ratings(checksum, id, beatmap_id, title, version, stars, aim, speed, created_at)
		 values(?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Checksum, r.ID, r.BeatmapID, r.Title, r.Version, r.Stars, r.Aim, r.Speed, r.CreatedAt.Format(time.RFC3339Nano),
	)
	return errors.Wrapf(err, "save rating %s", r.Checksum)
}

// Get returns ErrNotFound for an unknown checksum.
func (s *Store) Get(ctx context.Context, checksum string) (*Rating, error) {
	row := s.db.QueryRowContext(ctx,
		`select checksum, id, beatmap_id, title, version, stars, aim, speed, created_at
		 from ratings where checksum = ?`, checksum)
	r, err := scanRating(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrap(ErrNotFound, checksum)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "load rating %s", checksum)
	}
	return r, nil
}

// List returns every cached rating, newest first.
func (s *Store) List(ctx context.Context) ([]Rating, error) {
	rows, err := s.db.QueryContext(ctx,
		`select checksum, id, beatmap_id, title, version, stars, aim, speed, created_at
		 from ratings order by created_at desc`)
	if err != nil {
		return nil, errors.Wrap(err, "list ratings")
	}
	defer rows.Close()

	var out []Rating
	for rows.Next() {
		r, err := scanRating(rows)
		if err != nil {
			return nil, errors.Wrap(err, "list ratings")
		}
		out = append(out, *r)
	}
	return out, errors.Wrap(rows.Err(), "list ratings")
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRating(sc scanner) (*Rating, error) {
	var r Rating
	var created string
	if err := sc.Scan(&r.Checksum, &r.ID, &r.BeatmapID, &r.Title, &r.Version, &r.Stars, &r.Aim, &r.Speed, &created); err != nil {
		return nil, err
	}
	t, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return nil, errors.Wrapf(err, "created_at of %s", r.Checksum)
	}
	r.CreatedAt = t
	return &r, nil
}

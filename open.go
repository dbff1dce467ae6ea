package main

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"mapcheck/beatmap"
	"mapcheck/dotosu"
)

// collectOsuFiles expands directories into the .osu files below them.
// Files named directly are kept whatever their extension.
func collectOsuFiles(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}

		var found []string
		if err := filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				fmt.Fprintln(os.Stderr, err.Error())
				return nil
			}
			if !d.IsDir() && strings.EqualFold(filepath.Ext(d.Name()), ".osu") {
				found = append(found, path)
			}
			return nil
		}); err != nil {
			return nil, err
		}
		sort.Strings(found)
		paths = append(paths, found...)
	}
	if len(paths) == 0 {
		return nil, errors.Errorf("no .osu files in %s", strings.Join(args, ", "))
	}
	return paths, nil
}

// openBeatmap also returns the raw file, which the rating cache keys on.
func openBeatmap(path string, opts ...beatmap.Option) (*beatmap.Beatmap, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	b, err := parseBeatmap(data, opts...)
	if err != nil {
		return nil, nil, errors.Wrap(err, path)
	}
	return b, data, nil
}

func parseBeatmap(data []byte, opts ...beatmap.Option) (*beatmap.Beatmap, error) {
	f, err := dotosu.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return beatmap.New(f, opts...)
}

// osuFileName is the name the game gives a difficulty inside its set.
func osuFileName(m beatmap.Metadata) string {
	name := fmt.Sprintf("%s - %s (%s) [%s].osu", m.Artist, m.Title, m.Creator, m.Version)
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(`<>:"/\|?*`, r) {
			return -1
		}
		return r
	}, name)
}

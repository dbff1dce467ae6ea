package beatmap

import (
	"io"
	"log"
	"os"
)

var logger = log.New(os.Stderr, "beatmap: ", log.LstdFlags)

// SetLogger replaces the logger used for data-quality warnings. A nil
// logger discards them.
func SetLogger(l *log.Logger) {
	if l == nil {
		l = log.New(io.Discard, "", 0)
	}
	logger = l
}

package main

import (
	"fmt"
	"os"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
)

func Run(f func()) {
	go func() {
		defer Recover()
		f()
	}()
}

func Recover() {
	if r := recover(); r != nil {
		HandlePanic(r)
	}
}

func HandlePanic(panic any) {
	defer os.Exit(1)
	fmt.Fprintf(os.Stderr, "Panic: %v\n\n%s\n\n", panic, stack())
}

func stack() []byte {
	buf := make([]byte, 100000)
	n := runtime.Stack(buf, false)
	return buf[:n]
}

// forEach calls f for every item on at most workers goroutines and returns
// the error of each call by index. A panicking call fails only its item.
func forEach[T any](items []T, workers int, f func(i int, item T) error) []error {
	errs := make([]error, len(items))
	var next atomic.Int64
	var wg sync.WaitGroup
	for range min(max(workers, 1), len(items)) {
		wg.Add(1)
		Run(func() {
			defer wg.Done()
			for {
				i := int(next.Add(1) - 1)
				if i >= len(items) {
					return
				}
				errs[i] = guard(func() error { return f(i, items[i]) })
			}
		})
	}
	wg.Wait()
	return errs
}

func guard(f func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("panic: %v\n\n%s", r, stack())
		}
	}()
	return f()
}

// firstError summarises errs the way a batch reports partial failure.
func firstError(errs []error, names []string) error {
	failed := 0
	var first error
	var firstName string
	for i, err := range errs {
		if err == nil {
			continue
		}
		failed++
		if first == nil {
			first, firstName = err, names[i]
		}
	}
	if first == nil {
		return nil
	}
	return errors.Wrapf(first, "%d/%d failed; first failure %s", failed, len(errs), firstName)
}

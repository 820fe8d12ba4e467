package commands

// Shims for testing.T helpers added in Go 1.24 (t.Context, t.Chdir), so the
// tests run on the Go 1.21 toolchain.

import (
	"context"
	"os"
	"sync"
	"testing"
)

var testContexts sync.Map

// testContext mirrors t.Context: one context per test, canceled when the test
// finishes (before other cleanup functions registered earlier run).
func testContext(t testing.TB) context.Context {
	if ctx, ok := testContexts.Load(t); ok {
		return ctx.(context.Context)
	}
	ctx, cancel := context.WithCancel(context.Background())
	testContexts.Store(t, ctx)
	t.Cleanup(func() {
		cancel()
		testContexts.Delete(t)
	})
	return ctx
}

// testChdir mirrors t.Chdir: change the working directory for the duration of
// the test and restore it afterwards.
func testChdir(t testing.TB, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatal(err)
		}
	})
}

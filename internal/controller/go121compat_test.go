package controller

// Shims for testing.T helpers added in Go 1.24 (t.Context, t.Chdir), so the
// tests run on the Go 1.21 toolchain.

import (
	"context"
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

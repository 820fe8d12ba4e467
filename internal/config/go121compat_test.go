package config

// Shims for testing.T helpers added in Go 1.24 (t.Context, t.Chdir), so the
// tests run on the Go 1.21 toolchain.

import (
	"os"
	"testing"
)

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

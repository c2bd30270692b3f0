// Package testutil holds assertion helpers and a fake account API shared by
// the package tests.
package testutil

import (
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"strings"
	"testing"
)

// DiscardLogger returns a *slog.Logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Equal fails the test if want != got.
func Equal[T comparable](t testing.TB, want, got T) {
	t.Helper()
	if got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

// NoError stops the test when err is non-nil.
func NoError(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// ErrorContains stops the test when err is nil and fails it when the
// message lacks substr.
func ErrorContains(t testing.TB, err error, substr string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error containing %q, got nil", substr)
	}
	if !strings.Contains(err.Error(), substr) {
		t.Errorf("error %q does not contain %q", err.Error(), substr)
	}
}

// True fails the test if condition is false. msgAndArgs is an optional
// format string followed by its arguments.
func True(t testing.TB, condition bool, msgAndArgs ...any) {
	t.Helper()
	if !condition {
		t.Error(describe("expected true", msgAndArgs))
	}
}

// False fails the test if condition is true.
func False(t testing.TB, condition bool, msgAndArgs ...any) {
	t.Helper()
	if condition {
		t.Error(describe("expected false", msgAndArgs))
	}
}

func describe(prefix string, msgAndArgs []any) string {
	if len(msgAndArgs) == 0 {
		return prefix
	}
	return prefix + ": " + fmt.Sprintf(fmt.Sprint(msgAndArgs[0]), msgAndArgs[1:]...)
}

// isNil also catches typed nils wrapped in an interface.
func isNil(val any) bool {
	if val == nil {
		return true
	}
	v := reflect.ValueOf(val)
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface:
		return v.IsNil()
	}
	return false
}

// NotNil stops the test when val is nil.
func NotNil(t testing.TB, val any) {
	t.Helper()
	if isNil(val) {
		t.Fatal("expected non-nil, got nil")
	}
}

// SliceLen fails the test if the slice doesn't have the expected length.
func SliceLen[T any](t testing.TB, slice []T, wantLen int) {
	t.Helper()
	if len(slice) != wantLen {
		t.Errorf("slice length: got %d, want %d", len(slice), wantLen)
	}
}

// StatusCode stops the test on an unexpected HTTP status; the body of a
// wrong status is not worth inspecting.
func StatusCode(t testing.TB, want, got int) {
	t.Helper()
	if got != want {
		t.Fatalf("HTTP status: got %d, want %d", got, want)
	}
}

// Contains fails the test if s does not contain substr.
func Contains(t testing.TB, s, substr string) {
	t.Helper()
	if !strings.Contains(s, substr) {
		t.Errorf("%q does not contain %q", s, substr)
	}
}

// NotContains fails the test if s contains substr.
func NotContains(t testing.TB, s, substr string) {
	t.Helper()
	if strings.Contains(s, substr) {
		t.Errorf("%q should not contain %q", s, substr)
	}
}

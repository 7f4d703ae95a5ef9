// Package assert provides non-fatal test assertions: a failed assertion
// marks the test failed via t.Errorf but lets it continue running.
package assert

import (
	"reflect"
	"strings"
	"testing"
)

// tHelper lets helpers report the caller's line number.
type tHelper interface {
	Helper()
}

// NoError fails the test if err is non-nil.
func NoError(t testing.TB, err error, msg ...string) {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	if err != nil {
		t.Errorf("%sUnexpected error: %v", prefix(msg), err)
	}
}

// Equal fails the test if want != got. Uncomparable types (slices, maps)
// fall back to a deep comparison instead of panicking.
func Equal(t testing.TB, want, got interface{}, msg ...string) {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	if !objectsEqual(want, got) {
		t.Errorf("%sValues are not equal, want: %v, got: %v", prefix(msg), want, got)
	}
}

func objectsEqual(want, got interface{}) (equal bool) {
	defer func() {
		if recover() != nil {
			equal = reflect.DeepEqual(want, got)
		}
	}()
	return want == got
}

// DeepEqual fails the test if want and got are not deeply equal.
func DeepEqual(t testing.TB, want, got interface{}, msg ...string) {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	if !reflect.DeepEqual(want, got) {
		t.Errorf("%sValues are not deeply equal, want: %+v, got: %+v", prefix(msg), want, got)
	}
}

// DeepSSZEqual is an alias for DeepEqual: this repo's attestation types
// carry no unexported/proto-internal fields, so a plain deep comparison
// is already equivalent to comparing SSZ-marshaled bytes.
func DeepSSZEqual(t testing.TB, want, got interface{}, msg ...string) {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	DeepEqual(t, want, got, msg...)
}

// ErrorContains fails the test if err is nil or does not contain want.
func ErrorContains(t testing.TB, want string, err error, msg ...string) {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	if err == nil {
		t.Errorf("%sExpected error %q, got nil", prefix(msg), want)
		return
	}
	if !strings.Contains(err.Error(), want) {
		t.Errorf("%sExpected error to contain %q, got %q", prefix(msg), want, err.Error())
	}
}

func prefix(msg []string) string {
	if len(msg) == 0 {
		return ""
	}
	return strings.Join(msg, " ") + ": "
}

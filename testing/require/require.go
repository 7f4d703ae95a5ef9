// Package require provides fatal test assertions: a failed assertion
// stops the test immediately via t.Fatalf.
package require

import (
	"reflect"
	"strings"
	"testing"
)

type tHelper interface {
	Helper()
}

// NoError fails and stops the test if err is non-nil.
func NoError(t testing.TB, err error, msg ...string) {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	if err != nil {
		t.Fatalf("%sUnexpected error: %v", prefix(msg), err)
	}
}

// ErrorContains fails and stops the test unless err contains want.
func ErrorContains(t testing.TB, want string, err error, msg ...string) {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	if err == nil || !strings.Contains(err.Error(), want) {
		t.Fatalf("%sExpected error to contain %q, got %v", prefix(msg), want, err)
	}
}

// Equal fails and stops the test if want != got.
func Equal(t testing.TB, want, got interface{}, msg ...string) {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	if !objectsEqual(want, got) {
		t.Fatalf("%sValues are not equal, want: %v, got: %v", prefix(msg), want, got)
	}
}

// DeepEqual fails and stops the test if want and got are not deeply equal.
func DeepEqual(t testing.TB, want, got interface{}, msg ...string) {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	if !reflect.DeepEqual(want, got) {
		t.Fatalf("%sValues are not deeply equal, want: %+v, got: %+v", prefix(msg), want, got)
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

func prefix(msg []string) string {
	if len(msg) == 0 {
		return ""
	}
	return strings.Join(msg, " ") + ": "
}

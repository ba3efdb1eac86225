package errors

import (
	"errors"
	"testing"
)

func TestErrorMessageWithPath(t *testing.T) {
	underlying := errors.New("no such file")
	err := New(KindInputMissing, "assign", underlying).WithPath("/tmp/discovery.json")

	want := "input_missing: assign failed for /tmp/discovery.json: no such file"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestErrorMessageWithoutPath(t *testing.T) {
	underlying := errors.New("boom")
	err := New(KindMalformed, "timing.Load", underlying)

	want := "malformed: timing.Load failed: boom"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestErrorUnwrap(t *testing.T) {
	underlying := errors.New("sentinel")
	err := New(KindTransientIO, "timing.Persist", underlying)

	if !errors.Is(err, underlying) {
		t.Errorf("expected errors.Is to unwrap to underlying error")
	}
}

func TestFatal(t *testing.T) {
	cases := []struct {
		kind  Kind
		fatal bool
	}{
		{KindInputMissing, true},
		{KindMalformed, true},
		{KindPathEscape, true},
		{KindInconsistent, true},
		{KindTransientIO, true},
		{KindDeadlineExceeded, false},
	}
	for _, c := range cases {
		err := New(c.kind, "op", errors.New("x"))
		if got := err.Fatal(); got != c.fatal {
			t.Errorf("Fatal() for kind %s = %v, want %v", c.kind, got, c.fatal)
		}
	}
}

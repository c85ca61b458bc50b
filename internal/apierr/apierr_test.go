package apierr

import (
	"errors"
	"testing"
)

func TestWrap(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(ParseError, cause)
	if err.Category != ParseError {
		t.Fatalf("Category = %v, want %v", err.Category, ParseError)
	}
	if err.Error() != "boom" {
		t.Fatalf("Error() = %q, want %q", err.Error(), "boom")
	}
	if err.Unwrap() != cause {
		t.Fatalf("Unwrap() should return the original cause")
	}
}

func TestWrapNilErr(t *testing.T) {
	err := Wrap(NetworkError, nil)
	if err.Err != nil {
		t.Fatalf("Err should be nil")
	}
	if err.Error() != string(NetworkError) {
		t.Fatalf("Error() = %q, want category string", err.Error())
	}
}

func TestWrapNetwork(t *testing.T) {
	err := WrapNetwork(KindTimeout, errors.New("timed out"))
	if err.Category != NetworkError {
		t.Fatalf("Category = %v, want %v", err.Category, NetworkError)
	}
	if err.Kind != KindTimeout {
		t.Fatalf("Kind = %v, want %v", err.Kind, KindTimeout)
	}
}

func TestCategoryOf(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Category
	}{
		{"nil", nil, NoError},
		{"ours", &Error{Category: RedirectLimit}, RedirectLimit},
		{"foreign", errors.New("other"), UnknownContentError},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := CategoryOf(c.err); got != c.want {
				t.Fatalf("CategoryOf(%v) = %v, want %v", c.err, got, c.want)
			}
		})
	}
}

func TestExitCode(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, 0},
		{&Error{Category: NetworkError}, 2},
		{&Error{Category: ParseError}, 3},
		{&Error{Category: RedirectLimit}, 4},
		{&Error{Category: UnknownContentError}, 5},
	}
	for _, c := range cases {
		if got := ExitCode(c.err); got != c.want {
			t.Fatalf("ExitCode(%v) = %d, want %d", c.err, got, c.want)
		}
	}
}

func TestParseFailureAndRedirects(t *testing.T) {
	if ParseFailure().Category != ParseError {
		t.Fatalf("ParseFailure should carry ParseError")
	}
	if Redirects().Category != RedirectLimit {
		t.Fatalf("Redirects should carry RedirectLimit")
	}
}

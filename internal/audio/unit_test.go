package audio

import (
	"errors"
	"testing"
)

func TestFailedAlwaysCarriesError(t *testing.T) {
	result := Failed(3, nil)
	if result.OK || result.Err == nil {
		t.Fatalf("expected failure with error, got %+v", result)
	}
	if result.Ordinal != 3 {
		t.Fatalf("unexpected ordinal %d", result.Ordinal)
	}

	cause := errors.New("boom")
	if got := Failed(0, cause); !errors.Is(got.Err, cause) || got.ErrorMessage() != "boom" {
		t.Fatalf("expected wrapped cause, got %+v", got)
	}
}

func TestSucceeded(t *testing.T) {
	result := Succeeded(1, "hello")
	if !result.OK || result.Err != nil || result.Text != "hello" {
		t.Fatalf("unexpected result %+v", result)
	}
	if result.ErrorMessage() != "" {
		t.Fatalf("expected empty message, got %q", result.ErrorMessage())
	}
}

func TestTemporariesAndTotalSize(t *testing.T) {
	units := []Unit{
		{Path: "a", Size: 10, Ordinal: 0},
		{Path: "b", Size: 20, Ordinal: 1, Temporary: true},
		{Path: "c", Size: 30, Ordinal: 2, Temporary: true},
	}
	if TotalSize(units) != 60 {
		t.Fatalf("unexpected total %d", TotalSize(units))
	}
	temps := Temporaries(units)
	if len(temps) != 2 || temps[0].Path != "b" || temps[1].Path != "c" {
		t.Fatalf("unexpected temporaries %+v", temps)
	}
	if units[2].Label() != "#2" {
		t.Fatalf("unexpected label %q", units[2].Label())
	}
}

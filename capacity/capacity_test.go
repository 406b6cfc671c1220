package capacity

import (
	"errors"
	"fmt"
	"testing"

	"github.com/qrtx/qrtx/errs"
)

func TestFitAcceptsFirstCandidate(t *testing.T) {
	build := func(size int) (string, error) { return fmt.Sprintf("size=%d", size), nil }
	accept := func(text string) bool { return true }

	got, err := Fit(Params{Start: 1400, Floor: 100, Step: 50}, build, accept)
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if got != 1400 {
		t.Errorf("got %d, want 1400", got)
	}
}

func TestFitStepsDownToAcceptance(t *testing.T) {
	build := func(size int) (string, error) { return fmt.Sprintf("size=%d", size), nil }
	accept := func(text string) bool {
		var size int
		fmt.Sscanf(text, "size=%d", &size)
		return size <= 1250
	}

	got, err := Fit(Params{Start: 1400, Floor: 100, Step: 50}, build, accept)
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if got != 1250 {
		t.Errorf("got %d, want 1250", got)
	}
}

func TestFitClampsAtFloorRatherThanUndershooting(t *testing.T) {
	build := func(size int) (string, error) { return fmt.Sprintf("size=%d", size), nil }
	accept := func(text string) bool {
		var size int
		fmt.Sscanf(text, "size=%d", &size)
		return size == 100 // only the exact floor is acceptable
	}

	got, err := Fit(Params{Start: 140, Floor: 100, Step: 30}, build, accept)
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if got != 100 {
		t.Errorf("got %d, want 100 (clamped floor, not an undershoot to 80)", got)
	}
}

func TestFitReturnsPayloadTooLargeAtFloor(t *testing.T) {
	build := func(size int) (string, error) { return "x", nil }
	accept := func(text string) bool { return false }

	_, err := Fit(Params{Start: 200, Floor: 100, Step: 50}, build, accept)
	if !errors.Is(err, errs.ErrPayloadTooLarge) {
		t.Fatalf("err = %v, want ErrPayloadTooLarge", err)
	}
}

func TestFitAbortsImmediatelyOnBuildError(t *testing.T) {
	sentinel := errors.New("boom")
	calls := 0
	build := func(size int) (string, error) {
		calls++
		return "", sentinel
	}
	accept := func(text string) bool { return false }

	_, err := Fit(Params{Start: 200, Floor: 100, Step: 50}, build, accept)
	if !errors.Is(err, sentinel) {
		t.Fatalf("err = %v, want sentinel", err)
	}
	if calls != 1 {
		t.Errorf("build called %d times, want exactly 1 (no retry after builder error)", calls)
	}
}

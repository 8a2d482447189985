package feedback

import (
	"errors"
	"testing"
)

func TestControllerStateTransitions(t *testing.T) {
	controller := NewController(false)
	if controller.State() != "disabled" {
		t.Fatalf("unexpected initial state %q", controller.State())
	}

	controller.Enable()
	if !controller.Enabled() || controller.State() != "enabled" {
		t.Fatalf("expected enabled, got %q", controller.State())
	}

	controller.Disable()
	if controller.Enabled() || controller.State() != "disabled" {
		t.Fatalf("expected disabled, got %q", controller.State())
	}
}

func TestControllerKillPropagatesError(t *testing.T) {
	controller := NewController(true)
	customErr := errors.New("boom")

	controller.Kill(customErr)
	controller.Kill(errors.New("second"))

	select {
	case <-controller.Done():
	default:
		t.Fatalf("expected done channel closed")
	}
	if !errors.Is(controller.Err(), customErr) {
		t.Fatalf("expected first kill error, got %v", controller.Err())
	}
	if controller.State() != "stopping" {
		t.Fatalf("unexpected state %q", controller.State())
	}
}

func TestControllerKillWithoutError(t *testing.T) {
	controller := NewController(true)
	controller.Kill(nil)

	select {
	case <-controller.Done():
	default:
		t.Fatalf("expected done channel closed")
	}
	if controller.Err() != nil {
		t.Fatalf("expected no error, got %v", controller.Err())
	}
}

func TestControllerDisableHooksRunOnTransition(t *testing.T) {
	controller := NewController(true)
	calls := 0
	controller.OnDisable(func() { calls++ })

	controller.Disable()
	controller.Disable()
	if calls != 1 {
		t.Fatalf("expected one hook call, got %d", calls)
	}
	if !controller.Toggle() || !controller.Enabled() {
		t.Fatalf("expected toggle to enable")
	}
	if controller.Toggle() || controller.Enabled() {
		t.Fatalf("expected toggle to disable")
	}
	if calls != 2 {
		t.Fatalf("expected hook on toggle off, got %d", calls)
	}
}

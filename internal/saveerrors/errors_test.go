package saveerrors

import (
	"errors"
	"fmt"
	"testing"
)

// TestCodeOf verifies code extraction through wrapping
func TestCodeOf(t *testing.T) {
	base := New(CodeNotFound, "no save in slot %q", "slot1")
	if CodeOf(base) != CodeNotFound {
		t.Errorf("CodeOf = %q", CodeOf(base))
	}

	wrapped := fmt.Errorf("load failed: %w", base)
	if CodeOf(wrapped) != CodeNotFound {
		t.Error("code should survive fmt.Errorf wrapping")
	}
	if !IsNotFound(wrapped) {
		t.Error("IsNotFound should see through wrapping")
	}

	if CodeOf(errors.New("plain")) != "" {
		t.Error("plain errors carry no code")
	}
}

// TestUnwrap verifies the cause chain stays intact
func TestUnwrap(t *testing.T) {
	cause := errors.New("disk on fire")
	err := Wrap(CodeCorrupted, cause, "payload unreadable")
	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the cause")
	}
	if !IsCorrupted(err) {
		t.Error("IsCorrupted should match")
	}
	msg := err.Error()
	if msg == "" || !errors.Is(err, cause) {
		t.Errorf("unexpected error text %q", msg)
	}
}

package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
)

func TestSpinnerLabel(t *testing.T) {
	s := NewSpinner("Fetching...")

	if cmd := s.Tick(); cmd == nil {
		t.Error("Tick() returned no command")
	}
	if view := ansi.Strip(s.ViewWithLabel()); !strings.Contains(view, "Fetching...") {
		t.Errorf("ViewWithLabel() = %q, missing label", view)
	}
}

func TestSpinnerAdvancesOnTick(t *testing.T) {
	s := NewSpinner("Fetching...")

	msg := s.Tick()()
	s, cmd := s.Update(msg)
	if cmd == nil {
		t.Error("Update() did not schedule the next tick")
	}
	if view := ansi.Strip(s.ViewWithLabel()); view == "" {
		t.Error("ViewWithLabel() empty after tick")
	}
}

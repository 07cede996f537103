package ui

import "testing"

func TestStyleToggle(t *testing.T) {
	prev := Enabled
	defer func() { Enabled = prev }()

	Enabled = true
	if got := Success("ok"); got != ColorGreen+"ok"+ColorReset {
		t.Errorf("Success = %q", got)
	}

	Enabled = false
	if got := Error("boom"); got != "boom" {
		t.Errorf("Error with styling off = %q, want plain text", got)
	}
}

package schedule

import "testing"

func TestInhibitorSet(t *testing.T) {
	var s InhibitorSet
	if !s.Empty() {
		t.Fatal("Expected a fresh set to be empty")
	}

	s = s.With(LowPower)
	if !s.Has(LowPower) {
		t.Error("Expected LowPower to be set")
	}
	if s.Has(NoNetwork) {
		t.Error("Expected NoNetwork to be clear")
	}

	// Setting twice and clearing once leaves the bit cleared.
	s = s.With(LowPower).With(LowPower).Without(LowPower)
	if s.Has(LowPower) {
		t.Error("Expected LowPower to be cleared after a single Without")
	}
	if !s.Empty() {
		t.Errorf("Expected an empty set, got %s", s)
	}

	// Clearing a bit that is not set is a no-op.
	s = s.With(SessionLocked).Without(NoNetwork)
	if !s.Has(SessionLocked) {
		t.Error("Expected SessionLocked to survive clearing an unrelated bit")
	}
}

func TestInhibitorSetString(t *testing.T) {
	var s InhibitorSet
	if s.String() != "none" {
		t.Errorf("Expected 'none' for the empty set, got %q", s.String())
	}

	s = s.With(DisabledByUser).With(NoNetwork)
	if s.String() != "disabled-by-user,no-network" {
		t.Errorf("Unexpected set rendering %q", s.String())
	}
}

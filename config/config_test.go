package config

import "testing"

func TestDefaultLiterals(t *testing.T) {
	c := Default()
	if c.NUVPAttempts != 300 {
		t.Fatalf("NUVPAttempts = %d, want 300", c.NUVPAttempts)
	}
	if c.VCellOVDischargeMV != 4200 {
		t.Fatalf("VCellOVDischargeMV = %d, want 4200", c.VCellOVDischargeMV)
	}
}

func TestApplyOverridesChangesOnlyNamedFields(t *testing.T) {
	c := Default()
	want := c
	want.MaxChargeCurrentMA = 4000
	want.EnableBalancing = false

	if err := c.ApplyOverrides([]byte(`{"max_charge_current_ma": 4000, "enable_balancing": false}`)); err != nil {
		t.Fatalf("ApplyOverrides: %v", err)
	}
	if c != want {
		t.Fatalf("ApplyOverrides mutated unexpected fields: got %+v, want %+v", c, want)
	}
}

func TestApplyOverridesEmptyIsNoop(t *testing.T) {
	c := Default()
	want := c
	if err := c.ApplyOverrides(nil); err != nil {
		t.Fatalf("ApplyOverrides(nil): %v", err)
	}
	if c != want {
		t.Fatal("ApplyOverrides(nil) mutated the config")
	}
}

func TestApplyOverridesRejectsNonObject(t *testing.T) {
	c := Default()
	if err := c.ApplyOverrides([]byte(`[1,2,3]`)); err == nil {
		t.Fatal("expected an error for a non-object override payload")
	}
}

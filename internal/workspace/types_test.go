package workspace

import "testing"

func TestDefaultSettingsPeriodSeconds(t *testing.T) {
	s := DefaultSettings()
	period, err := s.PeriodSeconds()
	if err != nil {
		t.Fatalf("PeriodSeconds: %v", err)
	}
	if period != 0.001 {
		t.Fatalf("expected 1ms period, got %v", period)
	}
}

func TestPeriodSecondsFallsBackToFrequency(t *testing.T) {
	s := TimingSettings{FrequencyValue: 500, FrequencyUnit: FrequencyHz}
	period, err := s.PeriodSeconds()
	if err != nil {
		t.Fatalf("PeriodSeconds: %v", err)
	}
	if period != 0.002 {
		t.Fatalf("expected 2ms period from 500hz, got %v", period)
	}
}

func TestMaxPerInputDefaultsToOne(t *testing.T) {
	w := &Workspace{}
	if got := w.MaxPerInput(); got != 1 {
		t.Fatalf("expected default MaxPerInput 1, got %d", got)
	}
	w.SetMaxPerInput(2)
	if got := w.MaxPerInput(); got != 2 {
		t.Fatalf("expected overridden MaxPerInput 2, got %d", got)
	}
}

func TestNextPluginIDReusesFreed(t *testing.T) {
	w := &Workspace{}
	first := w.NextPluginID()
	second := w.NextPluginID()
	if first == second {
		t.Fatalf("expected distinct ids, got %d and %d", first, second)
	}
	w.FreePluginID(first)
	reused := w.NextPluginID()
	if reused != first {
		t.Fatalf("expected freed id %d to be reused, got %d", first, reused)
	}
}

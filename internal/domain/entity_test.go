package domain

import (
	"reflect"
	"testing"
)

func TestFiredSetRoundTrip(t *testing.T) {
	set := NewFiredSet()
	set.Mark(TrackResponse, FiredLevelBreach)
	set.Mark(TrackResponse, 2)
	set.Mark(TrackResolution, FiredLevelReminder)

	keys := set.Keys()
	want := []string{"RESOLUTION:-1", "RESPONSE:0", "RESPONSE:2"}
	if !reflect.DeepEqual(keys, want) {
		t.Fatalf("keys = %v, want %v", keys, want)
	}

	parsed, err := ParseFiredSet(keys)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !parsed.Has(TrackResponse, 2) || !parsed.Has(TrackResolution, FiredLevelReminder) {
		t.Fatal("parsed set lost marks")
	}
	if parsed.HighestLevel(TrackResponse) != 2 {
		t.Fatalf("highest level = %d, want 2", parsed.HighestLevel(TrackResponse))
	}
}

func TestParseFiredSetRejectsCorruptKeys(t *testing.T) {
	for _, keys := range [][]string{
		{"RESPONSE"},
		{"RESPONSE:x"},
		{"SOMETHING:1"},
	} {
		if _, err := ParseFiredSet(keys); err == nil {
			t.Errorf("ParseFiredSet(%v) accepted corrupt input", keys)
		}
	}
}

func TestEscalationsForSortsAscending(t *testing.T) {
	target := SLATarget{
		Escalations: []EscalationLevel{
			{Level: 3, Track: TrackResponse},
			{Level: 1, Track: TrackResponse},
			{Level: 2, Track: TrackResolution},
			{Level: 2, Track: TrackResponse},
		},
	}
	levels := target.EscalationsFor(TrackResponse)
	if len(levels) != 3 {
		t.Fatalf("levels = %d, want 3", len(levels))
	}
	for i, want := range []int{1, 2, 3} {
		if levels[i].Level != want {
			t.Fatalf("level %d = %d, want %d", i, levels[i].Level, want)
		}
	}
}

package models

import "testing"

func TestDedupeKey(t *testing.T) {
	tests := []struct {
		name, neighborhood, borough, want string
	}{
		{"Joe's Pizza", "Greenwich Village", "Manhattan", "joespizza|greenwichvillage"},
		{"L'Artusi", "", "Manhattan", "lartusi|manhattan"},
		{"Di Fara Pizza", "Midwood", "", "difarapizza|midwood"},
		{"St. Anselm", "Williamsburg", "Brooklyn", "stanselm|williamsburg"},
	}
	for _, tt := range tests {
		if got := DedupeKey(tt.name, tt.neighborhood, tt.borough); got != tt.want {
			t.Errorf("DedupeKey(%q, %q, %q) = %q, want %q", tt.name, tt.neighborhood, tt.borough, got, tt.want)
		}
	}
}

func TestNormalizeBorough(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"brooklyn, cheap", "Brooklyn"},
		{"somewhere in MANHATTAN", "Manhattan"},
		{"queens please", "Queens"},
		{"the bronx", "Bronx"},
		{"staten island", "Staten Island"},
		{"anywhere is fine", "any"},
		{"all NYC", "any"},
		{"surprise me", "any"},
		{"no idea", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeBorough(tt.in); got != tt.want {
			t.Errorf("NormalizeBorough(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEventFiltersHasCritical(t *testing.T) {
	var nilFilters *EventFilters
	if nilFilters.HasCritical() {
		t.Error("nil filters should not have critical filters")
	}
	if (&EventFilters{}).HasCritical() {
		t.Error("empty filters should not have critical filters")
	}
	if (&EventFilters{Date: EventDate{Kind: DateAny}}).HasCritical() {
		t.Error("date=any alone should not count as critical")
	}
	if !(&EventFilters{Date: EventDate{Kind: DateToday}}).HasCritical() {
		t.Error("date=today should count as critical")
	}
	if !(&EventFilters{Borough: "Brooklyn"}).HasCritical() {
		t.Error("borough should count as critical")
	}
}

package domain

import "testing"

func TestLocationPartition(t *testing.T) {
	for _, l := range Stations() {
		if !l.IsStation() || l.IsCampusSpot() {
			t.Errorf("%s: station classification wrong", l)
		}
	}
	for _, l := range CampusSpots() {
		if !l.IsCampusSpot() || l.IsStation() {
			t.Errorf("%s: campus classification wrong", l)
		}
	}
}

func TestParseLocation(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"shonandai", true},
		{"tsujido", true},
		{"g_parking", true},
		{"delta_back", true},
		{"main_cross", true},
		{"", false},
		{"Shonandai", false},
		{"shibuya", false},
	}
	for _, tc := range cases {
		if _, ok := ParseLocation(tc.in); ok != tc.ok {
			t.Errorf("ParseLocation(%q) ok=%v, want %v", tc.in, ok, tc.ok)
		}
	}
}

func TestValidRoute(t *testing.T) {
	cases := []struct {
		name        string
		destination Location
		fromSpot    Location
		want        bool
	}{
		{"station to campus", SpotGParking, StationShonandai, true},
		{"campus to station", StationTsujido, SpotMainCross, true},
		{"station to station", StationShonandai, StationTsujido, false},
		{"campus to campus", SpotGParking, SpotDeltaBack, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ValidRoute(tc.destination, tc.fromSpot); got != tc.want {
				t.Errorf("ValidRoute(%s, %s)=%v, want %v", tc.destination, tc.fromSpot, got, tc.want)
			}
		})
	}
}

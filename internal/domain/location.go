package domain

// Location is a named pick-up/drop-off point. The enum is partitioned into
// train stations and on-campus meeting spots; a valid ride route connects
// exactly one of each.
type Location string

const (
	StationShonandai Location = "shonandai"
	StationTsujido   Location = "tsujido"

	SpotGParking  Location = "g_parking"
	SpotDeltaBack Location = "delta_back"
	SpotMainCross Location = "main_cross"
)

// Stations returns the station side of the partition.
func Stations() []Location {
	return []Location{StationShonandai, StationTsujido}
}

// CampusSpots returns the campus side of the partition.
func CampusSpots() []Location {
	return []Location{SpotGParking, SpotDeltaBack, SpotMainCross}
}

func (l Location) IsStation() bool {
	return l == StationShonandai || l == StationTsujido
}

func (l Location) IsCampusSpot() bool {
	return l == SpotGParking || l == SpotDeltaBack || l == SpotMainCross
}

// ParseLocation accepts only members of the enum.
func ParseLocation(s string) (Location, bool) {
	l := Location(s)
	if l.IsStation() || l.IsCampusSpot() {
		return l, true
	}
	return "", false
}

// ValidRoute reports whether exactly one endpoint is a station, i.e. the ride
// connects campus and station rather than station-station or campus-campus.
func ValidRoute(destination, fromSpot Location) bool {
	return destination.IsStation() != fromSpot.IsStation()
}

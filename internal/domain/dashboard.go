package domain

// RouteStats summarizes upcoming rides on one route bucket.
// UntilEarliestMin is nil when the bucket is empty.
type RouteStats struct {
	UntilEarliestMin *int
	Vehicles         int
}

type ToSchoolSummary struct {
	FromShonandai RouteStats
	FromTsujido   RouteStats
}

type FromSchoolSummary struct {
	ToShonandai RouteStats
	ToTsujido   RouteStats
}

// DashboardSummary is the fixed 2x2 route-stats read model shown on the
// campus dashboard: rides into campus bucketed by origin station, rides out
// bucketed by destination station.
type DashboardSummary struct {
	ToSchool   ToSchoolSummary
	FromSchool FromSchoolSummary
}

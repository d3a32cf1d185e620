package httpapi

import (
	"time"

	"github.com/oapi-codegen/nullable"

	"github.com/sfc-mobility/campus-rides-api/internal/app/rides"
	"github.com/sfc-mobility/campus-rides-api/internal/domain"
)

// JSON projections of the application results. Timestamps are RFC3339 UTC.

type userRefDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type rideSummaryDTO struct {
	ID              int64      `json:"id"`
	Driver          userRefDTO `json:"driver"`
	Mode            string     `json:"mode"`
	Destination     string     `json:"destination"`
	FromSpot        string     `json:"fromSpot"`
	DepartsAt       string     `json:"departsAt"`
	Capacity        int        `json:"capacity"`
	MinParticipants int        `json:"minParticipants"`
	Note            string     `json:"note"`
	MembersCount    int        `json:"membersCount"`
	Joined          bool       `json:"joined"`
}

type rideCreatedDTO struct {
	ID              int64      `json:"id"`
	Driver          userRefDTO `json:"driver"`
	Mode            string     `json:"mode"`
	Destination     string     `json:"destination"`
	FromSpot        string     `json:"fromSpot"`
	DepartsAt       string     `json:"departsAt"`
	Capacity        int        `json:"capacity"`
	MinParticipants int        `json:"minParticipants"`
	Note            string     `json:"note"`
	CreatedAt       string     `json:"createdAt"`
}

type locationCheckDTO struct {
	IP        string `json:"ip"`
	Matched   *bool  `json:"matched"`
	CheckedAt string `json:"checkedAt"`
}

type rideMemberDTO struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	Verified      bool              `json:"verified"`
	LocationCheck *locationCheckDTO `json:"locationCheck"`
}

type rideDetailDTO struct {
	rideSummaryDTO
	CreatedAt         string            `json:"createdAt"`
	Verified          bool              `json:"verified"`
	Members           []rideMemberDTO   `json:"members"`
	SelfLocationCheck *locationCheckDTO `json:"selfLocationCheck"`
}

type userDTO struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName,omitempty"`
}

type routeStatsDTO struct {
	UntilEarliestMin *int `json:"untilEarliestMin"`
	Vehicles         int  `json:"vehicles"`
}

// The dashboard keeps the romanization the kiosk UI was built against.
type dashboardDTO struct {
	ToSchool struct {
		FromSyonandai routeStatsDTO `json:"fromSyonandai"`
		FromTsujido   routeStatsDTO `json:"fromTsujido"`
	} `json:"toSchool"`
	FromSchool struct {
		ToSyonandai routeStatsDTO `json:"toSyonandai"`
		ToTsujido   routeStatsDTO `json:"toTsujido"`
	} `json:"fromSchool"`
}

// createRideBody is the POST /rides request payload. Numeric fields use
// pointers so absent and zero are distinguishable before validation.
type createRideBody struct {
	Mode            string  `json:"mode"`
	Destination     string  `json:"destination"`
	FromSpot        string  `json:"fromSpot"`
	DepartsAt       string  `json:"departsAt"`
	Capacity        *int    `json:"capacity"`
	MinParticipants *int    `json:"minParticipants"`
	Note            *string `json:"note"`
}

// putMeBody is the PUT /me payload: name omitted keeps the display name,
// null clears it, a value sets it.
type putMeBody struct {
	Name nullable.Nullable[string] `json:"name"`
}

func fmtTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func toUserRefDTO(u rides.UserRef) userRefDTO {
	return userRefDTO{ID: string(u.ID), Name: u.Name}
}

func toSummaryDTO(s rides.Summary) rideSummaryDTO {
	return rideSummaryDTO{
		ID:              int64(s.ID),
		Driver:          toUserRefDTO(s.Driver),
		Mode:            string(s.Mode),
		Destination:     string(s.Destination),
		FromSpot:        string(s.FromSpot),
		DepartsAt:       fmtTime(s.DepartsAt),
		Capacity:        s.Capacity,
		MinParticipants: s.MinParticipants,
		Note:            s.Note,
		MembersCount:    s.MembersCount,
		Joined:          s.Joined,
	}
}

func toSummaryDTOs(ss []rides.Summary) []rideSummaryDTO {
	out := make([]rideSummaryDTO, 0, len(ss))
	for _, s := range ss {
		out = append(out, toSummaryDTO(s))
	}
	return out
}

func toCreatedDTO(c rides.Created) rideCreatedDTO {
	return rideCreatedDTO{
		ID:              int64(c.ID),
		Driver:          toUserRefDTO(c.Driver),
		Mode:            string(c.Mode),
		Destination:     string(c.Destination),
		FromSpot:        string(c.FromSpot),
		DepartsAt:       fmtTime(c.DepartsAt),
		Capacity:        c.Capacity,
		MinParticipants: c.MinParticipants,
		Note:            c.Note,
		CreatedAt:       fmtTime(c.CreatedAt),
	}
}

func toLocationCheckDTO(c *domain.LocationCheck) *locationCheckDTO {
	if c == nil {
		return nil
	}
	return &locationCheckDTO{
		IP:        c.IP,
		Matched:   c.Matched,
		CheckedAt: fmtTime(c.CheckedAt),
	}
}

func toDetailDTO(d rides.Detail) rideDetailDTO {
	members := make([]rideMemberDTO, 0, len(d.Members))
	for _, m := range d.Members {
		members = append(members, rideMemberDTO{
			ID:            string(m.ID),
			Name:          m.Name,
			Verified:      m.Verified,
			LocationCheck: toLocationCheckDTO(m.LocationCheck),
		})
	}
	return rideDetailDTO{
		rideSummaryDTO:    toSummaryDTO(d.Summary),
		CreatedAt:         fmtTime(d.CreatedAt),
		Verified:          d.Verified,
		Members:           members,
		SelfLocationCheck: toLocationCheckDTO(d.SelfLocationCheck),
	}
}

func toUserDTO(u domain.User) userDTO {
	return userDTO{ID: string(u.ID), DisplayName: u.DisplayName}
}

func toRouteStatsDTO(s domain.RouteStats) routeStatsDTO {
	return routeStatsDTO{UntilEarliestMin: s.UntilEarliestMin, Vehicles: s.Vehicles}
}

func toDashboardDTO(s domain.DashboardSummary) dashboardDTO {
	var out dashboardDTO
	out.ToSchool.FromSyonandai = toRouteStatsDTO(s.ToSchool.FromShonandai)
	out.ToSchool.FromTsujido = toRouteStatsDTO(s.ToSchool.FromTsujido)
	out.FromSchool.ToSyonandai = toRouteStatsDTO(s.FromSchool.ToShonandai)
	out.FromSchool.ToTsujido = toRouteStatsDTO(s.FromSchool.ToTsujido)
	return out
}

package httpapi

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sfc-mobility/campus-rides-api/internal/app/dashboard"
	"github.com/sfc-mobility/campus-rides-api/internal/app/rides"
	"github.com/sfc-mobility/campus-rides-api/internal/app/users"
	"github.com/sfc-mobility/campus-rides-api/internal/domain"
	clockport "github.com/sfc-mobility/campus-rides-api/internal/ports/out/clock"
)

// Server holds the HTTP handlers. It is a thin adapter: decode, delegate to
// the application services, encode the envelope.
type Server struct {
	Rides     *rides.Service
	Users     *users.Service
	Dashboard *dashboard.Service
	Clock     clockport.Clock
}

func NewServer(ridesSvc *rides.Service, usersSvc *users.Service, dashSvc *dashboard.Service, clk clockport.Clock) *Server {
	return &Server{
		Rides:     ridesSvc,
		Users:     usersSvc,
		Dashboard: dashSvc,
		Clock:     clk,
	}
}

// viewer returns the caller's id when one was presented, nil otherwise.
func viewer(r *http.Request) *domain.UserID {
	if id, ok := UserIDFromContext(r.Context()); ok {
		return &id
	}
	return nil
}

func rideID(r *http.Request) (domain.RideID, bool) {
	raw := chi.URLParam(r, "id")
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return domain.RideID(n), true
}

// clientIP picks the first X-Forwarded-For entry, falling back to the
// connection's remote address.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return host
}

func (s *Server) handleListRides(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	out, err := s.Rides.List(r.Context(), viewer(r), rides.ListFilter{
		Destination: q.Get("destination"),
		FromSpot:    q.Get("fromSpot"),
		Date:        q.Get("date"),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeData(w, toSummaryDTOs(out))
}

func (s *Server) handleCreateRide(w http.ResponseWriter, r *http.Request) {
	uid, ok := UserIDFromContext(r.Context())
	if !ok {
		writeUnauthorized(w)
		return
	}

	var body createRideBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", nil)
		return
	}
	in := rides.CreateRideInput{
		Mode:            body.Mode,
		Destination:     body.Destination,
		FromSpot:        body.FromSpot,
		DepartsAt:       body.DepartsAt,
		MinParticipants: body.MinParticipants,
		Note:            body.Note,
	}
	if body.Capacity != nil {
		in.Capacity = *body.Capacity
	}

	created, err := s.Rides.Create(r.Context(), uid, in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeData(w, toCreatedDTO(created))
}

func (s *Server) handleRideDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := rideID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	d, err := s.Rides.Detail(r.Context(), viewer(r), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeData(w, toDetailDTO(d))
}

func (s *Server) handleJoinRide(w http.ResponseWriter, r *http.Request) {
	uid, ok := UserIDFromContext(r.Context())
	if !ok {
		writeUnauthorized(w)
		return
	}
	id, ok := rideID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	if err := s.Rides.Join(r.Context(), uid, id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeOK(w)
}

func (s *Server) handleLeaveRide(w http.ResponseWriter, r *http.Request) {
	uid, ok := UserIDFromContext(r.Context())
	if !ok {
		writeUnauthorized(w)
		return
	}
	id, ok := rideID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	if err := s.Rides.Leave(r.Context(), uid, id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeOK(w)
}

func (s *Server) handleRemoveRide(w http.ResponseWriter, r *http.Request) {
	uid, ok := UserIDFromContext(r.Context())
	if !ok {
		writeUnauthorized(w)
		return
	}
	id, ok := rideID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	if err := s.Rides.Remove(r.Context(), uid, id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeOK(w)
}

func (s *Server) handleLocationCheck(w http.ResponseWriter, r *http.Request) {
	uid, ok := UserIDFromContext(r.Context())
	if !ok {
		writeUnauthorized(w)
		return
	}
	id, ok := rideID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	ip := clientIP(r)
	if ip == "" {
		writeError(w, http.StatusBadRequest, "ip_unavailable", nil)
		return
	}
	check, err := s.Rides.SubmitLocationCheck(r.Context(), uid, id, ip)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeData(w, toLocationCheckDTO(&check))
}

func (s *Server) handleVerifyMember(w http.ResponseWriter, r *http.Request) {
	uid, ok := UserIDFromContext(r.Context())
	if !ok {
		writeUnauthorized(w)
		return
	}
	id, ok := rideID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	memberID, ok := domain.ParseUserID(chi.URLParam(r, "memberId"))
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	if err := s.Rides.VerifyMember(r.Context(), uid, id, memberID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeOK(w)
}

func (s *Server) handleMyRides(w http.ResponseWriter, r *http.Request) {
	uid, ok := UserIDFromContext(r.Context())
	if !ok {
		writeUnauthorized(w)
		return
	}
	role, ok := rides.ParseRole(r.URL.Query().Get("role"))
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_role", nil)
		return
	}
	out, err := s.Rides.ListMine(r.Context(), uid, role)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeData(w, toSummaryDTOs(out))
}

func (s *Server) handleGetMe(w http.ResponseWriter, r *http.Request) {
	uid, ok := UserIDFromContext(r.Context())
	if !ok {
		writeUnauthorized(w)
		return
	}
	u, err := s.Users.Get(r.Context(), uid)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeData(w, toUserDTO(u))
}

func (s *Server) handlePutMe(w http.ResponseWriter, r *http.Request) {
	uid, ok := UserIDFromContext(r.Context())
	if !ok {
		writeUnauthorized(w)
		return
	}

	var body putMeBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", nil)
		return
	}
	var in users.UpsertMeInput
	if body.Name.IsSpecified() {
		if body.Name.IsNull() {
			in.Name = users.Null[string]()
		} else {
			v, err := body.Name.Get()
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_request", nil)
				return
			}
			in.Name = users.Some(v)
		}
	}

	u, err := s.Users.Upsert(r.Context(), uid, in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeData(w, toUserDTO(u))
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	sum, err := s.Dashboard.GetSummary(r.Context(), s.Clock.Now())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeData(w, toDashboardDTO(sum))
}

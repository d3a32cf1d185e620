package rides

import (
	"strings"
	"time"

	"github.com/sfc-mobility/campus-rides-api/internal/domain"
)

const maxNoteLen = 200

// FieldError ties a validation error code to the offending input field.
type FieldError struct {
	Field string
	Code  string
}

// departsAtLayouts are the accepted date-time shapes. All require an explicit
// time component; date-only strings are rejected.
var departsAtLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

func parseDepartsAt(s string) (time.Time, bool) {
	if !strings.Contains(s, "T") {
		return time.Time{}, false
	}
	for _, layout := range departsAtLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// ValidateCreateRide checks a ride-creation payload before persistence.
// It is pure and stateless; it returns every failed field in input order.
func ValidateCreateRide(in CreateRideInput) []FieldError {
	var errs []FieldError

	mode, modeOK := domain.ParseRideMode(in.Mode)
	if !modeOK {
		errs = append(errs, FieldError{Field: "mode", Code: "invalid_mode"})
	}

	dest, destOK := domain.ParseLocation(in.Destination)
	if !destOK {
		errs = append(errs, FieldError{Field: "destination", Code: "invalid_location"})
	}
	from, fromOK := domain.ParseLocation(in.FromSpot)
	if !fromOK {
		errs = append(errs, FieldError{Field: "fromSpot", Code: "invalid_location"})
	}
	// The route rule flags both endpoints: neither alone is the wrong one.
	if destOK && fromOK && !domain.ValidRoute(dest, from) {
		errs = append(errs,
			FieldError{Field: "destination", Code: "invalid_route"},
			FieldError{Field: "fromSpot", Code: "invalid_route"},
		)
	}

	if _, ok := parseDepartsAt(in.DepartsAt); !ok {
		errs = append(errs, FieldError{Field: "departsAt", Code: "invalid_datetime"})
	}

	if in.Capacity < 1 {
		errs = append(errs, FieldError{Field: "capacity", Code: "invalid_capacity"})
	}

	if modeOK && mode == domain.ModeTaxi {
		switch {
		case in.MinParticipants == nil || *in.MinParticipants < 2:
			errs = append(errs, FieldError{Field: "minParticipants", Code: "invalid_min_participants"})
		case in.Capacity >= 1 && *in.MinParticipants > in.Capacity:
			errs = append(errs, FieldError{Field: "minParticipants", Code: "min_over_capacity"})
		}
	}

	if in.Note != nil && len([]rune(*in.Note)) > maxNoteLen {
		errs = append(errs, FieldError{Field: "note", Code: "invalid_note"})
	}

	return errs
}

// validationError folds field errors into an app error: the first field's
// code becomes the top-level code, details carry the full field map.
func validationError(errs []FieldError) *Error {
	details := make(map[string]string, len(errs))
	for _, fe := range errs {
		if _, ok := details[fe.Field]; !ok {
			details[fe.Field] = fe.Code
		}
	}
	return &Error{Status: 400, Code: errs[0].Code, Details: details}
}

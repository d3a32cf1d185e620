package rides_test

import (
	"testing"

	"github.com/sfc-mobility/campus-rides-api/internal/app/rides"
)

func intPtr(n int) *int       { return &n }
func strPtr(s string) *string { return &s }

func validInput() rides.CreateRideInput {
	return rides.CreateRideInput{
		Mode:        "car",
		Destination: "g_parking",
		FromSpot:    "shonandai",
		DepartsAt:   "2025-06-01T09:30:00Z",
		Capacity:    3,
	}
}

func codesByField(errs []rides.FieldError) map[string]string {
	out := make(map[string]string, len(errs))
	for _, fe := range errs {
		if _, ok := out[fe.Field]; !ok {
			out[fe.Field] = fe.Code
		}
	}
	return out
}

func TestValidateCreateRide(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*rides.CreateRideInput)
		want   map[string]string
	}{
		{
			name:   "valid car ride",
			mutate: func(*rides.CreateRideInput) {},
			want:   nil,
		},
		{
			name: "valid taxi ride",
			mutate: func(in *rides.CreateRideInput) {
				in.Mode = "taxi"
				in.Capacity = 5
				in.MinParticipants = intPtr(2)
			},
			want: nil,
		},
		{
			name:   "unknown mode",
			mutate: func(in *rides.CreateRideInput) { in.Mode = "bus" },
			want:   map[string]string{"mode": "invalid_mode"},
		},
		{
			name:   "unknown destination",
			mutate: func(in *rides.CreateRideInput) { in.Destination = "mars" },
			want:   map[string]string{"destination": "invalid_location"},
		},
		{
			name: "campus to campus flags both endpoints",
			mutate: func(in *rides.CreateRideInput) {
				in.Destination = "g_parking"
				in.FromSpot = "delta_back"
			},
			want: map[string]string{"destination": "invalid_route", "fromSpot": "invalid_route"},
		},
		{
			name: "station to station flags both endpoints",
			mutate: func(in *rides.CreateRideInput) {
				in.Destination = "shonandai"
				in.FromSpot = "tsujido"
			},
			want: map[string]string{"destination": "invalid_route", "fromSpot": "invalid_route"},
		},
		{
			name:   "date without time component",
			mutate: func(in *rides.CreateRideInput) { in.DepartsAt = "2025-06-01" },
			want:   map[string]string{"departsAt": "invalid_datetime"},
		},
		{
			name:   "garbage datetime",
			mutate: func(in *rides.CreateRideInput) { in.DepartsAt = "soonT-ish" },
			want:   map[string]string{"departsAt": "invalid_datetime"},
		},
		{
			name:   "local datetime without zone is accepted",
			mutate: func(in *rides.CreateRideInput) { in.DepartsAt = "2025-06-01T09:30" },
			want:   nil,
		},
		{
			name:   "zero capacity",
			mutate: func(in *rides.CreateRideInput) { in.Capacity = 0 },
			want:   map[string]string{"capacity": "invalid_capacity"},
		},
		{
			name: "taxi without minParticipants",
			mutate: func(in *rides.CreateRideInput) {
				in.Mode = "taxi"
			},
			want: map[string]string{"minParticipants": "invalid_min_participants"},
		},
		{
			name: "taxi minParticipants below two",
			mutate: func(in *rides.CreateRideInput) {
				in.Mode = "taxi"
				in.MinParticipants = intPtr(1)
			},
			want: map[string]string{"minParticipants": "invalid_min_participants"},
		},
		{
			name: "taxi minParticipants over capacity",
			mutate: func(in *rides.CreateRideInput) {
				in.Mode = "taxi"
				in.Capacity = 3
				in.MinParticipants = intPtr(5)
			},
			want: map[string]string{"minParticipants": "min_over_capacity"},
		},
		{
			name:   "note too long",
			mutate: func(in *rides.CreateRideInput) { in.Note = strPtr(string(make([]rune, 201))) },
			want:   map[string]string{"note": "invalid_note"},
		},
		{
			name:   "note at limit",
			mutate: func(in *rides.CreateRideInput) { in.Note = strPtr(string(make([]rune, 200))) },
			want:   nil,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput()
			tc.mutate(&in)
			got := codesByField(rides.ValidateCreateRide(in))
			if len(tc.want) == 0 {
				if len(got) != 0 {
					t.Fatalf("unexpected errors: %v", got)
				}
				return
			}
			if len(got) != len(tc.want) {
				t.Fatalf("errors=%v, want %v", got, tc.want)
			}
			for field, code := range tc.want {
				if got[field] != code {
					t.Errorf("%s=%q, want %q", field, got[field], code)
				}
			}
		})
	}
}

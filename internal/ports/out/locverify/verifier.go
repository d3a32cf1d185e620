package locverify

import (
	"context"

	"github.com/sfc-mobility/campus-rides-api/internal/domain"
)

// Verdict is the outcome of an IP-based proximity check.
// Matched: true = device judged near the location, false = judged away,
// nil = the service could not tell.
type Verdict struct {
	Matched *bool
}

// Verifier asks an external service whether a device (by public IPv4) is
// near a named campus location. Any transport or protocol failure is an
// ordinary error, not a business verdict.
type Verifier interface {
	Verify(ctx context.Context, ipv4 string, loc domain.Location) (Verdict, error)
}

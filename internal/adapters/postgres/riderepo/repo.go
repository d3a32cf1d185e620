package riderepo

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/sfc-mobility/campus-rides-api/internal/adapters/postgres"
	"github.com/sfc-mobility/campus-rides-api/internal/domain"
	"github.com/sfc-mobility/campus-rides-api/internal/ports/out/riderepo"
)

// Repo is a Postgres implementation of riderepo.Repository.
//
// The capacity guarantee of the port is implemented in AddMember: the ride
// row is locked FOR UPDATE, the current member count is checked inside the
// same transaction, and the (ride_id, user_id) primary key rejects duplicate
// joins.
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const rideColumns = `id, driver_id, mode, destination, from_spot, departs_at, capacity, min_participants, note, created_at`

func (r *Repo) Create(ctx context.Context, ride riderepo.Ride) (riderepo.Ride, error) {
	if r.pool == nil {
		return riderepo.Ride{}, errors.New("nil postgres pool")
	}
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO rides (driver_id, mode, destination, from_spot, departs_at, capacity, min_participants, note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`,
		string(ride.DriverID),
		string(ride.Mode),
		string(ride.Destination),
		string(ride.FromSpot),
		ride.DepartsAt.UTC(),
		ride.Capacity,
		ride.MinParticipants,
		ride.Note,
		ride.CreatedAt.UTC(),
	).Scan(&id)
	if err != nil {
		return riderepo.Ride{}, err
	}
	ride.ID = domain.RideID(id)
	return ride, nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.RideID) (riderepo.Ride, error) {
	if r.pool == nil {
		return riderepo.Ride{}, errors.New("nil postgres pool")
	}
	row := r.pool.QueryRow(ctx, `SELECT `+rideColumns+` FROM rides WHERE id = $1`, int64(id))
	ride, err := scanRide(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return riderepo.Ride{}, riderepo.ErrNotFound
		}
		return riderepo.Ride{}, err
	}
	return ride, nil
}

func (r *Repo) GetWithMembers(ctx context.Context, id domain.RideID) (riderepo.RideWithMembers, error) {
	ride, err := r.GetByID(ctx, id)
	if err != nil {
		return riderepo.RideWithMembers{}, err
	}
	members, err := r.listMembers(ctx, id)
	if err != nil {
		return riderepo.RideWithMembers{}, err
	}
	return riderepo.RideWithMembers{Ride: ride, Members: members}, nil
}

func (r *Repo) List(ctx context.Context, f riderepo.Filter) ([]riderepo.Ride, error) {
	if r.pool == nil {
		return nil, errors.New("nil postgres pool")
	}
	query, args := buildListQuery(f)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]riderepo.Ride, 0)
	for rows.Next() {
		ride, err := scanRide(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ride)
	}
	return out, rows.Err()
}

func (r *Repo) ListWithMembers(ctx context.Context, f riderepo.Filter) ([]riderepo.RideWithMembers, error) {
	rides, err := r.List(ctx, f)
	if err != nil {
		return nil, err
	}
	out := make([]riderepo.RideWithMembers, 0, len(rides))
	for _, ride := range rides {
		members, err := r.listMembers(ctx, ride.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, riderepo.RideWithMembers{Ride: ride, Members: members})
	}
	return out, nil
}

func (r *Repo) Delete(ctx context.Context, id domain.RideID) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	ct, err := r.pool.Exec(ctx, `DELETE FROM rides WHERE id = $1`, int64(id))
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return riderepo.ErrNotFound
	}
	return nil
}

func (r *Repo) AddMember(ctx context.Context, rideID domain.RideID, userID domain.UserID, joinedAt time.Time) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var capacity int
		err := tx.QueryRow(ctx, `SELECT capacity FROM rides WHERE id = $1 FOR UPDATE`, int64(rideID)).Scan(&capacity)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return riderepo.ErrNotFound
			}
			return err
		}

		var count int
		if err := tx.QueryRow(ctx, `SELECT count(*) FROM ride_members WHERE ride_id = $1`, int64(rideID)).Scan(&count); err != nil {
			return err
		}
		if count >= capacity {
			return riderepo.ErrRideFull
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO ride_members (ride_id, user_id, joined_at)
			VALUES ($1, $2, $3)
		`, int64(rideID), string(userID), joinedAt.UTC())
		if err != nil {
			if pe, ok := postgres.AsPgError(err); ok && pe.Code == postgres.UniqueViolationCode {
				return riderepo.ErrMemberExists
			}
			return err
		}
		return nil
	})
}

func (r *Repo) GetMember(ctx context.Context, rideID domain.RideID, userID domain.UserID) (riderepo.Member, error) {
	if r.pool == nil {
		return riderepo.Member{}, errors.New("nil postgres pool")
	}
	row := r.pool.QueryRow(ctx, `
		SELECT ride_id, user_id, joined_at, verified_at, check_ip, check_matched, checked_at
		FROM ride_members
		WHERE ride_id = $1 AND user_id = $2
	`, int64(rideID), string(userID))
	m, err := scanMember(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return riderepo.Member{}, riderepo.ErrMemberNotFound
		}
		return riderepo.Member{}, err
	}
	return m, nil
}

func (r *Repo) RemoveMember(ctx context.Context, rideID domain.RideID, userID domain.UserID) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	ct, err := r.pool.Exec(ctx, `
		DELETE FROM ride_members WHERE ride_id = $1 AND user_id = $2
	`, int64(rideID), string(userID))
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return riderepo.ErrMemberNotFound
	}
	return nil
}

func (r *Repo) SetMemberVerified(ctx context.Context, rideID domain.RideID, userID domain.UserID, at time.Time) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	ct, err := r.pool.Exec(ctx, `
		UPDATE ride_members SET verified_at = $3
		WHERE ride_id = $1 AND user_id = $2
	`, int64(rideID), string(userID), at.UTC())
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return riderepo.ErrMemberNotFound
	}
	return nil
}

func (r *Repo) SetMemberLocationCheck(ctx context.Context, rideID domain.RideID, userID domain.UserID, check riderepo.LocationCheck) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	ct, err := r.pool.Exec(ctx, `
		UPDATE ride_members SET check_ip = $3, check_matched = $4, checked_at = $5
		WHERE ride_id = $1 AND user_id = $2
	`, int64(rideID), string(userID), check.IP, check.Matched, check.CheckedAt.UTC())
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return riderepo.ErrMemberNotFound
	}
	return nil
}

func (r *Repo) listMembers(ctx context.Context, rideID domain.RideID) ([]riderepo.Member, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT ride_id, user_id, joined_at, verified_at, check_ip, check_matched, checked_at
		FROM ride_members
		WHERE ride_id = $1
		ORDER BY joined_at ASC, user_id ASC
	`, int64(rideID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]riderepo.Member, 0)
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func buildListQuery(f riderepo.Filter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}
	if f.Destination != nil {
		conds = append(conds, "destination = "+arg(string(*f.Destination)))
	}
	if f.FromSpot != nil {
		conds = append(conds, "from_spot = "+arg(string(*f.FromSpot)))
	}
	if f.DepartsFrom != nil {
		conds = append(conds, "departs_at >= "+arg(f.DepartsFrom.UTC()))
	}
	if f.DepartsUntil != nil {
		conds = append(conds, "departs_at < "+arg(f.DepartsUntil.UTC()))
	}
	query := `SELECT ` + rideColumns + ` FROM rides`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY departs_at ASC, id ASC`
	return query, args
}

func scanRide(row pgx.Row) (riderepo.Ride, error) {
	var (
		id              int64
		driverID        string
		mode            string
		destination     string
		fromSpot        string
		departsAt       time.Time
		capacity        int
		minParticipants int
		note            string
		createdAt       time.Time
	)
	if err := row.Scan(&id, &driverID, &mode, &destination, &fromSpot, &departsAt, &capacity, &minParticipants, &note, &createdAt); err != nil {
		return riderepo.Ride{}, err
	}
	return riderepo.Ride{
		ID:              domain.RideID(id),
		DriverID:        domain.UserID(driverID),
		Mode:            domain.RideMode(mode),
		Destination:     domain.Location(destination),
		FromSpot:        domain.Location(fromSpot),
		DepartsAt:       departsAt.UTC(),
		Capacity:        capacity,
		MinParticipants: minParticipants,
		Note:            note,
		CreatedAt:       createdAt.UTC(),
	}, nil
}

func scanMember(row pgx.Row) (riderepo.Member, error) {
	var (
		rideID       int64
		userID       string
		joinedAt     time.Time
		verifiedAt   *time.Time
		checkIP      *string
		checkMatched *bool
		checkedAt    *time.Time
	)
	if err := row.Scan(&rideID, &userID, &joinedAt, &verifiedAt, &checkIP, &checkMatched, &checkedAt); err != nil {
		return riderepo.Member{}, err
	}
	m := riderepo.Member{
		RideID:     domain.RideID(rideID),
		UserID:     domain.UserID(userID),
		JoinedAt:   joinedAt.UTC(),
		VerifiedAt: verifiedAt,
	}
	if checkIP != nil && checkedAt != nil {
		m.LocationCheck = &riderepo.LocationCheck{
			IP:        *checkIP,
			Matched:   checkMatched,
			CheckedAt: checkedAt.UTC(),
		}
	}
	return m, nil
}

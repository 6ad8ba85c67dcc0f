package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"walking-bus/backend/internal/activity/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an activity repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// CreateSession inserts the session and its stop visits in one transaction.
// Sessions and their visits are created together when a route run is scheduled.
func (r *PostgresRepository) CreateSession(ctx context.Context, s *domain.ActivitySession, stops []domain.StopVisit) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO activity_sessions (id, route_id, scheduled_at, late_registration, next_leg_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		s.ID, s.RouteID, s.ScheduledAt, s.LateRegistration,
		sql.NullString{String: s.NextLegID, Valid: s.NextLegID != ""}, s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	for i := range stops {
		v := &stops[i]
		_, err = tx.ExecContext(ctx, `
			INSERT INTO stop_visits (id, session_id, station_id, stop_number, scheduled_at)
			VALUES ($1, $2, $3, $4, $5)`,
			v.ID, s.ID, v.StationID, v.StopNumber, v.ScheduledAt,
		)
		if err != nil {
			return fmt.Errorf("insert stop visit %d: %w", v.StopNumber, err)
		}
	}
	return tx.Commit()
}

// LoadState returns a plain snapshot of the session without taking locks.
// Used for status and derived-view reads, which recompute on every call.
func (r *PostgresRepository) LoadState(ctx context.Context, sessionID string) (*domain.SessionState, error) {
	return loadState(ctx, r.db, sessionID, false)
}

// InSessionTx runs fn in a transaction that holds row locks on the session's
// stop visits. Two concurrent calls for the same session serialize here; the
// second observes the first one's writes in its snapshot.
func (r *PostgresRepository) InSessionTx(ctx context.Context, sessionID string, fn func(ctx context.Context, tx Tx) error) error {
	sqlTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = sqlTx.Rollback() }()

	state, err := loadState(ctx, sqlTx, sessionID, true)
	if err != nil {
		return err
	}
	t := &pgTx{tx: sqlTx, state: state}
	if err := fn(ctx, t); err != nil {
		return err
	}
	return sqlTx.Commit()
}

// ListRegistrationsByParent returns all registrations created by the parent, newest first.
func (r *PostgresRepository) ListRegistrationsByParent(ctx context.Context, parentID string) ([]*domain.Registration, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, session_id, child_id, pickup_station_id, dropoff_station_id, parent_id, late, created_at
		FROM registrations WHERE parent_id = $1 ORDER BY created_at DESC`, parentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Registration
	for rows.Next() {
		var reg domain.Registration
		if err := rows.Scan(&reg.ID, &reg.SessionID, &reg.ChildID, &reg.PickupStationID,
			&reg.DropoffStationID, &reg.ParentID, &reg.Late, &reg.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &reg)
	}
	return out, rows.Err()
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func loadState(ctx context.Context, q querier, sessionID string, forUpdate bool) (*domain.SessionState, error) {
	st := &domain.SessionState{
		Children: map[string]domain.ChildRef{},
		Stations: map[string]domain.StationRef{},
	}

	// The session row is locked first: under read committed, a statement run
	// after blocking on a row lock sees a fresh snapshot, so reading started_at
	// and finished_at before acquiring any lock would hand the loser of a race
	// stale lifecycle fields.
	sessionQuery := `
		SELECT id, route_id, scheduled_at, started_at, finished_at, started_by, finished_by,
		       late_registration, next_leg_id, weather_temp_c, weather_condition, created_at
		FROM activity_sessions WHERE id = $1`
	if forUpdate {
		sessionQuery += ` FOR UPDATE`
	}
	var nextLeg, startedBy, finishedBy, condition sql.NullString
	var startedAt, finishedAt sql.NullTime
	var tempC sql.NullFloat64
	err := q.QueryRowContext(ctx, sessionQuery, sessionID).
		Scan(&st.Session.ID, &st.Session.RouteID, &st.Session.ScheduledAt, &startedAt, &finishedAt,
			&startedBy, &finishedBy, &st.Session.LateRegistration, &nextLeg, &tempC, &condition,
			&st.Session.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, err
	}
	st.Session.StartedAt = nullTimeToPtr(startedAt)
	st.Session.FinishedAt = nullTimeToPtr(finishedAt)
	st.Session.StartedBy = nullStringOrEmpty(startedBy)
	st.Session.FinishedBy = nullStringOrEmpty(finishedBy)
	st.Session.NextLegID = nullStringOrEmpty(nextLeg)
	if tempC.Valid || condition.Valid {
		st.Session.Weather = &domain.WeatherSnapshot{TemperatureC: tempC.Float64, Condition: condition.String}
	}

	// Stop rows are locked alongside the session row so the existence checks
	// and the subsequent writes form one atomic unit.
	visitQuery := `
		SELECT id, session_id, station_id, stop_number, scheduled_at, arrived_at, departed_at
		FROM stop_visits WHERE session_id = $1 ORDER BY stop_number`
	if forUpdate {
		visitQuery += ` FOR UPDATE`
	}
	rows, err := q.QueryContext(ctx, visitQuery, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var v domain.StopVisit
		var arrived, departed sql.NullTime
		if err := rows.Scan(&v.ID, &v.SessionID, &v.StationID, &v.StopNumber, &v.ScheduledAt, &arrived, &departed); err != nil {
			return nil, err
		}
		v.ArrivedAt = nullTimeToPtr(arrived)
		v.DepartedAt = nullTimeToPtr(departed)
		st.Stops = append(st.Stops, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	regRows, err := q.QueryContext(ctx, `
		SELECT id, session_id, child_id, pickup_station_id, dropoff_station_id, parent_id, late, created_at
		FROM registrations WHERE session_id = $1 ORDER BY created_at`, sessionID)
	if err != nil {
		return nil, err
	}
	defer regRows.Close()
	for regRows.Next() {
		var reg domain.Registration
		if err := regRows.Scan(&reg.ID, &reg.SessionID, &reg.ChildID, &reg.PickupStationID,
			&reg.DropoffStationID, &reg.ParentID, &reg.Late, &reg.CreatedAt); err != nil {
			return nil, err
		}
		st.Registrations = append(st.Registrations, reg)
	}
	if err := regRows.Err(); err != nil {
		return nil, err
	}

	evRows, err := q.QueryContext(ctx, `
		SELECT id, session_id, child_id, station_id, kind, recorded_by, created_at
		FROM presence_events WHERE session_id = $1 ORDER BY created_at`, sessionID)
	if err != nil {
		return nil, err
	}
	defer evRows.Close()
	for evRows.Next() {
		var e domain.PresenceEvent
		if err := evRows.Scan(&e.ID, &e.SessionID, &e.ChildID, &e.StationID, &e.Kind, &e.RecordedBy, &e.CreatedAt); err != nil {
			return nil, err
		}
		st.Events = append(st.Events, e)
	}
	if err := evRows.Err(); err != nil {
		return nil, err
	}

	insRows, err := q.QueryContext(ctx, `
		SELECT user_id FROM session_instructors WHERE session_id = $1`, sessionID)
	if err != nil {
		return nil, err
	}
	defer insRows.Close()
	for insRows.Next() {
		var id string
		if err := insRows.Scan(&id); err != nil {
			return nil, err
		}
		st.Instructors = append(st.Instructors, id)
	}
	if err := insRows.Err(); err != nil {
		return nil, err
	}

	childRows, err := q.QueryContext(ctx, `
		SELECT c.id, c.display_name FROM children c
		JOIN registrations r ON r.child_id = c.id
		WHERE r.session_id = $1`, sessionID)
	if err != nil {
		return nil, err
	}
	defer childRows.Close()
	for childRows.Next() {
		var c domain.ChildRef
		if err := childRows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		st.Children[c.ID] = c
	}
	if err := childRows.Err(); err != nil {
		return nil, err
	}

	stationRows, err := q.QueryContext(ctx, `
		SELECT s.id, s.name FROM stations s
		JOIN stop_visits v ON v.station_id = s.id
		WHERE v.session_id = $1`, sessionID)
	if err != nil {
		return nil, err
	}
	defer stationRows.Close()
	for stationRows.Next() {
		var s domain.StationRef
		if err := stationRows.Scan(&s.ID, &s.Name); err != nil {
			return nil, err
		}
		st.Stations[s.ID] = s
	}
	return st, stationRows.Err()
}

// pgTx applies mutations inside the locked transaction.
type pgTx struct {
	tx    *sql.Tx
	state *domain.SessionState
}

func (t *pgTx) State() *domain.SessionState { return t.state }

func (t *pgTx) MarkStarted(ctx context.Context, at time.Time, actorID string, w *domain.WeatherSnapshot) error {
	var tempC sql.NullFloat64
	var condition sql.NullString
	if w != nil {
		tempC = sql.NullFloat64{Float64: w.TemperatureC, Valid: true}
		condition = sql.NullString{String: w.Condition, Valid: true}
	}
	res, err := t.tx.ExecContext(ctx, `
		UPDATE activity_sessions
		SET started_at = $2, started_by = $3, weather_temp_c = $4, weather_condition = $5
		WHERE id = $1 AND started_at IS NULL`,
		t.state.Session.ID, at, actorID, tempC, condition)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	// Zero rows means another transaction started the session first.
	if n == 0 {
		return domain.ErrAlreadyStarted
	}
	return nil
}

func (t *pgTx) MarkFinished(ctx context.Context, at time.Time, actorID string) error {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE activity_sessions SET finished_at = $2, finished_by = $3
		WHERE id = $1 AND finished_at IS NULL`,
		t.state.Session.ID, at, actorID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrAlreadyFinished
	}
	return nil
}

func (t *pgTx) MarkArrived(ctx context.Context, stopVisitID string, at time.Time) error {
	_, err := t.tx.ExecContext(ctx, `
		UPDATE stop_visits SET arrived_at = $2 WHERE id = $1 AND arrived_at IS NULL`,
		stopVisitID, at)
	return err
}

func (t *pgTx) MarkDeparted(ctx context.Context, stopVisitID string, at time.Time) error {
	_, err := t.tx.ExecContext(ctx, `
		UPDATE stop_visits SET departed_at = $2 WHERE id = $1 AND departed_at IS NULL`,
		stopVisitID, at)
	return err
}

func (t *pgTx) InsertPresence(ctx context.Context, e *domain.PresenceEvent) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO presence_events (id, session_id, child_id, station_id, kind, recorded_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.ID, e.SessionID, e.ChildID, e.StationID, e.Kind, e.RecordedBy, e.CreatedAt)
	return err
}

func (t *pgTx) DeletePresence(ctx context.Context, childID string, kind domain.EventKind) error {
	_, err := t.tx.ExecContext(ctx, `
		DELETE FROM presence_events WHERE session_id = $1 AND child_id = $2 AND kind = $3`,
		t.state.Session.ID, childID, kind)
	return err
}

func (t *pgTx) InsertRegistration(ctx context.Context, r *domain.Registration) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO registrations (id, session_id, child_id, pickup_station_id, dropoff_station_id, parent_id, late, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		r.ID, r.SessionID, r.ChildID, r.PickupStationID, r.DropoffStationID, r.ParentID, r.Late, r.CreatedAt)
	return err
}

func (t *pgTx) DeleteRegistration(ctx context.Context, childID string) error {
	_, err := t.tx.ExecContext(ctx, `
		DELETE FROM registrations WHERE session_id = $1 AND child_id = $2`,
		t.state.Session.ID, childID)
	return err
}

func nullTimeToPtr(n sql.NullTime) *time.Time {
	if !n.Valid {
		return nil
	}
	return &n.Time
}

func nullStringOrEmpty(n sql.NullString) string {
	if !n.Valid {
		return ""
	}
	return n.String
}

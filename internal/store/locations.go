package store

import (
	"context"
	"database/sql"
	"net"
	"strings"
	"time"

	"gameforge.gg/platform/internal/apperr"
	"gameforge.gg/platform/internal/models"
	"gameforge.gg/platform/pkg/database"
)

const locationColumns = `id, name, COALESCE(region, ''), endpoint, COALESCE(latency_ms, 0),
	status, last_checked, is_active, created_at, updated_at`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanLocation(row scanner) (models.Location, error) {
	var (
		loc     models.Location
		status  string
		checked sql.NullTime
	)
	err := row.Scan(&loc.ID, &loc.Name, &loc.Region, &loc.Endpoint, &loc.LatencyMs,
		&status, &checked, &loc.IsActive, &loc.CreatedAt, &loc.UpdatedAt)
	if err != nil {
		return loc, err
	}
	loc.Status = models.LocationStatus(status)
	if checked.Valid {
		t := checked.Time
		loc.LastChecked = &t
	}
	return loc, nil
}

// ListLocations returns locations ordered by name. activeOnly limits the
// result to locations shown on the public site and probed by the sweep.
func (s *Store) ListLocations(ctx context.Context, activeOnly bool) ([]models.Location, error) {
	const op = "store.ListLocations"
	query := `SELECT ` + locationColumns + ` FROM locations`
	if activeOnly {
		query += ` WHERE is_active = true`
	}
	query += ` ORDER BY name`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, database.ClassifyRead(op, err)
	}
	defer rows.Close()

	locations := []models.Location{}
	for rows.Next() {
		loc, err := scanLocation(rows)
		if err != nil {
			return nil, database.ClassifyRead(op, err)
		}
		locations = append(locations, loc)
	}
	return locations, database.ClassifyRead(op, rows.Err())
}

func (s *Store) GetLocation(ctx context.Context, id int) (*models.Location, error) {
	const op = "store.GetLocation"
	loc, err := scanLocation(s.db.QueryRowContext(ctx, `SELECT `+locationColumns+` FROM locations WHERE id = $1`, id))
	if err != nil {
		return nil, database.ClassifyRead(op, err)
	}
	return &loc, nil
}

// ValidateLocation checks the fields an admin supplies.
func ValidateLocation(loc models.Location) error {
	const op = "store.ValidateLocation"
	if strings.TrimSpace(loc.Name) == "" {
		return apperr.Validation(op, "name is required")
	}
	host, port, err := net.SplitHostPort(strings.TrimSpace(loc.Endpoint))
	if err != nil || host == "" || port == "" {
		return apperr.Validation(op, "endpoint must be host:port")
	}
	return nil
}

func (s *Store) CreateLocation(ctx context.Context, loc models.Location) (*models.Location, error) {
	const op = "store.CreateLocation"
	if err := ValidateLocation(loc); err != nil {
		return nil, err
	}
	created, err := scanLocation(s.db.QueryRowContext(ctx, `
		INSERT INTO locations (name, region, endpoint, status, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+locationColumns,
		strings.TrimSpace(loc.Name), strings.TrimSpace(loc.Region), strings.TrimSpace(loc.Endpoint),
		string(models.LocationUnknown), loc.IsActive))
	if err != nil {
		return nil, database.Classify(op, err)
	}
	return &created, nil
}

func (s *Store) UpdateLocation(ctx context.Context, loc models.Location) (*models.Location, error) {
	const op = "store.UpdateLocation"
	if err := ValidateLocation(loc); err != nil {
		return nil, err
	}
	updated, err := scanLocation(s.db.QueryRowContext(ctx, `
		UPDATE locations SET name = $1, region = $2, endpoint = $3, is_active = $4, updated_at = NOW()
		WHERE id = $5
		RETURNING `+locationColumns,
		strings.TrimSpace(loc.Name), strings.TrimSpace(loc.Region), strings.TrimSpace(loc.Endpoint),
		loc.IsActive, loc.ID))
	if err != nil {
		return nil, database.Classify(op, err)
	}
	return &updated, nil
}

func (s *Store) DeleteLocation(ctx context.Context, id int) error {
	const op = "store.DeleteLocation"
	result, err := s.db.ExecContext(ctx, `DELETE FROM locations WHERE id = $1`, id)
	if err != nil {
		return database.Classify(op, err)
	}
	return expectRow(op, result, "location not found")
}

// UpdateLocationProbe records the outcome of one latency probe.
func (s *Store) UpdateLocationProbe(ctx context.Context, id, latencyMs int, status models.LocationStatus, checkedAt time.Time) error {
	const op = "store.UpdateLocationProbe"
	result, err := s.db.ExecContext(ctx, `
		UPDATE locations SET latency_ms = $1, status = $2, last_checked = $3
		WHERE id = $4`, latencyMs, string(status), checkedAt, id)
	if err != nil {
		return database.Classify(op, err)
	}
	return expectRow(op, result, "location not found")
}

package resource

import (
	"context"
	"database/sql"

	"disaster-platform/internal/geo"
)

// PostgresRepo queries resources with PostGIS. ST_DWithin on geography
// measures geodesic distance, matching the haversine math used by the
// in-memory repository.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

func (r *PostgresRepo) Near(ctx context.Context, disasterID string, p geo.Point, radiusMeters float64) ([]Resource, error) {
	const q = `
SELECT id, disaster_id, name, type, lat, lon, created_at
FROM resources
WHERE disaster_id = $1
  AND ST_DWithin(
        ST_SetSRID(ST_MakePoint(lon, lat), 4326)::geography,
        ST_SetSRID(ST_MakePoint($3, $2), 4326)::geography,
        $4
      )
ORDER BY id
`
	rows, err := r.db.QueryContext(ctx, q, disasterID, p.Lat, p.Lon, radiusMeters)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Resource
	for rows.Next() {
		var res Resource
		if err := rows.Scan(&res.ID, &res.DisasterID, &res.Name, &res.Type, &res.Lat, &res.Lon, &res.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

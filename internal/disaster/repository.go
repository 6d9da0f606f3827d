package disaster

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"disaster-platform/pkg/utils"
)

// PostgresRepo persists disasters in a single table with the audit trail
// and tag set stored as jsonb. Dependent resources are removed by the
// resources table's ON DELETE CASCADE foreign key.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

func (r *PostgresRepo) Insert(ctx context.Context, d Disaster) error {
	tags, trail, err := marshalRecord(d)
	if err != nil {
		return err
	}
	const q = `
INSERT INTO disasters (id, title, location_name, description, tags, owner_id, created_at, audit_trail)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
`
	_, err = r.db.ExecContext(ctx, q,
		d.ID, d.Title, d.LocationName, d.Description, tags, d.OwnerID, d.CreatedAt, trail,
	)
	return err
}

func (r *PostgresRepo) Get(ctx context.Context, id string) (Disaster, error) {
	const q = `
SELECT id, title, location_name, description, tags, owner_id, created_at, audit_trail
FROM disasters
WHERE id = $1
`
	return scanDisaster(r.db.QueryRowContext(ctx, q, id))
}

func (r *PostgresRepo) List(ctx context.Context, tag string) ([]Disaster, error) {
	q := `
SELECT id, title, location_name, description, tags, owner_id, created_at, audit_trail
FROM disasters
ORDER BY created_at DESC
`
	args := []any{}
	if tag != "" {
		q = `
SELECT id, title, location_name, description, tags, owner_id, created_at, audit_trail
FROM disasters
WHERE tags @> jsonb_build_array($1::text)
ORDER BY created_at DESC
`
		args = append(args, tag)
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Disaster
	for rows.Next() {
		d, err := scanDisaster(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Mutate locks the record row, applies fn and writes the merged result.
// FOR UPDATE serializes concurrent mutations per id so each audit append
// lands even when field values are overwritten by a later writer.
func (r *PostgresRepo) Mutate(ctx context.Context, id string, fn func(*Disaster)) (Disaster, error) {
	var out Disaster
	err := utils.WithTx(ctx, r.db, func(ctx context.Context, tx *sql.Tx) error {
		const sel = `
SELECT id, title, location_name, description, tags, owner_id, created_at, audit_trail
FROM disasters
WHERE id = $1
FOR UPDATE
`
		d, err := scanDisaster(tx.QueryRowContext(ctx, sel, id))
		if err != nil {
			return err
		}

		fn(&d)

		tags, trail, err := marshalRecord(d)
		if err != nil {
			return err
		}
		const upd = `
UPDATE disasters
SET title = $2, location_name = $3, description = $4, tags = $5, audit_trail = $6
WHERE id = $1
`
		if _, err := tx.ExecContext(ctx, upd, d.ID, d.Title, d.LocationName, d.Description, tags, trail); err != nil {
			return err
		}
		out = d
		return nil
	})
	if err != nil {
		return Disaster{}, err
	}
	return out, nil
}

func (r *PostgresRepo) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM disasters WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDisaster(row rowScanner) (Disaster, error) {
	var d Disaster
	var tags, trail []byte
	err := row.Scan(&d.ID, &d.Title, &d.LocationName, &d.Description, &tags, &d.OwnerID, &d.CreatedAt, &trail)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Disaster{}, ErrNotFound
		}
		return Disaster{}, err
	}
	if err := json.Unmarshal(tags, &d.Tags); err != nil {
		return Disaster{}, fmt.Errorf("decode tags: %w", err)
	}
	if err := json.Unmarshal(trail, &d.AuditTrail); err != nil {
		return Disaster{}, fmt.Errorf("decode audit trail: %w", err)
	}
	return d, nil
}

func marshalRecord(d Disaster) (tags, trail []byte, err error) {
	if d.Tags == nil {
		d.Tags = []string{}
	}
	tags, err = json.Marshal(d.Tags)
	if err != nil {
		return nil, nil, fmt.Errorf("encode tags: %w", err)
	}
	trail, err = json.Marshal(d.AuditTrail)
	if err != nil {
		return nil, nil, fmt.Errorf("encode audit trail: %w", err)
	}
	return tags, trail, nil
}

package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/goap/internal/catalog"
)

// ErrCatalogNotFound is returned when a catalogue lookup yields no results.
var ErrCatalogNotFound = errors.New("catalog not found")

// CatalogRecord describes a stored catalogue revision.
type CatalogRecord struct {
	ID          string
	Description string
	Version     int
	Actions     int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ActionCost is the indexed cost row of one stored action.
type ActionCost struct {
	Position int
	Name     string
	Cost     int
	// ReversedCost is nil when the action has no reversed_cost override.
	ReversedCost *int
	Scripted     bool
}

// CatalogRepository persists catalogues as YAML documents with an action index.
type CatalogRepository struct {
	db *pgxpool.Pool
}

// NewCatalogRepository creates a CatalogRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewCatalogRepository(db *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// Save validates c and inserts it, or replaces the stored document and bumps
// its version. The action index is rewritten in the same transaction.
//
// Precondition: c must not be nil.
// Postcondition: Returns the stored record, or an error with nothing written.
func (r *CatalogRepository) Save(ctx context.Context, c *catalog.Catalog) (CatalogRecord, error) {
	if err := c.Validate(); err != nil {
		return CatalogRecord{}, fmt.Errorf("validating catalog: %w", err)
	}
	doc, err := catalog.Encode(c)
	if err != nil {
		return CatalogRecord{}, err
	}

	rec := CatalogRecord{ID: c.ID, Description: c.Description, Actions: len(c.Actions)}
	err = pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO catalogs (id, description, document)
			 VALUES ($1, $2, $3)
			 ON CONFLICT (id) DO UPDATE
			 SET description = EXCLUDED.description,
			     document    = EXCLUDED.document,
			     version     = catalogs.version + 1,
			     updated_at  = NOW()
			 RETURNING version, created_at, updated_at`,
			c.ID, c.Description, string(doc),
		).Scan(&rec.Version, &rec.CreatedAt, &rec.UpdatedAt)
		if err != nil {
			return fmt.Errorf("upserting catalog: %w", err)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM catalog_actions WHERE catalog_id = $1`, c.ID); err != nil {
			return fmt.Errorf("clearing action index: %w", err)
		}
		rows := make([][]any, 0, len(c.Actions))
		for i, a := range c.Actions {
			var reversed pgtype.Int4
			if a.ReversedCost != nil {
				reversed = pgtype.Int4{Int32: int32(*a.ReversedCost), Valid: true}
			}
			rows = append(rows, []any{c.ID, i, a.Name, a.Cost, reversed, a.HasHooks()})
		}
		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"catalog_actions"},
			[]string{"catalog_id", "position", "name", "cost", "reversed_cost", "scripted"},
			pgx.CopyFromRows(rows),
		)
		if err != nil {
			return fmt.Errorf("writing action index: %w", err)
		}
		return nil
	})
	if err != nil {
		return CatalogRecord{}, err
	}
	return rec, nil
}

// Load retrieves and decodes the catalogue with the given ID.
//
// Postcondition: Returns the Catalog or ErrCatalogNotFound.
func (r *CatalogRepository) Load(ctx context.Context, id string) (*catalog.Catalog, error) {
	var doc string
	err := r.db.QueryRow(ctx, `SELECT document FROM catalogs WHERE id = $1`, id).Scan(&doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCatalogNotFound
		}
		return nil, fmt.Errorf("querying catalog: %w", err)
	}
	c, err := catalog.Decode([]byte(doc))
	if err != nil {
		return nil, fmt.Errorf("decoding stored catalog %q: %w", id, err)
	}
	return c, nil
}

// LoadAll retrieves every stored catalogue ordered by ID.
func (r *CatalogRepository) LoadAll(ctx context.Context) ([]*catalog.Catalog, error) {
	rows, err := r.db.Query(ctx, `SELECT id, document FROM catalogs ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying catalogs: %w", err)
	}
	defer rows.Close()

	var out []*catalog.Catalog
	for rows.Next() {
		var id, doc string
		if err := rows.Scan(&id, &doc); err != nil {
			return nil, fmt.Errorf("scanning catalog: %w", err)
		}
		c, err := catalog.Decode([]byte(doc))
		if err != nil {
			return nil, fmt.Errorf("decoding stored catalog %q: %w", id, err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating catalogs: %w", err)
	}
	return out, nil
}

// List returns a record per stored catalogue ordered by ID.
func (r *CatalogRepository) List(ctx context.Context) ([]CatalogRecord, error) {
	rows, err := r.db.Query(ctx,
		`SELECT c.id, c.description, c.version, c.created_at, c.updated_at,
		        (SELECT COUNT(*) FROM catalog_actions a WHERE a.catalog_id = c.id)
		 FROM catalogs c
		 ORDER BY c.id`)
	if err != nil {
		return nil, fmt.Errorf("listing catalogs: %w", err)
	}
	defer rows.Close()

	var out []CatalogRecord
	for rows.Next() {
		var rec CatalogRecord
		if err := rows.Scan(&rec.ID, &rec.Description, &rec.Version, &rec.CreatedAt, &rec.UpdatedAt, &rec.Actions); err != nil {
			return nil, fmt.Errorf("scanning catalog record: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating catalog records: %w", err)
	}
	return out, nil
}

// ActionCosts returns the indexed actions of catalogue id in declaration order.
//
// Postcondition: Returns ErrCatalogNotFound if no catalogue has that ID.
func (r *CatalogRepository) ActionCosts(ctx context.Context, id string) ([]ActionCost, error) {
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM catalogs WHERE id = $1)`, id).Scan(&exists); err != nil {
		return nil, fmt.Errorf("checking catalog: %w", err)
	}
	if !exists {
		return nil, ErrCatalogNotFound
	}

	rows, err := r.db.Query(ctx,
		`SELECT position, name, cost, reversed_cost, scripted
		 FROM catalog_actions WHERE catalog_id = $1
		 ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("querying action index: %w", err)
	}
	defer rows.Close()

	var out []ActionCost
	for rows.Next() {
		var (
			ac       ActionCost
			reversed pgtype.Int4
		)
		if err := rows.Scan(&ac.Position, &ac.Name, &ac.Cost, &reversed, &ac.Scripted); err != nil {
			return nil, fmt.Errorf("scanning action: %w", err)
		}
		if reversed.Valid {
			v := int(reversed.Int32)
			ac.ReversedCost = &v
		}
		out = append(out, ac)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating actions: %w", err)
	}
	return out, nil
}

// Delete removes the catalogue and its action index.
//
// Postcondition: Returns ErrCatalogNotFound if nothing was deleted.
func (r *CatalogRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM catalogs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting catalog: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCatalogNotFound
	}
	return nil
}

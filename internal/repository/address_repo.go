package repository

import (
	"context"
	"time"

	"StorefrontAPI/internal/model"

	"github.com/jackc/pgx/v5"
)

// AddressRepository keeps at most one default address per overlapping type
// for each user. Every default-changing write runs in a transaction that
// first locks the owning user row, so concurrent writers for one user
// serialize instead of racing between the clear and the set.
type AddressRepository struct {
	DB DB
}

func NewAddressRepository(db DB) *AddressRepository {
	return &AddressRepository{DB: db}
}

const addressColumns = `id, user_id, type, is_default, full_name, line1, line2, city, state, postal_code, country, phone, created_at`

func scanAddress(row pgx.Row) (*model.Address, error) {
	var a model.Address
	if err := row.Scan(&a.ID, &a.UserID, &a.Type, &a.IsDefault, &a.FullName, &a.Line1, &a.Line2, &a.City, &a.State, &a.PostalCode, &a.Country, &a.Phone, &a.CreatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AddressRepository) List(ctx context.Context, userID int64) ([]model.Address, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+addressColumns+` FROM addresses WHERE user_id = $1 ORDER BY is_default DESC, created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Address{}
	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (r *AddressRepository) GetByID(ctx context.Context, id int64) (*model.Address, error) {
	a, err := scanAddress(r.DB.QueryRow(ctx, `SELECT `+addressColumns+` FROM addresses WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return a, nil
}

// GetDefault returns the default address serving lookups of addrType.
func (r *AddressRepository) GetDefault(ctx context.Context, userID int64, addrType string) (*model.Address, error) {
	query := `SELECT ` + addressColumns + ` FROM addresses
		WHERE user_id = $1 AND is_default AND type = ANY($2)
		ORDER BY created_at DESC LIMIT 1`
	a, err := scanAddress(r.DB.QueryRow(ctx, query, userID, model.OverlappingAddressTypes(addrType)))
	if err != nil {
		return nil, notFound(err)
	}
	return a, nil
}

func lockUser(ctx context.Context, tx pgx.Tx, userID int64) error {
	var id int64
	if err := tx.QueryRow(ctx, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&id); err != nil {
		return notFound(err)
	}
	return nil
}

// clearDefaults unsets the flag on the user's addresses overlapping addrType,
// except keepID.
func clearDefaults(ctx context.Context, tx pgx.Tx, userID int64, addrType string, keepID int64) error {
	_, err := tx.Exec(ctx, `
		UPDATE addresses SET is_default = FALSE
		WHERE user_id = $1 AND is_default AND type = ANY($2) AND id <> $3
	`, userID, model.OverlappingAddressTypes(addrType), keepID)
	return err
}

// Create inserts the address. The user's first address always becomes the
// default.
func (r *AddressRepository) Create(ctx context.Context, a *model.Address) (int64, error) {
	var id int64
	err := withTx(ctx, r.DB, func(tx pgx.Tx) error {
		if err := lockUser(ctx, tx, a.UserID); err != nil {
			return err
		}
		var count int
		if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM addresses WHERE user_id = $1`, a.UserID).Scan(&count); err != nil {
			return err
		}
		if count == 0 {
			a.IsDefault = true
		}
		if a.IsDefault {
			if err := clearDefaults(ctx, tx, a.UserID, a.Type, 0); err != nil {
				return err
			}
		}
		query := `
			INSERT INTO addresses (user_id, type, is_default, full_name, line1, line2, city, state, postal_code, country, phone, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			RETURNING id
		`
		return tx.QueryRow(ctx, query, a.UserID, a.Type, a.IsDefault, a.FullName, a.Line1, a.Line2, a.City, a.State, a.PostalCode, a.Country, a.Phone, time.Now()).Scan(&id)
	})
	return id, err
}

// Update rewrites the address fields. Setting IsDefault clears overlapping
// defaults first; unsetting it only clears this row.
func (r *AddressRepository) Update(ctx context.Context, a *model.Address) error {
	return withTx(ctx, r.DB, func(tx pgx.Tx) error {
		if err := lockUser(ctx, tx, a.UserID); err != nil {
			return err
		}
		if a.IsDefault {
			if err := clearDefaults(ctx, tx, a.UserID, a.Type, a.ID); err != nil {
				return err
			}
		}
		query := `
			UPDATE addresses
			SET type = $1, is_default = $2, full_name = $3, line1 = $4, line2 = $5, city = $6, state = $7,
			    postal_code = $8, country = $9, phone = $10
			WHERE id = $11 AND user_id = $12
		`
		tag, err := tx.Exec(ctx, query, a.Type, a.IsDefault, a.FullName, a.Line1, a.Line2, a.City, a.State, a.PostalCode, a.Country, a.Phone, a.ID, a.UserID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// SetDefault makes the address the default for its type.
func (r *AddressRepository) SetDefault(ctx context.Context, userID, addressID int64) error {
	return withTx(ctx, r.DB, func(tx pgx.Tx) error {
		if err := lockUser(ctx, tx, userID); err != nil {
			return err
		}
		var addrType string
		err := tx.QueryRow(ctx, `SELECT type FROM addresses WHERE id = $1 AND user_id = $2`, addressID, userID).Scan(&addrType)
		if err != nil {
			return notFound(err)
		}
		if err := clearDefaults(ctx, tx, userID, addrType, addressID); err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `UPDATE addresses SET is_default = TRUE WHERE id = $1`, addressID)
		return err
	})
}

// Delete removes the address. When it was a default, the most recently
// created remaining address that does not overlap another default is
// promoted.
func (r *AddressRepository) Delete(ctx context.Context, userID, addressID int64) error {
	return withTx(ctx, r.DB, func(tx pgx.Tx) error {
		if err := lockUser(ctx, tx, userID); err != nil {
			return err
		}
		var wasDefault bool
		err := tx.QueryRow(ctx, `DELETE FROM addresses WHERE id = $1 AND user_id = $2 RETURNING is_default`, addressID, userID).Scan(&wasDefault)
		if err != nil {
			return notFound(err)
		}
		if !wasDefault {
			return nil
		}
		_, err = tx.Exec(ctx, `
			UPDATE addresses SET is_default = TRUE
			WHERE id = (
				SELECT a.id FROM addresses a
				WHERE a.user_id = $1 AND NOT EXISTS (
					SELECT 1 FROM addresses d
					WHERE d.user_id = a.user_id AND d.is_default
					  AND (d.type = a.type OR d.type = 'BOTH' OR a.type = 'BOTH')
				)
				ORDER BY a.created_at DESC, a.id DESC
				LIMIT 1
			)
		`, userID)
		return err
	})
}

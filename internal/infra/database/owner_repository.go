package database

import (
	"context"
	"database/sql"
	"errors"

	"github.com/sorrisoclinic/dental-crm/internal/entity"
)

type OwnerRepository struct {
	DB *sql.DB
}

func NewOwnerRepository(db *sql.DB) *OwnerRepository {
	return &OwnerRepository{DB: db}
}

func (r *OwnerRepository) FindByID(ctx context.Context, id string) (*entity.Owner, error) {
	var (
		o     entity.Owner
		email sql.NullString
	)
	err := r.DB.QueryRowContext(ctx, `SELECT id, name, email FROM users WHERE id = $1`, id).
		Scan(&o.ID, &o.Name, &email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrOwnerNotFound
	}
	if err != nil {
		return nil, err
	}
	o.Email = email.String
	return &o, nil
}

func (r *OwnerRepository) List(ctx context.Context) ([]entity.Owner, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id, name, email FROM users ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	owners := []entity.Owner{}
	for rows.Next() {
		var (
			o     entity.Owner
			email sql.NullString
		)
		if err := rows.Scan(&o.ID, &o.Name, &email); err != nil {
			return nil, err
		}
		o.Email = email.String
		owners = append(owners, o)
	}
	return owners, rows.Err()
}

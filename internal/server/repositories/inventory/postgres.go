// Package inventory implements the vehicle catalog store on PostgreSQL.
package inventory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/csemotors/internal/common"
	"github.com/dmitrijs2005/csemotors/internal/dbx"
	"github.com/dmitrijs2005/csemotors/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func mapError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return common.ErrorNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: %s", common.ErrorAlreadyExists, pgErr.ConstraintName)
	}
	return fmt.Errorf("db error: %w", err)
}

func (r *PostgresRepository) Classifications(ctx context.Context) ([]models.Classification, error) {
	query :=
		`SELECT classification_id, classification_name FROM classification
		 ORDER BY classification_name
		 `

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var out []models.Classification
	for rows.Next() {
		var c models.Classification
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) ClassificationByID(ctx context.Context, id int64) (*models.Classification, error) {
	query :=
		`SELECT classification_id, classification_name FROM classification
		 WHERE classification_id = $1
		 `

	c := &models.Classification{}
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&c.ID, &c.Name); err != nil {
		return nil, mapError(err)
	}
	return c, nil
}

func (r *PostgresRepository) AddClassification(ctx context.Context, name string) (*models.Classification, error) {
	query :=
		`INSERT INTO classification (classification_name)
		 VALUES ($1)
		 RETURNING classification_id
		 `

	c := &models.Classification{Name: name}
	if err := r.db.QueryRowContext(ctx, query, name).Scan(&c.ID); err != nil {
		return nil, mapError(err)
	}
	return c, nil
}

const vehicleColumns = `i.inv_id, i.inv_make, i.inv_model, i.inv_year, i.inv_description, i.inv_image,
		 i.inv_thumbnail, i.inv_price, i.inv_miles, i.inv_color, i.classification_id, c.classification_name`

type scanner interface {
	Scan(dest ...any) error
}

func scanVehicle(s scanner) (models.Vehicle, error) {
	var v models.Vehicle
	err := s.Scan(&v.ID, &v.Make, &v.Model, &v.Year, &v.Description, &v.Image,
		&v.Thumbnail, &v.Price, &v.Miles, &v.Color, &v.ClassificationID, &v.ClassificationName)
	return v, err
}

func (r *PostgresRepository) VehiclesByClassification(ctx context.Context, classificationID int64) ([]models.Vehicle, error) {
	query :=
		`SELECT ` + vehicleColumns + `
		 FROM inventory AS i
		 JOIN classification AS c ON i.classification_id = c.classification_id
		 WHERE i.classification_id = $1
		 ORDER BY i.inv_make, i.inv_model
		 `

	rows, err := r.db.QueryContext(ctx, query, classificationID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var out []models.Vehicle
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) VehicleByID(ctx context.Context, id int64) (*models.Vehicle, error) {
	query :=
		`SELECT ` + vehicleColumns + `
		 FROM inventory AS i
		 JOIN classification AS c ON i.classification_id = c.classification_id
		 WHERE i.inv_id = $1
		 `

	v, err := scanVehicle(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapError(err)
	}
	return &v, nil
}

func (r *PostgresRepository) AddVehicle(ctx context.Context, v *models.Vehicle) (*models.Vehicle, error) {
	query :=
		`INSERT INTO inventory
		 (inv_make, inv_model, inv_description, inv_image, inv_thumbnail, inv_price, inv_year, inv_miles, inv_color, classification_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING inv_id
		 `

	err := r.db.QueryRowContext(ctx, query,
		v.Make, v.Model, v.Description, v.Image, v.Thumbnail, v.Price, v.Year, v.Miles, v.Color, v.ClassificationID).Scan(&v.ID)
	if err != nil {
		return nil, mapError(err)
	}
	return v, nil
}

// Package accounts implements the account credential store on PostgreSQL.
package accounts

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

const uniqueViolation = "23505"

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// mapError converts driver errors into the package's sentinel errors.
func mapError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return common.ErrorNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", common.ErrorAlreadyExists, pgErr.ConstraintName)
	}
	return fmt.Errorf("db error: %w", err)
}

func scanAccount(row *sql.Row) (*models.Account, error) {
	a := &models.Account{}
	var role string
	if err := row.Scan(&a.ID, &a.FirstName, &a.LastName, &a.Email, &a.PasswordHash, &role); err != nil {
		return nil, mapError(err)
	}
	r, err := models.ParseRole(role)
	if err != nil {
		return nil, fmt.Errorf("db error: account %d: %w", a.ID, err)
	}
	a.Role = r
	return a, nil
}

func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	query :=
		`SELECT account_id, account_firstname, account_lastname, account_email, account_password, account_type
		 FROM account
		 WHERE lower(account_email) = lower($1)
		 `

	return scanAccount(r.db.QueryRowContext(ctx, query, email))
}

func (r *PostgresRepository) FindByID(ctx context.Context, id int64) (*models.Account, error) {
	query :=
		`SELECT account_id, account_firstname, account_lastname, account_email, account_password, account_type
		 FROM account
		 WHERE account_id = $1
		 `

	return scanAccount(r.db.QueryRowContext(ctx, query, id))
}

// Create inserts a. An empty role defaults to Client.
func (r *PostgresRepository) Create(ctx context.Context, a *models.Account) (*models.Account, error) {
	if a.Role == "" {
		a.Role = models.RoleClient
	}

	query :=
		`INSERT INTO account (account_firstname, account_lastname, account_email, account_password, account_type)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING account_id
		 `

	err := r.db.QueryRowContext(ctx, query,
		a.FirstName, a.LastName, a.Email, a.PasswordHash, string(a.Role)).Scan(&a.ID)

	if err != nil {
		return nil, mapError(err)
	}

	return a, nil
}

func (r *PostgresRepository) UpdateProfile(ctx context.Context, id int64, firstName, lastName, email string) (*models.Account, error) {
	query :=
		`UPDATE account
		 SET account_firstname = $1, account_lastname = $2, account_email = $3
		 WHERE account_id = $4
		 RETURNING account_id, account_firstname, account_lastname, account_email, account_password, account_type
		 `

	return scanAccount(r.db.QueryRowContext(ctx, query, firstName, lastName, email, id))
}

// UpdatePassword returns the number of affected rows.
func (r *PostgresRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) (int64, error) {
	query :=
		`UPDATE account SET account_password = $1
		 WHERE account_id = $2
		 `

	return r.exec(ctx, query, passwordHash, id)
}

func (r *PostgresRepository) UpdateRole(ctx context.Context, id int64, role models.Role) (int64, error) {
	query :=
		`UPDATE account SET account_type = $1
		 WHERE account_id = $2
		 `

	return r.exec(ctx, query, string(role), id)
}

func (r *PostgresRepository) exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, mapError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

// Package services contains server-side business logic. AccountService
// covers registration, login, profile and password updates; every
// successful identity change yields a freshly issued session token.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/csemotors/internal/common"
	"github.com/dmitrijs2005/csemotors/internal/dbx"
	"github.com/dmitrijs2005/csemotors/internal/logging"
	"github.com/dmitrijs2005/csemotors/internal/server/auth"
	"github.com/dmitrijs2005/csemotors/internal/server/models"
	"github.com/dmitrijs2005/csemotors/internal/server/repositories/repomanager"
)

// ErrPasswordHashing marks a failure to hash a new password, as opposed to a
// failure to store the account.
var ErrPasswordHashing = errors.New("password hashing failed")

type AccountService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      *auth.Hasher
	codec       *auth.Codec
	logger      logging.Logger
}

func NewAccountService(db *sql.DB, m repomanager.RepositoryManager, hasher *auth.Hasher, codec *auth.Codec, logger logging.Logger) *AccountService {
	if logger == nil {
		logger = logging.Nop()
	}
	return &AccountService{
		db:          db,
		repomanager: m,
		hasher:      hasher,
		codec:       codec,
		logger:      logger.With("module", "account_service"),
	}
}

// Register creates a Client account. The caller has already checked that
// the email is free; a concurrent duplicate still surfaces as
// common.ErrorAlreadyExists.
func (s *AccountService) Register(ctx context.Context, firstName, lastName, email, password string) (*models.Account, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPasswordHashing, err)
	}

	a := &models.Account{FirstName: firstName, LastName: lastName, Email: email, PasswordHash: hash, Role: models.RoleClient}
	created, err := s.repomanager.Accounts(s.db).Create(ctx, a)
	if err != nil {
		return nil, fmt.Errorf("error creating account: %w", err)
	}
	return created, nil
}

// CreateAccount creates an account with an explicit role inside one
// transaction, failing with common.ErrorAlreadyExists when the email is
// taken.
func (s *AccountService) CreateAccount(ctx context.Context, firstName, lastName, email, password string, role models.Role) (*models.Account, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPasswordHashing, err)
	}

	var created *models.Account
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Accounts(tx)

		_, err := repo.FindByEmail(ctx, email)
		switch {
		case err == nil:
			return fmt.Errorf("%w: %s", common.ErrorAlreadyExists, email)
		case !errors.Is(err, common.ErrorNotFound):
			return err
		}

		created, err = repo.Create(ctx, &models.Account{
			FirstName: firstName, LastName: lastName, Email: email, PasswordHash: hash, Role: role,
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("error creating account: %w", err)
	}
	return created, nil
}

// Login verifies credentials and issues a session token. Unknown emails and
// wrong passwords both return common.ErrInvalidCredentials after the same
// amount of hashing work.
func (s *AccountService) Login(ctx context.Context, email, password string) (*models.Account, string, error) {
	a, err := s.repomanager.Accounts(s.db).FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.hasher.Equalize(password)
			return nil, "", common.ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("error finding account: %w", err)
	}

	if !s.hasher.Verify(password, a.PasswordHash) {
		return nil, "", common.ErrInvalidCredentials
	}

	token, err := s.codec.Issue(auth.ClaimsFromAccount(a))
	if err != nil {
		return nil, "", fmt.Errorf("%w: issue token: %v", common.ErrorInternal, err)
	}
	return a, token, nil
}

// EmailTaken reports whether email belongs to an account other than
// exceptID. Pass 0 to check against every account.
func (s *AccountService) EmailTaken(ctx context.Context, email string, exceptID int64) (bool, error) {
	a, err := s.repomanager.Accounts(s.db).FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("error finding account: %w", err)
	}
	return a.ID != exceptID, nil
}

func (s *AccountService) Account(ctx context.Context, id int64) (*models.Account, error) {
	a, err := s.repomanager.Accounts(s.db).FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error finding account: %w", err)
	}
	return a, nil
}

// UpdateProfile stores the new names and email and returns a token built
// from the stored row.
func (s *AccountService) UpdateProfile(ctx context.Context, id int64, firstName, lastName, email string) (*models.Account, string, error) {
	a, err := s.repomanager.Accounts(s.db).UpdateProfile(ctx, id, firstName, lastName, email)
	if err != nil {
		return nil, "", fmt.Errorf("error updating account: %w", err)
	}

	token, err := s.codec.Issue(auth.ClaimsFromAccount(a))
	if err != nil {
		return nil, "", fmt.Errorf("%w: issue token: %v", common.ErrorInternal, err)
	}
	return a, token, nil
}

// UpdatePassword replaces the stored hash. An unknown id yields
// common.ErrorNotFound.
func (s *AccountService) UpdatePassword(ctx context.Context, id int64, password string) error {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPasswordHashing, err)
	}

	n, err := s.repomanager.Accounts(s.db).UpdatePassword(ctx, id, hash)
	if err != nil {
		return fmt.Errorf("error updating password: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("error updating password: account %d: %w", id, common.ErrorNotFound)
	}
	return nil
}

// SetRole changes the account type. Existing tokens keep the old role until
// they expire.
func (s *AccountService) SetRole(ctx context.Context, id int64, role models.Role) error {
	n, err := s.repomanager.Accounts(s.db).UpdateRole(ctx, id, role)
	if err != nil {
		return fmt.Errorf("error updating role: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("error updating role: account %d: %w", id, common.ErrorNotFound)
	}
	s.logger.Info(ctx, "account role changed", "account_id", id, "role", role)
	return nil
}

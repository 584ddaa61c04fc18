package services

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/csemotors/internal/common"
	"github.com/dmitrijs2005/csemotors/internal/dbx"
	"github.com/dmitrijs2005/csemotors/internal/server/auth"
	"github.com/dmitrijs2005/csemotors/internal/server/models"
	"github.com/dmitrijs2005/csemotors/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/csemotors/internal/server/repositories/inventory"
	"github.com/stretchr/testify/require"
)

// fakeAccounts is an in-memory credential store.
type fakeAccounts struct {
	mu     sync.Mutex
	byID   map[int64]*models.Account
	nextID int64
	err    error
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{byID: map[int64]*models.Account{}, nextID: 1}
}

func (f *fakeAccounts) add(a models.Account) *models.Account {
	f.mu.Lock()
	defer f.mu.Unlock()
	a.ID = f.nextID
	f.nextID++
	f.byID[a.ID] = &a
	return &a
}

func (f *fakeAccounts) FindByEmail(_ context.Context, email string) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, a := range f.byID {
		if strings.EqualFold(a.Email, email) {
			cp := *a
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeAccounts) FindByID(_ context.Context, id int64) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	a, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAccounts) Create(ctx context.Context, a *models.Account) (*models.Account, error) {
	if f.err != nil {
		return nil, f.err
	}
	if _, err := f.FindByEmail(ctx, a.Email); err == nil {
		return nil, common.ErrorAlreadyExists
	}
	if a.Role == "" {
		a.Role = models.RoleClient
	}
	return f.add(*a), nil
}

func (f *fakeAccounts) UpdateProfile(_ context.Context, id int64, first, last, email string) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	a, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	for _, other := range f.byID {
		if other.ID != id && strings.EqualFold(other.Email, email) {
			return nil, common.ErrorAlreadyExists
		}
	}
	a.FirstName, a.LastName, a.Email = first, last, email
	cp := *a
	return &cp, nil
}

func (f *fakeAccounts) UpdatePassword(_ context.Context, id int64, hash string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	a, ok := f.byID[id]
	if !ok {
		return 0, nil
	}
	a.PasswordHash = hash
	return 1, nil
}

func (f *fakeAccounts) UpdateRole(_ context.Context, id int64, role models.Role) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	a, ok := f.byID[id]
	if !ok {
		return 0, nil
	}
	a.Role = role
	return 1, nil
}

// fakeInventory is an in-memory catalog.
type fakeInventory struct {
	classes  map[int64]models.Classification
	vehicles []models.Vehicle
	err      error
}

func (f *fakeInventory) Classifications(context.Context) ([]models.Classification, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []models.Classification
	for _, c := range f.classes {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeInventory) ClassificationByID(_ context.Context, id int64) (*models.Classification, error) {
	if f.err != nil {
		return nil, f.err
	}
	c, ok := f.classes[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &c, nil
}

func (f *fakeInventory) AddClassification(_ context.Context, name string) (*models.Classification, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, c := range f.classes {
		if c.Name == name {
			return nil, common.ErrorAlreadyExists
		}
	}
	c := models.Classification{ID: int64(len(f.classes) + 1), Name: name}
	f.classes[c.ID] = c
	return &c, nil
}

func (f *fakeInventory) VehiclesByClassification(_ context.Context, id int64) ([]models.Vehicle, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []models.Vehicle
	for _, v := range f.vehicles {
		if v.ClassificationID == id {
			out = append(out, v)
		}
	}
	return out, nil
}

func (f *fakeInventory) VehicleByID(_ context.Context, id int64) (*models.Vehicle, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, v := range f.vehicles {
		if v.ID == id {
			return &v, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeInventory) AddVehicle(_ context.Context, v *models.Vehicle) (*models.Vehicle, error) {
	if f.err != nil {
		return nil, f.err
	}
	v.ID = int64(len(f.vehicles) + 1)
	f.vehicles = append(f.vehicles, *v)
	return v, nil
}

type fakeRepoManager struct {
	accounts  *fakeAccounts
	inventory *fakeInventory
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Accounts(dbx.DBTX) accounts.Repository        { return m.accounts }
func (m *fakeRepoManager) Inventory(dbx.DBTX) inventory.Repository      { return m.inventory }

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func newTestCodec(t *testing.T) *auth.Codec {
	t.Helper()
	c, err := auth.NewCodec("service-test-secret", auth.TokenTTL)
	require.NoError(t, err)
	return c
}

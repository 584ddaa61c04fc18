package web

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/csemotors/internal/common"
	"github.com/dmitrijs2005/csemotors/internal/server/auth"
	"github.com/dmitrijs2005/csemotors/internal/server/config"
	"github.com/dmitrijs2005/csemotors/internal/server/models"
	"github.com/dmitrijs2005/csemotors/internal/server/storage"
	"github.com/stretchr/testify/require"
)

const testPassword = "I@mABas1cPassw0rd"

type fakeAccounts struct {
	mu        sync.Mutex
	codec     *auth.Codec
	byID      map[int64]*models.Account
	passwords map[int64]string
	nextID    int64

	registered  int
	updates     int
	pwUpdates   int
	loginCalls  int
	emailErr    error
	registerErr error
	updateErr   error
	pwErr       error
}

func newFakeAccounts(codec *auth.Codec) *fakeAccounts {
	return &fakeAccounts{codec: codec, byID: map[int64]*models.Account{}, passwords: map[int64]string{}}
}

func (f *fakeAccounts) add(first, email string, role models.Role) *models.Account {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	a := &models.Account{ID: f.nextID, FirstName: first, LastName: "Camper", Email: email, Role: role}
	f.byID[a.ID] = a
	f.passwords[a.ID] = testPassword
	return a
}

func (f *fakeAccounts) byEmail(email string) *models.Account {
	for _, a := range f.byID {
		if strings.EqualFold(a.Email, email) {
			return a
		}
	}
	return nil
}

func (f *fakeAccounts) Register(_ context.Context, first, last, email, password string) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.registerErr != nil {
		return nil, f.registerErr
	}
	if f.byEmail(email) != nil {
		return nil, fmt.Errorf("error creating account: %w", common.ErrorAlreadyExists)
	}
	f.registered++
	f.nextID++
	a := &models.Account{ID: f.nextID, FirstName: first, LastName: last, Email: email, Role: models.RoleClient}
	f.byID[a.ID] = a
	f.passwords[a.ID] = password
	return a, nil
}

func (f *fakeAccounts) Login(_ context.Context, email, password string) (*models.Account, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.loginCalls++
	a := f.byEmail(email)
	if a == nil || f.passwords[a.ID] != password {
		return nil, "", common.ErrInvalidCredentials
	}
	token, err := f.codec.Issue(auth.ClaimsFromAccount(a))
	return a, token, err
}

func (f *fakeAccounts) EmailTaken(_ context.Context, email string, exceptID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.emailErr != nil {
		return false, f.emailErr
	}
	a := f.byEmail(email)
	return a != nil && a.ID != exceptID, nil
}

func (f *fakeAccounts) Account(_ context.Context, id int64) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	a, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAccounts) UpdateProfile(_ context.Context, id int64, first, last, email string) (*models.Account, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.updateErr != nil {
		return nil, "", f.updateErr
	}
	a, ok := f.byID[id]
	if !ok {
		return nil, "", common.ErrorNotFound
	}
	f.updates++
	a.FirstName, a.LastName, a.Email = first, last, email
	token, err := f.codec.Issue(auth.ClaimsFromAccount(a))
	return a, token, err
}

func (f *fakeAccounts) UpdatePassword(_ context.Context, id int64, password string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.pwErr != nil {
		return f.pwErr
	}
	if _, ok := f.byID[id]; !ok {
		return common.ErrorNotFound
	}
	f.pwUpdates++
	f.passwords[id] = password
	return nil
}

type fakeInventory struct {
	mu        sync.Mutex
	classes   []models.Classification
	vehicles  map[int64]*models.Vehicle
	added     []models.Vehicle
	addedCls  []string
	classErr  error
	upload    *storage.ImageUpload
	uploadErr error
}

func newFakeInventory() *fakeInventory {
	return &fakeInventory{
		classes: []models.Classification{{ID: 1, Name: "Custom"}, {ID: 2, Name: "Sedan"}},
		vehicles: map[int64]*models.Vehicle{
			7: {ID: 7, Make: "DMC", Model: "Delorean", Year: 1981, Price: 25999.5, Miles: 12345,
				Color: "Silver", Description: "Time travel ready", ClassificationID: 1,
				Image: models.DefaultVehicleImage, Thumbnail: models.DefaultVehicleThumbnail},
		},
	}
}

func (f *fakeInventory) Classifications(context.Context) ([]models.Classification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Classification(nil), f.classes...), f.classErr
}

func (f *fakeInventory) class(id int64) (*models.Classification, bool) {
	for _, c := range f.classes {
		if c.ID == id {
			c := c
			return &c, true
		}
	}
	return nil, false
}

func (f *fakeInventory) VehiclesByClassification(_ context.Context, id int64) (*models.Classification, []models.Vehicle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	c, ok := f.class(id)
	if !ok {
		return nil, nil, common.ErrorNotFound
	}
	var out []models.Vehicle
	for _, v := range f.vehicles {
		if v.ClassificationID == id {
			out = append(out, *v)
		}
	}
	return c, out, nil
}

func (f *fakeInventory) Vehicle(_ context.Context, id int64) (*models.Vehicle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	v, ok := f.vehicles[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *v
	return &cp, nil
}

func (f *fakeInventory) AddClassification(_ context.Context, name string) (*models.Classification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, c := range f.classes {
		if c.Name == name {
			return nil, common.ErrorAlreadyExists
		}
	}
	f.addedCls = append(f.addedCls, name)
	c := models.Classification{ID: int64(len(f.classes) + 1), Name: name}
	f.classes = append(f.classes, c)
	return &c, nil
}

func (f *fakeInventory) AddVehicle(_ context.Context, v *models.Vehicle) (*models.Vehicle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.class(v.ClassificationID); !ok {
		return nil, fmt.Errorf("%w: unknown classification", common.ErrorValidation)
	}
	f.added = append(f.added, *v)
	return v, nil
}

func (f *fakeInventory) ImageUploadURL(_ context.Context, filename, contentType string) (*storage.ImageUpload, error) {
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	return f.upload, nil
}

// recordingRenderer keeps every rendered view instead of executing
// templates.
type recordingRenderer struct {
	mu       sync.Mutex
	views    []View
	statuses []int
}

func (rr *recordingRenderer) Render(w http.ResponseWriter, status int, v View) error {
	rr.mu.Lock()
	rr.views = append(rr.views, v)
	rr.statuses = append(rr.statuses, status)
	rr.mu.Unlock()

	w.WriteHeader(status)
	_, err := w.Write([]byte(v.Name))
	return err
}

func (rr *recordingRenderer) last(t *testing.T) View {
	t.Helper()
	rr.mu.Lock()
	defer rr.mu.Unlock()
	require.NotEmpty(t, rr.views, "nothing was rendered")
	return rr.views[len(rr.views)-1]
}

type testEnv struct {
	handler   *Handler
	router    http.Handler
	accounts  *fakeAccounts
	inventory *fakeInventory
	renderer  *recordingRenderer
	codec     *auth.Codec
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	codec, err := auth.NewCodec("test-secret", time.Hour)
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.LoadDefaults()

	env := &testEnv{
		accounts:  newFakeAccounts(codec),
		inventory: newFakeInventory(),
		renderer:  &recordingRenderer{},
		codec:     codec,
	}
	env.handler = NewHandler(cfg, Deps{
		Accounts:  env.accounts,
		Inventory: env.inventory,
		Codec:     codec,
		Renderer:  env.renderer,
	})
	env.router = env.handler.Router()
	return env
}

// sessionFor returns a valid jwt cookie for a.
func (e *testEnv) sessionFor(t *testing.T, a *models.Account) *http.Cookie {
	t.Helper()
	token, err := e.codec.Issue(auth.ClaimsFromAccount(a))
	require.NoError(t, err)
	return &http.Cookie{Name: common.AccessTokenCookieName, Value: token}
}

func (e *testEnv) get(path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	return e.do(req, cookies)
}

func (e *testEnv) post(path string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return e.do(req, cookies)
}

func (e *testEnv) do(req *http.Request, cookies []*http.Cookie) *httptest.ResponseRecorder {
	for _, c := range cookies {
		if c != nil {
			req.AddCookie(c)
		}
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func responseCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

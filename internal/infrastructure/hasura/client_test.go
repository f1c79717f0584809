package hasura

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/agromarket-api/internal/domain"
	"github.com/jhoicas/agromarket-api/internal/domain/entity"
	"github.com/jhoicas/agromarket-api/internal/domain/repository"
	"github.com/jhoicas/agromarket-api/internal/infrastructure/metrics"
)

// fakeHasura responde por operationName con cuerpos JSON fijos.
type fakeHasura struct {
	t         *testing.T
	mu        sync.Mutex
	responses map[string]string
	requests  []Request
	secrets   []string
}

func (f *fakeHasura) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req Request
	require.NoError(f.t, json.NewDecoder(r.Body).Decode(&req))
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.secrets = append(f.secrets, r.Header.Get("x-hasura-admin-secret"))
	body, ok := f.responses[req.OperationName]
	f.mu.Unlock()
	if !ok {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("operación inesperada " + req.OperationName))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(body))
}

func newTestClient(t *testing.T, responses map[string]string) (*Client, *fakeHasura) {
	t.Helper()
	fake := &fakeHasura{t: t, responses: responses}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	c := NewClient(Config{Endpoint: srv.URL, AdminSecret: "secreto"}, metrics.New(), zerolog.Nop())
	return c, fake
}

func TestClient_Execute_SendsAdminSecretAndOperationName(t *testing.T) {
	c, fake := newTestClient(t, map[string]string{
		"UserByPK": `{"data":{"users_by_pk":{"id":"7","phone":"13800000001","nickname":"a","created_at":"2024-01-01T00:00:00Z","updated_at":"2024-01-01T00:00:00Z"}}}`,
	})

	u, err := NewUserRepository(c).GetByID(context.Background(), 7)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, int64(7), u.ID)
	assert.Equal(t, "13800000001", u.Phone)

	require.Len(t, fake.requests, 1)
	assert.Equal(t, "UserByPK", fake.requests[0].OperationName)
	assert.Equal(t, "secreto", fake.secrets[0])
	assert.EqualValues(t, 7, fake.requests[0].Variables["id"])
}

func TestClient_Execute_UniqueViolationIsDuplicate(t *testing.T) {
	c, _ := newTestClient(t, map[string]string{
		"InsertUser": `{"errors":[{"message":"Uniqueness violation. duplicate key value violates unique constraint \"users_phone_key\"","extensions":{"code":"constraint-violation","path":"$.selectionSet.insert_users_one.args.object"}}]}`,
	})

	err := NewUserRepository(c).Create(context.Background(), &entity.User{Phone: "13800000001"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrDuplicate))
	assert.False(t, errors.Is(err, domain.ErrQuery))
}

func TestClient_Execute_OtherErrorsAreQueryErrors(t *testing.T) {
	c, _ := newTestClient(t, map[string]string{
		"RoleByPK": `{"errors":[{"message":"field not found","extensions":{"code":"validation-failed"}}]}`,
	})

	_, err := NewRoleRepository(c).GetByID(context.Background(), 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrQuery))
	var qe *domain.QueryError
	require.True(t, errors.As(err, &qe))
	assert.Equal(t, "RoleByPK", qe.Op)
}

func TestClient_Execute_HTTPStatusError(t *testing.T) {
	c, _ := newTestClient(t, map[string]string{})

	_, err := NewFarmerRepository(c).GetByID(context.Background(), 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrQuery))
}

func TestParseOperation(t *testing.T) {
	op, err := parseOperation(mInsertRole)
	require.NoError(t, err)
	assert.Equal(t, "InsertRole", op.name)
	assert.Equal(t, "mutation", op.kind)

	_, err = parseOperation(`{ users { id } }`)
	assert.Error(t, err, "operación sin nombre")

	_, err = parseOperation(`query A { users { id } } query B { users { id } }`)
	assert.Error(t, err)

	_, err = parseOperation(`query Roto(`)
	assert.Error(t, err)
}

func TestBigint_AcceptsStringAndNumber(t *testing.T) {
	var rows []roleRow
	require.NoError(t, json.Unmarshal([]byte(`[{"id":"12","user_users":3,"role_type":"farmer"}]`), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, &entity.Role{ID: 12, UserID: 3, RoleType: "farmer"}, rows[0].entity())
}

func TestRoleRepo_Create_ConflictReturnsDuplicate(t *testing.T) {
	c, _ := newTestClient(t, map[string]string{
		"InsertRole": `{"data":{"insert_user_roles_one":null}}`,
	})

	_, err := NewRoleRepository(c).Create(context.Background(), 1, entity.RoleFarmer)
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestFarmerRepo_UnbindUser_ReturnsAffectedRows(t *testing.T) {
	c, _ := newTestClient(t, map[string]string{
		"UnbindFarmers": `{"data":{"update_farmers":{"affected_rows":2}}}`,
	})

	n, err := NewFarmerRepository(c).UnbindUser(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestUserRepo_CreateAccount_NestedInsert(t *testing.T) {
	c, fake := newTestClient(t, map[string]string{
		"InsertUser": `{"data":{"insert_users_one":{"id":5,"phone":"13800000005","created_at":"2024-01-01T00:00:00Z","updated_at":"2024-01-01T00:00:00Z"}}}`,
		"Farmers":    `{"data":{"farmers":[{"id":9,"user_users":5,"name":"张三"}]}}`,
	})

	name := "张三"
	user := &entity.User{Phone: "13800000005"}
	farmer := &entity.Farmer{Name: &name}
	require.NoError(t, NewUserRepository(c).CreateAccount(context.Background(), user, entity.RoleFarmer, farmer))

	assert.Equal(t, int64(5), user.ID)
	assert.Equal(t, int64(9), farmer.ID)
	require.NotNil(t, farmer.UserID)
	assert.Equal(t, int64(5), *farmer.UserID)

	obj := fake.requests[0].Variables["object"].(map[string]interface{})
	roles := obj["user_roles"].(map[string]interface{})["data"].([]interface{})
	assert.Equal(t, "farmer", roles[0].(map[string]interface{})["role_type"])
	assert.Contains(t, obj, "farmers")
}

func TestCatalogRepo_CreateProducts_AssignsIDsInOrder(t *testing.T) {
	c, fake := newTestClient(t, map[string]string{
		"InsertProducts": `{"data":{"insert_products":{"affected_rows":2,"returning":[{"id":"21"},{"id":"22"}]}}}`,
	})

	products := []*entity.Product{
		{BatchID: 1, Name: "苹果", UnitPrice: decimal.RequireFromString("12.50")},
		{BatchID: 2, Name: "香蕉", UnitPrice: decimal.RequireFromString("8")},
	}
	require.NoError(t, NewCatalogRepository(c).CreateProducts(context.Background(), products))
	assert.Equal(t, int64(21), products[0].ID)
	assert.Equal(t, int64(22), products[1].ID)

	objects := fake.requests[0].Variables["objects"].([]interface{})
	assert.Equal(t, "12.5", objects[0].(map[string]interface{})["unit_price"])
}

func TestCatalogRepo_CreateEmptyIsNoop(t *testing.T) {
	c, fake := newTestClient(t, map[string]string{})

	require.NoError(t, NewCatalogRepository(c).CreateCarts(context.Background(), nil))
	assert.Empty(t, fake.requests)
}

func TestTxRunner_PassesRepos(t *testing.T) {
	c, _ := newTestClient(t, map[string]string{})
	tx := NewTxRunner(NewRepos(c))

	called := false
	err := tx.Run(context.Background(), func(r repository.Repos) error {
		called = true
		assert.NotNil(t, r.Users)
		assert.NotNil(t, r.Catalog)
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)
}

func TestClient_Ping(t *testing.T) {
	c, _ := newTestClient(t, map[string]string{"Ping": `{"data":{"__typename":"query_root"}}`})
	require.NoError(t, c.Ping(context.Background()))

	down, _ := newTestClient(t, map[string]string{})
	err := down.Ping(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrQuery)
}

package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"library-backend/internal/domains/user"
	"library-backend/internal/shared/auth"
	"library-backend/internal/shared/pagination"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockService struct {
	mock.Mock
	user.Service
}

func (m *mockService) Register(ctx context.Context, req user.RegisterRequest) (*user.UserDTO, error) {
	args := m.Called(ctx, req)
	d, _ := args.Get(0).(*user.UserDTO)
	return d, args.Error(1)
}

func (m *mockService) Login(ctx context.Context, req user.LoginRequest) (*user.LoginResponse, error) {
	args := m.Called(ctx, req)
	r, _ := args.Get(0).(*user.LoginResponse)
	return r, args.Error(1)
}

func (m *mockService) RefreshToken(ctx context.Context, token string) (*user.LoginResponse, error) {
	args := m.Called(ctx, token)
	r, _ := args.Get(0).(*user.LoginResponse)
	return r, args.Error(1)
}

func (m *mockService) ListUsers(ctx context.Context, q user.ListUsersQuery) (pagination.Result[user.UserDTO], error) {
	args := m.Called(ctx, q)
	res, _ := args.Get(0).(pagination.Result[user.UserDTO])
	return res, args.Error(1)
}

func (m *mockService) GetUser(ctx context.Context, caller *auth.Identity, id uuid.UUID) (*user.UserDTO, error) {
	args := m.Called(ctx, caller, id)
	d, _ := args.Get(0).(*user.UserDTO)
	return d, args.Error(1)
}

func newRouter(svc user.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewUserHandler(svc, false)
	r := gin.New()
	r.POST("/auth/register", h.Register)
	r.POST("/auth/login", h.Login)
	r.POST("/auth/refresh", h.RefreshToken)
	r.GET("/users", h.ListUsers)
	r.GET("/users/:id", h.GetUser)
	return r
}

func get(r http.Handler, path string, caller *auth.Identity) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if caller != nil {
		req = req.WithContext(auth.WithIdentity(req.Context(), caller))
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func post(r http.Handler, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRegister(t *testing.T) {
	svc := new(mockService)
	id := uuid.New()
	req := user.RegisterRequest{Email: "a@lib.io", Password: "secret123", Name: "Ann"}
	svc.On("Register", mock.Anything, req).Return(&user.UserDTO{ID: id, Role: auth.RoleMember}, nil).Once()
	svc.On("Register", mock.Anything, req).Return(nil, user.ErrEmailAlreadyExists).Once()

	body := `{"email":"a@lib.io","password":"secret123","name":"Ann"}`
	w := post(newRouter(svc), "/auth/register", body)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "/api/v1/users/"+id.String(), w.Header().Get("Location"))

	w = post(newRouter(svc), "/auth/register", body)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestLogin_SetsRefreshCookie(t *testing.T) {
	svc := new(mockService)
	svc.On("Login", mock.Anything, user.LoginRequest{Email: "a@lib.io", Password: "pw"}).
		Return(&user.LoginResponse{AccessToken: "acc", RefreshToken: "ref"}, nil)

	w := post(newRouter(svc), "/auth/login", `{"email":"a@lib.io","password":"pw"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Set-Cookie"), "refresh_token=ref")
	assert.Contains(t, w.Header().Get("Set-Cookie"), "HttpOnly")
}

func TestRefresh(t *testing.T) {
	svc := new(mockService)
	svc.On("RefreshToken", mock.Anything, "from-cookie").Return(&user.LoginResponse{AccessToken: "a2", RefreshToken: "r2"}, nil)
	svc.On("RefreshToken", mock.Anything, "stale").Return(nil, user.ErrInvalidToken)
	r := newRouter(svc)

	w := post(r, "/auth/refresh", "", &http.Cookie{Name: "refresh_token", Value: "from-cookie"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = post(r, "/auth/refresh", `{"refreshToken":"stale"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = post(r, "/auth/refresh", `{}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestListUsers(t *testing.T) {
	svc := new(mockService)
	q := user.ListUsersQuery{Role: "MEMBER", Page: 2, Limit: 1}
	dtos := []user.UserDTO{{ID: uuid.New(), Email: "m@lib.io", Role: auth.RoleMember}}
	svc.On("ListUsers", mock.Anything, q).
		Return(pagination.NewResult(dtos, 3, pagination.Normalize(2, 1)), nil)

	w := get(newRouter(svc), "/users?role=MEMBER&page=2&limit=1", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data []user.UserDTO `json:"data"`
		Meta struct {
			Total      int `json:"total"`
			TotalPages int `json:"totalPages"`
		} `json:"meta"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.Data, 1)
	assert.Equal(t, 3, body.Meta.Total)
	assert.Equal(t, 3, body.Meta.TotalPages)

	w = get(newRouter(svc), "/users?page=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetUser(t *testing.T) {
	svc := new(mockService)
	caller := &auth.Identity{ID: uuid.New(), Role: auth.RoleMember}
	other, gone := uuid.New(), uuid.New()
	svc.On("GetUser", mock.Anything, caller, caller.ID).Return(&user.UserDTO{ID: caller.ID}, nil)
	svc.On("GetUser", mock.Anything, caller, other).Return(nil, user.ErrForbidden)
	svc.On("GetUser", mock.Anything, caller, gone).Return(nil, user.ErrUserNotFound)
	r := newRouter(svc)

	assert.Equal(t, http.StatusOK, get(r, "/users/"+caller.ID.String(), caller).Code)
	assert.Equal(t, http.StatusForbidden, get(r, "/users/"+other.String(), caller).Code)
	assert.Equal(t, http.StatusNotFound, get(r, "/users/"+gone.String(), caller).Code)
	assert.Equal(t, http.StatusBadRequest, get(r, "/users/not-a-uuid", caller).Code)
}

package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"library-backend/internal/domains/inventory/model"
	"library-backend/internal/domains/inventory/repository"
	"library-backend/internal/domains/inventory/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubLedger chỉ phục vụ read side
type stubLedger struct {
	repository.LedgerInterface
	books     map[uuid.UUID]*model.Availability
	movements []model.Movement
	gotLimit  int
	gotOffset int
}

func (s *stubLedger) Snapshot(_ context.Context, id uuid.UUID) (*model.Availability, error) {
	a, ok := s.books[id]
	if !ok {
		return nil, model.ErrBookNotFound
	}
	return a, nil
}

func (s *stubLedger) ListMovements(_ context.Context, _ uuid.UUID, limit, offset int) ([]model.Movement, int, error) {
	s.gotLimit, s.gotOffset = limit, offset
	return s.movements, len(s.movements), nil
}

func newRouter(ledger *stubLedger) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(service.NewService(ledger))
	r := gin.New()
	r.GET("/books/:id/availability", h.GetAvailability)
	r.GET("/books/:id/stock-movements", h.ListMovements)
	return r
}

func get(r http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestGetAvailability(t *testing.T) {
	open, deleted := uuid.New(), uuid.New()
	ledger := &stubLedger{books: map[uuid.UUID]*model.Availability{
		open:    {BookID: open, Stock: 3, AvailableStock: 1, OnLoan: 2},
		deleted: {BookID: deleted, Stock: 3, AvailableStock: 3, IsDeleted: true},
	}}
	r := newRouter(ledger)

	var body struct {
		Data struct {
			AvailableStock int  `json:"availableStock"`
			OnLoan         int  `json:"onLoan"`
			CanBorrow      bool `json:"canBorrow"`
		} `json:"data"`
	}

	w := get(r, "/books/"+open.String()+"/availability")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Data.AvailableStock)
	assert.Equal(t, 2, body.Data.OnLoan)
	assert.True(t, body.Data.CanBorrow)

	w = get(r, "/books/"+deleted.String()+"/availability")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Data.CanBorrow)

	assert.Equal(t, http.StatusNotFound, get(r, "/books/"+uuid.NewString()+"/availability").Code)
	assert.Equal(t, http.StatusBadRequest, get(r, "/books/nope/availability").Code)
}

func TestListMovements_Paginates(t *testing.T) {
	id := uuid.New()
	ledger := &stubLedger{
		books: map[uuid.UUID]*model.Availability{id: {BookID: id, Stock: 2, AvailableStock: 1}},
		movements: []model.Movement{
			{ID: 2, BookID: id, MovementType: model.MovementReserve, Delta: -1, AvailableAfter: 1},
		},
	}
	r := newRouter(ledger)

	w := get(r, "/books/"+id.String()+"/stock-movements?page=3&limit=500")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 100, ledger.gotLimit)
	assert.Equal(t, 200, ledger.gotOffset)

	assert.Equal(t, http.StatusNotFound, get(r, "/books/"+uuid.NewString()+"/stock-movements").Code)
}

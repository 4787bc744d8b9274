package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/propstack/buyerbase/pkg/buyers"
	"github.com/propstack/buyerbase/pkg/database"
	"github.com/propstack/buyerbase/pkg/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func newBuyerHandler(t *testing.T) (*BuyerHandler, *buyers.Service) {
	svc := buyers.NewService(setupTestDB(t), nil, "admin@example.com", 5*time.Minute)
	return NewBuyerHandler(svc, nil), svc
}

// request builds an authenticated echo context for userID 1.
func request(e *echo.Echo, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", 1)
	c.Set("user_email", "agent@example.com")
	return c, rec
}

const createBody = `{
	"fullName": "Ravi Sharma",
	"phone": "9876543210",
	"city": "Chandigarh",
	"propertyType": "Apartment",
	"bhk": "2",
	"purpose": "Buy",
	"timeline": "0-3m",
	"source": "Website",
	"tags": ["hot"]
}`

func TestBuyerHandler_Create(t *testing.T) {
	e := echo.New()
	h, _ := newBuyerHandler(t)

	c, rec := request(e, http.MethodPost, "/api/v1/buyers", createBody)
	require.NoError(t, h.Create(c))

	assert.Equal(t, http.StatusCreated, rec.Code)

	var buyer models.Buyer
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &buyer))
	assert.NotZero(t, buyer.ID)
	assert.Equal(t, "New", buyer.Status)
	assert.Equal(t, 1, buyer.OwnerID)
	assert.Equal(t, 1, buyer.Version)
}

func TestBuyerHandler_Create_ValidationError(t *testing.T) {
	e := echo.New()
	h, _ := newBuyerHandler(t)

	body := `{"fullName": "R", "phone": "12"}`
	c, rec := request(e, http.MethodPost, "/api/v1/buyers", body)
	require.NoError(t, h.Create(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "validation_error", resp.Error)
	assert.NotEmpty(t, resp.Issues)
}

func TestBuyerHandler_Create_RequiresIdentity(t *testing.T) {
	e := echo.New()
	h, _ := newBuyerHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/buyers", strings.NewReader(createBody))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	require.NoError(t, h.Create(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func seedBuyer(t *testing.T, e *echo.Echo, h *BuyerHandler) models.Buyer {
	c, rec := request(e, http.MethodPost, "/api/v1/buyers", createBody)
	require.NoError(t, h.Create(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var buyer models.Buyer
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &buyer))
	return buyer
}

func TestBuyerHandler_Update_Conflict(t *testing.T) {
	e := echo.New()
	h, _ := newBuyerHandler(t)
	buyer := seedBuyer(t, e, h)

	// First update advances the version.
	body := fmt.Sprintf(`{"status": "Qualified", "version": %d}`, buyer.Version)
	c, rec := request(e, http.MethodPut, "/api/v1/buyers/1", body)
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(buyer.ID))
	require.NoError(t, h.Update(c))
	require.Equal(t, http.StatusOK, rec.Code)

	// Replaying the same stale token is rejected.
	c, rec = request(e, http.MethodPut, "/api/v1/buyers/1", body)
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(buyer.ID))
	require.NoError(t, h.Update(c))

	assert.Equal(t, http.StatusConflict, rec.Code)

	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "conflict", resp.Error)
}

func TestBuyerHandler_Update_Forbidden(t *testing.T) {
	e := echo.New()
	h, _ := newBuyerHandler(t)
	buyer := seedBuyer(t, e, h)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/buyers/1", strings.NewReader(`{"status": "Qualified"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", 99)
	c.Set("user_email", "intruder@example.com")
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(buyer.ID))

	require.NoError(t, h.Update(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestBuyerHandler_UpdateStatus(t *testing.T) {
	e := echo.New()
	h, _ := newBuyerHandler(t)
	buyer := seedBuyer(t, e, h)

	c, rec := request(e, http.MethodPatch, "/api/v1/buyers/1/status", `{"status": "Contacted"}`)
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(buyer.ID))
	require.NoError(t, h.UpdateStatus(c))

	assert.Equal(t, http.StatusOK, rec.Code)

	var updated models.Buyer
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, "Contacted", updated.Status)
	assert.Equal(t, 2, updated.Version)
}

func TestBuyerHandler_Get_NotFound(t *testing.T) {
	e := echo.New()
	h, _ := newBuyerHandler(t)

	c, rec := request(e, http.MethodGet, "/api/v1/buyers/424242", "")
	c.SetParamNames("id")
	c.SetParamValues("424242")
	require.NoError(t, h.Get(c))

	assert.Equal(t, http.StatusNotFound, rec.Code)

	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "not_found", resp.Error)
}

func TestBuyerHandler_List(t *testing.T) {
	e := echo.New()
	h, _ := newBuyerHandler(t)
	seedBuyer(t, e, h)

	c, rec := request(e, http.MethodGet, "/api/v1/buyers?city=Chandigarh", "")
	require.NoError(t, h.List(c))

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp models.BuyerListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Pagination.Total)
	assert.Len(t, resp.Buyers, 1)
}

func TestBuyerHandler_List_BadSort(t *testing.T) {
	e := echo.New()
	h, _ := newBuyerHandler(t)

	c, rec := request(e, http.MethodGet, "/api/v1/buyers?sort=phone", "")
	require.NoError(t, h.List(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBuyerHandler_History(t *testing.T) {
	e := echo.New()
	h, _ := newBuyerHandler(t)
	buyer := seedBuyer(t, e, h)

	c, rec := request(e, http.MethodPatch, "/api/v1/buyers/1/status", `{"status": "Qualified"}`)
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(buyer.ID))
	require.NoError(t, h.UpdateStatus(c))
	require.Equal(t, http.StatusOK, rec.Code)

	c, rec = request(e, http.MethodGet, "/api/v1/buyers/1/history", "")
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(buyer.ID))
	require.NoError(t, h.History(c))

	assert.Equal(t, http.StatusOK, rec.Code)

	var entries []models.BuyerHistory
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "Qualified", entries[0].Diff.Fields["status"].New)
	assert.Equal(t, models.ActionCreated, entries[1].Diff.Action)
}

func TestBuyerHandler_Delete(t *testing.T) {
	e := echo.New()
	h, _ := newBuyerHandler(t)
	buyer := seedBuyer(t, e, h)

	c, rec := request(e, http.MethodDelete, "/api/v1/buyers/1", "")
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(buyer.ID))
	require.NoError(t, h.Delete(c))

	assert.Equal(t, http.StatusNoContent, rec.Code)

	c, rec = request(e, http.MethodGet, "/api/v1/buyers/1", "")
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(buyer.ID))
	require.NoError(t, h.Get(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

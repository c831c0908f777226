// internal/tests/api_test.go
package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/javajoker/querylab/internal/cache"
	"github.com/javajoker/querylab/internal/config"
	"github.com/javajoker/querylab/internal/database/dbtest"
	"github.com/javajoker/querylab/internal/i18n"
	"github.com/javajoker/querylab/internal/middleware"
	"github.com/javajoker/querylab/internal/models"
	"github.com/javajoker/querylab/internal/router"
	"github.com/javajoker/querylab/internal/seeder"
	"github.com/javajoker/querylab/internal/services"
)

type envelope struct {
	Data       json.RawMessage `json:"data"`
	Total      int64           `json:"total"`
	Warning    string          `json:"warning"`
	Page       int             `json:"page"`
	PageSize   int             `json:"pageSize"`
	TotalPages int             `json:"totalPages"`
}

type apiError struct {
	Error   string          `json:"error"`
	Message string          `json:"message"`
	Details json.RawMessage `json:"details"`
}

type APITestSuite struct {
	suite.Suite
	db     *gorm.DB
	redis  *miniredis.Miniredis
	router *gin.Engine
}

func (suite *APITestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	require.NoError(suite.T(), i18n.Initialize())
}

func (suite *APITestSuite) SetupTest() {
	suite.db = dbtest.Open(suite.T())
	counts := seeder.Counts{Categories: 3, Products: 12, Users: 8, Orders: 30, MinItems: 1, MaxItems: 3}
	_, err := seeder.NewGenerator(suite.db, nil).Run(context.Background(), seeder.Options{
		RunID:     "api",
		BatchSize: 10,
		Seed:      7,
		Counts:    &counts,
	})
	require.NoError(suite.T(), err)

	suite.redis = miniredis.RunT(suite.T())
	client := redis.NewClient(&redis.Options{Addr: suite.redis.Addr()})
	suite.T().Cleanup(func() { client.Close() })

	suite.router = suite.newRouter(nil, cache.NewRedisReportCache(client, time.Minute))
}

func (suite *APITestSuite) newRouter(limiters *middleware.Limiters, reportCache services.ReportCache) *gin.Engine {
	logger, _ := test.NewNullLogger()
	cfg := &config.Config{Frontend: config.FrontendConfig{BaseURL: "http://localhost:3000"}}
	return router.Initialize(suite.db, cfg, router.Options{
		Logger:      logger,
		ReportCache: reportCache,
		Limiters:    limiters,
	})
}

func (suite *APITestSuite) do(method, path string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		jsonData, err := json.Marshal(b)
		require.NoError(suite.T(), err)
		reader = bytes.NewReader(jsonData)
	}

	req, _ := http.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *APITestSuite) get(path string, headers ...string) *httptest.ResponseRecorder {
	return suite.do(http.MethodGet, path, nil, headers...)
}

func (suite *APITestSuite) decode(w *httptest.ResponseRecorder, v interface{}) {
	require.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func (suite *APITestSuite) envelope(w *httptest.ResponseRecorder) envelope {
	require.Equal(suite.T(), http.StatusOK, w.Code, w.Body.String())
	var env envelope
	suite.decode(w, &env)
	return env
}

func (suite *APITestSuite) apiError(w *httptest.ResponseRecorder, status int) apiError {
	require.Equal(suite.T(), status, w.Code, w.Body.String())
	var e apiError
	suite.decode(w, &e)
	return e
}

func (suite *APITestSuite) firstUserWithOrders() models.User {
	var order models.Order
	require.NoError(suite.T(), suite.db.Order("id ASC").First(&order).Error)
	var user models.User
	require.NoError(suite.T(), suite.db.First(&user, order.UserID).Error)
	return user
}

func (suite *APITestSuite) TestHealthAndStats() {
	w := suite.get("/health")
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.NotEmpty(suite.T(), w.Header().Get(middleware.HeaderRequestID))

	w = suite.get("/v1/stats")
	require.Equal(suite.T(), http.StatusOK, w.Code)
	var stats services.DatasetStats
	suite.decode(w, &stats)
	assert.Equal(suite.T(), int64(3), stats.Categories)
	assert.Equal(suite.T(), int64(12), stats.Products)
	assert.Equal(suite.T(), int64(8), stats.Users)
	assert.Equal(suite.T(), int64(30), stats.Orders)
}

func (suite *APITestSuite) TestUserListingVariants() {
	w := suite.get("/v1/slow/users")
	slow := suite.envelope(w)
	assert.Equal(suite.T(), "inefficient", w.Header().Get(middleware.HeaderQueryStrategy))
	assert.Equal(suite.T(), "8", w.Header().Get("X-Total-Count"))
	assert.Equal(suite.T(), services.WarningUnboundedList, slow.Warning)

	var all []models.User
	require.NoError(suite.T(), json.Unmarshal(slow.Data, &all))

	var paged []models.User
	for page := 1; page <= 3; page++ {
		w = suite.get("/v1/fast/users?pageSize=3&page=" + strconv.Itoa(page))
		fast := suite.envelope(w)
		assert.Equal(suite.T(), "optimized", w.Header().Get(middleware.HeaderQueryStrategy))
		assert.Equal(suite.T(), "3", w.Header().Get("X-Total-Pages"))
		assert.Empty(suite.T(), fast.Warning)
		assert.Equal(suite.T(), int64(8), fast.Total)

		var users []models.User
		require.NoError(suite.T(), json.Unmarshal(fast.Data, &users))
		paged = append(paged, users...)
	}

	require.Len(suite.T(), paged, len(all))
	for i := range all {
		assert.Equal(suite.T(), all[i].ID, paged[i].ID)
	}
}

func (suite *APITestSuite) TestPageBeyondEnd() {
	env := suite.envelope(suite.get("/v1/fast/users?page=50&pageSize=5"))
	assert.JSONEq(suite.T(), `[]`, string(env.Data))
	assert.Equal(suite.T(), int64(8), env.Total)
	assert.Equal(suite.T(), 2, env.TotalPages)
	assert.Equal(suite.T(), 50, env.Page)

	env = suite.envelope(suite.get("/v1/fast/users?page=0&pageSize=500"))
	assert.Equal(suite.T(), 1, env.Page)
	assert.Equal(suite.T(), 100, env.PageSize)
}

func (suite *APITestSuite) TestUserOrdersVariantsReturnIdenticalData() {
	user := suite.firstUserWithOrders()

	slow := suite.envelope(suite.get("/v1/slow/users/" + itoa(user.ID) + "/orders"))
	fast := suite.envelope(suite.get("/v1/fast/users/" + itoa(user.ID) + "/orders"))

	assert.Equal(suite.T(), services.WarningNPlusOne, slow.Warning)
	assert.Empty(suite.T(), fast.Warning)
	assert.Equal(suite.T(), slow.Total, fast.Total)
	assert.Positive(suite.T(), fast.Total)
	assert.JSONEq(suite.T(), string(slow.Data), string(fast.Data))
}

func (suite *APITestSuite) TestUserOrdersErrors() {
	e := suite.apiError(suite.get("/v1/fast/users/999999/orders"), http.StatusNotFound)
	assert.Equal(suite.T(), "NOT_FOUND", e.Error)
	assert.Equal(suite.T(), "User not found", e.Message)

	e = suite.apiError(suite.get("/v1/slow/users/999999/orders", "Accept-Language", "zh-TW"), http.StatusNotFound)
	assert.Equal(suite.T(), "找不到使用者", e.Message)

	e = suite.apiError(suite.get("/v1/slow/users/abc/orders"), http.StatusBadRequest)
	assert.Equal(suite.T(), "BAD_REQUEST", e.Error)
}

func (suite *APITestSuite) TestUserDateSearch() {
	env := suite.envelope(suite.get("/v1/slow/users/search"))
	assert.Equal(suite.T(), services.WarningUnindexedRange, env.Warning)

	env = suite.envelope(suite.get("/v1/slow/users/search?startDate=2999-01-01T00:00:00Z&endDate=2999-12-31"))
	assert.Zero(suite.T(), env.Total)

	e := suite.apiError(suite.get("/v1/slow/users/search?startDate=yesterday"), http.StatusBadRequest)
	assert.Equal(suite.T(), "BAD_REQUEST", e.Error)

	e = suite.apiError(suite.get("/v1/slow/users/search?startDate=2024-06-01&endDate=2024-01-01"), http.StatusBadRequest)
	assert.Equal(suite.T(), "BAD_REQUEST", e.Error)
}

func (suite *APITestSuite) TestOrderSearch() {
	env := suite.envelope(suite.get("/v1/slow/orders/search"))
	assert.Equal(suite.T(), int64(30), env.Total)
	assert.Equal(suite.T(), services.WarningOrderSearch, env.Warning)

	env = suite.envelope(suite.get("/v1/slow/orders/search?status=pending&minAmount=0.01"))
	var orders []models.Order
	require.NoError(suite.T(), json.Unmarshal(env.Data, &orders))
	for _, o := range orders {
		assert.Equal(suite.T(), models.OrderStatusPending, o.Status)
		require.NotNil(suite.T(), o.User)
	}

	e := suite.apiError(suite.get("/v1/slow/orders/search?status=lost"), http.StatusBadRequest)
	assert.Equal(suite.T(), "VALIDATION_ERROR", e.Error)

	e = suite.apiError(suite.get("/v1/slow/orders/search?minAmount=lots"), http.StatusBadRequest)
	assert.Equal(suite.T(), "BAD_REQUEST", e.Error)
}

func (suite *APITestSuite) TestOrderDetailVariants() {
	var first models.Order
	require.NoError(suite.T(), suite.db.Order("id ASC").First(&first).Error)

	w := suite.get("/v1/slow/orders/" + itoa(first.ID))
	require.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Equal(suite.T(), services.WarningDeepEagerLoad, w.Header().Get("X-Query-Warning"))
	var deep models.Order
	suite.decode(w, &deep)

	w = suite.get("/v1/fast/orders/" + itoa(first.ID))
	require.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Empty(suite.T(), w.Header().Get("X-Query-Warning"))
	var shallow models.Order
	suite.decode(w, &shallow)

	assert.Equal(suite.T(), shallow.ID, deep.ID)
	assert.True(suite.T(), shallow.TotalAmount.Equal(deep.TotalAmount))
	assert.Equal(suite.T(), shallow.User.Email, deep.User.Email)
	assert.Len(suite.T(), deep.OrderItems, len(shallow.OrderItems))
	assert.NotEmpty(suite.T(), deep.User.Orders)
	assert.LessOrEqual(suite.T(), len(deep.User.Orders), 10)

	e := suite.apiError(suite.get("/v1/fast/orders/424242"), http.StatusNotFound)
	assert.Equal(suite.T(), "Order not found", e.Message)
}

func (suite *APITestSuite) TestCreateOrder() {
	var user models.User
	require.NoError(suite.T(), suite.db.First(&user).Error)
	var products []models.Product
	require.NoError(suite.T(), suite.db.Order("id ASC").Limit(2).Find(&products).Error)

	w := suite.do(http.MethodPost, "/v1/orders", map[string]interface{}{
		"userId": user.ID,
		"items": []map[string]interface{}{
			{"productId": products[0].ID, "quantity": 2},
			{"productId": products[1].ID, "quantity": 1},
		},
	})
	require.Equal(suite.T(), http.StatusCreated, w.Code, w.Body.String())

	var order models.Order
	suite.decode(w, &order)
	want := products[0].Price.Mul(decimal.NewFromInt(2)).Add(products[1].Price)
	assert.True(suite.T(), order.TotalAmount.Equal(want), "got %s want %s", order.TotalAmount, want)
	assert.Equal(suite.T(), models.OrderStatusPending, order.Status)
	assert.Len(suite.T(), order.OrderItems, 2)
}

func (suite *APITestSuite) TestCreateOrderErrors() {
	var user models.User
	require.NoError(suite.T(), suite.db.First(&user).Error)
	var before int64
	require.NoError(suite.T(), suite.db.Model(&models.Order{}).Count(&before).Error)

	e := suite.apiError(suite.do(http.MethodPost, "/v1/orders", map[string]interface{}{
		"userId": user.ID,
		"items":  []map[string]interface{}{{"productId": 987654, "quantity": 1}},
	}), http.StatusBadRequest)
	assert.Equal(suite.T(), "MISSING_REFERENCE", e.Error)
	assert.JSONEq(suite.T(), `{"resource":"product","id":987654}`, string(e.Details))

	e = suite.apiError(suite.do(http.MethodPost, "/v1/orders", map[string]interface{}{
		"userId": user.ID,
		"items":  []interface{}{},
	}), http.StatusBadRequest)
	assert.Equal(suite.T(), "VALIDATION_ERROR", e.Error)
	assert.Contains(suite.T(), string(e.Details), `"field":"items"`)

	e = suite.apiError(suite.do(http.MethodPost, "/v1/orders", `{"userId": `), http.StatusBadRequest)
	assert.Equal(suite.T(), "BAD_REQUEST", e.Error)

	var after int64
	require.NoError(suite.T(), suite.db.Model(&models.Order{}).Count(&after).Error)
	assert.Equal(suite.T(), before, after)
}

func (suite *APITestSuite) TestProductEndpoints() {
	env := suite.envelope(suite.get("/v1/products?pageSize=5"))
	assert.Equal(suite.T(), int64(12), env.Total)
	assert.Equal(suite.T(), 3, env.TotalPages)

	var products []models.Product
	require.NoError(suite.T(), json.Unmarshal(env.Data, &products))
	require.Len(suite.T(), products, 5)
	require.NotNil(suite.T(), products[0].Category)

	w := suite.get("/v1/products/" + itoa(products[0].ID))
	require.Equal(suite.T(), http.StatusOK, w.Code)

	e := suite.apiError(suite.get("/v1/products/0"), http.StatusBadRequest)
	assert.Equal(suite.T(), "BAD_REQUEST", e.Error)

	env = suite.envelope(suite.get("/v1/slow/products/search?q="))
	assert.Equal(suite.T(), int64(12), env.Total)
	assert.Equal(suite.T(), services.WarningSubstringSearch, env.Warning)

	env = suite.envelope(suite.get("/v1/categories"))
	assert.Equal(suite.T(), int64(3), env.Total)
}

func (suite *APITestSuite) TestProductReportVariantsAgree() {
	slowEnv := suite.envelope(suite.get("/v1/slow/reports/products"))
	fastEnv := suite.envelope(suite.get("/v1/fast/reports/products"))
	assert.Equal(suite.T(), services.WarningCartesianReport, slowEnv.Warning)

	var slow, fast []services.ProductReportRow
	require.NoError(suite.T(), json.Unmarshal(slowEnv.Data, &slow))
	require.NoError(suite.T(), json.Unmarshal(fastEnv.Data, &fast))
	require.Len(suite.T(), fast, 12)
	require.Len(suite.T(), slow, len(fast))

	for i := range slow {
		assert.Equal(suite.T(), slow[i].ProductID, fast[i].ProductID)
		assert.Equal(suite.T(), slow[i].TotalSold, fast[i].TotalSold)
		assert.Equal(suite.T(), slow[i].OrderCount, fast[i].OrderCount)
		assert.True(suite.T(), slow[i].TotalRevenue.Equal(fast[i].TotalRevenue))
	}
}

func (suite *APITestSuite) TestReportCacheInvalidatedByOrders() {
	suite.envelope(suite.get("/v1/fast/reports/products"))
	require.Len(suite.T(), suite.redis.Keys(), 1)

	var user models.User
	require.NoError(suite.T(), suite.db.First(&user).Error)
	var product models.Product
	require.NoError(suite.T(), suite.db.First(&product).Error)

	w := suite.do(http.MethodPost, "/v1/orders", map[string]interface{}{
		"userId": user.ID,
		"items":  []map[string]interface{}{{"productId": product.ID, "quantity": 1}},
	})
	require.Equal(suite.T(), http.StatusCreated, w.Code)
	assert.Empty(suite.T(), suite.redis.Keys())
}

func (suite *APITestSuite) TestSlowRoutesAreRateLimited() {
	suite.router = suite.newRouter(middleware.NewLimiters(config.RateLimitConfig{
		Enabled:       true,
		PerSecond:     1000,
		Burst:         1000,
		SlowPerMinute: 1,
		SlowBurst:     2,
	}), nil)

	for i := 0; i < 2; i++ {
		assert.Equal(suite.T(), http.StatusOK, suite.get("/v1/slow/users").Code)
	}
	e := suite.apiError(suite.get("/v1/slow/users"), http.StatusTooManyRequests)
	assert.Equal(suite.T(), "RATE_LIMITED", e.Error)

	assert.Equal(suite.T(), http.StatusOK, suite.get("/v1/fast/users").Code)
}

func TestAPITestSuite(t *testing.T) {
	suite.Run(t, new(APITestSuite))
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"maidops/src/controllers"
	"maidops/src/earnings"
	"maidops/src/lifecycle"
	"maidops/src/loyalty"
	"maidops/src/pricing"
	"maidops/src/repository"
	"maidops/src/types"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/tidwall/gjson"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const secret = "secret"

type TestSuite struct {
	suite.Suite
	DB     *gorm.DB
	Mock   sqlmock.Sqlmock
	API    *controllers.API
	router *gin.Engine
}

func NewMockDB() (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		log.Fatalf("An error '%s' was not expected when opening a stub database connection", err)
	}
	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		log.Fatalf("An error '%s' was not expected when opening gorm database", err)
	}
	return gormDB, mock
}

func generateJWT(sub uint, role types.ActorType) string {
	claims := types.Claims{
		Name: "Test User",
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprint(sub),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		log.Fatalf("Error generating JWT token: %s\n", err.Error())
	}
	return token
}

func (s *TestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	registerValidators()
}

func (s *TestSuite) SetupTest() {
	os.Unsetenv("MAINTENANCE_MODE")
	d, mock := NewMockDB()
	s.DB = d
	s.Mock = mock
	mock.MatchExpectationsInOrder(false)

	repo := repository.New(d)
	pricingEngine := pricing.NewEngine(repo)
	ledger := loyalty.NewLedger(repo)
	earningsEngine := earnings.NewEngine(repo, nil, earnings.WithPointsAwarder(ledger))
	s.API = &controllers.API{
		Machine: lifecycle.NewMachine(repo,
			lifecycle.WithQuoter(pricingEngine),
			lifecycle.WithCompletionHooks(ledger, earningsEngine),
		),
		Pricing:  pricingEngine,
		Earnings: earningsEngine,
		Loyalty:  ledger,
		TempDir:  s.T().TempDir(),
	}
	s.router = setupRouter()
	s.router = maintenanceModeMiddleware(s.router)
	apiRoutes(s.router, s.API, []byte(secret))
}

func (s *TestSuite) TearDownTest() {
	if inner, err := s.DB.DB(); err == nil {
		inner.Close()
	}
}

func (s *TestSuite) do(method, target, token string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = strings.NewReader(string(b))
	}
	req, err := http.NewRequest(method, target, reader)
	s.Require().NoError(err)
	if token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	}
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *TestSuite) TestPingRoute() {
	router := setupRouter()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/", nil)
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), 200, w.Code)
	assert.NotEmpty(s.T(), w.Header().Get("X-Request-Id"))
}

func (s *TestSuite) TestMaintenanceMode() {
	os.Setenv("MAINTENANCE_MODE", "true")
	defer os.Unsetenv("MAINTENANCE_MODE")

	router := setupRouter()
	router = maintenanceModeMiddleware(router)
	apiv1Group(router)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/v1", nil)
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), 503, w.Code)
}

func (s *TestSuite) TestRequiresToken() {
	w := s.do("GET", "/api/v1/bookings/HM-250610-ABCDEF", "", nil)
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *TestSuite) TestQuoteValidation() {
	token := generateJWT(5, types.ACTOR_CUSTOMER)

	s.Run("Should reject an unknown booking type", func() {
		w := s.do("POST", "/api/v1/quotes", token, map[string]any{
			"location":    "NCR",
			"tier":        "standard",
			"duration":    "whole_day",
			"bookingType": "weekly",
			"date":        "2025-06-14",
		})
		s.Equal(http.StatusBadRequest, w.Code)
		s.Equal("invalid_input", gjson.Get(w.Body.String(), "kind").String())
	})

	s.Run("Should reject a malformed date", func() {
		w := s.do("POST", "/api/v1/quotes", token, map[string]any{
			"location":    "NCR",
			"tier":        "standard",
			"duration":    "whole_day",
			"bookingType": "one_time",
			"date":        "14/06/2025",
		})
		s.Equal(http.StatusBadRequest, w.Code)
	})

	s.Run("Should return 404 when no SKU prices the request", func() {
		s.Mock.ExpectQuery(`SELECT \* FROM "service_skus"`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))
		s.Mock.ExpectQuery(`SELECT count\(\*\) FROM "holidays"`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		w := s.do("POST", "/api/v1/quotes", token, map[string]any{
			"location":    "BAGUIO",
			"tier":        "standard",
			"duration":    "whole_day",
			"bookingType": "one_time",
			"date":        "2025-06-14",
		})
		s.Equal(http.StatusNotFound, w.Code)
		s.Equal("pricing_not_found", gjson.Get(w.Body.String(), "kind").String())
	})
}

func (s *TestSuite) TestBookingNotFound() {
	token := generateJWT(1, types.ACTOR_ADMIN)
	s.Mock.ExpectQuery(`SELECT \* FROM "bookings"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	w := s.do("GET", "/api/v1/bookings/HM-250610-ABCDEF", token, nil)
	s.Equal(http.StatusNotFound, w.Code)
	s.Equal("not_found", gjson.Get(w.Body.String(), "kind").String())
}

func (s *TestSuite) TestBookingVisibility() {
	rows := func() *sqlmock.Rows {
		return sqlmock.NewRows([]string{"id", "code", "customer_id", "housemaid_id", "status_code", "version"}).
			AddRow(7, "HM-250610-ABCDEF", 5, 3, "confirmed", 2)
	}
	empty := func(table string) {
		s.Mock.ExpectQuery(fmt.Sprintf(`SELECT \* FROM "%s`, table)).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))
	}

	s.Mock.ExpectQuery(`SELECT \* FROM "bookings"`).WillReturnRows(rows())
	empty("payments")
	empty("transportation")
	w := s.do("GET", "/api/v1/bookings/HM-250610-ABCDEF", generateJWT(5, types.ACTOR_CUSTOMER), nil)
	s.Equal(http.StatusOK, w.Code)
	s.True(gjson.Get(w.Body.String(), "success").Bool())
	s.Equal("HM-250610-ABCDEF", gjson.Get(w.Body.String(), "data.code").String())

	s.Mock.ExpectQuery(`SELECT \* FROM "bookings"`).WillReturnRows(rows())
	empty("payments")
	empty("transportation")
	w = s.do("GET", "/api/v1/bookings/HM-250610-ABCDEF", generateJWT(6, types.ACTOR_CUSTOMER), nil)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *TestSuite) TestStatusUpdateOwnership() {
	resolve := func() {
		s.Mock.ExpectQuery(`SELECT \* FROM "bookings"`).WillReturnRows(
			sqlmock.NewRows([]string{"id", "code", "customer_id", "housemaid_id", "status_code", "version"}).
				AddRow(7, "HM-250610-ABCDEF", 5, 3, "accepted", 2))
		for _, table := range []string{"payments", "transportation"} {
			s.Mock.ExpectQuery(fmt.Sprintf(`SELECT \* FROM "%s`, table)).
				WillReturnRows(sqlmock.NewRows([]string{"id"}))
		}
	}

	resolve()
	w := s.do("PUT", "/api/v1/bookings/HM-250610-ABCDEF/status", generateJWT(6, types.ACTOR_CUSTOMER), map[string]any{"status": "cancelled"})
	s.Equal(http.StatusNotFound, w.Code)
	s.Equal("not_found", gjson.Get(w.Body.String(), "kind").String())

	resolve()
	w = s.do("PUT", "/api/v1/bookings/HM-250610-ABCDEF/status", generateJWT(5, types.ACTOR_CUSTOMER), map[string]any{"status": "dispatched"})
	s.Equal(http.StatusForbidden, w.Code)
	s.Equal("forbidden", gjson.Get(w.Body.String(), "kind").String())

	resolve()
	w = s.do("PUT", "/api/v1/bookings/HM-250610-ABCDEF/status", generateJWT(4, types.ACTOR_HOUSEMAID), map[string]any{
		"status": "pending_review", "action": "decline", "reason": "SCHEDULE_CONFLICT",
	})
	s.Equal(http.StatusNotFound, w.Code)
	s.NoError(s.Mock.ExpectationsWereMet())
}

func (s *TestSuite) TestUnknownStatus() {
	token := generateJWT(3, types.ACTOR_HOUSEMAID)
	w := s.do("PUT", "/api/v1/bookings/7/status", token, map[string]any{"status": "teleported"})
	s.Equal(http.StatusUnprocessableEntity, w.Code)
	s.Equal("invalid_transition", gjson.Get(w.Body.String(), "kind").String())
}

func (s *TestSuite) TestStatusRequiresBody() {
	token := generateJWT(3, types.ACTOR_HOUSEMAID)
	w := s.do("PUT", "/api/v1/bookings/7/status", token, map[string]any{"action": "skip"})
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *TestSuite) TestRoleGuards() {
	customer := generateJWT(5, types.ACTOR_CUSTOMER)

	w := s.do("GET", "/api/v1/earnings", customer, nil)
	s.Equal(http.StatusForbidden, w.Code)

	w = s.do("POST", "/api/v1/bookings/7/settlement", customer, nil)
	s.Equal(http.StatusForbidden, w.Code)

	w = s.do("PUT", "/api/v1/bookings/7/transportation", customer, map[string]any{
		"legs": []map[string]any{{"legType": "TO_CLIENT", "mode": "JEEPNEY", "cost": 26}},
	})
	s.Equal(http.StatusForbidden, w.Code)
}

func (s *TestSuite) TestTransportationValidation() {
	token := generateJWT(3, types.ACTOR_HOUSEMAID)
	w := s.do("PUT", "/api/v1/bookings/7/transportation", token, map[string]any{
		"legs": []map[string]any{{"legType": "TO_CLIENT", "mode": "HOVERCRAFT", "cost": 26}},
	})
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *TestSuite) TestAsensoBalance() {
	token := generateJWT(3, types.ACTOR_HOUSEMAID)
	s.Mock.ExpectQuery(`SELECT \* FROM "housemaids"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "asenso_points"}).AddRow(3, 450))
	s.Mock.ExpectQuery(`SELECT \* FROM "asenso_transactions"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "housemaid_id", "booking_id", "points"}).
			AddRow(1, 3, 7, 150).
			AddRow(2, 3, 8, 300))

	w := s.do("GET", "/api/v1/asenso", token, nil)
	s.Equal(http.StatusOK, w.Code)
	s.Equal(int64(450), gjson.Get(w.Body.String(), "data.points").Int())
	s.Equal(int64(2), gjson.Get(w.Body.String(), "data.transactions.#").Int())
}

func TestRunner(t *testing.T) {
	suite.Run(t, new(TestSuite))
}

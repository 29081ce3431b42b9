package middlewares

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sop/financialcontrol/config"
	"github.com/sop/financialcontrol/models"
	"github.com/sop/financialcontrol/utils"
)

func setupTestDB(t *testing.T) context.Context {
	t.Helper()
	conn, err := config.OpenDatabase(config.DatabaseSettings{
		Driver:     config.DriverSQLite,
		SqlitePath: filepath.Join(t.TempDir(), "loaders_test.db"),
		LogLevel:   "silent",
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	config.SetDB(conn)
	if err := models.MigrateTable(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
		config.SetDB(nil)
	})
	return utils.SetClockInContext(context.Background(), func() time.Time {
		return time.Date(2024, time.June, 15, 9, 0, 0, 0, time.UTC)
	})
}

func createExpense(t *testing.T, ctx context.Context, protocol string, amount string) *models.Expense {
	t.Helper()
	d := decimal.RequireFromString(amount)
	e, err := models.CreateExpense(ctx, &models.NewExpense{
		ProtocolNumber: protocol,
		ExpenseType:    models.ExpenseTypeOther,
		ProtocolDate:   models.MyDateTime(time.Date(2024, time.January, 10, 9, 30, 0, 0, time.UTC)),
		DueDate:        models.NewMyDate(2024, time.July, 1),
		Creditor:       "Supplier",
		Description:    "Office chairs",
		Amount:         &d,
	})
	if err != nil {
		t.Fatalf("CreateExpense: %v", err)
	}
	return e
}

func TestExpenseLoader(t *testing.T) {
	ctx := setupTestDB(t)
	first := createExpense(t, ctx, "12345.123456/2024-01", "10.00")
	second := createExpense(t, ctx, "12345.123456/2024-02", "20.00")

	ctx = context.WithValue(ctx, loadersKey, NewLoaders(config.GetDB()))
	expenses, err := GetExpenses(ctx, []int{second.ID, first.ID})
	if err != nil {
		t.Fatalf("GetExpenses: %v", err)
	}
	if len(expenses) != 2 || expenses[0].ID != second.ID || expenses[1].ID != first.ID {
		t.Fatalf("results must follow key order: %+v", expenses)
	}

	_, err = GetExpense(ctx, 999)
	var notFound *utils.NotFoundError
	if !errors.As(err, &notFound) || notFound.Error() != "Expense not found with id: 999" {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSummaryLoaders(t *testing.T) {
	ctx := setupTestDB(t)
	expense := createExpense(t, ctx, "12345.123456/2024-01", "100.00")
	amount := decimal.RequireFromString("60.00")
	commitment, err := models.CreateCommitment(ctx, &models.NewCommitment{
		CommitmentNumber: "2024NE0001",
		CommitmentDate:   models.NewMyDate(2024, time.February, 1),
		Amount:           &amount,
		ExpenseId:        expense.ID,
	})
	if err != nil {
		t.Fatalf("CreateCommitment: %v", err)
	}

	summaries, err := GetExpenseSummaries(ctx, []int{expense.ID, 999})
	if err != nil {
		t.Fatalf("GetExpenseSummaries: %v", err)
	}
	if summaries[0].CommitmentCount != 1 || !summaries[0].TotalCommitted.Equal(amount) {
		t.Fatalf("unexpected summary %+v", summaries[0])
	}
	if summaries[1].CommitmentCount != 0 {
		t.Fatalf("unknown expense must get a zero summary, got %+v", summaries[1])
	}

	cs, err := GetCommitmentSummary(ctx, commitment.ID)
	if err != nil || cs.PaymentCount != 0 || !cs.TotalPaid.IsZero() {
		t.Fatalf("unexpected commitment summary %+v %v", cs, err)
	}
}

func TestLoaderMiddleware_InjectsLoaders(t *testing.T) {
	setupTestDB(t)
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(CorrelationMiddleware())
	r.Use(LoaderMiddleware())
	r.GET("/check", func(c *gin.Context) {
		_, ok := c.Request.Context().Value(loadersKey).(*Loaders)
		cid, _ := utils.GetCorrelationIdFromContext(c.Request.Context())
		if !ok || cid != "cid-123" {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/check", nil)
	req.Header.Set(CorrelationIdHeader, "cid-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if w.Header().Get(CorrelationIdHeader) != "cid-123" {
		t.Fatalf("correlation id not echoed")
	}
}

func TestReadinessMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	config.SetDB(nil)

	r := gin.New()
	r.Use(ReadinessMiddleware())
	r.GET("/api/expenses", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusNoContent {
		t.Fatalf("healthz: expected 204, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/expenses", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 before the database is connected, got %d", w.Code)
	}
}

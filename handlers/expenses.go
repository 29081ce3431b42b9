package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sop/financialcontrol/middlewares"
	"github.com/sop/financialcontrol/models"
)

func expenseFilterFromQuery(c *gin.Context) (*models.ExpenseFilter, error) {
	filter := &models.ExpenseFilter{
		Creditor: c.Query("creditor"),
	}
	if s := strings.TrimSpace(c.Query("status")); s != "" {
		status, err := models.ParseExpenseStatus(s)
		if err != nil {
			return nil, invalidField("status", err.Error())
		}
		filter.Status = &status
	}
	if s := strings.TrimSpace(c.Query("type")); s != "" {
		expenseType, err := models.ParseExpenseType(s)
		if err != nil {
			return nil, invalidField("type", err.Error())
		}
		filter.ExpenseType = &expenseType
	}
	dueBefore, err := queryDate(c, "due_before")
	if err != nil {
		return nil, err
	}
	filter.DueBefore = dueBefore
	filter.WithoutCommitments, err = queryBool(c, "without_commitments")
	if err != nil {
		return nil, err
	}
	return filter, nil
}

func expenseResponse(ctx context.Context, expense *models.Expense) (*models.ExpenseResponse, error) {
	summary, err := middlewares.GetExpenseSummary(ctx, expense.ID)
	if err != nil {
		return nil, err
	}
	return models.NewExpenseResponse(expense, summary), nil
}

func expenseResponses(ctx context.Context, expenses []*models.Expense) ([]*models.ExpenseResponse, error) {
	results := make([]*models.ExpenseResponse, 0, len(expenses))
	if len(expenses) == 0 {
		return results, nil
	}
	ids := make([]int, 0, len(expenses))
	for _, e := range expenses {
		ids = append(ids, e.ID)
	}
	summaries, err := middlewares.GetExpenseSummaries(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i, e := range expenses {
		results = append(results, models.NewExpenseResponse(e, summaries[i]))
	}
	return results, nil
}

func listExpensesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "expenses.list")
		defer span.End()

		filter, err := expenseFilterFromQuery(c)
		if err != nil {
			respondError(c, err)
			return
		}
		expenses, err := models.ListExpenses(ctx, filter)
		if err != nil {
			respondError(c, err)
			return
		}
		resp, err := expenseResponses(ctx, expenses)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

func getExpenseHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "expenses.get")
		defer span.End()

		id, err := idParam(c, "id")
		if err != nil {
			respondError(c, err)
			return
		}
		expense, err := models.GetExpense(ctx, id)
		if err != nil {
			respondError(c, err)
			return
		}
		resp, err := expenseResponse(ctx, expense)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

// protocol numbers contain "/", so the route captures a wildcard
func getExpenseByProtocolNumberHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "expenses.getByProtocolNumber")
		defer span.End()

		protocolNumber := strings.TrimPrefix(c.Param("protocolNumber"), "/")
		expense, err := models.GetExpenseByProtocolNumber(ctx, protocolNumber)
		if err != nil {
			respondError(c, err)
			return
		}
		resp, err := expenseResponse(ctx, expense)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

func listExpensesByStatusHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "expenses.listByStatus")
		defer span.End()

		status, err := models.ParseExpenseStatus(c.Param("status"))
		if err != nil {
			respondError(c, invalidField("status", err.Error()))
			return
		}
		expenses, err := models.GetExpensesByStatus(ctx, status)
		if err != nil {
			respondError(c, err)
			return
		}
		resp, err := expenseResponses(ctx, expenses)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

func createExpenseHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "expenses.create")
		defer span.End()

		var input models.NewExpense
		if err := bindJSON(c, &input); err != nil {
			respondError(c, err)
			return
		}
		expense, err := models.CreateExpense(ctx, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		resp, err := expenseResponse(ctx, expense)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, resp)
	}
}

func updateExpenseHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "expenses.update")
		defer span.End()

		id, err := idParam(c, "id")
		if err != nil {
			respondError(c, err)
			return
		}
		var input models.NewExpense
		if err := bindJSON(c, &input); err != nil {
			respondError(c, err)
			return
		}
		expense, err := models.UpdateExpense(ctx, id, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		resp, err := expenseResponse(ctx, expense)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

func deleteExpenseHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "expenses.delete")
		defer span.End()

		id, err := idParam(c, "id")
		if err != nil {
			respondError(c, err)
			return
		}
		if _, err := models.DeleteExpense(ctx, id); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

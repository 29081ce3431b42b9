package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sop/financialcontrol/middlewares"
	"github.com/sop/financialcontrol/models"
	"github.com/sop/financialcontrol/utils"
)

func commitmentFilterFromQuery(c *gin.Context) (*models.CommitmentFilter, error) {
	filter := &models.CommitmentFilter{}
	var err error
	if filter.FromDate, err = queryDate(c, "from"); err != nil {
		return nil, err
	}
	if filter.ToDate, err = queryDate(c, "to"); err != nil {
		return nil, err
	}
	if filter.WithoutPayments, err = queryBool(c, "without_payments"); err != nil {
		return nil, err
	}
	if filter.PartiallyPaid, err = queryBool(c, "partially_paid"); err != nil {
		return nil, err
	}
	return filter, nil
}

func commitmentResponse(ctx context.Context, commitment *models.Commitment) (*models.CommitmentResponse, error) {
	expense, err := middlewares.GetExpense(ctx, commitment.ExpenseId)
	if err != nil {
		return nil, err
	}
	summary, err := middlewares.GetCommitmentSummary(ctx, commitment.ID)
	if err != nil {
		return nil, err
	}
	return models.NewCommitmentResponse(commitment, expense, summary), nil
}

func commitmentResponses(ctx context.Context, commitments []*models.Commitment) ([]*models.CommitmentResponse, error) {
	results := make([]*models.CommitmentResponse, 0, len(commitments))
	if len(commitments) == 0 {
		return results, nil
	}
	ids := make([]int, 0, len(commitments))
	expenseIds := make([]int, 0, len(commitments))
	for _, c := range commitments {
		ids = append(ids, c.ID)
		expenseIds = append(expenseIds, c.ExpenseId)
	}
	expenseIds = utils.UniqueSlice(expenseIds)

	expenses, err := middlewares.GetExpenses(ctx, expenseIds)
	if err != nil {
		return nil, err
	}
	expenseMap := make(map[int]*models.Expense, len(expenses))
	for _, e := range expenses {
		if e != nil {
			expenseMap[e.ID] = e
		}
	}
	summaries, err := middlewares.GetCommitmentSummaries(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i, c := range commitments {
		results = append(results, models.NewCommitmentResponse(c, expenseMap[c.ExpenseId], summaries[i]))
	}
	return results, nil
}

func listCommitmentsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "commitments.list")
		defer span.End()

		filter, err := commitmentFilterFromQuery(c)
		if err != nil {
			respondError(c, err)
			return
		}
		commitments, err := models.ListCommitments(ctx, filter)
		if err != nil {
			respondError(c, err)
			return
		}
		resp, err := commitmentResponses(ctx, commitments)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

func getCommitmentHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "commitments.get")
		defer span.End()

		id, err := idParam(c, "id")
		if err != nil {
			respondError(c, err)
			return
		}
		commitment, err := models.GetCommitment(ctx, id)
		if err != nil {
			respondError(c, err)
			return
		}
		resp, err := commitmentResponse(ctx, commitment)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

func getCommitmentByNumberHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "commitments.getByNumber")
		defer span.End()

		commitment, err := models.GetCommitmentByNumber(ctx, c.Param("number"))
		if err != nil {
			respondError(c, err)
			return
		}
		resp, err := commitmentResponse(ctx, commitment)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

func listCommitmentsByExpenseHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "commitments.listByExpense")
		defer span.End()

		expenseId, err := idParam(c, "expenseId")
		if err != nil {
			respondError(c, err)
			return
		}
		commitments, err := models.GetCommitmentsByExpenseId(ctx, expenseId)
		if err != nil {
			respondError(c, err)
			return
		}
		resp, err := commitmentResponses(ctx, commitments)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

func createCommitmentHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "commitments.create")
		defer span.End()

		var input models.NewCommitment
		if err := bindJSON(c, &input); err != nil {
			respondError(c, err)
			return
		}
		commitment, err := models.CreateCommitment(ctx, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		resp, err := commitmentResponse(ctx, commitment)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, resp)
	}
}

func updateCommitmentHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "commitments.update")
		defer span.End()

		id, err := idParam(c, "id")
		if err != nil {
			respondError(c, err)
			return
		}
		var input models.NewCommitment
		if err := bindJSON(c, &input); err != nil {
			respondError(c, err)
			return
		}
		commitment, err := models.UpdateCommitment(ctx, id, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		resp, err := commitmentResponse(ctx, commitment)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

func deleteCommitmentHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "commitments.delete")
		defer span.End()

		id, err := idParam(c, "id")
		if err != nil {
			respondError(c, err)
			return
		}
		if _, err := models.DeleteCommitment(ctx, id); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sop/financialcontrol/middlewares"
	"github.com/sop/financialcontrol/models"
	"github.com/sop/financialcontrol/utils"
)

func paymentFilterFromQuery(c *gin.Context) (*models.PaymentFilter, error) {
	filter := &models.PaymentFilter{}
	var err error
	if filter.FromDate, err = queryDate(c, "from"); err != nil {
		return nil, err
	}
	if filter.ToDate, err = queryDate(c, "to"); err != nil {
		return nil, err
	}
	return filter, nil
}

func paymentResponse(ctx context.Context, payment *models.Payment) (*models.PaymentResponse, error) {
	commitment, err := middlewares.GetCommitment(ctx, payment.CommitmentId)
	if err != nil {
		return nil, err
	}
	expense, err := middlewares.GetExpense(ctx, commitment.ExpenseId)
	if err != nil {
		return nil, err
	}
	return models.NewPaymentResponse(payment, commitment, expense), nil
}

func paymentResponses(ctx context.Context, payments []*models.Payment) ([]*models.PaymentResponse, error) {
	results := make([]*models.PaymentResponse, 0, len(payments))
	if len(payments) == 0 {
		return results, nil
	}
	commitmentIds := make([]int, 0, len(payments))
	for _, p := range payments {
		commitmentIds = append(commitmentIds, p.CommitmentId)
	}
	commitments, err := middlewares.GetCommitments(ctx, utils.UniqueSlice(commitmentIds))
	if err != nil {
		return nil, err
	}
	commitmentMap := make(map[int]*models.Commitment, len(commitments))
	expenseIds := make([]int, 0, len(commitments))
	for _, c := range commitments {
		if c != nil {
			commitmentMap[c.ID] = c
			expenseIds = append(expenseIds, c.ExpenseId)
		}
	}
	expenses, err := middlewares.GetExpenses(ctx, utils.UniqueSlice(expenseIds))
	if err != nil {
		return nil, err
	}
	expenseMap := make(map[int]*models.Expense, len(expenses))
	for _, e := range expenses {
		if e != nil {
			expenseMap[e.ID] = e
		}
	}

	for _, p := range payments {
		var expense *models.Expense
		commitment := commitmentMap[p.CommitmentId]
		if commitment != nil {
			expense = expenseMap[commitment.ExpenseId]
		}
		results = append(results, models.NewPaymentResponse(p, commitment, expense))
	}
	return results, nil
}

func listPaymentsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "payments.list")
		defer span.End()

		filter, err := paymentFilterFromQuery(c)
		if err != nil {
			respondError(c, err)
			return
		}
		payments, err := models.ListPayments(ctx, filter)
		if err != nil {
			respondError(c, err)
			return
		}
		resp, err := paymentResponses(ctx, payments)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

func getPaymentHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "payments.get")
		defer span.End()

		id, err := idParam(c, "id")
		if err != nil {
			respondError(c, err)
			return
		}
		payment, err := models.GetPayment(ctx, id)
		if err != nil {
			respondError(c, err)
			return
		}
		resp, err := paymentResponse(ctx, payment)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

func getPaymentByNumberHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "payments.getByNumber")
		defer span.End()

		payment, err := models.GetPaymentByNumber(ctx, c.Param("number"))
		if err != nil {
			respondError(c, err)
			return
		}
		resp, err := paymentResponse(ctx, payment)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

func listPaymentsByCommitmentHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "payments.listByCommitment")
		defer span.End()

		commitmentId, err := idParam(c, "commitmentId")
		if err != nil {
			respondError(c, err)
			return
		}
		payments, err := models.GetPaymentsByCommitmentId(ctx, commitmentId)
		if err != nil {
			respondError(c, err)
			return
		}
		resp, err := paymentResponses(ctx, payments)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

func createPaymentHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "payments.create")
		defer span.End()

		var input models.NewPayment
		if err := bindJSON(c, &input); err != nil {
			respondError(c, err)
			return
		}
		payment, err := models.CreatePayment(ctx, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		resp, err := paymentResponse(ctx, payment)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, resp)
	}
}

func updatePaymentHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "payments.update")
		defer span.End()

		id, err := idParam(c, "id")
		if err != nil {
			respondError(c, err)
			return
		}
		var input models.NewPayment
		if err := bindJSON(c, &input); err != nil {
			respondError(c, err)
			return
		}
		payment, err := models.UpdatePayment(ctx, id, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		resp, err := paymentResponse(ctx, payment)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

func deletePaymentHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "payments.delete")
		defer span.End()

		id, err := idParam(c, "id")
		if err != nil {
			respondError(c, err)
			return
		}
		if _, err := models.DeletePayment(ctx, id); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

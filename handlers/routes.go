package handlers

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the REST api under /api and the fallback handler.
func RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api")

	expenses := api.Group("/expenses")
	expenses.GET("", listExpensesHandler())
	expenses.POST("", createExpenseHandler())
	expenses.GET("/export", exportExpensesHandler())
	expenses.GET("/protocol/*protocolNumber", getExpenseByProtocolNumberHandler())
	expenses.GET("/status/:status", listExpensesByStatusHandler())
	expenses.GET("/:id", getExpenseHandler())
	expenses.PUT("/:id", updateExpenseHandler())
	expenses.DELETE("/:id", deleteExpenseHandler())

	commitments := api.Group("/commitments")
	commitments.GET("", listCommitmentsHandler())
	commitments.POST("", createCommitmentHandler())
	commitments.GET("/number/:number", getCommitmentByNumberHandler())
	commitments.GET("/expense/:expenseId", listCommitmentsByExpenseHandler())
	commitments.GET("/:id", getCommitmentHandler())
	commitments.PUT("/:id", updateCommitmentHandler())
	commitments.DELETE("/:id", deleteCommitmentHandler())

	payments := api.Group("/payments")
	payments.GET("", listPaymentsHandler())
	payments.POST("", createPaymentHandler())
	payments.GET("/number/:number", getPaymentByNumberHandler())
	payments.GET("/commitment/:commitmentId", listPaymentsByCommitmentHandler())
	payments.GET("/:id", getPaymentHandler())
	payments.PUT("/:id", updatePaymentHandler())
	payments.DELETE("/:id", deletePaymentHandler())

	api.GET("/reports/expense-status", expenseStatusReportHandler())

	r.NoRoute(customNotFoundHandler)
}

package handlers

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sop/financialcontrol/models/reports"
	"github.com/sop/financialcontrol/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func expenseStatusReportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "reports.expenseStatus")
		defer span.End()

		rows, err := reports.GetExpenseStatusReport(ctx)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, rows)
	}
}

func exportExpensesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "reports.exportExpenses")
		defer span.End()

		filter, err := expenseFilterFromQuery(c)
		if err != nil {
			respondError(c, err)
			return
		}
		// buffered so a failure can still be reported as JSON
		var buf bytes.Buffer
		if err := reports.ExportExpensesExcel(ctx, filter, &buf); err != nil {
			respondError(c, err)
			return
		}
		fileName := fmt.Sprintf("expenses-%s.xlsx", utils.NowFromContext(ctx).Format("20060102"))
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
		c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
	}
}

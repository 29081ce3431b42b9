package reports

import (
	"context"
	"fmt"
	"io"

	"github.com/sop/financialcontrol/config"
	"github.com/sop/financialcontrol/models"
	"github.com/xuri/excelize/v2"
)

const expenseSheet = "Expenses"

var expenseHeadings = []string{
	"Protocol Number", "Expense Type", "Protocol Date", "Due Date", "Creditor", "Description",
	"Amount", "Status", "Commitments", "Total Committed", "Total Paid", "Remaining",
}

// ExportExpensesExcel writes every expense matching filter, with its
// commitment/payment totals, as an XLSX workbook.
func ExportExpensesExcel(ctx context.Context, filter *models.ExpenseFilter, w io.Writer) error {
	expenses, err := models.ListExpenses(ctx, filter)
	if err != nil {
		return err
	}
	ids := make([]int, 0, len(expenses))
	for _, e := range expenses {
		ids = append(ids, e.ID)
	}
	summaries, err := models.GetExpenseSummaries(ctx, config.GetDB(), ids)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", expenseSheet); err != nil {
		return err
	}

	// Add headers
	for i, h := range expenseHeadings {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(expenseSheet, cell, h); err != nil {
			return err
		}
	}

	// Add data
	for i, e := range expenses {
		s := summaries[e.ID]
		values := []interface{}{
			e.ProtocolNumber,
			e.ExpenseType.DisplayName(),
			e.ProtocolDate.String(),
			e.DueDate.String(),
			e.Creditor,
			e.Description,
			e.Amount.InexactFloat64(),
			e.Status.DisplayName(),
			s.CommitmentCount,
			s.TotalCommitted.InexactFloat64(),
			s.TotalPaid.InexactFloat64(),
			s.RemainingAmount(e.Amount).InexactFloat64(),
		}
		row := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(expenseSheet, row, &values); err != nil {
			return err
		}
	}

	return f.Write(w)
}

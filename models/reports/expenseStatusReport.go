package reports

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/sop/financialcontrol/config"
	"github.com/sop/financialcontrol/models"
)

type ExpenseStatusReportRow struct {
	Status         models.ExpenseStatus `json:"status"`
	StatusName     string               `json:"status_name"`
	ExpenseCount   int64                `json:"expense_count"`
	TotalAmount    decimal.Decimal      `json:"total_amount"`
	TotalCommitted decimal.Decimal      `json:"total_committed_amount"`
	TotalPaid      decimal.Decimal      `json:"total_paid_amount"`
}

// GetExpenseStatusReport returns one row per status in lifecycle order,
// including statuses that currently have no expense.
func GetExpenseStatusReport(ctx context.Context) ([]*ExpenseStatusReportRow, error) {
	sql := `
SELECT
    e.status,
    COUNT(e.id) AS expense_count,
    COALESCE(SUM(e.amount), 0) AS total_amount,
    COALESCE(SUM(c.total_committed), 0) AS total_committed,
    COALESCE(SUM(p.total_paid), 0) AS total_paid
FROM
    expenses AS e
    LEFT JOIN (
        SELECT expense_id, SUM(amount) AS total_committed
        FROM commitments
        GROUP BY expense_id
    ) AS c ON c.expense_id = e.id
    LEFT JOIN (
        SELECT commitments.expense_id, SUM(payments.amount) AS total_paid
        FROM payments
        JOIN commitments ON commitments.id = payments.commitment_id
        GROUP BY commitments.expense_id
    ) AS p ON p.expense_id = e.id
GROUP BY
    e.status
`

	var records []*ExpenseStatusReportRow
	db := config.GetDB()
	if err := db.WithContext(ctx).Raw(sql).Scan(&records).Error; err != nil {
		return nil, err
	}

	byStatus := make(map[models.ExpenseStatus]*ExpenseStatusReportRow, len(records))
	for _, r := range records {
		byStatus[r.Status] = r
	}
	results := make([]*ExpenseStatusReportRow, 0, len(models.ExpenseStatuses))
	for _, status := range models.ExpenseStatuses {
		row, ok := byStatus[status]
		if !ok {
			row = &ExpenseStatusReportRow{Status: status}
		}
		row.StatusName = status.DisplayName()
		row.TotalAmount = row.TotalAmount.Round(2)
		row.TotalCommitted = row.TotalCommitted.Round(2)
		row.TotalPaid = row.TotalPaid.Round(2)
		results = append(results, row)
	}
	return results, nil
}

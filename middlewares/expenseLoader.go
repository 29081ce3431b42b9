package middlewares

import (
	"context"

	"github.com/graph-gophers/dataloader/v7"
	"github.com/sop/financialcontrol/models"
	"gorm.io/gorm"
)

type expenseReader struct {
	db *gorm.DB
}

func (r *expenseReader) getExpenses(ctx context.Context, ids []int) []*dataloader.Result[*models.Expense] {
	var results []models.Expense
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&results).Error
	if err != nil {
		return handleError[*models.Expense](len(ids), err)
	}

	return generateLoaderResults(results, ids, "Expense")
}

func GetExpense(ctx context.Context, id int) (*models.Expense, error) {
	loaders := For(ctx)
	return loaders.expenseLoader.Load(ctx, id)()
}

func GetExpenses(ctx context.Context, ids []int) ([]*models.Expense, error) {
	loaders := For(ctx)
	results, errs := loaders.expenseLoader.LoadMany(ctx, ids)()
	return results, firstError(errs)
}

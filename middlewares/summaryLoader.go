package middlewares

import (
	"context"

	"github.com/graph-gophers/dataloader/v7"
	"github.com/sop/financialcontrol/models"
	"gorm.io/gorm"
)

type expenseSummaryReader struct {
	db *gorm.DB
}

func (r *expenseSummaryReader) getExpenseSummaries(ctx context.Context, ids []int) []*dataloader.Result[models.ExpenseSummary] {
	summaries, err := models.GetExpenseSummaries(ctx, r.db, ids)
	if err != nil {
		return handleError[models.ExpenseSummary](len(ids), err)
	}
	loaderResults := make([]*dataloader.Result[models.ExpenseSummary], 0, len(ids))
	for _, id := range ids {
		loaderResults = append(loaderResults, &dataloader.Result[models.ExpenseSummary]{Data: summaries[id]})
	}
	return loaderResults
}

type commitmentSummaryReader struct {
	db *gorm.DB
}

func (r *commitmentSummaryReader) getCommitmentSummaries(ctx context.Context, ids []int) []*dataloader.Result[models.CommitmentSummary] {
	summaries, err := models.GetCommitmentSummaries(ctx, r.db, ids)
	if err != nil {
		return handleError[models.CommitmentSummary](len(ids), err)
	}
	loaderResults := make([]*dataloader.Result[models.CommitmentSummary], 0, len(ids))
	for _, id := range ids {
		loaderResults = append(loaderResults, &dataloader.Result[models.CommitmentSummary]{Data: summaries[id]})
	}
	return loaderResults
}

func GetExpenseSummary(ctx context.Context, expenseId int) (models.ExpenseSummary, error) {
	loaders := For(ctx)
	return loaders.expenseSummaryLoader.Load(ctx, expenseId)()
}

func GetExpenseSummaries(ctx context.Context, expenseIds []int) ([]models.ExpenseSummary, error) {
	loaders := For(ctx)
	results, errs := loaders.expenseSummaryLoader.LoadMany(ctx, expenseIds)()
	return results, firstError(errs)
}

func GetCommitmentSummary(ctx context.Context, commitmentId int) (models.CommitmentSummary, error) {
	loaders := For(ctx)
	return loaders.commitmentSummaryLoader.Load(ctx, commitmentId)()
}

func GetCommitmentSummaries(ctx context.Context, commitmentIds []int) ([]models.CommitmentSummary, error) {
	loaders := For(ctx)
	results, errs := loaders.commitmentSummaryLoader.LoadMany(ctx, commitmentIds)()
	return results, firstError(errs)
}

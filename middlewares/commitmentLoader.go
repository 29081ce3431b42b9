package middlewares

import (
	"context"

	"github.com/graph-gophers/dataloader/v7"
	"github.com/sop/financialcontrol/models"
	"gorm.io/gorm"
)

type commitmentReader struct {
	db *gorm.DB
}

func (r *commitmentReader) getCommitments(ctx context.Context, ids []int) []*dataloader.Result[*models.Commitment] {
	var results []models.Commitment
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&results).Error
	if err != nil {
		return handleError[*models.Commitment](len(ids), err)
	}

	return generateLoaderResults(results, ids, "Commitment")
}

func GetCommitment(ctx context.Context, id int) (*models.Commitment, error) {
	loaders := For(ctx)
	return loaders.commitmentLoader.Load(ctx, id)()
}

func GetCommitments(ctx context.Context, ids []int) ([]*models.Commitment, error) {
	loaders := For(ctx)
	results, errs := loaders.commitmentLoader.LoadMany(ctx, ids)()
	return results, firstError(errs)
}

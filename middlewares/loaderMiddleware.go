package middlewares

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/graph-gophers/dataloader/v7"
	"github.com/sop/financialcontrol/config"
	"github.com/sop/financialcontrol/models"
	"github.com/sop/financialcontrol/utils"
	"gorm.io/gorm"
)

type ctxKey string

const (
	loadersKey = ctxKey("dataloaders")
)

// Loaders wrap your data loaders to inject via middleware
type Loaders struct {
	expenseLoader           *dataloader.Loader[int, *models.Expense]
	commitmentLoader        *dataloader.Loader[int, *models.Commitment]
	expenseSummaryLoader    *dataloader.Loader[int, models.ExpenseSummary]
	commitmentSummaryLoader *dataloader.Loader[int, models.CommitmentSummary]
}

// NewLoaders instantiates data loaders for the middleware
func NewLoaders(conn *gorm.DB) *Loaders {
	expenseReader := &expenseReader{db: conn}
	commitmentReader := &commitmentReader{db: conn}
	expenseSummaryReader := &expenseSummaryReader{db: conn}
	commitmentSummaryReader := &commitmentSummaryReader{db: conn}

	return &Loaders{
		expenseLoader:           dataloader.NewBatchedLoader(expenseReader.getExpenses, dataloader.WithWait[int, *models.Expense](time.Millisecond)),
		commitmentLoader:        dataloader.NewBatchedLoader(commitmentReader.getCommitments, dataloader.WithWait[int, *models.Commitment](time.Millisecond)),
		expenseSummaryLoader:    dataloader.NewBatchedLoader(expenseSummaryReader.getExpenseSummaries, dataloader.WithWait[int, models.ExpenseSummary](time.Millisecond)),
		commitmentSummaryLoader: dataloader.NewBatchedLoader(commitmentSummaryReader.getCommitmentSummaries, dataloader.WithWait[int, models.CommitmentSummary](time.Millisecond)),
	}
}

func LoaderMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		loader := NewLoaders(config.GetDB())
		ctx := context.WithValue(c.Request.Context(), loadersKey, loader)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// For returns the request's loaders, building fresh ones when the
// middleware did not run (tools, tests).
func For(ctx context.Context) *Loaders {
	if loaders, ok := ctx.Value(loadersKey).(*Loaders); ok {
		return loaders
	}
	return NewLoaders(config.GetDB())
}

// handleError creates array of result with the same error repeated for as many items requested
func handleError[T any](itemsLength int, err error) []*dataloader.Result[T] {
	result := make([]*dataloader.Result[T], itemsLength)
	for i := 0; i < itemsLength; i++ {
		result[i] = &dataloader.Result[T]{Error: err}
	}
	return result
}

type identifiable interface {
	GetId() int
}

// turns rows from db into dataloader results, in key order
// (missing ids resolve to a NotFoundError for resource)
func generateLoaderResults[T identifiable](results []T, ids []int, resource string) []*dataloader.Result[*T] {
	resultMap := make(map[int]T, len(results))
	for _, result := range results {
		resultMap[result.GetId()] = result
	}

	loaderResults := make([]*dataloader.Result[*T], 0, len(ids))
	for _, id := range ids {
		data, ok := resultMap[id]
		if !ok {
			loaderResults = append(loaderResults, &dataloader.Result[*T]{Error: utils.NewNotFoundError(resource, "id", id)})
			continue
		}
		loaderResults = append(loaderResults, &dataloader.Result[*T]{Data: &data})
	}
	return loaderResults
}

// LoadMany returns nil errs unless some key failed
func firstError(errs []error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

package models

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/sop/financialcontrol/config"
	"github.com/sop/financialcontrol/utils"
	"gorm.io/gorm"
)

// money columns are decimal(20,2)
const amountScale = 2

// ExpenseSummary aggregates an expense's commitments and their payments.
type ExpenseSummary struct {
	ExpenseId       int             `json:"-"`
	CommitmentCount int64           `json:"commitment_count"`
	TotalCommitted  decimal.Decimal `json:"total_committed_amount"`
	TotalPaid       decimal.Decimal `json:"total_paid_amount"`
}

// Status derives the expense status from the current children totals.
// It is a total function of (amount, summary); nothing else is consulted.
func (s ExpenseSummary) Status(amount decimal.Decimal) ExpenseStatus {
	switch {
	case s.CommitmentCount == 0:
		return ExpenseStatusAwaitingCommitment
	case s.TotalCommitted.LessThan(amount):
		return ExpenseStatusPartiallyCommitted
	case s.TotalPaid.IsZero():
		return ExpenseStatusAwaitingPayment
	case s.TotalPaid.LessThan(amount):
		return ExpenseStatusPartiallyPaid
	default:
		return ExpenseStatusPaid
	}
}

// amount not yet committed
func (s ExpenseSummary) UncommittedAmount(amount decimal.Decimal) decimal.Decimal {
	return amount.Sub(s.TotalCommitted)
}

// amount not yet paid
func (s ExpenseSummary) RemainingAmount(amount decimal.Decimal) decimal.Decimal {
	return amount.Sub(s.TotalPaid)
}

type CommitmentSummary struct {
	CommitmentId int             `json:"-"`
	PaymentCount int64           `json:"payment_count"`
	TotalPaid    decimal.Decimal `json:"total_paid_amount"`
}

func (s CommitmentSummary) RemainingAmount(amount decimal.Decimal) decimal.Decimal {
	return amount.Sub(s.TotalPaid)
}

// GetExpenseSummaries loads summaries for every id; ids without children get a zero summary.
func GetExpenseSummaries(ctx context.Context, db *gorm.DB, expenseIds []int) (map[int]ExpenseSummary, error) {
	ids := utils.UniqueSlice(expenseIds)
	result := make(map[int]ExpenseSummary, len(ids))
	for _, id := range ids {
		result[id] = ExpenseSummary{ExpenseId: id, TotalCommitted: decimal.Zero, TotalPaid: decimal.Zero}
	}
	if len(ids) == 0 {
		return result, nil
	}

	var committed []struct {
		ExpenseId       int
		CommitmentCount int64
		TotalCommitted  decimal.Decimal
	}
	err := db.WithContext(ctx).Model(&Commitment{}).
		Select("expense_id, COUNT(*) AS commitment_count, COALESCE(SUM(amount), 0) AS total_committed").
		Where("expense_id IN ?", ids).
		Group("expense_id").
		Scan(&committed).Error
	if err != nil {
		return nil, err
	}
	for _, row := range committed {
		s := result[row.ExpenseId]
		s.CommitmentCount = row.CommitmentCount
		s.TotalCommitted = row.TotalCommitted.Round(amountScale)
		result[row.ExpenseId] = s
	}

	var paid []struct {
		ExpenseId int
		TotalPaid decimal.Decimal
	}
	err = db.WithContext(ctx).Table("payments").
		Select("commitments.expense_id AS expense_id, COALESCE(SUM(payments.amount), 0) AS total_paid").
		Joins("JOIN commitments ON commitments.id = payments.commitment_id").
		Where("commitments.expense_id IN ?", ids).
		Group("commitments.expense_id").
		Scan(&paid).Error
	if err != nil {
		return nil, err
	}
	for _, row := range paid {
		s := result[row.ExpenseId]
		s.TotalPaid = row.TotalPaid.Round(amountScale)
		result[row.ExpenseId] = s
	}
	return result, nil
}

func GetCommitmentSummaries(ctx context.Context, db *gorm.DB, commitmentIds []int) (map[int]CommitmentSummary, error) {
	ids := utils.UniqueSlice(commitmentIds)
	result := make(map[int]CommitmentSummary, len(ids))
	for _, id := range ids {
		result[id] = CommitmentSummary{CommitmentId: id, TotalPaid: decimal.Zero}
	}
	if len(ids) == 0 {
		return result, nil
	}

	var rows []struct {
		CommitmentId int
		PaymentCount int64
		TotalPaid    decimal.Decimal
	}
	err := db.WithContext(ctx).Model(&Payment{}).
		Select("commitment_id, COUNT(*) AS payment_count, COALESCE(SUM(amount), 0) AS total_paid").
		Where("commitment_id IN ?", ids).
		Group("commitment_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		result[row.CommitmentId] = CommitmentSummary{
			CommitmentId: row.CommitmentId,
			PaymentCount: row.PaymentCount,
			TotalPaid:    row.TotalPaid.Round(amountScale),
		}
	}
	return result, nil
}

func getExpenseSummary(ctx context.Context, db *gorm.DB, expenseId int) (ExpenseSummary, error) {
	summaries, err := GetExpenseSummaries(ctx, db, []int{expenseId})
	if err != nil {
		return ExpenseSummary{}, err
	}
	return summaries[expenseId], nil
}

func getCommitmentSummary(ctx context.Context, db *gorm.DB, commitmentId int) (CommitmentSummary, error) {
	summaries, err := GetCommitmentSummaries(ctx, db, []int{commitmentId})
	if err != nil {
		return CommitmentSummary{}, err
	}
	return summaries[commitmentId], nil
}

// ExpenseStatusChange describes a persisted status transition.
type ExpenseStatusChange struct {
	ExpenseId      int
	ProtocolNumber string
	OldStatus      ExpenseStatus
	NewStatus      ExpenseStatus
}

// refreshExpenseStatus re-derives and persists the status of an expense
// that is already locked by tx. Returns nil when the status did not change.
func refreshExpenseStatus(ctx context.Context, tx *gorm.DB, expense *Expense) (*ExpenseStatusChange, error) {
	summary, err := getExpenseSummary(ctx, tx, expense.ID)
	if err != nil {
		return nil, err
	}
	status := summary.Status(expense.Amount)
	if status == expense.Status {
		return nil, nil
	}
	err = tx.WithContext(ctx).Model(&Expense{}).
		Where("id = ?", expense.ID).
		Update("status", status).Error
	if err != nil {
		return nil, err
	}
	change := &ExpenseStatusChange{
		ExpenseId:      expense.ID,
		ProtocolNumber: expense.ProtocolNumber,
		OldStatus:      expense.Status,
		NewStatus:      status,
	}
	expense.Status = status
	return change, nil
}

// RecomputeExpenseStatus repairs the stored status of one expense.
func RecomputeExpenseStatus(ctx context.Context, id int) (*Expense, *ExpenseStatusChange, error) {
	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()

	expense, err := utils.FetchModelForUpdate[Expense](ctx, tx, id)
	if err != nil {
		tx.Rollback()
		return nil, nil, expenseNotFound(err, "id", id)
	}
	change, err := refreshExpenseStatus(ctx, tx, expense)
	if err != nil {
		tx.Rollback()
		return nil, nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, nil, err
	}
	notifyStatusChange(ctx, change, "recompute")
	return expense, change, nil
}

// notifyStatusChange publishes after commit; failures are logged, never returned.
func notifyStatusChange(ctx context.Context, change *ExpenseStatusChange, trigger string) {
	if change == nil || !config.PubSubEnabled() {
		return
	}
	correlationId, _ := utils.GetCorrelationIdFromContext(ctx)
	msg := config.ExpenseStatusMessage{
		Event:          config.EventExpenseStatusChanged,
		ExpenseId:      change.ExpenseId,
		ProtocolNumber: change.ProtocolNumber,
		OldStatus:      string(change.OldStatus),
		NewStatus:      string(change.NewStatus),
		Trigger:        trigger,
		OccurredAt:     utils.NowFromContext(ctx).UTC(),
		CorrelationId:  correlationId,
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if _, err := config.PublishExpenseStatusChanged(pubCtx, msg); err != nil {
		config.LoggerFromContext(ctx).WithFields(logrus.Fields{
			"module":     "ExpenseStatus",
			"funcName":   "notifyStatusChange",
			"expense_id": change.ExpenseId,
			"new_status": change.NewStatus,
		}).WithError(err).Error("publish status change")
	}
}

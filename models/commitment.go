package models

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sop/financialcontrol/config"
	"github.com/sop/financialcontrol/utils"
	"gorm.io/gorm"
)

type Commitment struct {
	ID               int             `gorm:"primary_key" json:"id"`
	CommitmentNumber string          `gorm:"size:10;not null;uniqueIndex" json:"commitment_number"`
	CommitmentDate   MyDate          `gorm:"type:date;not null;index" json:"commitment_date"`
	Amount           decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"amount"`
	Note             string          `gorm:"type:text" json:"note"`
	ExpenseId        int             `gorm:"index;not null" json:"expense_id"`
	Expense          *Expense        `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (c Commitment) GetId() int {
	return c.ID
}

type NewCommitment struct {
	CommitmentNumber string           `json:"commitment_number" validate:"notblank"`
	CommitmentDate   MyDate           `json:"commitment_date" validate:"required"`
	Amount           *decimal.Decimal `json:"amount" validate:"required,gt=0,lte=9999999999999.99"`
	Note             string           `json:"note" validate:"max=1000"`
	ExpenseId        int              `json:"expense_id" validate:"required"`
}

type CommitmentFilter struct {
	ExpenseId       *int
	FromDate        *MyDate
	ToDate          *MyDate
	WithoutPayments bool
	PartiallyPaid   bool
}

func commitmentNotFound(err error, field string, value any) error {
	if errors.Is(err, utils.ErrorRecordNotFound) {
		return utils.NewNotFoundError("Commitment", field, value)
	}
	return err
}

func duplicateCommitmentNumber(number string) error {
	return utils.NewBusinessRuleError("A commitment with commitment number %s already exists", number)
}

func (input *NewCommitment) validateFields() error {
	if input.Amount != nil {
		rounded := input.Amount.Round(amountScale)
		input.Amount = &rounded
	}
	return utils.ValidateStruct(input).ErrOrNil()
}

// validate number format, year and uniqueness. (id = 0 for create)
func (input *NewCommitment) validate(ctx context.Context, tx *gorm.DB, id int) error {
	if err := validateCommitmentNumber(input.CommitmentNumber, utils.NowFromContext(ctx).Year()); err != nil {
		return err
	}
	unique, err := utils.IsUnique[Commitment](ctx, tx, "commitment_number", input.CommitmentNumber, id)
	if err != nil {
		return err
	}
	if !unique {
		return duplicateCommitmentNumber(input.CommitmentNumber)
	}
	return nil
}

// lockCommitment locks the owning expense row, then the commitment row.
// Every writer takes the locks in this order.
func lockCommitment(ctx context.Context, tx *gorm.DB, commitmentId int) (*Expense, *Commitment, error) {
	current, err := utils.FetchModel[Commitment](ctx, tx, commitmentId)
	if err != nil {
		return nil, nil, commitmentNotFound(err, "id", commitmentId)
	}
	// expense_id never changes, so it is safe to read before locking
	expense, err := utils.FetchModelForUpdate[Expense](ctx, tx, current.ExpenseId)
	if err != nil {
		return nil, nil, expenseNotFound(err, "id", current.ExpenseId)
	}
	commitment, err := utils.FetchModelForUpdate[Commitment](ctx, tx, commitmentId)
	if err != nil {
		return nil, nil, commitmentNotFound(err, "id", commitmentId)
	}
	return expense, commitment, nil
}

func CreateCommitment(ctx context.Context, input *NewCommitment) (*Commitment, error) {
	if err := input.validateFields(); err != nil {
		return nil, err
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()

	if err := input.validate(ctx, tx, 0); err != nil {
		tx.Rollback()
		return nil, err
	}

	expense, err := utils.FetchModelForUpdate[Expense](ctx, tx, input.ExpenseId)
	if err != nil {
		tx.Rollback()
		return nil, expenseNotFound(err, "id", input.ExpenseId)
	}
	summary, err := getExpenseSummary(ctx, tx, expense.ID)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	remaining := summary.UncommittedAmount(expense.Amount)
	if input.Amount.GreaterThan(remaining) {
		tx.Rollback()
		return nil, utils.NewBusinessRuleError("Commitment amount exceeds the remaining expense amount. Remaining: %s", utils.FormatAmount(remaining))
	}

	commitment := Commitment{
		CommitmentNumber: input.CommitmentNumber,
		CommitmentDate:   input.CommitmentDate,
		Amount:           *input.Amount,
		Note:             input.Note,
		ExpenseId:        expense.ID,
	}
	if err := tx.Create(&commitment).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, duplicateCommitmentNumber(input.CommitmentNumber)
		}
		return nil, err
	}

	change, err := refreshExpenseStatus(ctx, tx, expense)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	notifyStatusChange(ctx, change, "commitment.create")
	return &commitment, nil
}

func UpdateCommitment(ctx context.Context, id int, input *NewCommitment) (*Commitment, error) {
	if err := input.validateFields(); err != nil {
		return nil, err
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()

	existing, err := utils.FetchModel[Commitment](ctx, tx, id)
	if err != nil {
		tx.Rollback()
		return nil, commitmentNotFound(err, "id", id)
	}
	if err := input.validate(ctx, tx, id); err != nil {
		tx.Rollback()
		return nil, err
	}
	if input.ExpenseId != existing.ExpenseId {
		tx.Rollback()
		return nil, utils.NewBusinessRuleError("Cannot change the expense associated with a commitment")
	}

	expense, commitment, err := lockCommitment(ctx, tx, id)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	paid, err := getCommitmentSummary(ctx, tx, id)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if input.Amount.LessThan(paid.TotalPaid) {
		tx.Rollback()
		return nil, utils.NewBusinessRuleError("Cannot reduce commitment amount below the total paid amount: %s", utils.FormatAmount(paid.TotalPaid))
	}

	summary, err := getExpenseSummary(ctx, tx, expense.ID)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	// capacity without this commitment's current amount
	remaining := summary.UncommittedAmount(expense.Amount).Add(commitment.Amount)
	if input.Amount.GreaterThan(remaining) {
		tx.Rollback()
		return nil, utils.NewBusinessRuleError("Commitment amount exceeds the remaining expense amount. Remaining: %s", utils.FormatAmount(remaining))
	}

	err = tx.Model(&Commitment{}).Where("id = ?", id).Updates(map[string]interface{}{
		"commitment_number": input.CommitmentNumber,
		"commitment_date":   input.CommitmentDate,
		"amount":            *input.Amount,
		"note":              input.Note,
	}).Error
	if err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, duplicateCommitmentNumber(input.CommitmentNumber)
		}
		return nil, err
	}
	if err := tx.First(commitment, id).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	change, err := refreshExpenseStatus(ctx, tx, expense)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	notifyStatusChange(ctx, change, "commitment.update")
	return commitment, nil
}

func DeleteCommitment(ctx context.Context, id int) (*Commitment, error) {
	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()

	expense, commitment, err := lockCommitment(ctx, tx, id)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	count, err := utils.ResourceCountWhere[Payment](ctx, tx, "commitment_id = ?", id)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if count > 0 {
		tx.Rollback()
		return nil, utils.NewBusinessRuleError("Cannot delete commitment with associated payments")
	}

	if err := tx.Delete(commitment).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	change, err := refreshExpenseStatus(ctx, tx, expense)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	notifyStatusChange(ctx, change, "commitment.delete")
	return commitment, nil
}

func GetCommitment(ctx context.Context, id int) (*Commitment, error) {
	commitment, err := utils.FetchModel[Commitment](ctx, config.GetDB(), id)
	if err != nil {
		return nil, commitmentNotFound(err, "id", id)
	}
	return commitment, nil
}

func GetCommitmentByNumber(ctx context.Context, number string) (*Commitment, error) {
	commitment, err := utils.FetchModelWhere[Commitment](ctx, config.GetDB(), "commitment_number = ?", number)
	if err != nil {
		return nil, commitmentNotFound(err, "commitment number", number)
	}
	return commitment, nil
}

// GetCommitmentsByExpenseId fails with NotFound when the expense does not exist.
func GetCommitmentsByExpenseId(ctx context.Context, expenseId int) ([]*Commitment, error) {
	if err := utils.ValidateResourceId[Expense](ctx, config.GetDB(), expenseId); err != nil {
		return nil, expenseNotFound(err, "id", expenseId)
	}
	return ListCommitments(ctx, &CommitmentFilter{ExpenseId: &expenseId})
}

func ListCommitments(ctx context.Context, filter *CommitmentFilter) ([]*Commitment, error) {
	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&Commitment{})
	if filter != nil {
		if filter.ExpenseId != nil {
			dbCtx = dbCtx.Where("commitments.expense_id = ?", *filter.ExpenseId)
		}
		if filter.FromDate != nil {
			dbCtx = dbCtx.Where("commitments.commitment_date >= ?", *filter.FromDate)
		}
		if filter.ToDate != nil {
			dbCtx = dbCtx.Where("commitments.commitment_date <= ?", *filter.ToDate)
		}
		if filter.WithoutPayments {
			dbCtx = dbCtx.Where("NOT EXISTS (SELECT 1 FROM payments WHERE payments.commitment_id = commitments.id)")
		}
		if filter.PartiallyPaid {
			paidTotals := db.Model(&Payment{}).
				Select("commitment_id, SUM(amount) AS total_paid").
				Group("commitment_id")
			dbCtx = dbCtx.
				Joins("JOIN (?) AS paid_totals ON paid_totals.commitment_id = commitments.id", paidTotals).
				Where("paid_totals.total_paid < commitments.amount")
		}
	}

	var results []*Commitment
	if err := dbCtx.Order("commitments.id").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sop/financialcontrol/config"
	"github.com/sop/financialcontrol/utils"
	"gorm.io/gorm"
)

type Expense struct {
	ID             int             `gorm:"primary_key" json:"id"`
	ProtocolNumber string          `gorm:"size:20;not null;uniqueIndex" json:"protocol_number"`
	ExpenseType    ExpenseType     `gorm:"size:20;not null;index" json:"expense_type"`
	ProtocolDate   MyDateTime      `gorm:"not null" json:"protocol_date"`
	DueDate        MyDate          `gorm:"type:date;not null;index" json:"due_date"`
	Creditor       string          `gorm:"size:255;not null" json:"creditor"`
	Description    string          `gorm:"type:text;not null" json:"description"`
	Amount         decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"amount"`
	Status         ExpenseStatus   `gorm:"size:30;not null;index" json:"status"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (e Expense) GetId() int {
	return e.ID
}

type NewExpense struct {
	ProtocolNumber string           `json:"protocol_number" validate:"notblank"`
	ExpenseType    ExpenseType      `json:"expense_type" validate:"required,oneof=BUILDING_WORK HIGHWAY_WORK OTHER"`
	ProtocolDate   MyDateTime       `json:"protocol_date" validate:"required"`
	DueDate        MyDate           `json:"due_date" validate:"required"`
	Creditor       string           `json:"creditor" validate:"notblank,max=255"`
	Description    string           `json:"description" validate:"notblank"`
	Amount         *decimal.Decimal `json:"amount" validate:"required,gt=0,lte=9999999999999.99"`
}

type ExpenseFilter struct {
	Status             *ExpenseStatus
	ExpenseType        *ExpenseType
	Creditor           string
	DueBefore          *MyDate
	WithoutCommitments bool
}

func expenseNotFound(err error, field string, value any) error {
	if errors.Is(err, utils.ErrorRecordNotFound) {
		return utils.NewNotFoundError("Expense", field, value)
	}
	return err
}

func duplicateProtocolNumber(protocolNumber string) error {
	return utils.NewBusinessRuleError("An expense with protocol number %s already exists", protocolNumber)
}

// structural checks, no store access
func (input *NewExpense) validateFields() error {
	if input.Amount != nil {
		rounded := input.Amount.Round(amountScale)
		input.Amount = &rounded
	}
	return utils.ValidateStruct(input).ErrOrNil()
}

// validate input for both create & update. (id = 0 for create)
func (input *NewExpense) validate(ctx context.Context, tx *gorm.DB, id int) error {
	if err := validateProtocolNumber(input.ProtocolNumber); err != nil {
		return err
	}
	unique, err := utils.IsUnique[Expense](ctx, tx, "protocol_number", input.ProtocolNumber, id)
	if err != nil {
		return err
	}
	if !unique {
		return duplicateProtocolNumber(input.ProtocolNumber)
	}
	return nil
}

func CreateExpense(ctx context.Context, input *NewExpense) (*Expense, error) {
	if err := input.validateFields(); err != nil {
		return nil, err
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()

	if err := input.validate(ctx, tx, 0); err != nil {
		tx.Rollback()
		return nil, err
	}

	expense := Expense{
		ProtocolNumber: input.ProtocolNumber,
		ExpenseType:    input.ExpenseType,
		ProtocolDate:   input.ProtocolDate,
		DueDate:        input.DueDate,
		Creditor:       input.Creditor,
		Description:    input.Description,
		Amount:         *input.Amount,
		Status:         ExpenseStatusAwaitingCommitment,
	}
	if err := tx.Create(&expense).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, duplicateProtocolNumber(input.ProtocolNumber)
		}
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &expense, nil
}

func UpdateExpense(ctx context.Context, id int, input *NewExpense) (*Expense, error) {
	if err := input.validateFields(); err != nil {
		return nil, err
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()

	expense, err := utils.FetchModelForUpdate[Expense](ctx, tx, id)
	if err != nil {
		tx.Rollback()
		return nil, expenseNotFound(err, "id", id)
	}
	if err := input.validate(ctx, tx, id); err != nil {
		tx.Rollback()
		return nil, err
	}

	summary, err := getExpenseSummary(ctx, tx, id)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if input.Amount.LessThan(summary.TotalCommitted) {
		tx.Rollback()
		return nil, utils.NewBusinessRuleError("Cannot reduce expense amount below the total committed amount: %s", utils.FormatAmount(summary.TotalCommitted))
	}

	oldStatus := expense.Status
	status := summary.Status(*input.Amount)
	err = tx.Model(&Expense{}).Where("id = ?", id).Updates(map[string]interface{}{
		"protocol_number": input.ProtocolNumber,
		"expense_type":    input.ExpenseType,
		"protocol_date":   input.ProtocolDate,
		"due_date":        input.DueDate,
		"creditor":        input.Creditor,
		"description":     input.Description,
		"amount":          *input.Amount,
		"status":          status,
	}).Error
	if err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, duplicateProtocolNumber(input.ProtocolNumber)
		}
		return nil, err
	}
	if err := tx.First(expense, id).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	if oldStatus != status {
		notifyStatusChange(ctx, &ExpenseStatusChange{
			ExpenseId:      id,
			ProtocolNumber: expense.ProtocolNumber,
			OldStatus:      oldStatus,
			NewStatus:      status,
		}, "expense.update")
	}
	return expense, nil
}

func DeleteExpense(ctx context.Context, id int) (*Expense, error) {
	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()

	expense, err := utils.FetchModelForUpdate[Expense](ctx, tx, id)
	if err != nil {
		tx.Rollback()
		return nil, expenseNotFound(err, "id", id)
	}

	count, err := utils.ResourceCountWhere[Commitment](ctx, tx, "expense_id = ?", id)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if count > 0 {
		tx.Rollback()
		return nil, utils.NewBusinessRuleError("Cannot delete expense with associated commitments")
	}

	if err := tx.Delete(expense).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return expense, nil
}

func GetExpense(ctx context.Context, id int) (*Expense, error) {
	expense, err := utils.FetchModel[Expense](ctx, config.GetDB(), id)
	if err != nil {
		return nil, expenseNotFound(err, "id", id)
	}
	return expense, nil
}

func GetExpenseByProtocolNumber(ctx context.Context, protocolNumber string) (*Expense, error) {
	expense, err := utils.FetchModelWhere[Expense](ctx, config.GetDB(), "protocol_number = ?", protocolNumber)
	if err != nil {
		return nil, expenseNotFound(err, "protocol number", protocolNumber)
	}
	return expense, nil
}

func GetExpensesByStatus(ctx context.Context, status ExpenseStatus) ([]*Expense, error) {
	return ListExpenses(ctx, &ExpenseFilter{Status: &status})
}

func ListExpenses(ctx context.Context, filter *ExpenseFilter) ([]*Expense, error) {
	dbCtx := config.GetDB().WithContext(ctx).Model(&Expense{})
	if filter != nil {
		if filter.Status != nil {
			dbCtx = dbCtx.Where("status = ?", *filter.Status)
		}
		if filter.ExpenseType != nil {
			dbCtx = dbCtx.Where("expense_type = ?", *filter.ExpenseType)
		}
		if creditor := strings.TrimSpace(filter.Creditor); creditor != "" {
			dbCtx = dbCtx.Where("LOWER(creditor) LIKE ?", "%"+strings.ToLower(creditor)+"%")
		}
		if filter.DueBefore != nil {
			dbCtx = dbCtx.Where("due_date < ?", *filter.DueBefore)
		}
		if filter.WithoutCommitments {
			dbCtx = dbCtx.Where("NOT EXISTS (SELECT 1 FROM commitments WHERE commitments.expense_id = expenses.id)")
		}
	}

	var results []*Expense
	if err := dbCtx.Order("id").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

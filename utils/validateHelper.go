package utils

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// report json field names
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return fld.Name
			}
			return name
		})
		validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
			if d, ok := field.Interface().(decimal.Decimal); ok {
				f, _ := d.Float64()
				return f
			}
			return nil
		}, decimal.Decimal{})
		_ = validate.RegisterValidation("notblank", validators.NotBlank)
	})
	return validate
}

// RegisterValidatorType lets model packages teach the validator about their value types.
func RegisterValidatorType(fn validator.CustomTypeFunc, types ...interface{}) {
	getValidator().RegisterCustomTypeFunc(fn, types...)
}

// ValidateStruct runs `validate` tags and converts failures into a *ValidationError.
func ValidateStruct(input any) *ValidationError {
	result := &ValidationError{}
	err := getValidator().Struct(input)
	if err == nil {
		return result
	}
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		result.Add("input", err.Error())
		return result
	}
	for _, fe := range fieldErrors {
		result.Add(fe.Field(), fieldMessage(fe))
	}
	return result
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required", "notblank":
		return field + " is required"
	case "gt":
		if fe.Param() == "0" {
			return field + " must be positive"
		}
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must not exceed %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	default:
		return field + " is invalid"
	}
}

// count records inside the given session (tx or db) using WHERE $condition
func ResourceCountWhere[T any](ctx context.Context, db *gorm.DB, condition string, value ...interface{}) (int64, error) {
	var model T
	var count int64
	err := db.WithContext(ctx).Model(&model).Where(condition, value...).Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// check if id exists, return RecordNotFound Error
func ValidateResourceId[T any](ctx context.Context, db *gorm.DB, id interface{}) error {
	count, err := ResourceCountWhere[T](ctx, db, "id = ?", id)
	if err != nil {
		return err
	}
	if count <= 0 {
		return ErrorRecordNotFound
	}
	return nil
}

// IsUnique reports whether no other row (except exceptId, when non-zero) has column = value.
func IsUnique[T any](ctx context.Context, db *gorm.DB, column string, value interface{}, exceptId int) (bool, error) {
	var count int64
	var err error
	if exceptId == 0 {
		count, err = ResourceCountWhere[T](ctx, db, column+" = ?", value)
	} else {
		count, err = ResourceCountWhere[T](ctx, db, column+" = ? AND NOT id = ?", value, exceptId)
	}
	if err != nil {
		return false, err
	}
	return count == 0, nil
}

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sop/financialcontrol/models"
	"github.com/sop/financialcontrol/utils"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("financial-control/handlers")

const (
	ErrorCodeNotFound     = "RESOURCE_NOT_FOUND"
	ErrorCodeBusinessRule = "BUSINESS_RULE_VIOLATION"
	ErrorCodeValidation   = "VALIDATION_ERROR"
	ErrorCodeInternal     = "INTERNAL_ERROR"
)

type ErrorResponse struct {
	Timestamp time.Time         `json:"timestamp"`
	Message   string            `json:"message"`
	Details   string            `json:"details"`
	ErrorCode string            `json:"error_code"`
	Errors    map[string]string `json:"errors,omitempty"`
}

func newErrorResponse(c *gin.Context, code string, message string) *ErrorResponse {
	return &ErrorResponse{
		Timestamp: utils.NowFromContext(c.Request.Context()).UTC(),
		Message:   message,
		Details:   "uri=" + c.Request.URL.Path,
		ErrorCode: code,
	}
}

// respondError maps the error kind to a status code and error body.
func respondError(c *gin.Context, err error) {
	var notFound *utils.NotFoundError
	var ruleErr *utils.BusinessRuleError
	var validationErr *utils.ValidationError

	switch {
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, newErrorResponse(c, ErrorCodeNotFound, notFound.Error()))
	case errors.As(err, &ruleErr):
		c.JSON(http.StatusBadRequest, newErrorResponse(c, ErrorCodeBusinessRule, ruleErr.Message))
	case errors.As(err, &validationErr):
		resp := newErrorResponse(c, ErrorCodeValidation, "Validation failed")
		resp.Errors = validationErr.Fields
		c.JSON(http.StatusBadRequest, resp)
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, newErrorResponse(c, ErrorCodeInternal, "An unexpected error occurred"))
	}
}

func invalidField(field string, message string) error {
	validationErr := &utils.ValidationError{}
	validationErr.Add(field, message)
	return validationErr
}

// bindJSON decodes the request body; malformed bodies are validation errors.
func bindJSON(c *gin.Context, obj any) error {
	if err := c.ShouldBindJSON(obj); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return invalidField(typeErr.Field, typeErr.Field+" has an invalid type")
		}
		return invalidField("body", err.Error())
	}
	return nil
}

func idParam(c *gin.Context, name string) (int, error) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		return 0, invalidField(name, name+" must be a positive integer")
	}
	return id, nil
}

func queryDate(c *gin.Context, key string) (*models.MyDate, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return nil, nil
	}
	date, err := models.ParseMyDate(value)
	if err != nil {
		return nil, invalidField(key, err.Error())
	}
	return &date, nil
}

func queryBool(c *gin.Context, key string) (bool, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, invalidField(key, key+" must be true or false")
	}
	return b, nil
}

func customNotFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, newErrorResponse(c, ErrorCodeNotFound, "route not found"))
}

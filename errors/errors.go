package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// Error is an error that knows which HTTP status it maps to.
type Error struct {
	Message string            `json:"message"`
	Status  int               `json:"-"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func (e *Error) Error() string {
	return e.Message
}

func New(message string, status int) *Error {
	return &Error{Message: message, Status: status}
}

var (
	ErrInternalServerError = New("internal server error", http.StatusInternalServerError)
	ErrNotFound            = New("not found", http.StatusNotFound)
	ErrForbidden           = New("forbidden", http.StatusForbidden)
	ErrUnauthorized        = New("unauthorized", http.StatusUnauthorized)
)

// FromValidation turns validator errors into a 400 with one entry per field.
// Errors of any other kind become a plain 400 carrying err's message.
func FromValidation(err error) *Error {
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return New(err.Error(), http.StatusBadRequest)
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[toSnake(fe.Field())] = describe(fe)
	}
	return &Error{Message: "validation failed", Status: http.StatusBadRequest, Fields: fields}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	default:
		return fmt.Sprintf("failed on %s", fe.Tag())
	}
}

// toSnake maps Go field names to their json names: ListingID -> listing_id.
func toSnake(s string) string {
	isUpper := func(r rune) bool { return r >= 'A' && r <= 'Z' }
	isLower := func(r rune) bool { return r >= 'a' && r <= 'z' }

	runes := []rune(s)
	var b strings.Builder
	for i, r := range runes {
		if isUpper(r) {
			if i > 0 && (isLower(runes[i-1]) || (i+1 < len(runes) && isLower(runes[i+1]) && isUpper(runes[i-1]))) {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

// GetUniqueContraintError reports duplicates as a 400 and anything else as a 500.
func GetUniqueContraintError(err error) *Error {
	if stderrors.Is(err, gorm.ErrDuplicatedKey) {
		return New("a record with the same unique value already exists", http.StatusBadRequest)
	}
	var e *Error
	if stderrors.As(err, &e) {
		return e
	}
	return ErrInternalServerError
}

// Status returns the HTTP status carried by err, or 500.
func Status(err error) int {
	var e *Error
	if stderrors.As(err, &e) && e.Status != 0 {
		return e.Status
	}
	return http.StatusInternalServerError
}

func ErrorHandler(c *gin.Context, info ratelimit.Info) {
	c.JSON(http.StatusTooManyRequests, gin.H{
		"message":   "too many requests",
		"data":      nil,
		"errors":    "try again in " + time.Until(info.ResetTime).Round(time.Second).String(),
		"status":    http.StatusText(http.StatusTooManyRequests),
		"timestamp": time.Now().Format(time.RFC850),
	})
}

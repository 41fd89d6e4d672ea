package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/localsolutions/board-api/internal/repository"
	"github.com/localsolutions/board-api/internal/usecase"
)

// ErrorCase maps a sentinel error to an HTTP status code and response message.
// An empty Message echoes the error text, which is only safe for validation errors.
type ErrorCase struct {
	Err     error
	Status  int
	Message string
}

// RespondWithMappedError resolves the provided error against known cases or falls back to a generic response.
func RespondWithMappedError(c *gin.Context, err error, cases []ErrorCase, fallbackStatus int, fallbackMessage string) {
	if err == nil {
		c.Status(http.StatusOK)
		return
	}

	for _, cs := range cases {
		if cs.Err == nil {
			continue
		}
		if errors.Is(err, cs.Err) {
			message := cs.Message
			if message == "" {
				message = validationMessage(err)
			}
			c.JSON(cs.Status, NewErrorResponse(c, message))
			return
		}
	}

	_ = c.Error(err)
	c.JSON(fallbackStatus, NewErrorResponse(c, fallbackMessage))
}

// validationMessage strips the sentinel prefix from an ErrInvalidInput chain.
func validationMessage(err error) string {
	msg := err.Error()
	if idx := strings.LastIndex(msg, usecase.ErrInvalidInput.Error()+": "); idx >= 0 {
		return msg[idx+len(usecase.ErrInvalidInput.Error())+2:]
	}
	return msg
}

// bindingMessage describes the first failed binding rule, or returns fallback for
// errors that are not field validations (malformed JSON, wrong types).
func bindingMessage(err error, fallback string) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fallback
	}

	fe := fieldErrs[0]
	field := jsonFieldName(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " is invalid"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	default:
		return field + " is invalid"
	}
}

func jsonFieldName(field string) string {
	r, size := utf8.DecodeRuneInString(field)
	if r == utf8.RuneError {
		return field
	}
	return string(unicode.ToLower(r)) + field[size:]
}

var (
	resourceErrorCases = []ErrorCase{
		{Err: usecase.ErrInvalidInput, Status: http.StatusBadRequest},
		{Err: usecase.ErrForbidden, Status: http.StatusForbidden, Message: "forbidden"},
		{Err: usecase.ErrMissingToken, Status: http.StatusUnauthorized, Message: usecase.ReasonMissingToken},
		{Err: repository.ErrNotFound, Status: http.StatusNotFound, Message: "not found"},
		{Err: repository.ErrConflict, Status: http.StatusConflict, Message: "conflict"},
	}

	registrationErrorCases = []ErrorCase{
		{Err: usecase.ErrInvalidInput, Status: http.StatusBadRequest},
		{Err: usecase.ErrUsernameTaken, Status: http.StatusConflict, Message: "username already taken"},
		{Err: usecase.ErrEmailTaken, Status: http.StatusConflict, Message: "email already registered"},
		{Err: usecase.ErrMobileTaken, Status: http.StatusConflict, Message: "mobile number already registered"},
	}

	loginErrorCases = []ErrorCase{
		{Err: usecase.ErrInvalidCredentials, Status: http.StatusUnauthorized, Message: "invalid credentials"},
	}
)

package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/in-nis/classplan/internal/apperr"
)

// ErrorBody is the error half of the response envelope.
type ErrorBody struct {
	Code    string `json:"code" example:"FORBIDDEN"`
	Message string `json:"message" example:"forbidden"`
}

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

type DataResponse struct {
	Data any `json:"data"`
}

func respond(c *gin.Context, status int, data any) {
	c.JSON(status, DataResponse{Data: data})
}

// fail writes err as an error envelope. Internal details stay in the log.
func fail(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	status := apperr.HTTPStatus(kind)

	message := err.Error()
	var appErr *apperr.Error
	if errors.As(err, &appErr) && appErr.Message != "" {
		message = appErr.Message
	}
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
		message = http.StatusText(status)
	}

	c.AbortWithStatusJSON(status, ErrorResponse{Error: ErrorBody{Code: string(kind), Message: message}})
}

// bindFailed turns a binding error into INVALID_INPUT naming the first bad field.
func bindFailed(c *gin.Context, err error) {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		fail(c, apperr.New(apperr.InvalidInput, "%s failed %q check", fe.Field(), fe.Tag()))
		return
	}
	fail(c, apperr.Wrap(apperr.InvalidInput, err, "malformed request body"))
}

func idParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		fail(c, apperr.New(apperr.InvalidInput, "%s must be a positive integer", name))
		return 0, false
	}
	return uint(id), true
}

// groupQuery reads the optional ?group= filter.
func groupQuery(c *gin.Context) (*int, bool) {
	raw := c.Query("group")
	if raw == "" {
		return nil, true
	}
	g, err := strconv.Atoi(raw)
	if err != nil || g <= 0 {
		fail(c, apperr.New(apperr.InvalidInput, "group must be a positive integer"))
		return nil, false
	}
	return &g, true
}

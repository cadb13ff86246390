package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// APIResponse is the JSON envelope every endpoint answers with. Status
// repeats the HTTP status code.
type APIResponse struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ValidationError describes one rejected request field.
type ValidationError struct {
	Code    string                 `json:"code,omitempty"`
	Field   string                 `json:"field,omitempty"`
	Message string                 `json:"message,omitempty"`
	Params  map[string]interface{} `json:"params,omitempty"`
}

// ListData wraps a list with its length, for clients that page.
type ListData struct {
	Rows  interface{} `json:"rows"`
	Total int64       `json:"total"`
}

func DataResponse(c echo.Context, status int, data interface{}) error {
	return c.JSON(status, APIResponse{
		Status:  status,
		Message: http.StatusText(status),
		Data:    data,
	})
}

func SuccessResponse(c echo.Context, data interface{}) error {
	return DataResponse(c, http.StatusOK, data)
}

func ListResponse(c echo.Context, rows interface{}, total int64) error {
	return SuccessResponse(c, ListData{Rows: rows, Total: total})
}

func BadRequestResponse(c echo.Context, errs []ValidationError) error {
	return DataResponse(c, http.StatusBadRequest, errs)
}

// InternalServerErrorResponse hides the cause; log it before calling.
func InternalServerErrorResponse(c echo.Context) error {
	return AppErrorResponse(c, InternalError("something went wrong"))
}

// AppErrorResponse writes the AppError wrapped by err as a one element
// list under its own status. Any other error is reported as ERR_INTERNAL.
func AppErrorResponse(c echo.Context, err error) error {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return InternalServerErrorResponse(c)
	}
	return DataResponse(c, appErr.Status, []*AppError{appErr})
}

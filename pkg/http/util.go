package http

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// QueryInt reads an int query parameter, returning def when it is absent
// or not a number.
func QueryInt(c echo.Context, name string, def int) int {
	v, err := strconv.Atoi(c.QueryParam(name))
	if err != nil {
		return def
	}
	return v
}

// QueryBool reads a bool query parameter; anything unparseable is false.
func QueryBool(c echo.Context, name string) bool {
	b, _ := strconv.ParseBool(c.QueryParam(name))
	return b
}

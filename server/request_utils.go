package server

import "github.com/labstack/echo/v4"

// safeGetRequestID reads the request ID from the response, falling back to the
// inbound header when the response has been swapped out or not yet populated.
func safeGetRequestID(c echo.Context) string {
	if resp := c.Response(); resp != nil {
		if id := resp.Header().Get(echo.HeaderXRequestID); id != "" {
			return id
		}
	}
	return c.Request().Header.Get(echo.HeaderXRequestID)
}

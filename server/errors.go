package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/krishimitra/api/internal/apperror"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const msgInternal = "Internal server error"

// handleError renders every error as the JSON envelope. App errors carry
// their own status; echo errors keep theirs; anything else is a 500.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, body := s.classify(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.Error(err),
			zap.String("method", c.Request().Method),
			zap.String("path", c.Path()),
			zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)))
	}

	var writeErr error
	if c.Request().Method == http.MethodHead {
		writeErr = c.NoContent(status)
	} else {
		writeErr = c.JSON(status, body)
	}
	if writeErr != nil {
		s.logger.Warn("failed to write error response", zap.Error(writeErr))
	}
}

func (s *Server) classify(err error) (int, Response) {
	if appErr, ok := apperror.As(err); ok {
		status := appErr.Kind.HTTPStatus()
		body := Response{Message: appErr.Message, Errors: appErr.Details}
		if status >= http.StatusInternalServerError && appErr.Err != nil {
			body.Error = appErr.Err.Error()
		}
		return status, body
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		body := Response{Message: httpErrorMessage(he)}
		if he.Code >= http.StatusInternalServerError && he.Internal != nil {
			body.Error = he.Internal.Error()
		}
		return he.Code, body
	}

	return http.StatusInternalServerError, Response{Message: msgInternal, Error: err.Error()}
}

func httpErrorMessage(he *echo.HTTPError) string {
	switch m := he.Message.(type) {
	case string:
		return m
	case error:
		return m.Error()
	case nil:
		return http.StatusText(he.Code)
	default:
		return fmt.Sprint(m)
	}
}

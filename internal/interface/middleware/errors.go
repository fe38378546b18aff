package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/hazard-reporting/internal/application"
	"github.com/oksasatya/hazard-reporting/pkg/response"
)

// HTTPStatus maps an error kind to its response status.
func HTTPStatus(k application.Kind) int {
	switch k {
	case application.KindValidation:
		return http.StatusBadRequest
	case application.KindUnauthorized:
		return http.StatusUnauthorized
	case application.KindForbidden:
		return http.StatusForbidden
	case application.KindNotFound:
		return http.StatusNotFound
	case application.KindInvalidTransition:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// WriteError aborts with the error envelope for err. Upstream causes are logged and
// never written to the client.
func WriteError(c *gin.Context, logger *logrus.Logger, err error) {
	ae := application.AsError(err)
	if ae.Kind == application.KindUpstream && logger != nil {
		logger.WithError(err).WithFields(logrus.Fields{
			"request_id": c.GetString("request_id"),
			"path":       c.FullPath(),
		}).Error("request failed")
	}
	var details any
	if len(ae.Fields) > 0 {
		details = ae.Fields
	}
	response.Error[any](c, HTTPStatus(ae.Kind), ae.Code, ae.Message, details)
}

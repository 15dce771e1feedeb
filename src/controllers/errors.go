package controllers

import (
	"net/http"

	"maidops/src/errs"

	"github.com/gin-gonic/gin"
)

// StatusFor maps an error kind to its HTTP status.
func StatusFor(err error) int {
	if err == nil {
		return http.StatusOK
	}
	switch errs.KindOf(err) {
	case errs.NotFound, errs.PricingNotFound:
		return http.StatusNotFound
	case errs.Forbidden:
		return http.StatusForbidden
	case errs.InvalidInput:
		return http.StatusBadRequest
	case errs.InvalidTransition:
		return http.StatusUnprocessableEntity
	case errs.PrerequisiteMissing:
		return http.StatusPreconditionFailed
	case errs.Conflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// ErrorBody is the JSON error envelope. Internal failures hide their detail.
func ErrorBody(status int, err error) gin.H {
	if status >= http.StatusInternalServerError {
		return gin.H{"error": http.StatusText(status), "kind": string(errs.Internal)}
	}
	kind := errs.KindOf(err)
	if kind == errs.Other {
		kind = errs.InvalidInput
	}
	return gin.H{"error": err.Error(), "kind": string(kind)}
}

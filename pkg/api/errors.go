package api

import (
	"errors"
	"net/http"

	"github.com/chriscow/postop-callsvc/pkg/callerrors"
	"github.com/gin-gonic/gin"
)

// writeError maps a callerrors.CallError's Kind to an HTTP status and
// writes the JSON error envelope: one typed error mapped at the API
// boundary, nothing further up the stack.
func writeError(c *gin.Context, err error) {
	var ce *callerrors.CallError
	if errors.As(err, &ce) {
		c.JSON(statusForKind(ce.Kind), gin.H{"error": ce.Message, "kind": ce.Kind})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

func statusForKind(kind callerrors.Kind) int {
	switch kind {
	case callerrors.KindStoreCorrupt:
		return http.StatusNotFound
	case callerrors.KindStoreTransient, callerrors.KindLLMUnavailable, callerrors.KindFabricUnavailable:
		return http.StatusServiceUnavailable
	case callerrors.KindSIPPermanent, callerrors.KindPolicyExhausted, callerrors.KindCancelled:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": message})
}

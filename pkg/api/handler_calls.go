package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// getCallHandler handles GET /calls/:id.
func (s *Server) getCallHandler(c *gin.Context) {
	id := c.Param("id")
	item, err := s.scheduler.CallByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// listCallsHandler handles GET /calls?patient_id=&from=&to=.
// patient_id returns that patient's full call history; from/to (RFC3339)
// without patient_id returns Pending items due in that window.
func (s *Server) listCallsHandler(c *gin.Context) {
	ctx := c.Request.Context()

	if patientID := c.Query("patient_id"); patientID != "" {
		items, err := s.scheduler.PatientCalls(ctx, patientID)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, items)
		return
	}

	from, to, ok := parseWindow(c)
	if !ok {
		return
	}
	items, err := s.scheduler.PendingCalls(ctx, from, to)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// patientCallsHandler handles GET /patients/:id/calls.
func (s *Server) patientCallsHandler(c *gin.Context) {
	items, err := s.scheduler.PatientCalls(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func parseWindow(c *gin.Context) (from, to time.Time, ok bool) {
	fromStr, toStr := c.Query("from"), c.Query("to")
	if fromStr == "" || toStr == "" {
		badRequest(c, "from and to query parameters are required when patient_id is absent")
		return from, to, false
	}
	var err error
	from, err = time.Parse(time.RFC3339, fromStr)
	if err != nil {
		badRequest(c, "invalid from: expected RFC3339")
		return from, to, false
	}
	to, err = time.Parse(time.RFC3339, toStr)
	if err != nil {
		badRequest(c, "invalid to: expected RFC3339")
		return from, to, false
	}
	return from, to, true
}

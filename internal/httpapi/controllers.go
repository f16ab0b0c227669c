package httpapi

import (
	"context"
	"errors"
	"net/http"

	"typed-kv-service/internal/auth"
	"typed-kv-service/internal/core/ports"
	"typed-kv-service/internal/core/service"

	"github.com/gin-gonic/gin"
)

// HealthController answers liveness checks.
type HealthController struct{}

func NewHealthController() *HealthController {
	return &HealthController{}
}

func (ctrl HealthController) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// CommandRequest is the body of POST /v1/commands.
type CommandRequest struct {
	Args []string `json:"args" binding:"required,min=1"`
}

// CommandController runs command lines sent as JSON.
type CommandController struct {
	svc ports.CommandService
}

func NewCommandController(svc ports.CommandService) *CommandController {
	return &CommandController{svc: svc}
}

// Execute answers {"result": ...} on success and {"error": "..."} when the
// command fails. Nil replies are JSON null.
func (ctrl CommandController) Execute(c *gin.Context) {
	var req CommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ERR invalid request body"})
		return
	}

	reply, err := ctrl.svc.Execute(c.Request.Context(), req.Args)
	if err != nil {
		c.JSON(statusOf(err), gin.H{"error": errorString(err)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": toJSON(reply)})
}

func toJSON(r ports.Reply) interface{} {
	switch r.Kind {
	case ports.StatusReply, ports.BulkReply:
		return r.Str
	case ports.IntegerReply:
		return r.Int
	case ports.ArrayReply:
		out := make([]interface{}, len(r.Elems))
		for i, e := range r.Elems {
			out[i] = toJSON(e)
		}
		return out
	default:
		return nil
	}
}

// StatusClientClosedRequest is the non-standard code for a request whose
// client went away before the reply was ready.
const StatusClientClosedRequest = 499

func statusOf(err error) int {
	switch {
	case errors.Is(err, context.Canceled):
		return StatusClientClosedRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	case errors.Is(err, auth.ErrNoAuth), errors.Is(err, auth.ErrWrongPass):
		return http.StatusUnauthorized
	default:
		return http.StatusBadRequest
	}
}

func errorString(err error) string {
	return service.ErrorString(err)
}

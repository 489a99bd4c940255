package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/specialistvlad/defigrid/internal/ctxlog"
	"github.com/specialistvlad/defigrid/internal/engine"
	"github.com/specialistvlad/defigrid/internal/flowerr"
	"github.com/specialistvlad/defigrid/internal/model"
)

// ExecuteRequest is the body of POST /executions.
type ExecuteRequest struct {
	Workflow  *model.WorkflowDefinition `json:"workflow" binding:"required"`
	Variables map[string]any            `json:"variables"`
	Secrets   map[string]string         `json:"secrets"`
}

// SignatureRequest is the body of POST .../signature.
type SignatureRequest struct {
	SignedPayload any `json:"signed_payload" binding:"required"`
}

// SigningErrorRequest is the body of POST .../signing-error.
type SigningErrorRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// Handler serves the execution API.
type Handler struct {
	engine *engine.Engine
}

// NewHandler creates a handler over e.
func NewHandler(e *engine.Engine) *Handler {
	return &Handler{engine: e}
}

func (h *Handler) CreateExecution(c *gin.Context) {
	var req ExecuteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	runReq := engine.Request{Variables: req.Variables, Secrets: req.Secrets}

	if wait, _ := strconv.ParseBool(c.Query("wait")); wait {
		res, err := h.engine.Run(c.Request.Context(), req.Workflow, runReq)
		if res == nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
		return
	}

	id, err := h.engine.Submit(c.Request.Context(), req.Workflow, runReq)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"execution_id": id})
}

func (h *Handler) GetExecution(c *gin.Context) {
	rec, err := h.engine.Status(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *Handler) GetLogs(c *gin.Context) {
	logs, err := h.engine.Logs(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs})
}

func (h *Handler) CancelExecution(c *gin.Context) {
	if err := h.engine.Cancel(c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "execution cancelled"})
}

func (h *Handler) ListApprovals(c *gin.Context) {
	pending, err := h.engine.Approvals(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"approvals": pending})
}

func (h *Handler) DeliverSignature(c *gin.Context) {
	var req SignatureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.engine.Deliver(c.Param("id"), c.Param("node"), req.SignedPayload); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "signature delivered"})
}

func (h *Handler) DeliverSigningError(c *gin.Context) {
	var req SigningErrorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.engine.DeliverError(c.Param("id"), c.Param("node"), req.Reason); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "signing error delivered"})
}

func (h *Handler) ValidateWorkflow(c *gin.Context) {
	var def model.WorkflowDefinition
	if err := c.ShouldBindJSON(&def); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.engine.Validate(c.Request.Context(), &def); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": true, "node_count": len(def.Nodes)})
}

func (h *Handler) ListNodeTypes(c *gin.Context) {
	types := h.engine.Types()
	names := make([]string, 0, len(types))
	for _, t := range types {
		names = append(names, t.String())
	}
	c.JSON(http.StatusOK, gin.H{"node_types": names})
}

func (h *Handler) Health(c *gin.Context) {
	ctxlog.FromContext(c.Request.Context()).Debug("Health check endpoint hit.", "remote_addr", c.ClientIP())
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func writeError(c *gin.Context, err error) {
	var wfErr *flowerr.WorkflowError
	switch {
	case errors.As(err, &wfErr):
		problems := make([]string, 0, len(wfErr.Problems))
		for _, p := range wfErr.Problems {
			problems = append(problems, p.Error())
		}
		c.JSON(http.StatusUnprocessableEntity, gin.H{"valid": false, "error": err.Error(), "problems": problems})
	case errors.Is(err, flowerr.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		ctxlog.FromContext(c.Request.Context()).Error("Request failed.", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

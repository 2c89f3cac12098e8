package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/landbridge/contract-ledger/internal/http/middleware"
	"github.com/landbridge/contract-ledger/internal/service"
)

type Handler struct {
	contracts *service.ContractService
	baselines *service.BaselineService
	ledger    *service.LedgerService
	requests  *service.ChangeRequestService
	log       zerolog.Logger
}

func NewHandler(
	contracts *service.ContractService,
	baselines *service.BaselineService,
	ledger *service.LedgerService,
	requests *service.ChangeRequestService,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		contracts: contracts,
		baselines: baselines,
		ledger:    ledger,
		requests:  requests,
		log:       log,
	}
}

func (h *Handler) Register(router *gin.Engine, authMiddleware gin.HandlerFunc) {
	protected := router.Group("/")
	protected.Use(authMiddleware)

	protected.GET("/contracts/:id", h.getContract)
	protected.POST("/contracts/:id/activate", h.activateContract)
	protected.POST("/contracts/:id/versions", h.createVersion)
	protected.GET("/contracts/:id/versions", h.listVersions)
	protected.POST("/contracts/:id/baseline", h.createBaseline)
	protected.GET("/contracts/:id/baseline", h.getBaseline)
	protected.GET("/contracts/:id/state", h.getCurrentState)
	protected.GET("/contracts/:id/billing", h.getCurrentBilling)
	protected.GET("/contracts/:id/events", h.listContractEvents)
	protected.GET("/contracts/:id/export", h.exportStatement)
	protected.POST("/contracts/:id/change-requests", h.createChangeRequest)
	protected.GET("/contracts/:id/change-requests", h.listChangeRequests)

	protected.GET("/change-requests/:id", h.getChangeRequest)
	protected.PUT("/change-requests/:id", h.updateChangeRequest)
	protected.DELETE("/change-requests/:id", h.deleteChangeRequest)
	protected.POST("/change-requests/:id/submit", h.submitChangeRequest)
	protected.POST("/change-requests/:id/resubmit", h.resubmitChangeRequest)
	protected.POST("/change-requests/:id/review", h.reviewChangeRequest)
	protected.POST("/change-requests/:id/cancel", h.cancelChangeRequest)
	protected.POST("/change-requests/:id/terminate", h.terminateChangeRequest)
	protected.GET("/change-requests/:id/history", h.listHistory)
	protected.GET("/change-requests/:id/attachments", h.listAttachments)
	protected.GET("/change-requests/:id/events", h.listChangeRequestEvents)
	protected.POST("/change-requests/:id/resource-events", h.recordResourceEvent)
	protected.POST("/change-requests/:id/billing-events", h.recordBillingEvent)
	protected.GET("/change-requests/:id/appendix.pdf", h.renderAppendix)
}

func (h *Handler) getContract(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	contract, err := h.contracts.Get(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, contractResponseFrom(*contract))
}

func (h *Handler) activateContract(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	if err := h.contracts.Activate(c.Request.Context(), id, principal); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "activated"})
}

func (h *Handler) createVersion(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	version, err := h.contracts.CreateNewVersion(c.Request.Context(), id, principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, contractResponseFrom(*version))
}

func (h *Handler) listVersions(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	versions, err := h.contracts.ListVersions(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response := make([]contractResponse, 0, len(versions))
	for _, version := range versions {
		response = append(response, contractResponseFrom(version))
	}
	c.JSON(http.StatusOK, gin.H{"versions": response})
}

func (h *Handler) createBaseline(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	if err := h.baselines.CreateBaseline(c.Request.Context(), id); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) getBaseline(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	baseline, err := h.baselines.GetBaseline(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, baselineResponseFrom(*baseline))
}

func (h *Handler) getCurrentState(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	asOf, err := parseDate(c.DefaultQuery("as_of", time.Now().UTC().Format("2006-01-02")))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid as_of"})
		return
	}

	state, err := h.ledger.CurrentState(c.Request.Context(), id, asOf)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, ledgerStateResponseFrom(*state))
}

func (h *Handler) getCurrentBilling(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	month, err := parseDate(c.Query("month"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid month"})
		return
	}

	total, err := h.ledger.CurrentBilling(c.Request.Context(), id, month)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"contract_id": id.String(),
		"month":       month.Format("2006-01"),
		"total":       total.StringFixed(2),
	})
}

func (h *Handler) listContractEvents(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	filter := service.EventFilter{Type: c.Query("type")}
	if raw := c.Query("from"); raw != "" {
		from, err := parseDate(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from"})
			return
		}
		filter.From = &from
	}
	if raw := c.Query("to"); raw != "" {
		to, err := parseDate(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to"})
			return
		}
		filter.To = &to
	}

	resources, billing, err := h.ledger.Events(c.Request.Context(), id, filter)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, eventsResponseFrom(resources, billing))
}

func (h *Handler) exportStatement(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	asOf, err := parseDate(c.DefaultQuery("as_of", time.Now().UTC().Format("2006-01-02")))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid as_of"})
		return
	}

	result, err := h.ledger.ExportStatement(c.Request.Context(), id, asOf)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", result.Content)
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidState):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		h.log.Error().Err(err).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func (h *Handler) pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return uuid.Nil, false
	}
	return id, true
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, service.ErrInvalidInput
	}
	layouts := []string{
		"2006-01-02",
		time.RFC3339,
		"2006-01",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, service.ErrInvalidInput
}

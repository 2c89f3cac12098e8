package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/landbridge/contract-ledger/internal/http/middleware"
	"github.com/landbridge/contract-ledger/internal/model"
	"github.com/landbridge/contract-ledger/internal/service"
)

type changeRequestRequest struct {
	Title             string              `json:"title" binding:"required"`
	Type              string              `json:"type" binding:"required"`
	Description       string              `json:"description"`
	Reason            string              `json:"reason"`
	EffectiveFrom     string              `json:"effective_from"`
	ExpectedExtraCost string              `json:"expected_extra_cost"`
	Attachments       []attachmentRequest `json:"attachments"`
}

type attachmentRequest struct {
	FileName string `json:"file_name" binding:"required"`
	FileSize int64  `json:"file_size"`
	FileType string `json:"file_type"`
}

func (h *Handler) createChangeRequest(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	contractID, ok := h.pathID(c)
	if !ok {
		return
	}

	var req changeRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	input := service.CreateChangeRequestInput{
		ContractID:  contractID,
		Title:       req.Title,
		Type:        model.ChangeRequestType(req.Type),
		Description: req.Description,
		Reason:      req.Reason,
	}
	if req.EffectiveFrom != "" {
		effective, err := parseDate(req.EffectiveFrom)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid effective_from"})
			return
		}
		input.EffectiveFrom = &effective
	}
	if req.ExpectedExtraCost != "" {
		cost, err := decimal.NewFromString(req.ExpectedExtraCost)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid expected_extra_cost"})
			return
		}
		input.ExpectedExtraCost = cost
	}
	for _, attachment := range req.Attachments {
		input.Attachments = append(input.Attachments, model.ChangeRequestAttachment{
			FileName:   attachment.FileName,
			FileSize:   attachment.FileSize,
			FileType:   attachment.FileType,
			UploadedBy: principal.UserID,
		})
	}

	cr, err := h.requests.Create(c.Request.Context(), input, principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, changeRequestResponseFrom(*cr))
}

func (h *Handler) listChangeRequests(c *gin.Context) {
	contractID, ok := h.pathID(c)
	if !ok {
		return
	}

	requests, err := h.requests.ListByContract(c.Request.Context(), contractID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response := make([]changeRequestResponse, 0, len(requests))
	for _, cr := range requests {
		response = append(response, changeRequestResponseFrom(cr))
	}
	c.JSON(http.StatusOK, gin.H{"change_requests": response})
}

func (h *Handler) getChangeRequest(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	cr, err := h.requests.Get(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, changeRequestResponseFrom(*cr))
}

func (h *Handler) updateChangeRequest(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	var req changeRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	input := service.UpdateChangeRequestInput{
		Title:       req.Title,
		Type:        model.ChangeRequestType(req.Type),
		Description: req.Description,
		Reason:      req.Reason,
	}
	if req.EffectiveFrom != "" {
		effective, err := parseDate(req.EffectiveFrom)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid effective_from"})
			return
		}
		input.EffectiveFrom = &effective
	}
	if req.ExpectedExtraCost != "" {
		cost, err := decimal.NewFromString(req.ExpectedExtraCost)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid expected_extra_cost"})
			return
		}
		input.ExpectedExtraCost = cost
	}

	if err := h.requests.Update(c.Request.Context(), id, input, principal); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

func (h *Handler) deleteChangeRequest(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	if err := h.requests.Delete(c.Request.Context(), id, principal); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (h *Handler) submitChangeRequest(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	var req struct {
		ReviewerID string `json:"reviewer_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	reviewerID, err := uuid.Parse(req.ReviewerID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid reviewer_id"})
		return
	}

	if err := h.requests.Submit(c.Request.Context(), id, reviewerID, principal); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "submitted"})
}

func (h *Handler) resubmitChangeRequest(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	if err := h.requests.Resubmit(c.Request.Context(), id, principal); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "resubmitted"})
}

func (h *Handler) reviewChangeRequest(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	var req struct {
		Action string `json:"action" binding:"required"`
		Note   string `json:"note"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.requests.Review(c.Request.Context(), id, model.ReviewAction(req.Action), req.Note, principal); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "reviewed"})
}

func (h *Handler) cancelChangeRequest(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	if err := h.requests.Cancel(c.Request.Context(), id, principal); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
}

func (h *Handler) terminateChangeRequest(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.requests.Terminate(c.Request.Context(), id, req.Reason, principal); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "terminated"})
}

func (h *Handler) listHistory(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	history, err := h.requests.History(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response := make([]historyResponse, 0, len(history))
	for _, entry := range history {
		response = append(response, historyResponseFrom(entry))
	}
	c.JSON(http.StatusOK, gin.H{"history": response})
}

func (h *Handler) listAttachments(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	attachments, err := h.requests.Attachments(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response := make([]attachmentResponse, 0, len(attachments))
	for _, attachment := range attachments {
		response = append(response, attachmentResponseFrom(attachment))
	}
	c.JSON(http.StatusOK, gin.H{"attachments": response})
}

func (h *Handler) listChangeRequestEvents(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	resources, billing, err := h.ledger.EventsByChangeRequest(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, eventsResponseFrom(resources, billing))
}

type resourceEventRequest struct {
	Action         string   `json:"action" binding:"required"`
	EngineerID     string   `json:"engineer_id"`
	Role           *string  `json:"role"`
	Level          *string  `json:"level"`
	Rating         *float64 `json:"rating"`
	BillingType    *string  `json:"billing_type"`
	HourlyRate     *string  `json:"hourly_rate"`
	Hours          *string  `json:"hours"`
	MonthlySalary  *string  `json:"monthly_salary"`
	StartDate      *string  `json:"start_date"`
	EndDate        *string  `json:"end_date"`
	EffectiveStart string   `json:"effective_start" binding:"required"`
}

func (h *Handler) recordResourceEvent(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	var req resourceEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	input := service.RecordResourceEventInput{
		ChangeRequestID: id,
		Action:          model.ResourceAction(req.Action),
		Role:            req.Role,
		Level:           req.Level,
		Rating:          req.Rating,
	}

	effectiveStart, err := parseDate(req.EffectiveStart)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid effective_start"})
		return
	}
	input.EffectiveStart = effectiveStart

	if req.EngineerID != "" {
		engineerID, err := uuid.Parse(req.EngineerID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid engineer_id"})
			return
		}
		input.EngineerID = engineerID
	}
	if req.BillingType != nil {
		billingType := model.BillingType(*req.BillingType)
		input.BillingType = &billingType
	}
	if req.HourlyRate != nil {
		rate, err := decimal.NewFromString(*req.HourlyRate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid hourly_rate"})
			return
		}
		input.HourlyRate = &rate
	}
	if req.Hours != nil {
		hours, err := decimal.NewFromString(*req.Hours)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid hours"})
			return
		}
		input.Hours = &hours
	}
	if req.MonthlySalary != nil {
		salary, err := decimal.NewFromString(*req.MonthlySalary)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid monthly_salary"})
			return
		}
		input.MonthlySalary = &salary
	}
	if req.StartDate != nil {
		start, err := parseDate(*req.StartDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start_date"})
			return
		}
		input.StartDate = &start
	}
	if req.EndDate != nil {
		end, err := parseDate(*req.EndDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end_date"})
			return
		}
		input.EndDate = &end
	}

	event, err := h.ledger.RecordResourceEvent(c.Request.Context(), input)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resourceEventResponseFrom(*event))
}

func (h *Handler) recordBillingEvent(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	var req struct {
		BillingMonth string `json:"billing_month" binding:"required"`
		DeltaAmount  string `json:"delta_amount" binding:"required"`
		Description  string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	month, err := parseDate(req.BillingMonth)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid billing_month"})
		return
	}
	delta, err := decimal.NewFromString(req.DeltaAmount)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid delta_amount"})
		return
	}

	event, err := h.ledger.RecordBillingEvent(c.Request.Context(), id, month, delta, req.Description)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, billingEventResponseFrom(*event))
}

func (h *Handler) renderAppendix(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	result, err := h.requests.RenderAppendix(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, "application/pdf", result.Content)
}

package http

import (
	"time"

	"github.com/landbridge/contract-ledger/internal/model"
)

type contractResponse struct {
	ID              string  `json:"id"`
	Kind            string  `json:"kind"`
	Name            string  `json:"name"`
	ClientID        string  `json:"client_id"`
	EngagementType  string  `json:"engagement_type"`
	Status          string  `json:"status"`
	Version         int     `json:"version"`
	ParentVersionID *string `json:"parent_version_id,omitempty"`
	BaseTotalAmount string  `json:"base_total_amount"`
	PeriodStart     string  `json:"period_start"`
	PeriodEnd       string  `json:"period_end"`
	CreatedAt       string  `json:"created_at"`
}

func contractResponseFrom(c model.Contract) contractResponse {
	response := contractResponse{
		ID:              c.ID.String(),
		Kind:            string(c.Kind),
		Name:            c.Name,
		ClientID:        c.ClientID.String(),
		EngagementType:  string(c.EngagementType),
		Status:          string(c.Status),
		Version:         c.Version,
		BaseTotalAmount: c.BaseTotalAmount.StringFixed(2),
		PeriodStart:     c.PeriodStart.Format("2006-01-02"),
		PeriodEnd:       c.PeriodEnd.Format("2006-01-02"),
		CreatedAt:       c.CreatedAt.Format(time.RFC3339),
	}
	if c.ParentVersionID != nil {
		parent := c.ParentVersionID.String()
		response.ParentVersionID = &parent
	}
	return response
}

type changeRequestResponse struct {
	ID                 string  `json:"id"`
	DisplayID          string  `json:"display_id"`
	ContractID         string  `json:"contract_id"`
	Title              string  `json:"title"`
	Type               string  `json:"type"`
	Description        string  `json:"description,omitempty"`
	Reason             string  `json:"reason,omitempty"`
	EffectiveFrom      *string `json:"effective_from,omitempty"`
	ExpectedExtraCost  string  `json:"expected_extra_cost"`
	Status             string  `json:"status"`
	CreatedBy          string  `json:"created_by"`
	InternalReviewerID *string `json:"internal_reviewer_id,omitempty"`
	ApprovedBy         *string `json:"approved_by,omitempty"`
	ApprovedAt         *string `json:"approved_at,omitempty"`
	CreatedAt          string  `json:"created_at"`
	UpdatedAt          string  `json:"updated_at"`
}

func changeRequestResponseFrom(cr model.ChangeRequest) changeRequestResponse {
	response := changeRequestResponse{
		ID:                cr.ID.String(),
		DisplayID:         cr.DisplayID,
		ContractID:        cr.ContractID.String(),
		Title:             cr.Title,
		Type:              string(cr.Type),
		Description:       cr.Description,
		Reason:            cr.Reason,
		ExpectedExtraCost: cr.ExpectedExtraCost.StringFixed(2),
		Status:            string(cr.Status),
		CreatedBy:         cr.CreatedBy.String(),
		CreatedAt:         cr.CreatedAt.Format(time.RFC3339),
		UpdatedAt:         cr.UpdatedAt.Format(time.RFC3339),
	}
	if cr.EffectiveFrom != nil {
		effective := cr.EffectiveFrom.Format("2006-01-02")
		response.EffectiveFrom = &effective
	}
	if cr.InternalReviewerID != nil {
		reviewer := cr.InternalReviewerID.String()
		response.InternalReviewerID = &reviewer
	}
	if cr.ApprovedBy != nil {
		approver := cr.ApprovedBy.String()
		response.ApprovedBy = &approver
	}
	if cr.ApprovedAt != nil {
		approvedAt := cr.ApprovedAt.Format(time.RFC3339)
		response.ApprovedAt = &approvedAt
	}
	return response
}

type historyResponse struct {
	ID         string `json:"id"`
	Action     string `json:"action"`
	FromStatus string `json:"from_status,omitempty"`
	ToStatus   string `json:"to_status,omitempty"`
	Note       string `json:"note,omitempty"`
	CreatedBy  string `json:"created_by"`
	CreatedAt  string `json:"created_at"`
}

func historyResponseFrom(entry model.ChangeRequestHistory) historyResponse {
	return historyResponse{
		ID:         entry.ID.String(),
		Action:     entry.Action,
		FromStatus: string(entry.FromStatus),
		ToStatus:   string(entry.ToStatus),
		Note:       entry.Note,
		CreatedBy:  entry.CreatedBy.String(),
		CreatedAt:  entry.CreatedAt.Format(time.RFC3339),
	}
}

type attachmentResponse struct {
	ID         string `json:"id"`
	FileName   string `json:"file_name"`
	FileSize   int64  `json:"file_size"`
	FileType   string `json:"file_type"`
	UploadedBy string `json:"uploaded_by"`
	CreatedAt  string `json:"created_at"`
}

func attachmentResponseFrom(attachment model.ChangeRequestAttachment) attachmentResponse {
	return attachmentResponse{
		ID:         attachment.ID.String(),
		FileName:   attachment.FileName,
		FileSize:   attachment.FileSize,
		FileType:   attachment.FileType,
		UploadedBy: attachment.UploadedBy.String(),
		CreatedAt:  attachment.CreatedAt.Format(time.RFC3339),
	}
}

type resourceEventResponse struct {
	ID              string   `json:"id"`
	ChangeRequestID string   `json:"change_request_id"`
	Action          string   `json:"action"`
	EngineerID      string   `json:"engineer_id"`
	Role            *string  `json:"role,omitempty"`
	Level           *string  `json:"level,omitempty"`
	Rating          *float64 `json:"rating,omitempty"`
	BillingType     *string  `json:"billing_type,omitempty"`
	HourlyRate      *string  `json:"hourly_rate,omitempty"`
	Hours           *string  `json:"hours,omitempty"`
	MonthlySalary   *string  `json:"monthly_salary,omitempty"`
	StartDate       *string  `json:"start_date,omitempty"`
	EndDate         *string  `json:"end_date,omitempty"`
	EffectiveStart  string   `json:"effective_start"`
	CreatedAt       string   `json:"created_at"`
}

func resourceEventResponseFrom(event model.ResourceEvent) resourceEventResponse {
	response := resourceEventResponse{
		ID:              event.ID.String(),
		ChangeRequestID: event.ChangeRequestID.String(),
		Action:          string(event.Action),
		EngineerID:      event.EngineerID.String(),
		Role:            event.Role,
		Level:           event.Level,
		Rating:          event.Rating,
		EffectiveStart:  event.EffectiveStart.Format("2006-01-02"),
		CreatedAt:       event.CreatedAt.Format(time.RFC3339),
	}
	if event.BillingType != nil {
		billingType := string(*event.BillingType)
		response.BillingType = &billingType
	}
	if event.HourlyRate != nil {
		rate := event.HourlyRate.StringFixed(2)
		response.HourlyRate = &rate
	}
	if event.Hours != nil {
		hours := event.Hours.String()
		response.Hours = &hours
	}
	if event.MonthlySalary != nil {
		salary := event.MonthlySalary.StringFixed(2)
		response.MonthlySalary = &salary
	}
	if event.StartDate != nil {
		start := event.StartDate.Format("2006-01-02")
		response.StartDate = &start
	}
	if event.EndDate != nil {
		end := event.EndDate.Format("2006-01-02")
		response.EndDate = &end
	}
	return response
}

type billingEventResponse struct {
	ID              string `json:"id"`
	ChangeRequestID string `json:"change_request_id"`
	BillingMonth    string `json:"billing_month"`
	DeltaAmount     string `json:"delta_amount"`
	Description     string `json:"description,omitempty"`
	CreatedAt       string `json:"created_at"`
}

func billingEventResponseFrom(event model.BillingEvent) billingEventResponse {
	return billingEventResponse{
		ID:              event.ID.String(),
		ChangeRequestID: event.ChangeRequestID.String(),
		BillingMonth:    event.BillingMonth.Format("2006-01"),
		DeltaAmount:     event.DeltaAmount.StringFixed(2),
		Description:     event.Description,
		CreatedAt:       event.CreatedAt.Format(time.RFC3339),
	}
}

type eventsResponse struct {
	ResourceEvents []resourceEventResponse `json:"resource_events"`
	BillingEvents  []billingEventResponse  `json:"billing_events"`
}

func eventsResponseFrom(resources []model.ResourceEvent, billing []model.BillingEvent) eventsResponse {
	response := eventsResponse{
		ResourceEvents: make([]resourceEventResponse, 0, len(resources)),
		BillingEvents:  make([]billingEventResponse, 0, len(billing)),
	}
	for _, event := range resources {
		response.ResourceEvents = append(response.ResourceEvents, resourceEventResponseFrom(event))
	}
	for _, event := range billing {
		response.BillingEvents = append(response.BillingEvents, billingEventResponseFrom(event))
	}
	return response
}

type engineerStateResponse struct {
	EngineerID    string  `json:"engineer_id"`
	Role          string  `json:"role"`
	Level         string  `json:"level"`
	Rating        float64 `json:"rating"`
	BillingType   string  `json:"billing_type"`
	HourlyRate    *string `json:"hourly_rate,omitempty"`
	Hours         *string `json:"hours,omitempty"`
	MonthlySalary *string `json:"monthly_salary,omitempty"`
	StartDate     string  `json:"start_date"`
	EndDate       *string `json:"end_date,omitempty"`
}

func engineerStateResponseFrom(state model.EngineerState) engineerStateResponse {
	response := engineerStateResponse{
		EngineerID:  state.EngineerID.String(),
		Role:        state.Role,
		Level:       state.Level,
		Rating:      state.Rating,
		BillingType: string(state.BillingType),
		StartDate:   state.StartDate.Format("2006-01-02"),
	}
	if state.HourlyRate != nil {
		rate := state.HourlyRate.StringFixed(2)
		response.HourlyRate = &rate
	}
	if state.Hours != nil {
		hours := state.Hours.String()
		response.Hours = &hours
	}
	if state.MonthlySalary != nil {
		salary := state.MonthlySalary.StringFixed(2)
		response.MonthlySalary = &salary
	}
	if state.EndDate != nil {
		end := state.EndDate.Format("2006-01-02")
		response.EndDate = &end
	}
	return response
}

type ledgerStateResponse struct {
	ContractID   string                  `json:"contract_id"`
	AsOf         string                  `json:"as_of"`
	Engineers    []engineerStateResponse `json:"engineers"`
	BillingMonth string                  `json:"billing_month"`
	BillingTotal string                  `json:"billing_total"`
}

func ledgerStateResponseFrom(state model.LedgerState) ledgerStateResponse {
	response := ledgerStateResponse{
		ContractID:   state.ContractID.String(),
		AsOf:         state.AsOf.Format("2006-01-02"),
		Engineers:    make([]engineerStateResponse, 0, len(state.Engineers)),
		BillingMonth: state.BillingMonth.Format("2006-01"),
		BillingTotal: state.BillingTotal.StringFixed(2),
	}
	for _, engineer := range state.Engineers {
		response.Engineers = append(response.Engineers, engineerStateResponseFrom(engineer))
	}
	return response
}

type baselineEngineerResponse struct {
	ID            string  `json:"id"`
	Role          string  `json:"role"`
	Level         string  `json:"level"`
	Rating        float64 `json:"rating"`
	BillingType   string  `json:"billing_type"`
	HourlyRate    *string `json:"hourly_rate,omitempty"`
	Hours         *string `json:"hours,omitempty"`
	MonthlySalary *string `json:"monthly_salary,omitempty"`
	StartDate     string  `json:"start_date"`
	EndDate       *string `json:"end_date,omitempty"`
}

type baselineBillingMonthResponse struct {
	ID           string `json:"id"`
	BillingMonth string `json:"billing_month"`
	Amount       string `json:"amount"`
	Description  string `json:"description,omitempty"`
}

type baselineResponse struct {
	Engineers     []baselineEngineerResponse     `json:"engineers"`
	BillingMonths []baselineBillingMonthResponse `json:"billing_months"`
}

func baselineResponseFrom(baseline model.Baseline) baselineResponse {
	response := baselineResponse{
		Engineers:     make([]baselineEngineerResponse, 0, len(baseline.Engineers)),
		BillingMonths: make([]baselineBillingMonthResponse, 0, len(baseline.BillingMonths)),
	}
	for _, engineer := range baseline.Engineers {
		entry := baselineEngineerResponse{
			ID:          engineer.ID.String(),
			Role:        engineer.Role,
			Level:       engineer.Level,
			Rating:      engineer.Rating,
			BillingType: string(engineer.BillingType),
			StartDate:   engineer.StartDate.Format("2006-01-02"),
		}
		if engineer.HourlyRate != nil {
			rate := engineer.HourlyRate.StringFixed(2)
			entry.HourlyRate = &rate
		}
		if engineer.Hours != nil {
			hours := engineer.Hours.String()
			entry.Hours = &hours
		}
		if engineer.MonthlySalary != nil {
			salary := engineer.MonthlySalary.StringFixed(2)
			entry.MonthlySalary = &salary
		}
		if engineer.EndDate != nil {
			end := engineer.EndDate.Format("2006-01-02")
			entry.EndDate = &end
		}
		response.Engineers = append(response.Engineers, entry)
	}
	for _, month := range baseline.BillingMonths {
		response.BillingMonths = append(response.BillingMonths, baselineBillingMonthResponse{
			ID:           month.ID.String(),
			BillingMonth: month.BillingMonth.Format("2006-01"),
			Amount:       month.Amount.StringFixed(2),
			Description:  month.Description,
		})
	}
	return response
}

package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/landbridge/contract-ledger/internal/model"
)

type ChangeRequestRepository struct {
	db *gorm.DB
}

func NewChangeRequestRepository(db *gorm.DB) *ChangeRequestRepository {
	return &ChangeRequestRepository{db: db}
}

const changeRequestColumns = `
	id,
	display_id,
	contract_id,
	title,
	type,
	description,
	reason,
	effective_from,
	expected_extra_cost,
	status,
	created_by,
	internal_reviewer_id,
	approved_by,
	approved_at,
	created_at,
	updated_at
`

// Create inserts the change request, its attachments and the first history
// row in one transaction. The display id CR-YYYY-NN comes from a per-year
// sequence row bumped inside the same transaction, so concurrent creates
// never share a number.
func (r *ChangeRequestRepository) Create(
	ctx context.Context,
	cr model.ChangeRequest,
	attachments []model.ChangeRequestAttachment,
) (*model.ChangeRequest, error) {
	var saved model.ChangeRequest
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		year := time.Now().UTC().Year()

		var number int
		err := tx.Raw(`
			INSERT INTO change_request_sequences (year, next_number)
			VALUES (?, 2)
			ON CONFLICT (year) DO UPDATE SET next_number = change_request_sequences.next_number + 1
			RETURNING next_number - 1
		`, year).Scan(&number).Error
		if err != nil {
			return err
		}
		displayID := fmt.Sprintf("CR-%d-%02d", year, number)

		err = tx.Raw(`
			INSERT INTO change_requests (
				display_id,
				contract_id,
				title,
				type,
				description,
				reason,
				effective_from,
				expected_extra_cost,
				status,
				created_by
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			RETURNING `+changeRequestColumns+`
		`,
			displayID,
			cr.ContractID,
			cr.Title,
			cr.Type,
			cr.Description,
			cr.Reason,
			cr.EffectiveFrom,
			cr.ExpectedExtraCost,
			cr.Status,
			cr.CreatedBy,
		).Scan(&saved).Error
		if err != nil {
			return err
		}

		for _, attachment := range attachments {
			err := tx.Exec(`
				INSERT INTO change_request_attachments (
					change_request_id,
					file_name,
					file_size,
					file_type,
					uploaded_by
				) VALUES (?, ?, ?, ?, ?)
			`,
				saved.ID,
				attachment.FileName,
				attachment.FileSize,
				attachment.FileType,
				attachment.UploadedBy,
			).Error
			if err != nil {
				return err
			}
		}

		return insertHistory(tx, model.ChangeRequestHistory{
			ChangeRequestID: saved.ID,
			Action:          "CREATED",
			FromStatus:      saved.Status,
			ToStatus:        saved.Status,
			Note:            "Change request created",
			CreatedBy:       cr.CreatedBy,
		})
	})
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

func (r *ChangeRequestRepository) Get(ctx context.Context, id uuid.UUID) (*model.ChangeRequest, error) {
	var cr model.ChangeRequest
	err := r.db.WithContext(ctx).Raw(`
		SELECT `+changeRequestColumns+`
		FROM change_requests
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&cr).Error
	if err != nil {
		return nil, err
	}
	if cr.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &cr, nil
}

func (r *ChangeRequestRepository) ListByContract(ctx context.Context, contractID uuid.UUID) ([]model.ChangeRequest, error) {
	var crs []model.ChangeRequest
	err := r.db.WithContext(ctx).Raw(`
		SELECT `+changeRequestColumns+`
		FROM change_requests
		WHERE contract_id = ?
		ORDER BY created_at DESC
	`, contractID).Scan(&crs).Error
	if err != nil {
		return nil, err
	}
	return crs, nil
}

// UpdateDraft rewrites the editable fields of a Draft change request and
// appends a history row.
func (r *ChangeRequestRepository) UpdateDraft(ctx context.Context, cr model.ChangeRequest, actor uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Exec(`
			UPDATE change_requests
			SET title = ?,
				type = ?,
				description = ?,
				reason = ?,
				effective_from = ?,
				expected_extra_cost = ?,
				updated_at = NOW()
			WHERE id = ? AND status = ?
		`,
			cr.Title,
			cr.Type,
			cr.Description,
			cr.Reason,
			cr.EffectiveFrom,
			cr.ExpectedExtraCost,
			cr.ID,
			model.CRStatusDraft,
		)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		return insertHistory(tx, model.ChangeRequestHistory{
			ChangeRequestID: cr.ID,
			Action:          "UPDATED",
			FromStatus:      model.CRStatusDraft,
			ToStatus:        model.CRStatusDraft,
			Note:            "Change request updated",
			CreatedBy:       actor,
		})
	})
}

// StatusChange carries one state-machine transition with its audit fields.
type StatusChange struct {
	ID           uuid.UUID
	From         model.ChangeRequestStatus
	To           model.ChangeRequestStatus
	Action       string
	Note         string
	Actor        uuid.UUID
	ReviewerID   *uuid.UUID
	SetApproval  bool
	ApprovalTime time.Time
	Appendix     *model.ContractAppendix
}

// Transition applies a status change guarded by the expected current status
// and appends the history row, all in one transaction. An appendix, when
// present, is inserted in the same transaction so an Active change request
// never exists without its appendix row. A concurrent writer that won the
// race leaves RowsAffected at zero, which surfaces as not found so the
// caller re-reads and fails with the real state.
func (r *ChangeRequestRepository) Transition(ctx context.Context, change StatusChange) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := `
			UPDATE change_requests
			SET status = ?, updated_at = NOW()
		`
		args := []interface{}{change.To}

		if change.ReviewerID != nil {
			query += `, internal_reviewer_id = ?`
			args = append(args, *change.ReviewerID)
		}
		if change.SetApproval {
			query += `, approved_by = ?, approved_at = ?`
			args = append(args, change.Actor, change.ApprovalTime)
		}

		query += ` WHERE id = ? AND status = ?`
		args = append(args, change.ID, change.From)

		result := tx.Exec(query, args...)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		if change.Appendix != nil {
			err := tx.Exec(`
				INSERT INTO contract_appendices (
					change_request_id,
					contract_id,
					appendix_number,
					created_by
				) VALUES (?, ?, ?, ?)
			`,
				change.Appendix.ChangeRequestID,
				change.Appendix.ContractID,
				change.Appendix.AppendixNumber,
				change.Appendix.CreatedBy,
			).Error
			if err != nil {
				return err
			}
		}

		return insertHistory(tx, model.ChangeRequestHistory{
			ChangeRequestID: change.ID,
			Action:          change.Action,
			FromStatus:      change.From,
			ToStatus:        change.To,
			Note:            change.Note,
			CreatedBy:       change.Actor,
		})
	})
}

// Delete removes a Draft change request; events, attachments and history
// cascade through foreign keys.
func (r *ChangeRequestRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Exec(`
		DELETE FROM change_requests WHERE id = ? AND status = ?
	`, id, model.CRStatusDraft)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *ChangeRequestRepository) ListHistory(ctx context.Context, changeRequestID uuid.UUID) ([]model.ChangeRequestHistory, error) {
	var history []model.ChangeRequestHistory
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, change_request_id, action, from_status, to_status, note, created_by, created_at
		FROM change_request_history
		WHERE change_request_id = ?
		ORDER BY created_at DESC
	`, changeRequestID).Scan(&history).Error
	if err != nil {
		return nil, err
	}
	return history, nil
}

func (r *ChangeRequestRepository) ListAttachments(ctx context.Context, changeRequestID uuid.UUID) ([]model.ChangeRequestAttachment, error) {
	var attachments []model.ChangeRequestAttachment
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, change_request_id, file_name, file_size, file_type, uploaded_by, created_at
		FROM change_request_attachments
		WHERE change_request_id = ?
		ORDER BY created_at ASC
	`, changeRequestID).Scan(&attachments).Error
	if err != nil {
		return nil, err
	}
	return attachments, nil
}

func insertHistory(tx *gorm.DB, entry model.ChangeRequestHistory) error {
	return tx.Exec(`
		INSERT INTO change_request_history (
			change_request_id,
			action,
			from_status,
			to_status,
			note,
			created_by
		) VALUES (?, ?, ?, ?, ?, ?)
	`,
		entry.ChangeRequestID,
		entry.Action,
		entry.FromStatus,
		entry.ToStatus,
		entry.Note,
		entry.CreatedBy,
	).Error
}

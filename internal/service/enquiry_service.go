package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"

	"enquiry-backend/internal/model"
	"enquiry-backend/internal/repository"
	"enquiry-backend/pkg/apperr"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CreateEnquiryRequest carries the multipart form fields of an enquiry
// submission. Dotted form keys match the dashboard client payload.
type CreateEnquiryRequest struct {
	Type             string `form:"type"`
	POR              string `form:"por"`
	POL              string `form:"pol"`
	POD              string `form:"pod"`
	Shipper          string `form:"shipper"`
	ShipmentTerms    string `form:"shipmentTerms"`
	Commodity        string `form:"commodity"`
	Weight           string `form:"weight"`
	EquipmentType    string `form:"equipmentType"`
	StuffingDate     string `form:"stuffingDate"`
	TargetVessel     string `form:"targetVessel"`
	MSDS             bool   `form:"msds"`
	HazmatClass      string `form:"class"`
	UNNumber         string `form:"unNumber"`
	PackingGroup     string `form:"packingGroup"`
	DimHeight        string `form:"dimensions.height"`
	DimWidth         string `form:"dimensions.width"`
	DimLength        string `form:"dimensions.length"`
	ExecutiveRemarks string `form:"executiveRemarks"`
}

type ProcurementRequest struct {
	Carrier string `json:"carrier"`
	Rate    string `json:"rate"`
	Remarks string `json:"remarks"`
}

// ProcurementSummary is the procurement desk's flattened view of a reviewed
// enquiry
type ProcurementSummary struct {
	EnquiryID       string                 `json:"enquiry_id"`
	Shipper         string                 `json:"shipper"`
	Route           string                 `json:"route"`
	Type            string                 `json:"type"`
	ProcurementInfo *model.ProcurementInfo `json:"procurement_info"`
	Status          string                 `json:"status"`
}

// AttachmentStore ingests uploaded files all-or-nothing and exposes the
// stored names for later cleanup
type AttachmentStore interface {
	SaveAll(files []*multipart.FileHeader) ([]string, error)
	Remove(names []string)
}

// EnquiryService is the lifecycle and authorization core: it owns every
// state transition an enquiry can make and gates each one by role.
type EnquiryService interface {
	Create(ctx context.Context, actor Actor, req CreateEnquiryRequest, files []*multipart.FileHeader) (*model.Enquiry, error)
	Get(ctx context.Context, actor Actor, id string) (*model.Enquiry, error)
	List(ctx context.Context, actor Actor) ([]model.Enquiry, error)
	RecordProcurement(ctx context.Context, actor Actor, id string, req ProcurementRequest) (*model.Enquiry, error)
	SetStatus(ctx context.Context, actor Actor, id string, status string) (*model.Enquiry, error)
	ListProcurements(ctx context.Context, actor Actor) ([]ProcurementSummary, error)
	GetProcurement(ctx context.Context, actor Actor, enquiryID string) (*model.ProcurementInfo, error)
}

type enquiryService struct {
	repo        repository.EnquiryRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
	attachments AttachmentStore
	notifier    Notifier
}

// NewEnquiryService wires the lifecycle service. The notifier is passed in
// explicitly; the service owns when events fire, the hub owns delivery.
func NewEnquiryService(
	repo repository.EnquiryRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	attachments AttachmentStore,
	notifier Notifier,
) EnquiryService {
	return &enquiryService{
		repo:        repo,
		auditRepo:   auditRepo,
		txManager:   txManager,
		attachments: attachments,
		notifier:    notifier,
	}
}

// Create submits a new enquiry. Executive only. Attachments are ingested
// before the record is written; if the write fails the stored files are
// removed again so nothing orphaned remains.
func (s *enquiryService) Create(ctx context.Context, actor Actor, req CreateEnquiryRequest, files []*multipart.FileHeader) (*model.Enquiry, error) {
	if err := requireRole(actor, model.RoleExecutive); err != nil {
		return nil, err
	}

	var missing []string
	if req.Type == "" {
		missing = append(missing, "type")
	}
	if req.POR == "" {
		missing = append(missing, "por")
	}
	if req.POL == "" {
		missing = append(missing, "pol")
	}
	if req.POD == "" {
		missing = append(missing, "pod")
	}
	if len(missing) > 0 {
		return nil, apperr.MissingFields(missing...)
	}

	if !model.ValidShipmentType(req.Type) {
		return nil, apperr.Validation("invalid shipment type: " + req.Type)
	}

	photos, err := s.attachments.SaveAll(files)
	if err != nil {
		return nil, err
	}

	var createdBy *uuid.UUID
	if parsed, parseErr := uuid.Parse(actor.ID); parseErr == nil {
		createdBy = &parsed
	}

	enquiry := &model.Enquiry{
		Type:          req.Type,
		POR:           req.POR,
		POL:           req.POL,
		POD:           req.POD,
		Shipper:       req.Shipper,
		ShipmentTerms: req.ShipmentTerms,
		Commodity:     req.Commodity,
		Weight:        req.Weight,
		EquipmentType: req.EquipmentType,
		StuffingDate:  req.StuffingDate,
		TargetVessel:  req.TargetVessel,
		MSDS:          req.MSDS,
		HazmatClass:   req.HazmatClass,
		UNNumber:      req.UNNumber,
		PackingGroup:  req.PackingGroup,
		Dimensions: model.Dimensions{
			Height: req.DimHeight,
			Width:  req.DimWidth,
			Length: req.DimLength,
		},
		ExecutiveRemarks: req.ExecutiveRemarks,
		Photos:           photos,
		Status:           model.StatusPending,
		CreatedBy:        createdBy,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.repo.Create(txCtx, enquiry); createErr != nil {
			return fmt.Errorf("failed to create enquiry: %w", createErr)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"type":   enquiry.Type,
			"route":  routeString(enquiry),
			"photos": len(photos),
		})
		audit := &model.AuditLog{
			UserID:     createdBy,
			Action:     model.ActionCreateEnquiry,
			EntityID:   enquiry.ID.String(),
			EntityName: enquiry.Shipper,
			Details:    string(details),
		}
		if auditErr := s.auditRepo.Log(txCtx, audit); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}

		return nil
	})

	if err != nil {
		s.attachments.Remove(photos)
		return nil, apperr.Storage(err)
	}

	// Broadcast only after the durable write succeeded
	s.notifier.Publish(EventNewEnquiry, enquiry)

	return enquiry, nil
}

func (s *enquiryService) Get(ctx context.Context, actor Actor, id string) (*model.Enquiry, error) {
	enquiryID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.NotFound("enquiry")
	}

	enquiry, err := s.repo.GetByID(ctx, enquiryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("enquiry")
		}
		return nil, apperr.Storage(err)
	}

	return enquiry, nil
}

func (s *enquiryService) List(ctx context.Context, actor Actor) ([]model.Enquiry, error) {
	enquiries, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return enquiries, nil
}

// RecordProcurement prices an enquiry. Procurement only. The status moves to
// reviewed together with the sub-record in one atomic write; re-submission
// overwrites the previous values and is allowed from either state.
func (s *enquiryService) RecordProcurement(ctx context.Context, actor Actor, id string, req ProcurementRequest) (*model.Enquiry, error) {
	if err := requireRole(actor, model.RoleProcurement); err != nil {
		return nil, err
	}

	enquiryID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.NotFound("enquiry")
	}

	info := model.ProcurementInfo{
		Carrier: req.Carrier,
		Rate:    req.Rate,
		Remarks: req.Remarks,
	}

	var enquiry *model.Enquiry
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		updated, applyErr := s.repo.ApplyProcurement(txCtx, enquiryID, info)
		if applyErr != nil {
			return applyErr
		}
		enquiry = updated

		var actorID *uuid.UUID
		if parsed, parseErr := uuid.Parse(actor.ID); parseErr == nil {
			actorID = &parsed
		}

		details, _ := json.Marshal(info)
		audit := &model.AuditLog{
			UserID:     actorID,
			Action:     model.ActionRecordProcurement,
			EntityID:   enquiry.ID.String(),
			EntityName: enquiry.Shipper,
			Details:    string(details),
		}
		if auditErr := s.auditRepo.Log(txCtx, audit); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}

		return nil
	})

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("enquiry")
		}
		return nil, apperr.Storage(err)
	}

	s.notifier.Publish(EventProcurementUpdated, enquiry)

	return enquiry, nil
}

// SetStatus forces a status value without touching procurement data. It is an
// escape hatch: setting reviewed through this path does NOT record a
// procurement sub-record, so the reviewed-implies-priced coupling holds only
// for RecordProcurement. Callers own that consistency.
func (s *enquiryService) SetStatus(ctx context.Context, actor Actor, id string, status string) (*model.Enquiry, error) {
	if !model.ValidStatus(status) {
		return nil, apperr.Validation("invalid status: must be pending or reviewed")
	}

	enquiryID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.NotFound("enquiry")
	}

	var enquiry *model.Enquiry
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		updated, setErr := s.repo.SetStatus(txCtx, enquiryID, status)
		if setErr != nil {
			return setErr
		}
		enquiry = updated

		var actorID *uuid.UUID
		if parsed, parseErr := uuid.Parse(actor.ID); parseErr == nil {
			actorID = &parsed
		}

		details, _ := json.Marshal(map[string]string{"status": status})
		audit := &model.AuditLog{
			UserID:   actorID,
			Action:   model.ActionSetStatus,
			EntityID: enquiry.ID.String(),
			Details:  string(details),
		}
		if auditErr := s.auditRepo.Log(txCtx, audit); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}

		return nil
	})

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("enquiry")
		}
		return nil, apperr.Storage(err)
	}

	return enquiry, nil
}

func (s *enquiryService) ListProcurements(ctx context.Context, actor Actor) ([]ProcurementSummary, error) {
	if err := requireRole(actor, model.RoleProcurement); err != nil {
		return nil, err
	}

	enquiries, err := s.repo.ListReviewed(ctx)
	if err != nil {
		return nil, apperr.Storage(err)
	}

	summaries := make([]ProcurementSummary, 0, len(enquiries))
	for i := range enquiries {
		e := &enquiries[i]
		summaries = append(summaries, ProcurementSummary{
			EnquiryID:       e.ID.String(),
			Shipper:         e.Shipper,
			Route:           routeString(e),
			Type:            e.Type,
			ProcurementInfo: e.ProcurementInfo,
			Status:          e.Status,
		})
	}

	return summaries, nil
}

func (s *enquiryService) GetProcurement(ctx context.Context, actor Actor, enquiryID string) (*model.ProcurementInfo, error) {
	if err := requireRole(actor, model.RoleProcurement); err != nil {
		return nil, err
	}

	enquiry, err := s.Get(ctx, actor, enquiryID)
	if err != nil {
		return nil, err
	}

	if enquiry.ProcurementInfo == nil {
		return &model.ProcurementInfo{}, nil
	}
	return enquiry.ProcurementInfo, nil
}

func routeString(e *model.Enquiry) string {
	return fmt.Sprintf("%s → %s → %s", e.POR, e.POL, e.POD)
}

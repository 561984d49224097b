package repository

import (
	"context"

	"enquiry-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EnquiryRepository defines the interface for data access of Enquiry records
type EnquiryRepository interface {
	Create(ctx context.Context, enquiry *model.Enquiry) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Enquiry, error)
	List(ctx context.Context) ([]model.Enquiry, error)
	ListReviewed(ctx context.Context) ([]model.Enquiry, error)
	ApplyProcurement(ctx context.Context, id uuid.UUID, info model.ProcurementInfo) (*model.Enquiry, error)
	SetStatus(ctx context.Context, id uuid.UUID, status string) (*model.Enquiry, error)
}

type enquiryRepository struct {
	db *gorm.DB
}

// NewEnquiryRepository returns a new instance of EnquiryRepository
func NewEnquiryRepository(db *gorm.DB) EnquiryRepository {
	return &enquiryRepository{db: db}
}

func (r *enquiryRepository) Create(ctx context.Context, enquiry *model.Enquiry) error {
	return GetDB(ctx, r.db).Create(enquiry).Error
}

func (r *enquiryRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Enquiry, error) {
	var enquiry model.Enquiry
	if err := GetDB(ctx, r.db).First(&enquiry, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &enquiry, nil
}

func (r *enquiryRepository) List(ctx context.Context) ([]model.Enquiry, error) {
	var enquiries []model.Enquiry
	if err := GetDB(ctx, r.db).Order("created_at DESC").Find(&enquiries).Error; err != nil {
		return nil, err
	}
	return enquiries, nil
}

func (r *enquiryRepository) ListReviewed(ctx context.Context) ([]model.Enquiry, error) {
	var enquiries []model.Enquiry
	if err := GetDB(ctx, r.db).
		Where("status = ?", model.StatusReviewed).
		Order("created_at DESC").
		Find(&enquiries).Error; err != nil {
		return nil, err
	}
	return enquiries, nil
}

// ApplyProcurement writes the procurement sub-record and the reviewed status
// in a single UPDATE, so no reader ever observes one without the other.
// Re-submission overwrites the previous values (last write wins).
func (r *enquiryRepository) ApplyProcurement(ctx context.Context, id uuid.UUID, info model.ProcurementInfo) (*model.Enquiry, error) {
	db := GetDB(ctx, r.db)

	res := db.Model(&model.Enquiry{}).Where("id = ?", id).Updates(map[string]interface{}{
		"procurement_carrier": info.Carrier,
		"procurement_rate":    info.Rate,
		"procurement_remarks": info.Remarks,
		"status":              model.StatusReviewed,
	})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}

	return r.GetByID(ctx, id)
}

func (r *enquiryRepository) SetStatus(ctx context.Context, id uuid.UUID, status string) (*model.Enquiry, error) {
	db := GetDB(ctx, r.db)

	res := db.Model(&model.Enquiry{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}

	return r.GetByID(ctx, id)
}

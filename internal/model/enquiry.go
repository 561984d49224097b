package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Enquiry status enum constants
const (
	StatusPending  = "pending"
	StatusReviewed = "reviewed"
)

// ValidStatus reports whether status is a known lifecycle state
func ValidStatus(status string) bool {
	return status == StatusPending || status == StatusReviewed
}

// Shipment type enum constants
const (
	ShipmentSeaExport    = "Sea Export"
	ShipmentSeaImport    = "Sea Import"
	ShipmentAirExport    = "Air Export"
	ShipmentAirImport    = "Air Import"
	ShipmentCrossCountry = "Cross Country"
)

// ValidShipmentType reports whether t is one of the supported shipment modes
func ValidShipmentType(t string) bool {
	switch t {
	case ShipmentSeaExport, ShipmentSeaImport, ShipmentAirExport, ShipmentAirImport, ShipmentCrossCountry:
		return true
	}
	return false
}

// StringList stores an ordered list of strings as a jsonb column
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	return string(b), err
}

func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = StringList{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return errors.New("unsupported type for StringList")
	}
}

// Dimensions is the cargo height/width/length triple, free-form per unit
type Dimensions struct {
	Height string `gorm:"type:varchar(50)" json:"height"`
	Width  string `gorm:"type:varchar(50)" json:"width"`
	Length string `gorm:"type:varchar(50)" json:"length"`
}

// ProcurementInfo is the pricing sub-record filled in by the procurement desk.
// A nil pointer on Enquiry means the enquiry has not been reviewed yet; the
// repository writes it together with the reviewed status in a single update.
type ProcurementInfo struct {
	Carrier string `gorm:"type:varchar(255)" json:"carrier"`
	Rate    string `gorm:"type:varchar(100)" json:"rate"`
	Remarks string `gorm:"type:text" json:"remarks"`
}

// Enquiry is a freight shipment enquiry raised by a customer-service
// executive and priced by procurement
type Enquiry struct {
	ID   uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Type string    `gorm:"type:varchar(30);not null" json:"type"`

	// Route triple: place of receipt, port of loading, port of discharge
	POR string `gorm:"type:varchar(255);not null" json:"por"`
	POL string `gorm:"type:varchar(255);not null" json:"pol"`
	POD string `gorm:"type:varchar(255);not null" json:"pod"`

	Shipper       string `gorm:"type:varchar(255)" json:"shipper"`
	ShipmentTerms string `gorm:"type:varchar(100)" json:"shipment_terms"`
	Commodity     string `gorm:"type:varchar(255)" json:"commodity"`
	Weight        string `gorm:"type:varchar(100)" json:"weight"`
	EquipmentType string `gorm:"type:varchar(100)" json:"equipment_type"`
	StuffingDate  string `gorm:"type:varchar(50)" json:"stuffing_date"`
	TargetVessel  string `gorm:"type:varchar(255)" json:"target_vessel"`

	// Hazmat declaration
	MSDS         bool   `json:"msds"`
	HazmatClass  string `gorm:"type:varchar(50)" json:"class"`
	UNNumber     string `gorm:"type:varchar(50)" json:"un_number"`
	PackingGroup string `gorm:"type:varchar(50)" json:"packing_group"`

	Dimensions       Dimensions `gorm:"embedded;embeddedPrefix:dim_" json:"dimensions"`
	ExecutiveRemarks string     `gorm:"type:text" json:"executive_remarks"`

	// Stored filenames of uploaded attachments, in submission order.
	// Immutable after creation.
	Photos StringList `gorm:"type:jsonb;not null;default:'[]'" json:"photos"`

	ProcurementInfo *ProcurementInfo `gorm:"embedded;embeddedPrefix:procurement_" json:"procurement_info"`
	Status          string           `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`

	CreatedBy *uuid.UUID `gorm:"type:uuid;index" json:"created_by"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Reviewed reports whether the enquiry carries procurement pricing
func (e *Enquiry) Reviewed() bool {
	return e.ProcurementInfo != nil
}

package models

import (
	"encoding/json"
	"time"
)

// Enumerated values for buyer fields. These mirror the intake form: the
// product serves the Chandigarh tricity area, hence the short city list.
var (
	Cities        = []string{"Chandigarh", "Mohali", "Zirakpur", "Panchkula", "Other"}
	PropertyTypes = []string{"Apartment", "Villa", "Plot", "Office", "Retail"}
	BHKOptions    = []string{"1", "2", "3", "4", "Studio"}
	Purposes      = []string{"Buy", "Rent"}
	Timelines     = []string{"0-3m", "3-6m", ">6m", "Exploring"}
	Sources       = []string{"Website", "Referral", "Walk-in", "Call", "Other"}
	Statuses      = []string{"New", "Qualified", "Contacted", "Visited", "Negotiation", "Converted", "Dropped"}
)

// StatusDefault is assigned when a buyer is created without an explicit status.
const StatusDefault = "New"

// Buyer is a prospective property purchaser/renter lead.
//
// Version is a monotonic counter incremented on every accepted write; it is
// the preferred optimistic-concurrency token. UpdatedAt is accepted as a
// legacy token and compared by exact equality.
type Buyer struct {
	ID           int       `gorm:"primaryKey" json:"id"`
	FullName     string    `gorm:"size:80;not null" json:"fullName" validate:"required,min=2,max=80"`
	Email        *string   `gorm:"size:255" json:"email,omitempty" validate:"omitempty,email"`
	Phone        string    `gorm:"size:15;not null;index" json:"phone" validate:"required,number,min=10,max=15"`
	City         string    `gorm:"size:50;not null" json:"city" validate:"required,oneof=Chandigarh Mohali Zirakpur Panchkula Other"`
	PropertyType string    `gorm:"size:50;not null" json:"propertyType" validate:"required,oneof=Apartment Villa Plot Office Retail"`
	BHK          *string   `gorm:"size:10" json:"bhk,omitempty" validate:"omitempty,oneof=1 2 3 4 Studio"`
	Purpose      string    `gorm:"size:10;not null" json:"purpose" validate:"required,oneof=Buy Rent"`
	BudgetMin    *int      `json:"budgetMin,omitempty" validate:"omitempty,gt=0"`
	BudgetMax    *int      `json:"budgetMax,omitempty" validate:"omitempty,gt=0"`
	Timeline     string    `gorm:"size:10;not null" json:"timeline" validate:"required,oneof=0-3m 3-6m >6m Exploring"`
	Source       string    `gorm:"size:50;not null" json:"source" validate:"required,oneof=Website Referral Walk-in Call Other"`
	Status       string    `gorm:"size:50;not null;default:New" json:"status" validate:"omitempty,oneof=New Qualified Contacted Visited Negotiation Converted Dropped"`
	Notes        *string   `gorm:"type:text" json:"notes,omitempty" validate:"omitempty,max=1000"`
	Tags         []string  `gorm:"serializer:json;type:text" json:"tags"`
	OwnerID      int       `gorm:"not null;index" json:"ownerId"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	Version      int       `gorm:"not null;default:1" json:"version"`
}

// BuyerHistory is an immutable audit record of one accepted write to a buyer.
// Rows are never updated; they are removed only when the parent buyer is
// deleted.
type BuyerHistory struct {
	ID          int         `gorm:"primaryKey" json:"id"`
	BuyerID     int         `gorm:"not null;index" json:"buyerId"`
	Buyer       *Buyer      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	ChangedByID int         `gorm:"not null" json:"changedById"`
	ChangedAt   time.Time   `gorm:"autoCreateTime" json:"changedAt"`
	Diff        HistoryDiff `gorm:"serializer:json;type:text;not null" json:"diff"`
}

// FieldChange captures the old and new value of one changed field.
type FieldChange struct {
	Old any `json:"old"`
	New any `json:"new"`
}

// History diff actions for whole-record events.
const (
	ActionCreated  = "created"
	ActionImported = "imported"
)

// HistoryDiff is the stored diff payload. It is either a whole-record marker
// ({"action":"created","data":{...snapshot...}}) or a plain mapping of
// changed field name to {old,new}.
type HistoryDiff struct {
	Action string                 `json:"-"`
	Data   *Buyer                 `json:"-"`
	Fields map[string]FieldChange `json:"-"`
}

// CreatedDiff builds the diff payload for a newly created buyer.
func CreatedDiff(b *Buyer) HistoryDiff {
	return HistoryDiff{Action: ActionCreated, Data: b}
}

// ImportedDiff builds the diff payload for a bulk-imported buyer.
func ImportedDiff(b *Buyer) HistoryDiff {
	return HistoryDiff{Action: ActionImported, Data: b}
}

// FieldsDiff builds the diff payload for a field-level update.
func FieldsDiff(fields map[string]FieldChange) HistoryDiff {
	return HistoryDiff{Fields: fields}
}

type actionPayload struct {
	Action string `json:"action"`
	Data   *Buyer `json:"data"`
}

// MarshalJSON keeps the stored shape open-ended: action markers serialize as
// {"action":...,"data":...}, field diffs as a bare field map.
func (d HistoryDiff) MarshalJSON() ([]byte, error) {
	if d.Action != "" {
		return json.Marshal(actionPayload{Action: d.Action, Data: d.Data})
	}
	return json.Marshal(d.Fields)
}

// UnmarshalJSON accepts either stored shape.
func (d *HistoryDiff) UnmarshalJSON(data []byte) error {
	var probe struct {
		Action string `json:"action"`
	}
	if err := json.Unmarshal(data, &probe); err == nil && probe.Action != "" {
		var p actionPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return err
		}
		d.Action = p.Action
		d.Data = p.Data
		d.Fields = nil
		return nil
	}

	var fields map[string]FieldChange
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	d.Action = ""
	d.Data = nil
	d.Fields = fields
	return nil
}

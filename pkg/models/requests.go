package models

import "time"

// CreateBuyerRequest is the payload for creating a buyer. Owner and status
// default are stamped server-side.
type CreateBuyerRequest struct {
	FullName     string   `json:"fullName"`
	Email        *string  `json:"email"`
	Phone        string   `json:"phone"`
	City         string   `json:"city"`
	PropertyType string   `json:"propertyType"`
	BHK          *string  `json:"bhk"`
	Purpose      string   `json:"purpose"`
	BudgetMin    *int     `json:"budgetMin"`
	BudgetMax    *int     `json:"budgetMax"`
	Timeline     string   `json:"timeline"`
	Source       string   `json:"source"`
	Status       string   `json:"status"`
	Notes        *string  `json:"notes"`
	Tags         []string `json:"tags"`
}

// UpdateBuyerRequest is a full or partial update. Every field is optional;
// absent fields keep their stored value. UpdatedAt and Version are
// optimistic-concurrency tokens: when supplied they must match the stored
// row exactly or the update is rejected with a conflict.
type UpdateBuyerRequest struct {
	FullName     *string    `json:"fullName"`
	Email        *string    `json:"email"`
	Phone        *string    `json:"phone"`
	City         *string    `json:"city"`
	PropertyType *string    `json:"propertyType"`
	BHK          *string    `json:"bhk"`
	Purpose      *string    `json:"purpose"`
	BudgetMin    *int       `json:"budgetMin"`
	BudgetMax    *int       `json:"budgetMax"`
	Timeline     *string    `json:"timeline"`
	Source       *string    `json:"source"`
	Status       *string    `json:"status"`
	Notes        *string    `json:"notes"`
	Tags         *[]string  `json:"tags"`
	UpdatedAt    *time.Time `json:"updatedAt"`
	Version      *int       `json:"version"`
}

// UpdateStatusRequest is the status-only patch payload.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=New Qualified Contacted Visited Negotiation Converted Dropped"`
}

// ListBuyersRequest carries listing criteria. All filters are optional and
// conjunctive when combined.
type ListBuyersRequest struct {
	Page         int    `query:"page"`
	Limit        int    `query:"limit"`
	Sort         string `query:"sort" validate:"omitempty,oneof=updatedAt fullName city propertyType status timeline"`
	Order        string `query:"order" validate:"omitempty,oneof=asc desc"`
	Search       string `query:"search"`
	City         string `query:"city"`
	PropertyType string `query:"propertyType"`
	Status       string `query:"status"`
	Timeline     string `query:"timeline"`
}

// ExportBuyersRequest carries export criteria: the listing filters without
// pagination, plus the output format.
type ExportBuyersRequest struct {
	Format       string `query:"format" validate:"omitempty,oneof=csv excel"`
	Sort         string `query:"sort" validate:"omitempty,oneof=updatedAt fullName city propertyType status timeline"`
	Order        string `query:"order" validate:"omitempty,oneof=asc desc"`
	Search       string `query:"search"`
	City         string `query:"city"`
	PropertyType string `query:"propertyType"`
	Status       string `query:"status"`
	Timeline     string `query:"timeline"`
}

// PaginationInfo contains pagination metadata
type PaginationInfo struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}

// BuyerListResponse represents a paginated list of buyers
type BuyerListResponse struct {
	Buyers     []Buyer        `json:"buyers"`
	Pagination PaginationInfo `json:"pagination"`
}

// ImportResponse reports a successful bulk import.
type ImportResponse struct {
	Success bool `json:"success"`
	Count   int  `json:"count"`
}

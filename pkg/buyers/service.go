package buyers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/propstack/buyerbase/pkg/cache"
	"github.com/propstack/buyerbase/pkg/models"
)

// Sentinel errors mapped to HTTP statuses at the handler layer.
var (
	ErrNotFound  = errors.New("buyer not found")
	ErrForbidden = errors.New("buyer belongs to another user")
	ErrConflict  = errors.New("record changed, please refresh")
)

// Actor identifies the authenticated user performing an operation.
type Actor struct {
	UserID int
	Email  string
}

// Service handles buyer business logic
type Service struct {
	db         *gorm.DB
	cache      *cache.Client
	schema     *Schema
	adminEmail string
	listTTL    time.Duration
}

// NewService creates a new buyer service. cache may be nil; listing then
// always hits the database.
func NewService(db *gorm.DB, cacheClient *cache.Client, adminEmail string, listTTL time.Duration) *Service {
	return &Service{
		db:         db,
		cache:      cacheClient,
		schema:     NewSchema(),
		adminEmail: adminEmail,
		listTTL:    listTTL,
	}
}

// IsAdmin reports whether the actor holds the admin role.
func (s *Service) IsAdmin(actor Actor) bool {
	return s.adminEmail != "" && strings.EqualFold(actor.Email, s.adminEmail)
}

func (s *Service) canModify(b *models.Buyer, actor Actor) bool {
	return b.OwnerID == actor.UserID || s.IsAdmin(actor)
}

// Create validates and inserts a new buyer, recording a creation event in
// the history trail. The buyer row and its history row commit together.
func (s *Service) Create(ctx context.Context, req models.CreateBuyerRequest, actor Actor) (*models.Buyer, error) {
	buyer := buyerFromCreate(req, actor.UserID)

	if issues := s.schema.Validate(buyer); len(issues) > 0 {
		return nil, &ValidationError{Issues: issues}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(buyer).Error; err != nil {
			return fmt.Errorf("failed to create buyer: %w", err)
		}
		history := &models.BuyerHistory{
			BuyerID:     buyer.ID,
			ChangedByID: actor.UserID,
			Diff:        models.CreatedDiff(buyer),
		}
		if err := tx.Create(history).Error; err != nil {
			return fmt.Errorf("failed to record history: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateListCache(ctx)
	return buyer, nil
}

// Get fetches a single buyer by ID.
func (s *Service) Get(ctx context.Context, id int) (*models.Buyer, error) {
	var buyer models.Buyer
	if err := s.db.WithContext(ctx).First(&buyer, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch buyer: %w", err)
	}
	return &buyer, nil
}

// Update applies a validated partial update with optimistic concurrency.
//
// The pipeline runs inside one transaction: load, ownership check, token
// check, merge, validate the merged record, diff. A diff with no changes
// returns the stored record untouched and writes no history. Otherwise the
// buyer row and its history row commit together and the version counter
// advances by one.
func (s *Service) Update(ctx context.Context, id int, req models.UpdateBuyerRequest, actor Actor) (*models.Buyer, error) {
	var updated *models.Buyer
	changed := false

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Buyer
		if err := tx.First(&existing, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to fetch buyer: %w", err)
		}

		if !s.canModify(&existing, actor) {
			return ErrForbidden
		}

		if err := concurrencyCheck(&existing, req); err != nil {
			return err
		}

		merged := mergeUpdate(existing, req)
		if issues := s.schema.Validate(&merged); len(issues) > 0 {
			return &ValidationError{Issues: issues}
		}

		changes := Diff(&existing, &merged)
		if len(changes) == 0 {
			updated = &existing
			return nil
		}

		merged.Version = existing.Version + 1
		if err := tx.Save(&merged).Error; err != nil {
			return fmt.Errorf("failed to update buyer: %w", err)
		}

		history := &models.BuyerHistory{
			BuyerID:     merged.ID,
			ChangedByID: actor.UserID,
			Diff:        models.FieldsDiff(changes),
		}
		if err := tx.Create(history).Error; err != nil {
			return fmt.Errorf("failed to record history: %w", err)
		}

		updated = &merged
		changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.invalidateListCache(ctx)
	}
	return updated, nil
}

// UpdateStatus changes only the status field. Setting the current status
// again is a no-op and records nothing.
func (s *Service) UpdateStatus(ctx context.Context, id int, status string, actor Actor) (*models.Buyer, error) {
	if !slices.Contains(models.Statuses, status) {
		return nil, &ValidationError{Issues: []models.FieldIssue{{
			Field:   "status",
			Message: fmt.Sprintf("status must be one of: %s", strings.Join(models.Statuses, ", ")),
		}}}
	}

	var updated *models.Buyer
	changed := false

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Buyer
		if err := tx.First(&existing, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to fetch buyer: %w", err)
		}

		if !s.canModify(&existing, actor) {
			return ErrForbidden
		}

		if existing.Status == status {
			updated = &existing
			return nil
		}

		changes := map[string]models.FieldChange{
			"status": {Old: existing.Status, New: status},
		}

		existing.Status = status
		existing.Version++
		if err := tx.Save(&existing).Error; err != nil {
			return fmt.Errorf("failed to update status: %w", err)
		}

		history := &models.BuyerHistory{
			BuyerID:     existing.ID,
			ChangedByID: actor.UserID,
			Diff:        models.FieldsDiff(changes),
		}
		if err := tx.Create(history).Error; err != nil {
			return fmt.Errorf("failed to record history: %w", err)
		}

		updated = &existing
		changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.invalidateListCache(ctx)
	}
	return updated, nil
}

// Delete removes a buyer and its history trail in one transaction.
func (s *Service) Delete(ctx context.Context, id int, actor Actor) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Buyer
		if err := tx.First(&existing, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to fetch buyer: %w", err)
		}

		if !s.canModify(&existing, actor) {
			return ErrForbidden
		}

		if err := tx.Where("buyer_id = ?", id).Delete(&models.BuyerHistory{}).Error; err != nil {
			return fmt.Errorf("failed to delete history: %w", err)
		}
		if err := tx.Delete(&models.Buyer{}, id).Error; err != nil {
			return fmt.Errorf("failed to delete buyer: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.invalidateListCache(ctx)
	return nil
}

// History returns a buyer's change events, newest first. limit 0 returns
// the full trail.
func (s *Service) History(ctx context.Context, id int, limit int) ([]models.BuyerHistory, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	query := s.db.WithContext(ctx).
		Where("buyer_id = ?", id).
		Order("changed_at DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var entries []models.BuyerHistory
	if err := query.Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch history: %w", err)
	}
	return entries, nil
}

// List searches buyers with filters and pagination. Results are cached per
// criteria and invalidated on any write.
func (s *Service) List(ctx context.Context, req models.ListBuyersRequest) (*models.BuyerListResponse, error) {
	// Set defaults
	if req.Page == 0 {
		req.Page = 1
	}
	if req.Limit == 0 {
		req.Limit = 10
	}
	if req.Limit > 100 {
		req.Limit = 100
	}
	if req.Sort == "" {
		req.Sort = "updatedAt"
	}
	if req.Order == "" {
		req.Order = "desc"
	}

	cacheKey := listCacheKey(req)

	// Try to get from cache
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey); err == nil && cached != "" {
			var response models.BuyerListResponse
			if err := json.Unmarshal([]byte(cached), &response); err == nil {
				return &response, nil
			}
		}
	}

	query := applyFilters(s.db.WithContext(ctx).Model(&models.Buyer{}), listFilters{
		Search:       req.Search,
		City:         req.City,
		PropertyType: req.PropertyType,
		Status:       req.Status,
		Timeline:     req.Timeline,
	})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count buyers: %w", err)
	}

	var results []models.Buyer
	err := query.
		Order(orderClause(req.Sort, req.Order)).
		Offset((req.Page - 1) * req.Limit).
		Limit(req.Limit).
		Find(&results).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list buyers: %w", err)
	}

	totalPages := (int(total) + req.Limit - 1) / req.Limit

	response := &models.BuyerListResponse{
		Buyers: results,
		Pagination: models.PaginationInfo{
			Page:       req.Page,
			Limit:      req.Limit,
			Total:      int(total),
			TotalPages: totalPages,
			HasNext:    req.Page < totalPages,
			HasPrev:    req.Page > 1,
		},
	}

	// Cache the response
	if s.cache != nil {
		if data, err := json.Marshal(response); err == nil {
			_ = s.cache.Set(ctx, cacheKey, string(data), s.listTTL)
		}
	}

	return response, nil
}

// ListForExport returns every buyer matching the filters, without
// pagination, in the requested order.
func (s *Service) ListForExport(ctx context.Context, req models.ExportBuyersRequest) ([]models.Buyer, error) {
	if req.Sort == "" {
		req.Sort = "updatedAt"
	}
	if req.Order == "" {
		req.Order = "desc"
	}

	query := applyFilters(s.db.WithContext(ctx).Model(&models.Buyer{}), listFilters{
		Search:       req.Search,
		City:         req.City,
		PropertyType: req.PropertyType,
		Status:       req.Status,
		Timeline:     req.Timeline,
	})

	var results []models.Buyer
	if err := query.Order(orderClause(req.Sort, req.Order)).Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to export buyers: %w", err)
	}
	return results, nil
}

type listFilters struct {
	Search       string
	City         string
	PropertyType string
	Status       string
	Timeline     string
}

func applyFilters(query *gorm.DB, f listFilters) *gorm.DB {
	if f.Search != "" {
		like := "%" + strings.ToLower(f.Search) + "%"
		query = query.Where(
			"LOWER(full_name) LIKE ? OR LOWER(COALESCE(email, '')) LIKE ? OR phone LIKE ?",
			like, like, "%"+f.Search+"%",
		)
	}
	if f.City != "" {
		query = query.Where("city = ?", f.City)
	}
	if f.PropertyType != "" {
		query = query.Where("property_type = ?", f.PropertyType)
	}
	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}
	if f.Timeline != "" {
		query = query.Where("timeline = ?", f.Timeline)
	}
	return query
}

// sortColumns whitelists sortable fields and maps them to columns.
var sortColumns = map[string]string{
	"updatedAt":    "updated_at",
	"fullName":     "full_name",
	"city":         "city",
	"propertyType": "property_type",
	"status":       "status",
	"timeline":     "timeline",
}

func orderClause(sort, order string) string {
	column, ok := sortColumns[sort]
	if !ok {
		column = "updated_at"
	}
	direction := "DESC"
	if strings.EqualFold(order, "asc") {
		direction = "ASC"
	}
	return fmt.Sprintf("%s %s", column, direction)
}

func listCacheKey(req models.ListBuyersRequest) string {
	return fmt.Sprintf("buyers:list:%d:%d:%s:%s:q=%s:city=%s:pt=%s:st=%s:tl=%s",
		req.Page, req.Limit, req.Sort, req.Order,
		req.Search, req.City, req.PropertyType, req.Status, req.Timeline)
}

func (s *Service) invalidateListCache(ctx context.Context) {
	if s.cache != nil {
		_ = s.cache.DeletePattern(ctx, "buyers:list:*")
	}
}

// concurrencyCheck compares the supplied token against the stored row. The
// version counter is preferred; updatedAt is accepted for older clients and
// compared by exact equality. No token skips the check.
func concurrencyCheck(existing *models.Buyer, req models.UpdateBuyerRequest) error {
	if req.Version != nil {
		if *req.Version != existing.Version {
			return ErrConflict
		}
		return nil
	}
	if req.UpdatedAt != nil && !req.UpdatedAt.Equal(existing.UpdatedAt) {
		return ErrConflict
	}
	return nil
}

func buyerFromCreate(req models.CreateBuyerRequest, ownerID int) *models.Buyer {
	status := req.Status
	if status == "" {
		status = models.StatusDefault
	}
	return &models.Buyer{
		FullName:     strings.TrimSpace(req.FullName),
		Email:        req.Email,
		Phone:        strings.TrimSpace(req.Phone),
		City:         req.City,
		PropertyType: req.PropertyType,
		BHK:          req.BHK,
		Purpose:      req.Purpose,
		BudgetMin:    req.BudgetMin,
		BudgetMax:    req.BudgetMax,
		Timeline:     req.Timeline,
		Source:       req.Source,
		Status:       status,
		Notes:        req.Notes,
		Tags:         normalizeTags(req.Tags),
		OwnerID:      ownerID,
		Version:      1,
	}
}

// mergeUpdate overlays the supplied fields on the stored record. Absent
// fields keep their stored values, so cross-field rules always see the
// complete merged record.
func mergeUpdate(existing models.Buyer, req models.UpdateBuyerRequest) models.Buyer {
	merged := existing

	if req.FullName != nil {
		merged.FullName = strings.TrimSpace(*req.FullName)
	}
	if req.Email != nil {
		merged.Email = req.Email
	}
	if req.Phone != nil {
		merged.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.City != nil {
		merged.City = *req.City
	}
	if req.PropertyType != nil {
		merged.PropertyType = *req.PropertyType
	}
	if req.BHK != nil {
		merged.BHK = req.BHK
	}
	if req.Purpose != nil {
		merged.Purpose = *req.Purpose
	}
	if req.BudgetMin != nil {
		merged.BudgetMin = req.BudgetMin
	}
	if req.BudgetMax != nil {
		merged.BudgetMax = req.BudgetMax
	}
	if req.Timeline != nil {
		merged.Timeline = *req.Timeline
	}
	if req.Source != nil {
		merged.Source = *req.Source
	}
	if req.Status != nil {
		merged.Status = *req.Status
	}
	if req.Notes != nil {
		merged.Notes = req.Notes
	}
	if req.Tags != nil {
		merged.Tags = normalizeTags(*req.Tags)
	}

	return merged
}

func normalizeTags(tags []string) []string {
	var out []string
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag != "" {
			out = append(out, tag)
		}
	}
	return out
}

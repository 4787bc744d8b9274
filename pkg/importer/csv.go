package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/propstack/buyerbase/pkg/buyers"
	"github.com/propstack/buyerbase/pkg/cache"
	"github.com/propstack/buyerbase/pkg/models"
)

// MaxRows is the import ceiling per file, counted over data rows.
const MaxRows = 200

var (
	ErrNoRows      = errors.New("csv file has no data rows")
	ErrTooManyRows = fmt.Errorf("csv file exceeds the %d row limit", MaxRows)
	ErrBadHeader   = errors.New("csv header is invalid")
)

// RowErrors aggregates validation failures across an import file. When any
// row fails, nothing is inserted.
type RowErrors struct {
	Rows []models.RowError
}

func (e *RowErrors) Error() string {
	return fmt.Sprintf("%d rows failed validation", len(e.Rows))
}

// expectedHeaders are the columns an import file must carry, in any order.
var expectedHeaders = []string{
	"fullName", "email", "phone", "city", "propertyType", "bhk",
	"purpose", "budgetMin", "budgetMax", "timeline", "source",
	"notes", "tags", "status",
}

// Service handles bulk CSV imports of buyers.
type Service struct {
	db     *gorm.DB
	cache  *cache.Client
	schema *buyers.Schema
}

// NewService creates a new import service. cache may be nil.
func NewService(db *gorm.DB, cacheClient *cache.Client) *Service {
	return &Service{
		db:     db,
		cache:  cacheClient,
		schema: buyers.NewSchema(),
	}
}

// ImportCSV parses and validates an entire file before touching the
// database. The batch is all-or-nothing: every row inserts with its history
// entry in one transaction, or nothing does. Returns the number of buyers
// created.
func (s *Service) ImportCSV(ctx context.Context, r io.Reader, actor buyers.Actor) (int, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return 0, ErrNoRows
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read csv header: %w", err)
	}

	columns, err := headerMap(header)
	if err != nil {
		return 0, err
	}

	var (
		candidates []*models.Buyer
		rowErrors  []models.RowError
		rowNum     int
	)

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}

		rowNum++
		if rowNum > MaxRows {
			return 0, ErrTooManyRows
		}

		if err != nil {
			rowErrors = append(rowErrors, models.RowError{
				Row:    rowNum,
				Errors: []string{err.Error()},
			})
			continue
		}

		buyer, parseErrs := s.parseRow(record, columns, actor.UserID)
		if len(parseErrs) > 0 {
			rowErrors = append(rowErrors, models.RowError{Row: rowNum, Errors: parseErrs})
			continue
		}

		if issues := s.schema.Validate(buyer); len(issues) > 0 {
			msgs := make([]string, len(issues))
			for i, issue := range issues {
				msgs[i] = fmt.Sprintf("%s: %s", issue.Field, issue.Message)
			}
			rowErrors = append(rowErrors, models.RowError{Row: rowNum, Errors: msgs})
			continue
		}

		candidates = append(candidates, buyer)
	}

	if rowNum == 0 {
		return 0, ErrNoRows
	}
	if len(rowErrors) > 0 {
		return 0, &RowErrors{Rows: rowErrors}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, buyer := range candidates {
			if err := tx.Create(buyer).Error; err != nil {
				return fmt.Errorf("failed to insert buyer: %w", err)
			}
			history := &models.BuyerHistory{
				BuyerID:     buyer.ID,
				ChangedByID: actor.UserID,
				Diff:        models.ImportedDiff(buyer),
			}
			if err := tx.Create(history).Error; err != nil {
				return fmt.Errorf("failed to record history: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if s.cache != nil {
		_ = s.cache.DeletePattern(ctx, "buyers:list:*")
	}

	return len(candidates), nil
}

// headerMap resolves column positions by name so column order in the file
// does not matter.
func headerMap(header []string) (map[string]int, error) {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(name)] = i
	}
	for _, name := range expectedHeaders {
		if _, ok := columns[name]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrBadHeader, name)
		}
	}
	return columns, nil
}

func (s *Service) parseRow(record []string, columns map[string]int, ownerID int) (*models.Buyer, []string) {
	get := func(name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	var errs []string

	buyer := &models.Buyer{
		FullName:     get("fullName"),
		Phone:        get("phone"),
		City:         get("city"),
		PropertyType: get("propertyType"),
		Purpose:      get("purpose"),
		Timeline:     get("timeline"),
		Source:       get("source"),
		Status:       get("status"),
		OwnerID:      ownerID,
		Version:      1,
	}
	if buyer.Status == "" {
		buyer.Status = models.StatusDefault
	}

	if v := get("email"); v != "" {
		buyer.Email = &v
	}
	if v := get("bhk"); v != "" {
		buyer.BHK = &v
	}
	if v := get("notes"); v != "" {
		buyer.Notes = &v
	}
	if v := get("budgetMin"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, "budgetMin: must be a whole number")
		} else {
			buyer.BudgetMin = &n
		}
	}
	if v := get("budgetMax"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, "budgetMax: must be a whole number")
		} else {
			buyer.BudgetMax = &n
		}
	}
	if v := get("tags"); v != "" {
		for _, tag := range strings.Split(v, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				buyer.Tags = append(buyer.Tags, tag)
			}
		}
	}

	return buyer, errs
}

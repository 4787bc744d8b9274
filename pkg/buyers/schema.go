package buyers

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/propstack/buyerbase/pkg/models"
)

// Schema validates buyer records. Struct tags cover the per-field rules;
// Validate adds the cross-field ones on top.
type Schema struct {
	validate *validator.Validate
}

// NewSchema creates a buyer schema validator.
func NewSchema() *Schema {
	v := validator.New()

	// Report issues under the JSON field names clients actually send.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Schema{validate: v}
}

// ValidationError carries every field issue found in one record.
type ValidationError struct {
	Issues []models.FieldIssue
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "invalid buyer"
	}
	parts := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		parts[i] = fmt.Sprintf("%s: %s", issue.Field, issue.Message)
	}
	return strings.Join(parts, "; ")
}

// Validate checks a complete buyer record and returns every issue found.
// A nil return means the record is valid.
func (s *Schema) Validate(b *models.Buyer) []models.FieldIssue {
	var issues []models.FieldIssue

	if err := s.validate.Struct(b); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				issues = append(issues, models.FieldIssue{
					Field:   fe.Field(),
					Message: messageFor(fe),
				})
			}
		} else {
			issues = append(issues, models.FieldIssue{Field: "", Message: err.Error()})
		}
	}

	issues = append(issues, s.crossFieldIssues(b)...)
	return issues
}

// ValidateForm applies the intake-form rules: everything Validate checks,
// plus at least one tag. CSV import and the API accept tagless records.
func (s *Schema) ValidateForm(b *models.Buyer) []models.FieldIssue {
	issues := s.Validate(b)
	if len(b.Tags) == 0 {
		issues = append(issues, models.FieldIssue{
			Field:   "tags",
			Message: "at least one tag is required",
		})
	}
	return issues
}

// crossFieldIssues checks rules that span more than one field. Each issue is
// attributed to the field the user should fix.
func (s *Schema) crossFieldIssues(b *models.Buyer) []models.FieldIssue {
	var issues []models.FieldIssue

	if needsBHK(b.PropertyType) && (b.BHK == nil || *b.BHK == "") {
		issues = append(issues, models.FieldIssue{
			Field:   "bhk",
			Message: "bhk is required for Apartment and Villa properties",
		})
	}

	if b.BudgetMin != nil && b.BudgetMax != nil && *b.BudgetMax < *b.BudgetMin {
		issues = append(issues, models.FieldIssue{
			Field:   "budgetMax",
			Message: "budgetMax must be greater than or equal to budgetMin",
		})
	}

	return issues
}

func needsBHK(propertyType string) bool {
	return propertyType == "Apartment" || propertyType == "Villa"
}

// messageFor renders one struct-tag failure as a human message.
func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", fe.Field())
	case "number":
		return fmt.Sprintf("%s must contain only digits", fe.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), strings.Join(strings.Fields(fe.Param()), ", "))
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

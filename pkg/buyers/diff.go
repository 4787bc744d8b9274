package buyers

import (
	"slices"

	"github.com/propstack/buyerbase/pkg/models"
)

// Diff computes the field-level changes between two buyer records, keyed by
// JSON field name. Bookkeeping columns (id, ownerId, createdAt, updatedAt,
// version) never appear in a diff. An empty map means a no-op write.
func Diff(existing, proposed *models.Buyer) map[string]models.FieldChange {
	changes := make(map[string]models.FieldChange)

	diffString(changes, "fullName", existing.FullName, proposed.FullName)
	diffStringPtr(changes, "email", existing.Email, proposed.Email)
	diffString(changes, "phone", existing.Phone, proposed.Phone)
	diffString(changes, "city", existing.City, proposed.City)
	diffString(changes, "propertyType", existing.PropertyType, proposed.PropertyType)
	diffStringPtr(changes, "bhk", existing.BHK, proposed.BHK)
	diffString(changes, "purpose", existing.Purpose, proposed.Purpose)
	diffIntPtr(changes, "budgetMin", existing.BudgetMin, proposed.BudgetMin)
	diffIntPtr(changes, "budgetMax", existing.BudgetMax, proposed.BudgetMax)
	diffString(changes, "timeline", existing.Timeline, proposed.Timeline)
	diffString(changes, "source", existing.Source, proposed.Source)
	diffString(changes, "status", existing.Status, proposed.Status)
	diffStringPtr(changes, "notes", existing.Notes, proposed.Notes)

	// Tags compare by content, not identity: nil and empty are the same.
	if !slices.Equal(existing.Tags, proposed.Tags) &&
		!(len(existing.Tags) == 0 && len(proposed.Tags) == 0) {
		changes["tags"] = models.FieldChange{Old: existing.Tags, New: proposed.Tags}
	}

	return changes
}

func diffString(changes map[string]models.FieldChange, field, old, new string) {
	if old != new {
		changes[field] = models.FieldChange{Old: old, New: new}
	}
}

func diffStringPtr(changes map[string]models.FieldChange, field string, old, new *string) {
	if !ptrEqual(old, new) {
		changes[field] = models.FieldChange{Old: deref(old), New: deref(new)}
	}
}

func diffIntPtr(changes map[string]models.FieldChange, field string, old, new *int) {
	if !ptrEqual(old, new) {
		changes[field] = models.FieldChange{Old: deref(old), New: deref(new)}
	}
}

func ptrEqual[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// deref unwraps a pointer for storage in a diff; nil stays nil so absent
// values serialize as JSON null.
func deref[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

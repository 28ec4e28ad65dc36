package board

import (
	"strings"
	"time"

	"github.com/novuscrm/syncwork/internal/domain"
)

// defaultCountry is applied to phone columns when no country code is
// supplied, matching the original service's default.
const defaultCountry = "US"

// BuildContactColumnValues projects a Contact's attributes into the
// board's typed column shape. Building column values twice from the
// same entity yields equal structures because this is a pure function
// of its input.
func BuildContactColumnValues(c *domain.Contact) ColumnValues {
	values:= ColumnValues{}
	if c.Email != "" {
 values["email"] = formatEmail(c.Email)
	}
	if c.Phone != nil && *c.Phone != "" {
 values["phone"] = formatPhone(*c.Phone, "")
	}
	return values
}

// BuildOrganizationColumnValues projects an Organization's attributes into
// the board's typed column shape.
func BuildOrganizationColumnValues(o *domain.Organization) ColumnValues {
	values:= ColumnValues{}
	if o.Status != nil && *o.Status != "" {
 values["status"] = formatStatus(*o.Status)
	}
	return values
}

func formatEmail(email string) map[string]any {
	return map[string]any{"email": email, "text": email}
}

// formatPhone builds the {phone, countryShortName} projection. country is
// uppercased; an empty country defaults to "US".
func formatPhone(phone, country string) map[string]any {
	code:= strings.ToUpper(strings.TrimSpace(country))
	if code == "" {
 code = defaultCountry
	}
	return map[string]any{"phone": phone, "countryShortName": code}
}

func formatStatus(label string) map[string]any {
	return map[string]any{"label": label}
}

// FormatDate renders t as the board's YYYY-MM-DD date column format
//. Exported because date columns are populated by callers that hold
// entity-specific date fields this package doesn't know about (e.g.
// project start dates in the search/sync integration).
func FormatDate(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

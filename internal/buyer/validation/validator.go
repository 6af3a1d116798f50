// Package validation turns untrusted buyer payloads into typed records.
//
// Every entry point normalizes its input for the selected Mode, then runs one
// shared pass: per-field rules in declaration order, and only when those all
// pass, the cross-field refinements (BHK requirement, then budget order).
package validation

import (
	"slices"
	"strings"
	"time"

	"leadbook/internal/buyer/models"
	dErrors "leadbook/pkg/domain-errors"
)

// ValidateCreate validates a JSON-typed create payload. The returned buyer has
// defaults applied (status NEW, empty tags) but no id, owner or timestamps.
func ValidateCreate(raw map[string]any) (*models.Buyer, dErrors.FieldErrors) {
	return validateRecord(ModeStrict, raw)
}

// ValidateCSVRow validates one CSV row keyed by header name.
func ValidateCSVRow(row map[string]string) (*models.Buyer, dErrors.FieldErrors) {
	raw := make(map[string]any, len(row))
	for k, v := range row {
		raw[k] = v
	}
	return validateRecord(ModeCSV, raw)
}

func validateRecord(mode Mode, raw map[string]any) (*models.Buyer, dErrors.FieldErrors) {
	p, errs := checkFields(normalize(mode, raw), true)
	if len(errs) > 0 {
		return nil, errs
	}
	if errs = refine(p, false); len(errs) > 0 {
		return nil, errs
	}
	return buildBuyer(p), nil
}

// ValidateUpdate validates a partial update payload. id and updatedAt must be
// present; every other field is optional and, when present, checked with the
// create rules. Cross-field rules run only over fields the payload carries, so
// callers must re-check the merged record with CheckRecord.
func ValidateUpdate(raw map[string]any) (*models.PartialBuyer, dErrors.FieldErrors) {
	var errs dErrors.FieldErrors

	id, _ := raw[models.FieldID].(string)
	if strings.TrimSpace(id) == "" {
		errs.Add(models.FieldID, MsgIDRequired)
	}
	updatedAt, msg := parseTimestamp(raw[models.FieldUpdatedAt])
	if msg != "" {
		errs.Add(models.FieldUpdatedAt, msg)
	}

	p, fieldErrs := checkFields(normalize(ModeStrict, raw), false)
	errs = append(errs, fieldErrs...)
	if len(errs) > 0 {
		return nil, errs
	}
	if errs = refine(p, true); len(errs) > 0 {
		return nil, errs
	}
	p.ID = id
	p.UpdatedAt = updatedAt
	return p, nil
}

// CheckRecord runs the cross-field rules over a complete record.
func CheckRecord(b *models.Buyer) dErrors.FieldErrors {
	p := b.AsPartial()
	return refine(&p, false)
}

func parseTimestamp(v any) (time.Time, string) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, MsgUpdatedAtMissing
	case time.Time:
		if t.IsZero() {
			return time.Time{}, MsgUpdatedAtMissing
		}
		return t, ""
	case string:
		if t == "" {
			return time.Time{}, MsgUpdatedAtMissing
		}
		parsed, err := time.Parse(time.RFC3339Nano, t)
		if err != nil {
			return time.Time{}, MsgUpdatedAtInvalid
		}
		return parsed, ""
	}
	return time.Time{}, MsgUpdatedAtInvalid
}

func buildBuyer(p *models.PartialBuyer) *models.Buyer {
	b := &models.Buyer{
		FullName:     *p.FullName,
		Phone:        *p.Phone,
		City:         *p.City,
		PropertyType: *p.PropertyType,
		BHK:          p.BHK.Value,
		Purpose:      *p.Purpose,
		BudgetMin:    p.BudgetMin.Value,
		BudgetMax:    p.BudgetMax.Value,
		Timeline:     *p.Timeline,
		Source:       *p.Source,
		Tags:         []string{},
		Status:       models.StatusNew,
	}
	if p.Email != nil {
		b.Email = *p.Email
	}
	if p.Notes != nil {
		b.Notes = *p.Notes
	}
	if p.Tags != nil {
		b.Tags = slices.Clone(*p.Tags)
	}
	if p.Status != nil {
		b.Status = *p.Status
	}
	return b
}

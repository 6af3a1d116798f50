package validation

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"leadbook/internal/buyer/models"
	dErrors "leadbook/pkg/domain-errors"
)

var (
	validate   = validator.New()
	phoneRegex = regexp.MustCompile(`^\d{10,15}$`)
)

const (
	fullNameMin = 2
	fullNameMax = 80
	notesMax    = 1000
)

// fieldRule checks one raw value and writes the typed result into out.
// It returns a failure message, or "" when the value is valid.
type fieldRule struct {
	name     string
	label    string
	required bool
	nullable bool
	apply    func(v any, out *models.PartialBuyer) string
}

// fieldRules run in declaration order; one failure per field at most.
var fieldRules = []fieldRule{
	{name: models.FieldFullName, label: "Full name", required: true, apply: applyFullName},
	{name: models.FieldEmail, label: "Email", apply: applyEmail},
	{name: models.FieldPhone, label: "Phone", required: true, apply: applyPhone},
	{name: models.FieldCity, label: "City", required: true, apply: func(v any, out *models.PartialBuyer) string {
		return applyEnum(v, "City", models.Cities, &out.City)
	}},
	{name: models.FieldPropertyType, label: "Property type", required: true, apply: func(v any, out *models.PartialBuyer) string {
		return applyEnum(v, "Property type", models.PropertyTypes, &out.PropertyType)
	}},
	{name: models.FieldBHK, label: "BHK", nullable: true, apply: applyBHK},
	{name: models.FieldPurpose, label: "Purpose", required: true, apply: func(v any, out *models.PartialBuyer) string {
		return applyEnum(v, "Purpose", models.Purposes, &out.Purpose)
	}},
	{name: models.FieldBudgetMin, label: "Minimum budget", nullable: true, apply: func(v any, out *models.PartialBuyer) string {
		return applyBudget(v, MsgBudgetMinInvalid, &out.BudgetMin)
	}},
	{name: models.FieldBudgetMax, label: "Maximum budget", nullable: true, apply: func(v any, out *models.PartialBuyer) string {
		return applyBudget(v, MsgBudgetMaxInvalid, &out.BudgetMax)
	}},
	{name: models.FieldTimeline, label: "Timeline", required: true, apply: func(v any, out *models.PartialBuyer) string {
		return applyEnum(v, "Timeline", models.Timelines, &out.Timeline)
	}},
	{name: models.FieldSource, label: "Source", required: true, apply: func(v any, out *models.PartialBuyer) string {
		return applyEnum(v, "Source", models.Sources, &out.Source)
	}},
	{name: models.FieldNotes, label: "Notes", apply: applyNotes},
	{name: models.FieldTags, label: "Tags", apply: applyTags},
	{name: models.FieldStatus, label: "Status", apply: func(v any, out *models.PartialBuyer) string {
		return applyEnum(v, "Status", models.Statuses, &out.Status)
	}},
}

// checkFields runs every field rule over values. With requireAll set (create),
// missing required fields fail; otherwise missing fields are skipped.
func checkFields(values map[string]any, requireAll bool) (*models.PartialBuyer, dErrors.FieldErrors) {
	out := &models.PartialBuyer{}
	var errs dErrors.FieldErrors
	for _, rule := range fieldRules {
		v, present := values[rule.name]
		if !present || v == nil {
			switch {
			case present && rule.nullable:
				markNull(rule.name, out)
			case rule.required && (requireAll || present):
				errs.Add(rule.name, rule.label+" is required")
			}
			continue
		}
		if msg := rule.apply(v, out); msg != "" {
			errs.Add(rule.name, msg)
		}
	}
	return out, errs
}

func markNull(field string, out *models.PartialBuyer) {
	switch field {
	case models.FieldBHK:
		out.BHK = models.Null[models.BHK]()
	case models.FieldBudgetMin:
		out.BudgetMin = models.Null[int64]()
	case models.FieldBudgetMax:
		out.BudgetMax = models.Null[int64]()
	}
}

func applyFullName(v any, out *models.PartialBuyer) string {
	s, ok := v.(string)
	if !ok {
		return "Full name must be a string"
	}
	n := utf8.RuneCountInString(s)
	if n < fullNameMin {
		return MsgFullNameTooShort
	}
	if n > fullNameMax {
		return MsgFullNameTooLong
	}
	out.FullName = &s
	return ""
}

func applyEmail(v any, out *models.PartialBuyer) string {
	s, ok := v.(string)
	if !ok {
		return MsgEmailInvalid
	}
	if s != "" {
		if err := validate.Var(s, "email"); err != nil {
			return MsgEmailInvalid
		}
	}
	out.Email = &s
	return ""
}

func applyPhone(v any, out *models.PartialBuyer) string {
	s, ok := v.(string)
	if !ok || !phoneRegex.MatchString(s) {
		return MsgPhoneInvalid
	}
	out.Phone = &s
	return ""
}

func applyEnum[T interface {
	~string
	IsValid() bool
}](v any, label string, allowed []T, dst **T) string {
	s, ok := v.(string)
	if ok {
		if e := T(s); e.IsValid() {
			*dst = &e
			return ""
		}
	}
	names := make([]string, len(allowed))
	for i, a := range allowed {
		names[i] = string(a)
	}
	return fmt.Sprintf("%s must be one of %s", label, strings.Join(names, ", "))
}

func applyBHK(v any, out *models.PartialBuyer) string {
	var bhk *models.BHK
	if msg := applyEnum(v, "BHK", models.BHKs, &bhk); msg != "" {
		return msg
	}
	out.BHK = models.Optional[models.BHK]{Present: true, Value: bhk}
	return ""
}

func applyBudget(v any, msg string, dst *models.Optional[int64]) string {
	n, ok := asInt64(v)
	if !ok || n <= 0 {
		return msg
	}
	*dst = models.Some(n)
	return ""
}

func applyNotes(v any, out *models.PartialBuyer) string {
	s, ok := v.(string)
	if !ok {
		return "Notes must be a string"
	}
	if utf8.RuneCountInString(s) > notesMax {
		return MsgNotesTooLong
	}
	out.Notes = &s
	return ""
}

func applyTags(v any, out *models.PartialBuyer) string {
	var tags []string
	switch t := v.(type) {
	case []string:
		tags = append([]string{}, t...)
	case []any:
		tags = make([]string, 0, len(t))
		for _, item := range t {
			s, ok := item.(string)
			if !ok {
				return MsgTagsInvalid
			}
			tags = append(tags, s)
		}
	default:
		return MsgTagsInvalid
	}
	out.Tags = &tags
	return ""
}

// asInt64 accepts the integer shapes JSON decoding and callers produce.
func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	case float64:
		if n != math.Trunc(n) || n > math.MaxInt64 || n < math.MinInt64 {
			return 0, false
		}
		return int64(n), true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	}
	return 0, false
}

type bhkRule int

const (
	bhkTolerated bhkRule = iota
	bhkRequired
)

// bhkRules says, per property type, whether a BHK value must accompany it.
var bhkRules = map[models.PropertyType]bhkRule{
	models.PropertyApartment: bhkRequired,
	models.PropertyVilla:     bhkRequired,
	models.PropertyPlot:      bhkTolerated,
	models.PropertyOffice:    bhkTolerated,
	models.PropertyRetail:    bhkTolerated,
}

// refine runs the cross-field rules in fixed order. In partial mode a rule
// only runs when every field it reads was sent.
func refine(p *models.PartialBuyer, partial bool) dErrors.FieldErrors {
	var errs dErrors.FieldErrors

	// Rule 1: property types that need a BHK must have one.
	if p.PropertyType != nil && (p.BHK.Present || !partial) {
		if bhkRules[*p.PropertyType] == bhkRequired && p.BHK.Value == nil {
			errs.Add(models.FieldBHK, MsgBHKRequired)
		}
	}

	// Rule 2: the budget range must not be inverted.
	if p.BudgetMin.Value != nil && p.BudgetMax.Value != nil && *p.BudgetMax.Value < *p.BudgetMin.Value {
		errs.Add(models.FieldBudgetMax, MsgBudgetOrder)
	}

	return errs
}

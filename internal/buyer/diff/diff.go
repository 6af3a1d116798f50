// Package diff computes field-level change sets between a stored buyer and an
// incoming update. The result feeds the buyer's history; an empty diff means
// no history entry is written.
package diff

import (
	"slices"

	"leadbook/internal/buyer/models"
)

// Compute compares every field present in incoming against existing and
// returns the ones whose values differ. id and updatedAt are never compared.
func Compute(existing models.Buyer, incoming models.PartialBuyer) models.Diff {
	d := models.Diff{}
	for _, f := range comparators {
		to, present := f.incoming(incoming)
		if !present {
			continue
		}
		from := f.existing(existing)
		if !equal(from, to) {
			d[f.name] = models.Change{From: from, To: to}
		}
	}
	return d
}

// ComputeRecords compares two complete records.
func ComputeRecords(existing, incoming models.Buyer) models.Diff {
	return Compute(existing, incoming.AsPartial())
}

type comparator struct {
	name     string
	existing func(models.Buyer) any
	incoming func(models.PartialBuyer) (any, bool)
}

// Values are reported in their wire shape: enums as strings, absent optionals
// as nil, tags as []string.
var comparators = []comparator{
	{
		name:     models.FieldFullName,
		existing: func(b models.Buyer) any { return b.FullName },
		incoming: func(p models.PartialBuyer) (any, bool) { return deref(p.FullName) },
	},
	{
		name:     models.FieldEmail,
		existing: func(b models.Buyer) any { return b.Email },
		incoming: func(p models.PartialBuyer) (any, bool) { return deref(p.Email) },
	},
	{
		name:     models.FieldPhone,
		existing: func(b models.Buyer) any { return b.Phone },
		incoming: func(p models.PartialBuyer) (any, bool) { return deref(p.Phone) },
	},
	{
		name:     models.FieldCity,
		existing: func(b models.Buyer) any { return string(b.City) },
		incoming: func(p models.PartialBuyer) (any, bool) { return derefString(p.City) },
	},
	{
		name:     models.FieldPropertyType,
		existing: func(b models.Buyer) any { return string(b.PropertyType) },
		incoming: func(p models.PartialBuyer) (any, bool) { return derefString(p.PropertyType) },
	},
	{
		name:     models.FieldBHK,
		existing: func(b models.Buyer) any { return optionalString(b.BHK) },
		incoming: func(p models.PartialBuyer) (any, bool) {
			return optionalString(p.BHK.Value), p.BHK.Present
		},
	},
	{
		name:     models.FieldPurpose,
		existing: func(b models.Buyer) any { return string(b.Purpose) },
		incoming: func(p models.PartialBuyer) (any, bool) { return derefString(p.Purpose) },
	},
	{
		name:     models.FieldBudgetMin,
		existing: func(b models.Buyer) any { return optionalInt(b.BudgetMin) },
		incoming: func(p models.PartialBuyer) (any, bool) {
			return optionalInt(p.BudgetMin.Value), p.BudgetMin.Present
		},
	},
	{
		name:     models.FieldBudgetMax,
		existing: func(b models.Buyer) any { return optionalInt(b.BudgetMax) },
		incoming: func(p models.PartialBuyer) (any, bool) {
			return optionalInt(p.BudgetMax.Value), p.BudgetMax.Present
		},
	},
	{
		name:     models.FieldTimeline,
		existing: func(b models.Buyer) any { return string(b.Timeline) },
		incoming: func(p models.PartialBuyer) (any, bool) { return derefString(p.Timeline) },
	},
	{
		name:     models.FieldSource,
		existing: func(b models.Buyer) any { return string(b.Source) },
		incoming: func(p models.PartialBuyer) (any, bool) { return derefString(p.Source) },
	},
	{
		name:     models.FieldNotes,
		existing: func(b models.Buyer) any { return b.Notes },
		incoming: func(p models.PartialBuyer) (any, bool) { return deref(p.Notes) },
	},
	{
		name:     models.FieldTags,
		existing: func(b models.Buyer) any { return tagsOrEmpty(b.Tags) },
		incoming: func(p models.PartialBuyer) (any, bool) {
			if p.Tags == nil {
				return nil, false
			}
			return tagsOrEmpty(*p.Tags), true
		},
	},
	{
		name:     models.FieldStatus,
		existing: func(b models.Buyer) any { return string(b.Status) },
		incoming: func(p models.PartialBuyer) (any, bool) { return derefString(p.Status) },
	},
}

func equal(a, b any) bool {
	at, aok := a.([]string)
	bt, bok := b.([]string)
	if aok || bok {
		return aok && bok && slices.Equal(at, bt)
	}
	return a == b
}

func deref(p *string) (any, bool) {
	if p == nil {
		return nil, false
	}
	return *p, true
}

func derefString[T ~string](p *T) (any, bool) {
	if p == nil {
		return nil, false
	}
	return string(*p), true
}

func optionalString[T ~string](p *T) any {
	if p == nil {
		return nil
	}
	return string(*p)
}

func optionalInt(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}

func tagsOrEmpty(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return slices.Clone(tags)
}

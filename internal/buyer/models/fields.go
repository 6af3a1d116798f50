package models

// Wire names of buyer fields, shared by validation, diffing and CSV.
const (
	FieldID           = "id"
	FieldUpdatedAt    = "updatedAt"
	FieldFullName     = "fullName"
	FieldEmail        = "email"
	FieldPhone        = "phone"
	FieldCity         = "city"
	FieldPropertyType = "propertyType"
	FieldBHK          = "bhk"
	FieldPurpose      = "purpose"
	FieldBudgetMin    = "budgetMin"
	FieldBudgetMax    = "budgetMax"
	FieldTimeline     = "timeline"
	FieldSource       = "source"
	FieldNotes        = "notes"
	FieldTags         = "tags"
	FieldStatus       = "status"
)

// RecordFields lists the user-editable fields in declaration order.
var RecordFields = []string{
	FieldFullName,
	FieldEmail,
	FieldPhone,
	FieldCity,
	FieldPropertyType,
	FieldBHK,
	FieldPurpose,
	FieldBudgetMin,
	FieldBudgetMax,
	FieldTimeline,
	FieldSource,
	FieldNotes,
	FieldTags,
	FieldStatus,
}

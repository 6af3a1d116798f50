package validation

// Messages surfaced to clients. The first four are relied on by the UI and
// must not change.
const (
	MsgFullNameTooShort = "Full name must be at least 2 characters"
	MsgPhoneInvalid     = "Phone must be 10-15 digits"
	MsgBHKRequired      = "BHK is required for Apartment and Villa properties"
	MsgBudgetOrder      = "Maximum budget must be greater than or equal to minimum budget"

	MsgFullNameTooLong  = "Full name must be less than 80 characters"
	MsgNotesTooLong     = "Notes must be less than 1000 characters"
	MsgEmailInvalid     = "Invalid email address"
	MsgBudgetMinInvalid = "Minimum budget must be a positive integer"
	MsgBudgetMaxInvalid = "Maximum budget must be a positive integer"
	MsgTagsInvalid      = "Tags must be a list of strings"
	MsgIDRequired       = "id is required"
	MsgUpdatedAtMissing = "updatedAt is required"
	MsgUpdatedAtInvalid = "updatedAt must be an RFC 3339 timestamp"
)

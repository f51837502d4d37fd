package decode

// Type codes for email/phone/postal/relation rows, per CP2's label-resolution
// convention: a small fixit integer enum per mime kind, with a fixed
// "custom" sentinel that defers to the row's free-form label column.
const (
	typeCustom = 0

	emailTypeHome  = 1
	emailTypeWork  = 2
	emailTypeOther = 3
	emailTypeMobile = 4

	phoneTypeHome       = 1
	phoneTypeMobile     = 2
	phoneTypeWork       = 3
	phoneTypeFaxWork    = 4
	phoneTypeFaxHome    = 5
	phoneTypePager      = 6
	phoneTypeOther      = 7
	phoneTypeMain       = 12

	postalTypeHome  = 1
	postalTypeWork  = 2
	postalTypeOther = 3

	relationTypeAssistant  = 1
	relationTypeBrother    = 2
	relationTypeChild      = 3
	relationTypeFriend     = 9
	relationTypeManager    = 10
	relationTypeParent     = 11
	relationTypePartner    = 12
	relationTypeSpouse     = 15
)

var emailTypeLabels = map[int64]string{
	emailTypeHome:   "Home",
	emailTypeWork:   "Work",
	emailTypeOther:  "Other",
	emailTypeMobile: "Mobile",
}

var phoneTypeLabels = map[int64]string{
	phoneTypeHome:    "Home",
	phoneTypeMobile:  "Mobile",
	phoneTypeWork:    "Work",
	phoneTypeFaxWork: "Work Fax",
	phoneTypeFaxHome: "Home Fax",
	phoneTypePager:   "Pager",
	phoneTypeOther:   "Other",
	phoneTypeMain:    "Main",
}

var postalTypeLabels = map[int64]string{
	postalTypeHome:  "Home",
	postalTypeWork:  "Work",
	postalTypeOther: "Other",
}

var relationTypeLabels = map[int64]string{
	relationTypeAssistant: "Assistant",
	relationTypeBrother:   "Brother",
	relationTypeChild:     "Child",
	relationTypeFriend:    "Friend",
	relationTypeManager:   "Manager",
	relationTypeParent:    "Parent",
	relationTypePartner:   "Partner",
	relationTypeSpouse:    "Spouse",
}

// standardLabel returns the fixed label for a type code from the given
// table, reporting ok=false for the custom sentinel or an unrecognized code
// (both of which defer to the resolver's custom/custom-label handling).
func standardLabel(table map[int64]string, typeCode int64) (label string, ok bool) {
	if typeCode == typeCustom {
		return "", false
	}
	label, ok = table[typeCode]
	return label, ok
}

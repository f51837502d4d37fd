package decode

import "github.com/cpindexer/cpindexer/internal/model"

// pointAccumulator is the mutable per-label bucket a personAccumulator keeps
// while folding rows for one contact.
type pointAccumulator struct {
	label     string
	emails    []string
	phones    []string
	addresses []string
	appIDs    []string
}

func (p *pointAccumulator) toContactPoint() model.ContactPoint {
	return model.ContactPoint{
		Label:     p.label,
		Emails:    p.emails,
		Phones:    p.phones,
		Addresses: p.addresses,
		AppIDs:    p.appIDs,
	}
}

// personAccumulator is a pure value that owns the in-progress state for one
// contact_id's worth of rows. It is unique per in-flight contact: the
// decoder owns exactly one at a time and consumes it into a Person at the
// next contact_id boundary (or at cursor exhaustion).
type personAccumulator struct {
	id          string
	displayName string
	isImportant bool
	externalURI string
	imageURI    string

	givenName  string
	middleName string
	familyName string

	additionalNames []model.AdditionalName
	affiliations    []string
	relations       []string
	note            string
	noteSet         bool

	pointOrder []string
	points     map[string]*pointAccumulator
}

func newPersonAccumulator(id string) *personAccumulator {
	return &personAccumulator{
		id:     id,
		points: make(map[string]*pointAccumulator),
	}
}

// point returns the label's bucket, creating and order-tracking it on first
// use so the emitted Person preserves first-seen label order (which, given
// the cursor's is_super_primary/is_primary sort, puts primary rows first —
// see spec scenario S5).
func (a *personAccumulator) point(label string) *pointAccumulator {
	if p, ok := a.points[label]; ok {
		return p
	}
	p := &pointAccumulator{label: label}
	a.points[label] = p
	a.pointOrder = append(a.pointOrder, label)
	return p
}

func (a *personAccumulator) addEmail(label, address string) {
	p := a.point(label)
	p.emails = append(p.emails, address)
}

func (a *personAccumulator) addPhone(label, number string) {
	p := a.point(label)
	p.phones = append(p.phones, number)
}

func (a *personAccumulator) addAddress(label, formatted string) {
	p := a.point(label)
	p.addresses = append(p.addresses, formatted)
}

func (a *personAccumulator) addNickname(value string) {
	a.additionalNames = append(a.additionalNames, model.AdditionalName{Kind: model.NameKindNickname, Value: value})
}

func (a *personAccumulator) addPhonetic(value string) {
	a.additionalNames = append(a.additionalNames, model.AdditionalName{Kind: model.NameKindPhonetic, Value: value})
}

func (a *personAccumulator) addAffiliation(title, department, company string) {
	joined := joinNonEmpty(", ", title, department, company)
	if joined == "" {
		return
	}
	a.affiliations = append(a.affiliations, joined)
}

func (a *personAccumulator) addRelation(value string) {
	a.relations = append(a.relations, value)
}

func (a *personAccumulator) setNote(value string) {
	a.note = value
	a.noteSet = true
}

func (a *personAccumulator) setStructuredName(given, middle, family string) {
	a.givenName, a.middleName, a.familyName = given, middle, family
}

// build consumes the accumulator into a final Person. Points are emitted in
// first-seen order.
func (a *personAccumulator) build() model.Person {
	points := make([]model.ContactPoint, 0, len(a.pointOrder))
	for _, label := range a.pointOrder {
		points = append(points, a.points[label].toContactPoint())
	}
	return model.Person{
		ID:              a.id,
		DisplayName:     a.displayName,
		GivenName:       a.givenName,
		MiddleName:      a.middleName,
		FamilyName:      a.familyName,
		AdditionalNames: a.additionalNames,
		ExternalURI:     a.externalURI,
		ImageURI:        a.imageURI,
		IsImportant:     a.isImportant,
		Affiliations:    a.affiliations,
		Relations:       a.relations,
		Note:            a.note,
		ContactPoints:   points,
	}
}

func joinNonEmpty(sep string, parts ...string) string {
	out := ""
	for _, p := range parts {
		if p == "" {
			continue
		}
		if out != "" {
			out += sep
		}
		out += p
	}
	return out
}

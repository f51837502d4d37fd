// Package label resolves the localized labels the row decoder attaches to
// contact points and relations when a row carries a type code instead of a
// free-form custom label.
package label

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func init() {
	message.SetString(language.AmericanEnglish, "custom", "Custom")
	message.SetString(language.BrazilianPortuguese, "custom", "Personalizado")
}

// Resolver resolves a (type_code, custom_label) pair into the label string
// stored on a ContactPoint, per the locale the engine was configured with.
type Resolver struct {
	printer *message.Printer
}

// NewResolver builds a Resolver for the given BCP-47 tag. An unparsable or
// empty tag falls back to American English, matching the source's own
// default-locale behavior.
func NewResolver(tag string) *Resolver {
	t, err := language.Parse(tag)
	if err != nil {
		t = language.AmericanEnglish
	}
	return &Resolver{printer: message.NewPrinter(t)}
}

// Custom returns the localized "Custom" placeholder used when a row's type
// is custom but carries no custom label.
func (r *Resolver) Custom() string {
	return r.printer.Sprintf("custom")
}

// ContactPointLabel resolves the label for an email/phone/postal row. customType
// reports whether typeCode denotes "custom" for that mime kind; customLabel is
// the row's free-form label column.
func (r *Resolver) ContactPointLabel(customType bool, customLabel string) string {
	if !customType {
		return ""
	}
	if customLabel == "" {
		return r.Custom()
	}
	return customLabel
}

// RelationLabel resolves a relation row's display label: the row's name
// column if present, else the custom label verbatim for a custom type, else
// the localized "Custom" for a custom type with no label, else customLabel
// as given. Standard relation types are not resolved here; the decoder maps
// them through its own type-code table.
func (r *Resolver) RelationLabel(name string, customType bool, customLabel string) string {
	if name != "" {
		return name
	}
	if customType && customLabel != "" {
		return customLabel
	}
	if customType {
		return r.Custom()
	}
	return customLabel
}

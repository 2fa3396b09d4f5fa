package adl

import (
	"strings"
	"unicode"
)

// commonAcronyms are fully upper-cased when they form a whole name part.
var commonAcronyms = map[string]string{
	"id":   "ID",
	"url":  "URL",
	"uuid": "UUID",
	"api":  "API",
	"sms":  "SMS",
}

// splitName splits a short name or node name on '.', '-' and '_'.
func splitName(name string) []string {
	return strings.FieldsFunc(name, func(r rune) bool {
		return r == '.' || r == '-' || r == '_'
	})
}

// ExportName turns a short name or node name into an exported Go
// identifier: "entityRelationship.patientOwner" becomes
// "EntityRelationshipPatientOwner" and "id" becomes "ID".
func ExportName(name string) string {
	var b strings.Builder
	for _, part := range splitName(name) {
		if acronym, ok := commonAcronyms[strings.ToLower(part)]; ok {
			b.WriteString(acronym)
			continue
		}
		runes := []rune(part)
		b.WriteRune(unicode.ToUpper(runes[0]))
		b.WriteString(string(runes[1:]))
	}
	return b.String()
}

// File: internal/domain/persona.go
package domain

import "strings"

// Persona names a tutoring style.
type Persona string

const (
	PersonaSocratic Persona = "socratic"
	PersonaFeynman  Persona = "feynman"
)

// ParsePersona accepts a persona name in any case.
func ParsePersona(s string) (Persona, bool) {
	switch p := Persona(strings.ToLower(strings.TrimSpace(s))); p {
	case PersonaSocratic, PersonaFeynman:
		return p, true
	default:
		return "", false
	}
}

package enums

import "fmt"

// DocumentType identifies the registration documents issued for a pet.
type DocumentType string

const (
	DocumentTypeActa       DocumentType = "acta_registro"
	DocumentTypeCredencial DocumentType = "credencial_identificacion"
)

var validDocumentTypes = []DocumentType{
	DocumentTypeActa,
	DocumentTypeCredencial,
}

var documentTypeTitles = map[DocumentType]string{
	DocumentTypeActa:       "Acta de Registro Animal",
	DocumentTypeCredencial: "Credencial de Identificación",
}

// Title returns the display name printed on the issued document.
func (d DocumentType) Title() string {
	if title, ok := documentTypeTitles[d]; ok {
		return title
	}
	return string(d)
}

// IsValid reports whether the value is a known DocumentType.
func (d DocumentType) IsValid() bool {
	for _, candidate := range validDocumentTypes {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDocumentType converts raw strings into DocumentType.
func ParseDocumentType(value string) (DocumentType, error) {
	for _, candidate := range validDocumentTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid document type %q", value)
}

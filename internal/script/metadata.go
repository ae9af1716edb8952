package script

import "strings"

// DocumentType restricts the kind of host document a script targets.
type DocumentType string

const (
	DocumentAny            DocumentType = "Any"
	DocumentProject        DocumentType = "Project"
	DocumentFamily         DocumentType = "Family"
	DocumentConceptualMass DocumentType = "ConceptualMass"
)

// ParseDocumentType maps free text onto a DocumentType, falling back to Any.
func ParseDocumentType(s string) DocumentType {
	key := strings.ToLower(strings.Join(strings.Fields(s), ""))
	switch key {
	case "project", "projectdocument":
		return DocumentProject
	case "family", "familydocument":
		return DocumentFamily
	case "conceptualmass", "mass", "massfamily":
		return DocumentConceptualMass
	default:
		return DocumentAny
	}
}

// Metadata describes a script as declared in its leading comment block.
type Metadata struct {
	Name          string       `json:"name,omitempty"`
	Description   string       `json:"description"`
	Author        string       `json:"author"`
	Website       string       `json:"website,omitempty"`
	Version       string       `json:"version,omitempty"`
	Categories    []string     `json:"categories"`
	UsageExamples []string     `json:"usageExamples"`
	Dependencies  []string     `json:"dependencies"`
	DocumentType  DocumentType `json:"documentType"`
	LastRun       string       `json:"lastRun,omitempty"`
}

// DefaultMetadata is returned for sources without a metadata block.
func DefaultMetadata() Metadata {
	return Metadata{
		Author:        "Unknown",
		Categories:    []string{},
		UsageExamples: []string{},
		Dependencies:  []string{},
		DocumentType:  DocumentAny,
	}
}

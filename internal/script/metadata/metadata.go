// Package metadata reads script-level metadata from the comment block at
// the top of a script.
package metadata

import (
	"regexp"
	"strings"

	"github.com/Sey56/Paracore-sub001/internal/script"
)

type field int

const (
	fieldNone field = iota
	fieldName
	fieldDescription
	fieldAuthor
	fieldWebsite
	fieldVersion
	fieldCategories
	fieldUsage
	fieldDependencies
	fieldDocumentType
	fieldLastRun
)

var keys = map[string]field{
	"name":          fieldName,
	"title":         fieldName,
	"description":   fieldDescription,
	"desc":          fieldDescription,
	"summary":       fieldDescription,
	"author":        fieldAuthor,
	"authors":       fieldAuthor,
	"website":       fieldWebsite,
	"url":           fieldWebsite,
	"version":       fieldVersion,
	"category":      fieldCategories,
	"categories":    fieldCategories,
	"tags":          fieldCategories,
	"usage":         fieldUsage,
	"usageexample":  fieldUsage,
	"usageexamples": fieldUsage,
	"example":       fieldUsage,
	"examples":      fieldUsage,
	"dependency":    fieldDependencies,
	"dependencies":  fieldDependencies,
	"requires":      fieldDependencies,
	"documenttype":  fieldDocumentType,
	"doctype":       fieldDocumentType,
	"lastrun":       fieldLastRun,
}

var (
	keyLine    = regexp.MustCompile(`^@?([A-Za-z][A-Za-z ]{0,30}?)\s*:\s*(.*)$`)
	bulletLine = regexp.MustCompile(`^(?:[-*•]|\d+[.)])\s+`)
	quoted     = regexp.MustCompile(`"([^"]*)"`)
)

// Extract returns the metadata declared in the leading comment block of
// source. A missing block, or missing keys, yield defaults.
func Extract(source string) script.Metadata {
	md := script.DefaultMetadata()
	current := fieldNone
	var description []string

	for _, line := range leadingComment(source) {
		if m := keyLine.FindStringSubmatch(line); m != nil {
			key := strings.ToLower(strings.ReplaceAll(m[1], " ", ""))
			if f, ok := keys[key]; ok {
				current = f
				value := strings.TrimSpace(m[2])
				if current == fieldDescription {
					description = appendNonEmpty(description, value)
				} else if value != "" {
					assign(&md, current, value, true)
				}
				continue
			}
		}
		if line == "" {
			current = fieldNone
			continue
		}
		if current == fieldNone {
			continue
		}
		if current == fieldDescription {
			description = append(description, line)
			continue
		}
		assign(&md, current, line, false)
	}
	md.Description = strings.Join(description, " ")
	return md
}

func appendNonEmpty(list []string, s string) []string {
	if s == "" {
		return list
	}
	return append(list, s)
}

// assign sets a field from a key line (inline) or from a continuation
// line. Continuation lines of list fields are one item each.
func assign(md *script.Metadata, f field, value string, inline bool) {
	switch f {
	case fieldName:
		md.Name = value
	case fieldAuthor:
		md.Author = value
	case fieldWebsite:
		md.Website = value
	case fieldVersion:
		md.Version = value
	case fieldLastRun:
		md.LastRun = value
	case fieldDocumentType:
		md.DocumentType = script.ParseDocumentType(value)
	case fieldCategories:
		md.Categories = append(md.Categories, splitItems(value)...)
	case fieldDependencies:
		md.Dependencies = append(md.Dependencies, splitItems(value)...)
	case fieldUsage:
		if inline {
			md.UsageExamples = append(md.UsageExamples, splitItems(value)...)
		} else {
			md.UsageExamples = append(md.UsageExamples, trimItem(value))
		}
	}
}

func splitItems(s string) []string {
	s = bulletLine.ReplaceAllString(strings.TrimSpace(s), "")
	var parts []string
	if q := quoted.FindAllStringSubmatch(s, -1); len(q) > 0 {
		for _, m := range q {
			parts = append(parts, m[1])
		}
	} else {
		parts = strings.Split(s, ",")
	}
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = trimItem(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func trimItem(s string) string {
	s = bulletLine.ReplaceAllString(strings.TrimSpace(s), "")
	s = strings.Trim(s, `[]"' `)
	return strings.TrimSpace(s)
}

// leadingComment returns the text lines of the first comment at the top of
// source: either a /* */ block or a run of // lines. Decorations such as
// leading '*' and '/' are stripped.
func leadingComment(source string) []string {
	s := strings.TrimLeft(strings.TrimPrefix(source, "\ufeff"), " \t\r\n")
	var raw []string
	switch {
	case strings.HasPrefix(s, "/*"):
		body := s[2:]
		if end := strings.Index(body, "*/"); end >= 0 {
			body = body[:end]
		}
		raw = strings.Split(body, "\n")
	case strings.HasPrefix(s, "//"):
		for _, line := range strings.Split(s, "\n") {
			t := strings.TrimSpace(line)
			if !strings.HasPrefix(t, "//") {
				break
			}
			raw = append(raw, strings.TrimLeft(t, "/"))
		}
	default:
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, line := range raw {
		t := strings.TrimSpace(strings.TrimRight(line, "\r"))
		t = strings.TrimSpace(strings.TrimLeft(t, "*"))
		out = append(out, t)
	}
	return out
}

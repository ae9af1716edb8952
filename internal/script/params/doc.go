package params

import (
	"regexp"
	"strings"
)

var (
	xmlTag      = regexp.MustCompile(`<[^>]+>`)
	xmlEntities = strings.NewReplacer("&lt;", "<", "&gt;", ">", "&quot;", `"`, "&apos;", "'", "&amp;", "&")
)

// docDescription derives a description from the /// lines above a member.
// Plain lines win over a <summary> block when both are present.
func docDescription(lines []string) string {
	var plain, summary []string
	inSummary, inOther := false, false
	for _, line := range lines {
		l := strings.TrimSpace(line)
		lower := strings.ToLower(l)
		switch {
		case strings.HasPrefix(lower, "<summary"):
			inSummary = !strings.Contains(lower, "</summary>")
			summary = append(summary, l)
			continue
		case inSummary:
			if strings.Contains(lower, "</summary>") {
				inSummary = false
			}
			summary = append(summary, l)
			continue
		case strings.HasPrefix(l, "<"):
			tag := strings.TrimLeft(strings.Fields(lower + " ")[0], "<")
			tag = strings.TrimRight(tag, ">/")
			inOther = !strings.Contains(lower, "</"+tag) && !strings.HasSuffix(l, "/>")
			continue
		case inOther:
			if strings.Contains(lower, "</") {
				inOther = false
			}
			continue
		}
		if l != "" {
			plain = append(plain, l)
		}
	}
	if len(plain) > 0 {
		return cleanDoc(strings.Join(plain, " "))
	}
	return cleanDoc(strings.Join(summary, " "))
}

func cleanDoc(s string) string {
	s = xmlTag.ReplaceAllString(s, "")
	s = xmlEntities.Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

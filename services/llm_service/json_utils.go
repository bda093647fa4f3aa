package llm_service

import "strings"

// StripCodeFences removes Markdown code-fence wrappers that chat models wrap
// around JSON payloads despite instructions not to.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

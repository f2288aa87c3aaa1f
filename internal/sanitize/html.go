package sanitize

import (
	"regexp"
)

// Paired dangerous elements are removed together with their content. Matching
// is lazy so that multiple independent blocks in one string are each removed
// on their own instead of one match spanning from the first open tag to the
// last close tag.
var (
	scriptBlockRe = regexp.MustCompile(`(?is)<script\b[^>]*>.*?</script\s*>`)
	iframeBlockRe = regexp.MustCompile(`(?is)<iframe\b[^>]*>.*?</iframe\s*>`)
	objectBlockRe = regexp.MustCompile(`(?is)<object\b[^>]*>.*?</object\s*>`)
	embedTagRe    = regexp.MustCompile(`(?i)<embed\b[^>]*/?>`)

	// Inline event-handler attributes, quoted or bare.
	eventAttrRe = regexp.MustCompile(`(?i)\son\w+\s*=\s*("[^"]*"|'[^']*'|[^\s>]+)`)

	jsSchemeRe = regexp.MustCompile(`(?i)javascript\s*:`)
)

// SanitizeHTML strips dangerous markup from free text while leaving benign
// formatting untouched. Script, iframe and object elements are removed with
// their content, embed tags are removed, on* handler attributes are stripped
// and javascript: URI schemes are neutralized. The function is pure and
// idempotent on its own output.
func SanitizeHTML(text string) string {
	text = scriptBlockRe.ReplaceAllString(text, "")
	text = iframeBlockRe.ReplaceAllString(text, "")
	text = objectBlockRe.ReplaceAllString(text, "")
	text = embedTagRe.ReplaceAllString(text, "")
	text = eventAttrRe.ReplaceAllString(text, "")
	text = jsSchemeRe.ReplaceAllString(text, "")
	return text
}

// Package sanitize removes markup from free text before it is displayed.
package sanitize

import "regexp"

var markup = regexp.MustCompile(`<.*?>|&.*?;`)

// Strip removes HTML tags and entities from text. Everything else, including
// whitespace around the removed parts, is left as written.
func Strip(text string) string {
	return markup.ReplaceAllString(text, "")
}

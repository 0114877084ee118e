package utils

import "github.com/microcosm-cc/bluemonday"

var sanitizer = bluemonday.UGCPolicy()

// Sanitize strips unsafe markup from user-submitted text. Post and comment
// bodies pass through here before they are written to the database.
func Sanitize(input string) string {
	return sanitizer.Sanitize(input)
}

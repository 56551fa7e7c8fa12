// Package util holds the deterministic name builders and the XML output
// normalization shared by both transformation pipelines.
package util

import "strings"

// ArcName builds the content-addressed id of an arc from source to target.
// The id doubles as a duplicate-suppression key during graph rewriting.
func ArcName(source, target string) string {
	return source + "TO" + target
}

// SilentNodeName builds the id of a silent node spliced between source and
// target.
func SilentNodeName(source, target string) string {
	return "SILENTFROM" + source + "TO" + target
}

// XMLHeader is the declaration every emitted document starts with.
const XMLHeader = `<?xml version="1.0" encoding="UTF-8"?>`

// CleanXMLString strips internal newlines, unescapes quote sequences and
// makes sure the document starts with a single XML declaration.
func CleanXMLString(s string) string {
	s = strings.ReplaceAll(s, "\n", "")
	s = strings.ReplaceAll(s, `\"`, `"`)
	if !strings.HasPrefix(s, "<?xml") {
		s = XMLHeader + s
	}
	return s
}

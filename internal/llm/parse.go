package llm

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/tsaito/scannote/constants"
)

var (
	reJSONBlock  = regexp.MustCompile("(?s)```json\\s*(.*?)\\s*```")
	reOpenFence  = regexp.MustCompile("^```[a-z]*\n")
	reCloseFence = regexp.MustCompile("\n```$")
)

// ParseResponse converts a free-form classifier reply into DocumentFields.
// It looks for a ```json fenced block first, then tries the whole reply with
// generic fencing stripped. Anything unparseable yields FallbackFields so
// the pipeline always proceeds and the raw reply is never discarded.
func ParseResponse(reply, defaultTitle string) DocumentFields {
	var candidate string
	if m := reJSONBlock.FindStringSubmatch(reply); m != nil {
		candidate = m[1]
	} else {
		candidate = strings.TrimSpace(reply)
		if strings.HasPrefix(candidate, "```") {
			candidate = reOpenFence.ReplaceAllString(candidate, "")
			candidate = reCloseFence.ReplaceAllString(candidate, "")
		}
	}

	raw := []byte(candidate)
	if err := ValidateJSONAgainstSchema(BuildDocumentJSONSchema(), raw); err != nil {
		return FallbackFields(defaultTitle, reply)
	}

	var fields DocumentFields
	if err := json.Unmarshal(raw, &fields); err != nil {
		return FallbackFields(defaultTitle, reply)
	}
	return fields
}

// FallbackFields is the hard-fallback record: the supplied default title, the
// unclassified bucket, and the entire raw reply preserved as the summary.
func FallbackFields(defaultTitle, reply string) DocumentFields {
	return DocumentFields{
		Title:       defaultTitle,
		Category:    constants.DefaultCategory,
		Author:      "Unknown",
		Published:   "Unknown",
		Description: "",
		Tags:        []string{},
		Summary:     reply,
	}
}

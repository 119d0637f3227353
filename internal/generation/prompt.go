package generation

import (
	"fmt"
	"strings"

	"ContentGenesis/internal/domain"
)

// BuildPrompt asks the backend for long-form lesson material about item.
func BuildPrompt(item domain.ContentItem) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write a comprehensive lesson titled %q.\n", item.Title)
	if item.Description != "" {
		fmt.Fprintf(&b, "Context: %s\n", item.Description)
	}
	if len(item.KeyPoints) > 0 {
		b.WriteString("Cover each of the following key points in its own section:\n")
		for _, kp := range item.KeyPoints {
			fmt.Fprintf(&b, "- %s\n", kp)
		}
	}
	b.WriteString("Use Markdown headings, explain with concrete examples, and end with a short summary.")
	return b.String()
}

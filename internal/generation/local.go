package generation

import (
	"fmt"
	"strings"
	"time"

	"ContentGenesis/internal/domain"
)

// LocalName identifies the offline tier in attempts and logs.
const LocalName = "local"

// LocalResult renders deterministic material from the item's key points.
func LocalResult(item domain.ContentItem, now time.Time) domain.GenerationResult {
	return domain.GenerationResult{
		ItemID:       item.ID,
		Content:      RenderLocal(item),
		Sources:      []string{},
		ProviderUsed: domain.ProviderLocal,
		GeneratedAt:  now,
	}
}

// RenderLocal is a pure function of item.
func RenderLocal(item domain.ContentItem) string {
	var b strings.Builder

	title := strings.TrimSpace(item.Title)
	if title == "" {
		title = item.ID
	}
	fmt.Fprintf(&b, "# %s\n\n", title)

	if desc := strings.TrimSpace(item.Description); desc != "" {
		fmt.Fprintf(&b, "%s\n\n", desc)
	}

	b.WriteString("## Key points\n\n")
	if len(item.KeyPoints) == 0 {
		b.WriteString("No key points are recorded for this lesson yet.\n")
	}
	for i, kp := range item.KeyPoints {
		kp = strings.TrimSpace(kp)
		fmt.Fprintf(&b, "### %d. %s\n\n", i+1, kp)
		fmt.Fprintf(&b, "%s is one of the ideas this lesson builds on. Review it before moving on to the next point.\n\n", kp)
	}

	b.WriteString("## Summary\n\n")
	if len(item.KeyPoints) > 0 {
		fmt.Fprintf(&b, "This lesson covered %d key points: %s.\n", len(item.KeyPoints), strings.Join(trimAll(item.KeyPoints), "; "))
	} else {
		fmt.Fprintf(&b, "This lesson introduced %s.\n", title)
	}
	b.WriteString("\n_Generated offline; regenerate once a cloud provider is reachable for richer material._\n")
	return b.String()
}

func trimAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.TrimSpace(s)
	}
	return out
}

package triage

import (
	"fmt"
	"strings"

	"github.com/spec-kit/helpdesk-triage/internal/domain"
)

// Draft is the rendered reply plus the ordered article citations it contains.
type Draft struct {
	Reply     string
	Citations []string
}

// DraftReply renders a templated reply for the ticket. With no articles it
// produces a generic acknowledgment promising human follow-up; otherwise it
// enumerates each article title in rank order. Citations mirror the rendered
// order. Deterministic, no I/O.
func DraftReply(query string, articles []domain.Article) Draft {
	if len(articles) == 0 {
		return Draft{
			Reply: "We're sorry you're running into trouble, and we appreciate you reaching out. " +
				"We couldn't find a guide that matches your request, so a member of our support team " +
				"will follow up with you personally as soon as possible.",
			Citations: []string{},
		}
	}

	var b strings.Builder
	b.WriteString("We're sorry you're running into trouble")
	if topic := summarizeQuery(query); topic != "" {
		fmt.Fprintf(&b, " with %q", topic)
	}
	b.WriteString(", and we appreciate you reaching out. These guides may help:\n")

	citations := make([]string, 0, len(articles))
	for i, article := range articles {
		fmt.Fprintf(&b, "%d. %s\n", i+1, article.Title)
		citations = append(citations, article.ID)
	}
	b.WriteString("If none of these resolve the issue, just reply and we'll be glad to help further.")

	return Draft{Reply: b.String(), Citations: citations}
}

// summarizeQuery trims the query to a short topic phrase for the opening line.
func summarizeQuery(query string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return ""
	}
	const maxTopic = 60
	if len(query) <= maxTopic {
		return query
	}
	return strings.TrimSpace(query[:maxTopic]) + "..."
}

package cache

import "fmt"

// Category classifies a cache entry. The set is closed: bulk invalidation,
// statistics grouping, and key derivation all switch over these values.
type Category string

const (
	CategoryAgentResponse Category = "agent_response"
	CategoryAgentTest     Category = "agent_test"
	CategoryAgentTools    Category = "agent_tools"
	CategoryAgentSummary  Category = "agent_summary"
	CategoryEmails        Category = "emails"
	CategoryEvents        Category = "events"
	CategorySummary       Category = "summary"
)

// Categories returns every known category. ClearAll and route validation
// iterate this list, so a new category only needs to be added here once.
func Categories() []Category {
	return []Category{
		CategoryAgentResponse,
		CategoryAgentTest,
		CategoryAgentTools,
		CategoryAgentSummary,
		CategoryEmails,
		CategoryEvents,
		CategorySummary,
	}
}

// ParseCategory validates a category name arriving over HTTP. Internal
// callers pass the typed constants and never hit this.
func ParseCategory(s string) (Category, error) {
	for _, c := range Categories() {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown cache category %q", s)
}

func (c Category) String() string { return string(c) }

package services

import (
	"github.com/reospicespowders/product-backend-sub002/internal/models"
)

// ReduceResults collapses multiple results per respondent email into one,
// chosen by policy: Highest/Lowest compare percentages, Latest/Earliest use
// the result id as creation order. An empty policy keeps every attempt —
// callers decide whether dedup is wanted. Result order follows the first
// appearance of each email in the input, ties keep the earlier record.
func ReduceResults(results []*models.Result, policy models.ReducePolicy) []*models.Result {
	if policy == models.ReduceNone || len(results) == 0 {
		return results
	}

	order := make([]string, 0)
	best := make(map[string]*models.Result)

	for _, r := range results {
		current, seen := best[r.RespondentEmail]
		if !seen {
			order = append(order, r.RespondentEmail)
			best[r.RespondentEmail] = r
			continue
		}
		if prefer(r, current, policy) {
			best[r.RespondentEmail] = r
		}
	}

	reduced := make([]*models.Result, 0, len(order))
	for _, email := range order {
		reduced = append(reduced, best[email])
	}
	return reduced
}

// prefer reports whether candidate should replace current under the policy.
func prefer(candidate, current *models.Result, policy models.ReducePolicy) bool {
	switch policy {
	case models.ReduceHighest:
		return candidate.Percentage > current.Percentage
	case models.ReduceLowest:
		return candidate.Percentage < current.Percentage
	case models.ReduceLatest:
		return candidate.ID > current.ID
	case models.ReduceEarliest:
		return candidate.ID < current.ID
	default:
		return false
	}
}

package store

import (
	"sort"
	"strings"

	"awstatus/internal/model"
)

// filterIssues returns the issues matching the optional service/region
// values, sorted descending by date. The date string is a fixed-width
// UTC rendering, so lexicographic order is chronological order; the
// sort is stable so equal dates keep feed order. The input slice is
// never mutated.
func filterIssues(issues []model.Issue, service, region string) []model.Issue {
	matched := make([]model.Issue, 0, len(issues))
	for _, issue := range issues {
		if issueMatches(issue, service, region) {
			matched = append(matched, issue)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Date > matched[j].Date
	})
	return matched
}

// issueMatches applies the four-way filter rule: no filters match
// everything; a service filter must match name or code; a region
// filter must match name or code; both set means both must match.
func issueMatches(issue model.Issue, service, region string) bool {
	if service == "" && region == "" {
		return true
	}
	if service != "" {
		if !strings.EqualFold(issue.ServiceName, service) && !strings.EqualFold(issue.ServiceCode, service) {
			return false
		}
		if region == "" {
			return true
		}
		return regionMatches(issue, region)
	}
	return regionMatches(issue, region)
}

func regionMatches(issue model.Issue, region string) bool {
	return strings.EqualFold(issue.RegionName, region) || strings.EqualFold(issue.RegionCode, region)
}

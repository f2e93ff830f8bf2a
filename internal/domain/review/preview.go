package review

import "feedback360/internal/domain/directory"

// BuildPreview labels pairs with member names and emails, all enabled.
func BuildPreview(members []directory.OrgMember, pairs []Pair) []PreviewItem {
	byID := make(map[int64]directory.OrgMember, len(members))
	for _, m := range members {
		byID[m.ID] = m
	}
	items := make([]PreviewItem, 0, len(pairs))
	for _, p := range pairs {
		reviewer := byID[p.ReviewerID]
		reviewee := byID[p.RevieweeID]
		items = append(items, PreviewItem{
			ReviewerID:    p.ReviewerID,
			ReviewerName:  reviewer.Name,
			ReviewerEmail: reviewer.Email,
			RevieweeID:    p.RevieweeID,
			RevieweeName:  reviewee.Name,
			RevieweeEmail: reviewee.Email,
			RelationType:  p.RelationType,
			Enabled:       true,
		})
	}
	return items
}

// EnabledPairs keeps the enabled items of an edited preview.
func EnabledPairs(items []PreviewItem) []Pair {
	pairs := make([]Pair, 0, len(items))
	for _, item := range items {
		if !item.Enabled {
			continue
		}
		pairs = append(pairs, Pair{ReviewerID: item.ReviewerID, RevieweeID: item.RevieweeID, RelationType: item.RelationType})
	}
	return pairs
}

package review

import "feedback360/internal/domain/directory"

// Generate expands the manager edges of members into reviewer→reviewee pairs.
// Output order follows members, then SELF, MANAGER, SUBORDINATE, PEER per member.
// Manager references that loop back on themselves are enumerated as-is.
func Generate(members []directory.OrgMember, cfg Config) []Pair {
	qualifying := make(map[int64]bool, len(members))
	reports := make(map[int64][]int64)
	for _, m := range members {
		qualifying[m.ID] = true
		if m.ManagerID != nil {
			reports[*m.ManagerID] = append(reports[*m.ManagerID], m.ID)
		}
	}

	pairs := []Pair{}
	for _, e := range members {
		if cfg.Self {
			pairs = append(pairs, Pair{ReviewerID: e.ID, RevieweeID: e.ID, RelationType: RelationSelf})
		}
		if cfg.Manager && e.ManagerID != nil && qualifying[*e.ManagerID] {
			pairs = append(pairs, Pair{ReviewerID: *e.ManagerID, RevieweeID: e.ID, RelationType: RelationManager})
		}
		if cfg.Subordinate {
			for _, sub := range reports[e.ID] {
				pairs = append(pairs, Pair{ReviewerID: sub, RevieweeID: e.ID, RelationType: RelationSubordinate})
			}
		}
		if cfg.Peer && e.ManagerID != nil {
			for _, peer := range reports[*e.ManagerID] {
				if peer == e.ID {
					continue
				}
				pairs = append(pairs, Pair{ReviewerID: peer, RevieweeID: e.ID, RelationType: RelationPeer})
			}
		}
	}
	return pairs
}

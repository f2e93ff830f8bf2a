package review

const (
	RelationSelf        = "SELF"
	RelationManager     = "MANAGER"
	RelationSubordinate = "SUBORDINATE"
	RelationPeer        = "PEER"

	StatusUpcoming = "upcoming"
	StatusActive   = "active"
	StatusClosed   = "closed"
)

var RelationTypes = []string{RelationSelf, RelationManager, RelationPeer, RelationSubordinate}

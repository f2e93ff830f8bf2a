package notifications

const (
	TypeReviewAssigned = "review_assigned"
)

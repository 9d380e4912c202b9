package jobs

type JobType string

const (
	// fan out in-app notifications to everyone involved in a new order
	JobOrderPlaced JobType = "order.placed"
	// tell the customer their order moved to a new status
	JobOrderStatusChanged JobType = "order.status_changed"
	// greet a freshly signed-up user
	JobWelcome JobType = "user.welcome"
)

// IsValid reports whether t is a known job type.
func (t JobType) IsValid() bool {
	switch t {
	case JobOrderPlaced, JobOrderStatusChanged, JobWelcome:
		return true
	default:
		return false
	}
}

// Priority orders claims; status changes are user-visible soonest.
func (t JobType) Priority() int {
	switch t {
	case JobOrderStatusChanged:
		return 10
	case JobOrderPlaced:
		return 5
	default:
		return 0
	}
}

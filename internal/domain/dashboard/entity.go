package dashboard

// Category enum
type Category string

const (
	CategoryLabReview    Category = "Lab Review"
	CategoryFollowUp     Category = "Follow-up"
	CategoryPatientAlert Category = "Patient Alert"
	CategorySchedule     Category = "Schedule"
)

// Priority enum
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

type TaskItem struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Category  Category  `json:"category"`
	DueDate   string    `json:"dueDate,omitempty"`
	Priority  *Priority `json:"priority,omitempty"`
	Completed bool      `json:"completed"`
}

type RecentActivityItem struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

// ProDashboardData is the payload of the professional clinical dashboard
type ProDashboardData struct {
	Tasks          []TaskItem           `json:"tasks"`
	RecentActivity []RecentActivityItem `json:"recentActivity"`
}

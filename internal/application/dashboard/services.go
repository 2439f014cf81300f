package dashboard

import (
	"context"

	domain "github.com/bryanwahyu/mediassist-gateway/internal/domain/dashboard"
)

// Service serves the professional dashboard. Data is static mock content;
// there is no per-user store behind it.
type Service struct{}

func NewService() *Service {
	return &Service{}
}

func (s *Service) Get(ctx context.Context) (*domain.ProDashboardData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return mockData(), nil
}

func priority(p domain.Priority) *domain.Priority { return &p }

// mockData builds a fresh copy on every call so callers may mutate it
func mockData() *domain.ProDashboardData {
	return &domain.ProDashboardData{
		Tasks: []domain.TaskItem{
			{ID: "task1", Text: "Review Mr. Smith's latest CBC results", Category: domain.CategoryLabReview, DueDate: "Today", Priority: priority(domain.PriorityHigh)},
			{ID: "task2", Text: "Follow-up call with Mrs. Jones re: medication adjustment", Category: domain.CategoryFollowUp, DueDate: "Tomorrow", Priority: priority(domain.PriorityMedium)},
			{ID: "task3", Text: "Patient Alert: John Doe - Critical lab value (K+ 2.5)", Category: domain.CategoryPatientAlert, Priority: priority(domain.PriorityHigh)},
			{ID: "task4", Text: "On-call shift: 7 PM - 7 AM", Category: domain.CategorySchedule, DueDate: "Today"},
			{ID: "task5", Text: "Review imaging for Patient X", Category: domain.CategoryLabReview, DueDate: "Today", Priority: priority(domain.PriorityMedium), Completed: true},
		},
		RecentActivity: []domain.RecentActivityItem{
			{ID: "act1", Text: "You generated a discharge summary for patient Jane Doe.", Timestamp: "2 hours ago"},
			{ID: "act2", Text: "Medico-legal documentation for Case #456 was updated.", Timestamp: "5 hours ago"},
		},
	}
}

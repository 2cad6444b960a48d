package analytics

import (
	"strings"
	"testing"
	"time"

	"inbrief/internal/model"
	"inbrief/internal/storage"
)

func TestAnalyzeDailyInteractions(t *testing.T) {
	testDate := time.Date(2025, 9, 2, 0, 0, 0, 0, time.UTC)

	events := []storage.InteractionEvent{
		{
			Timestamp: testDate.Add(2 * time.Hour),
			UserID:    "user_a",
			Platform:  model.PlatformWhatsApp,
			Type:      model.SummaryFollowUp,
			Urgency:   model.UrgencyLow,
		},
		{
			Timestamp: testDate.Add(4 * time.Hour),
			UserID:    "user_a",
			Platform:  model.PlatformWhatsApp,
			Type:      model.SummaryRequest,
			Urgency:   model.UrgencyHigh,
		},
		{
			Timestamp: testDate.Add(6 * time.Hour),
			UserID:    "user_b",
			Platform:  model.PlatformEmail,
			Type:      model.SummaryMeeting,
			Urgency:   model.UrgencyMedium,
		},
		// next day, must not be counted
		{
			Timestamp: testDate.AddDate(0, 0, 1).Add(time.Hour),
			UserID:    "user_c",
			Platform:  model.PlatformInstagram,
			Type:      model.SummaryRequest,
			Urgency:   model.UrgencyLow,
		},
	}

	activity := AnalyzeDailyInteractions(events, testDate)

	if activity.Date != "2025-09-02" {
		t.Errorf("Expected date '2025-09-02', got '%s'", activity.Date)
	}
	if activity.TotalMessages != 3 {
		t.Errorf("Expected 3 total messages, got %d", activity.TotalMessages)
	}
	if activity.UniqueUsers != 2 {
		t.Errorf("Expected 2 unique users, got %d", activity.UniqueUsers)
	}
	if activity.ByPlatform[model.PlatformWhatsApp] != 2 || activity.ByPlatform[model.PlatformEmail] != 1 {
		t.Errorf("Unexpected platform counts: %v", activity.ByPlatform)
	}
	if activity.ByPlatform[model.PlatformInstagram] != 0 {
		t.Errorf("Next-day event leaked into counts: %v", activity.ByPlatform)
	}
	if activity.ByType[model.SummaryFollowUp] != 1 || activity.ByType[model.SummaryMeeting] != 1 || activity.ByType[model.SummaryRequest] != 1 {
		t.Errorf("Unexpected type counts: %v", activity.ByType)
	}
}

func TestAnalyzeDailyInteractionsEmptyData(t *testing.T) {
	testDate := time.Date(2025, 9, 2, 0, 0, 0, 0, time.UTC)
	activity := AnalyzeDailyInteractions(nil, testDate)

	if activity.Date != "2025-09-02" {
		t.Errorf("Expected date '2025-09-02', got '%s'", activity.Date)
	}
	if activity.TotalMessages != 0 || activity.UniqueUsers != 0 {
		t.Errorf("Expected zero activity, got %+v", activity)
	}
}

type stubAggregator struct {
	byType     map[model.SummaryType]int
	byUrgency  map[model.Urgency]int
	byStatus   map[model.TaskStatus]int
	byPriority map[model.Priority]int
	byRating   map[model.Rating]int
	avg        float64
}

func (s *stubAggregator) CountSummariesByType() (map[model.SummaryType]int, error) {
	return s.byType, nil
}
func (s *stubAggregator) CountSummariesByUrgency() (map[model.Urgency]int, error) {
	return s.byUrgency, nil
}
func (s *stubAggregator) CountTasksByStatus() (map[model.TaskStatus]int, error) {
	return s.byStatus, nil
}
func (s *stubAggregator) CountTasksByPriority() (map[model.Priority]int, error) {
	return s.byPriority, nil
}
func (s *stubAggregator) CountFeedbackByRating() (map[model.Rating]int, error) {
	return s.byRating, nil
}
func (s *stubAggregator) AverageConfidence() (float64, error) {
	return s.avg, nil
}

func testReport(t *testing.T) *Report {
	t.Helper()
	agg := &stubAggregator{
		byType:     map[model.SummaryType]int{model.SummaryFollowUp: 2, model.SummaryRequest: 1},
		byUrgency:  map[model.Urgency]int{model.UrgencyLow: 1, model.UrgencyHigh: 2},
		byStatus:   map[model.TaskStatus]int{model.StatusPending: 2, model.StatusMissed: 1},
		byPriority: map[model.Priority]int{model.PriorityUrgent: 1, model.PriorityLow: 2},
		byRating:   map[model.Rating]int{model.RatingUp: 3, model.RatingDown: 1},
		avg:        0.8,
	}
	report, err := BuildReport(agg, time.Date(2025, 9, 2, 12, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	return report
}

func TestBuildReport(t *testing.T) {
	report := testReport(t)

	if report.TotalSummaries() != 3 {
		t.Errorf("Expected 3 summaries, got %d", report.TotalSummaries())
	}
	if report.FeedbackUp != 3 || report.FeedbackDown != 1 {
		t.Errorf("Unexpected feedback counts: %+v", report)
	}
	if report.ApprovalRatio() != 0.75 {
		t.Errorf("Expected approval 0.75, got %v", report.ApprovalRatio())
	}
	if report.AverageConfidence != 0.8 {
		t.Errorf("Expected avg 0.8, got %v", report.AverageConfidence)
	}
}

func TestApprovalRatioEmpty(t *testing.T) {
	r := &Report{}
	if r.ApprovalRatio() != 0 {
		t.Errorf("Expected 0 without feedback, got %v", r.ApprovalRatio())
	}
}

func TestReportRender(t *testing.T) {
	report := testReport(t)
	text := report.Render()

	for _, expected := range []string{
		"Summaries: 3",
		"follow-up",
		"pending",
		"urgent",
		"3 up / 1 down",
		"approval 0.75",
	} {
		if !strings.Contains(text, expected) {
			t.Errorf("Expected render to contain %q, got:\n%s", expected, text)
		}
	}
}

func TestReportToJSON(t *testing.T) {
	report := testReport(t)
	jsonStr, err := report.ToJSON()
	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if !strings.Contains(jsonStr, "summaries_by_type") || !strings.Contains(jsonStr, "follow-up") {
		t.Errorf("Expected JSON with type counts, got: %s", jsonStr)
	}
}

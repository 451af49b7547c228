package models

// Table names as seen by the change feed and the cache.
const (
	TableProfiles              = "profiles"
	TableRefreshTokens         = "refresh_tokens"
	TableTopics                = "topics"
	TableSubtopics             = "subtopics"
	TableReviews               = "reviews"
	TableReports               = "reports"
	TableAnnouncementRequests  = "announcement_requests"
	TableAnnouncements         = "announcements"
	TableAnnouncementResponses = "announcement_responses"
	TableFeedback              = "feedback"
	TableFacts                 = "facts"
)

// All lists every model in migration order.
func All() []interface{} {
	return []interface{}{
		&Profile{},
		&RefreshToken{},
		&Topic{},
		&Subtopic{},
		&Review{},
		&Report{},
		&AnnouncementRequest{},
		&Announcement{},
		&AnnouncementResponse{},
		&Feedback{},
		&Fact{},
		&SystemLog{},
	}
}

// Dependents maps a table to the tables whose reads embed its rows.
func Dependents() map[string][]string {
	return map[string][]string{
		TableProfiles:              {TableReviews, TableReports, TableAnnouncementRequests, TableAnnouncements, TableAnnouncementResponses},
		TableTopics:                {TableReviews},
		TableSubtopics:             {TableTopics, TableReviews},
		TableReviews:               {TableReports},
		TableAnnouncementRequests:  {TableAnnouncements},
		TableAnnouncementResponses: {TableAnnouncementRequests, TableAnnouncements},
	}
}

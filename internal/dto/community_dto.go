package dto

type FeedbackRequest struct {
	Names        string `json:"names"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	FeedbackType string `json:"feedback_type"`
	Message      string `json:"message"`
}

type FactRequest struct {
	Message string `json:"message"`
}

type DashboardCounts struct {
	Reviews         int64 `json:"reviews"`
	PendingRequests int64 `json:"pending_requests"`
	Feedback        int64 `json:"feedback"`
	Users           int64 `json:"users"`
	Facts           int64 `json:"facts"`
	Reports         int64 `json:"reports"`
}

package dto

type CreateReviewRequest struct {
	TopicID        string `json:"topic_id"`
	SubtopicID     string `json:"subtopic_id"`
	Type           string `json:"type"`
	Content        string `json:"content"`
	Recommendation string `json:"recommendation"`
}

type UpdateReviewRequest struct {
	Type           *string `json:"type"`
	Content        *string `json:"content"`
	Recommendation *string `json:"recommendation"`
}

type CreateReportRequest struct {
	Reason string `json:"reason"`
}

type ReviewStats struct {
	Total           int64 `json:"total"`
	Positive        int64 `json:"positive"`
	Negative        int64 `json:"negative"`
	PositivePercent int   `json:"positive_percent"`
	NegativePercent int   `json:"negative_percent"`
}

// ListResponse is an offset window of a feed.
type ListResponse[T any] struct {
	Items   []T  `json:"items"`
	Offset  int  `json:"offset"`
	Limit   int  `json:"limit"`
	HasMore bool `json:"has_more"`
}

// PageResponse is one numbered page with totals.
type PageResponse[T any] struct {
	Items      []T   `json:"items"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

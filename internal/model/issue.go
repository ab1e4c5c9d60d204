package model

// TimelineEvent is one entry of an issue's incident log: the timestamp
// label of the update and the update text that followed it.
type TimelineEvent struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

// Issue represents a single normalized service-health issue.
type Issue struct {
	ServiceName  string          `json:"service_name"`
	RegionName   string          `json:"region_name"`
	ServiceCode  string          `json:"service_code"`
	RegionCode   string          `json:"region_code"`
	Summary      string          `json:"summary"`
	Timestamp    int64           `json:"timestamp"`
	Date         string          `json:"date"`
	Description  string          `json:"description"`
	Timeline     []TimelineEvent `json:"timeline"`
	DurationMins float64         `json:"duration_mins"`
}

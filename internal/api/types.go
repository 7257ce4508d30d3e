package api

// Wire types for the calling backend's REST API. Timestamps stay as
// the backend's ISO-8601 strings; the dashboard only displays them.

// Lead statuses as reported by the backend.
const (
	LeadPending          = "pending"
	LeadQueued           = "queued"
	LeadCalling          = "calling"
	LeadContacted        = "contacted"
	LeadMeetingScheduled = "meeting_scheduled"
	LeadNotInterested    = "not_interested"
	LeadNoAnswer         = "no_answer"
	LeadFailed           = "failed"
)

type Lead struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Phone       string `json:"phone"`
	Email       string `json:"email,omitempty"`
	Company     string `json:"company,omitempty"`
	CountryCode string `json:"country_code,omitempty"`
	Language    string `json:"language,omitempty"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at"`
}

type LeadList struct {
	Leads    []Lead `json:"leads"`
	Total    int    `json:"total"`
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
}

type NewLead struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email,omitempty"`
}

// UploadSummary is the backend's per-row CSV import report, passed
// through to the operator untouched.
type UploadSummary struct {
	Success      bool     `json:"success"`
	LeadsCreated int      `json:"leads_created"`
	Errors       []string `json:"errors,omitempty"`
}

type DeleteResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type Call struct {
	ID           int      `json:"id"`
	LeadID       int      `json:"lead_id"`
	CallSID      string   `json:"twilio_call_sid,omitempty"`
	RecordingURL string   `json:"recording_url,omitempty"`
	Transcript   string   `json:"transcript,omitempty"`
	Duration     *float64 `json:"duration"`
	Language     string   `json:"language,omitempty"`
	Outcome      string   `json:"outcome"`
	StartedAt    string   `json:"started_at"`
	EndedAt      *string  `json:"ended_at"`
}

type ConversationTurn struct {
	Role      string `json:"role"`
	Message   string `json:"message"`
	CreatedAt string `json:"created_at"`
}

type CallDetail struct {
	Call
	ConversationHistory []ConversationTurn `json:"conversation_history"`
}

type Meeting struct {
	ID          int    `json:"id"`
	LeadID      int    `json:"lead_id"`
	LeadName    string `json:"lead_name"`
	CallID      *int   `json:"call_id"`
	ScheduledAt string `json:"scheduled_at"`
	Email       string `json:"email,omitempty"`
	Duration    *int   `json:"duration"`
	MeetingType string `json:"meeting_type,omitempty"` // phone, video, in_person
	MeetingLink string `json:"meeting_link,omitempty"`
	Location    string `json:"location,omitempty"`
	Notes       string `json:"notes,omitempty"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at"`
}

type MeetingList struct {
	Meetings []Meeting `json:"meetings"`
	Total    int       `json:"total"`
	Page     int       `json:"page"`
	PageSize int       `json:"page_size"`
}

type AnalyticsOverview struct {
	TotalLeads             int     `json:"total_leads"`
	TotalCalls             int     `json:"total_calls"`
	TotalMeetings          int     `json:"total_meetings"`
	MeetingsScheduledToday int     `json:"meetings_scheduled_today"`
	CallsToday             int     `json:"calls_today"`
	ConversionRate         float64 `json:"conversion_rate"`
	AverageCallDuration    float64 `json:"average_call_duration"`
}

type OutcomeCount struct {
	Outcome string `json:"outcome"`
	Count   int    `json:"count"`
}

type CallOutcomes struct {
	Outcomes []OutcomeCount `json:"outcomes"`
}

type LanguageCount struct {
	Language string `json:"language"`
	Count    int    `json:"count"`
}

type LanguageDistribution struct {
	Languages []LanguageCount `json:"languages"`
}

type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

type LeadStatusDistribution struct {
	Statuses []StatusCount `json:"statuses"`
}

type ActivityItem struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Timestamp   string `json:"timestamp"`
}

type RecentActivity struct {
	Activities []ActivityItem `json:"activities"`
}

type Campaign struct {
	Name      string `json:"name"`
	Queued    int    `json:"queued"`
	Calling   int    `json:"calling"`
	Completed int    `json:"completed"`
	Total     int    `json:"total"`
	IsActive  bool   `json:"is_active"`
}

type ActiveCampaigns struct {
	Campaigns []Campaign `json:"campaigns"`
}

type DateCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type CallsOverTime struct {
	Data []DateCount `json:"data"`
}

type CampaignStart struct {
	Name    string `json:"name"`
	LeadIDs []int  `json:"lead_ids"`
}

type CampaignResult struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	QueuedLeads int    `json:"queued_leads"`
}

type CampaignStatus struct {
	StatusCounts map[string]int `json:"status_counts"`
}

type Setting struct {
	Key       string `json:"key"`
	Value     string `json:"value"`
	UpdatedAt string `json:"updated_at"`
}

type SettingUpdate struct {
	Value string `json:"value"`
}

type DefaultPrompt struct {
	DefaultPrompt string `json:"default_prompt"`
}

type Voice struct {
	VoiceID   string `json:"voice_id"`
	VoiceName string `json:"voice_name"`
}

type VoiceList struct {
	Voices []Voice `json:"voices"`
}

type CacheClearResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

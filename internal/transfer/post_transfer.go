package transfer

type PostCreate struct {
	Content           string  `json:"content"`
	WrittenTone       *string `json:"written_tone"`
	AssociatedAccount *string `json:"associated_account"`
}

type PostUpdate struct {
	Content           *string `json:"content"`
	WrittenTone       *string `json:"written_tone"`
	AssociatedAccount *string `json:"associated_account"`
}

type GeneratePost struct {
	Topic           string `json:"topic"`
	Tone            string `json:"tone"`
	SpecificDetails string `json:"specific_details"`
}

// SchedulePost carries an optional explicit time. Either CustomTime
// ("2006-01-02T15:04") or Date and Time may be set; when none are, the user's
// preferred posting time is used.
type SchedulePost struct {
	CustomTime string `json:"custom_time"`
	Date       string `json:"date"`
	Time       string `json:"time"`
}

type SettingsUpdate struct {
	PreferredPostingTime string `json:"preferred_posting_time"`
	ContentTone          string `json:"content_tone"`
}

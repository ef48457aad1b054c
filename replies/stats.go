package replies

// MinutesSavedPerReply is the estimated time a sent AI reply saves.
const MinutesSavedPerReply = 3

// Stats summarises a user's drafting activity.
type Stats struct {
	TotalRepliesGenerated int     `json:"totalRepliesGenerated"`
	RepliesSent           int     `json:"repliesSent"`
	EmailsStored          int     `json:"emailsStored"`
	TimeSavedHours        float64 `json:"timeSavedHours"`
}

// NewStats derives the time saved from the counts. Hours are rounded half up to one
// decimal place on the exact minute count.
func NewStats(generated, sent, emails int) Stats {
	minutes := sent * MinutesSavedPerReply
	tenths := (minutes + 3) / 6
	return Stats{
		TotalRepliesGenerated: generated,
		RepliesSent:           sent,
		EmailsStored:          emails,
		TimeSavedHours:        float64(tenths) / 10,
	}
}

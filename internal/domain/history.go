package domain

// AdvisorLabel is the fixed speaker label for advisory summaries.
const AdvisorLabel = "Career Advisor"

// HistoryEntry is one utterance in a user's ongoing debate: the human, one
// of the offer personas, or the advisor.
type HistoryEntry struct {
	OwnerUserID string `json:"owner_user_id"`
	Speaker     string `json:"speaker"`
	Text        string `json:"text"`
}

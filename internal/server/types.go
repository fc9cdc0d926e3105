package server

// Email is the normalized inbox item the dashboard renders.
type Email struct {
	ID       string `json:"id"`
	Subject  string `json:"subject"`
	Sender   string `json:"sender"`
	Summary  string `json:"summary"`
	Content  string `json:"content"`
	Time     string `json:"time"`
	Priority string `json:"priority"`
	IsRead   bool   `json:"isRead"`
}

// Event is a calendar entry.
type Event struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Time        string `json:"time"`
	Category    string `json:"category"`
	Location    string `json:"location,omitempty"`
	Description string `json:"description,omitempty"`
	Date        string `json:"date,omitempty"`
}

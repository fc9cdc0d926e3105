package server

// Mock data served when the agent is unavailable or unconfigured. The
// dashboard should render something sensible even with every integration
// down.

func mockEmails() []Email {
	return []Email{
		{
			ID:       "mock-1",
			Subject:  "Team standup moved to 10am",
			Sender:   "sarah@work.example.com",
			Summary:  "Quick heads up that tomorrow's standup is moving to 10am.",
			Content:  "Content available on demand",
			Time:     "8:42 AM",
			Priority: "high",
		},
		{
			ID:       "mock-2",
			Subject:  "Your weekend hiking photos",
			Sender:   "alex@friends.example.com",
			Summary:  "Finally uploaded the shots from the ridge trail, take a look!",
			Content:  "Content available on demand",
			Time:     "Yesterday",
			Priority: "low",
			IsRead:   true,
		},
		{
			ID:       "mock-3",
			Subject:  "Invoice #2041 due Friday",
			Sender:   "billing@utilities.example.com",
			Summary:  "Your monthly statement is ready. Amount due: $84.20.",
			Content:  "Content available on demand",
			Time:     "Yesterday",
			Priority: "medium",
		},
	}
}

func mockEvents(date string) []Event {
	return []Event{
		{
			ID:       "mock-ev-1",
			Title:    "Morning run",
			Time:     "7:00 AM",
			Category: "fitness",
			Location: "Riverside park",
			Date:     date,
		},
		{
			ID:          "mock-ev-2",
			Title:       "Brunch with Dana",
			Time:        "11:30 AM",
			Category:    "social",
			Location:    "Corner Cafe",
			Description: "Catch up before the trip",
			Date:        date,
		},
		{
			ID:       "mock-ev-3",
			Title:    "Plan next week",
			Time:     "4:00 PM",
			Category: "personal",
			Date:     date,
		},
	}
}

package server

import (
	"context"
	"encoding/json"
	"net/http"
	"regexp"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const mailPrompt = `Get the latest 5 primary emails from my Gmail inbox. For each email, return a JSON object with:
- id: email ID
- subject: email subject
- sender: sender email address
- summary: email snippet/preview
- time: email date/time
- isRead: whether the email is read

Filter out promotional, marketing, and spam emails. Only return important personal or work emails. Return the result as a JSON array.`

// Agent replies are free text with a JSON array embedded somewhere.
var jsonArrayPattern = regexp.MustCompile(`(?s)\[\s*\{.*?\}\s*\]`)

func (s *Server) handleMail(w http.ResponseWriter, r *http.Request) {
	emails, source := s.fetchEmails(r.Context())
	s.cacheResponse(r, emails, map[string]any{"source": source})
	s.respondJSON(w, http.StatusOK, envelope{
		Success: true,
		Data:    emails,
		Source:  source,
	})
}

// refreshEmails re-fetches the inbox for background revalidation.
func (s *Server) refreshEmails(ctx context.Context) (any, error) {
	emails, _ := s.fetchEmails(ctx)
	return emails, nil
}

// fetchEmails asks the agent for the inbox and falls back to mock data when
// the agent is unavailable or its reply cannot be parsed. Never fails.
func (s *Server) fetchEmails(ctx context.Context) ([]Email, string) {
	if !s.agentAvailable() {
		return mockEmails(), "mock"
	}

	reply, err := s.agent.Run(ctx, mailPrompt)
	if err != nil {
		s.log.Warn("agent mail fetch failed, using mock data", zap.Error(err))
		return mockEmails(), "mock"
	}
	emails := parseEmails(reply)
	if emails == nil {
		s.log.Warn("could not parse emails from agent reply, using mock data")
		return mockEmails(), "mock"
	}
	return emails, "agent"
}

// parseEmails extracts the JSON array from the agent's reply and normalizes
// it. Returns nil when no usable array is found.
func parseEmails(reply string) []Email {
	match := jsonArrayPattern.FindString(reply)
	if match == "" {
		return nil
	}
	var raw []map[string]any
	if err := json.Unmarshal([]byte(match), &raw); err != nil {
		return nil
	}

	emails := make([]Email, 0, len(raw))
	for _, item := range raw {
		email := Email{
			ID:       stringField(item, "id"),
			Subject:  stringField(item, "subject"),
			Sender:   stringField(item, "sender"),
			Summary:  stringField(item, "summary"),
			Content:  "Content available on demand",
			Time:     stringField(item, "time"),
			Priority: "medium",
		}
		if email.ID == "" {
			email.ID = uuid.NewString()
		}
		if email.Subject == "" {
			email.Subject = "No Subject"
		}
		if email.Sender == "" {
			email.Sender = stringField(item, "from")
		}
		if email.Summary == "" {
			email.Summary = stringField(item, "snippet")
		}
		if email.Time == "" {
			email.Time = stringField(item, "date")
		}
		if v, ok := item["isRead"].(bool); ok {
			email.IsRead = v
		}
		emails = append(emails, email)
	}
	return emails
}

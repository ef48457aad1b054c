package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/jrsteele09/inbox-assist/drafting"
	"github.com/jrsteele09/inbox-assist/replies"
	"github.com/rs/zerolog/log"
)

type generateReplyRequest struct {
	drafting.Settings
	EmailContent string `json:"emailContent"`
	EmailSubject string `json:"emailSubject"`
	SenderName   string `json:"senderName"`
	SenderEmail  string `json:"senderEmail"`
	ThreadID     string `json:"threadId"`
}

type generatedReply struct {
	ID      string `json:"id,omitempty"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type generateReplyResponse struct {
	Success        bool              `json:"success"`
	Reply          generatedReply    `json:"reply"`
	GenerationTime int64             `json:"generationTime"` // Unix milliseconds
	Settings       drafting.Settings `json:"settings"`
}

// GenerateReplyHandler drafts a reply to the message and stores it as a DRAFT.
func (s *Server) GenerateReplyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req generateReplyRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "Invalid request body", codeBadRequest, err.Error())
			return
		}
		if strings.TrimSpace(req.EmailContent) == "" {
			writeJSONError(w, http.StatusBadRequest, "Missing required field: emailContent", codeBadRequest, "")
			return
		}

		ctx := r.Context()
		draft, settings, err := s.deps.Drafter.Draft(ctx, drafting.Request{
			EmailContent: req.EmailContent,
			EmailSubject: req.EmailSubject,
			SenderName:   req.SenderName,
			SenderEmail:  req.SenderEmail,
			Settings:     req.Settings,
		})
		if err != nil {
			log.Error().Err(err).Msg("failed to generate reply")
			writeJSONError(w, http.StatusInternalServerError, "Failed to generate reply", codeInternal, err.Error())
			return
		}

		session := sessionFromContext(ctx)
		messageID := r.PathValue("id")
		now := s.now()

		email := &replies.StoredEmail{
			UserID:     session.UserID,
			GmailID:    messageID,
			ThreadID:   req.ThreadID,
			Subject:    req.EmailSubject,
			Sender:     formatSender(req.SenderName, req.SenderEmail),
			Body:       req.EmailContent,
			ReceivedAt: now,
		}
		reply := &replies.GeneratedReply{
			UserID:             session.UserID,
			EmailID:            messageID,
			ThreadID:           req.ThreadID,
			Subject:            draft.Subject,
			Body:               draft.Body,
			Tone:               settings.Tone,
			Sentiment:          settings.Sentiment,
			Length:             settings.Length,
			CustomInstructions: settings.CustomInstructions,
			Status:             replies.StatusDraft,
			CreatedAt:          now,
		}
		// The draft is still returned when it cannot be stored; it just won't count in stats.
		if err := s.deps.Replies.RecordEmail(ctx, email); err != nil {
			log.Error().Err(err).Msg("failed to store source email")
		} else if err := s.deps.Replies.CreateReply(ctx, reply); err != nil {
			log.Error().Err(err).Msg("failed to store drafted reply")
			reply.ID = ""
		}

		writeJSON(w, http.StatusOK, generateReplyResponse{
			Success: true,
			Reply: generatedReply{
				ID:      reply.ID,
				Subject: draft.Subject,
				Body:    draft.Body,
			},
			GenerationTime: now.UnixMilli(),
			Settings:       settings,
		})
	}
}

func formatSender(name, email string) string {
	switch {
	case name == "":
		return email
	case email == "":
		return name
	default:
		return fmt.Sprintf("%s <%s>", name, email)
	}
}

// StatsHandler reports the user's drafting activity.
func (s *Server) StatsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := sessionFromContext(r.Context())
		stats, err := s.deps.Replies.Stats(r.Context(), session.UserID)
		if err != nil {
			log.Error().Err(err).Msg("failed to load stats")
			writeJSONError(w, http.StatusInternalServerError, "Failed to load stats", codeInternal, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}

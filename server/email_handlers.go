package server

import (
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/jrsteele09/inbox-assist/internal/errors"
	"github.com/jrsteele09/inbox-assist/mail"
	"github.com/rs/zerolog/log"
)

// ListEmailsHandler lists inbox messages. Query: maxResults (1-100, default 10) and
// q (Gmail search, default "in:inbox").
func (s *Server) ListEmailsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opts := mail.ListOptions{
			MaxResults: parseMaxResults(r.URL.Query().Get("maxResults")),
			Query:      strings.TrimSpace(r.URL.Query().Get("q")),
		}
		if opts.Query == "" {
			opts.Query = mail.DefaultQuery
		}

		result, err := mailboxFromContext(r.Context()).List(r.Context(), opts)
		if err != nil {
			s.handleMailError(w, r, err, "Failed to fetch emails")
			return
		}
		if result.Emails == nil {
			result.Emails = []mail.Summary{}
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func parseMaxResults(raw string) int64 {
	n, err := strconv.ParseInt(raw, 10, 64)
	switch {
	case err != nil || n <= 0:
		return mail.DefaultMaxResults
	case n > mail.MaxResultsLimit:
		return mail.MaxResultsLimit
	default:
		return n
	}
}

func (s *Server) GetEmailHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		detail, err := mailboxFromContext(r.Context()).Get(r.Context(), r.PathValue("id"))
		if err != nil {
			s.handleMailError(w, r, err, "Failed to fetch email")
			return
		}
		writeJSON(w, http.StatusOK, detail)
	}
}

// ModifyEmailHandler applies {markAsRead?, star?, archive?, delete?} to a message.
func (s *Server) ModifyEmailHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var mod mail.Modification
		if err := decodeJSON(w, r, &mod); err != nil {
			writeJSONError(w, http.StatusBadRequest, "Invalid request body", codeBadRequest, err.Error())
			return
		}
		if mod.MarkAsRead == nil && mod.Star == nil && !mod.Archive && !mod.Delete {
			writeJSONError(w, http.StatusBadRequest, "No modification requested", codeBadRequest, "")
			return
		}

		if err := mailboxFromContext(r.Context()).Modify(r.Context(), r.PathValue("id"), mod); err != nil {
			s.handleMailError(w, r, err, "Failed to update email")
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}

// AttachmentHandler streams an attachment as a download.
func (s *Server) AttachmentHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		content, err := mailboxFromContext(r.Context()).Attachment(r.Context(), r.PathValue("id"), r.PathValue("attachmentId"))
		if err != nil {
			s.handleMailError(w, r, err, "Failed to download attachment")
			return
		}

		disposition := mime.FormatMediaType("attachment", map[string]string{"filename": content.Filename})
		if disposition == "" {
			disposition = "attachment"
		}
		w.Header().Set("Content-Type", content.MimeType)
		w.Header().Set("Content-Disposition", disposition)
		w.Header().Set("Content-Length", strconv.Itoa(len(content.Data)))
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(content.Data); err != nil {
			log.Debug().Err(err).Msg("attachment download interrupted")
		}
	}
}

type sendReplyRequest struct {
	To       string `json:"to"`
	Subject  string `json:"subject"`
	Body     string `json:"body"`
	ThreadID string `json:"threadId"`
	ReplyID  string `json:"replyId"`
}

type sendReplyResponse struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId"`
	ThreadID  string `json:"threadId"`
}

// SendReplyHandler sends an HTML reply to the message and, when replyId names a
// drafted reply, marks that draft as sent.
func (s *Server) SendReplyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req sendReplyRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "Invalid request body", codeBadRequest, err.Error())
			return
		}
		if strings.TrimSpace(req.To) == "" || strings.TrimSpace(req.Subject) == "" || strings.TrimSpace(req.Body) == "" {
			writeJSONError(w, http.StatusBadRequest, "Missing required fields: to, subject, body", codeBadRequest, "")
			return
		}

		ctx := r.Context()
		mailbox := mailboxFromContext(ctx)
		reply := mail.Reply{
			To:       req.To,
			Subject:  req.Subject,
			Body:     req.Body,
			ThreadID: req.ThreadID,
		}
		// Threading headers name the original message when it can still be read.
		if original, err := mailbox.Get(ctx, r.PathValue("id")); err == nil {
			reply.InReplyTo = original.MessageID
			if reply.ThreadID == "" {
				reply.ThreadID = original.ThreadID
			}
		} else if !errors.Is(err, errors.ErrMessageNotFound) {
			s.handleMailError(w, r, err, "Failed to send reply")
			return
		}

		result, err := mailbox.SendReply(ctx, reply)
		if err != nil {
			s.handleMailError(w, r, err, "Failed to send reply")
			return
		}

		if req.ReplyID != "" {
			session := sessionFromContext(ctx)
			if err := s.deps.Replies.MarkSent(ctx, session.UserID, req.ReplyID, s.now()); err != nil {
				log.Warn().Err(err).Str("reply_id", req.ReplyID).Msg("reply sent but could not be marked as sent")
			}
		}

		writeJSON(w, http.StatusOK, sendReplyResponse{
			Success:   true,
			MessageID: result.MessageID,
			ThreadID:  result.ThreadID,
		})
	}
}

package server_test

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/jrsteele09/inbox-assist/internal/errors"
	"github.com/jrsteele09/inbox-assist/mail"
	"github.com/jrsteele09/inbox-assist/replies"
	"github.com/jrsteele09/inbox-assist/server"
	"github.com/jrsteele09/inbox-assist/token/refresh"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func testMessage() mail.Detail {
	return mail.Detail{
		Summary: mail.Summary{
			ID:       "m1",
			GmailID:  "m1",
			ThreadID: "t1",
			Subject:  "Lunch?",
			From:     "Alice <alice@example.com>",
			To:       testEmail,
			Body:     "Are you free for lunch on Friday?",
			Labels:   []string{mail.LabelInbox, mail.LabelUnread},
		},
		MessageID: "<lunch-1@example.com>",
	}
}

func TestListEmails_FreshTokenServedWithoutRefresh(t *testing.T) {
	f := newTestFixture(t)
	_, cookie := f.signedIn(t, time.Now().Add(time.Hour), "R1")
	f.opener.Mailbox.Add(testMessage())

	rec := f.do(http.MethodGet, server.RouteEmails+"?maxResults=5", "", cookie, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	body := decodeBody(t, rec)
	assert.Len(t, body["emails"], 1)
	assert.EqualValues(t, 1, body["stats"].(map[string]any)["unreadCount"])

	assert.Equal(t, []string{"A1"}, f.opener.Tokens())
	assert.Equal(t, 0, f.endpoint.Calls())
}

func TestListEmails_StaleTokenIsRefreshedAndPersisted(t *testing.T) {
	f := newTestFixture(t)
	sessionID, cookie := f.signedIn(t, time.Now().Add(-time.Minute), "R1")
	f.endpoint.Succeed(refresh.Grant{AccessToken: "A2", RefreshToken: "R2", ExpiresIn: time.Hour})

	rec := f.do(http.MethodGet, server.RouteEmails, "", cookie, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"A2"}, f.opener.Tokens())
	assert.Equal(t, 1, f.endpoint.Calls())
	assert.Equal(t, "R1", f.endpoint.LastRefreshToken())

	session := f.session(t, sessionID)
	assert.Equal(t, "A2", session.AccessToken)
	assert.WithinDuration(t, time.Now().Add(time.Hour), session.AccessTokenExpiresAt, time.Minute)
	assert.Empty(t, session.LastError)

	account := f.account(t, session.UserID)
	assert.Equal(t, "A2", account.AccessToken)
	assert.Equal(t, "R2", account.RefreshToken)

	// The refreshed token is served from the session next time.
	rec = f.do(http.MethodGet, server.RouteEmails, "", cookie, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, f.endpoint.Calls())
}

func TestListEmails_InvalidGrantSignsOut(t *testing.T) {
	f := newTestFixture(t)
	sessionID, cookie := f.signedIn(t, time.Now().Add(-time.Minute), "R1")
	f.endpoint.Fail(&oauth2.RetrieveError{ErrorCode: "invalid_grant", ErrorDescription: "Token has been expired or revoked."})

	rec := f.do(http.MethodGet, server.RouteEmails, "", cookie, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "AUTH_EXPIRED", body["code"])
	assert.Equal(t, "Authentication expired. Please sign in again.", body["error"])

	cleared := responseCookie(rec, sessionCookie)
	require.NotNil(t, cleared)
	assert.Less(t, cleared.MaxAge, 0)

	session := f.session(t, sessionID)
	assert.Equal(t, refresh.TagRefreshFailed, session.LastError)
	assert.Empty(t, session.AccessToken)
	assert.Empty(t, f.account(t, session.UserID).RefreshToken)
	assert.Empty(t, f.opener.Tokens())

	// Replaying the old cookie never reaches the provider again.
	for i := 0; i < 3; i++ {
		rec = f.do(http.MethodGet, server.RouteEmails, "", cookie, nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "AUTH_EXPIRED", decodeBody(t, rec)["code"])
	}
	assert.Equal(t, 1, f.endpoint.Calls())
}

func TestListEmails_AuthExpiredRedirectsHTMX(t *testing.T) {
	f := newTestFixture(t)
	_, cookie := f.signedIn(t, time.Now().Add(-time.Minute), "")

	rec := f.do(http.MethodGet, server.RouteEmails, "", cookie, map[string]string{"HX-Request": "true"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, server.RouteSignIn, rec.Header().Get("HX-Redirect"))
	assert.Equal(t, 0, f.endpoint.Calls())
}

func TestListEmails_TransientFailureKeepsSession(t *testing.T) {
	f := newTestFixture(t)
	sessionID, cookie := f.signedIn(t, time.Now().Add(-time.Minute), "R1")
	f.endpoint.Fail(fmt.Errorf("dial tcp: connect: connection refused"))

	rec := f.do(http.MethodGet, server.RouteEmails, "", cookie, nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "AUTH_RETRY", decodeBody(t, rec)["code"])
	assert.Nil(t, responseCookie(rec, sessionCookie))

	session := f.session(t, sessionID)
	assert.Equal(t, refresh.TagRefreshRetry, session.LastError)
	assert.Equal(t, "R1", f.account(t, session.UserID).RefreshToken)

	// Recovers on the next access.
	f.endpoint.Succeed(refresh.Grant{AccessToken: "A2", ExpiresIn: time.Hour})
	rec = f.do(http.MethodGet, server.RouteEmails, "", cookie, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, f.session(t, sessionID).LastError)
}

func TestMailErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"gmail rejects token", fmt.Errorf("list messages: %w", errors.ErrMailAuthFailed), http.StatusUnauthorized, "AUTH_FAILED"},
		{"terminal signal from mail layer", fmt.Errorf("list messages: %w", refresh.ErrInvalidGrant), http.StatusUnauthorized, "AUTH_EXPIRED"},
		{"breaker open", fmt.Errorf("list messages: %w", errors.ErrMailUnavailable), http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE"},
		{"anything else", fmt.Errorf("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTestFixture(t)
			sessionID, cookie := f.signedIn(t, time.Now().Add(time.Hour), "R1")
			f.opener.Mailbox.Fail(tt.err)

			rec := f.do(http.MethodGet, server.RouteEmails, "", cookie, nil)
			require.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCode, decodeBody(t, rec)["code"])

			if tt.wantCode == "AUTH_EXPIRED" {
				session := f.session(t, sessionID)
				assert.Equal(t, refresh.TagRefreshFailed, session.LastError)
				assert.Empty(t, f.account(t, session.UserID).RefreshToken)
			}
		})
	}
}

func TestGetEmail(t *testing.T) {
	f := newTestFixture(t)
	_, cookie := f.signedIn(t, time.Now().Add(time.Hour), "R1")
	f.opener.Mailbox.Add(testMessage())

	rec := f.do(http.MethodGet, "/api/emails/m1", "", cookie, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Lunch?", body["subject"])
	assert.Equal(t, "<lunch-1@example.com>", body["messageId"])

	rec = f.do(http.MethodGet, "/api/emails/nope", "", cookie, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decodeBody(t, rec)["code"])
}

func TestModifyEmail(t *testing.T) {
	f := newTestFixture(t)
	_, cookie := f.signedIn(t, time.Now().Add(time.Hour), "R1")
	f.opener.Mailbox.Add(testMessage())

	rec := f.do(http.MethodPatch, "/api/emails/m1", `{}`, cookie, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodPatch, "/api/emails/m1", `not json`, cookie, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodPatch, "/api/emails/m1", `{"markAsRead":true,"archive":true}`, cookie, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decodeBody(t, rec)["success"])

	mods := f.opener.Mailbox.Modifications("m1")
	require.Len(t, mods, 1)
	require.NotNil(t, mods[0].MarkAsRead)
	assert.True(t, *mods[0].MarkAsRead)
	assert.Nil(t, mods[0].Star)
	assert.True(t, mods[0].Archive)
	assert.False(t, mods[0].Delete)
}

func TestAttachmentDownload(t *testing.T) {
	f := newTestFixture(t)
	_, cookie := f.signedIn(t, time.Now().Add(time.Hour), "R1")
	f.opener.Mailbox.AddAttachment("m1", "att-1", mail.Content{
		Filename: "menu.pdf",
		MimeType: "application/pdf",
		Data:     []byte("%PDF-1.4"),
	})

	rec := f.do(http.MethodGet, "/api/emails/m1/attachments/att-1", "", cookie, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename=menu.pdf`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "%PDF-1.4", rec.Body.String())

	rec = f.do(http.MethodGet, "/api/emails/m1/attachments/missing", "", cookie, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGenerateThenSendReply(t *testing.T) {
	f := newTestFixture(t)
	sessionID, cookie := f.signedIn(t, time.Now().Add(time.Hour), "R1")
	f.opener.Mailbox.Add(testMessage())
	userID := f.session(t, sessionID).UserID

	rec := f.do(http.MethodPost, "/api/emails/m1/generate-reply", `{
		"tone": "casual",
		"sentiment": "sarcastic",
		"emailContent": "Are you free for lunch on Friday?",
		"emailSubject": "Lunch?",
		"senderName": "Alice",
		"senderEmail": "alice@example.com",
		"threadId": "t1"
	}`, cookie, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	reply := body["reply"].(map[string]any)
	assert.Equal(t, "Re: Lunch", reply["subject"])
	assert.Equal(t, "Hi Alice,\nSounds great.\nJane", reply["body"])
	settings := body["settings"].(map[string]any)
	assert.Equal(t, "casual", settings["tone"])
	assert.Equal(t, "positive", settings["sentiment"])
	assert.Equal(t, "medium", settings["length"])
	assert.NotZero(t, body["generationTime"])

	prompts := f.generator.Prompts()
	require.Len(t, prompts, 1)
	assert.Contains(t, prompts[0], "FROM: Alice (alice@example.com)")

	replyID := reply["id"].(string)
	stored, err := f.replies.GetReply(context.Background(), userID, replyID)
	require.NoError(t, err)
	assert.Equal(t, replies.StatusDraft, stored.Status)
	assert.Equal(t, "m1", stored.EmailID)

	rec = f.do(http.MethodPost, "/api/emails/m1/send-reply", fmt.Sprintf(`{
		"to": "alice@example.com",
		"subject": "Re: Lunch",
		"body": "Hi Alice,\nSounds great.",
		"threadId": "t1",
		"replyId": %q
	}`, replyID), cookie, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decodeBody(t, rec)["success"])

	sent := f.opener.Mailbox.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "alice@example.com", sent[0].To)
	assert.Equal(t, "t1", sent[0].ThreadID)
	assert.Equal(t, "<lunch-1@example.com>", sent[0].InReplyTo)

	stored, err = f.replies.GetReply(context.Background(), userID, replyID)
	require.NoError(t, err)
	assert.Equal(t, replies.StatusSent, stored.Status)

	rec = f.do(http.MethodGet, server.RouteStats, "", cookie, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decodeBody(t, rec)
	assert.EqualValues(t, 1, stats["totalRepliesGenerated"])
	assert.EqualValues(t, 1, stats["repliesSent"])
	assert.EqualValues(t, 1, stats["emailsStored"])
	assert.EqualValues(t, 0.1, stats["timeSavedHours"])
}

func TestGenerateReply_Failures(t *testing.T) {
	f := newTestFixture(t)
	sessionID, cookie := f.signedIn(t, time.Now().Add(time.Hour), "R1")

	rec := f.do(http.MethodPost, "/api/emails/m1/generate-reply", `{"emailSubject":"hi"}`, cookie, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	f.generator.Fail(fmt.Errorf("quota exceeded"))
	rec = f.do(http.MethodPost, "/api/emails/m1/generate-reply", `{"emailContent":"hello"}`, cookie, nil)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Failed to generate reply", decodeBody(t, rec)["error"])

	// A session whose refresh token was rejected cannot draft either.
	session := f.session(t, sessionID)
	session.LastError = refresh.TagRefreshFailed
	require.NoError(t, f.sessions.Upsert(context.Background(), session))

	rec = f.do(http.MethodPost, "/api/emails/m1/generate-reply", `{"emailContent":"hello"}`, cookie, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "AUTH_EXPIRED", decodeBody(t, rec)["code"])
}

func TestSendReply_Validation(t *testing.T) {
	f := newTestFixture(t)
	_, cookie := f.signedIn(t, time.Now().Add(time.Hour), "R1")

	rec := f.do(http.MethodPost, "/api/emails/m1/send-reply", `{"to":"alice@example.com","subject":"Re: hi"}`, cookie, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.True(t, strings.Contains(decodeBody(t, rec)["error"].(string), "body"))
	assert.Empty(t, f.opener.Mailbox.Sent())
}

func TestSendReply_UnknownMessageStillSends(t *testing.T) {
	f := newTestFixture(t)
	_, cookie := f.signedIn(t, time.Now().Add(time.Hour), "R1")

	rec := f.do(http.MethodPost, "/api/emails/gone/send-reply", `{"to":"alice@example.com","subject":"Re: hi","body":"Thanks","threadId":"t9"}`, cookie, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	sent := f.opener.Mailbox.Sent()
	require.Len(t, sent, 1)
	assert.Empty(t, sent[0].InReplyTo)
	assert.Equal(t, "t9", sent[0].ThreadID)
}

func TestGenerateReply_UnstoredDraftHasNoID(t *testing.T) {
	f := newTestFixture(t)
	_, cookie := f.signedIn(t, time.Now().Add(time.Hour), "R1")
	f.replies.FailCreate(fmt.Errorf("connection reset"))

	rec := f.do(http.MethodPost, "/api/emails/m1/generate-reply", `{"emailContent":"Lunch on Friday?"}`, cookie, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	reply := decodeBody(t, rec)["reply"].(map[string]any)
	assert.NotContains(t, reply, "id")
	assert.NotEmpty(t, reply["body"])
}

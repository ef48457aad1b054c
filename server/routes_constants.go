package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// Auth Routes - Sign-in & Sign-out
	RouteSignIn         = "/auth/signin"
	RouteSignOut        = "/auth/signout"
	RouteAuthError      = "/auth/error"
	RouteGoogleCallback = "/api/auth/callback/google"
	RouteAuthSession    = "/api/auth/session"

	// Mail API Routes
	RouteEmails             = "/api/emails"
	RouteEmail              = "/api/emails/{id}"
	RouteEmailAttachment    = "/api/emails/{id}/attachments/{attachmentId}"
	RouteEmailSendReply     = "/api/emails/{id}/send-reply"
	RouteEmailGenerateReply = "/api/emails/{id}/generate-reply"

	// Stats
	RouteStats = "/api/stats"

	// Static Asset Routes (patterns)
	RouteIndex      = "/{$}"
	RouteStaticFile = "/{file}"
)

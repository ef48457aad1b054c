package server

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
)

func (s *Server) initRoutes() {
	s.RegisterRouteHandler("GET "+RouteIndex, ChainMiddleware(s.IndexHandler(), s.StaticMiddleware()...))

	// SIGN-IN
	s.RegisterRouteHandler("GET "+RouteSignIn, ChainMiddleware(s.SignInHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("GET "+RouteGoogleCallback, ChainMiddleware(s.OAuthCallbackHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("GET "+RouteSignOut, ChainMiddleware(s.SignOutHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("POST "+RouteSignOut, ChainMiddleware(s.SignOutHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("GET "+RouteAuthError, ChainMiddleware(s.AuthErrorHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteAuthSession, ChainMiddleware(s.SessionHandler(), s.APIMiddleware(s.RequireSession())...))

	// Mail API routes (session cookie plus a valid Google access token)
	mailAccess := s.APIMiddleware(s.RequireSession(), s.RequireMailAccess())
	s.RegisterRouteHandler("GET "+RouteEmails, ChainMiddleware(s.ListEmailsHandler(), mailAccess...))
	s.RegisterRouteHandler("GET "+RouteEmail, ChainMiddleware(s.GetEmailHandler(), mailAccess...))
	s.RegisterRouteHandler("PATCH "+RouteEmail, ChainMiddleware(s.ModifyEmailHandler(), mailAccess...))
	s.RegisterRouteHandler("GET "+RouteEmailAttachment, ChainMiddleware(s.AttachmentHandler(), mailAccess...))
	s.RegisterRouteHandler("POST "+RouteEmailSendReply, ChainMiddleware(s.SendReplyHandler(), mailAccess...))

	// Drafting and stats only need a usable session
	activeSession := s.APIMiddleware(s.RequireSession(), s.RequireActiveSession())
	s.RegisterRouteHandler("POST "+RouteEmailGenerateReply, ChainMiddleware(s.GenerateReplyHandler(), activeSession...))
	s.RegisterRouteHandler("GET "+RouteStats, ChainMiddleware(s.StatsHandler(), activeSession...))

	s.RegisterRouteHandler("GET "+RouteStaticFile, ChainMiddleware(s.serveFileHandler(), s.StaticMiddleware()...))
}

func (s *Server) serveFileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filePath := strings.TrimPrefix(r.URL.Path, "/")
		if filePath == "" {
			http.Error(w, "404 - Page Not Found", http.StatusNotFound)
			return
		}
		err := StreamFile(w, r, filePath)
		if err != nil {
			log.Debug().Err(err).Str("path", filePath).Msg("static file not found")
			http.Error(w, "404 - Page Not Found", http.StatusNotFound)
			return
		}
	}
}

// IndexHandler serves the dashboard page
func (s *Server) IndexHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := StreamFile(w, r, "index.html"); err != nil {
			log.Error().Err(err).Msg("failed to serve index page")
			http.Error(w, "500 - Internal Server Error", http.StatusInternalServerError)
		}
	}
}

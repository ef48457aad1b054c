package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jrsteele09/inbox-assist/accounts"
	"github.com/jrsteele09/inbox-assist/drafting"
	"github.com/jrsteele09/inbox-assist/internal/config"
	"github.com/jrsteele09/inbox-assist/mail"
	"github.com/jrsteele09/inbox-assist/replies"
	"github.com/jrsteele09/inbox-assist/server/authflowrepo"
	"github.com/jrsteele09/inbox-assist/sessions"
	"github.com/jrsteele09/inbox-assist/token/refresh"
	"github.com/jrsteele09/inbox-assist/users"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
)

// Deps are the collaborators the server needs. Identity defaults to Google sign-in
// built from the config when nil.
type Deps struct {
	Users     users.UserRepo
	Accounts  accounts.Repo
	Sessions  sessions.Repo
	AuthFlows authflowrepo.Repo
	Cookies   *sessions.CookieCodec
	Tokens    *refresh.Manager
	Mail      mail.Opener
	Drafter   *drafting.Drafter
	Replies   replies.Repo
	Identity  IdentityProvider
}

type Server struct {
	env     string // Environment (e.g., "DEV", "PROD")
	mux     *http.ServeMux
	handler http.Handler
	routes  []string
	config  config.Config
	deps    Deps
	now     func() time.Time
}

func New(cfg config.Config, deps Deps) (*Server, error) {
	if deps.Users == nil || deps.Accounts == nil || deps.Sessions == nil || deps.Replies == nil {
		return nil, fmt.Errorf("[Server New] repositories are required")
	}
	if deps.Cookies == nil || deps.Tokens == nil || deps.Mail == nil || deps.Drafter == nil {
		return nil, fmt.Errorf("[Server New] cookie codec, token manager, mail opener and drafter are required")
	}
	if deps.AuthFlows == nil {
		deps.AuthFlows = authflowrepo.NewInMemoryRepo()
	}
	if deps.Identity == nil {
		deps.Identity = NewGoogleIdentity(cfg)
	}

	s := &Server{
		env:    cfg.GetEnv(),
		mux:    http.NewServeMux(),
		config: cfg,
		deps:   deps,
		now:    time.Now,
	}
	s.handler = s.corsHandler().Handler(s.mux)

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

// corsHandler answers preflight requests before they reach the mux, whose method
// patterns would otherwise reject OPTIONS.
func (s *Server) corsHandler() *cors.Cors {
	return cors.New(cors.Options{
		AllowedOrigins:   s.config.GetAllowedOrigins().List(),
		AllowedMethods:   s.config.GetAllowedMethods(),
		AllowedHeaders:   s.config.GetAllowedHeaders(),
		AllowCredentials: true,
		MaxAge:           86400,
	})
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	displayMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		displayMethod = color + displayMethod + ResetColor
	} else {
		displayMethod = Gray + displayMethod + ResetColor
	}
	log.Info().Msgf("[%-19s] %s", displayMethod, path)
}

// Helper function to determine the scheme (http/https)
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}

// Package httpapi exposes the vault services over JSON HTTP. Routes and
// payloads mirror what the client gateway sends.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/akgupta-cs/mediavault/internal/logging"
	"github.com/akgupta-cs/mediavault/internal/server/services"
)

type Server struct {
	users    *services.UserService
	profiles *services.ProfileService
	media    *services.MediaService
	admin    *services.AdminService
	log      logging.Logger
}

func NewServer(users *services.UserService, profiles *services.ProfileService,
	media *services.MediaService, admin *services.AdminService, log logging.Logger) *Server {
	return &Server{
		users:    users,
		profiles: profiles,
		media:    media,
		admin:    admin,
		log:      log,
	}
}

func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/ping", s.handlePing)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", s.handleRegister)
			r.Post("/login", s.handleLogin)
			r.Post("/refresh", s.handleRefresh)
			r.Post("/logout", s.handleLogout)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Route("/profile", func(r chi.Router) {
				r.Get("/", s.handleGetProfile)
				r.Put("/", s.handleSaveProfile)
				r.Post("/picture", s.handleUpdatePicture)
				r.Get("/language", s.handleGetLanguage)
				r.Put("/language", s.handleSetLanguage)
			})

			r.Get("/me/admin", s.handleIsAdmin)
			r.Get("/me/role", s.handleRole)

			r.Route("/pin", func(r chi.Router) {
				r.Post("/verify", s.handleVerifyPin)
				r.Post("/change", s.handleChangePin)
				r.Post("/reset", s.handleResetPin)
			})

			r.Post("/blobs/uploads", s.handleUploadGrant)

			r.Route("/media/{kind}", func(r chi.Router) {
				r.Get("/", s.handleListMedia)
				r.Post("/", s.handleRegisterMedia)
				r.Post("/bulk", s.handleRegisterMediaBulk)
				r.Get("/usage", s.handleStorageUsage)
				r.Get("/{id}", s.handleGetMedia)
				r.Delete("/{id}", s.handleDeleteMedia)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Post("/roles", s.handleAssignRole)
				r.Get("/users/count", s.handleUserCount)
				r.Get("/storage/units", s.handleStorageUnitCount)
				r.Get("/storage/summary", s.handleSummaryAll)
				r.Get("/storage/summary/{principal}", s.handleSummaryFor)
			})
		})
	})

	return r
}

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
}

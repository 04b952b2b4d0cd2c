package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleAssignRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req struct {
		Principal string `json:"principal"`
		Role      string `json:"role"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeInvalid(ctx, w, "malformed request body")
		return
	}

	if err := s.users.AssignRole(ctx, callerID(ctx), req.Principal, req.Role); err != nil {
		s.writeError(ctx, w, err)
		return
	}
	s.writeJSON(ctx, w, http.StatusOK, map[string]string{"status": "assigned"})
}

func (s *Server) handleUserCount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	count, err := s.admin.UserCount(ctx, callerID(ctx))
	if err != nil {
		s.writeError(ctx, w, err)
		return
	}
	s.writeJSON(ctx, w, http.StatusOK, map[string]int64{"count": count})
}

func (s *Server) handleStorageUnitCount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	count, err := s.admin.StorageUnitCount(ctx, callerID(ctx))
	if err != nil {
		s.writeError(ctx, w, err)
		return
	}
	s.writeJSON(ctx, w, http.StatusOK, map[string]int64{"count": count})
}

func (s *Server) handleSummaryAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	summary, err := s.admin.SummaryAll(ctx, callerID(ctx))
	if err != nil {
		s.writeError(ctx, w, err)
		return
	}
	s.writeJSON(ctx, w, http.StatusOK, summary)
}

func (s *Server) handleSummaryFor(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	summary, err := s.admin.SummaryFor(ctx, callerID(ctx), chi.URLParam(r, "principal"))
	if err != nil {
		s.writeError(ctx, w, err)
		return
	}
	s.writeJSON(ctx, w, http.StatusOK, summary)
}

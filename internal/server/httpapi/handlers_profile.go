package httpapi

import "net/http"

type profileWire struct {
	Principal  string `json:"principal"`
	Name       string `json:"name"`
	Pin        string `json:"pin"`
	PictureURL string `json:"picture_url,omitempty"`
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	view, err := s.profiles.Get(ctx, callerID(ctx))
	if err != nil {
		s.writeError(ctx, w, err)
		return
	}
	s.writeJSON(ctx, w, http.StatusOK, profileWire{
		Principal:  view.UserID.String(),
		Name:       view.Name,
		Pin:        view.Pin,
		PictureURL: view.PictureURL,
	})
}

func (s *Server) handleSaveProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req profileWire
	if err := decodeBody(r, &req); err != nil {
		s.writeInvalid(ctx, w, "malformed request body")
		return
	}

	if err := s.profiles.Save(ctx, callerID(ctx), req.Name, req.Pin); err != nil {
		s.writeError(ctx, w, err)
		return
	}
	s.writeJSON(ctx, w, http.StatusOK, map[string]string{"status": "saved"})
}

func (s *Server) handleUpdatePicture(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req struct {
		StorageKey string `json:"storage_key"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeInvalid(ctx, w, "malformed request body")
		return
	}

	url, err := s.profiles.UpdatePicture(ctx, callerID(ctx), req.StorageKey)
	if err != nil {
		s.writeError(ctx, w, err)
		return
	}
	s.writeJSON(ctx, w, http.StatusOK, map[string]string{"url": url})
}

func (s *Server) handleGetLanguage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	lang, err := s.profiles.GetLanguage(ctx, callerID(ctx))
	if err != nil {
		s.writeError(ctx, w, err)
		return
	}
	s.writeJSON(ctx, w, http.StatusOK, map[string]string{"language": lang})
}

func (s *Server) handleSetLanguage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req struct {
		Language string `json:"language"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeInvalid(ctx, w, "malformed request body")
		return
	}

	if err := s.profiles.SetLanguage(ctx, callerID(ctx), req.Language); err != nil {
		s.writeError(ctx, w, err)
		return
	}
	s.writeJSON(ctx, w, http.StatusOK, map[string]string{"status": "saved"})
}

func (s *Server) handleIsAdmin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	isAdmin, err := s.admin.IsAdmin(ctx, callerID(ctx))
	if err != nil {
		s.writeError(ctx, w, err)
		return
	}
	s.writeJSON(ctx, w, http.StatusOK, map[string]bool{"is_admin": isAdmin})
}

func (s *Server) handleRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	role, err := s.admin.Role(ctx, callerID(ctx))
	if err != nil {
		s.writeError(ctx, w, err)
		return
	}
	s.writeJSON(ctx, w, http.StatusOK, map[string]string{"role": role})
}

func (s *Server) handleVerifyPin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req struct {
		Pin string `json:"pin"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeInvalid(ctx, w, "malformed request body")
		return
	}

	if err := s.profiles.VerifyPin(ctx, callerID(ctx), req.Pin); err != nil {
		s.writeError(ctx, w, err)
		return
	}
	s.writeJSON(ctx, w, http.StatusOK, map[string]string{"status": "verified"})
}

func (s *Server) handleChangePin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req struct {
		CurrentPin string `json:"current_pin"`
		NewPin     string `json:"new_pin"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeInvalid(ctx, w, "malformed request body")
		return
	}

	if err := s.profiles.ChangePin(ctx, callerID(ctx), req.CurrentPin, req.NewPin); err != nil {
		s.writeError(ctx, w, err)
		return
	}
	s.writeJSON(ctx, w, http.StatusOK, map[string]string{"status": "changed"})
}

// handleResetPin trusts the bearer token alone. The client performs a
// full credential login right before calling this, so the token here is
// freshly issued.
func (s *Server) handleResetPin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req struct {
		NewPin string `json:"new_pin"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeInvalid(ctx, w, "malformed request body")
		return
	}

	if err := s.profiles.ResetPin(ctx, callerID(ctx), req.NewPin); err != nil {
		s.writeError(ctx, w, err)
		return
	}
	s.writeJSON(ctx, w, http.StatusOK, map[string]string{"status": "reset"})
}

package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/akgupta-cs/mediavault/internal/common"
	"github.com/akgupta-cs/mediavault/internal/server/models"
	"github.com/akgupta-cs/mediavault/internal/server/services"
)

type mediaItemWire struct {
	ID              int64     `json:"id"`
	Filename        string    `json:"filename"`
	ContentType     string    `json:"content_type"`
	FileSize        int64     `json:"file_size"`
	UploadDate      time.Time `json:"upload_date"`
	DurationSeconds *float64  `json:"duration_seconds,omitempty"`
	ThumbnailURL    string    `json:"thumbnail_url,omitempty"`
	URL             string    `json:"url,omitempty"`
}

type mediaMetadataWire struct {
	Filename        string   `json:"filename"`
	ContentType     string   `json:"content_type"`
	FileSize        int64    `json:"file_size"`
	StorageKey      string   `json:"storage_key"`
	DurationSeconds *float64 `json:"duration_seconds,omitempty"`
	ThumbnailKey    string   `json:"thumbnail_key,omitempty"`
}

func (m mediaMetadataWire) toMetadata() services.MediaMetadata {
	return services.MediaMetadata{
		Filename:        m.Filename,
		ContentType:     m.ContentType,
		FileSize:        m.FileSize,
		StorageKey:      m.StorageKey,
		DurationSeconds: m.DurationSeconds,
		ThumbnailKey:    m.ThumbnailKey,
	}
}

func toItemWire(v services.MediaView) mediaItemWire {
	return mediaItemWire{
		ID:              v.ID,
		Filename:        v.Filename,
		ContentType:     v.ContentType,
		FileSize:        v.FileSize,
		UploadDate:      v.UploadDate,
		DurationSeconds: v.DurationSeconds,
		ThumbnailURL:    v.ThumbnailURL,
		URL:             v.URL,
	}
}

func mediaKind(r *http.Request) (models.MediaKind, error) {
	kind := models.MediaKind(chi.URLParam(r, "kind"))
	switch kind {
	case models.KindPhoto, models.KindVideo, models.KindDocument, models.KindMemory:
		return kind, nil
	default:
		return "", fmt.Errorf("unknown media kind %q", kind)
	}
}

func mediaID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func (s *Server) handleUploadGrant(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req struct {
		Filename    string `json:"filename"`
		ContentType string `json:"content_type"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeInvalid(ctx, w, "malformed request body")
		return
	}

	grant, err := s.media.NewUploadGrant(ctx, req.ContentType)
	if err != nil {
		s.writeError(ctx, w, err)
		return
	}
	s.writeJSON(ctx, w, http.StatusOK, map[string]string{
		"upload_url":  grant.UploadURL,
		"storage_key": grant.StorageKey,
	})
}

func (s *Server) handleListMedia(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	kind, err := mediaKind(r)
	if err != nil {
		s.writeInvalid(ctx, w, err.Error())
		return
	}

	views, err := s.media.List(ctx, callerID(ctx), kind)
	if err != nil {
		s.writeError(ctx, w, err)
		return
	}

	items := make([]mediaItemWire, 0, len(views))
	for _, v := range views {
		items = append(items, toItemWire(v))
	}
	s.writeJSON(ctx, w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) handleGetMedia(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	kind, err := mediaKind(r)
	if err != nil {
		s.writeInvalid(ctx, w, err.Error())
		return
	}
	id, err := mediaID(r)
	if err != nil {
		s.writeInvalid(ctx, w, "malformed media id")
		return
	}

	view, err := s.media.Get(ctx, callerID(ctx), id)
	if err != nil {
		s.writeError(ctx, w, err)
		return
	}
	if view.Kind != kind {
		s.writeError(ctx, w, common.ErrNotFound)
		return
	}
	s.writeJSON(ctx, w, http.StatusOK, toItemWire(*view))
}

func (s *Server) handleRegisterMedia(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	kind, err := mediaKind(r)
	if err != nil {
		s.writeInvalid(ctx, w, err.Error())
		return
	}

	var req mediaMetadataWire
	if err := decodeBody(r, &req); err != nil {
		s.writeInvalid(ctx, w, "malformed request body")
		return
	}

	id, err := s.media.Register(ctx, callerID(ctx), kind, req.toMetadata())
	if err != nil {
		s.writeError(ctx, w, err)
		return
	}
	s.writeJSON(ctx, w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *Server) handleRegisterMediaBulk(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	kind, err := mediaKind(r)
	if err != nil {
		s.writeInvalid(ctx, w, err.Error())
		return
	}

	var req struct {
		Items []mediaMetadataWire `json:"items"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeInvalid(ctx, w, "malformed request body")
		return
	}

	metas := make([]services.MediaMetadata, 0, len(req.Items))
	for _, item := range req.Items {
		metas = append(metas, item.toMetadata())
	}

	result, err := s.media.RegisterBulk(ctx, callerID(ctx), kind, metas)
	if err != nil {
		s.writeError(ctx, w, err)
		return
	}
	s.writeJSON(ctx, w, http.StatusOK, map[string]any{
		"ids":           result.IDs,
		"success_count": result.SuccessCount,
		"errors":        result.Errors,
	})
}

func (s *Server) handleDeleteMedia(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	kind, err := mediaKind(r)
	if err != nil {
		s.writeInvalid(ctx, w, err.Error())
		return
	}
	id, err := mediaID(r)
	if err != nil {
		s.writeInvalid(ctx, w, "malformed media id")
		return
	}

	if err := s.media.Delete(ctx, callerID(ctx), kind, id); err != nil {
		s.writeError(ctx, w, err)
		return
	}
	s.writeJSON(ctx, w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleStorageUsage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	kind, err := mediaKind(r)
	if err != nil {
		s.writeInvalid(ctx, w, err.Error())
		return
	}

	used, err := s.media.StorageUsage(ctx, callerID(ctx), kind)
	if err != nil {
		s.writeError(ctx, w, err)
		return
	}
	s.writeJSON(ctx, w, http.StatusOK, map[string]int64{"used_bytes": used})
}

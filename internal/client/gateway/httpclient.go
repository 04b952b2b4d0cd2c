package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/akgupta-cs/mediavault/internal/blob"
	"github.com/akgupta-cs/mediavault/internal/common"
	"github.com/akgupta-cs/mediavault/internal/logging"
)

// wire error kinds, shared with the server's error envelope
const (
	kindUnavailable    = "unavailable"
	kindAuthRequired   = "auth_required"
	kindUnauthorized   = "unauthorized"
	kindNotImplemented = "not_implemented"
	kindNotFound       = "not_found"
	kindInvalid        = "invalid"
	kindPinMismatch    = "pin_mismatch"
)

const codeTokenExpired = "token_expired"

type errorEnvelope struct {
	Error struct {
		Kind    string `json:"kind"`
		Message string `json:"message"`
		Code    string `json:"code,omitempty"`
	} `json:"error"`
}

type tokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	Principal    string `json:"principal"`
}

// HTTPClient talks JSON over HTTP to the vault server and implements
// Gateway. It holds the session tokens and transparently refreshes the
// access token once per request when the server reports it expired.
type HTTPClient struct {
	baseURL  string
	http     *http.Client
	uploader *blob.Uploader
	log      logging.Logger

	mu           sync.RWMutex
	accessToken  string
	refreshToken string
	principal    string
}

var _ Gateway = (*HTTPClient)(nil)

func NewHTTPClient(baseURL string, log logging.Logger) *HTTPClient {
	c := &http.Client{}
	return &HTTPClient{
		baseURL:  baseURL,
		http:     c,
		uploader: blob.NewUploader(c),
		log:      log,
	}
}

func (c *HTTPClient) setSession(tp tokenPair) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessToken = tp.AccessToken
	c.refreshToken = tp.RefreshToken
	if tp.Principal != "" {
		c.principal = tp.Principal
	}
}

func (c *HTTPClient) clearSession() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessToken = ""
	c.refreshToken = ""
	c.principal = ""
}

func (c *HTTPClient) session() (access, refresh string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.accessToken, c.refreshToken
}

func (c *HTTPClient) Principal() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.principal
}

// mapError converts a wire error envelope into a sentinel error. The
// kind field decides; message text is carried along for display only.
func mapError(kind, message string) error {
	var sentinel error
	switch kind {
	case kindUnavailable:
		sentinel = ErrUnavailable
	case kindAuthRequired:
		sentinel = ErrAuthRequired
	case kindUnauthorized:
		sentinel = ErrUnauthorized
	case kindNotImplemented:
		sentinel = ErrNotImplemented
	case kindNotFound:
		sentinel = ErrNotFound
	case kindInvalid:
		sentinel = ErrInvalidInput
	case kindPinMismatch:
		sentinel = ErrPinMismatch
	default:
		return fmt.Errorf("server error: %s", message)
	}
	if message == "" {
		return sentinel
	}
	return fmt.Errorf("%w: %s", sentinel, message)
}

// do performs one JSON request. A nil in/out skips the corresponding
// body. When the access token has expired it refreshes once and
// retries.
func (c *HTTPClient) do(ctx context.Context, method, path string, in, out any) error {
	err := c.doOnce(ctx, method, path, in, out, true)
	if err == nil {
		return nil
	}

	var expired *tokenExpiredError
	if errors.As(err, &expired) {
		if rerr := c.refresh(ctx); rerr != nil {
			return fmt.Errorf("%w: session refresh failed", ErrAuthRequired)
		}
		return c.unwrapExpired(c.doOnce(ctx, method, path, in, out, true))
	}
	return err
}

// tokenExpiredError signals the single allowed refresh-and-retry.
type tokenExpiredError struct{ cause error }

func (e *tokenExpiredError) Error() string { return e.cause.Error() }
func (e *tokenExpiredError) Unwrap() error { return e.cause }

func (c *HTTPClient) unwrapExpired(err error) error {
	var expired *tokenExpiredError
	if errors.As(err, &expired) {
		return expired.cause
	}
	return err
}

func (c *HTTPClient) doOnce(ctx context.Context, method, path string, in, out any, withAuth bool) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if withAuth {
		if access, _ := c.session(); access != "" {
			req.Header.Set(common.AccessTokenHeaderName, "Bearer "+access)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var env errorEnvelope
		if derr := json.NewDecoder(resp.Body).Decode(&env); derr != nil {
			return fmt.Errorf("server error: status %d", resp.StatusCode)
		}
		mapped := mapError(env.Error.Kind, env.Error.Message)
		if env.Error.Kind == kindAuthRequired && env.Error.Code == codeTokenExpired {
			return &tokenExpiredError{cause: mapped}
		}
		return mapped
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// refresh rotates the token pair using the stored refresh token.
func (c *HTTPClient) refresh(ctx context.Context) error {
	_, refresh := c.session()
	if refresh == "" {
		return ErrAuthRequired
	}

	var tp tokenPair
	err := c.doOnce(ctx, http.MethodPost, "/api/auth/refresh",
		map[string]string{"refresh_token": refresh}, &tp, false)
	if err != nil {
		c.log.Debug(ctx, "token refresh failed", "error", err)
		return err
	}

	c.setSession(tp)
	c.log.Debug(ctx, "access token refreshed")
	return nil
}

func (c *HTTPClient) Register(ctx context.Context, username, password string) error {
	return c.do(ctx, http.MethodPost, "/api/auth/register",
		map[string]string{"username": username, "password": password}, nil)
}

func (c *HTTPClient) Login(ctx context.Context, username, password string) error {
	var tp tokenPair
	err := c.do(ctx, http.MethodPost, "/api/auth/login",
		map[string]string{"username": username, "password": password}, &tp)
	if err != nil {
		return err
	}
	c.setSession(tp)
	return nil
}

func (c *HTTPClient) Logout(ctx context.Context) error {
	_, refresh := c.session()
	var err error
	if refresh != "" {
		err = c.do(ctx, http.MethodPost, "/api/auth/logout",
			map[string]string{"refresh_token": refresh}, nil)
	}
	c.clearSession()
	return err
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	return c.doOnce(ctx, http.MethodGet, "/api/ping", nil, nil, false)
}

func (c *HTTPClient) GetProfile(ctx context.Context) (*Profile, error) {
	var p Profile
	err := c.do(ctx, http.MethodGet, "/api/profile", nil, &p)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *HTTPClient) SaveProfile(ctx context.Context, p Profile) error {
	return c.do(ctx, http.MethodPut, "/api/profile", p, nil)
}

func (c *HTTPClient) UpdateProfilePicture(ctx context.Context, picture blob.Ref, contentType string) (string, error) {
	key, err := c.uploadBlob(ctx, "profile-picture", contentType, picture, nil)
	if err != nil {
		return "", err
	}

	var resp struct {
		URL string `json:"url"`
	}
	err = c.do(ctx, http.MethodPost, "/api/profile/picture",
		map[string]string{"storage_key": key}, &resp)
	if err != nil {
		return "", err
	}
	return resp.URL, nil
}

func (c *HTTPClient) GetLanguagePreference(ctx context.Context) (string, error) {
	var resp struct {
		Language string `json:"language"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/profile/language", nil, &resp); err != nil {
		return "", err
	}
	return resp.Language, nil
}

func (c *HTTPClient) SetLanguagePreference(ctx context.Context, lang string) error {
	return c.do(ctx, http.MethodPut, "/api/profile/language",
		map[string]string{"language": lang}, nil)
}

func (c *HTTPClient) IsAdmin(ctx context.Context) (bool, error) {
	var resp struct {
		IsAdmin bool `json:"is_admin"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/me/admin", nil, &resp); err != nil {
		return false, err
	}
	return resp.IsAdmin, nil
}

func (c *HTTPClient) Role(ctx context.Context) (string, error) {
	var resp struct {
		Role string `json:"role"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/me/role", nil, &resp); err != nil {
		return "", err
	}
	return resp.Role, nil
}

func (c *HTTPClient) AssignRole(ctx context.Context, principal, role string) error {
	return c.do(ctx, http.MethodPost, "/api/admin/roles",
		map[string]string{"principal": principal, "role": role}, nil)
}

func (c *HTTPClient) VerifyPin(ctx context.Context, pin string) error {
	return c.do(ctx, http.MethodPost, "/api/pin/verify",
		map[string]string{"pin": pin}, nil)
}

func (c *HTTPClient) ChangePin(ctx context.Context, currentPin, newPin string) error {
	return c.do(ctx, http.MethodPost, "/api/pin/change",
		map[string]string{"current_pin": currentPin, "new_pin": newPin}, nil)
}

func (c *HTTPClient) ResetPin(ctx context.Context, newPin string) error {
	return c.do(ctx, http.MethodPost, "/api/pin/reset",
		map[string]string{"new_pin": newPin}, nil)
}

func (c *HTTPClient) ListMedia(ctx context.Context, kind MediaKind) ([]MediaItem, error) {
	var resp struct {
		Items []MediaItem `json:"items"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/media/"+string(kind), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (c *HTTPClient) GetMediaMetadata(ctx context.Context, kind MediaKind, id int64) (*MediaItem, error) {
	var item MediaItem
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/media/%s/%d", kind, id), nil, &item)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// uploadBlob requests a presigned PUT URL, pushes the content and
// returns the storage key to register in metadata.
func (c *HTTPClient) uploadBlob(ctx context.Context, filename, contentType string, ref blob.Ref, progress blob.ProgressFunc) (string, error) {
	var grant struct {
		UploadURL  string `json:"upload_url"`
		StorageKey string `json:"storage_key"`
	}
	err := c.do(ctx, http.MethodPost, "/api/blobs/uploads",
		map[string]string{"filename": filename, "content_type": contentType}, &grant)
	if err != nil {
		return "", err
	}

	up := c.uploader
	if progress != nil {
		up = up.WithProgress(progress)
	}
	if err := up.Upload(ctx, grant.UploadURL, contentType, ref); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return grant.StorageKey, nil
}

type mediaMetadata struct {
	Filename        string   `json:"filename"`
	ContentType     string   `json:"content_type"`
	FileSize        int64    `json:"file_size"`
	StorageKey      string   `json:"storage_key"`
	DurationSeconds *float64 `json:"duration_seconds,omitempty"`
	ThumbnailKey    string   `json:"thumbnail_key,omitempty"`
}

func (c *HTTPClient) buildMetadata(ctx context.Context, req UploadRequest) (*mediaMetadata, error) {
	data, err := req.Content.Bytes(ctx)
	if err != nil {
		return nil, err
	}

	key, err := c.uploadBlob(ctx, req.Filename, req.ContentType, blob.FromBytes(data), req.Progress)
	if err != nil {
		return nil, err
	}

	meta := &mediaMetadata{
		Filename:        req.Filename,
		ContentType:     req.ContentType,
		FileSize:        int64(len(data)),
		StorageKey:      key,
		DurationSeconds: req.DurationSeconds,
	}

	if req.Thumbnail != nil {
		tkey, err := c.uploadBlob(ctx, req.Filename+".thumb", "image/jpeg", req.Thumbnail, nil)
		if err != nil {
			return nil, err
		}
		meta.ThumbnailKey = tkey
	}
	return meta, nil
}

func (c *HTTPClient) UploadMedia(ctx context.Context, req UploadRequest) (int64, error) {
	meta, err := c.buildMetadata(ctx, req)
	if err != nil {
		return 0, err
	}

	var resp struct {
		ID int64 `json:"id"`
	}
	err = c.do(ctx, http.MethodPost, "/api/media/"+string(req.Kind), meta, &resp)
	if err != nil {
		return 0, err
	}
	return resp.ID, nil
}

// UploadMediaBulk uploads every payload, then registers the successful
// ones in a single call. Items that fail to upload are reported in the
// result instead of aborting the batch.
func (c *HTTPClient) UploadMediaBulk(ctx context.Context, reqs []UploadRequest) (*BulkUploadResult, error) {
	if len(reqs) == 0 {
		return &BulkUploadResult{Message: "nothing to upload"}, nil
	}
	kind := reqs[0].Kind

	metas := make([]mediaMetadata, 0, len(reqs))
	uploadErrs := make([]string, 0)
	for _, req := range reqs {
		meta, err := c.buildMetadata(ctx, req)
		if err != nil {
			if errors.Is(err, ErrAuthRequired) || errors.Is(err, ErrUnauthorized) {
				return nil, err
			}
			uploadErrs = append(uploadErrs, fmt.Sprintf("%s: %v", req.Filename, err))
			continue
		}
		metas = append(metas, *meta)
	}

	result := &BulkUploadResult{Errors: uploadErrs}
	if len(metas) > 0 {
		var resp BulkUploadResult
		err := c.do(ctx, http.MethodPost, "/api/media/"+string(kind)+"/bulk",
			map[string]any{"items": metas}, &resp)
		if err != nil {
			return nil, err
		}
		result.IDs = resp.IDs
		result.SuccessCount = resp.SuccessCount
		result.Errors = append(result.Errors, resp.Errors...)
	}
	result.Message = fmt.Sprintf("uploaded %d of %d files", result.SuccessCount, len(reqs))
	return result, nil
}

func (c *HTTPClient) DeleteMedia(ctx context.Context, kind MediaKind, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/media/%s/%d", kind, id), nil, nil)
}

func (c *HTTPClient) StorageUsage(ctx context.Context, kind MediaKind) (int64, error) {
	var resp struct {
		UsedBytes int64 `json:"used_bytes"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/media/"+string(kind)+"/usage", nil, &resp); err != nil {
		return 0, err
	}
	return resp.UsedBytes, nil
}

func (c *HTTPClient) UserCount(ctx context.Context) (int64, error) {
	var resp struct {
		Count int64 `json:"count"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/admin/users/count", nil, &resp); err != nil {
		return 0, err
	}
	return resp.Count, nil
}

func (c *HTTPClient) StorageUnitCount(ctx context.Context) (int64, error) {
	var resp struct {
		Count int64 `json:"count"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/admin/storage/units", nil, &resp); err != nil {
		return 0, err
	}
	return resp.Count, nil
}

func (c *HTTPClient) AggregateStorageSummary(ctx context.Context) (*StorageSummary, error) {
	var s StorageSummary
	if err := c.do(ctx, http.MethodGet, "/api/admin/storage/summary", nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *HTTPClient) StorageSummaryFor(ctx context.Context, principal string) (*StorageSummary, error) {
	var s StorageSummary
	if err := c.do(ctx, http.MethodGet, "/api/admin/storage/summary/"+principal, nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/voltaic-labs/examdex/internal/api"
	"github.com/voltaic-labs/examdex/internal/storage"
	"github.com/voltaic-labs/examdex/internal/verify"
)

// ImageStore issues presigned URLs for question image objects and
// inspects uploaded objects.
type ImageStore interface {
	GenerateUploadURL(ctx context.Context, key string, contentType string) (string, error)
	GenerateDownloadURL(ctx context.Context, key string) (string, error)
	HeadObject(ctx context.Context, key string) (*storage.ObjectMetadata, error)
	DeleteObject(ctx context.Context, key string) error
}

type ImageHandler struct {
	store ImageStore
}

func NewImageHandler(store ImageStore) *ImageHandler {
	return &ImageHandler{store: store}
}

type InitImageUploadRequest struct {
	ContentType string `json:"content_type"`
	SizeBytes   int    `json:"size_bytes"`
}

type InitImageUploadResponse struct {
	ImageID    string `json:"image_id"`
	StorageKey string `json:"storage_key"`
	UploadURL  string `json:"upload_url"`
}

var imageExtensions = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/webp": "webp",
}

// InitUpload issues a presigned PUT URL for a question image. The client
// uploads directly to object storage and then submits the download URL
// with its question.
func (h *ImageHandler) InitUpload(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		api.Error(w, http.StatusServiceUnavailable, "image storage not configured")
		return
	}

	var req InitImageUploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ext, ok := imageExtensions[strings.ToLower(req.ContentType)]
	if !ok {
		api.Error(w, http.StatusBadRequest, "content_type must be image/png, image/jpeg, or image/webp")
		return
	}

	if req.SizeBytes > verify.MaxImageBytes {
		api.Error(w, http.StatusRequestEntityTooLarge, "image exceeds the size limit")
		return
	}

	imageID := uuid.NewString()
	key := storage.QuestionImageKey(imageID, ext)

	uploadURL, err := h.store.GenerateUploadURL(r.Context(), key, req.ContentType)
	if err != nil {
		api.Error(w, http.StatusInternalServerError, "failed to generate upload URL")
		return
	}

	api.Success(w, http.StatusOK, InitImageUploadResponse{
		ImageID:    imageID,
		StorageKey: key,
		UploadURL:  uploadURL,
	})
}

type CompleteImageUploadRequest struct {
	StorageKey string `json:"storage_key"`
}

type CompleteImageUploadResponse struct {
	StorageKey  string `json:"storage_key"`
	SizeBytes   int64  `json:"size_bytes"`
	ContentType string `json:"content_type"`
	DownloadURL string `json:"download_url"`
}

// CompleteUpload confirms that a presigned upload landed. Objects that
// grew past the size limit between init and upload are discarded.
func (h *ImageHandler) CompleteUpload(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		api.Error(w, http.StatusServiceUnavailable, "image storage not configured")
		return
	}

	var req CompleteImageUploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.StorageKey == "" {
		api.Error(w, http.StatusBadRequest, "storage_key is required")
		return
	}

	meta, err := h.store.HeadObject(r.Context(), req.StorageKey)
	if err != nil {
		api.Error(w, http.StatusNotFound, "uploaded image not found")
		return
	}

	if meta.ContentLength > int64(verify.MaxImageBytes) {
		if delErr := h.store.DeleteObject(r.Context(), req.StorageKey); delErr != nil {
			log.Printf("image: failed to delete oversized object %s: %v", req.StorageKey, delErr)
		}
		api.Error(w, http.StatusRequestEntityTooLarge, "image exceeds the size limit")
		return
	}

	downloadURL, err := h.store.GenerateDownloadURL(r.Context(), req.StorageKey)
	if err != nil {
		api.Error(w, http.StatusInternalServerError, "failed to generate download URL")
		return
	}

	api.Success(w, http.StatusOK, CompleteImageUploadResponse{
		StorageKey:  req.StorageKey,
		SizeBytes:   meta.ContentLength,
		ContentType: meta.ContentType,
		DownloadURL: downloadURL,
	})
}

type ImageDownloadResponse struct {
	DownloadURL string `json:"download_url"`
}

// GetDownloadURL issues a presigned GET URL for a previously uploaded image.
func (h *ImageHandler) GetDownloadURL(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		api.Error(w, http.StatusServiceUnavailable, "image storage not configured")
		return
	}

	key := r.URL.Query().Get("key")
	if key == "" {
		api.Error(w, http.StatusBadRequest, "key is required")
		return
	}

	downloadURL, err := h.store.GenerateDownloadURL(r.Context(), key)
	if err != nil {
		api.Error(w, http.StatusInternalServerError, "failed to generate download URL")
		return
	}

	api.Success(w, http.StatusOK, ImageDownloadResponse{DownloadURL: downloadURL})
}

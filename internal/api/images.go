package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dmikhr/freshkeep/internal/imagestore"
	"github.com/dmikhr/freshkeep/internal/model"
	"github.com/dmikhr/freshkeep/internal/signing"
)

// ImageBackend abstracts where item photos live. The MinIO backend hands
// out presigned URLs; the local backend hands out HMAC-signed ones served
// by this process.
type ImageBackend interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Fetch(ctx context.Context, key string) ([]byte, error)
	URL(ctx context.Context, key string) (string, error)
}

// MinioImages adapts imagestore.MinioStore to ImageBackend.
type MinioImages struct {
	Store *imagestore.MinioStore
	TTL   time.Duration
}

func (m *MinioImages) Put(ctx context.Context, key string, data []byte, contentType string) error {
	return m.Store.Put(ctx, key, data, contentType)
}

func (m *MinioImages) Fetch(ctx context.Context, key string) ([]byte, error) {
	return m.Store.Fetch(ctx, key)
}

func (m *MinioImages) URL(ctx context.Context, key string) (string, error) {
	return m.Store.PresignURL(ctx, key, m.TTL)
}

// LocalImages adapts imagestore.LocalStore plus a signer to ImageBackend.
type LocalImages struct {
	Store  *imagestore.LocalStore
	Signer *signing.Signer
	TTL    time.Duration
	Now    func() time.Time
}

func (l *LocalImages) Put(_ context.Context, key string, data []byte, _ string) error {
	return l.Store.Put(key, data)
}

func (l *LocalImages) Fetch(_ context.Context, key string) ([]byte, error) {
	return l.Store.Fetch(key)
}

func (l *LocalImages) URL(_ context.Context, key string) (string, error) {
	now := time.Now
	if l.Now != nil {
		now = l.Now
	}
	q := l.Signer.SignedQuery(key, l.TTL, now())
	return "/images/download?" + q.Encode(), nil
}

func (s *Server) handleItemImageUpload(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.images == nil {
		respondError(w, http.StatusNotImplemented, "image storage not configured")
		return
	}
	ctx := r.Context()
	if _, err := s.inventory.Get(ctx, id); err != nil {
		s.respondStoreError(w, err)
		return
	}

	data, contentType, err := s.readImagePart(w, r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	key := fmt.Sprintf("items/%s.jpg", id)
	if err := s.images.Put(ctx, key, data, contentType); err != nil {
		s.logger.Error("store image", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to store image")
		return
	}
	item, err := s.inventory.Update(ctx, id, model.Patch{Image: &key})
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, item)
}

func (s *Server) handleItemImageURL(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.images == nil {
		respondError(w, http.StatusNotImplemented, "image storage not configured")
		return
	}
	ctx := r.Context()
	item, err := s.inventory.Get(ctx, id)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	if item.Image == "" || strings.HasPrefix(item.Image, "data:") {
		respondError(w, http.StatusNotFound, "item has no stored image")
		return
	}
	url, err := s.images.URL(ctx, item.Image)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to generate url")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"url": url})
}

// handleImageDownload serves locally stored photos through signed URLs.
func (s *Server) handleImageDownload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	local, ok := s.images.(*LocalImages)
	if !ok {
		http.NotFound(w, r)
		return
	}
	key := r.URL.Query().Get("image")
	expires := r.URL.Query().Get("expires")
	signature := r.URL.Query().Get("signature")
	if key == "" || expires == "" || signature == "" {
		respondError(w, http.StatusBadRequest, "missing parameters")
		return
	}
	if !local.Signer.Validate(key, expires, signature, s.now()) {
		respondError(w, http.StatusUnauthorized, "invalid or expired signature")
		return
	}
	data, err := local.Fetch(r.Context(), key)
	if err != nil {
		respondError(w, http.StatusNotFound, "image not found")
		return
	}
	w.Header().Set("Content-Type", http.DetectContentType(data))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// readImagePart streams the "file" part of a multipart upload, enforcing
// the size ceiling and the image/* content sniff.
func (s *Server) readImagePart(w http.ResponseWriter, r *http.Request) ([]byte, string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxImageBytes+1024)
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, "", errors.New("expecting multipart form")
	}
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return nil, "", errors.New("missing file part")
		}
		if err != nil {
			return nil, "", errors.New("failed to read upload")
		}
		if part.FormName() != "file" {
			part.Close()
			continue
		}
		data, err := io.ReadAll(io.LimitReader(part, s.cfg.MaxImageBytes+1))
		part.Close()
		if err != nil {
			return nil, "", errors.New("failed to read upload")
		}
		if int64(len(data)) > s.cfg.MaxImageBytes {
			return nil, "", fmt.Errorf("image exceeds limit (%d bytes)", s.cfg.MaxImageBytes)
		}
		if len(data) == 0 {
			return nil, "", errors.New("empty file")
		}
		sniff := data
		if len(sniff) > 512 {
			sniff = sniff[:512]
		}
		contentType := http.DetectContentType(sniff)
		if !strings.HasPrefix(contentType, "image/") {
			return nil, "", errors.New("file is not an image")
		}
		return data, contentType, nil
	}
}

// internal/services/storage_service.go
package services

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"mime/multipart"
	"net/http"
	"path"
	"regexp"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"github.com/goldenrice/rice-backend/internal/apperror"
	"github.com/goldenrice/rice-backend/internal/config"
	"github.com/goldenrice/rice-backend/internal/i18n"
)

const (
	originalsPrefix  = "originals/"
	processedPrefix  = "processed/"
	thumbnailsPrefix = "thumbnails/"

	processedMaxSide = 1600
	thumbnailSide    = 300
	jpegQuality      = 85

	megabyte = 1024 * 1024
)

// BlobStore is where uploaded bytes end up: S3 in production, a local
// directory in development.
type BlobStore interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

type UploadKind string

const (
	UploadProductImage      UploadKind = "product"
	UploadPaymentScreenshot UploadKind = "payment_screenshot"
	UploadDocument          UploadKind = "document"
)

func (k UploadKind) Valid() bool {
	return k == UploadProductImage || k == UploadPaymentScreenshot || k == UploadDocument
}

type UploadResult struct {
	URL          string `json:"url"`
	ProcessedURL string `json:"processed_url,omitempty"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
	Filename     string `json:"filename"`
	Size         int64  `json:"size"`
	ContentType  string `json:"content_type"`
}

type uploadPolicy struct {
	maxSize      int64
	allowedTypes map[string]string // content type -> extension
}

var (
	imageTypes = map[string]string{
		"image/jpeg": ".jpg",
		"image/png":  ".png",
	}
	documentTypes = map[string]string{
		"image/jpeg":      ".jpg",
		"image/png":       ".png",
		"application/pdf": ".pdf",
	}

	storedNamePattern = regexp.MustCompile(`^[0-9]{8}_[0-9a-f]{8}\.(jpg|png|pdf)$`)
)

type StorageService struct {
	store  BlobStore
	config config.UploadConfig
	now    Clock
}

func NewStorageService(store BlobStore, cfg config.UploadConfig) *StorageService {
	return &StorageService{
		store:  store,
		config: cfg,
		now:    systemClock,
	}
}

// NewBlobStore picks S3 when AWS credentials are configured and the local
// upload directory otherwise.
func NewBlobStore(cfg *config.Config) (BlobStore, error) {
	if cfg.AWS.AccessKeyID == "" {
		return NewLocalStore(cfg.Upload.LocalDir, cfg.Upload.PublicBaseURL), nil
	}
	return NewS3Store(cfg.AWS)
}

func (s *StorageService) policy(kind UploadKind) uploadPolicy {
	switch kind {
	case UploadProductImage:
		return uploadPolicy{maxSize: int64(s.config.MaxImageSizeMB) * megabyte, allowedTypes: imageTypes}
	case UploadPaymentScreenshot:
		return uploadPolicy{maxSize: int64(s.config.MaxProofSizeMB) * megabyte, allowedTypes: imageTypes}
	default:
		return uploadPolicy{maxSize: int64(s.config.MaxImageSizeMB) * megabyte, allowedTypes: documentTypes}
	}
}

// Upload stores a file and, for images, a processed copy and a thumbnail.
// Nothing is left behind when any write fails.
func (s *StorageService) Upload(ctx context.Context, header *multipart.FileHeader, kind UploadKind) (*UploadResult, error) {
	if header == nil {
		return nil, apperror.Field("file", "file is required").WithKey(i18n.KeyUploadMissing)
	}
	if !kind.Valid() {
		return nil, apperror.Field("kind", "unknown upload kind")
	}

	policy := s.policy(kind)
	if header.Size > policy.maxSize {
		return nil, apperror.Field("file", fmt.Sprintf("file exceeds %d MB", policy.maxSize/megabyte))
	}

	file, err := header.Open()
	if err != nil {
		return nil, apperror.Wrap(apperror.KindUploadFailure, err, "failed to open upload")
	}
	defer file.Close()

	// Read one byte past the limit to catch lying size headers
	data, err := io.ReadAll(io.LimitReader(file, policy.maxSize+1))
	if err != nil {
		return nil, apperror.Wrap(apperror.KindUploadFailure, err, "failed to read upload")
	}
	if int64(len(data)) > policy.maxSize {
		return nil, apperror.Field("file", fmt.Sprintf("file exceeds %d MB", policy.maxSize/megabyte))
	}

	contentType := http.DetectContentType(data)
	ext, ok := policy.allowedTypes[contentType]
	if !ok {
		return nil, apperror.Field("file", "file type "+contentType+" is not allowed")
	}

	var img image.Image
	if strings.HasPrefix(contentType, "image/") {
		img, err = imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
		if err != nil {
			return nil, apperror.Field("file", "image could not be decoded")
		}
	}

	filename := s.generateFileName(ext)
	result := &UploadResult{
		Filename:    filename,
		Size:        int64(len(data)),
		ContentType: contentType,
	}

	var written []string
	rollback := func() {
		for _, key := range written {
			if err := s.store.Delete(ctx, key); err != nil {
				entryLog("storage.rollback").WithError(err).WithField("key", key).Warn("failed to remove partial upload")
			}
		}
	}

	originalKey := originalsPrefix + filename
	if err := s.store.Put(ctx, originalKey, data, contentType); err != nil {
		return nil, apperror.Wrap(apperror.KindUploadFailure, err, "failed to store original")
	}
	written = append(written, originalKey)
	result.URL = s.store.URL(originalKey)

	if img != nil {
		base := strings.TrimSuffix(filename, path.Ext(filename))

		processed := imaging.Fit(img, processedMaxSide, processedMaxSide, imaging.Lanczos)
		processedKey := processedPrefix + base + ".jpg"
		if err := s.putJPEG(ctx, processedKey, processed); err != nil {
			rollback()
			return nil, err
		}
		written = append(written, processedKey)
		result.ProcessedURL = s.store.URL(processedKey)

		thumb := imaging.Fill(img, thumbnailSide, thumbnailSide, imaging.Center, imaging.Lanczos)
		thumbKey := thumbnailsPrefix + base + ".jpg"
		if err := s.putJPEG(ctx, thumbKey, thumb); err != nil {
			rollback()
			return nil, err
		}
		result.ThumbnailURL = s.store.URL(thumbKey)
	}

	return result, nil
}

// UploadMany stores every file or none of them.
func (s *StorageService) UploadMany(ctx context.Context, headers []*multipart.FileHeader, kind UploadKind) ([]*UploadResult, error) {
	results := make([]*UploadResult, 0, len(headers))
	for _, header := range headers {
		result, err := s.Upload(ctx, header, kind)
		if err != nil {
			s.Discard(ctx, results...)
			return nil, err
		}
		results = append(results, result)
	}
	return results, nil
}

func (s *StorageService) putJPEG(ctx context.Context, key string, img image.Image) error {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return apperror.Wrap(apperror.KindUploadFailure, err, "failed to encode image")
	}
	if err := s.store.Put(ctx, key, buf.Bytes(), "image/jpeg"); err != nil {
		return apperror.Wrap(apperror.KindUploadFailure, err, "failed to store "+key)
	}
	return nil
}

// Delete removes a stored file and its derived copies.
func (s *StorageService) Delete(ctx context.Context, filename string) error {
	if !storedNamePattern.MatchString(filename) {
		return apperror.NotFound("upload")
	}

	base := strings.TrimSuffix(filename, path.Ext(filename))
	keys := []string{originalsPrefix + filename}
	if !strings.HasSuffix(filename, ".pdf") {
		keys = append(keys, processedPrefix+base+".jpg", thumbnailsPrefix+base+".jpg")
	}

	for _, key := range keys {
		if err := s.store.Delete(ctx, key); err != nil {
			return apperror.Wrap(apperror.KindUploadFailure, err, "failed to delete "+key)
		}
	}
	return nil
}

// Discard deletes uploads whose database write failed. Errors are only logged.
func (s *StorageService) Discard(ctx context.Context, results ...*UploadResult) {
	for _, r := range results {
		if r == nil {
			continue
		}
		if err := s.Delete(ctx, r.Filename); err != nil {
			entryLog("storage.discard").WithError(err).WithField("filename", r.Filename).Warn("failed to discard upload")
		}
	}
}

func (s *StorageService) generateFileName(ext string) string {
	return fmt.Sprintf("%s_%s%s", s.now().Format("20060102"), uuid.New().String()[:8], ext)
}

package service

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"path"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
	"github.com/maheshrc27/contentflow/internal/models"
	"github.com/maheshrc27/contentflow/pkg/logging"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"
)

const maxUploadBytes = 100 << 20

var allowedUploadTypes = map[string]struct{}{
	"jpg": {}, "png": {}, "mp4": {}, "mov": {},
}

type UploadedMedia struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
}

// MediaService stores client media so posts can reference it by public URL.
type MediaService interface {
	Upload(ctx context.Context, clientID string, file *multipart.FileHeader) (*UploadedMedia, error)
	UploadBytes(ctx context.Context, clientID string, content []byte) (*UploadedMedia, error)
}

type mediaService struct {
	store ObjectStorage
}

func NewMediaService(store ObjectStorage) MediaService {
	return &mediaService{store: store}
}

func (s *mediaService) Upload(ctx context.Context, clientID string, file *multipart.FileHeader) (*UploadedMedia, error) {
	if file.Size > maxUploadBytes {
		return nil, models.NewValidationError("file is larger than %d MB", maxUploadBytes>>20)
	}

	f, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("error opening file: %w", err)
	}
	defer f.Close()

	content, err := io.ReadAll(io.LimitReader(f, maxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("error reading file content: %w", err)
	}
	return s.UploadBytes(ctx, clientID, content)
}

func (s *mediaService) UploadBytes(ctx context.Context, clientID string, content []byte) (*UploadedMedia, error) {
	if clientID == "" {
		return nil, models.NewValidationError("client_id is required")
	}
	if len(content) == 0 {
		return nil, models.NewValidationError("file is empty")
	}
	if len(content) > maxUploadBytes {
		return nil, models.NewValidationError("file is larger than %d MB", maxUploadBytes>>20)
	}

	kind, err := filetype.Match(content)
	if err != nil || kind == types.Unknown {
		return nil, models.NewValidationError("unsupported file type")
	}
	if _, ok := allowedUploadTypes[kind.Extension]; !ok {
		return nil, models.NewValidationError("file type %s is not allowed", kind.Extension)
	}

	id, err := gonanoid.New()
	if err != nil {
		return nil, err
	}
	// the extension lets the publisher tell videos from images by URL
	key := path.Join(clientID, id+"."+kind.Extension)

	url, err := s.store.Put(ctx, key, content, kind.MIME.Value)
	if err != nil {
		return nil, fmt.Errorf("error uploading file: %w", err)
	}

	logging.GetLogger().Info("media uploaded", zap.String("client_id", clientID), zap.String("key", key))
	return &UploadedMedia{Key: key, URL: url, ContentType: kind.MIME.Value}, nil
}

package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/faceapi/backend/internal/db"
	"github.com/faceapi/backend/internal/model"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const listLimit = 100

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidImage = errors.New("invalid image payload")
)

type ImageStore interface {
	CreateImage(ctx context.Context, img *model.Image) (*model.Image, error)
	GetImageByID(ctx context.Context, id string) (*model.Image, error)
	ListImagesForUser(ctx context.Context, userID string, sortDir, limit int) ([]model.Image, error)
}

type FaceDetector interface {
	Detect(data []byte) ([]byte, int, error)
}

type ImageService struct {
	images   ImageStore
	quota    *QuotaService
	detector FaceDetector
	log      *logrus.Logger
	now      func() time.Time
}

func NewImageService(images ImageStore, quota *QuotaService, detector FaceDetector, log *logrus.Logger) *ImageService {
	return &ImageService{
		images:   images,
		quota:    quota,
		detector: detector,
		log:      log,
		now:      time.Now,
	}
}

// DetectFaces runs detection on a base64-encoded image, consumes one unit
// of the user's quota and stores the annotated result with the user as the
// only entry in the access list. Quota consumption and record creation are
// two sequential store operations, not a transaction.
func (s *ImageService) DetectFaces(ctx context.Context, userID, imageBase64 string) (*model.Image, int, error) {
	raw, err := base64.StdEncoding.DecodeString(imageBase64)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	annotated, faces, err := s.detector.Detect(raw)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	if err := s.quota.Consume(ctx, userID); err != nil {
		return nil, 0, err
	}

	now := s.now().Unix()
	image := &model.Image{
		ID:        uuid.NewString(),
		Base64:    base64.StdEncoding.EncodeToString(annotated),
		Access:    []string{userID},
		CreatedAt: now,
		UpdatedAt: now,
	}

	created, err := s.images.CreateImage(ctx, image)
	if err != nil {
		return nil, 0, err
	}

	s.log.Infof("detected %d faces for user %s, image %s", faces, userID, created.ID)
	return created, faces, nil
}

// ListForUser returns images whose access list contains the caller.
// sortDir +1 is newest first (the default), -1 oldest first. An empty
// result is ErrNotFound.
func (s *ImageService) ListForUser(ctx context.Context, userID string, sortDir int) ([]model.Image, error) {
	images, err := s.images.ListImagesForUser(ctx, userID, sortDir, listLimit)
	if err != nil {
		return nil, err
	}
	if len(images) == 0 {
		return nil, ErrNotFound
	}
	return images, nil
}

func (s *ImageService) GetByID(ctx context.Context, id string) (*model.Image, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	image, err := s.images.GetImageByID(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return image, nil
}

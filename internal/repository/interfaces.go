package repository

import (
	"context"

	"go-card-extractor/internal/preprocess"
	"go-card-extractor/pkg/models"
)

// CardImageRepository resolves remote card image references into raw files
// ready for preprocessing.
type CardImageRepository interface {
	// ResolveBatch fetches every URL in order. Any failure fails the batch.
	ResolveBatch(ctx context.Context, urls []string) ([]preprocess.CardFile, error)

	// ValidateImageURL validates if the provided URL is acceptable
	ValidateImageURL(imageURL string) error
}

// SessionRepository stores recent extraction sessions so exports can refer to
// them by ID. Sessions are small and short-lived; implementations may cap and
// evict.
type SessionRepository interface {
	Save(session *models.Session) error
	Get(id string) (*models.Session, error)
}

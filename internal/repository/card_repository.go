package repository

import (
	"context"
	"fmt"
	"path"

	apperrors "go-card-extractor/internal/errors"
	"go-card-extractor/internal/preprocess"
	"go-card-extractor/internal/storage"
	"go-card-extractor/pkg/validation"
)

// FetchingCardRepository resolves card URLs through pluggable fetchers: plain
// HTTP(S) by default, Azure blob storage when configured and the URL points
// at a blob endpoint.
type FetchingCardRepository struct {
	httpFetcher  storage.CardFetcher
	azureFetcher storage.CardFetcher // nil when Azure is not configured
	validator    *validation.CardURLValidator
}

// NewFetchingCardRepository creates a repository over the given fetchers.
// azureFetcher may be nil; allowedHosts empty means any host.
func NewFetchingCardRepository(httpFetcher, azureFetcher storage.CardFetcher, allowedHosts []string) CardImageRepository {
	return &FetchingCardRepository{
		httpFetcher:  httpFetcher,
		azureFetcher: azureFetcher,
		validator:    validation.NewCardURLValidator(allowedHosts),
	}
}

// ResolveBatch fetches every URL in input order. The first failure aborts the
// whole batch; no partial file list is returned.
func (r *FetchingCardRepository) ResolveBatch(ctx context.Context, urls []string) ([]preprocess.CardFile, error) {
	files := make([]preprocess.CardFile, 0, len(urls))
	for i, imageURL := range urls {
		if err := r.ValidateImageURL(imageURL); err != nil {
			return nil, err
		}

		data, mime, err := r.fetcherFor(imageURL).FetchCard(ctx, imageURL)
		if err != nil {
			return nil, apperrors.NewReadError(
				fmt.Sprintf("failed to fetch card image %d", i), err)
		}
		files = append(files, preprocess.CardFile{
			Name:     path.Base(imageURL),
			MimeType: mime,
			Data:     data,
		})
	}
	return files, nil
}

// ValidateImageURL validates if the provided URL is acceptable
func (r *FetchingCardRepository) ValidateImageURL(imageURL string) error {
	return r.validator.Validate(imageURL)
}

func (r *FetchingCardRepository) fetcherFor(imageURL string) storage.CardFetcher {
	if r.azureFetcher != nil && storage.IsAzureBlobURL(imageURL) {
		return r.azureFetcher
	}
	return r.httpFetcher
}

package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	apperrors "go-card-extractor/internal/errors"
	"go-card-extractor/internal/extraction"
	"go-card-extractor/internal/inference"
	"go-card-extractor/internal/logger"
	"go-card-extractor/internal/preprocess"
	"go-card-extractor/internal/repository"
	"go-card-extractor/pkg/models"
)

// ExtractOptions tunes one extraction run.
type ExtractOptions struct {
	// Dedupe merges records with near-identical names after normalization.
	// Off by default so the output order equals the model's emission order.
	Dedupe bool
}

// ExtractionService runs one whole extraction: preprocess every card image,
// make a single inference call, normalize the reply into contact records, and
// hand back an immutable session. All-or-nothing: any failure aborts the run
// with no partial results.
type ExtractionService interface {
	ExtractFromFiles(ctx context.Context, files []preprocess.CardFile, opts ExtractOptions) (*models.Session, error)
	ExtractFromURLs(ctx context.Context, urls []string, opts ExtractOptions) (*models.Session, error)
	Session(id string) (*models.Session, error)
}

type extractionService struct {
	preprocessor preprocess.Preprocessor
	client       inference.Client
	cards        repository.CardImageRepository
	sessions     repository.SessionRepository
}

// NewExtractionService wires the service from explicit dependencies. The
// inference client carries the credential, so a missing key is testable by
// substituting the client rather than by mutating the environment.
func NewExtractionService(
	preprocessor preprocess.Preprocessor,
	client inference.Client,
	cards repository.CardImageRepository,
	sessions repository.SessionRepository,
) ExtractionService {
	return &extractionService{
		preprocessor: preprocessor,
		client:       client,
		cards:        cards,
		sessions:     sessions,
	}
}

// ExtractFromFiles runs an extraction over already-loaded card files.
func (s *extractionService) ExtractFromFiles(ctx context.Context, files []preprocess.CardFile, opts ExtractOptions) (*models.Session, error) {
	start := time.Now()

	// Credential precondition comes before any other work
	if !s.client.Configured() {
		return nil, apperrors.NewConfigurationError("vision API credential is not configured", nil)
	}

	// Empty batch short-circuits with no network activity
	if len(files) == 0 {
		return s.finishSession(start, 0, opts, nil)
	}

	payloads, err := s.preprocessor.PreprocessBatch(ctx, files)
	if err != nil {
		return nil, err
	}

	requestID := uuid.New().String()
	images := make([]inference.ImagePayload, len(payloads))
	for i, p := range payloads {
		images[i] = inference.ImagePayload{Data: p.Data, MimeType: p.MimeType}
	}

	result, err := s.client.Extract(ctx, &inference.VisionRequest{
		Instruction: extraction.Instruction,
		Images:      images,
		SchemaName:  models.ContactSchemaName,
		Schema:      []byte(models.ContactSchemaJSON),
		RequestID:   requestID,
	})
	if err != nil {
		logger.WithError(err).WithFields(logrus.Fields{
			"request_id": requestID,
			"images":     len(files),
		}).Error("Vision extraction failed")
		return nil, err
	}

	contacts, err := models.ParseContacts([]byte(result.Content))
	if err != nil {
		logger.WithError(err).WithField("request_id", requestID).
			Error("Model reply violated the structured-output contract")
		return nil, err
	}

	session, err := s.finishSession(start, len(files), opts, contacts)
	if err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"session_id":         session.ID,
		"request_id":         requestID,
		"images":             session.ImageCount,
		"contacts":           len(session.Contacts),
		"model_used":         result.ModelUsed,
		"total_tokens":       result.TotalTokens,
		"processing_time_ms": time.Since(start).Milliseconds(),
	}).Info("Extraction run completed")

	return session, nil
}

// ExtractFromURLs resolves remote card images first, then extracts.
func (s *extractionService) ExtractFromURLs(ctx context.Context, urls []string, opts ExtractOptions) (*models.Session, error) {
	if !s.client.Configured() {
		return nil, apperrors.NewConfigurationError("vision API credential is not configured", nil)
	}
	if len(urls) == 0 {
		return s.finishSession(time.Now(), 0, opts, nil)
	}

	files, err := s.cards.ResolveBatch(ctx, urls)
	if err != nil {
		return nil, err
	}
	return s.ExtractFromFiles(ctx, files, opts)
}

// Session returns a stored session by ID.
func (s *extractionService) Session(id string) (*models.Session, error) {
	session, err := s.sessions.Get(id)
	if err != nil {
		return nil, apperrors.NewNotFoundError("extraction session not found", err)
	}
	return session, nil
}

// finishSession builds, stores, and returns the immutable run result.
func (s *extractionService) finishSession(start time.Time, imageCount int, opts ExtractOptions, contacts []models.ContactInfo) (*models.Session, error) {
	if opts.Dedupe && len(contacts) > 1 {
		contacts = extraction.MergeDuplicates(contacts, extraction.DefaultNameDistance)
	}
	if contacts == nil {
		contacts = []models.ContactInfo{}
	}

	session := &models.Session{
		ID:                uuid.New().String(),
		CreatedAt:         time.Now().UTC(),
		ImageCount:        imageCount,
		Deduped:           opts.Dedupe,
		ProcessingTimeSec: time.Since(start).Seconds(),
		Contacts:          contacts,
	}
	if err := s.sessions.Save(session); err != nil {
		return nil, apperrors.NewInternalError("failed to store extraction session", err)
	}
	return session, nil
}

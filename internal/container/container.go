package container

import (
	"net/http"

	"go-card-extractor/internal/config"
	"go-card-extractor/internal/inference"
	"go-card-extractor/internal/preprocess"
	"go-card-extractor/internal/repository"
	"go-card-extractor/internal/service"
	"go-card-extractor/internal/storage"
	"go-card-extractor/internal/transport"
)

// Container holds all application dependencies
type Container struct {
	config            *config.Config
	cardFetcher       storage.CardFetcher
	blobFetcher       storage.CardFetcher
	preprocessor      preprocess.Preprocessor
	visionClient      inference.Client
	cardRepository    repository.CardImageRepository
	sessionRepository repository.SessionRepository
	extractionService service.ExtractionService
	handler           http.Handler
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *config.Config) (*Container, error) {
	// Build dependency graph
	cardFetcher := storage.NewHTTPCardFetcher(cfg.ImageFetchTimeout)

	var blobFetcher storage.CardFetcher
	if cfg.AzureConfigured() {
		af, err := storage.NewAzureCardFetcher(cfg.AzureStorageAccount, cfg.AzureStorageKey)
		if err != nil {
			return nil, err
		}
		blobFetcher = af
	}

	preprocessor := preprocess.NewCardPreprocessor()
	visionClient := inference.NewOpenAIClient(inference.ClientConfig{
		BaseURL: cfg.VisionBaseURL,
		APIKey:  cfg.VisionAPIKey,
		Model:   cfg.VisionModel,
	})

	cardRepository := repository.NewFetchingCardRepository(cardFetcher, blobFetcher, cfg.AllowedImageHosts)
	sessionRepository := repository.NewInMemorySessionRepository()
	extractionService := service.NewExtractionService(preprocessor, visionClient, cardRepository, sessionRepository)
	handler := transport.NewHandler(extractionService, cfg)

	return &Container{
		config:            cfg,
		cardFetcher:       cardFetcher,
		blobFetcher:       blobFetcher,
		preprocessor:      preprocessor,
		visionClient:      visionClient,
		cardRepository:    cardRepository,
		sessionRepository: sessionRepository,
		extractionService: extractionService,
		handler:           handler,
	}, nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

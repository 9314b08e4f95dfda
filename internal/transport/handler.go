package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"go-card-extractor/internal/config"
	apperrors "go-card-extractor/internal/errors"
	"go-card-extractor/internal/extraction"
	"go-card-extractor/internal/logger"
	"go-card-extractor/internal/preprocess"
	"go-card-extractor/internal/service"
	"go-card-extractor/pkg/models"
)

// multipartField is the form field carrying the card images.
const multipartField = "images"

func NewHandler(svc service.ExtractionService, cfg *config.Config) http.Handler {
	r := gin.Default()

	// Add middleware
	r.Use(
		requestSizeLimiter(cfg.MaxRequestBodySize),
		errorHandler(),
	)

	// Configure routes
	r.GET("/health", healthCheck)
	r.POST("/extract", extractFromUpload(svc, cfg))
	r.POST("/extract/urls", extractFromURLs(svc, cfg))
	r.GET("/sessions/:id/export/csv", exportCSV(svc))
	r.GET("/sessions/:id/export/clipboard", exportClipboard(svc))

	return r
}

// extractFromUpload handles multipart card uploads.
func extractFromUpload(svc service.ExtractionService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		form, err := c.MultipartForm()
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid multipart form", err)
			return
		}
		uploads := form.File[multipartField]
		if len(uploads) > cfg.MaxBatchSize {
			respondError(c, http.StatusBadRequest, "too many images",
				apperrors.NewValidationError(
					fmt.Sprintf("batch of %d exceeds limit %d", len(uploads), cfg.MaxBatchSize), nil))
			return
		}

		files, err := readUploads(uploads)
		if err != nil {
			respondError(c, apperrors.GetStatusCode(err), "failed to read uploaded image", err)
			return
		}

		runExtraction(c, ctx, svc, cfg, files, startTime)
	}
}

// extractFromURLs handles extraction of card images referenced by URL.
func extractFromURLs(svc service.ExtractionService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		var req models.URLExtractionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "invalid request format", err)
			return
		}
		if len(req.URLs) > cfg.MaxBatchSize {
			respondError(c, http.StatusBadRequest, "too many images",
				apperrors.NewValidationError(
					fmt.Sprintf("batch of %d exceeds limit %d", len(req.URLs), cfg.MaxBatchSize), nil))
			return
		}

		// Extraction runs under its own, tighter deadline
		extractCtx, cancelExtract := context.WithTimeout(ctx, cfg.ExtractionTimeout)
		defer cancelExtract()

		opts := service.ExtractOptions{Dedupe: c.Query("dedupe") == "true"}
		session, err := svc.ExtractFromURLs(extractCtx, req.URLs, opts)
		if err != nil {
			respondExtractionError(c, err, startTime)
			return
		}
		logCompleted(c, session, startTime)
		c.JSON(http.StatusOK, session)
	}
}

func runExtraction(c *gin.Context, ctx context.Context, svc service.ExtractionService, cfg *config.Config, files []preprocess.CardFile, startTime time.Time) {
	logger.WithFields(logrus.Fields{
		"method": c.Request.Method,
		"path":   c.Request.URL.Path,
		"images": len(files),
		"ip":     c.ClientIP(),
	}).Info("Processing card extraction request")

	// Extraction runs under its own, tighter deadline
	extractCtx, cancelExtract := context.WithTimeout(ctx, cfg.ExtractionTimeout)
	defer cancelExtract()

	opts := service.ExtractOptions{Dedupe: c.Query("dedupe") == "true"}
	session, err := svc.ExtractFromFiles(extractCtx, files, opts)
	if err != nil {
		respondExtractionError(c, err, startTime)
		return
	}
	logCompleted(c, session, startTime)
	c.JSON(http.StatusOK, session)
}

func exportCSV(svc service.ExtractionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := svc.Session(c.Param("id"))
		if err != nil {
			respondError(c, apperrors.GetStatusCode(err), "session not found", err)
			return
		}

		c.Header("Content-Type", "text/csv; charset=utf-8")
		c.Header("Content-Disposition",
			fmt.Sprintf("attachment; filename=contacts-%s.csv", session.ID))
		c.Status(http.StatusOK)
		if err := extraction.WriteCSV(c.Writer, session.Contacts); err != nil {
			logger.WithError(err).WithField("session_id", session.ID).
				Error("Failed to stream CSV export")
		}
	}
}

func exportClipboard(svc service.ExtractionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := svc.Session(c.Param("id"))
		if err != nil {
			respondError(c, apperrors.GetStatusCode(err), "session not found", err)
			return
		}
		c.String(http.StatusOK, extraction.ClipboardTextAll(session.Contacts))
	}
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "available",
		"version": "1.0.0",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// readUploads loads every multipart file into memory as a CardFile.
func readUploads(uploads []*multipart.FileHeader) ([]preprocess.CardFile, error) {
	files := make([]preprocess.CardFile, 0, len(uploads))
	for _, upload := range uploads {
		f, err := upload.Open()
		if err != nil {
			return nil, apperrors.NewReadError(
				fmt.Sprintf("failed to open uploaded file %q", upload.Filename), err)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, apperrors.NewReadError(
				fmt.Sprintf("failed to read uploaded file %q", upload.Filename), err)
		}

		files = append(files, preprocess.CardFile{
			Name:     upload.Filename,
			MimeType: upload.Header.Get("Content-Type"),
			Data:     data,
		})
	}
	return files, nil
}

func respondExtractionError(c *gin.Context, err error, startTime time.Time) {
	statusCode := apperrors.GetStatusCode(err)
	if errors.Is(err, context.DeadlineExceeded) {
		statusCode = http.StatusGatewayTimeout
	}
	logger.WithError(err).WithFields(logrus.Fields{
		"path":               c.Request.URL.Path,
		"ip":                 c.ClientIP(),
		"processing_time_ms": time.Since(startTime).Milliseconds(),
	}).Error("Card extraction failed")
	respondError(c, statusCode, "card extraction failed", err)
}

func logCompleted(c *gin.Context, session *models.Session, startTime time.Time) {
	logger.WithFields(logrus.Fields{
		"session_id":         session.ID,
		"images":             session.ImageCount,
		"contacts":           len(session.Contacts),
		"processing_time_ms": time.Since(startTime).Milliseconds(),
	}).Info("Card extraction completed successfully")
}

// Middleware and helper functions
func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func errorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			err := c.Errors.Last()
			respondError(c, determineStatusCode(err), "request processing failed", err)
		}
	}
}

func determineStatusCode(err error) int {
	// Check if it's a custom app error first
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, code int, message string, err error) {
	logger.WithError(err).WithFields(logrus.Fields{
		"status_code": code,
		"message":     message,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	}).Error("Request failed")

	c.AbortWithStatusJSON(code, models.ErrorResponse{
		Error:   http.StatusText(code),
		Message: fmt.Sprintf("%s: %v", message, err),
	})
}

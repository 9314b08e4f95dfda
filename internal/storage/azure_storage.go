package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
)

// AzureCardFetcher implements CardFetcher against Azure blob storage, for
// deployments that stage card uploads in a container first.
type AzureCardFetcher struct {
	client *azblob.Client
}

// NewAzureCardFetcher creates a blob-backed fetcher with shared-key auth
func NewAzureCardFetcher(accountName, accountKey string) (*AzureCardFetcher, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, err
	}

	client, err := azblob.NewClientWithSharedKeyCredential(
		fmt.Sprintf("https://%s.blob.core.windows.net", accountName),
		credential,
		nil,
	)
	if err != nil {
		return nil, err
	}

	return &AzureCardFetcher{client: client}, nil
}

// FetchCard downloads a blob given its https URL; the path is
// /container/blob... on the account's blob endpoint.
func (s *AzureCardFetcher) FetchCard(ctx context.Context, blobURL string) ([]byte, string, error) {
	parsedURL, err := url.Parse(blobURL)
	if err != nil {
		return nil, "", fmt.Errorf("invalid blob URL: %w", err)
	}

	containerName, blobName, err := splitBlobPath(parsedURL.Path)
	if err != nil {
		return nil, "", err
	}

	downloadResponse, err := s.client.DownloadStream(ctx, containerName, blobName, nil)
	if err != nil {
		return nil, "", fmt.Errorf("blob download failed: %w", err)
	}

	retryReader := downloadResponse.Body
	defer retryReader.Close()

	data, err := io.ReadAll(retryReader)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read blob body: %w", err)
	}

	mime := ""
	if downloadResponse.ContentType != nil {
		mime = *downloadResponse.ContentType
	}
	if mime == "" {
		mime = http.DetectContentType(data)
	}
	return data, mime, nil
}

// IsAzureBlobURL reports whether a URL points at an Azure blob endpoint.
func IsAzureBlobURL(imageURL string) bool {
	parsedURL, err := url.Parse(imageURL)
	if err != nil {
		return false
	}
	return strings.HasSuffix(parsedURL.Host, ".blob.core.windows.net")
}

func splitBlobPath(path string) (container, blob string, err error) {
	trimmed := strings.TrimPrefix(path, "/")
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("blob URL path must be /container/blob, got %q", path)
	}
	return parts[0], parts[1], nil
}

package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	apperrors "go-card-extractor/internal/errors"
	"go-card-extractor/internal/inference"
	"go-card-extractor/internal/preprocess"
	"go-card-extractor/internal/repository"
)

func newTestService(t *testing.T, client inference.Client) ExtractionService {
	t.Helper()
	return NewExtractionService(
		preprocess.NewCardPreprocessor(),
		client,
		NewFakeCardRepository(),
		repository.NewInMemorySessionRepository(),
	)
}

// FakeCardRepository avoids network in service tests.
type FakeCardRepository struct{}

func NewFakeCardRepository() *FakeCardRepository { return &FakeCardRepository{} }

func (f *FakeCardRepository) ResolveBatch(ctx context.Context, urls []string) ([]preprocess.CardFile, error) {
	files := make([]preprocess.CardFile, len(urls))
	for i, u := range urls {
		files[i] = preprocess.CardFile{Name: u, Data: cardImageBytes(nil, 30, 20)}
	}
	return files, nil
}

func (f *FakeCardRepository) ValidateImageURL(imageURL string) error { return nil }

func cardImageBytes(t *testing.T, width, height int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{uint8(40 + 3*x), uint8(40 + 3*y), 120, 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		if t != nil {
			t.Fatalf("failed to encode test PNG: %v", err)
		}
		panic(err)
	}
	return buf.Bytes()
}

func twoCardFiles(t *testing.T) []preprocess.CardFile {
	return []preprocess.CardFile{
		{Name: "front.png", Data: cardImageBytes(t, 40, 24)},
		{Name: "back.png", Data: cardImageBytes(t, 40, 24)},
	}
}

func TestExtractFromFiles_EndToEnd(t *testing.T) {
	mock := inference.NewMockClient(`[{"name":"Jane Doe","email":["jane@x.com"],"phoneNumber":[]}]`)
	svc := newTestService(t, mock)

	session, err := svc.ExtractFromFiles(context.Background(), twoCardFiles(t), ExtractOptions{})
	if err != nil {
		t.Fatalf("ExtractFromFiles failed: %v", err)
	}

	if mock.CallCount() != 1 {
		t.Errorf("expected exactly one inference call, got %d", mock.CallCount())
	}
	if session.ImageCount != 2 {
		t.Errorf("expected image count 2, got %d", session.ImageCount)
	}
	if len(session.Contacts) != 1 {
		t.Fatalf("expected 1 contact, got %d", len(session.Contacts))
	}

	c := session.Contacts[0]
	if c.Name != "Jane Doe" {
		t.Errorf("expected name Jane Doe, got %q", c.Name)
	}
	if len(c.Email) != 1 || c.Email[0] != "jane@x.com" {
		t.Errorf("expected one email, got %v", c.Email)
	}
	if c.PhoneNumber != nil {
		t.Errorf("expected empty phone list coerced to absent, got %v", c.PhoneNumber)
	}
	if c.CompanyName != nil || c.JobTitle != nil || c.Address != nil || c.Website != nil ||
		c.LinkedinURL != nil || c.LineID != nil || c.QRCodeURL != nil || c.OtherInfo != nil {
		t.Error("expected all other optional fields absent")
	}

	// Both preprocessed images went out with the fixed mime type
	req := mock.LastCall()
	if len(req.Images) != 2 {
		t.Fatalf("expected 2 image payloads, got %d", len(req.Images))
	}
	for i, img := range req.Images {
		if img.MimeType != preprocess.OutputMimeType {
			t.Errorf("payload %d: expected %s, got %s", i, preprocess.OutputMimeType, img.MimeType)
		}
	}
	if req.Instruction == "" || len(req.Schema) == 0 {
		t.Error("expected instruction and schema attached to the request")
	}
}

func TestExtractFromFiles_EmptyBatchShortCircuit(t *testing.T) {
	mock := inference.NewMockClient(`[]`)
	svc := newTestService(t, mock)

	session, err := svc.ExtractFromFiles(context.Background(), nil, ExtractOptions{})
	if err != nil {
		t.Fatalf("ExtractFromFiles failed: %v", err)
	}
	if len(session.Contacts) != 0 {
		t.Errorf("expected empty contact list, got %d", len(session.Contacts))
	}
	if mock.CallCount() != 0 {
		t.Errorf("expected zero inference calls, got %d", mock.CallCount())
	}
}

func TestExtractFromFiles_MissingCredential(t *testing.T) {
	mock := inference.NewMockClient(`[]`)
	mock.ConfiguredValue = false
	svc := newTestService(t, mock)

	_, err := svc.ExtractFromFiles(context.Background(), twoCardFiles(t), ExtractOptions{})
	if err == nil {
		t.Fatal("expected configuration error")
	}
	if !apperrors.IsType(err, apperrors.ErrorTypeConfiguration) {
		t.Errorf("expected configuration error, got %v", err)
	}
	if mock.CallCount() != 0 {
		t.Errorf("expected zero inference calls, got %d", mock.CallCount())
	}
}

func TestExtractFromFiles_PreprocessFailureAborts(t *testing.T) {
	mock := inference.NewMockClient(`[]`)
	svc := newTestService(t, mock)

	files := []preprocess.CardFile{
		{Name: "good.png", Data: cardImageBytes(t, 20, 20)},
		{Name: "bad.bin", Data: []byte("not an image")},
	}

	_, err := svc.ExtractFromFiles(context.Background(), files, ExtractOptions{})
	if err == nil {
		t.Fatal("expected extraction to fail on a corrupt file")
	}
	if !apperrors.IsType(err, apperrors.ErrorTypeDecode) {
		t.Errorf("expected decode error, got %v", err)
	}
	if mock.CallCount() != 0 {
		t.Errorf("no inference call should be made after preprocess failure, got %d", mock.CallCount())
	}
}

func TestExtractFromFiles_BadModelReply(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"object not array", `{"name":"Jane"}`},
		{"malformed JSON", `][ nope`},
		{"nameless record", `[{"companyName":"Acme"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(t, inference.NewMockClient(tt.content))

			_, err := svc.ExtractFromFiles(context.Background(), twoCardFiles(t), ExtractOptions{})
			if err == nil {
				t.Fatal("expected response format error")
			}
			if !apperrors.IsType(err, apperrors.ErrorTypeResponseFormat) {
				t.Errorf("expected response_format error, got %v", err)
			}
		})
	}
}

func TestExtractFromFiles_OrderPreserved(t *testing.T) {
	mock := inference.NewMockClient(`[{"name":"First"},{"name":"Second"},{"name":"Third"}]`)
	svc := newTestService(t, mock)

	session, err := svc.ExtractFromFiles(context.Background(), twoCardFiles(t), ExtractOptions{})
	if err != nil {
		t.Fatalf("ExtractFromFiles failed: %v", err)
	}

	want := []string{"First", "Second", "Third"}
	for i, name := range want {
		if session.Contacts[i].Name != name {
			t.Errorf("position %d: expected %q, got %q", i, name, session.Contacts[i].Name)
		}
	}
}

func TestExtractFromFiles_DedupeOption(t *testing.T) {
	mock := inference.NewMockClient(`[{"name":"Jane Doe","email":["a@x.com"]},{"name":"Jane Doe","email":["b@x.com"]}]`)
	svc := newTestService(t, mock)

	session, err := svc.ExtractFromFiles(context.Background(), twoCardFiles(t), ExtractOptions{Dedupe: true})
	if err != nil {
		t.Fatalf("ExtractFromFiles failed: %v", err)
	}
	if len(session.Contacts) != 1 {
		t.Fatalf("expected merged contact, got %d", len(session.Contacts))
	}
	if len(session.Contacts[0].Email) != 2 {
		t.Errorf("expected email union, got %v", session.Contacts[0].Email)
	}
	if !session.Deduped {
		t.Error("expected session to record dedupe")
	}
}

func TestExtractFromURLs(t *testing.T) {
	mock := inference.NewMockClient(`[{"name":"Jane Doe"}]`)
	svc := newTestService(t, mock)

	session, err := svc.ExtractFromURLs(context.Background(),
		[]string{"https://example.com/a.png", "https://example.com/b.png"}, ExtractOptions{})
	if err != nil {
		t.Fatalf("ExtractFromURLs failed: %v", err)
	}
	if session.ImageCount != 2 {
		t.Errorf("expected image count 2, got %d", session.ImageCount)
	}
	if mock.CallCount() != 1 {
		t.Errorf("expected one inference call, got %d", mock.CallCount())
	}
}

func TestSession_Lookup(t *testing.T) {
	mock := inference.NewMockClient(`[{"name":"Jane Doe"}]`)
	svc := newTestService(t, mock)

	created, err := svc.ExtractFromFiles(context.Background(), twoCardFiles(t), ExtractOptions{})
	if err != nil {
		t.Fatalf("ExtractFromFiles failed: %v", err)
	}

	got, err := svc.Session(created.ID)
	if err != nil {
		t.Fatalf("Session lookup failed: %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("expected session %s, got %s", created.ID, got.ID)
	}

	if _, err := svc.Session("missing"); !apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
		t.Errorf("expected not_found error, got %v", err)
	}
}

package documents

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/secondopinion/companion/internal/domain/records"
	"github.com/secondopinion/companion/internal/platform/blobstore"
	"github.com/secondopinion/companion/internal/platform/llm"
)

var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrMissingFileName  = errors.New("file name is required")
)

// StoredDocumentType is the top-level type recorded for every upload; the
// classified type lives in the analysis.
const StoredDocumentType = "medical_document"

const analysisPromptFormat = `This is a %s for an elderly patient named %s. 
Please analyze and extract:
1. Key medical conditions mentioned
2. Current medications
3. Lab results and their significance for elderly patients
4. Any health risks or alerts
5. Recommendations for the elderly patient

Provide a clear, actionable analysis.`

// Completer answers a user message given a patient context.
type Completer interface {
	Complete(ctx context.Context, patientContext, userMessage string) llm.Result
}

// Upload describes one incoming file.
type Upload struct {
	FileName    string
	ContentType string
	Content     io.Reader
}

// Service stores uploaded documents and attaches a model-generated analysis.
type Service struct {
	store     records.Store
	blobs     blobstore.BlobStore
	ai        Completer
	extractor ConditionExtractor
	newID     records.IDGenerator
	logger    zerolog.Logger
	now       func() time.Time
}

// NewService creates a new documents service. A nil extractor selects the
// default keyword extractor.
func NewService(store records.Store, blobs blobstore.BlobStore, ai Completer, extractor ConditionExtractor, logger zerolog.Logger) *Service {
	if extractor == nil {
		extractor = NewKeywordExtractor()
	}
	return &Service{
		store:     store,
		blobs:     blobs,
		ai:        ai,
		extractor: extractor,
		newID:     records.NewID,
		logger:    logger,
		now:       time.Now,
	}
}

// Upload stores the file, analyses it, and appends the document record.
func (s *Service) Upload(ctx context.Context, userID string, up Upload) (*records.MedicalDocument, error) {
	if up.FileName == "" {
		return nil, ErrMissingFileName
	}

	blob, err := s.blobs.Put(ctx, blobstore.BlobMetadata{
		OwnerID:     userID,
		FileName:    up.FileName,
		ContentType: up.ContentType,
	}, up.Content)
	if err != nil {
		return nil, fmt.Errorf("store upload: %w", err)
	}

	docType := ClassifyDocumentType(up.FileName)
	res := s.ai.Complete(ctx,
		fmt.Sprintf("Analyzing %s: %s for elderly patient", docType, up.FileName),
		fmt.Sprintf(analysisPromptFormat, docType, userID),
	)
	if res.Degraded() {
		s.logger.Warn().Err(res.Err).Str("user_id", userID).Str("file_name", up.FileName).
			Str("ai_status", res.Outcome.String()).Msg("document analysis degraded")
	}

	conditions := s.extractor.Extract(res.Reply())
	doc := records.MedicalDocument{
		DocumentID:   s.newID("doc"),
		UserID:       userID,
		DocumentType: StoredDocumentType,
		FileName:     up.FileName,
		BlobID:       blob.ID,
		UploadedAt:   s.now().UTC(),
		Analysis: records.DocumentAnalysis{
			Status:              "analyzed",
			DocumentType:        docType,
			Summary:             res.Reply(),
			ExtractedConditions: conditions,
			KeyFindings:         KeyFindings(conditions),
		},
	}

	if err := s.store.AppendDocument(ctx, userID, doc); err != nil {
		if derr := s.blobs.Delete(ctx, blob.ID); derr != nil {
			s.logger.Error().Err(derr).Str("blob_id", blob.ID).Msg("orphaned document blob")
		}
		return nil, fmt.Errorf("append document: %w", err)
	}

	s.logger.Info().Str("user_id", userID).Str("document_id", doc.DocumentID).
		Int("conditions", len(conditions)).Msg("document analyzed")
	return &doc, nil
}

// KeyFindings summarises an analysis for display.
func KeyFindings(conditions []string) []string {
	return []string{
		"Document received and analyzed",
		fmt.Sprintf("Identified %d condition(s)", len(conditions)),
		"Ready for integration with health profile",
	}
}

// List returns the user's documents in upload order.
func (s *Service) List(ctx context.Context, userID string) ([]records.MedicalDocument, error) {
	docs, err := s.store.Documents(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

// Get returns one of the user's documents.
func (s *Service) Get(ctx context.Context, userID, documentID string) (*records.MedicalDocument, error) {
	docs, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range docs {
		if docs[i].DocumentID == documentID {
			return &docs[i], nil
		}
	}
	return nil, ErrDocumentNotFound
}

// Open returns the original bytes of one of the user's documents.
func (s *Service) Open(ctx context.Context, userID, documentID string) (io.ReadCloser, *blobstore.BlobMetadata, error) {
	doc, err := s.Get(ctx, userID, documentID)
	if err != nil {
		return nil, nil, err
	}
	if doc.BlobID == "" {
		return nil, nil, ErrDocumentNotFound
	}
	rc, meta, err := s.blobs.Open(ctx, doc.BlobID)
	if errors.Is(err, blobstore.ErrBlobNotFound) {
		return nil, nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("open document: %w", err)
	}
	return rc, meta, nil
}

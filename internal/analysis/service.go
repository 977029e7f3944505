package analysis

import (
	"context"
	"fmt"

	"github.com/oeonyangoemma-bot/agrivision/internal/blob"
	"github.com/oeonyangoemma-bot/agrivision/internal/domain"
	"github.com/oeonyangoemma-bot/agrivision/internal/store"
)

// Service runs the full analysis pipeline: validate, invoke the model, and
// for identified users persist the record alongside the uploaded image.
type Service struct {
	invoker  *Invoker
	repo     store.Repository
	blobs    blob.Store
	maxBytes int64
}

// NewService wires the pipeline dependencies.
func NewService(invoker *Invoker, repo store.Repository, blobs blob.Store, maxBytes int64) *Service {
	return &Service{invoker: invoker, repo: repo, blobs: blobs, maxBytes: maxBytes}
}

// SubmitInput is the caller-supplied form data for one analysis.
type SubmitInput struct {
	MediaDataURI      string `json:"mediaDataUri"`
	AdditionalDetails string `json:"additionalDetails,omitempty"`
}

// Perform validates the submission and runs the pipeline.
//
// Anonymous submitters get an ephemeral result: no identifier, no timestamp,
// nothing written to storage, the inline data URI echoed back as the image
// reference. Identified submitters get a persisted, immutable record; the
// model call and the image upload run concurrently since they are
// independent, and the pipeline waits on both before constructing it.
// Resubmitting an identical request always produces a new record.
func (s *Service) Perform(ctx context.Context, userID string, in SubmitInput) (*domain.Analysis, error) {
	if errs := ValidateSubmission(in.MediaDataURI, s.maxBytes); len(errs) > 0 {
		return nil, errs
	}

	if domain.IsAnonymous(userID) {
		out, err := s.invoker.Analyze(ctx, AnalyzeInput{
			MediaDataURI:      in.MediaDataURI,
			AdditionalDetails: in.AdditionalDetails,
		})
		if err != nil {
			return nil, err
		}
		return &domain.Analysis{
			UserID:            domain.AnonymousUserID,
			ImageDataURI:      in.MediaDataURI,
			AdditionalDetails: in.AdditionalDetails,
			AnalysisResult:    out.AnalysisResult,
			ConfidenceLevel:   out.ConfidenceLevel,
			SuggestedActions:  out.SuggestedActions,
		}, nil
	}

	mediaType, data, err := DecodeDataURI(in.MediaDataURI)
	if err != nil {
		return nil, domain.FieldErrors{"mediaDataUri": "malformed image data URI"}
	}

	type uploadResult struct {
		url string
		err error
	}
	uploadCh := make(chan uploadResult, 1)
	go func() {
		url, err := s.blobs.Put(ctx, mediaType, data)
		uploadCh <- uploadResult{url: url, err: err}
	}()

	out, analyzeErr := s.invoker.Analyze(ctx, AnalyzeInput{
		MediaDataURI:      in.MediaDataURI,
		AdditionalDetails: in.AdditionalDetails,
	})
	upload := <-uploadCh

	if analyzeErr != nil {
		return nil, analyzeErr
	}
	if upload.err != nil {
		return nil, fmt.Errorf("store image: %w (%v)", domain.ErrStorage, upload.err)
	}

	record := &domain.Analysis{
		UserID:            userID,
		ImageURL:          upload.url,
		AdditionalDetails: in.AdditionalDetails,
		AnalysisResult:    out.AnalysisResult,
		ConfidenceLevel:   out.ConfidenceLevel,
		SuggestedActions:  out.SuggestedActions,
	}
	if err := s.repo.SaveAnalysis(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

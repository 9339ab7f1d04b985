package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/five82/reportwatch/internal/history"
	"github.com/five82/reportwatch/internal/reports"
)

// Submitter is the part of the API client Submit needs.
type Submitter interface {
	SubmitJob(ctx context.Context, req reports.SubmitRequest) (*reports.Job, error)
}

// Submit queues a job and records it in history. A history failure is
// logged, not returned: the job already exists on the backend.
func Submit(ctx context.Context, s Submitter, rec Recorder, logger *zap.Logger, req reports.SubmitRequest) (*reports.Job, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	job, err := s.SubmitJob(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("submit job: %w", err)
	}
	logger.Info("job submitted",
		zap.String("job_id", job.ID),
		zap.String("template_id", req.TemplateID),
		zap.String("status", string(job.Status)))

	if rec != nil {
		entry := history.Entry{
			JobID:      job.ID,
			TemplateID: req.TemplateID,
			Status:     string(job.Status.Normalize()),
			Submitted:  true,
		}
		if err := rec.Record(ctx, entry); err != nil {
			logger.Warn("record history failed", zap.String("job_id", job.ID), zap.Error(err))
		}
	}
	return job, nil
}

package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/slidecast/slide-extraction-service/internal/domain/entity"
	"github.com/slidecast/slide-extraction-service/internal/domain/port"
	"github.com/slidecast/slide-extraction-service/internal/extraction"
	"github.com/slidecast/slide-extraction-service/internal/infra/metrics"
)

type ExtractSlidesUseCase struct {
	repo      port.JobRepository
	storage   port.VideoStorage
	opener    port.VideoOpener
	detector  port.RegionDetector // optional
	ocr       port.TextExtractor  // optional
	bundler   port.ResultBundler
	publisher port.StatusPublisher
	dlq       port.DLQPublisher
	notifier  port.FailureNotifier
	logger    *zap.Logger
	tempDir   string
	maxRetry  int
	extCfg    extraction.Config
}

type ExtractSlidesConfig struct {
	TempDir    string
	MaxRetries int
	Extraction extraction.Config
}

func NewExtractSlidesUseCase(
	repo port.JobRepository,
	storage port.VideoStorage,
	opener port.VideoOpener,
	detector port.RegionDetector,
	ocr port.TextExtractor,
	bundler port.ResultBundler,
	publisher port.StatusPublisher,
	dlq port.DLQPublisher,
	notifier port.FailureNotifier,
	logger *zap.Logger,
	cfg ExtractSlidesConfig,
) *ExtractSlidesUseCase {
	return &ExtractSlidesUseCase{
		repo:      repo,
		storage:   storage,
		opener:    opener,
		detector:  detector,
		ocr:       ocr,
		bundler:   bundler,
		publisher: publisher,
		dlq:       dlq,
		notifier:  notifier,
		logger:    logger,
		tempDir:   cfg.TempDir,
		maxRetry:  cfg.MaxRetries,
		extCfg:    cfg.Extraction,
	}
}

func (uc *ExtractSlidesUseCase) Execute(ctx context.Context, rawMsg []byte) error {
	tracer := otel.Tracer("usecase")
	ctx, span := tracer.Start(ctx, "ExtractSlidesUseCase.Execute")
	defer span.End()

	totalTimer := time.Now()

	var msg entity.SlideExtractionMessage
	if err := json.Unmarshal(rawMsg, &msg); err != nil {
		uc.logger.Error("failed to unmarshal message", zap.Error(err), zap.ByteString("body", rawMsg))
		_ = uc.dlq.PublishToDLQ(ctx, rawMsg, "unmarshal_error: "+err.Error())
		return nil
	}

	span.SetAttributes(
		attribute.String("job.id", msg.JobID.String()),
		attribute.String("job.video_key", msg.VideoKey),
	)

	log := uc.logger.With(zap.String("job_id", msg.JobID.String()), zap.String("video_key", msg.VideoKey))

	job, err := uc.repo.FindByID(ctx, msg.JobID)
	if err != nil {
		job = entity.NewJob(msg.UserID, msg.VideoKey, msg.FileSize, uc.maxRetry)
		job.ID = msg.JobID
		if err := uc.repo.Create(ctx, job); err != nil {
			log.Error("failed to create job record", zap.Error(err))
			return fmt.Errorf("create job: %w", err)
		}
	}

	if !job.CanRetry() {
		log.Warn("job exhausted retries, sending to DLQ")
		_ = uc.handlePermanentFailure(ctx, job, msg, rawMsg, "max retries exceeded")
		return nil
	}

	job.MarkProcessing()
	if err := uc.repo.Update(ctx, job); err != nil {
		log.Error("failed to update job to PROCESSING", zap.Error(err))
		return fmt.Errorf("update job: %w", err)
	}

	metrics.ActiveWorkers.Inc()
	defer metrics.ActiveWorkers.Dec()

	if err := uc.extractionPipeline(ctx, job, msg, rawMsg, log); err != nil {
		return err
	}

	metrics.JobsProcessedTotal.WithLabelValues("completed").Inc()
	metrics.JobStageDuration.WithLabelValues("total").Observe(time.Since(totalTimer).Seconds())

	return nil
}

func (uc *ExtractSlidesUseCase) extractionPipeline(
	ctx context.Context,
	job *entity.Job,
	msg entity.SlideExtractionMessage,
	rawMsg []byte,
	log *zap.Logger,
) error {
	tracer := otel.Tracer("usecase")

	workDir := filepath.Join(uc.tempDir, job.ID.String())
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return fmt.Errorf("create workdir: %w", err)
	}
	defer os.RemoveAll(workDir)

	// Download video from object storage
	dlStart := time.Now()
	ctxDl, spanDl := tracer.Start(ctx, "download_video")
	videoPath := filepath.Join(workDir, "input.mp4")
	if err := uc.storage.DownloadVideo(ctxDl, msg.VideoKey, videoPath); err != nil {
		spanDl.End()
		log.Error("failed to download video", zap.Error(err))
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "download_video: "+err.Error(), log)
	}
	spanDl.End()
	metrics.JobStageDuration.WithLabelValues("download").Observe(time.Since(dlStart).Seconds())

	// Probe the video and open a frame source
	ctxPr, spanPr := tracer.Start(ctx, "probe_video")
	source, err := uc.opener.Open(ctxPr, videoPath)
	if err != nil {
		spanPr.End()
		log.Error("failed to probe video", zap.Error(err))
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "probe_video: "+err.Error(), log)
	}
	spanPr.End()
	defer source.Close()

	// Run the extraction core
	exStart := time.Now()
	ctxEx, spanEx := tracer.Start(ctx, "extract_slides")
	pipeline, err := extraction.NewPipeline(source, uc.detector, uc.ocr, uc.extCfg, log)
	if err != nil {
		spanEx.End()
		log.Error("invalid extraction config", zap.Error(err))
		return uc.handlePermanentFailure(ctx, job, msg, rawMsg, "extraction_config: "+err.Error())
	}
	result, err := pipeline.ExtractSlides(ctxEx)
	if err != nil {
		spanEx.End()
		log.Error("slide extraction failed", zap.Error(err))
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "extract_slides: "+err.Error(), log)
	}
	spanEx.End()
	metrics.JobStageDuration.WithLabelValues("extract").Observe(time.Since(exStart).Seconds())

	// Bundle slides + manifest
	bdStart := time.Now()
	ctxBd, spanBd := tracer.Start(ctx, "bundle_slides")
	bundlePath := filepath.Join(workDir, "slides.zip")
	if err := uc.bundler.Bundle(ctxBd, result.Slides, bundlePath); err != nil {
		spanBd.End()
		log.Error("bundle creation failed", zap.Error(err))
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "bundle_slides: "+err.Error(), log)
	}
	spanBd.End()
	metrics.JobStageDuration.WithLabelValues("bundle").Observe(time.Since(bdStart).Seconds())

	// Upload the result bundle
	upStart := time.Now()
	ctxUp, spanUp := tracer.Start(ctx, "upload_result")
	resultKey := fmt.Sprintf("%s/slides_%s.zip", msg.UserID, job.ID.String())
	bundleFile, err := os.Open(bundlePath)
	if err != nil {
		spanUp.End()
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "open_bundle: "+err.Error(), log)
	}
	bundleStat, _ := bundleFile.Stat()
	if err := uc.storage.UploadResult(ctxUp, resultKey, bundleFile, bundleStat.Size()); err != nil {
		bundleFile.Close()
		spanUp.End()
		log.Error("result upload failed", zap.Error(err))
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "upload_result: "+err.Error(), log)
	}
	bundleFile.Close()
	spanUp.End()
	metrics.JobStageDuration.WithLabelValues("upload").Observe(time.Since(upStart).Seconds())

	// Mark completed
	job.MarkCompleted(resultKey, len(result.Slides), result.DuplicatesRemoved, source.Duration())
	if err := uc.repo.Update(ctx, job); err != nil {
		log.Error("failed to update job to COMPLETED", zap.Error(err))
		return fmt.Errorf("update job completed: %w", err)
	}

	uc.publishStatus(ctx, job, log)

	log.Info("job completed successfully",
		zap.Int("slide_count", len(result.Slides)),
		zap.Int("duplicates_removed", result.DuplicatesRemoved),
		zap.Float64("duration_secs", source.Duration()),
		zap.String("result_key", resultKey),
	)

	return nil
}

func (uc *ExtractSlidesUseCase) handleRetryableFailure(
	ctx context.Context,
	job *entity.Job,
	msg entity.SlideExtractionMessage,
	rawMsg []byte,
	errMsg string,
	log *zap.Logger,
) error {
	job.MarkFailed(errMsg)
	_ = uc.repo.Update(ctx, job)

	if !job.CanRetry() {
		return uc.handlePermanentFailure(ctx, job, msg, rawMsg, errMsg)
	}

	metrics.RetryTotal.WithLabelValues(strconv.Itoa(job.Attempt)).Inc()
	uc.publishStatus(ctx, job, log)

	return fmt.Errorf("retryable failure (attempt %d/%d): %s", job.Attempt, job.MaxAttempts, errMsg)
}

func (uc *ExtractSlidesUseCase) handlePermanentFailure(
	ctx context.Context,
	job *entity.Job,
	msg entity.SlideExtractionMessage,
	rawMsg []byte,
	errMsg string,
) error {
	job.MarkFailed(errMsg)
	_ = uc.repo.Update(ctx, job)

	_ = uc.dlq.PublishToDLQ(ctx, rawMsg, errMsg)

	uc.publishStatus(ctx, job, uc.logger)

	metrics.JobsProcessedTotal.WithLabelValues("dlq").Inc()

	if msg.UserEmail != "" {
		_ = uc.notifier.NotifyFailure(ctx, msg.UserEmail, job.ID.String(), msg.VideoKey, errMsg)
	}

	return nil
}

func (uc *ExtractSlidesUseCase) publishStatus(ctx context.Context, job *entity.Job, log *zap.Logger) {
	statusMsg := entity.SlideStatusMessage{
		JobID:          job.ID,
		UserID:         job.UserID,
		Status:         job.Status,
		VideoKey:       job.VideoKey,
		ResultKey:      job.ResultKey,
		SlideCount:     job.SlideCount,
		DuplicateCount: job.DuplicateCount,
		Duration:       job.VideoDuration,
		ErrorMessage:   job.ErrorMessage,
		Attempt:        job.Attempt,
		MaxAttempts:    job.MaxAttempts,
	}
	data, _ := json.Marshal(statusMsg)
	if err := uc.publisher.PublishStatus(ctx, data); err != nil {
		log.Error("failed to publish status", zap.Error(err))
	}
}

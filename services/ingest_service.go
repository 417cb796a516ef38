package services

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"cv-screening-platform/internal/ai"
	"cv-screening-platform/internal/config"
	"cv-screening-platform/internal/logger"
	"cv-screening-platform/internal/matching"
	"cv-screening-platform/internal/queue"
	"cv-screening-platform/internal/telemetry"
	"cv-screening-platform/models"
)

// sectionEmbedder is the slice of the embedding client the pipeline needs.
type sectionEmbedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, inputs []ai.EmbedInput) (map[string][]float32, error)
}

// IngestService owns the resume pipeline: upload, text extraction,
// structured extraction, section building, and embedding.
type IngestService struct {
	config        *config.Config
	candidatesCol *mongo.Collection
	sectionsCol   *mongo.Collection
	vectorsCol    *mongo.Collection
	extractor     *TextExtractor
	resumeParser  *ai.ResumeExtractor
	embedder      sectionEmbedder
	asynqClient   *asynq.Client
	rankCache     *RankCache
	storage       *FileStorageManager
	metrics       *telemetry.Metrics
}

func NewIngestService(
	cfg *config.Config,
	db *mongo.Database,
	resumeParser *ai.ResumeExtractor,
	embedder *ai.Embedder,
	asynqClient *asynq.Client,
	rankCache *RankCache,
	metrics *telemetry.Metrics,
) *IngestService {
	return &IngestService{
		config:        cfg,
		candidatesCol: db.Collection("candidates"),
		sectionsCol:   db.Collection("sections"),
		vectorsCol:    db.Collection("section_vectors"),
		extractor:     NewTextExtractor(cfg),
		resumeParser:  resumeParser,
		embedder:      embedder,
		asynqClient:   asynqClient,
		rankCache:     rankCache,
		storage:       NewFileStorageManager(cfg),
		metrics:       metrics,
	}
}

// UploadRequest is a validated resume upload.
type UploadRequest struct {
	File    multipart.File
	Header  *multipart.FileHeader
	IsAsync bool
}

// UploadResult reports what happened to an upload: the candidate record,
// whether it was a duplicate of an earlier upload, and the async task ID if
// processing was queued.
type UploadResult struct {
	Candidate *models.Candidate
	Duplicate bool
	TaskID    string
}

// ValidateAndProcessUpload validates and stores an uploaded resume, creates
// its candidate record, and kicks off processing. Small files process in the
// background immediately; large files (or explicit async requests) go
// through the task queue.
func (s *IngestService) ValidateAndProcessUpload(ctx context.Context, req *UploadRequest) (*UploadResult, error) {
	if err := s.validateFile(req); err != nil {
		return nil, fmt.Errorf("file validation failed: %w", err)
	}

	fileInfo, err := s.storage.SecureStore(req.File, req.Header)
	if err != nil {
		return nil, fmt.Errorf("file storage failed: %w", err)
	}

	existing, err := s.checkDuplicate(ctx, fileInfo.Hash)
	if err != nil {
		s.storage.Cleanup(fileInfo.Path)
		return nil, fmt.Errorf("duplicate check failed: %w", err)
	}
	if existing != nil {
		s.storage.Cleanup(fileInfo.Path)
		return &UploadResult{Candidate: existing, Duplicate: true}, nil
	}

	candidate := &models.Candidate{
		ID:           primitive.NewObjectID(),
		OriginalName: req.Header.Filename,
		FilePath:     fileInfo.Path,
		FileHash:     fileInfo.Hash,
		Status:       models.StatusPending,
		UploadedAt:   time.Now(),
	}

	if _, err := s.candidatesCol.InsertOne(ctx, candidate); err != nil {
		s.storage.Cleanup(fileInfo.Path)
		return nil, fmt.Errorf("database save failed: %w", err)
	}

	result := &UploadResult{Candidate: candidate}

	if req.IsAsync || fileInfo.Size > s.config.SyncProcessingLimit {
		task, err := queue.NewResumeIngestTask(candidate.ID.Hex(), fileInfo.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to build ingest task: %w", err)
		}
		info, err := s.asynqClient.EnqueueContext(ctx, task)
		if err != nil {
			// The candidate record stays pending; the reconciler or a retry
			// can pick it up.
			logger.Error("Failed to enqueue resume processing", "candidate_id", candidate.ID.Hex(), "error", err)
		} else {
			result.TaskID = info.ID
		}
	} else {
		go func() {
			processingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()

			if err := s.ProcessResumeSync(processingCtx, candidate); err != nil {
				logger.Error("Sync processing failed", "candidate_id", candidate.ID.Hex(), "error", err)
				s.updateStatus(context.Background(), candidate.ID, models.StatusFailed, err.Error())
				s.metrics.RecordResumeIngested(models.StatusFailed)
			}
		}()
	}

	return result, nil
}

// ProcessResumeSync runs the full pipeline for one candidate: extract text,
// parse the structure, build sections, embed them, and store vectors.
// Sections are always inserted before their vectors, so a crash between the
// two leaves sections that are invisible to matching until re-embedded.
// Re-running (queue redelivery, manual retry) replaces the candidate's
// sections wholesale rather than stacking a second set.
func (s *IngestService) ProcessResumeSync(ctx context.Context, candidate *models.Candidate) error {
	if err := s.updateStatus(ctx, candidate.ID, models.StatusProcessing, ""); err != nil {
		return fmt.Errorf("failed to mark processing: %w", err)
	}

	extraction, err := s.extractor.ExtractText(ctx, candidate.FilePath)
	if err != nil {
		return fmt.Errorf("text extraction failed: %w", err)
	}
	s.metrics.RecordExtraction(extraction.ProcessingTime.Seconds(), extraction.Method)
	rawText := matching.Sanitize(extraction.Text)
	logger.Info("Resume text extracted",
		"candidate_id", candidate.ID.Hex(),
		"method", extraction.Method,
		"quality", extraction.QualityScore,
		"chars", len(rawText))

	parsed, err := s.resumeParser.Extract(ctx, rawText)
	if err != nil {
		return fmt.Errorf("structured extraction failed: %w", err)
	}

	update := bson.M{
		"raw_text":  rawText,
		"full_name": parsed.Profile.FullName(),
		"email":     strings.TrimSpace(parsed.Profile.Email),
	}
	if _, err := s.candidatesCol.UpdateOne(ctx, bson.M{"_id": candidate.ID}, bson.M{"$set": update}); err != nil {
		return fmt.Errorf("failed to store extracted identity: %w", err)
	}

	rows, texts := matching.BuildSections(parsed, candidate.ID.Hex())
	if len(rows) == 0 {
		logger.Warn("Resume produced no sections", "candidate_id", candidate.ID.Hex())
		return s.finishCandidate(ctx, candidate.ID, 0, 0)
	}

	if err := s.replaceSections(ctx, candidate.ID, rows); err != nil {
		return fmt.Errorf("failed to insert sections: %w", err)
	}

	vectors := s.embedSections(ctx, candidate.ID, rows, texts)

	vectorCount, err := s.upsertSectionVectors(ctx, candidate.ID, vectors)
	if err != nil {
		return fmt.Errorf("failed to store vectors: %w", err)
	}

	if err := s.finishCandidate(ctx, candidate.ID, len(rows), vectorCount); err != nil {
		return err
	}
	s.metrics.RecordResumeIngested(models.StatusCompleted)

	if s.rankCache != nil {
		s.rankCache.Invalidate(ctx)
	}

	logger.Info("Resume processed",
		"candidate_id", candidate.ID.Hex(),
		"sections", len(rows),
		"vectors", vectorCount)
	return nil
}

// replaceSections swaps in a freshly built section set for one candidate.
// Section IDs are minted per run, so any earlier sections and their vectors
// must go first or a retry would double every section.
func (s *IngestService) replaceSections(ctx context.Context, candidateID primitive.ObjectID, rows []matching.SectionRow) error {
	if _, err := s.vectorsCol.DeleteMany(ctx, bson.M{"candidate_id": candidateID}); err != nil {
		return err
	}
	if _, err := s.sectionsCol.DeleteMany(ctx, bson.M{"candidate_id": candidateID}); err != nil {
		return err
	}

	now := time.Now()
	sectionDocs := make([]interface{}, 0, len(rows))
	for _, row := range rows {
		sectionDocs = append(sectionDocs, models.Section{
			SectionID:     row.SectionID,
			CandidateID:   candidateID,
			Topic:         row.Topic,
			Payload:       row.Payload,
			EmbeddingText: row.EmbeddingText,
			CreatedAt:     now,
		})
	}
	_, err := s.sectionsCol.InsertMany(ctx, sectionDocs)
	return err
}

// embedSections embeds section texts, tolerating failure. An embedding
// outage leaves the sections stored without vectors; the re-embed reconciler
// backfills them, so the candidate still completes.
func (s *IngestService) embedSections(ctx context.Context, candidateID primitive.ObjectID, rows []matching.SectionRow, texts []string) map[string][]float32 {
	inputs := make([]ai.EmbedInput, len(rows))
	for i, row := range rows {
		inputs[i] = ai.EmbedInput{Key: row.SectionID, Text: texts[i]}
	}

	start := time.Now()
	vectors, err := s.embedder.EmbedBatch(ctx, inputs)
	if err != nil {
		logger.Error("Embedding failed, sections stored without vectors",
			"candidate_id", candidateID.Hex(),
			"sections", len(rows),
			"error", err)
		return nil
	}
	s.metrics.RecordEmbeddingBatch(time.Since(start).Seconds(), len(inputs))
	return vectors
}

// upsertSectionVectors writes embeddings keyed by section ID. Upsert, not
// insert: re-embedding the same section overwrites its previous vector.
func (s *IngestService) upsertSectionVectors(ctx context.Context, candidateID primitive.ObjectID, vectors map[string][]float32) (int, error) {
	if len(vectors) == 0 {
		return 0, nil
	}

	now := time.Now()
	writes := make([]mongo.WriteModel, 0, len(vectors))
	for sectionID, vector := range vectors {
		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"section_id": sectionID}).
			SetUpdate(bson.M{"$set": models.SectionVector{
				SectionID:   sectionID,
				CandidateID: candidateID,
				Vector:      vector,
				CreatedAt:   now,
			}}).
			SetUpsert(true))
	}

	if _, err := s.vectorsCol.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false)); err != nil {
		return 0, err
	}
	return len(writes), nil
}

func (s *IngestService) finishCandidate(ctx context.Context, id primitive.ObjectID, sections, vectors int) error {
	_, err := s.candidatesCol.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"status":        models.StatusCompleted,
		"error_message": "",
		"section_count": sections,
		"vector_count":  vectors,
		"processed_at":  time.Now(),
	}})
	return err
}

func (s *IngestService) updateStatus(ctx context.Context, id primitive.ObjectID, status, errorMessage string) error {
	update := bson.M{"status": status}
	if errorMessage != "" {
		update["error_message"] = errorMessage
	}
	_, err := s.candidatesCol.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": update})
	return err
}

// GetCandidate returns one candidate by hex ID.
func (s *IngestService) GetCandidate(ctx context.Context, hexID string) (*models.Candidate, error) {
	id, err := primitive.ObjectIDFromHex(hexID)
	if err != nil {
		return nil, fmt.Errorf("invalid candidate ID: %w", err)
	}
	var candidate models.Candidate
	if err := s.candidatesCol.FindOne(ctx, bson.M{"_id": id}).Decode(&candidate); err != nil {
		return nil, err
	}
	return &candidate, nil
}

// HandleIngestTask is the asynq handler for queued resume processing.
func (s *IngestService) HandleIngestTask(ctx context.Context, t *asynq.Task) error {
	var payload queue.ResumeIngestPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("invalid task payload: %v: %w", err, asynq.SkipRetry)
	}

	id, err := primitive.ObjectIDFromHex(payload.CandidateID)
	if err != nil {
		return fmt.Errorf("invalid candidate ID in payload: %v: %w", err, asynq.SkipRetry)
	}

	var candidate models.Candidate
	if err := s.candidatesCol.FindOne(ctx, bson.M{"_id": id}).Decode(&candidate); err != nil {
		return fmt.Errorf("candidate not found: %w", err)
	}
	if candidate.Status == models.StatusCompleted {
		return nil // already processed by an earlier delivery
	}

	if err := s.ProcessResumeSync(ctx, &candidate); err != nil {
		s.updateStatus(context.Background(), candidate.ID, models.StatusFailed, err.Error())
		s.metrics.RecordResumeIngested(models.StatusFailed)
		return err
	}
	return nil
}

func (s *IngestService) checkDuplicate(ctx context.Context, fileHash string) (*models.Candidate, error) {
	var existing models.Candidate
	err := s.candidatesCol.FindOne(ctx, bson.M{"file_hash": fileHash}).Decode(&existing)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &existing, nil
}

func (s *IngestService) validateFile(req *UploadRequest) error {
	header := req.Header
	if header.Size == 0 {
		return fmt.Errorf("file is empty")
	}
	if header.Size > s.config.MaxFileSize {
		return fmt.Errorf("file too large: %d bytes (max %d)", header.Size, s.config.MaxFileSize)
	}

	contentType := header.Header.Get("Content-Type")
	allowed := false
	for _, t := range s.config.AllowedTypes {
		if strings.TrimSpace(t) == contentType {
			allowed = true
			break
		}
	}
	if !allowed {
		return fmt.Errorf("unsupported content type: %s", contentType)
	}

	if strings.ContainsAny(header.Filename, "/\\") || strings.Contains(header.Filename, "..") {
		return fmt.Errorf("invalid filename")
	}
	return nil
}

// FileStorageManager handles resume file storage.
type FileStorageManager struct {
	uploadDir string
	tempDir   string
}

func NewFileStorageManager(cfg *config.Config) *FileStorageManager {
	baseDir := cfg.FileStorageDir
	if baseDir == "" {
		baseDir = "./storage"
	}

	uploadDir := filepath.Join(baseDir, "resumes")
	tempDir := filepath.Join(baseDir, "temp")

	os.MkdirAll(uploadDir, 0755)
	os.MkdirAll(tempDir, 0755)

	return &FileStorageManager{
		uploadDir: uploadDir,
		tempDir:   tempDir,
	}
}

// StoredFileInfo describes a securely stored upload.
type StoredFileInfo struct {
	Path       string
	SecureName string
	Hash       string
	Size       int64
}

// SecureStore streams an upload to disk with a generated name, computing the
// content hash on the way for deduplication. Writes go to a temp file first
// so the final path is only ever a complete file.
func (sm *FileStorageManager) SecureStore(file multipart.File, header *multipart.FileHeader) (*StoredFileInfo, error) {
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to reset file position: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	secureName := fmt.Sprintf("%d_%s%s", time.Now().Unix(), uuid.NewString(), ext)
	filePath := filepath.Join(sm.uploadDir, secureName)

	tempPath := filepath.Join(sm.tempDir, uuid.NewString()+".tmp")
	tempFile, err := os.Create(tempPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}

	hasher := md5.New()
	multiWriter := io.MultiWriter(tempFile, hasher)

	bytesWritten, err := io.Copy(multiWriter, file)
	if err != nil {
		tempFile.Close()
		os.Remove(tempPath)
		return nil, fmt.Errorf("failed to write file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		os.Remove(tempPath)
		return nil, fmt.Errorf("failed to close temp file: %w", err)
	}
	if bytesWritten == 0 {
		os.Remove(tempPath)
		return nil, fmt.Errorf("file is empty")
	}

	if ext == ".pdf" {
		if err := validatePDFHeader(tempPath); err != nil {
			os.Remove(tempPath)
			return nil, err
		}
	}

	if err := os.Rename(tempPath, filePath); err != nil {
		os.Remove(tempPath)
		return nil, fmt.Errorf("failed to move file to final location: %w", err)
	}

	return &StoredFileInfo{
		Path:       filePath,
		SecureName: secureName,
		Hash:       hex.EncodeToString(hasher.Sum(nil)),
		Size:       bytesWritten,
	}, nil
}

func validatePDFHeader(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open file for validation: %w", err)
	}
	defer f.Close()

	headerBytes := make([]byte, 4)
	if _, err := f.ReadAt(headerBytes, 0); err != nil {
		return fmt.Errorf("failed to read PDF header: %w", err)
	}
	if string(headerBytes) != "%PDF" {
		return fmt.Errorf("invalid PDF file: missing PDF header")
	}
	return nil
}

// Cleanup removes a stored file, logging but not propagating failures.
func (sm *FileStorageManager) Cleanup(filePath string) {
	if filePath == "" {
		return
	}
	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		logger.Warn("Failed to clean up file", "path", filePath, "error", err)
	}
}

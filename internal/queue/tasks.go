package queue

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const TaskIngestResume = "resume:ingest"

// ResumeIngestPayload carries everything the worker needs to process one
// uploaded resume.
type ResumeIngestPayload struct {
	CandidateID string `json:"candidate_id"`
	FilePath    string `json:"file_path"`
}

// NewResumeIngestTask creates a queue task for async resume processing.
func NewResumeIngestTask(candidateID, filePath string) (*asynq.Task, error) {
	payload, err := json.Marshal(ResumeIngestPayload{
		CandidateID: candidateID,
		FilePath:    filePath,
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIngestResume, payload,
		asynq.MaxRetry(3),
		asynq.Timeout(10*time.Minute),
		asynq.Queue("critical"),
	), nil
}

package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Processing status values for an ingested resume
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Candidate is one ingested resume. Created once per document and immutable
// afterwards except for processing status and the identity fields filled in
// by extraction.
type Candidate struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FullName     string             `bson:"full_name" json:"full_name"`
	Email        string             `bson:"email" json:"email"`
	RawText      string             `bson:"raw_text" json:"-"`
	OriginalName string             `bson:"original_name" json:"original_name"`
	FilePath     string             `bson:"file_path" json:"-"`
	FileHash     string             `bson:"file_hash" json:"-"`
	Status       string             `bson:"status" json:"status"`
	ErrorMessage string             `bson:"error_message,omitempty" json:"error_message,omitempty"`
	SectionCount int                `bson:"section_count" json:"section_count"`
	VectorCount  int                `bson:"vector_count" json:"vector_count"`
	UploadedAt   time.Time          `bson:"uploaded_at" json:"uploaded_at"`
	ProcessedAt  time.Time          `bson:"processed_at,omitempty" json:"processed_at,omitempty"`
}

package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Section is one atomic, independently embeddable fact extracted from a
// resume (one education entry, one experience entry, the profile, ...).
// EmbeddingText is the deterministic compaction of Payload used as the
// embedding input; it must stay stable for a given payload so historical
// vectors remain comparable.
type Section struct {
	SectionID     string             `bson:"section_id" json:"section_id"`
	CandidateID   primitive.ObjectID `bson:"candidate_id" json:"candidate_id"`
	Topic         string             `bson:"topic" json:"topic"`
	Payload       map[string]any     `bson:"payload" json:"payload"`
	EmbeddingText string             `bson:"embedding_text" json:"embedding_text"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
}

// SectionVector holds the embedding for one section. At most one per
// section; re-embedding overwrites via upsert on section_id. CandidateID is
// denormalized so matching can load a pool's vectors without a join.
type SectionVector struct {
	SectionID   string             `bson:"section_id" json:"section_id"`
	CandidateID primitive.ObjectID `bson:"candidate_id" json:"candidate_id"`
	Vector      []float32          `bson:"vector" json:"-"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
}

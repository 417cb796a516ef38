package models

import "time"

// CatalogEntry is one weighted target skill with its embedding. skill_name
// is the upsert key: re-submitting the same name overwrites description,
// weight, and vector (last write wins).
type CatalogEntry struct {
	SkillName     string    `bson:"skill_name" json:"skill_name"`
	Description   string    `bson:"skill_description" json:"description"`
	Category      string    `bson:"category,omitempty" json:"category,omitempty"`
	Weight        float64   `bson:"weight" json:"weight"`
	EmbeddingText string    `bson:"embedding_text" json:"-"`
	Vector        []float32 `bson:"vector" json:"-"`
	UpdatedAt     time.Time `bson:"updated_at" json:"updated_at"`
}

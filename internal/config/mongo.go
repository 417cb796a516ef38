package config

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func ConnectMongoDB(cfg *Config) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %v", err)
	}

	// Test connection
	err = client.Ping(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %v", err)
	}

	// Create indexes
	err = createIndexes(client, cfg.DBName)
	if err != nil {
		return nil, fmt.Errorf("failed to create indexes: %v", err)
	}

	return client, nil
}

func createIndexes(client *mongo.Client, dbName string) error {
	db := client.Database(dbName)

	// Candidates: dedupe uploads by content hash
	candidatesCollection := db.Collection("candidates")
	candidateIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "file_hash", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "status", Value: 1}},
		},
	}
	_, err := candidatesCollection.Indexes().CreateMany(context.Background(), candidateIndexes)
	if err != nil {
		return err
	}

	// Sections: looked up per candidate and joined to vectors by section_id
	sectionsCollection := db.Collection("sections")
	sectionIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "section_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "candidate_id", Value: 1}},
		},
	}
	_, err = sectionsCollection.Indexes().CreateMany(context.Background(), sectionIndexes)
	if err != nil {
		return err
	}

	// Section vectors: at most one vector per section (re-embedding overwrites)
	vectorsCollection := db.Collection("section_vectors")
	vectorIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "section_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "candidate_id", Value: 1}},
		},
	}
	_, err = vectorsCollection.Indexes().CreateMany(context.Background(), vectorIndexes)
	if err != nil {
		return err
	}

	// Skill catalog: upsert semantics keyed by skill name
	skillsCollection := db.Collection("skill_vectors")
	skillIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "skill_name", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	_, err = skillsCollection.Indexes().CreateMany(context.Background(), skillIndexes)
	if err != nil {
		return err
	}

	return nil
}

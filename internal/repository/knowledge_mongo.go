package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ahmednasr/githelpdesk/internal/models"
)

// KnowledgeMongo reads curated open-source knowledge chunks through an
// Atlas Vector Search index. The collection is populated out of band.
//
// Expected schema:
//
//	knowledge_chunks
//	  { _id: string, text: string, source: string, embedding: []float32 }
type KnowledgeMongo struct {
	col       *mongo.Collection
	vectorIdx string // name of Atlas Vector Search index
}

// NewKnowledgeRepository wires the collection and index names.
func NewKnowledgeRepository(db *mongo.Database, collection, index string) *KnowledgeMongo {
	return &KnowledgeMongo{
		col:       db.Collection(collection),
		vectorIdx: index,
	}
}

// TopChunks performs a K-NN search over the chunk embeddings, examining
// numCandidates neighbours and returning the best k.
func (r *KnowledgeMongo) TopChunks(ctx context.Context, queryVec []float32, k, numCandidates int) ([]models.KnowledgeChunk, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$vectorSearch", Value: bson.D{
			{Key: "index", Value: r.vectorIdx},
			{Key: "queryVector", Value: queryVec},
			{Key: "path", Value: "embedding"},
			{Key: "numCandidates", Value: numCandidates},
			{Key: "limit", Value: k},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: "text", Value: 1},
			{Key: "source", Value: 1},
			{Key: "score", Value: bson.M{"$meta": "vectorSearchScore"}},
		}}},
	}

	cur, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	defer cur.Close(ctx)

	var chunks []models.KnowledgeChunk
	if err := cur.All(ctx, &chunks); err != nil {
		return nil, fmt.Errorf("decode chunks: %w", err)
	}
	return chunks, nil
}

// Package memory implements C9, the long-term memory store: a per-user
// nearest-neighbour table backing RecallLongTerm and CommittingToMemory.
// Grounded on the original's lance_db.rs (a per-user vector table with
// content+embedding columns, top-5 query) and realized with
// github.com/qdrant/go-client, the same client kadirpekel-hector's
// pkg/vector/qdrant.go and intelligencedev-manifold's
// internal/persistence/databases/qdrant_vector.go wrap.
package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"github.com/terminal-alpha-beta/hivebot/internal/tools"
)

// Config configures the Qdrant connection.
type Config struct {
	Host   string
	Port   int
	APIKey string
	UseTLS bool
}

// Store implements tools.LongTermStore against a Qdrant collection per
// user, named so that one user's recall can never surface another's.
// Writes embed each entry with embedder before upserting, since Qdrant
// stores vectors, not text — the embedding model itself sits behind the
// tools.Embedder passed to New (HTTPEmbedder in this package).
type Store struct {
	client   *qdrant.Client
	embedder tools.Embedder
}

// New connects to Qdrant at cfg's address and arranges to embed every
// upserted entry with embedder. Port defaults to 6334, the Qdrant gRPC
// port.
func New(cfg Config, embedder tools.Embedder) (*Store, error) {
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = 6334
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("memory: failed to create Qdrant client for %s:%d: %w", cfg.Host, cfg.Port, err)
	}
	return &Store{client: client, embedder: embedder}, nil
}

const payloadContentKey = "content"

func collectionFor(userID string) string {
	return "hivebot_memory_" + userID
}

// Upsert embeds each entry and stores it as its own point in userID's
// collection, creating the collection (sized to the embedder's
// dimension) on first write. Satisfies tools.LongTermStore, the write
// side CommittingToMemory drives when an idle conversation's history is
// committed to long-term memory.
func (s *Store) Upsert(ctx context.Context, userID string, entries []string) error {
	if len(entries) == 0 {
		return nil
	}

	vectors := make([][]float32, len(entries))
	for i, entry := range entries {
		vector, err := s.embedder.Embed(ctx, entry)
		if err != nil {
			return fmt.Errorf("memory: failed to embed entry: %w", err)
		}
		vectors[i] = vector
	}

	collection := collectionFor(userID)
	if err := s.ensureCollection(ctx, collection, len(vectors[0])); err != nil {
		return err
	}

	points := make([]*qdrant.PointStruct, len(entries))
	for i, entry := range entries {
		payload, err := qdrant.NewValue(entry)
		if err != nil {
			return fmt.Errorf("memory: failed to encode payload: %w", err)
		}
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewID(uuid.New().String()),
			Vectors: qdrant.NewVectors(vectors[i]...),
			Payload: map[string]*qdrant.Value{payloadContentKey: payload},
		}
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collection,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("memory: failed to upsert points: %w", err)
	}
	return nil
}

// Query returns the topK nearest entries' content to queryVector in
// userID's collection, exactly as execute_long_recall's recall() does
// against a per-user LanceDB table. Returns an empty result, not an
// error, when userID has never committed anything (the collection
// doesn't exist yet).
func (s *Store) Query(ctx context.Context, userID string, queryVector []float32, topK int) ([]string, error) {
	collection := collectionFor(userID)

	exists, err := s.client.CollectionExists(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("memory: failed to check collection existence: %w", err)
	}
	if !exists {
		return nil, nil
	}

	searchResult, err := s.client.GetPointsClient().Search(ctx, &qdrant.SearchPoints{
		CollectionName: collection,
		Vector:         queryVector,
		Limit:          uint64(topK),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("memory: failed to search points: %w", err)
	}

	results := make([]string, 0, len(searchResult.Result))
	for _, point := range searchResult.Result {
		if point.Payload == nil {
			continue
		}
		if v, ok := point.Payload[payloadContentKey]; ok {
			if text := v.GetStringValue(); text != "" {
				results = append(results, text)
			}
		}
	}
	return results, nil
}

func (s *Store) ensureCollection(ctx context.Context, collection string, dimension int) error {
	exists, err := s.client.CollectionExists(ctx, collection)
	if err != nil {
		return fmt.Errorf("memory: failed to check collection existence: %w", err)
	}
	if exists {
		return nil
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dimension),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil && !strings.Contains(err.Error(), "already exists") {
		return fmt.Errorf("memory: failed to create collection: %w", err)
	}
	return nil
}

// Close releases the underlying gRPC connection.
func (s *Store) Close() error {
	return s.client.Close()
}

var _ tools.LongTermStore = (*Store)(nil)

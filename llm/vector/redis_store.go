package vector

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"docsage/llm"
)

const (
	defaultEFConstruction = 200
	defaultM              = 16

	// Field names in Redis hash
	fieldContent    = "content"
	fieldVector     = "vector"
	fieldSource     = "source"
	fieldChunkIndex = "chunk_index"
	fieldPageNum    = "page_num"
	fieldImagePaths = "image_paths"
	fieldMetadata   = "metadata"
	fieldCreatedAt  = "created_at"
	fieldScore      = "score"
)

// RedisStore implements VectorMemory on Redis with a RediSearch HNSW
// vector index.
type RedisStore struct {
	client       *redis.Client
	embeddingSvc *EmbeddingService
	mu           sync.Mutex

	indexName string
	keyPrefix string
	dim       int
}

// RedisOptions holds Redis connection and index configuration.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	PoolSize int

	// Collection names the index; keys are prefixed with "<collection>:".
	Collection string
	VectorDim  int
}

// NewRedisStore connects to Redis and ensures the vector index exists.
func NewRedisStore(ctx context.Context, embeddingSvc *EmbeddingService, opts RedisOptions) (*RedisStore, error) {
	if embeddingSvc == nil {
		return nil, fmt.Errorf("embedding service is required")
	}
	if opts.Collection == "" {
		opts.Collection = "documents"
	}
	if opts.VectorDim <= 0 {
		opts.VectorDim = embeddingSvc.Dimension()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
		PoolSize: opts.PoolSize,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	s := &RedisStore{
		client:       client,
		embeddingSvc: embeddingSvc,
		indexName:    opts.Collection,
		keyPrefix:    opts.Collection + ":",
		dim:          opts.VectorDim,
	}
	if err := s.ensureIndex(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to create vector index: %w", err)
	}
	return s, nil
}

// ensureIndex creates the HNSW vector index if it doesn't exist
func (s *RedisStore) ensureIndex(ctx context.Context) error {
	if _, err := s.client.Do(ctx, "FT.INFO", s.indexName).Result(); err == nil {
		return nil
	}

	_, err := s.client.Do(ctx, "FT.CREATE", s.indexName,
		"ON", "HASH",
		"PREFIX", "1", s.keyPrefix,
		"SCHEMA",
		fieldVector, "VECTOR", "HNSW", "10",
		"TYPE", "FLOAT32",
		"DIM", strconv.Itoa(s.dim),
		"DISTANCE_METRIC", "COSINE",
		"EF_CONSTRUCTION", strconv.Itoa(defaultEFConstruction),
		"M", strconv.Itoa(defaultM),
		fieldContent, "TEXT",
		fieldSource, "TAG",
		fieldChunkIndex, "NUMERIC",
		fieldPageNum, "NUMERIC",
		fieldCreatedAt, "NUMERIC",
	).Result()
	if err != nil {
		return fmt.Errorf("failed to create index %s: %w", s.indexName, err)
	}
	return nil
}

// Add stores one chunk.
func (s *RedisStore) Add(ctx context.Context, chunk llm.Chunk) error {
	return s.AddBatch(ctx, []llm.Chunk{chunk})
}

// AddBatch embeds all chunks and writes them through one pipeline. The
// write lock serializes concurrent indexers; queries are unaffected.
func (s *RedisStore) AddBatch(ctx context.Context, chunks []llm.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	vectors, err := s.embeddingSvc.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed batch: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	pipe := s.client.Pipeline()
	now := time.Now()
	for i, c := range chunks {
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		if c.CreatedAt == "" {
			c.CreatedAt = now.Format(time.RFC3339)
		}

		imagePaths, _ := json.Marshal(c.ImagePaths)
		metadata, _ := json.Marshal(c.Metadata)

		pipe.HSet(ctx, s.keyPrefix+c.ID,
			fieldContent, c.Content,
			fieldVector, encodeVector(Normalize(vectors[i])),
			fieldSource, c.Source,
			fieldChunkIndex, c.ChunkIndex,
			fieldPageNum, c.PageNum,
			fieldImagePaths, imagePaths,
			fieldMetadata, metadata,
			fieldCreatedAt, now.UnixNano(),
		)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to insert chunks: %w", err)
	}
	return nil
}

// Query runs a KNN search and converts cosine distance to a [0,1]
// similarity score, filtering below-threshold entries client-side.
func (s *RedisStore) Query(ctx context.Context, text string, topK int, scoreThreshold float64) ([]llm.SearchResult, error) {
	if text == "" {
		return nil, fmt.Errorf("query cannot be empty")
	}
	if topK <= 0 {
		topK = 5
	}

	queryVec, err := s.embeddingSvc.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	queryStr := fmt.Sprintf("*=>[KNN %d @%s $query_vector AS %s]", topK, fieldVector, fieldScore)
	raw, err := s.client.Do(ctx, "FT.SEARCH", s.indexName, queryStr,
		"PARAMS", "2", "query_vector", encodeVector(Normalize(queryVec)),
		"RETURN", "8", fieldContent, fieldSource, fieldChunkIndex, fieldPageNum,
		fieldImagePaths, fieldMetadata, fieldCreatedAt, fieldScore,
		"SORTBY", fieldScore,
		"LIMIT", "0", strconv.Itoa(topK),
		"DIALECT", "2",
	).Result()
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	return s.parseSearchResults(raw, scoreThreshold)
}

// parseSearchResults walks the FT.SEARCH reply: count, then (key, fields)
// pairs already ordered by ascending distance.
func (s *RedisStore) parseSearchResults(raw any, scoreThreshold float64) ([]llm.SearchResult, error) {
	values, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("unexpected search result format")
	}

	var results []llm.SearchResult
	for i := 1; i+1 < len(values); i += 2 {
		key, ok := values[i].(string)
		if !ok {
			continue
		}
		fields, ok := values[i+1].([]any)
		if !ok {
			continue
		}

		chunk, score := s.parseChunkFields(key, fields)
		if score < scoreThreshold {
			continue
		}
		results = append(results, llm.SearchResult{Chunk: chunk, Score: score})
	}
	return results, nil
}

func (s *RedisStore) parseChunkFields(key string, fields []any) (llm.Chunk, float64) {
	chunk := llm.Chunk{ID: key[len(s.keyPrefix):]}
	score := 0.0

	for i := 0; i+1 < len(fields); i += 2 {
		name, ok := fields[i].(string)
		if !ok {
			continue
		}
		value, ok := fields[i+1].(string)
		if !ok {
			continue
		}

		switch name {
		case fieldContent:
			chunk.Content = value
		case fieldSource:
			chunk.Source = value
		case fieldChunkIndex:
			chunk.ChunkIndex, _ = strconv.Atoi(value)
		case fieldPageNum:
			chunk.PageNum, _ = strconv.Atoi(value)
		case fieldImagePaths:
			_ = json.Unmarshal([]byte(value), &chunk.ImagePaths)
		case fieldMetadata:
			_ = json.Unmarshal([]byte(value), &chunk.Metadata)
		case fieldCreatedAt:
			if ns, err := strconv.ParseInt(value, 10, 64); err == nil {
				chunk.CreatedAt = time.Unix(0, ns).Format(time.RFC3339)
			}
		case fieldScore:
			// RediSearch reports cosine distance; similarity = 1 - dist.
			if dist, err := strconv.ParseFloat(value, 64); err == nil {
				score = CosineScore(1 - dist)
			}
		}
	}
	return chunk, score
}

// Count returns the number of indexed entries.
func (s *RedisStore) Count(ctx context.Context) (int64, error) {
	info, err := s.client.Do(ctx, "FT.INFO", s.indexName).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get index info: %w", err)
	}

	values, ok := info.([]any)
	if !ok {
		return 0, fmt.Errorf("unexpected index info format")
	}
	for i := 0; i+1 < len(values); i += 2 {
		if key, ok := values[i].(string); ok && key == "num_docs" {
			switch v := values[i+1].(type) {
			case int64:
				return v, nil
			case string:
				n, _ := strconv.ParseInt(v, 10, 64)
				return n, nil
			}
		}
	}
	return 0, nil
}

// Clear drops the index together with its documents and recreates it.
func (s *RedisStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.client.Do(ctx, "FT.DROPINDEX", s.indexName, "DD").Result(); err != nil {
		return fmt.Errorf("failed to drop index %s: %w", s.indexName, err)
	}
	return s.ensureIndex(ctx)
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// encodeVector packs a vector as little-endian float32 bytes, the layout
// RediSearch expects for FLOAT32 fields.
func encodeVector(vector []float64) []byte {
	buf := make([]byte, 4*len(vector))
	for i, v := range vector {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(float32(v)))
	}
	return buf
}

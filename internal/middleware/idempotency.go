package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const (
	idempotencyHeader    = "Idempotency-Key"
	idempotencyKeyPrefix = "idempotency:"
	idempotencyTTL       = 24 * time.Hour
)

// replayedResponse is the stored outcome of an earlier delivery carrying
// the same Idempotency-Key.
type replayedResponse struct {
	StatusCode  int             `json:"status_code"`
	Body        json.RawMessage `json:"body"`
	ContentType string          `json:"content_type"`
}

// captureWriter wraps gin.ResponseWriter so the response body can be
// stored for replay.
type captureWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// IdempotencyMiddleware short-circuits HTTP redeliveries. At-least-once
// producers that retry a POST with the same Idempotency-Key get the
// original response back instead of a second pass through the
// correlation path. Quarantine outcomes replay too, so a retried bad
// event does not produce a second quarantine row.
func IdempotencyMiddleware(redisClient *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost && c.Request.Method != http.MethodPut && c.Request.Method != http.MethodPatch {
			c.Next()
			return
		}

		key := c.GetHeader(idempotencyHeader)
		if key == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		cacheKey := idempotencyKeyPrefix + key

		stored, err := loadResponse(ctx, redisClient, cacheKey)
		if err != nil && err != redis.Nil {
			// Redis unavailable; let the delivery through rather than
			// refuse it. Downstream duplicate handling still applies.
			c.Next()
			return
		}

		if stored != nil {
			contentType := stored.ContentType
			if contentType == "" {
				contentType = "application/json"
			}
			c.Data(stored.StatusCode, contentType, stored.Body)
			c.Abort()
			return
		}

		w := &captureWriter{
			ResponseWriter: c.Writer,
			body:           &bytes.Buffer{},
		}
		c.Writer = w

		c.Next()

		// Server errors are retryable and must not be replayed.
		if c.Writer.Status() >= 200 && c.Writer.Status() < 500 {
			_ = storeResponse(ctx, redisClient, cacheKey, &replayedResponse{
				StatusCode:  c.Writer.Status(),
				Body:        w.body.Bytes(),
				ContentType: c.Writer.Header().Get("Content-Type"),
			}, idempotencyTTL)
		}
	}
}

func loadResponse(ctx context.Context, client *redis.Client, key string) (*replayedResponse, error) {
	data, err := client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, err
	}

	var stored replayedResponse
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, err
	}

	return &stored, nil
}

func storeResponse(ctx context.Context, client *redis.Client, key string, response *replayedResponse, ttl time.Duration) error {
	data, err := json.Marshal(response)
	if err != nil {
		return err
	}

	return client.Set(ctx, key, data, ttl).Err()
}

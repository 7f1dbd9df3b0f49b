package scraper

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Mile1005/seo-audit-sub010/internal/serp"
)

// Archiver persists captured raw markup for debugging and auditing. Archiving
// is best effort: failures are logged and never fail the scrape.
type Archiver struct {
	store       serp.BlobStore
	hasher      serp.Hasher
	prefix      string
	contentType string
	logger      *zap.Logger
}

// NewArchiver constructs an Archiver writing under the given path prefix.
func NewArchiver(store serp.BlobStore, hasher serp.Hasher, prefix, contentType string, logger *zap.Logger) *Archiver {
	if logger == nil {
		logger = zap.NewNop()
	}
	if contentType == "" {
		contentType = "text/html; charset=utf-8"
	}
	return &Archiver{
		store:       store,
		hasher:      hasher,
		prefix:      prefix,
		contentType: contentType,
		logger:      logger,
	}
}

// Save writes the markup for a snapshot key, named by content hash.
func (a *Archiver) Save(ctx context.Context, key string, body []byte) {
	if a == nil || a.store == nil {
		return
	}
	hash, err := a.hasher.Hash(body)
	if err != nil {
		a.logger.Warn("hash captured markup failed", zap.String("key", key), zap.Error(err))
		return
	}
	uri, err := a.store.PutObject(ctx, a.buildPath(key, hash), a.contentType, body)
	if err != nil {
		a.logger.Warn("archive captured markup failed", zap.String("key", key), zap.Error(err))
		return
	}
	a.logger.Debug("captured markup archived", zap.String("key", key), zap.String("blob_uri", uri))
}

func (a *Archiver) buildPath(key, hash string) string {
	safeKey := strings.ReplaceAll(key, ":", "/")
	prefix := strings.Trim(a.prefix, "/")
	if prefix == "" {
		return fmt.Sprintf("%s/%s.html", safeKey, hash)
	}
	return fmt.Sprintf("%s/%s/%s.html", prefix, safeKey, hash)
}

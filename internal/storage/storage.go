// Package storage keeps the storefront's brand assets (the navigation logo)
// in object storage and hands out URLs for them.
//
// Implementations:
//   - LocalStorage: files under a directory, served by this server
//   - R2Storage: Cloudflare R2 via the S3 API
package storage

import (
	"context"
	"io"
	"path"
	"time"
)

// Storage stores and addresses objects by key.
type Storage interface {
	// Put stores data at key. Returns ErrKeyExists when the key is taken and
	// opts.Overwrite is false.
	Put(ctx context.Context, key string, data io.Reader, opts PutOptions) error

	// Exists reports whether key holds an object.
	Exists(ctx context.Context, key string) (bool, error)

	// URL returns a URL the browser can load key from. A zero expires asks
	// for a permanent URL where the provider supports one.
	URL(ctx context.Context, key string, expires time.Duration) (string, error)
}

// PutOptions configures how an object is stored.
type PutOptions struct {
	ContentType  string
	CacheControl string
	Overwrite    bool
	Public       bool // R2: public-read ACL; local: informational
}

// LocalConfig holds configuration for local filesystem storage.
type LocalConfig struct {
	BasePath string // e.g. "./storage"
	BaseURL  string // e.g. "http://localhost:8080/files"
}

// R2Config holds configuration for Cloudflare R2 storage.
type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	PublicURL       string // custom domain; presigned URLs are used when empty
	Region          string // defaults to "auto"
}

const (
	ProviderLocal = "local"
	ProviderR2    = "r2"
)

// BrandKey returns the key for a brand asset.
func BrandKey(name string) string {
	return path.Join("brand", path.Base(name))
}

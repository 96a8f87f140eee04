// Package brand prepares the storefront logo shown in the navigation bar.
package brand

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/DukeRupert/shopnav/internal/storage"
)

// DefaultLogoHeight is the rendered height of the logo in the full navigation.
const DefaultLogoHeight = 48

// logoCacheControl lets browsers keep the logo for a day.
const logoCacheControl = "public, max-age=86400"

// Normalize decodes src and scales it to heightPx, preserving the aspect
// ratio. Images already at or below heightPx are left at their size. The
// result is always PNG so transparency survives.
func Normalize(src io.Reader, heightPx int) ([]byte, error) {
	if heightPx <= 0 {
		heightPx = DefaultLogoHeight
	}

	img, _, err := image.Decode(src)
	if err != nil {
		return nil, fmt.Errorf("failed to decode logo: %w", err)
	}

	if img.Bounds().Dy() > heightPx {
		img = imaging.Resize(img, 0, heightPx, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode logo: %w", err)
	}
	return buf.Bytes(), nil
}

// LogoKey returns the storage key for a logo uploaded from sourcePath.
func LogoKey(sourcePath string) string {
	name := strings.TrimSuffix(filepath.Base(sourcePath), filepath.Ext(sourcePath))
	if name == "" || name == "." {
		name = "logo"
	}
	return storage.BrandKey(name + ".png")
}

// EnsureLogo uploads the normalised logo from sourcePath unless it is
// already stored, and returns the URL the navigation should load it from.
// An empty sourcePath returns an empty URL; the navigation then falls back
// to a text wordmark.
func EnsureLogo(ctx context.Context, store storage.Storage, sourcePath string, heightPx int, logger *slog.Logger) (string, error) {
	if sourcePath == "" {
		return "", nil
	}
	key := LogoKey(sourcePath)

	exists, err := store.Exists(ctx, key)
	if err != nil {
		return "", fmt.Errorf("check logo: %w", err)
	}

	if !exists {
		f, err := os.Open(sourcePath)
		if err != nil {
			return "", fmt.Errorf("open logo source: %w", err)
		}
		data, err := Normalize(f, heightPx)
		f.Close()
		if err != nil {
			return "", err
		}

		err = store.Put(ctx, key, bytes.NewReader(data), storage.PutOptions{
			ContentType:  "image/png",
			CacheControl: logoCacheControl,
			Public:       true,
		})
		// Another instance may have uploaded it between Exists and Put.
		if err != nil && !storage.IsKeyExists(err) {
			return "", fmt.Errorf("store logo: %w", err)
		}
		logger.Info("uploaded brand logo", "key", key, "bytes", len(data))
	}

	url, err := store.URL(ctx, key, 0)
	if err != nil {
		return "", fmt.Errorf("logo url: %w", err)
	}
	return url, nil
}

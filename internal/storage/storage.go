// Package storage keeps generated documents and uploaded quotation files.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Lahiru-360/fixed-asset-registry-final/internal/config"
	"go.uber.org/zap"
)

var ErrNotFound = errors.New("object not found")

// Well-known key prefixes, one per document family.
const (
	PrefixQuotations     = "quotations"
	PrefixPurchaseOrders = "po-pdfs"
	PrefixGRNs           = "grn-pdfs"
)

type ObjectStore interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// Key joins a prefix and a file name into an object key.
func Key(prefix, name string) string {
	return strings.Trim(prefix, "/") + "/" + strings.TrimLeft(name, "/")
}

// New builds the store selected by STORAGE_DRIVER.
func New(cfg config.StorageOptions, log *zap.Logger) (ObjectStore, error) {
	switch cfg.Driver {
	case config.StorageS3:
		return NewS3Store(cfg, log)
	case config.StorageLocal:
		return NewLocalStore(cfg.LocalDir, cfg.PublicBase, log), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

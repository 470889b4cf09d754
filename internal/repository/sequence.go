package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// SequenceKind names a document number series.
type SequenceKind string

const (
	SequencePurchaseOrder SequenceKind = "po"
	SequenceGRN           SequenceKind = "grn"
	SequenceAsset         SequenceKind = "asset"
)

var sequenceNames = map[SequenceKind]string{
	SequencePurchaseOrder: "po_seq",
	SequenceGRN:           "grn_seq",
	SequenceAsset:         "asset_seq",
}

// SequenceGenerator hands out values from a database sequence. Values are unique across
// processes and are never reused, even when the surrounding transaction rolls back.
type SequenceGenerator interface {
	Next(ctx context.Context, kind SequenceKind) (int64, error)
}

type sequenceGenerator struct {
	db *gorm.DB
}

func NewSequenceGenerator(db *gorm.DB) SequenceGenerator {
	return &sequenceGenerator{db: db}
}

func (g *sequenceGenerator) Next(ctx context.Context, kind SequenceKind) (int64, error) {
	name, ok := sequenceNames[kind]
	if !ok {
		return 0, fmt.Errorf("unknown sequence kind %q", kind)
	}

	var n int64
	if err := GetDB(ctx, g.db).Raw("SELECT nextval(?::regclass)", name).Scan(&n).Error; err != nil {
		return 0, fmt.Errorf("next %s value: %w", name, err)
	}
	return n, nil
}

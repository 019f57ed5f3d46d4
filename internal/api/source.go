package api

import (
	"context"

	"github.com/maltedev/price-ledger/internal/cleaner"
	"github.com/maltedev/price-ledger/internal/lookup"
	"github.com/maltedev/price-ledger/internal/models"
)

// FileSource reads the cleaned transactions file on every request, so the
// API always reflects the last build-lookup run.
type FileSource struct {
	cleanedPath string
	lookup      lookup.Repository
}

func NewFileSource(cleanedPath string, repo lookup.Repository) *FileSource {
	return &FileSource{cleanedPath: cleanedPath, lookup: repo}
}

func (s *FileSource) Transactions(ctx context.Context) ([]models.Transaction, error) {
	res, err := cleaner.CleanFile(s.cleanedPath, cleaner.Options{})
	if err != nil {
		return nil, err
	}
	return res.Transactions, nil
}

func (s *FileSource) LookupEntries(ctx context.Context) ([]models.LookupEntry, error) {
	return s.lookup.Load(ctx)
}

// Package draft persists wizard drafts between steps.
package draft

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"infinz-leadgen/internal/models"
)

// ErrNotFound is returned when no live draft exists for the id. A draft written
// with another schema version is reported the same way.
var ErrNotFound = errors.New("draft not found")

// Store is the persistence seam the wizard depends on.
type Store interface {
	Get(ctx context.Context, id string) (*models.Draft, error)
	Set(ctx context.Context, id string, d *models.Draft) error
	Clear(ctx context.Context, id string) error
}

func encode(d *models.Draft) ([]byte, error) {
	payload, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("encode draft: %w", err)
	}
	return payload, nil
}

func decode(payload []byte) (*models.Draft, error) {
	var d models.Draft
	if err := json.Unmarshal(payload, &d); err != nil {
		return nil, fmt.Errorf("decode draft: %w", err)
	}
	if d.SchemaVersion != models.DraftSchemaVersion {
		return nil, ErrNotFound
	}
	return &d, nil
}

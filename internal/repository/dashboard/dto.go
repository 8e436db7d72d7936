package dashboard

import (
	"encoding/json"
	"fmt"

	domdash "github.com/kailas-cloud/facetdash/internal/domain/dashboard"
	"github.com/kailas-cloud/facetdash/internal/domain/filterset"
	"github.com/kailas-cloud/facetdash/internal/domain/query"
)

const schemaVersion = 1

// documentRow is the JSON value stored under a dashboard key.
type documentRow struct {
	Version   int              `json:"version"`
	Name      string           `json:"name"`
	Queries   *query.State     `json:"queries"`
	Filters   *filterset.State `json:"filters"`
	Revision  int              `json:"revision"`
	UpdatedAt int64            `json:"updated_at"`
}

func documentToJSON(doc domdash.Document) ([]byte, error) {
	data, err := json.Marshal(documentRow{
		Version:   schemaVersion,
		Name:      doc.Name,
		Queries:   doc.Queries,
		Filters:   doc.Filters,
		Revision:  doc.Revision,
		UpdatedAt: doc.UpdatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal dashboard: %w", err)
	}
	return data, nil
}

// documentFromJSON hydrates a document. Missing sections become empty states.
func documentFromJSON(name string, data []byte) (domdash.Document, error) {
	var row documentRow
	if err := json.Unmarshal(data, &row); err != nil {
		return domdash.Document{}, fmt.Errorf("unmarshal dashboard %s: %w", name, err)
	}
	if row.Version > schemaVersion {
		return domdash.Document{}, fmt.Errorf("dashboard %s: unsupported schema version %d", name, row.Version)
	}

	doc := domdash.New(name)
	if row.Queries != nil {
		row.Queries.Normalize()
		doc.Queries = row.Queries
	}
	if row.Filters != nil {
		row.Filters.Normalize()
		doc.Filters = row.Filters
	}
	doc.Revision = row.Revision
	doc.UpdatedAt = row.UpdatedAt
	return doc, nil
}

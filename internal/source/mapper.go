package source

import (
	"github.com/JakeFAU/aka-exporter/internal/links"
	"github.com/JakeFAU/aka-exporter/internal/metrics"
)

// Mapper turns entities into Records and filters archived rows.
type Mapper struct {
	// LinkPrefix is prepended to the row key to build the AKA link.
	LinkPrefix string
	// MissingArchivedIsArchived hides rows without an IsArchived flag when true.
	MissingArchivedIsArchived bool
}

// Map returns the Record for e and whether it should be exported.
func (m Mapper) Map(e Entity) (links.Record, bool) {
	archived, ok := e.Bool(FieldArchived)
	if !ok {
		archived = m.MissingArchivedIsArchived
	}
	if archived {
		return links.Record{}, false
	}

	rowKey, _ := e.String(FieldRowKey)
	url, _ := e.String(FieldURL)
	title, _ := e.String(FieldTitle)
	clicks, _ := e.Int(FieldClicks)
	if clicks < 0 {
		clicks = 0
	}
	return links.Record{
		RowKey:  rowKey,
		AkaLink: m.LinkPrefix + rowKey,
		URL:     url,
		Clicks:  clicks,
		Title:   title,
	}, true
}

// Emit maps e and forwards it to fn when it is exported.
func (m Mapper) Emit(e Entity, fn func(links.Record) error) error {
	rec, ok := m.Map(e)
	if !ok {
		metrics.ObserveRow(metrics.RowArchived)
		return nil
	}
	metrics.ObserveRow(metrics.RowExported)
	return fn(rec)
}

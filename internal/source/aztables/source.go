// Package aztables reads link rows from Azure Table Storage.
package aztables

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"go.uber.org/zap"

	"github.com/JakeFAU/aka-exporter/internal/links"
	"github.com/JakeFAU/aka-exporter/internal/source"
)

var selectFields = strings.Join([]string{
	source.FieldRowKey,
	source.FieldURL,
	source.FieldClicks,
	source.FieldTitle,
	source.FieldArchived,
}, ",")

// Config captures the parameters required to connect to a table.
type Config struct {
	ConnectionString string
	Table            string
	Mapper           source.Mapper
}

type entityPager interface {
	More() bool
	NextPage(ctx context.Context) (aztables.ListEntitiesResponse, error)
}

// Source implements links.Source over an Azure table.
type Source struct {
	newPager func() entityPager
	table    string
	mapper   source.Mapper
	logger   *zap.Logger
}

// New creates a table-backed Source from a storage connection string.
func New(cfg Config, logger *zap.Logger) (*Source, error) {
	if strings.TrimSpace(cfg.ConnectionString) == "" {
		return nil, errors.New("connection string is required")
	}
	if cfg.Table == "" {
		return nil, errors.New("table name is required")
	}
	svc, err := aztables.NewServiceClientFromConnectionString(cfg.ConnectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("create table service client: %w", err)
	}
	client := svc.NewClient(cfg.Table)
	fields := selectFields
	return newWithPager(cfg.Table, cfg.Mapper, func() entityPager {
		return client.NewListEntitiesPager(&aztables.ListEntitiesOptions{Select: &fields})
	}, logger), nil
}

func newWithPager(table string, mapper source.Mapper, newPager func() entityPager, logger *zap.Logger) *Source {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Source{
		newPager: newPager,
		table:    table,
		mapper:   mapper,
		logger:   logger,
	}
}

// Scan pages through every entity of the table and forwards exported records to fn.
func (s *Source) Scan(ctx context.Context, fn func(links.Record) error) error {
	pager := s.newPager()
	pages := 0
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("list entities page %d of %s: %w", pages+1, s.table, err)
		}
		pages++
		for _, raw := range resp.Entities {
			entity, err := decodeEntity(raw)
			if err != nil {
				return err
			}
			if err := s.mapper.Emit(entity, fn); err != nil {
				return err
			}
		}
		s.logger.Debug("table page read", zap.String("table", s.table), zap.Int("page", pages),
			zap.Int("entities", len(resp.Entities)))
	}
	return nil
}

func decodeEntity(raw []byte) (source.MapEntity, error) {
	var edm aztables.EDMEntity
	if err := json.Unmarshal(raw, &edm); err != nil {
		return nil, fmt.Errorf("decode entity: %w", err)
	}
	entity := make(source.MapEntity, len(edm.Properties)+1)
	for k, v := range edm.Properties {
		// Edm.Int64 properties decode to a named type the generic accessors don't know.
		if n, ok := v.(aztables.EDMInt64); ok {
			v = int64(n)
		}
		entity[k] = v
	}
	if _, ok := entity[source.FieldRowKey]; !ok {
		entity[source.FieldRowKey] = edm.RowKey
	}
	return entity, nil
}

package types

import (
	"sort"

	"github.com/datazip-inc/olake-kafka/utils"
)

// Catalog is a dto for formatted airbyte catalog serialization
type Catalog struct {
	// namespace -> stream names; nil selects every stream
	SelectedStreams map[string][]string `json:"selected_streams,omitempty"`
	Streams         []*ConfiguredStream `json:"streams,omitempty"`
}

func GetWrappedCatalog(streams []*Stream) *Catalog {
	catalog := &Catalog{
		Streams:         []*ConfiguredStream{},
		SelectedStreams: make(map[string][]string),
	}
	// Loop through each stream and populate Streams and SelectedStreams
	for _, stream := range streams {
		// Create ConfiguredStream and append to Streams
		catalog.Streams = append(catalog.Streams, &ConfiguredStream{
			Stream:   stream,
			SyncMode: FULLREFRESH,
		})
		catalog.SelectedStreams[stream.Namespace] = append(catalog.SelectedStreams[stream.Namespace], stream.Name)
	}

	return catalog
}

// Selected returns configured streams picked by SelectedStreams, ordered by stream id
func (c *Catalog) Selected() []*ConfiguredStream {
	if c == nil {
		return nil
	}

	selected := []*ConfiguredStream{}
	seen := make(map[string]bool)
	for _, stream := range c.Streams {
		if stream == nil || stream.Stream == nil || seen[stream.ID()] {
			continue
		}
		if c.SelectedStreams != nil && !utils.ExistInArray(c.SelectedStreams[stream.Namespace()], stream.Name()) {
			continue
		}
		seen[stream.ID()] = true
		selected = append(selected, stream)
	}

	sort.Slice(selected, func(i, j int) bool {
		return selected[i].ID() < selected[j].ID()
	})
	return selected
}

// Validate checks the catalog has selected streams with known sync modes
func (c *Catalog) Validate() error {
	selected := c.Selected()
	if len(selected) == 0 {
		return utils.CatalogError.New("no streams selected in catalog")
	}

	for _, stream := range selected {
		if stream.Name() == "" {
			return utils.CatalogError.New("stream name missing in catalog")
		}
		if !stream.SyncMode.Valid() {
			return utils.CatalogError.New("invalid sync mode[%s] for stream[%s]; valid are %s and %s", stream.SyncMode, stream.ID(), FULLREFRESH, INCREMENTAL)
		}
	}

	return nil
}

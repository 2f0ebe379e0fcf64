package types

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/joomcode/errorx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datazip-inc/olake-kafka/utils"
)

const testCatalog = `{
	"selected_streams": {"": ["orders", "payments"]},
	"streams": [
		{"stream": {"name": "orders", "supported_sync_modes": ["full_refresh", "incremental"]}, "sync_mode": "full_refresh"},
		{"stream": {"name": "payments", "supported_sync_modes": ["full_refresh", "incremental"]}, "sync_mode": "incremental"},
		{"stream": {"name": "audit", "supported_sync_modes": ["full_refresh"]}, "sync_mode": "full_refresh"}
	]
}`

func TestCatalogSelected(t *testing.T) {
	catalog := &Catalog{}
	require.NoError(t, json.Unmarshal([]byte(testCatalog), catalog))

	selected := catalog.Selected()
	require.Len(t, selected, 2)
	assert.Equal(t, "orders", selected[0].Name())
	assert.True(t, selected[0].Bounded())
	assert.Equal(t, "payments", selected[1].Name())
	assert.False(t, selected[1].Bounded())
	assert.True(t, selected[1].Stream.SupportedSyncModes.Exists(INCREMENTAL))

	catalog.SelectedStreams = nil
	assert.Len(t, catalog.Selected(), 3, "nil selection picks every stream")
}

func TestCatalogValidate(t *testing.T) {
	testCases := []struct {
		name    string
		catalog *Catalog
		valid   bool
	}{
		{
			name:    "valid",
			catalog: &Catalog{Streams: []*ConfiguredStream{NewStream("orders", "").Wrap(FULLREFRESH)}},
			valid:   true,
		},
		{
			name:    "nothing selected",
			catalog: &Catalog{SelectedStreams: map[string][]string{}, Streams: []*ConfiguredStream{NewStream("orders", "").Wrap(FULLREFRESH)}},
		},
		{
			name:    "unknown sync mode",
			catalog: &Catalog{Streams: []*ConfiguredStream{NewStream("orders", "").Wrap("cdc")}},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.catalog.Validate()
			if tc.valid {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errorx.IsOfType(err, utils.CatalogError))
		})
	}
}

func TestGetWrappedCatalog(t *testing.T) {
	streams := []*Stream{
		NewStream("orders", "").WithSyncMode(FULLREFRESH, INCREMENTAL),
		NewStream("payments", "").WithSyncMode(FULLREFRESH, INCREMENTAL),
	}

	catalog := GetWrappedCatalog(streams)
	assert.Equal(t, []string{"orders", "payments"}, catalog.SelectedStreams[""])
	require.Len(t, catalog.Streams, 2)
	assert.Equal(t, FULLREFRESH, catalog.Streams[0].GetSyncMode())

	encoded, err := json.Marshal(catalog)
	require.NoError(t, err)
	assert.Contains(t, string(encoded), `"supported_sync_modes":["full_refresh","incremental"]`)
}

func TestConfiguredStreamSyncMode(t *testing.T) {
	source := NewStream("orders", "").WithSyncMode(FULLREFRESH)

	full := source.Wrap(FULLREFRESH)
	assert.True(t, full.Bounded())
	assert.NoError(t, full.Validate(source))

	incremental := source.Wrap(INCREMENTAL)
	assert.False(t, incremental.Bounded())
	assert.Error(t, incremental.Validate(source))
}

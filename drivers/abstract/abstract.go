package abstract

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/piyushsingariya/relec"

	"github.com/datazip-inc/olake-kafka/constants"
	"github.com/datazip-inc/olake-kafka/logger"
	"github.com/datazip-inc/olake-kafka/types"
	"github.com/datazip-inc/olake-kafka/utils"
)

// AbstractDriver runs the connector lifecycle shared by every driver
type AbstractDriver struct { //nolint:revive
	driver DriverInterface
}

func NewAbstractDriver(driver DriverInterface) *AbstractDriver {
	return &AbstractDriver{driver: driver}
}

func (a *AbstractDriver) GetConfigRef() Config {
	return a.driver.GetConfigRef()
}

func (a *AbstractDriver) Spec() any {
	return a.driver.Spec()
}

func (a *AbstractDriver) Type() string {
	return a.driver.Type()
}

func (a *AbstractDriver) Setup(ctx context.Context) error {
	return RetryOnBackoff(a.driver.MaxRetries(), constants.DefaultRetryTimeout, func() error {
		return a.driver.Setup(ctx)
	})
}

// Check sets the driver up and lists its streams without reading any data
func (a *AbstractDriver) Check(ctx context.Context) error {
	checkCtx, cancel := context.WithTimeout(ctx, constants.DefaultCheckTimeout)
	defer cancel()

	if err := a.Setup(checkCtx); err != nil {
		return err
	}

	_, err := a.driver.GetStreamNames(checkCtx)
	return err
}

// Discover returns the streams of the source sorted by id
func (a *AbstractDriver) Discover(ctx context.Context) ([]*types.Stream, error) {
	discoverCtx, cancel := context.WithTimeout(ctx, constants.DefaultDiscoverTimeout)
	defer cancel()

	names, err := a.driver.GetStreamNames(discoverCtx)
	if err != nil {
		return nil, err
	}

	if len(names) == 0 {
		return nil, nil
	}

	var mu sync.Mutex
	streams := make([]*types.Stream, 0, len(names))
	err = relec.Concurrent(discoverCtx, names, min(len(names), constants.DefaultThreadCount), func(ctx context.Context, name string, _ int) error {
		stream, err := a.driver.ProduceSchema(ctx, name)
		if err != nil {
			return err
		}

		mu.Lock()
		streams = append(streams, stream)
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(streams, func(i, j int) bool {
		return streams[i].ID() < streams[j].ID()
	})
	return streams, nil
}

// ValidateCatalog checks every selected stream exists in the source and is
// configured with a sync mode it supports
func (a *AbstractDriver) ValidateCatalog(ctx context.Context, catalog *types.Catalog) error {
	if err := catalog.Validate(); err != nil {
		return err
	}

	streams, err := a.Discover(ctx)
	if err != nil {
		return err
	}
	streamsMap := types.StreamsToMap(streams...)

	selected := []string{}
	missingStreams := []string{}
	invalidStreams := []string{}
	for _, stream := range catalog.Selected() {
		source, found := streamsMap[stream.ID()]
		if !found {
			missingStreams = append(missingStreams, stream.ID())
			continue
		}

		if err := stream.Validate(source); err != nil {
			logger.Error(err)
			invalidStreams = append(invalidStreams, stream.ID())
			continue
		}
		selected = append(selected, stream.ID())
	}

	if len(invalidStreams) > 0 && len(missingStreams) > 0 {
		return utils.CatalogError.New("found missing streams: %v and invalid streams: %v", missingStreams, invalidStreams)
	} else if len(invalidStreams) > 0 {
		return utils.CatalogError.New("found invalid streams: %v", invalidStreams)
	} else if len(missingStreams) > 0 {
		return utils.CatalogError.New("found missing streams: %v", missingStreams)
	}

	logger.Infof("Valid selected streams are %s", strings.Join(selected, ", "))
	return nil
}

// Read validates the catalog and hands the selected streams over to the driver
func (a *AbstractDriver) Read(ctx context.Context, writer *logger.MessageWriter, catalog *types.Catalog, state *types.State) error {
	if err := a.ValidateCatalog(ctx, catalog); err != nil {
		return err
	}

	return a.driver.Read(ctx, writer, catalog, state)
}

func (a *AbstractDriver) Close() error {
	return a.driver.Close()
}

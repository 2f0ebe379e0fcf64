package protocol

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/datazip-inc/olake-kafka/logger"
)

// discoverCmd represents the discover command
var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "discover command",
	PreRunE: func(_ *cobra.Command, _ []string) error {
		return loadConfig()
	},
	RunE: func(cmd *cobra.Command, _ []string) error {
		err := connector.Setup(cmd.Context())
		if err != nil {
			return err
		}
		defer func() {
			if err := connector.Close(); err != nil {
				logger.Warnf("failed to close connector: %s", err)
			}
		}()

		streams, err := connector.Discover(cmd.Context())
		if err != nil {
			return err
		}

		if len(streams) == 0 {
			return errors.New("no streams found in connector")
		}

		logger.LogCatalog(streams)
		return nil
	},
}

package protocol

import (
	"github.com/spf13/cobra"

	"github.com/datazip-inc/olake-kafka/logger"
	"github.com/datazip-inc/olake-kafka/types"
	"github.com/datazip-inc/olake-kafka/utils"
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "check command",
	PreRunE: func(_ *cobra.Command, _ []string) error {
		if err := loadConfig(); err != nil {
			return err
		}

		if streamsPath != "" {
			catalog = &types.Catalog{}
			if err := utils.UnmarshalFile(streamsPath, catalog, false); err != nil {
				return err
			}
		}

		return nil
	},
	Run: func(cmd *cobra.Command, _ []string) {
		err := func() error {
			// only perform checks
			if err := connector.Check(cmd.Context()); err != nil {
				return err
			}

			// catalog has been passed; validate it against the source streams
			if catalog != nil {
				return connector.ValidateCatalog(cmd.Context(), catalog)
			}

			return nil
		}()
		if closeErr := connector.Close(); closeErr != nil {
			logger.Warnf("failed to close connector: %s", closeErr)
		}

		logger.LogConnectionStatus(err)
	},
}

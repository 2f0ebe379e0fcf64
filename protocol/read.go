package protocol

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/datazip-inc/olake-kafka/logger"
	"github.com/datazip-inc/olake-kafka/types"
	"github.com/datazip-inc/olake-kafka/utils"
)

// readCmd represents the read command
var readCmd = &cobra.Command{
	Use:     "read",
	Aliases: []string{"sync"},
	Short:   "read command",
	PreRunE: func(_ *cobra.Command, _ []string) error {
		if streamsPath == "" {
			return fmt.Errorf("--catalog not passed")
		}

		if err := loadConfig(); err != nil {
			return err
		}

		catalog = &types.Catalog{}
		if err := utils.UnmarshalFile(streamsPath, catalog, false); err != nil {
			return err
		}

		// default state
		state = &types.State{Type: types.StreamType}
		if statePath != "" {
			if err := utils.UnmarshalFile(statePath, state, false); err != nil {
				return err
			}
		}

		return nil
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

		return connector.Read(cmd.Context(), logger.Stdout(), catalog, state)
	},
}

package protocol

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/datazip-inc/olake-kafka/constants"
	"github.com/datazip-inc/olake-kafka/drivers/abstract"
	"github.com/datazip-inc/olake-kafka/logger"
	"github.com/datazip-inc/olake-kafka/types"
	"github.com/datazip-inc/olake-kafka/utils"
)

var (
	configPath    string
	statePath     string
	streamsPath   string
	syncID        string
	batchSize     int64
	noSave        bool
	encryptionKey string

	catalog *types.Catalog
	state   *types.State

	commands  = []*cobra.Command{}
	connector *abstract.AbstractDriver
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "olake-kafka",
	Short: "kafka source connector",
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		// set global variables
		if !noSave && configPath != "" {
			viper.Set(constants.ConfigFolder, filepath.Dir(configPath))
		}
		viper.Set(constants.NoSave, noSave)
		viper.Set(constants.BatchSize, batchSize)
		if syncID != "" {
			viper.Set(constants.SyncID, syncID)
		}
		if encryptionKey != "" {
			viper.Set(constants.EncryptionKey, encryptionKey)
		}

		// logger uses CONFIG_FOLDER
		logger.Init()
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return cmd.Help()
		}

		if ok := utils.IsValidSubcommand(commands, args[0]); !ok {
			return fmt.Errorf("'%s' is an invalid command. Use 'olake-kafka --help' to display usage guide", args[0])
		}

		return nil
	},
}

func CreateRootCommand(driver abstract.DriverInterface) *cobra.Command {
	RootCmd.AddCommand(commands...)
	connector = abstract.NewAbstractDriver(driver)

	return RootCmd
}

// loadConfig reads the connector config, decrypting it when an encryption key is set
func loadConfig() error {
	if configPath == "" {
		return fmt.Errorf("--config not passed")
	}

	return utils.UnmarshalFile(configPath, connector.GetConfigRef(), true)
}

func init() {
	commands = append(commands, specCmd, checkCmd, discoverCmd, readCmd)
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "", "", "(Required) Config for connector")
	RootCmd.PersistentFlags().StringVarP(&streamsPath, "catalog", "", "", "Path to the streams file for the connector")
	RootCmd.PersistentFlags().StringVarP(&streamsPath, "streams", "", "", "Path to the streams file for the connector")
	RootCmd.PersistentFlags().StringVarP(&statePath, "state", "", "", "(Optional) State for connector")
	RootCmd.PersistentFlags().StringVarP(&syncID, "sync-id", "", "", "(Optional) Identifier of the sync in the state store")
	RootCmd.PersistentFlags().Int64VarP(&batchSize, "batch", "", constants.DefaultBatchSize, "(Optional) Records read between two state saves")
	RootCmd.PersistentFlags().BoolVarP(&noSave, "no-save", "", false, "(Optional) Flag to skip logging artifacts in file")
	RootCmd.PersistentFlags().StringVarP(&encryptionKey, "encryption-key", "", "", "(Optional) Decryption key. Provide the ARN of a KMS key, a UUID, or a custom string based on your encryption configuration.")
	// Disable Cobra CLI's built-in usage and error handling
	RootCmd.SilenceUsage = true
	RootCmd.SilenceErrors = true
}

package protocol

import (
	"github.com/invopop/jsonschema"
	"github.com/spf13/cobra"

	"github.com/datazip-inc/olake-kafka/logger"
	"github.com/datazip-inc/olake-kafka/utils"
)

// specCmd represents the spec command
var specCmd = &cobra.Command{
	Use:   "spec",
	Short: "spec command",
	RunE: func(_ *cobra.Command, _ []string) error {
		spec, err := schemaOf(connector.Spec())
		if err != nil {
			return err
		}

		logger.LogSpec(spec)
		return nil
	},
}

// schemaOf reflects the json schema of a config struct
func schemaOf(config any) (map[string]any, error) {
	reflector := jsonschema.Reflector{
		ExpandedStruct: true,
		DoNotReference: true,
	}

	spec := map[string]any{}
	if err := utils.Unmarshal(reflector.Reflect(config), &spec); err != nil {
		return nil, err
	}

	return spec, nil
}

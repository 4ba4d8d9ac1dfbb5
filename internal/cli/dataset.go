package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// datasetCmd represents the dataset command
var datasetCmd = &cobra.Command{
	Use:   "dataset <catalog.schema.table>",
	Short: "Preview a warehouse dataset",
	Long: `Preview a warehouse dataset: its column schema and a bounded sample of
rows, fetched over the warehouse SQL connection.

Example:
  steward-cli dataset main.sales.orders`,
	Args: cobra.ExactArgs(1),
	RunE: getDataset,
}

func getDataset(cmd *cobra.Command, args []string) error {
	if len(strings.Split(args[0], ".")) != 3 {
		return fmt.Errorf("invalid dataset path %q. Expected <catalog>.<schema>.<table>", args[0])
	}

	client := NewHTTPClient(GetConfig())
	response, err := client.GetResource("api/catalogs/dataset", args[0])
	if err != nil {
		return err
	}
	return printDocument(response)
}

func init() {
	rootCmd.AddCommand(datasetCmd)
}

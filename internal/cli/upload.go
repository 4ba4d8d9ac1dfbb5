package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
)

// uploadCmd represents the upload command
var uploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Upload data product definitions from a YAML or JSON file",
	Long: `Upload data product definitions from a YAML or JSON file. The file may
hold a single product document or a list of them. Each item is created
independently; failures are reported per item.

Example:
  steward-cli upload products.yaml
  steward-cli upload product.json`,
	Args: cobra.ExactArgs(1),
	RunE: uploadFile,
}

func uploadFile(cmd *cobra.Command, args []string) error {
	filename := args[0]
	content, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("unable to read %s: %v", filename, err)
	}

	client := NewHTTPClient(GetConfig())
	response, err := client.UploadFile("api/data-products/upload", filepath.Base(filename), content)
	if err != nil {
		var httpErr *HTTPError
		if errors.As(err, &httpErr) && len(httpErr.Body) > 0 {
			printUploadErrors(httpErr.Body)
		}
		return err
	}

	if jsonOutput {
		return printRawJSON(response)
	}

	created := gjson.ParseBytes(response).Array()
	fmt.Printf("Created %d data product(s)\n", len(created))
	for _, item := range created {
		fmt.Printf("- %s\n", item.Get("id").String())
	}
	return nil
}

// printUploadErrors renders the per-item failures of a rejected upload.
func printUploadErrors(body []byte) {
	for _, e := range gjson.GetBytes(body, "errors").Array() {
		id := e.Get("id").String()
		if id == "" {
			id = "(unknown)"
		}
		fmt.Fprintf(os.Stderr, "- %s: %s\n", id, e.Get("error").String())
	}
}

func init() {
	rootCmd.AddCommand(uploadCmd)
}

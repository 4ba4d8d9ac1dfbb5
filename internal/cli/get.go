package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"sigs.k8s.io/yaml"
)

// getCmd represents the get command
var getCmd = &cobra.Command{
	Use:   "get <resourceType>[/<ref>]",
	Short: "List resources of a type, or get one by id or name",
	Long: `List resources of a type, or get one by id or name.
Supported resource types include:
  - products
  - domains
  - teams
  - policies
  - notifications

Example:
  steward-cli get products
  steward-cli get products/customer-orders-v1
  steward-cli get domains/finance
  steward-cli get teams`,
	Args: cobra.ExactArgs(1),
	RunE: getResource,
}

func getResource(cmd *cobra.Command, args []string) error {
	parts := strings.SplitN(args[0], "/", 2)

	resourcePath, err := mapResourceArg(parts[0])
	if err != nil {
		return err
	}

	client := NewHTTPClient(GetConfig())

	if len(parts) == 2 {
		response, err := client.GetResource(resourcePath, parts[1])
		if err != nil {
			return err
		}
		return printDocument(response)
	}

	response, err := client.ListResources(resourcePath, nil)
	if err != nil {
		return err
	}

	if jsonOutput {
		return printRawJSON(response)
	}

	var items []map[string]any
	if err := json.Unmarshal(response, &items); err != nil {
		return fmt.Errorf("failed to parse response: %v", err)
	}

	fmt.Printf("%s:\n", cases.Title(language.English).String(parts[0]))
	for _, item := range items {
		fmt.Printf("- %s\n", itemLabel(item))
	}
	return nil
}

// itemLabel renders one listing line: the id plus the human name when the
// document carries one.
func itemLabel(item map[string]any) string {
	id, _ := item["id"].(string)
	name, _ := item["name"].(string)
	if name == "" {
		name, _ = item["title"].(string)
	}
	if name == "" || name == id {
		return id
	}
	return fmt.Sprintf("%s (%s)", id, name)
}

// printDocument prints a single JSON document as YAML, or as indented JSON
// with --json.
func printDocument(response []byte) error {
	if jsonOutput {
		return printRawJSON(response)
	}
	var doc map[string]any
	if err := json.Unmarshal(response, &doc); err != nil {
		return fmt.Errorf("failed to parse response: %v", err)
	}
	yamlBytes, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to convert to YAML: %v", err)
	}
	fmt.Println(string(yamlBytes))
	return nil
}

// printRawJSON re-indents a JSON response for display.
func printRawJSON(response []byte) error {
	var data any
	if err := json.Unmarshal(response, &data); err != nil {
		return fmt.Errorf("failed to parse response: %v", err)
	}
	jsonBytes, err := json.MarshalIndent(data, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to format JSON output: %v", err)
	}
	fmt.Println(string(jsonBytes))
	return nil
}

func init() {
	rootCmd.AddCommand(getCmd)
}

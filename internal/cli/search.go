package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the catalog by title, description, or tag prefix",
	Long: `Search the catalog by title, description, or tag prefix. Matches data
products, data domains, and teams.

Example:
  steward-cli search customer
  steward-cli search "orders"`,
	Args: cobra.ExactArgs(1),
	RunE: searchResources,
}

type searchResult struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Link        string `json:"link"`
}

func searchResources(cmd *cobra.Command, args []string) error {
	client := NewHTTPClient(GetConfig())
	response, err := client.ListResources("api/search", map[string]string{"q": args[0]})
	if err != nil {
		return err
	}

	if jsonOutput {
		return printRawJSON(response)
	}

	var results []searchResult
	if err := json.Unmarshal(response, &results); err != nil {
		return fmt.Errorf("failed to parse response: %v", err)
	}

	if len(results) == 0 {
		fmt.Println("No results.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TYPE\tTITLE\tLINK")
	for _, r := range results {
		fmt.Fprintf(w, "%s\t%s\t%s\n", r.Type, r.Title, r.Link)
	}
	return w.Flush()
}

func init() {
	rootCmd.AddCommand(searchCmd)
}

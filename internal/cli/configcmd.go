package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Config create flags
	configServer string
	configAPIKey string
)

// configCmd represents the config command group
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the steward-cli configuration",
}

var configCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create the steward-cli configuration file",
	Long: `Create the steward-cli configuration file at ~/.steward/config.yaml.

Example:
  steward-cli config create --server localhost:8291
  steward-cli config create --server steward.example.com:443 --api-key TOKEN`,
	RunE: createConfig,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current steward-cli configuration",
	RunE:  showConfig,
}

func createConfig(cmd *cobra.Command, args []string) error {
	cfg := &Config{
		Version: "1.0",
		Server:  configServer,
		APIKey:  configAPIKey,
	}
	if err := cfg.ValidateConfig(); err != nil {
		return err
	}

	path := configFile
	if path == "" {
		var err error
		path, err = GetDefaultConfigPath()
		if err != nil {
			return err
		}
	}
	if err := cfg.WriteConfig(path); err != nil {
		return err
	}

	if jsonOutput {
		printJSON(map[string]string{"config": path})
	} else {
		fmt.Printf("Wrote configuration to %s\n", path)
	}
	return nil
}

func showConfig(cmd *cobra.Command, args []string) error {
	if err := LoadConfig(configFile); err != nil {
		return err
	}
	cfg := GetConfig()
	if jsonOutput {
		printJSON(map[string]string{
			"server": cfg.GetServerURL(),
		})
		return nil
	}
	cfg.Print()
	return nil
}

func init() {
	configCreateCmd.Flags().StringVarP(&configServer, "server", "s", "", "Steward server host:port")
	configCreateCmd.MarkFlagRequired("server")
	configCreateCmd.Flags().StringVarP(&configAPIKey, "api-key", "k", "", "Bearer token for the server")

	configCmd.AddCommand(configCreateCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}

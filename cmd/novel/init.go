package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

//go:embed templates/novel.yaml
var configTemplate embed.FS

// configFileName is the default site-rules file name.
const configFileName = ".novel"

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new site-rules file",
		Long: `Initialize creates a new .novel site-rules file in the current directory.

The generated file includes:
- Commented examples for per-host extraction rules
- Documentation for all available options

Examples:
  # Create .novel in current directory
  novel init

  # Create the file at a specific path
  novel init -o myrules.yaml

  # Force overwrite existing file
  novel init -f`,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", configFileName,
		"Output file path for the site-rules file")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing site-rules file")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	// Check if file already exists
	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("site-rules file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	// Read template from embedded filesystem
	content, err := configTemplate.ReadFile("templates/novel.yaml")
	if err != nil {
		return fmt.Errorf("failed to read site-rules template: %w", err)
	}

	// Create parent directories if needed
	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	// Write site-rules file
	if err := os.WriteFile(outputPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write site-rules file: %w", err)
	}

	fmt.Printf("Created site-rules file: %s\n", outputPath)
	fmt.Println("\nEdit this file to configure per-host settings such as:")
	fmt.Println("  - CSS selectors for chapter text and titles")
	fmt.Println("  - Extra boilerplate patterns to strip")
	fmt.Println("  - Authentication cookies and headers")

	return nil
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/complyon/aiact-engine/internal/core/domain"
	"github.com/complyon/aiact-engine/internal/infrastructure/catalog"
)

func newCatalogCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect and convert requirement catalogs",
	}
	cmd.AddCommand(newCatalogShowCommand(), newCatalogImportCommand())
	return cmd
}

func newCatalogShowCommand() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the requirement catalog the engine would load",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var (
				snapshot *domain.CatalogSnapshot
				err      error
			)
			if path != "" {
				snapshot, err = catalog.LoadYAML(path)
			} else {
				snapshot, err = catalog.LoadDefault()
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "catalog version %s, %d requirements\n\n", snapshot.Version(), snapshot.Len())
			for _, rec := range snapshot.Records() {
				tier := string(rec.Tier)
				if rec.General {
					tier = "general"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-28s %-13s sev=%.2f  %s\n", rec.ID, tier, rec.Severity, rec.Title)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&path, "file", "f", "", "YAML catalog to show instead of the embedded one")
	return cmd
}

// newCatalogImportCommand turns a spreadsheet maintained by legal
// teams into the YAML format the engine loads.
func newCatalogImportCommand() *cobra.Command {
	var (
		xlsxPath string
		version  string
		outPath  string
	)
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Convert an XLSX requirement catalog to YAML",
		RunE: func(cmd *cobra.Command, _ []string) error {
			snapshot, err := catalog.LoadXLSX(xlsxPath, version)
			if err != nil {
				return err
			}

			doc := struct {
				Version      string                     `yaml:"version"`
				Requirements []domain.RequirementRecord `yaml:"requirements"`
			}{
				Version:      snapshot.Version(),
				Requirements: snapshot.Records(),
			}
			payload, err := yaml.Marshal(doc)
			if err != nil {
				return fmt.Errorf("marshal catalog yaml: %w", err)
			}

			if outPath == "" || outPath == "-" {
				_, err = cmd.OutOrStdout().Write(payload)
				return err
			}
			if err := os.WriteFile(outPath, payload, 0o644); err != nil {
				return fmt.Errorf("write catalog yaml: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d requirements to %s\n", snapshot.Len(), outPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "path to the XLSX catalog")
	cmd.Flags().StringVar(&version, "version", "", "catalog version label for the converted file")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output YAML path, - for stdout")
	_ = cmd.MarkFlagRequired("xlsx")
	_ = cmd.MarkFlagRequired("version")
	return cmd
}

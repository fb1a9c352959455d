package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/complyon/aiact-engine/internal/bootstrap"
	"github.com/complyon/aiact-engine/internal/config"
	"github.com/complyon/aiact-engine/internal/core/domain"
	"github.com/complyon/aiact-engine/internal/core/usecase"
)

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "aiactctl",
		Short:         "EU AI Act compliance analysis from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newAnalyzeCommand(),
		newValidateCommand(),
		newSamplesCommand(),
		newCatalogCommand(),
	)
	return root
}

func newAnalyzeCommand() *cobra.Command {
	var (
		file       string
		sampleName string
		asJSON     bool
	)
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run a full compliance analysis for a system description",
		RunE: func(cmd *cobra.Command, _ []string) error {
			system, err := resolveSystem(file, sampleName)
			if err != nil {
				return err
			}

			analyzer, err := bootstrap.NewLocalAnalyzer(cmd.Context(), config.Load())
			if err != nil {
				return err
			}

			start := time.Now()
			report, err := analyzer.Analyze(cmd.Context(), system)
			if err != nil {
				return err
			}

			if asJSON {
				return printJSON(cmd.OutOrStdout(), report)
			}
			printReport(cmd.OutOrStdout(), report, time.Since(start))
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "path to a system description JSON file, or - for stdin")
	cmd.Flags().StringVar(&sampleName, "sample", "", "analyze a built-in sample system instead of a file")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw report as JSON")
	return cmd
}

func newValidateCommand() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a system description and preview its risk tier",
		RunE: func(cmd *cobra.Command, _ []string) error {
			system, err := resolveSystem(file, "")
			if err != nil {
				return err
			}
			if err := system.Validate(); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"valid":     true,
				"risk_tier": usecase.ClassifyRisk(system),
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "path to a system description JSON file, or - for stdin")
	return cmd
}

func newSamplesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "samples",
		Short: "Print the built-in sample system descriptions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printJSON(cmd.OutOrStdout(), sampleSystems())
		},
	}
}

func resolveSystem(file, sampleName string) (domain.SystemDescription, error) {
	if sampleName != "" {
		samples := sampleSystems()
		system, ok := samples[sampleName]
		if !ok {
			names := make([]string, 0, len(samples))
			for name := range samples {
				names = append(names, name)
			}
			return domain.SystemDescription{}, fmt.Errorf("unknown sample %q, available: %s", sampleName, strings.Join(names, ", "))
		}
		return system, nil
	}
	if file == "" {
		return domain.SystemDescription{}, fmt.Errorf("either --file or --sample is required")
	}

	var reader io.Reader
	if file == "-" {
		reader = os.Stdin
	} else {
		f, err := os.Open(file)
		if err != nil {
			return domain.SystemDescription{}, fmt.Errorf("open description file: %w", err)
		}
		defer f.Close()
		reader = f
	}

	var system domain.SystemDescription
	if err := json.NewDecoder(reader).Decode(&system); err != nil {
		return domain.SystemDescription{}, fmt.Errorf("decode description: %w", err)
	}
	return system, nil
}

func printReport(w io.Writer, report *domain.ComplianceReport, elapsed time.Duration) {
	line := strings.Repeat("=", 60)
	fmt.Fprintf(w, "%s\nANALYZING: %s\n%s\n", line, report.SystemName, line)
	fmt.Fprintf(w, "\nRisk Tier: %s\n", strings.ToUpper(string(report.Tier)))
	fmt.Fprintf(w, "Compliance Score: %.2f\n", report.ComplianceScore)
	fmt.Fprintf(w, "Confidence: %s\n", report.ConfidenceLevel)
	fmt.Fprintf(w, "Analysis Time: %.2f seconds\n", elapsed.Seconds())

	fmt.Fprintf(w, "\nEXECUTIVE SUMMARY:\n%s\n", report.ExecutiveSummary)

	fmt.Fprintf(w, "\nKEY RISKS (%d):\n", len(report.KeyRisks))
	for i, risk := range report.KeyRisks {
		fmt.Fprintf(w, "%d. %s\n", i+1, risk)
	}

	fmt.Fprintf(w, "\nIMMEDIATE ACTIONS (%d):\n", len(report.ImmediateActions))
	for i, action := range report.ImmediateActions {
		fmt.Fprintf(w, "%d. %s\n", i+1, action)
	}

	fmt.Fprintf(w, "\nRECOMMENDATIONS (%d):\n", len(report.Recommendations))
	for _, rec := range report.Recommendations {
		fmt.Fprintf(w, "%d. [%s effort] %s\n", rec.Priority, rec.Effort, rec.Title)
	}

	fmt.Fprintf(w, "\nEstimated Compliance Time: %s\n", report.EstimatedComplianceTime)
	if report.Degraded {
		fmt.Fprintln(w, "NOTE: analysis completed on fallback paths, treat results as preliminary")
	}
}

func printJSON(w io.Writer, payload any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(payload)
}

func sampleSystems() map[string]domain.SystemDescription {
	return map[string]domain.SystemDescription{
		"chatbot": {
			Name:              "Customer Service Chatbot",
			Description:       "AI-powered chatbot for customer service inquiries on e-commerce website. Uses natural language processing to understand customer questions and provide automated responses. Does not make financial decisions or access sensitive data.",
			Domain:            domain.DomainGeneralPurpose,
			DataTypes:         []domain.DataType{domain.DataTextDocuments, domain.DataPublic},
			DeploymentContext: domain.DeployOnlinePlatform,
			Features:          domain.FeatureFlags{ConversationalInterface: true},
			TargetUsers:       "Website visitors and customers",
			GeographicScope:   []string{"EU", "US"},
			EstimatedUsers:    10000,
			DevelopmentStage:  "production",
		},
		"hiring": {
			Name:              "Resume Screening System",
			Description:       "AI system for automated resume screening and candidate ranking in recruitment process. Analyzes resumes, extracts skills and experience, scores candidates based on job requirements. Used to filter applications before human review.",
			Domain:            domain.DomainEmployment,
			DataTypes:         []domain.DataType{domain.DataPersonal, domain.DataTextDocuments},
			DeploymentContext: domain.DeployWorkplace,
			Features:          domain.FeatureFlags{AutomatedDecisions: true},
			TargetUsers:       "HR recruiters and hiring managers",
			GeographicScope:   []string{"EU"},
			EstimatedUsers:    500,
			DevelopmentStage:  "production",
		},
		"medical": {
			Name:              "Medical Image Analysis",
			Description:       "AI system for analyzing medical images (X-rays, MRIs) to assist radiologists in detecting anomalies and potential diseases. Provides probability scores for various conditions but does not make final diagnostic decisions. Requires physician oversight for all outputs.",
			Domain:            domain.DomainHealthcare,
			DataTypes:         []domain.DataType{domain.DataHealth, domain.DataAudioVisual, domain.DataPersonal},
			DeploymentContext: domain.DeployHealthcare,
			TargetUsers:       "Radiologists and medical professionals",
			GeographicScope:   []string{"EU"},
			EstimatedUsers:    200,
			DevelopmentStage:  "testing",
			RiskMitigation:    "Human physician oversight required for all outputs, encrypted data storage, access logs maintained",
		},
	}
}

// Package mcpadapter exposes the compliance engine as Model Context
// Protocol tools so LLM agents can run analyses over stdio.
package mcpadapter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/complyon/aiact-engine/internal/core/domain"
	"github.com/complyon/aiact-engine/internal/core/ports"
	"github.com/complyon/aiact-engine/internal/core/usecase"
)

type Server struct {
	analyzer ports.ComplianceAnalyzer
	mcp      *server.MCPServer
}

func NewServer(analyzer ports.ComplianceAnalyzer, version string) *Server {
	s := &Server{
		analyzer: analyzer,
		mcp: server.NewMCPServer(
			"aiact-engine",
			version,
			server.WithToolCapabilities(false),
		),
	}
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	analyzeTool := mcp.NewTool("analyze_ai_system",
		mcp.WithDescription("Run a full EU AI Act compliance analysis for an AI system description and return the report as JSON."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Short name of the AI system")),
		mcp.WithString("description", mcp.Required(), mcp.Description("Free-text description of what the system does, at least 10 characters")),
		mcp.WithString("domain", mcp.Required(), mcp.Description("Primary application domain, e.g. employment, healthcare, finance")),
		mcp.WithArray("data_types", mcp.Required(), mcp.Description("Data categories the system processes, e.g. personal_data, biometric_data")),
		mcp.WithString("deployment_context", mcp.Description("Where the system is deployed, e.g. workplace, public_space, cloud_service")),
	)
	s.mcp.AddTool(analyzeTool, s.handleAnalyze)

	validateTool := mcp.NewTool("classify_risk_tier",
		mcp.WithDescription("Classify an AI system description into its EU AI Act risk tier without running the full analysis."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Short name of the AI system")),
		mcp.WithString("description", mcp.Required(), mcp.Description("Free-text description of what the system does")),
		mcp.WithString("domain", mcp.Required(), mcp.Description("Primary application domain")),
		mcp.WithArray("data_types", mcp.Required(), mcp.Description("Data categories the system processes")),
		mcp.WithString("deployment_context", mcp.Description("Where the system is deployed")),
	)
	s.mcp.AddTool(validateTool, s.handleClassify)

	tiersTool := mcp.NewTool("list_risk_tiers",
		mcp.WithDescription("List the EU AI Act risk tiers with a summary and examples for each."),
	)
	s.mcp.AddTool(tiersTool, s.handleListTiers)
}

func (s *Server) handleAnalyze(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	system, err := systemFromRequest(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	report, err := s.analyzer.Analyze(ctx, system)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("analysis failed: %v", err)), nil
	}

	payload, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}
	return mcp.NewToolResultText(string(payload)), nil
}

func (s *Server) handleClassify(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	system, err := systemFromRequest(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	payload, err := json.Marshal(map[string]any{
		"risk_tier": usecase.ClassifyRisk(system),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal classification: %w", err)
	}
	return mcp.NewToolResultText(string(payload)), nil
}

func (s *Server) handleListTiers(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	payload, err := json.MarshalIndent(domain.TierProfiles(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal tier profiles: %w", err)
	}
	return mcp.NewToolResultText(string(payload)), nil
}

// ServeStdio blocks serving the MCP protocol on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

func systemFromRequest(request mcp.CallToolRequest) (domain.SystemDescription, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return domain.SystemDescription{}, err
	}
	description, err := request.RequireString("description")
	if err != nil {
		return domain.SystemDescription{}, err
	}
	appDomain, err := request.RequireString("domain")
	if err != nil {
		return domain.SystemDescription{}, err
	}

	system := domain.SystemDescription{
		Name:              name,
		Description:       description,
		Domain:            domain.ApplicationDomain(appDomain),
		DeploymentContext: domain.DeploymentContext(request.GetString("deployment_context", "")),
	}
	for _, raw := range request.GetStringSlice("data_types", nil) {
		system.DataTypes = append(system.DataTypes, domain.DataType(raw))
	}

	if err := system.Validate(); err != nil {
		return domain.SystemDescription{}, err
	}
	return system, nil
}

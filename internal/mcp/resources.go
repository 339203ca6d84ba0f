// ABOUTME: MCP resource implementations for medical records.
// ABOUTME: Provides medrec://recent, medrec://stats and medrec://risks resources.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/medrec/internal/analysis"
)

const (
	recentURI = "medrec://recent"
	statsURI  = "medrec://stats"
	risksURI  = "medrec://risks"
)

// recentLimit is how many records medrec://recent shows.
const recentLimit = 10

func (s *Server) registerResources() {
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         recentURI,
		Name:        "Recent Medical Records",
		Description: "The 10 most recent medical records",
		MIMEType:    "application/json",
	}, s.handleRecentResource)

	s.mcpServer.AddResource(&mcp.Resource{
		URI:         statsURI,
		Name:        "Dashboard Statistics",
		Description: "Record count, averages and high-risk counts",
		MIMEType:    "application/json",
	}, s.handleStatsResource)

	s.mcpServer.AddResource(&mcp.Resource{
		URI:         risksURI,
		Name:        "Risk Analysis",
		Description: "Cholesterol statistics and every flagged record with its flags",
		MIMEType:    "application/json",
	}, s.handleRisksResource)
}

// Resource handlers

func (s *Server) handleRecentResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	list, err := s.records.Snapshot(s.owner.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	total := len(list)
	if len(list) > recentLimit {
		list = list[:recentLimit]
	}

	return jsonResource(recentURI, map[string]interface{}{
		"owner":   s.owner.Username,
		"total":   total,
		"records": list,
	})
}

func (s *Server) handleStatsResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	snapshot, err := s.records.Snapshot(s.owner.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	return jsonResource(statsURI, analysis.ComputeStats(snapshot))
}

func (s *Server) handleRisksResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	snapshot, err := s.records.Snapshot(s.owner.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	return jsonResource(risksURI, analysis.ComputeAnalysis(snapshot))
}

func jsonResource(uri string, v interface{}) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// ABOUTME: MCP tool implementations for medical records.
// ABOUTME: CRUD over the owner's records plus dashboard stats and risk analysis.
package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/medrec/internal/analysis"
	"github.com/harperreed/medrec/internal/models"
)

func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "add_record",
		Description: "Create a medical record (patient name and age required)",
	}, s.handleAddRecord)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_records",
		Description: "List medical records newest first, optionally filtered by a search over patient name and notes",
	}, s.handleListRecords)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_record",
		Description: "Get one medical record by ID",
	}, s.handleGetRecord)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "update_record",
		Description: "Replace every field of a medical record; omitted optional fields are cleared",
	}, s.handleUpdateRecord)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "delete_record",
		Description: "Delete a medical record by ID",
	}, s.handleDeleteRecord)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "dashboard_stats",
		Description: "Record count, average age and cholesterol, and high cholesterol / high systolic counts",
	}, s.handleDashboardStats)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "analyze_records",
		Description: "Aggregate cholesterol stats plus every record flagged for high cholesterol or blood pressure",
	}, s.handleAnalyzeRecords)
}

// Tool input/output types

type recordInput struct {
	PatientName   string `json:"patient_name" jsonschema:"Patient name"`
	Age           int    `json:"age" jsonschema:"Age in years, must be positive"`
	BloodPressure string `json:"blood_pressure,omitempty" jsonschema:"Blood pressure as systolic/diastolic, e.g. 120/80"`
	Cholesterol   int    `json:"cholesterol,omitempty" jsonschema:"Total cholesterol in mg/dL"`
	Notes         string `json:"notes,omitempty" jsonschema:"Free-text clinical notes"`
	Date          string `json:"date,omitempty" jsonschema:"Date of the reading (YYYY-MM-DD)"`
}

type updateRecordInput struct {
	ID            int64  `json:"id" jsonschema:"Record ID"`
	PatientName   string `json:"patient_name" jsonschema:"Patient name"`
	Age           int    `json:"age" jsonschema:"Age in years, must be positive"`
	BloodPressure string `json:"blood_pressure,omitempty" jsonschema:"Blood pressure as systolic/diastolic, e.g. 120/80"`
	Cholesterol   int    `json:"cholesterol,omitempty" jsonschema:"Total cholesterol in mg/dL"`
	Notes         string `json:"notes,omitempty" jsonschema:"Free-text clinical notes"`
	Date          string `json:"date,omitempty" jsonschema:"Date of the reading (YYYY-MM-DD)"`
}

func (in updateRecordInput) record() recordInput {
	return recordInput{
		PatientName:   in.PatientName,
		Age:           in.Age,
		BloodPressure: in.BloodPressure,
		Cholesterol:   in.Cholesterol,
		Notes:         in.Notes,
		Date:          in.Date,
	}
}

type recordIDInput struct {
	ID int64 `json:"id" jsonschema:"Record ID"`
}

type listRecordsInput struct {
	Search string `json:"search,omitempty" jsonschema:"Case-insensitive text to match in patient name or notes"`
	Limit  int    `json:"limit,omitempty" jsonschema:"Max results (default 20)"`
}

type recordOutput struct {
	ID      int64    `json:"id"`
	Flags   []string `json:"flags"`
	Message string   `json:"message"`
}

type simpleOutput struct {
	Message string `json:"message"`
}

func (in recordInput) fields() (models.RecordFields, error) {
	f := models.RecordFields{PatientName: in.PatientName, Age: in.Age}
	if in.BloodPressure != "" {
		f.BloodPressure = &in.BloodPressure
	}
	if in.Cholesterol != 0 {
		f.Cholesterol = &in.Cholesterol
	}
	if in.Notes != "" {
		f.Notes = &in.Notes
	}
	if in.Date != "" {
		d, err := models.ParseDate(in.Date)
		if err != nil {
			return f, fmt.Errorf("invalid date %q (use YYYY-MM-DD)", in.Date)
		}
		f.Date = &d
	}
	return f, nil
}

// Tool handlers

func (s *Server) handleAddRecord(ctx context.Context, req *mcp.CallToolRequest, input recordInput) (*mcp.CallToolResult, recordOutput, error) {
	fields, err := input.fields()
	if err != nil {
		return nil, recordOutput{}, err
	}

	r, err := s.records.Create(s.owner.ID, fields)
	if err != nil {
		return nil, recordOutput{}, fmt.Errorf("failed to create record: %w", err)
	}

	flags := analysis.Assess(r)
	return nil, recordOutput{
		ID:      r.ID,
		Flags:   flags,
		Message: fmt.Sprintf("Added record %d for %s%s", r.ID, r.PatientName, flagSuffix(flags)),
	}, nil
}

func (s *Server) handleListRecords(ctx context.Context, req *mcp.CallToolRequest, input listRecordsInput) (*mcp.CallToolResult, any, error) {
	if input.Limit <= 0 {
		input.Limit = 20
	}

	list, err := s.records.List(s.owner.ID, input.Search)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list records: %w", err)
	}

	if len(list) == 0 {
		return nil, map[string]interface{}{"message": "No records found."}, nil
	}
	if len(list) > input.Limit {
		list = list[:input.Limit]
	}
	return nil, list, nil
}

func (s *Server) handleGetRecord(ctx context.Context, req *mcp.CallToolRequest, input recordIDInput) (*mcp.CallToolResult, any, error) {
	r, err := s.records.Get(s.owner.ID, input.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("record not found: %d", input.ID)
	}
	return nil, r, nil
}

func (s *Server) handleUpdateRecord(ctx context.Context, req *mcp.CallToolRequest, input updateRecordInput) (*mcp.CallToolResult, recordOutput, error) {
	fields, err := input.record().fields()
	if err != nil {
		return nil, recordOutput{}, err
	}

	r, err := s.records.Update(s.owner.ID, input.ID, fields)
	if err != nil {
		return nil, recordOutput{}, fmt.Errorf("failed to update record %d: %w", input.ID, err)
	}

	flags := analysis.Assess(r)
	return nil, recordOutput{
		ID:      r.ID,
		Flags:   flags,
		Message: fmt.Sprintf("Updated record %d%s", r.ID, flagSuffix(flags)),
	}, nil
}

func (s *Server) handleDeleteRecord(ctx context.Context, req *mcp.CallToolRequest, input recordIDInput) (*mcp.CallToolResult, simpleOutput, error) {
	if err := s.records.Delete(s.owner.ID, input.ID); err != nil {
		return nil, simpleOutput{}, fmt.Errorf("failed to delete record %d: %w", input.ID, err)
	}
	return nil, simpleOutput{Message: fmt.Sprintf("Deleted record %d", input.ID)}, nil
}

func (s *Server) handleDashboardStats(ctx context.Context, req *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, analysis.DashboardStats, error) {
	snapshot, err := s.records.Snapshot(s.owner.ID)
	if err != nil {
		return nil, analysis.DashboardStats{}, fmt.Errorf("failed to load records: %w", err)
	}
	return nil, analysis.ComputeStats(snapshot), nil
}

func (s *Server) handleAnalyzeRecords(ctx context.Context, req *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, any, error) {
	snapshot, err := s.records.Snapshot(s.owner.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load records: %w", err)
	}
	return nil, analysis.ComputeAnalysis(snapshot), nil
}

func flagSuffix(flags []string) string {
	if len(flags) == 0 {
		return ""
	}
	return fmt.Sprintf(" (flags: %v)", flags)
}

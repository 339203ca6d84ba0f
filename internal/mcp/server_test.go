// ABOUTME: Tests for MCP server, tools, and resources.
// ABOUTME: Covers NewServer, record tool handlers, and resource handlers.
package mcp

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/medrec/internal/models"
	"github.com/harperreed/medrec/internal/records"
	"github.com/harperreed/medrec/internal/storage"
)

// setupTestServer creates a SQLite-backed server for a fresh user.
func setupTestServer(t *testing.T) *Server {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "medrec-mcp-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { _ = os.RemoveAll(tmpDir) })

	db, err := storage.Open(filepath.Join(tmpDir, "medrec.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	owner := models.NewUser("alice", "hash")
	if err := db.CreateUser(owner); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	server, err := NewServer(records.NewStore(db), owner)
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	return server
}

func TestNewServer(t *testing.T) {
	server := setupTestServer(t)

	if server.mcpServer == nil {
		t.Error("Expected non-nil mcpServer")
	}
	if server.records == nil {
		t.Error("Expected non-nil records")
	}

	if _, err := NewServer(nil, &models.User{ID: 1}); err == nil {
		t.Error("Expected error without a store")
	}
}

func TestHandleAddRecord(t *testing.T) {
	server := setupTestServer(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		input     recordInput
		wantFlags int
		wantErr   bool
	}{
		{
			name:  "minimal record",
			input: recordInput{PatientName: "Jane", Age: 30},
		},
		{
			name: "flagged record",
			input: recordInput{
				PatientName:   "John",
				Age:           50,
				BloodPressure: "150/95",
				Cholesterol:   210,
				Date:          "2024-01-02",
			},
			wantFlags: 3,
		},
		{
			name:    "missing name",
			input:   recordInput{Age: 30},
			wantErr: true,
		},
		{
			name:    "bad date",
			input:   recordInput{PatientName: "Jane", Age: 30, Date: "next week"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, output, err := server.handleAddRecord(ctx, &mcp.CallToolRequest{}, tt.input)
			if tt.wantErr {
				if err == nil {
					t.Error("Expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if output.ID == 0 {
				t.Error("Expected non-zero ID")
			}
			if len(output.Flags) != tt.wantFlags {
				t.Errorf("Flags = %v, want %d", output.Flags, tt.wantFlags)
			}
			if output.Message == "" {
				t.Error("Expected non-empty message")
			}
		})
	}
}

func TestHandleListRecords(t *testing.T) {
	server := setupTestServer(t)
	ctx := context.Background()

	_, out, err := server.handleListRecords(ctx, &mcp.CallToolRequest{}, listRecordsInput{})
	if err != nil {
		t.Fatalf("handleListRecords failed: %v", err)
	}
	if m, ok := out.(map[string]interface{}); !ok || m["message"] != "No records found." {
		t.Errorf("empty list output = %v", out)
	}

	for _, name := range []string{"Ann", "Bea", "Cal"} {
		if _, _, err := server.handleAddRecord(ctx, &mcp.CallToolRequest{}, recordInput{PatientName: name, Age: 40}); err != nil {
			t.Fatalf("handleAddRecord failed: %v", err)
		}
	}

	_, out, err = server.handleListRecords(ctx, &mcp.CallToolRequest{}, listRecordsInput{Limit: 2})
	if err != nil {
		t.Fatalf("handleListRecords failed: %v", err)
	}
	list, ok := out.([]*models.MedicalRecord)
	if !ok || len(list) != 2 {
		t.Fatalf("limited list = %v", out)
	}

	_, out, _ = server.handleListRecords(ctx, &mcp.CallToolRequest{}, listRecordsInput{Search: "BEA"})
	list, ok = out.([]*models.MedicalRecord)
	if !ok || len(list) != 1 || list[0].PatientName != "Bea" {
		t.Errorf("search result = %v", out)
	}
}

func TestHandleGetUpdateDeleteRecord(t *testing.T) {
	server := setupTestServer(t)
	ctx := context.Background()

	_, added, err := server.handleAddRecord(ctx, &mcp.CallToolRequest{}, recordInput{PatientName: "Jane", Age: 30, Notes: "first"})
	if err != nil {
		t.Fatalf("handleAddRecord failed: %v", err)
	}

	_, got, err := server.handleGetRecord(ctx, &mcp.CallToolRequest{}, recordIDInput{ID: added.ID})
	if err != nil {
		t.Fatalf("handleGetRecord failed: %v", err)
	}
	if r := got.(*models.MedicalRecord); r.PatientName != "Jane" {
		t.Errorf("PatientName = %s, want Jane", r.PatientName)
	}

	_, updated, err := server.handleUpdateRecord(ctx, &mcp.CallToolRequest{}, updateRecordInput{
		ID: added.ID, PatientName: "Jane", Age: 31, Cholesterol: 250,
	})
	if err != nil {
		t.Fatalf("handleUpdateRecord failed: %v", err)
	}
	if len(updated.Flags) != 1 || updated.Flags[0] != "High Cholesterol" {
		t.Errorf("Flags = %v", updated.Flags)
	}

	_, got, _ = server.handleGetRecord(ctx, &mcp.CallToolRequest{}, recordIDInput{ID: added.ID})
	if r := got.(*models.MedicalRecord); r.Notes != nil || r.Age != 31 {
		t.Errorf("update did not replace fields: %+v", r)
	}

	if _, _, err := server.handleDeleteRecord(ctx, &mcp.CallToolRequest{}, recordIDInput{ID: added.ID}); err != nil {
		t.Fatalf("handleDeleteRecord failed: %v", err)
	}
	if _, _, err := server.handleGetRecord(ctx, &mcp.CallToolRequest{}, recordIDInput{ID: added.ID}); err == nil {
		t.Error("Expected error getting deleted record")
	}
	if _, _, err := server.handleDeleteRecord(ctx, &mcp.CallToolRequest{}, recordIDInput{ID: added.ID}); err == nil {
		t.Error("Expected error deleting twice")
	}
	if _, _, err := server.handleUpdateRecord(ctx, &mcp.CallToolRequest{}, updateRecordInput{ID: 999, PatientName: "X", Age: 1}); err == nil {
		t.Error("Expected error updating missing record")
	}
}

func TestHandleStatsAndAnalysis(t *testing.T) {
	server := setupTestServer(t)
	ctx := context.Background()

	_, _, err := server.handleAddRecord(ctx, &mcp.CallToolRequest{}, recordInput{
		PatientName: "John", Age: 50, Cholesterol: 210, BloodPressure: "150/95",
	})
	if err != nil {
		t.Fatalf("handleAddRecord failed: %v", err)
	}

	_, stats, err := server.handleDashboardStats(ctx, &mcp.CallToolRequest{}, struct{}{})
	if err != nil {
		t.Fatalf("handleDashboardStats failed: %v", err)
	}
	if stats.TotalRecords != 1 || stats.HighBPCount != 1 || stats.HighCholesterolCount != 1 {
		t.Errorf("stats = %+v", stats)
	}

	_, out, err := server.handleAnalyzeRecords(ctx, &mcp.CallToolRequest{}, struct{}{})
	if err != nil {
		t.Fatalf("handleAnalyzeRecords failed: %v", err)
	}
	data, _ := json.Marshal(out)
	if !strings.Contains(string(data), `"flags":["High Cholesterol","High Systolic BP","High Diastolic BP"]`) {
		t.Errorf("analysis = %s", data)
	}
}

func TestResources(t *testing.T) {
	server := setupTestServer(t)
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		if _, _, err := server.handleAddRecord(ctx, &mcp.CallToolRequest{}, recordInput{PatientName: "P", Age: 40 + i, Cholesterol: 190 + i*2}); err != nil {
			t.Fatalf("handleAddRecord failed: %v", err)
		}
	}

	tests := []struct {
		name    string
		uri     string
		handler func(context.Context, *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error)
		want    string
	}{
		{"recent", recentURI, server.handleRecentResource, `"total": 12`},
		{"stats", statsURI, server.handleStatsResource, `"total_records": 12`},
		{"risks", risksURI, server.handleRisksResource, `"High Cholesterol"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := tt.handler(ctx, &mcp.ReadResourceRequest{})
			if err != nil {
				t.Fatalf("handler failed: %v", err)
			}
			if len(result.Contents) != 1 {
				t.Fatalf("Expected 1 content, got %d", len(result.Contents))
			}
			c := result.Contents[0]
			if c.URI != tt.uri || c.MIMEType != "application/json" {
				t.Errorf("content = %s / %s", c.URI, c.MIMEType)
			}
			if !strings.Contains(c.Text, tt.want) {
				t.Errorf("content missing %q:\n%s", tt.want, c.Text)
			}
		})
	}

	result, _ := server.handleRecentResource(ctx, &mcp.ReadResourceRequest{})
	var recent struct {
		Records []json.RawMessage `json:"records"`
	}
	if err := json.Unmarshal([]byte(result.Contents[0].Text), &recent); err != nil {
		t.Fatalf("recent is not JSON: %v", err)
	}
	if len(recent.Records) != recentLimit {
		t.Errorf("recent has %d records, want %d", len(recent.Records), recentLimit)
	}
}

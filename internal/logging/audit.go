// Audit logging for inspectd. Audit events are structured JSONL records of
// inspection lifecycle changes and MCP tool executions, written alongside the
// category logs. Only active in debug mode.
package logging

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// AuditEventType defines the type of audit event
type AuditEventType string

const (
	// Inspection lifecycle events
	AuditInspectionCreate   AuditEventType = "inspection_create"
	AuditInspectionNavigate AuditEventType = "inspection_navigate"
	AuditInspectionComplete AuditEventType = "inspection_complete"
	AuditInspectionCancel   AuditEventType = "inspection_cancel"

	// Finding events
	AuditFindingAdd AuditEventType = "finding_add"

	// Tool execution events
	AuditToolInvoke   AuditEventType = "tool_invoke"
	AuditToolComplete AuditEventType = "tool_complete"
	AuditToolError    AuditEventType = "tool_error"

	// Library events
	AuditLibraryReload AuditEventType = "library_reload"

	// Error events
	AuditErrorGeneric AuditEventType = "error_generic"
)

// AuditEvent represents a structured audit log entry
type AuditEvent struct {
	Timestamp    int64                  `json:"ts"`                // Unix milliseconds
	EventType    AuditEventType         `json:"event"`             // Event type
	Category     string                 `json:"cat,omitempty"`     // Log category
	InspectionID string                 `json:"inspection,omitempty"` // Inspection correlation
	Target       string                 `json:"target,omitempty"`  // Target of operation (section, tool, file)
	Action       string                 `json:"action,omitempty"`  // Action being performed
	Success      bool                   `json:"success"`           // Operation succeeded
	DurationMs   int64                  `json:"dur_ms,omitempty"`  // Duration in milliseconds
	Error        string                 `json:"error,omitempty"`   // Error message if failed
	Message      string                 `json:"msg"`               // Human-readable message
	Fields       map[string]interface{} `json:"fields,omitempty"`  // Additional structured fields
}

var (
	auditFile   *os.File
	auditMu     sync.Mutex
	auditLogger *AuditLogger
)

// AuditLogger handles structured audit logging
type AuditLogger struct {
	inspectionID string
	category     Category
}

// InitAudit initializes the audit logging system
func InitAudit() error {
	if !IsDebugMode() {
		return nil
	}

	auditMu.Lock()
	defer auditMu.Unlock()

	if auditFile != nil {
		return nil // Already initialized
	}

	date := time.Now().Format("2006-01-02")
	auditPath := filepath.Join(logsDir, fmt.Sprintf("%s_audit.log", date))

	file, err := os.OpenFile(auditPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}
	auditFile = file

	header := fmt.Sprintf("# Audit log started at %s\n", time.Now().Format(time.RFC3339))
	auditFile.WriteString(header)

	return nil
}

// CloseAudit closes the audit log file
func CloseAudit() {
	auditMu.Lock()
	defer auditMu.Unlock()

	if auditFile != nil {
		auditFile.Close()
		auditFile = nil
	}
}

// Audit returns the global audit logger
func Audit() *AuditLogger {
	if auditLogger == nil {
		auditLogger = &AuditLogger{}
	}
	return auditLogger
}

// AuditWithInspection creates an audit logger scoped to an inspection
func AuditWithInspection(inspectionID string) *AuditLogger {
	return &AuditLogger{inspectionID: inspectionID}
}

// Log writes an audit event
func (a *AuditLogger) Log(event AuditEvent) {
	if !IsDebugMode() || auditFile == nil {
		return
	}

	// Fill in defaults
	if event.Timestamp == 0 {
		event.Timestamp = time.Now().UnixMilli()
	}
	if event.InspectionID == "" && a.inspectionID != "" {
		event.InspectionID = a.inspectionID
	}
	if event.Category == "" && a.category != "" {
		event.Category = string(a.category)
	}

	auditMu.Lock()
	defer auditMu.Unlock()

	data, err := json.Marshal(event)
	if err == nil {
		auditFile.WriteString(string(data) + "\n")
	}
}

// =============================================================================
// CONVENIENCE METHODS FOR COMMON EVENTS
// =============================================================================

// InspectionCreate logs a new inspection
func (a *AuditLogger) InspectionCreate(inspectionID, checklistID, property string) {
	a.Log(AuditEvent{
		EventType:    AuditInspectionCreate,
		InspectionID: inspectionID,
		Target:       checklistID,
		Success:      true,
		Fields:       map[string]interface{}{"property": property},
		Message:      fmt.Sprintf("Inspection created: %s (checklist=%s)", inspectionID, checklistID),
	})
}

// InspectionNavigate logs a section transition
func (a *AuditLogger) InspectionNavigate(inspectionID, section string) {
	a.Log(AuditEvent{
		EventType:    AuditInspectionNavigate,
		InspectionID: inspectionID,
		Target:       section,
		Success:      true,
		Message:      fmt.Sprintf("Navigated: %s -> %s", inspectionID, section),
	})
}

// InspectionComplete logs an inspection completion
func (a *AuditLogger) InspectionComplete(inspectionID string, visited, total int) {
	a.Log(AuditEvent{
		EventType:    AuditInspectionComplete,
		InspectionID: inspectionID,
		Success:      true,
		Fields:       map[string]interface{}{"visited": visited, "total": total},
		Message:      fmt.Sprintf("Inspection completed: %s (%d/%d sections)", inspectionID, visited, total),
	})
}

// InspectionCancel logs an inspection cancellation
func (a *AuditLogger) InspectionCancel(inspectionID string) {
	a.Log(AuditEvent{
		EventType:    AuditInspectionCancel,
		InspectionID: inspectionID,
		Success:      true,
		Message:      fmt.Sprintf("Inspection cancelled: %s", inspectionID),
	})
}

// FindingAdd logs a recorded finding
func (a *AuditLogger) FindingAdd(inspectionID, section, severity string) {
	a.Log(AuditEvent{
		EventType:    AuditFindingAdd,
		InspectionID: inspectionID,
		Target:       section,
		Success:      true,
		Fields:       map[string]interface{}{"severity": severity},
		Message:      fmt.Sprintf("Finding added: %s @ %s (%s)", inspectionID, section, severity),
	})
}

// ToolExec logs an MCP tool execution
func (a *AuditLogger) ToolExec(toolName string, durationMs int64, success bool, errMsg string) {
	eventType := AuditToolComplete
	if !success {
		eventType = AuditToolError
	}
	a.Log(AuditEvent{
		EventType:  eventType,
		Target:     toolName,
		Success:    success,
		DurationMs: durationMs,
		Error:      errMsg,
		Message:    fmt.Sprintf("Tool %s: success=%v (%dms)", toolName, success, durationMs),
	})
}

// LibraryReload logs a comment library reload
func (a *AuditLogger) LibraryReload(path string, success bool, errMsg string) {
	a.Log(AuditEvent{
		EventType: AuditLibraryReload,
		Target:    path,
		Success:   success,
		Error:     errMsg,
		Message:   fmt.Sprintf("Library reload: %s (success=%v)", path, success),
	})
}

// ErrorEvent logs a generic error
func (a *AuditLogger) ErrorEvent(category Category, errMsg string) {
	a.Log(AuditEvent{
		EventType: AuditErrorGeneric,
		Category:  string(category),
		Success:   false,
		Error:     errMsg,
		Message:   fmt.Sprintf("Error in %s: %s", category, errMsg),
	})
}

package mcp

import (
	"context"
	"errors"
	"testing"
)

func TestNewRegistry(t *testing.T) {
	reg := NewRegistry()
	if reg == nil {
		t.Fatal("NewRegistry returned nil")
	}
	if reg.Count() != 0 {
		t.Errorf("new registry should be empty, got %d tools", reg.Count())
	}
}

func TestRegisterAndGet(t *testing.T) {
	reg := NewRegistry()

	tool := &Tool{
		Name:        "test_tool",
		Description: "A test tool",
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			return "success", nil
		},
		Schema: ToolSchema{
			Required: []string{},
		},
	}

	if err := reg.Register(tool); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	got := reg.Get("test_tool")
	if got == nil {
		t.Fatal("Get returned nil for registered tool")
	}
	if got.Name != "test_tool" {
		t.Errorf("got name %q, want %q", got.Name, "test_tool")
	}
	if !reg.Has("test_tool") {
		t.Error("Has returned false for registered tool")
	}
	if reg.Has("other_tool") {
		t.Error("Has returned true for unregistered tool")
	}
}

func TestRegisterDuplicate(t *testing.T) {
	reg := NewRegistry()

	tool := &Tool{
		Name: "dupe",
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			return "", nil
		},
	}

	if err := reg.Register(tool); err != nil {
		t.Fatalf("first Register failed: %v", err)
	}
	if err := reg.Register(tool); !errors.Is(err, ErrToolAlreadyRegistered) {
		t.Errorf("second Register: got %v, want ErrToolAlreadyRegistered", err)
	}
}

func TestRegisterInvalid(t *testing.T) {
	reg := NewRegistry()

	noName := &Tool{
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			return "", nil
		},
	}
	if err := reg.Register(noName); !errors.Is(err, ErrToolNameEmpty) {
		t.Errorf("nameless tool: got %v, want ErrToolNameEmpty", err)
	}

	noExec := &Tool{Name: "no_exec"}
	if err := reg.Register(noExec); !errors.Is(err, ErrToolExecuteNil) {
		t.Errorf("execute-less tool: got %v, want ErrToolExecuteNil", err)
	}
}

func TestNamesSorted(t *testing.T) {
	reg := NewRegistry()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		reg.MustRegister(&Tool{
			Name: name,
			Execute: func(ctx context.Context, args map[string]any) (string, error) {
				return "", nil
			},
		})
	}

	names := reg.Names()
	want := []string{"alpha", "mid", "zeta"}
	if len(names) != len(want) {
		t.Fatalf("got %d names, want %d", len(names), len(want))
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d] = %q, want %q", i, names[i], want[i])
		}
	}

	all := reg.All()
	for i := range want {
		if all[i].Name != want[i] {
			t.Errorf("All()[%d].Name = %q, want %q", i, all[i].Name, want[i])
		}
	}
}

func TestExecuteUnknownTool(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Execute(context.Background(), "ghost", nil)
	if !errors.Is(err, ErrToolNotFound) {
		t.Errorf("got %v, want ErrToolNotFound", err)
	}
}

func TestExecuteMissingRequiredArg(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(&Tool{
		Name: "needs_id",
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			t.Fatal("Execute should not run when a required arg is missing")
			return "", nil
		},
		Schema: ToolSchema{Required: []string{"id"}},
	})

	result, err := reg.Execute(context.Background(), "needs_id", map[string]any{})
	if !errors.Is(err, ErrMissingRequiredArg) {
		t.Fatalf("got %v, want ErrMissingRequiredArg", err)
	}
	if result == nil || result.IsSuccess() {
		t.Error("expected a failed ToolResult")
	}
}

func TestExecuteSuccess(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(&Tool{
		Name: "echo",
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			s, _ := args["value"].(string)
			return s, nil
		},
		Schema: ToolSchema{Required: []string{"value"}},
	})

	result, err := reg.Execute(context.Background(), "echo", map[string]any{"value": "hello"})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result.Result != "hello" {
		t.Errorf("got result %q, want %q", result.Result, "hello")
	}
	if result.ToolName != "echo" {
		t.Errorf("got tool name %q, want %q", result.ToolName, "echo")
	}
	if !result.IsSuccess() {
		t.Error("IsSuccess should be true")
	}
	if result.DurationMs < 0 {
		t.Errorf("negative duration %d", result.DurationMs)
	}
}

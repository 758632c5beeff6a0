package source

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"parapet-hq/parapet/pkg/policy/engine"
)

func discardTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writePolicy(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

const employeePolicy = `endpoint: employee_lookup
policies:
  input:
    - condition: "user.role == 'anonymous'"
      action: deny
      reason: "Authentication required"
  output:
    - condition: "response.department == 'HR' && user.role != 'admin'"
      action: filter_fields
      fields: [salary]
    - condition: "user.role != 'admin'"
      action: mask_fields
      fields: [email]
sensitive_fields:
  - ssn
  - employment.salary
`

func TestFileSource_LoadSingleFile(t *testing.T) {
	dir := t.TempDir()
	path := writePolicy(t, dir, "employee.yaml", employeePolicy)

	sets, err := NewFileSource(path, nil).Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(sets) != 1 {
		t.Fatalf("got %d sets, want 1", len(sets))
	}

	set := sets[0]
	if set.Endpoint != "employee_lookup" {
		t.Errorf("Endpoint = %q", set.Endpoint)
	}
	if len(set.Input) != 1 || len(set.Output) != 2 {
		t.Errorf("got %d input / %d output rules", len(set.Input), len(set.Output))
	}
	if set.Input[0].Action != engine.ActionDeny {
		t.Errorf("input action = %q", set.Input[0].Action)
	}
	if set.Input[0].Phase != engine.PhaseInput {
		t.Errorf("input phase not normalized: %q", set.Input[0].Phase)
	}
	if set.Output[0].Action != engine.ActionFilterFields || set.Output[0].Fields[0] != "salary" {
		t.Errorf("output rule 0 = %q %v", set.Output[0].Action, set.Output[0].Fields)
	}
	if !set.Sensitivity.Sensitive("employment.salary") {
		t.Error("sensitivity annotation not loaded")
	}
	if set.Sensitivity.Sensitive("name") {
		t.Error("unannotated path reported sensitive")
	}
}

func TestFileSource_LoadDirectory(t *testing.T) {
	dir := t.TempDir()
	writePolicy(t, dir, "a.yaml", "endpoint: a\npolicies:\n  input:\n    - condition: \"false\"\n      action: deny\n      reason: no\n")
	sub := filepath.Join(dir, "nested")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	writePolicy(t, sub, "b.yml", "endpoint: b\npolicies:\n  input:\n    - condition: \"false\"\n      action: deny\n      reason: no\n")
	// Non-policy and hidden files are ignored.
	writePolicy(t, dir, "README.md", "not a policy")
	writePolicy(t, dir, ".draft.yaml", "endpoint: draft")

	sets, err := NewFileSource(dir, nil).Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(sets) != 2 {
		t.Fatalf("got %d sets, want 2", len(sets))
	}
	names := map[string]bool{}
	for _, s := range sets {
		names[s.Endpoint] = true
	}
	if !names["a"] || !names["b"] {
		t.Errorf("loaded endpoints = %v", names)
	}
}

func TestFileSource_MultiDocumentFile(t *testing.T) {
	dir := t.TempDir()
	path := writePolicy(t, dir, "all.yaml",
		"endpoint: a\npolicies:\n  input:\n    - condition: \"false\"\n      action: deny\n      reason: no\n"+
			"---\n"+
			"endpoint: b\npolicies: {}\n")

	sets, err := NewFileSource(path, nil).Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(sets) != 2 {
		t.Errorf("got %d sets, want 2", len(sets))
	}
}

func TestFileSource_CompileErrorIsFatal(t *testing.T) {
	dir := t.TempDir()
	writePolicy(t, dir, "good.yaml", "endpoint: good\npolicies: {}\n")
	writePolicy(t, dir, "bad.yaml",
		"endpoint: bad\npolicies:\n  input:\n    - condition: \"user.role ==\"\n      action: deny\n      reason: no\n")

	_, err := NewFileSource(dir, nil).Load(context.Background())
	var compileErr *CompileError
	if !errors.As(err, &compileErr) {
		t.Fatalf("Load error = %v, want CompileError", err)
	}
	if compileErr.Endpoint != "bad" || compileErr.Phase != "input" || compileErr.Rule != 0 {
		t.Errorf("error context = %q/%s/%d", compileErr.Endpoint, compileErr.Phase, compileErr.Rule)
	}
}

func TestFileSource_InvalidRuleRejected(t *testing.T) {
	dir := t.TempDir()
	path := writePolicy(t, dir, "bad.yaml",
		"endpoint: x\npolicies:\n  input:\n    - condition: \"true\"\n      action: filter_fields\n      fields: [a]\n")

	_, err := NewFileSource(path, nil).Load(context.Background())
	if err == nil {
		t.Fatal("field action in input phase should be rejected at load")
	}
	var cfgErr *engine.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Errorf("Load error = %v, want wrapped ConfigurationError", err)
	}
}

func TestFileSource_DuplicateEndpointRejected(t *testing.T) {
	dir := t.TempDir()
	writePolicy(t, dir, "a.yaml", "endpoint: dup\npolicies: {}\n")
	writePolicy(t, dir, "b.yaml", "endpoint: dup\npolicies: {}\n")

	if _, err := NewFileSource(dir, nil).Load(context.Background()); err == nil {
		t.Fatal("duplicate endpoint across files should be rejected")
	}
}

func TestFileSource_MissingPath(t *testing.T) {
	_, err := NewFileSource(filepath.Join(t.TempDir(), "absent.yaml"), nil).Load(context.Background())
	var loadErr *LoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("Load error = %v, want LoadError", err)
	}
}

func TestFileSource_MalformedYAML(t *testing.T) {
	dir := t.TempDir()
	path := writePolicy(t, dir, "bad.yaml", "endpoint: [unclosed\n")

	if _, err := NewFileSource(path, nil).Load(context.Background()); err == nil {
		t.Fatal("malformed YAML should be rejected")
	}
}

func TestFileSource_UnknownFieldRejected(t *testing.T) {
	dir := t.TempDir()
	path := writePolicy(t, dir, "bad.yaml", "endpoint: x\npolices: {}\n")

	if _, err := NewFileSource(path, nil).Load(context.Background()); err == nil {
		t.Fatal("misspelled top-level key should be rejected")
	}
}

func TestMemorySource_RegisterAndLoad(t *testing.T) {
	src := NewMemorySource()
	if err := src.Register(&engine.EndpointPolicySet{Endpoint: "a"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	sets, err := src.Load(context.Background())
	if err != nil || len(sets) != 1 {
		t.Fatalf("Load = %v sets, err %v", len(sets), err)
	}

	src.Remove("a")
	sets, _ = src.Load(context.Background())
	if len(sets) != 0 {
		t.Errorf("Remove left %d sets", len(sets))
	}
}

func TestMemorySource_RegisterValidates(t *testing.T) {
	src := NewMemorySource()
	err := src.Register(&engine.EndpointPolicySet{
		Endpoint: "x",
		Output:   []engine.PolicyRule{{}},
	})
	if err == nil {
		t.Fatal("rule without condition should be rejected")
	}
}

package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"parapet-hq/parapet/pkg/pel"
	"parapet-hq/parapet/pkg/policy/engine"
)

// maxPolicyFileSize bounds a single policy file. Definitions are small;
// anything larger is a mistake.
const maxPolicyFileSize = 1 << 20

// policyDocument is the YAML shape of one endpoint's policy definition.
// A file may hold several documents separated by "---".
type policyDocument struct {
	Endpoint string `yaml:"endpoint"`
	Policies struct {
		Input  []ruleDocument `yaml:"input"`
		Output []ruleDocument `yaml:"output"`
	} `yaml:"policies"`
	Sensitivity []string `yaml:"sensitive_fields"`
}

type ruleDocument struct {
	Condition string   `yaml:"condition"`
	Action    string   `yaml:"action"`
	Fields    []string `yaml:"fields"`
	Reason    string   `yaml:"reason"`
}

// FileSource loads endpoint policy sets from a YAML file or a directory
// tree of .yaml/.yml files.
type FileSource struct {
	path   string
	logger *slog.Logger
}

// NewFileSource creates a source for path, which may name a single file or
// a directory searched recursively. Hidden files and directories are
// skipped.
func NewFileSource(path string, logger *slog.Logger) *FileSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileSource{path: path, logger: logger}
}

// Path returns the file or directory the source reads from.
func (s *FileSource) Path() string { return s.path }

// Load reads, decodes, and compiles every policy definition under the
// source path. Any unreadable file, malformed document, or condition that
// fails to compile aborts the whole load; on a reload the caller keeps the
// previously installed sets.
func (s *FileSource) Load(ctx context.Context) ([]*engine.EndpointPolicySet, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &LoadError{Path: s.path, Message: "not found", Cause: err}
		}
		return nil, &LoadError{Path: s.path, Message: "cannot access", Cause: err}
	}

	var files []string
	if info.IsDir() {
		files, err = collectPolicyFiles(s.path)
		if err != nil {
			return nil, err
		}
		if len(files) == 0 {
			return nil, &LoadError{Path: s.path, Message: "no policy files found"}
		}
	} else {
		files = []string{s.path}
	}

	var sets []*engine.EndpointPolicySet
	seen := make(map[string]string)
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		loaded, err := loadFile(file)
		if err != nil {
			return nil, err
		}
		for _, set := range loaded {
			if prev, ok := seen[set.Endpoint]; ok {
				return nil, &LoadError{
					Path:    file,
					Message: fmt.Sprintf("endpoint %q already defined in %s", set.Endpoint, prev),
				}
			}
			seen[set.Endpoint] = file
		}
		sets = append(sets, loaded...)
	}

	s.logger.Info("policy definitions loaded",
		"path", s.path,
		"files", len(files),
		"endpoints", len(sets),
	)
	return sets, nil
}

// loadFile decodes every YAML document in one file and compiles its rules.
func loadFile(path string) ([]*engine.EndpointPolicySet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Message: "cannot read", Cause: err}
	}
	if len(data) > maxPolicyFileSize {
		return nil, &LoadError{Path: path, Message: fmt.Sprintf("exceeds %d byte limit", maxPolicyFileSize)}
	}
	if !utf8.Valid(data) {
		return nil, &LoadError{Path: path, Message: "not valid UTF-8"}
	}

	var sets []*engine.EndpointPolicySet
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	for {
		var doc policyDocument
		if err := dec.Decode(&doc); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, &LoadError{Path: path, Message: "invalid YAML", Cause: err}
		}
		set, err := buildPolicySet(path, &doc)
		if err != nil {
			return nil, err
		}
		sets = append(sets, set)
	}
	if len(sets) == 0 {
		return nil, &LoadError{Path: path, Message: "no policy documents"}
	}
	return sets, nil
}

// buildPolicySet compiles one decoded document into a validated policy set.
func buildPolicySet(path string, doc *policyDocument) (*engine.EndpointPolicySet, error) {
	if doc.Endpoint == "" {
		return nil, &LoadError{Path: path, Message: "document missing endpoint name"}
	}

	set := &engine.EndpointPolicySet{Endpoint: doc.Endpoint}

	for i, rd := range doc.Policies.Input {
		rule, err := compileRule(path, doc.Endpoint, "input", i, rd)
		if err != nil {
			return nil, err
		}
		set.Input = append(set.Input, rule)
	}
	for i, rd := range doc.Policies.Output {
		rule, err := compileRule(path, doc.Endpoint, "output", i, rd)
		if err != nil {
			return nil, err
		}
		set.Output = append(set.Output, rule)
	}

	if len(doc.Sensitivity) > 0 {
		set.Sensitivity = make(engine.SchemaSensitivity, len(doc.Sensitivity))
		for _, p := range doc.Sensitivity {
			set.Sensitivity[p] = true
		}
	}

	if err := set.Validate(); err != nil {
		return nil, &LoadError{Path: path, Message: "invalid policy set", Cause: err}
	}
	return set, nil
}

func compileRule(path, endpoint, phase string, index int, rd ruleDocument) (engine.PolicyRule, error) {
	if rd.Condition == "" {
		return engine.PolicyRule{}, &CompileError{
			Path: path, Endpoint: endpoint, Phase: phase, Rule: index,
			Cause: errors.New("missing condition"),
		}
	}
	expr, err := pel.Compile(rd.Condition)
	if err != nil {
		return engine.PolicyRule{}, &CompileError{
			Path: path, Endpoint: endpoint, Phase: phase, Rule: index, Cause: err,
		}
	}
	return engine.PolicyRule{
		Condition: expr,
		Action:    engine.ActionKind(rd.Action),
		Fields:    rd.Fields,
		Reason:    rd.Reason,
	}, nil
}

// collectPolicyFiles walks dir and returns every .yaml/.yml file, skipping
// hidden entries. The result is sorted by WalkDir's lexical order so loads
// are deterministic.
func collectPolicyFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if strings.HasPrefix(d.Name(), ".") && path != dir {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if hasPolicyExtension(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, &LoadError{Path: dir, Message: "cannot walk directory", Cause: err}
	}
	return files, nil
}

func hasPolicyExtension(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

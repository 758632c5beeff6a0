package source

import "fmt"

// LoadError reports a failure to read or decode one policy file.
type LoadError struct {
	Path    string
	Message string
	Cause   error
}

func (e *LoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("policy file %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("policy file %s: %s", e.Path, e.Message)
}

func (e *LoadError) Unwrap() error { return e.Cause }

// CompileError reports a condition that failed to compile, pinpointing the
// endpoint and rule it came from. Compile failures are fatal to a load:
// a policy that cannot be evaluated must not be silently skipped.
type CompileError struct {
	Path     string
	Endpoint string
	Phase    string
	Rule     int
	Cause    error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("policy file %s: endpoint %q %s rule %d: %v",
		e.Path, e.Endpoint, e.Phase, e.Rule, e.Cause)
}

func (e *CompileError) Unwrap() error { return e.Cause }

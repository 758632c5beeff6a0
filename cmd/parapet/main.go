// Parapet is a policy enforcement engine for data-serving endpoints.
//
// It evaluates declarative policies before an endpoint executes (denying
// disallowed requests) and after it executes (filtering, masking, or
// withholding response fields), with every decision written to an audit
// trail.
//
// Usage:
//
//	# Validate policy files without loading them
//	parapet lint --dir policies/
//
//	# Evaluate a condition against a JSON context
//	parapet eval "user.role == 'admin'" --context ctx.json
//
//	# Query the decision audit trail
//	parapet audit query --endpoint employee_lookup --decision deny
//
//	# Show version information
//	parapet version
package main

func main() {
	Execute()
}

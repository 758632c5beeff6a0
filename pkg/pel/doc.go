// Package pel provides parsing, static checking, and evaluation for PEL
// (Parapet Expression Language), the condition language used by endpoint
// policy rules.
//
// # Architecture
//
// The package is organized into subpackages:
//
// - ast: Abstract Syntax Tree definitions and the dynamic Value variant
// - lexer: tokenization of condition strings
// - parser: parsing and static checking
// - eval: tree-walking evaluation against an environment
// - errors: rich compile errors with position and suggestions
//
// # Basic Usage
//
// Compile a condition once, evaluate it per request:
//
//	expr, err := pel.Compile("user.role != 'admin' && quantity > 10")
//	if err != nil {
//	    log.Fatal(err) // syntax or static type error
//	}
//
//	env := eval.MapEnv{
//	    "user":     ast.FromGo(map[string]interface{}{"role": "guest"}),
//	    "quantity": ast.Number(25),
//	}
//	denied, err := expr.EvaluateBool(env)
//
// # Language
//
// PEL supports comparisons (==, !=, <, >, <=, >=), logical operators
// (&&, ||, !), membership (in), dotted field access and indexing, the string
// methods contains/startsWith/endsWith, the collection predicates exists/all
// with a bound iteration variable, list literals, and date arithmetic via
// now(), timestamp() and duration().
//
// Identifier resolution is dynamic: names are looked up in the evaluation
// environment at runtime, and unresolved names evaluate to null. Syntax
// errors and statically-impossible operator applications fail at compile
// time; type mismatches over runtime data surface as *eval.RuntimeError.
//
// Evaluation performs no I/O and has no side effects, so conditions cannot
// become hidden call sites regardless of what policy authors write.
package pel

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"parapet-hq/parapet/pkg/pel"
	"parapet-hq/parapet/pkg/pel/ast"
	"parapet-hq/parapet/pkg/pel/eval"
)

var evalFlags struct {
	contextFile string
}

var evalCmd = &cobra.Command{
	Use:   "eval <condition>",
	Short: "Evaluate a condition against a JSON context",
	Long: `Compile a condition and evaluate it against bindings from a JSON file.

The context file maps binding names to values, exactly as an endpoint
invocation would provide them:

  {
    "user": {"role": "admin", "permissions": ["read"]},
    "quantity": 500
  }

Examples:
  # Check compilation only
  parapet eval "user.role == 'admin'"

  # Evaluate against a context
  parapet eval "quantity > 100" --context ctx.json`,
	Args: cobra.ExactArgs(1),
	RunE: runEval,
}

func init() {
	rootCmd.AddCommand(evalCmd)

	evalCmd.Flags().StringVar(&evalFlags.contextFile, "context", "", "JSON file of bindings")
}

func runEval(cmd *cobra.Command, args []string) error {
	expr, err := pel.Compile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "compile error:\n%v\n", err)
		return fmt.Errorf("condition does not compile")
	}

	if evalFlags.contextFile == "" {
		fmt.Println("OK: condition compiles")
		return nil
	}

	data, err := os.ReadFile(evalFlags.contextFile)
	if err != nil {
		return fmt.Errorf("read context: %w", err)
	}
	var bindings map[string]interface{}
	if err := json.Unmarshal(data, &bindings); err != nil {
		return fmt.Errorf("parse context: %w", err)
	}

	env := make(eval.MapEnv, len(bindings))
	for name, v := range bindings {
		env[name] = ast.FromGo(v)
	}

	result, err := expr.Evaluate(env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "runtime error: %v\n", err)
		return fmt.Errorf("evaluation failed")
	}
	fmt.Println(result.String())
	return nil
}

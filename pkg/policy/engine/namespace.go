package engine

import (
	"log/slog"

	"parapet-hq/parapet/pkg/pel/ast"
	"parapet-hq/parapet/pkg/pel/eval"
)

// Reserved binding names. Caller parameters never shadow these; precedence
// is applied here at context-construction time rather than by scope
// chaining in the evaluator.
const (
	reservedUser     = "user"
	reservedResponse = "response"
)

// userValue converts a UserContext into the map value bound as "user".
// Empty identity fields bind as null so conditions like user.email == null
// hold for anonymous callers and providers that omit a field.
func userValue(user *UserContext) ast.Value {
	if user == nil {
		user = AnonymousUser()
	}

	perms := make([]ast.Value, len(user.Permissions))
	for i, p := range user.Permissions {
		perms[i] = ast.String(p)
	}
	groups := make([]ast.Value, len(user.Groups))
	for i, g := range user.Groups {
		groups[i] = ast.String(g)
	}

	return ast.Map(map[string]ast.Value{
		"id":          stringOrNull(user.ID),
		"email":       stringOrNull(user.Email),
		"name":        stringOrNull(user.Name),
		"role":        ast.String(user.Role),
		"permissions": ast.List(perms),
		"groups":      ast.List(groups),
		"provider":    stringOrNull(user.Provider),
	})
}

func stringOrNull(s string) ast.Value {
	if s == "" {
		return ast.Null()
	}
	return ast.String(s)
}

// inputEnv builds the input-phase evaluation context: the reserved user
// binding plus the validated caller parameters. A parameter literally named
// "user" loses to the reserved binding; the collision is non-fatal and is
// logged as a warning advising a rename.
func inputEnv(endpoint string, user *UserContext, params map[string]interface{}, logger *slog.Logger) eval.MapEnv {
	env := make(eval.MapEnv, len(params)+1)
	for name, v := range params {
		if name == reservedUser {
			logger.Warn("caller parameter collides with reserved binding and is ignored",
				"endpoint", endpoint,
				"parameter", name,
				"suggestion", "rename the endpoint parameter",
			)
			continue
		}
		env[name] = ast.FromGo(v)
	}
	env[reservedUser] = userValue(user)
	return env
}

// outputEnv builds the output-phase evaluation context. Only user and
// response are bound; caller parameters are not exposed after execution.
func outputEnv(user *UserContext, response interface{}) eval.MapEnv {
	return eval.MapEnv{
		reservedUser:     userValue(user),
		reservedResponse: ast.FromGo(response),
	}
}

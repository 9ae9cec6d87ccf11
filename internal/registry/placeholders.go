package registry

import (
	"fmt"
	"strings"
)

// PlaceholderContext supplies the current selection/context values a plugin
// template may reference.
type PlaceholderContext struct {
	Name          string
	Namespace     string
	Target        string
	Resource      string
	Context       string
	Cluster       string
	User          string
	Scope         string
	AllNamespaces bool
	Args          string
	Extra         string
}

// ErrMissingArg is returned when a placeholder cannot be resolved, e.g.
// `{name}` with no selection.
type ErrMissingArg struct {
	Placeholder string
}

func (e *ErrMissingArg) Error() string {
	return fmt.Sprintf("registry: placeholder %q could not be resolved", e.Placeholder)
}

// Substitute expands {name}, {namespace}, {target}, {resource}, {context},
// {cluster}, {user}, {scope}, {all_namespaces}, {args}, {extra} in template
// using ctx, returning ErrMissingArg for any placeholder whose value is
// empty. {all_namespaces} is a boolean and therefore always resolved:
// false is a valid value, not a missing one.
func Substitute(template string, ctx PlaceholderContext) (string, error) {
	values := map[string]string{
		"name":      ctx.Name,
		"namespace": ctx.Namespace,
		"target":    ctx.Target,
		"resource":  ctx.Resource,
		"context":   ctx.Context,
		"cluster":   ctx.Cluster,
		"user":      ctx.User,
		"scope":     ctx.Scope,
		"args":      ctx.Args,
		"extra":     ctx.Extra,
	}

	var b strings.Builder
	i := 0
	for i < len(template) {
		open := strings.IndexByte(template[i:], '{')
		if open == -1 {
			b.WriteString(template[i:])
			break
		}
		b.WriteString(template[i : i+open])
		start := i + open
		close := strings.IndexByte(template[start:], '}')
		if close == -1 {
			b.WriteString(template[start:])
			break
		}
		name := template[start+1 : start+close]
		if name == "all_namespaces" {
			b.WriteString(boolStr(ctx.AllNamespaces))
			i = start + close + 1
			continue
		}
		val, known := values[name]
		if !known {
			// Not a recognized placeholder; pass through literally.
			b.WriteString(template[start : start+close+1])
			i = start + close + 1
			continue
		}
		if val == "" {
			return "", &ErrMissingArg{Placeholder: name}
		}
		b.WriteString(val)
		i = start + close + 1
	}
	return b.String(), nil
}

func boolStr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

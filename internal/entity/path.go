package entity

import (
	"fmt"
	"strings"
)

// FullyQualifiedName locates an entity as /namespace[/package]/name.
// The textual and structured forms round-trip through ParseQualifiedName
// and String.
type FullyQualifiedName struct {
	Namespace string
	Package   string
	Name      string
}

// ParseQualifiedName parses "/namespace/name", "/namespace/package/name",
// or the namespace-relative forms "name" and "package/name" resolved
// against defaultNamespace.
func ParseQualifiedName(raw, defaultNamespace string) (FullyQualifiedName, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return FullyQualifiedName{}, fmt.Errorf("entity: empty qualified name")
	}

	absolute := strings.HasPrefix(trimmed, "/")
	parts := splitSegments(trimmed)
	for _, part := range parts {
		if part == "" {
			return FullyQualifiedName{}, fmt.Errorf("entity: malformed qualified name %q", raw)
		}
	}

	if absolute {
		switch len(parts) {
		case 2:
			return FullyQualifiedName{Namespace: parts[0], Name: parts[1]}, nil
		case 3:
			return FullyQualifiedName{Namespace: parts[0], Package: parts[1], Name: parts[2]}, nil
		default:
			return FullyQualifiedName{}, fmt.Errorf("entity: malformed qualified name %q", raw)
		}
	}

	if defaultNamespace == "" {
		return FullyQualifiedName{}, fmt.Errorf("entity: relative name %q without namespace", raw)
	}
	switch len(parts) {
	case 1:
		return FullyQualifiedName{Namespace: defaultNamespace, Name: parts[0]}, nil
	case 2:
		return FullyQualifiedName{Namespace: defaultNamespace, Package: parts[0], Name: parts[1]}, nil
	default:
		return FullyQualifiedName{}, fmt.Errorf("entity: malformed qualified name %q", raw)
	}
}

func splitSegments(raw string) []string {
	return strings.Split(strings.Trim(raw, "/"), "/")
}

// String renders the absolute textual form.
func (f FullyQualifiedName) String() string {
	if f.Package == "" {
		return "/" + f.Namespace + "/" + f.Name
	}
	return "/" + f.Namespace + "/" + f.Package + "/" + f.Name
}

// DocumentID is the entity store key: namespace/[package/]name without the
// leading slash.
func (f FullyQualifiedName) DocumentID() string {
	return strings.TrimPrefix(f.String(), "/")
}

// PathName is the package-local part used when building action URLs:
// "package/name" or just "name".
func (f FullyQualifiedName) PathName() string {
	if f.Package == "" {
		return f.Name
	}
	return f.Package + "/" + f.Name
}

package adf

import "strings"

// DefaultNamespace is assumed when a document does not declare one.
const DefaultNamespace = "/ambf/env/"

// BodyNamespace returns the namespace portion of a qualified body name:
// everything up to and including the final '/'. An unqualified name has an
// empty namespace.
func BodyNamespace(fullname string) string {
	idx := strings.LastIndex(fullname, "/")
	if idx < 0 {
		return ""
	}
	return fullname[:idx+1]
}

// LocalName strips the namespace qualification from a body name, returning
// the final path segment.
func LocalName(fullname string) string {
	idx := strings.LastIndex(fullname, "/")
	if idx < 0 {
		return fullname
	}
	return fullname[idx+1:]
}

// QualifyName prepends a namespace to a local name unless the name is
// already qualified.
func QualifyName(namespace, name string) string {
	if namespace == "" || strings.Contains(name, "/") {
		return name
	}
	return namespace + name
}

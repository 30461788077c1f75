package patch

import (
	"fmt"
	"strings"
)

// AllowedPaths turns a pointer list into the set accepted by ApplyRFC6902.
func AllowedPaths(paths ...string) map[string]bool {
	allowed := make(map[string]bool, len(paths))
	for _, path := range paths {
		allowed[path] = true
	}
	return allowed
}

// ValidatePatchOperations checks every operation targets an allowed
// top-level pointer. An empty allow set permits everything.
func ValidatePatchOperations(ops []Operation, allowedPaths map[string]bool) error {
	for i, op := range ops {
		switch op.Op {
		case OperationAdd, OperationRemove, OperationReplace:
		default:
			return fmt.Errorf("operation %d: unsupported op %q", i, op.Op)
		}
		if !strings.HasPrefix(op.Path, "/") {
			return fmt.Errorf("operation %d: path %q is not a JSON pointer", i, op.Path)
		}
		if len(allowedPaths) > 0 && !allowedPaths[op.Path] {
			return fmt.Errorf("operation %d: path %q is not in the allowed paths set", i, op.Path)
		}
	}
	return nil
}

package patch

const (
	OperationAdd     = "add"
	OperationRemove  = "remove"
	OperationReplace = "replace"
)

type Operation struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	Value any    `json:"value,omitempty"`
}

// RemoveAll builds one remove operation per path.
func RemoveAll(paths ...string) []Operation {
	ops := make([]Operation, 0, len(paths))
	for _, path := range paths {
		ops = append(ops, Operation{Op: OperationRemove, Path: path})
	}
	return ops
}

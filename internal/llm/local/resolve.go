package local

import (
	"os"
	"strings"
)

// DefaultModelSource is used when neither a model path nor a model id is
// configured.
const DefaultModelSource = "models/gpt-oss-20b"

// ResolveModelSource picks the model source for the local pipeline. A
// configured filesystem path wins when it actually exists on disk;
// otherwise the symbolic model id is used, and finally the built-in
// default.
func ResolveModelSource(path, id string) string {
	path = strings.TrimSpace(path)
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	if id = strings.TrimSpace(id); id != "" {
		return id
	}
	return DefaultModelSource
}

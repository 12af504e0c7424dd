package blob

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
)

// Store keeps raw resume content. Put returns a reference that Get accepts.
type Store interface {
	Put(ctx context.Context, key string, content []byte) (string, error)
	Get(ctx context.Context, ref string) ([]byte, error)
	Type() string
}

var ErrNotFound = errors.New("blob not found")

// Key builds the object key of a document uploaded within a task.
func Key(taskID, fileName string) string {
	return path.Join(taskID, fileName)
}

func cleanKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	cleaned := path.Clean("/" + key)
	if key == "" || cleaned == "/" {
		return "", fmt.Errorf("invalid blob key %q", key)
	}
	return strings.TrimPrefix(cleaned, "/"), nil
}

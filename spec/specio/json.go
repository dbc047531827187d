package specio

import (
	"fmt"
	"os"
	"path/filepath"

	gojson "github.com/goccy/go-json"
)

// WriteJSON marshals v and writes it atomically to path.
func WriteJSON(path string, v any) error {
	b, err := gojson.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("specio: marshal %s: %w", path, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".specio-*")
	if err != nil {
		return fmt.Errorf("specio: create temp: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	_, err = tmp.Write(b)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("specio: write %s: %w", path, err)
	}
	if err = os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("specio: rename: %w", err)
	}
	return nil
}

// ReadJSON reads path and unmarshals it into v.
func ReadJSON(path string, v any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("specio: read %s: %w", path, err)
	}
	if err = gojson.Unmarshal(b, v); err != nil {
		return fmt.Errorf("specio: decode %s: %w", path, err)
	}
	return nil
}

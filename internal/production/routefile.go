package production

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/comalice/procession/internal/primitives"
)

// WriteRouteFile stores r as YAML at path.
func WriteRouteFile(path string, r *primitives.Route) error {
	if r == nil {
		return fmt.Errorf("%w: nil route", primitives.ErrValidation)
	}
	data, err := yaml.Marshal(NewRouteRecord(r))
	if err != nil {
		return fmt.Errorf("yaml marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// ReadRouteFile loads a route written by WriteRouteFile.
func ReadRouteFile(path string) (*primitives.Route, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var rec RouteRecord
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: yaml unmarshal %s: %v", primitives.ErrValidation, path, err)
	}
	return rec.Route()
}

package cli

import (
	"encoding/json"
	"fmt"
	"io"
)

// writeJSON renders v as indented JSON for --format json.
func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")

	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}

	return nil
}

func jsonOutput() bool {
	return AppConfig != nil && AppConfig.Format == "json"
}

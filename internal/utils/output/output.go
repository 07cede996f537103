// Package output writes batch responses to files and streams.
package output

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/law-makers/reviewcrawl/pkg/models"
)

// Save writes resp to path, picking the format from the file extension
func Save(resp models.BatchResponse, path string) error {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json", "":
		return SaveJSON(resp, path)
	case ".csv":
		return SaveCSV(resp, path)
	default:
		return fmt.Errorf("unsupported output format %q (use .json or .csv)", ext)
	}
}

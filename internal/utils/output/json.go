package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/law-makers/reviewcrawl/pkg/models"
)

// WriteJSON writes the batch response as indented JSON followed by a newline
func WriteJSON(w io.Writer, resp models.BatchResponse) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(resp)
}

// SaveJSON writes the batch response to filepath
func SaveJSON(resp models.BatchResponse, filepath string) error {
	file, err := os.Create(filepath)
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath, err)
	}
	if err := WriteJSON(file, resp); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

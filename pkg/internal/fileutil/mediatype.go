package fileutil

import (
	"fmt"
	"strings"
)

// SplitDataURL splits a data URL into its components.
// Example: "data:image/png;base64,iVBORw0KG..." -> ("image/png", "base64", "iVBORw0KG...")
func SplitDataURL(dataURL string) (mimeType string, encoding string, data string, err error) {
	if !strings.HasPrefix(dataURL, "data:") {
		return "", "", "", fmt.Errorf("invalid data URL: missing 'data:' prefix")
	}
	dataURL = dataURL[len("data:"):]

	parts := strings.SplitN(dataURL, ",", 2)
	if len(parts) != 2 {
		return "", "", "", fmt.Errorf("invalid data URL: missing comma separator")
	}

	metadata := parts[0]
	data = parts[1]

	metaParts := strings.Split(metadata, ";")
	if len(metaParts) > 0 {
		mimeType = metaParts[0]
	}
	if len(metaParts) > 1 {
		encoding = metaParts[1]
	}
	if mimeType == "" {
		mimeType = "text/plain"
	}
	if encoding == "" {
		encoding = "charset=US-ASCII"
	}

	return mimeType, encoding, data, nil
}

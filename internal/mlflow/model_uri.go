package mlflow

import (
	"fmt"
	"strings"
)

const modelURIScheme = "models:/"

// IsModelURI reports whether the URI references a registered model.
func IsModelURI(uri string) bool {
	return strings.HasPrefix(uri, modelURIScheme)
}

// ParseModelURI splits a "models:/<name>/<version>" URI into its name and
// version parts. Other URI schemes are rejected.
func ParseModelURI(uri string) (name, version string, err error) {
	if !IsModelURI(uri) {
		return "", "", fmt.Errorf("unsupported model URI %q, only models:/<name>/<version> URIs are supported", uri)
	}
	parts := strings.Split(strings.TrimPrefix(uri, modelURIScheme), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("malformed model URI %q, expected models:/<name>/<version>", uri)
	}
	return parts[0], parts[1], nil
}

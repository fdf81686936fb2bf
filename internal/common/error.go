package common

import "fmt"

var (
	ErrMalformedManifest  = fmt.Errorf("malformed manifest")
	ErrExtensionNotFound  = fmt.Errorf("extension not found")
	ErrInvalidExtensionID = fmt.Errorf("invalid extension id")
	ErrUUIDNotFound       = fmt.Errorf("uuid not found")
	ErrPageNotFoundError  = fmt.Errorf("page not found")
	ErrNoResultsFound     = fmt.Errorf("no results found")
)

package geelark

import (
	"fmt"

	"github.com/sociomanager/sociomanager/internal/models"
)

// UnsupportedPlatformError is returned by the encoder when the remote API
// has no endpoint for the requested action/platform combination. It is
// fatal for that target only; sibling dispatches proceed.
type UnsupportedPlatformError struct {
	Platform models.Platform
	Action   ActionKind
}

func (e *UnsupportedPlatformError) Error() string {
	return fmt.Sprintf("platform %s does not support %s", e.Platform, e.Action)
}

// RemoteError is a GeeLark API response whose code field is non-zero, or a
// non-2xx HTTP status. The raw body is kept for diagnostics.
type RemoteError struct {
	Code int
	Body string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("geelark API error code %d: %s", e.Code, e.Body)
}

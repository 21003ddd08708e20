package channelsync

import (
	"errors"
	"fmt"

	"bitbucket.org/mmdatafocus/storefront_sync/models"
)

// ConfigurationError means the platform's credentials are missing or
// incomplete. Fatal for that platform only; other platforms keep syncing.
type ConfigurationError struct {
	Platform string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("platform %q is not configured", e.Platform)
}

// ValidationError means the entity cannot be synced as-is (missing natural
// key, no resolvable line items). No network call is made.
type ValidationError struct {
	Kind    models.EntityKind
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s validation failed on %s: %s", e.Kind, e.Field, e.Message)
}

// RemoteApiError carries a non-2xx platform response. Retry policy is the
// caller's responsibility.
type RemoteApiError struct {
	Status int
	Body   string
}

func (e *RemoteApiError) Error() string {
	return fmt.Sprintf("remote api error %d: %s", e.Status, e.Body)
}

// CascadeDepthExceeded means resolving an order line item would trigger a
// second nested product sync. The cascade is bounded to depth 1.
type CascadeDepthExceeded struct {
	Sku string
}

func (e *CascadeDepthExceeded) Error() string {
	return fmt.Sprintf("line-item cascade depth exceeded for sku %q", e.Sku)
}

// isRemoteNotFound reports whether err is a 404 from the platform.
func isRemoteNotFound(err error) bool {
	var apiErr *RemoteApiError
	return errors.As(err, &apiErr) && apiErr.Status == 404
}

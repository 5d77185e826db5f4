package vaultsdk

import (
	"context"
	"fmt"
	"net/http"
)

// Logical is the generic secret API: reads and writes against arbitrary
// paths. Paths and keys are opaque to the SDK; whatever engine is mounted
// at the path defines their meaning.
type Logical struct {
	client *Client
}

// Read fetches the secret at path, e.g. "secret/hello". A path with
// nothing at it fails with *NotFoundError, which callers should branch on
// separately from request failures since "secret absent" is commonly an
// expected outcome.
func (l *Logical) Read(ctx context.Context, path string) (*LogicalResponse, error) {
	envelope, err := l.client.requestEnvelope(ctx, http.MethodGet, "v1/"+path, nil)
	if err != nil {
		return nil, err
	}
	return newLogicalResponse(envelope), nil
}

// Write stores data at path, replacing whatever was there. A nil data map
// is a valid write; some backend endpoints are triggered by an empty
// write. The service may answer 204 with no body, which decodes to an
// empty response, not an error.
func (l *Logical) Write(ctx context.Context, path string, data map[string]any) (*LogicalResponse, error) {
	var body any = struct{}{}
	if data != nil {
		body = data
	}

	envelope, err := l.client.requestEnvelope(ctx, http.MethodPut, "v1/"+path, body)
	if err != nil {
		return nil, err
	}
	return newLogicalResponse(envelope), nil
}

// Delete removes the secret at path. Deleting an absent path is not an
// error; the service treats it as a no-op.
func (l *Logical) Delete(ctx context.Context, path string) error {
	if _, err := l.client.request(ctx, http.MethodDelete, "v1/"+path, nil); err != nil {
		return fmt.Errorf("deleting %q: %w", path, err)
	}
	return nil
}

// List returns the keys directly under path. Keys ending in "/" name
// sub-paths that can be listed in turn.
func (l *Logical) List(ctx context.Context, path string) (*LogicalResponse, error) {
	envelope, err := l.client.requestEnvelope(ctx, http.MethodGet, "v1/"+path+"?list=true", nil)
	if err != nil {
		return nil, err
	}
	return newLogicalResponse(envelope), nil
}

func newLogicalResponse(envelope *Envelope) *LogicalResponse {
	return &LogicalResponse{
		LeaseID:       envelope.LeaseID,
		LeaseDuration: envelope.LeaseDuration,
		Renewable:     envelope.Renewable,
		Envelope:      envelope,
	}
}

package transport

import (
	"context"
	"net/http"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-platform/core"
)

// DisabledClient rejects every request. Hosts wire it when plugin network
// access is turned off so hooks get a clear denial instead of a nil API.
type DisabledClient struct {
	Reason string
}

func NewDisabledClient(reason string) *DisabledClient {
	return &DisabledClient{Reason: reason}
}

func (c *DisabledClient) Get(ctx context.Context, url string, headers map[string]string) (core.APIResponse, error) {
	return core.APIResponse{}, c.deny()
}

func (c *DisabledClient) Post(ctx context.Context, url string, body []byte, headers map[string]string) (core.APIResponse, error) {
	return core.APIResponse{}, c.deny()
}

func (c *DisabledClient) Put(ctx context.Context, url string, body []byte, headers map[string]string) (core.APIResponse, error) {
	return core.APIResponse{}, c.deny()
}

func (c *DisabledClient) Delete(ctx context.Context, url string, headers map[string]string) (core.APIResponse, error) {
	return core.APIResponse{}, c.deny()
}

func (c *DisabledClient) deny() error {
	message := "transport: plugin network access is disabled"
	if c != nil && c.Reason != "" {
		message += ": " + c.Reason
	}
	return transportError(message, goerrors.CategoryAuthz, http.StatusForbidden, nil)
}

var _ core.APIClient = (*DisabledClient)(nil)

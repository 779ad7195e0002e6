package common

import (
	"errors"
	"fmt"

	"github.com/kenislabs/arka-gateway/internal/httpclient"
	"github.com/kenislabs/arka-gateway/internal/oauth"
	"github.com/kenislabs/arka-gateway/internal/worker"
)

// ToolErrorMessage maps an error from the client or resolver layer onto
// the text returned to the agent. Token material and raw provider errors
// never appear here.
func ToolErrorMessage(providerKey string, err error) string {
	var reqErr *httpclient.RequestError
	switch {
	case errors.Is(err, worker.ErrNotAuthorized):
		return fmt.Sprintf("You have not authorized %s yet. Run \"arka-gateway authorize %s\", "+
			"open the printed URL in a browser and paste the code back to complete authorization.",
			providerKey, providerKey)
	case errors.Is(err, worker.ErrProviderUnavailable):
		return fmt.Sprintf("The %s provider is temporarily unavailable. Please try again shortly.", providerKey)
	case errors.Is(err, oauth.ErrProviderNotRegistered):
		return fmt.Sprintf("Provider %s is not configured on this gateway.", providerKey)
	case errors.As(err, &reqErr):
		return reqErr.UserMessage()
	default:
		return err.Error()
	}
}

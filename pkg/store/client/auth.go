package client

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/cloud"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/de-tools/pbi-refresh/pkg/models/domain"
	"github.com/rs/zerolog"
)

// PowerBIScope is the audience every Power BI REST call is authorized for.
const PowerBIScope = "https://analysis.windows.net/powerbi/api/.default"

// DefaultClientID is the public client registered by Microsoft for Power BI.
const DefaultClientID = "ea0616ba-638b-4df5-95b9-636659ae5121"

// Authenticator exchanges user credentials for a Power BI access token.
type Authenticator struct {
	tenantID string
	cred     azcore.TokenCredential
}

type AuthOptions struct {
	// AuthorityHost overrides the Entra ID login endpoint, e.g. for sovereign clouds.
	AuthorityHost string
	Transport     policy.Transporter
}

func NewAuthenticator(creds domain.Credentials, opts AuthOptions) (*Authenticator, error) {
	if creds.TenantID == "" || creds.Username == "" || creds.Password == "" {
		return nil, fmt.Errorf("tenant id, username and password are required")
	}
	clientID := creds.ClientID
	if clientID == "" {
		clientID = DefaultClientID
	}

	credOpts := &azidentity.UsernamePasswordCredentialOptions{}
	credOpts.Retry.MaxRetries = -1
	if opts.AuthorityHost != "" {
		credOpts.Cloud = cloud.Configuration{ActiveDirectoryAuthorityHost: opts.AuthorityHost}
	}
	if opts.Transport != nil {
		credOpts.Transport = opts.Transport
	}

	cred, err := azidentity.NewUsernamePasswordCredential(creds.TenantID, clientID, creds.Username, creds.Password, credOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to create username/password credential: %w", err)
	}

	return &Authenticator{tenantID: creds.TenantID, cred: cred}, nil
}

// Token acquires a single access token. There is no caching or refresh.
func (a *Authenticator) Token(ctx context.Context) (domain.AccessToken, error) {
	logger := zerolog.Ctx(ctx)

	tk, err := a.cred.GetToken(ctx, policy.TokenRequestOptions{Scopes: []string{PowerBIScope}})
	if err != nil {
		logger.Warn().Err(err).Str("tenant", a.tenantID).Msg("token request failed")
		return domain.AccessToken{}, &AuthenticationError{TenantID: a.tenantID, Err: err}
	}
	if tk.Token == "" {
		return domain.AccessToken{}, &AuthenticationError{TenantID: a.tenantID}
	}

	logger.Debug().Time("expires_on", tk.ExpiresOn).Msg("access token acquired")
	return domain.AccessToken{Value: tk.Token, ExpiresOn: tk.ExpiresOn}, nil
}

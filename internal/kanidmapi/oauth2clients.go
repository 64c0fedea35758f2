package kanidmapi

import (
	"context"

	"github.com/gravitational/trace"
)

// ScopeMapEntry is the wire representation of one group->scopes mapping.
type ScopeMapEntry struct {
	Group  string   `json:"group"`
	Scopes []string `json:"scopes"`
}

// ClaimValue is the wire representation of one group's contribution to a claim.
type ClaimValue struct {
	Group        string   `json:"group"`
	Values       []string `json:"values"`
	JoinStrategy string   `json:"join_strategy"`
}

// ClaimMapEntry is the wire representation of one named custom claim.
type ClaimMapEntry struct {
	Name      string       `json:"name"`
	ValuesMap []ClaimValue `json:"values_map"`
}

// OAuth2Client is the wire representation of a Kanidm OAuth2 resource server.
type OAuth2Client struct {
	Name                           string          `json:"name"`
	Uuid                           string          `json:"uuid,omitempty"`
	DisplayName                    string          `json:"displayname"`
	Origin                         string          `json:"origin"`
	RedirectUrl                    []string        `json:"redirect_url"`
	Public                         bool            `json:"public"`
	ScopeMap                       []ScopeMapEntry `json:"scope_map,omitempty"`
	SupScopeMap                    []ScopeMapEntry `json:"sup_scope_map,omitempty"`
	ClaimMap                       []ClaimMapEntry `json:"claim_map,omitempty"`
	StrictRedirectUrl              bool            `json:"strict_redirect_url,omitempty"`
	PreferShortUsername            bool            `json:"prefer_short_username,omitempty"`
	AllowLocalhostRedirect         bool            `json:"allow_localhost_redirect,omitempty"`
	AllowInsecureClientDisablePkce bool            `json:"allow_insecure_client_disable_pkce,omitempty"`
	JwtLegacyCryptoEnable          bool            `json:"jwt_legacy_crypto_enable,omitempty"`
	ClientSecret                   string          `json:"client_secret,omitempty"`
}

// GetOAuth2Client fetches an OAuth2 resource server by name.
func (c *Client) GetOAuth2Client(ctx context.Context, name string) (*OAuth2Client, error) {
	var out OAuth2Client
	_, err := c.newRequest(ctx).
		SetResult(&out).
		Get("/v1/oauth2/" + name)
	if err != nil {
		return nil, trace.Wrap(err, "get oauth2 client %q", name)
	}
	return &out, nil
}

// CreateOAuth2Client creates a new confidential or public OAuth2 resource
// server and decodes the server's response, including the uuid and any
// generated client secret, back into o.
func (c *Client) CreateOAuth2Client(ctx context.Context, o *OAuth2Client) error {
	path := "/v1/oauth2/_basic"
	if o.Public {
		path = "/v1/oauth2/_public"
	}
	_, err := c.newRequest(ctx).
		SetBody(o).
		SetResult(o).
		Post(path)
	if err != nil {
		return trace.Wrap(err, "create oauth2 client %q", o.Name)
	}
	return nil
}

// DeleteOAuth2Client deletes an OAuth2 resource server by name.
func (c *Client) DeleteOAuth2Client(ctx context.Context, name string) error {
	_, err := c.newRequest(ctx).Delete("/v1/oauth2/" + name)
	if err != nil {
		return trace.Wrap(err, "delete oauth2 client %q", name)
	}
	return nil
}

// UpdateOAuth2ClientAttrs patches the scalar/list attributes of an OAuth2
// resource server (displayname, origin, redirect_url, and the toggle flags).
func (c *Client) UpdateOAuth2ClientAttrs(ctx context.Context, name string, patch map[string]any) error {
	_, err := c.newRequest(ctx).
		SetBody(patch).
		Patch("/v1/oauth2/" + name)
	if err != nil {
		return trace.Wrap(err, "update oauth2 client %q", name)
	}
	return nil
}

// SetScopeMap sets or replaces the scope mapping for a group on the named client.
func (c *Client) SetScopeMap(ctx context.Context, name, group string, scopes []string) error {
	_, err := c.newRequest(ctx).
		SetBody(scopes).
		Post("/v1/oauth2/" + name + "/_scopemap/" + group)
	if err != nil {
		return trace.Wrap(err, "set oauth2 client %q scope map for group %q", name, group)
	}
	return nil
}

// DeleteScopeMap removes the scope mapping for a group on the named client.
func (c *Client) DeleteScopeMap(ctx context.Context, name, group string) error {
	_, err := c.newRequest(ctx).
		Delete("/v1/oauth2/" + name + "/_scopemap/" + group)
	if err != nil {
		return trace.Wrap(err, "delete oauth2 client %q scope map for group %q", name, group)
	}
	return nil
}

// SetSupScopeMap sets or replaces the supplementary scope mapping for a group.
func (c *Client) SetSupScopeMap(ctx context.Context, name, group string, scopes []string) error {
	_, err := c.newRequest(ctx).
		SetBody(scopes).
		Post("/v1/oauth2/" + name + "/_sup_scopemap/" + group)
	if err != nil {
		return trace.Wrap(err, "set oauth2 client %q supplementary scope map for group %q", name, group)
	}
	return nil
}

// SetClaimMap sets or replaces one named claim's group-value mapping.
func (c *Client) SetClaimMap(ctx context.Context, name, claim, group string, values []string, joinStrategy string) error {
	_, err := c.newRequest(ctx).
		SetBody(map[string]any{"values": values, "join": joinStrategy}).
		Post("/v1/oauth2/" + name + "/_claimmap/" + claim + "/" + group)
	if err != nil {
		return trace.Wrap(err, "set oauth2 client %q claim %q map for group %q", name, claim, group)
	}
	return nil
}

// DeleteClaimMap removes one named claim's group-value mapping.
func (c *Client) DeleteClaimMap(ctx context.Context, name, claim, group string) error {
	_, err := c.newRequest(ctx).
		Delete("/v1/oauth2/" + name + "/_claimmap/" + claim + "/" + group)
	if err != nil {
		return trace.Wrap(err, "delete oauth2 client %q claim %q map for group %q", name, claim, group)
	}
	return nil
}

// RotateClientSecret forces generation of a new client_secret and returns it.
func (c *Client) RotateClientSecret(ctx context.Context, name string) (string, error) {
	var out OAuth2Client
	_, err := c.newRequest(ctx).
		SetResult(&out).
		Post("/v1/oauth2/" + name + "/_basic_secret")
	if err != nil {
		return "", trace.Wrap(err, "rotate oauth2 client %q secret", name)
	}
	return out.ClientSecret, nil
}

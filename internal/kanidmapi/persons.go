package kanidmapi

import (
	"context"
	"fmt"
	"time"

	"github.com/gravitational/trace"
)

// Person is the wire representation of a Kanidm person account.
type Person struct {
	Name             string     `json:"name"`
	Uuid             string     `json:"uuid,omitempty"`
	DisplayName      string     `json:"displayname,omitempty"`
	Mail             []string   `json:"mail,omitempty"`
	LegalName        string     `json:"legalname,omitempty"`
	AccountValidFrom *time.Time `json:"account_valid_from,omitempty"`
	AccountExpire    *time.Time `json:"account_expire,omitempty"`
	GidNumber        *int64     `json:"gidnumber,omitempty"`
	LoginShell       string     `json:"loginshell,omitempty"`
}

// GetPerson fetches a person account by name.
func (c *Client) GetPerson(ctx context.Context, name string) (*Person, error) {
	var out Person
	_, err := c.newRequest(ctx).
		SetResult(&out).
		Get("/v1/person/" + name)
	if err != nil {
		return nil, trace.Wrap(err, "get person %q", name)
	}
	return &out, nil
}

// CreatePerson creates a person account.
func (c *Client) CreatePerson(ctx context.Context, p *Person) error {
	_, err := c.newRequest(ctx).
		SetBody(p).
		Post("/v1/person")
	if err != nil {
		return trace.Wrap(err, "create person %q", p.Name)
	}
	return nil
}

// DeletePerson deletes a person account by name.
func (c *Client) DeletePerson(ctx context.Context, name string) error {
	_, err := c.newRequest(ctx).Delete("/v1/person/" + name)
	if err != nil {
		return trace.Wrap(err, "delete person %q", name)
	}
	return nil
}

// SetPersonAttribute overwrites attribute on the named person with values.
func (c *Client) SetPersonAttribute(ctx context.Context, name, attribute string, values []string) error {
	_, err := c.newRequest(ctx).
		SetBody(entryAttrs{Attrs: map[string][]string{attribute: values}}).
		Put(fmt.Sprintf("/v1/person/%s/_attr/%s", name, attribute))
	if err != nil {
		return trace.Wrap(err, "set person %q attribute %q", name, attribute)
	}
	return nil
}

// DeletePersonAttribute clears attribute on the named person.
func (c *Client) DeletePersonAttribute(ctx context.Context, name, attribute string) error {
	_, err := c.newRequest(ctx).
		Delete(fmt.Sprintf("/v1/person/%s/_attr/%s", name, attribute))
	if err != nil {
		return trace.Wrap(err, "delete person %q attribute %q", name, attribute)
	}
	return nil
}

// CredentialResetToken is the response from requesting a credential-reset token.
type CredentialResetToken struct {
	Token string `json:"token"`
}

// RequestCredentialResetToken issues a time-limited credential reset token
// for the named person, valid for ttl.
func (c *Client) RequestCredentialResetToken(ctx context.Context, name string, ttl time.Duration) (string, error) {
	var out CredentialResetToken
	_, err := c.newRequest(ctx).
		SetBody(map[string]int64{"ttl": int64(ttl.Seconds())}).
		SetResult(&out).
		Post("/v1/person/" + name + "/_credential/_update_intent")
	if err != nil {
		return "", trace.Wrap(err, "request credential reset token for %q", name)
	}
	return out.Token, nil
}

package kanidmapi

import (
	"context"
	"fmt"

	"github.com/gravitational/trace"
)

// Group is the wire representation of a Kanidm group entity, flattened from
// Kanidm's attribute-map entry shape to the fields this operator reads/writes.
type Group struct {
	Name           string   `json:"name"`
	Uuid           string   `json:"uuid,omitempty"`
	EntryManagedBy string   `json:"entry_managed_by,omitempty"`
	Mail           []string `json:"mail,omitempty"`
	Member         []string `json:"member,omitempty"`
	GidNumber      *int64   `json:"gidnumber,omitempty"`
}

type entryAttrs struct {
	Attrs map[string][]string `json:"attrs"`
}

// GetGroup fetches a group by name; returns a trace.NotFound error if absent.
func (c *Client) GetGroup(ctx context.Context, name string) (*Group, error) {
	var out Group
	_, err := c.newRequest(ctx).
		SetResult(&out).
		Get("/v1/group/" + name)
	if err != nil {
		return nil, trace.Wrap(err, "get group %q", name)
	}
	return &out, nil
}

// CreateGroup creates a group with the given name and initial attributes and
// decodes the server's response, including the assigned uuid, back into g.
func (c *Client) CreateGroup(ctx context.Context, g *Group) error {
	_, err := c.newRequest(ctx).
		SetBody(g).
		SetResult(g).
		Post("/v1/group")
	if err != nil {
		return trace.Wrap(err, "create group %q", g.Name)
	}
	return nil
}

// DeleteGroup deletes a group by name.
func (c *Client) DeleteGroup(ctx context.Context, name string) error {
	_, err := c.newRequest(ctx).Delete("/v1/group/" + name)
	if err != nil {
		return trace.Wrap(err, "delete group %q", name)
	}
	return nil
}

// SetGroupAttribute overwrites attribute on the named group with values.
func (c *Client) SetGroupAttribute(ctx context.Context, name, attribute string, values []string) error {
	_, err := c.newRequest(ctx).
		SetBody(entryAttrs{Attrs: map[string][]string{attribute: values}}).
		Put(fmt.Sprintf("/v1/group/%s/_attr/%s", name, attribute))
	if err != nil {
		return trace.Wrap(err, "set group %q attribute %q", name, attribute)
	}
	return nil
}

// DeleteGroupAttribute clears attribute on the named group.
func (c *Client) DeleteGroupAttribute(ctx context.Context, name, attribute string) error {
	_, err := c.newRequest(ctx).
		Delete(fmt.Sprintf("/v1/group/%s/_attr/%s", name, attribute))
	if err != nil {
		return trace.Wrap(err, "delete group %q attribute %q", name, attribute)
	}
	return nil
}

// SetGroupAccountPolicy applies account-policy overrides to the named group.
func (c *Client) SetGroupAccountPolicy(ctx context.Context, name string, policy map[string]any) error {
	_, err := c.newRequest(ctx).
		SetBody(policy).
		Post("/v1/group/" + name + "/_accountpolicy")
	if err != nil {
		return trace.Wrap(err, "set group %q account policy", name)
	}
	return nil
}

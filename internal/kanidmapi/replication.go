package kanidmapi

import (
	"context"

	"github.com/gravitational/trace"
)

// ReplicationPeer describes one configured replication link from this
// cluster's point of view.
type ReplicationPeer struct {
	Name        string `json:"name"`
	Hostname    string `json:"hostname"`
	Port        int32  `json:"port"`
	Type        string `json:"type"`
	Automatic   bool   `json:"automatic_refresh"`
	Certificate string `json:"certificate"`
	Reachable   bool   `json:"reachable"`
}

// ListReplicationPeers returns the replication peers currently configured.
func (c *Client) ListReplicationPeers(ctx context.Context) ([]ReplicationPeer, error) {
	var out []ReplicationPeer
	_, err := c.newRequest(ctx).
		SetResult(&out).
		Get("/v1/system/replication")
	if err != nil {
		return nil, trace.Wrap(err, "list replication peers")
	}
	return out, nil
}

// UpsertReplicationPeer creates or updates one replication peer link.
func (c *Client) UpsertReplicationPeer(ctx context.Context, peer ReplicationPeer) error {
	_, err := c.newRequest(ctx).
		SetBody(peer).
		Post("/v1/system/replication/" + peer.Name)
	if err != nil {
		return trace.Wrap(err, "upsert replication peer %q", peer.Name)
	}
	return nil
}

// DeleteReplicationPeer removes a replication peer link by name.
func (c *Client) DeleteReplicationPeer(ctx context.Context, name string) error {
	_, err := c.newRequest(ctx).
		Delete("/v1/system/replication/" + name)
	if err != nil {
		return trace.Wrap(err, "delete replication peer %q", name)
	}
	return nil
}

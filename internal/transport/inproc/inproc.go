// Package inproc is a same-process transport for embedders (such as
// pkg/varclient) that link the broker as a library rather than speaking
// the wire protocol over a socket.
package inproc

import (
	"github.com/adred-codev/varbroker/internal/registry"
)

// Client is a handle onto one open session, driving the dispatcher
// directly rather than through a socket.
type Client struct {
	dispatcher *registry.Dispatcher
	session    *registry.Session
}

// Open registers a new session and returns a Client bound to it.
func Open(d *registry.Dispatcher, sessions *registry.SessionTable, pid int32, creds []int32) (*Client, error) {
	placeholder := registry.NewSession(0, pid, 0, creds)
	resp := d.Submit(placeholder, registry.Request{Kind: registry.ReqOpen})
	if resp.Code != registry.OK {
		return nil, &registry.Error{Code: resp.Code}
	}
	s, ok := sessions.Lookup(registry.ClientID(resp.Handle))
	if !ok {
		return nil, &registry.Error{Code: registry.NotFound}
	}
	return &Client{dispatcher: d, session: s}, nil
}

// Do issues req synchronously: if the handler parks the session, Do blocks
// on the session's wake channel for the eventual terminal response.
func (c *Client) Do(req registry.Request) registry.Response {
	// Discard the reply left in the wake slot by OPEN or by the previous
	// request, which Do already returned from Submit.
	select {
	case <-c.session.WakeCh:
	default:
	}
	resp := c.dispatcher.Submit(c.session, req)
	if resp.Code != registry.InProgress {
		return resp
	}
	return <-c.session.WakeCh
}

// Signals exposes the session's asynchronous notification queue.
func (c *Client) Signals() <-chan registry.Signal { return c.session.Signals }

// Close closes the underlying session.
func (c *Client) Close() {
	c.Do(registry.Request{Kind: registry.ReqClose})
}

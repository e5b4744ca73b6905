// Package varclient is a minimal in-process client for embedding
// varbrokerd's registry as a library, built on the inproc transport.
package varclient

import (
	"github.com/adred-codev/varbroker/internal/registry"
	"github.com/adred-codev/varbroker/internal/transport/inproc"
)

// Client wraps an inproc.Client with a friendlier, typed surface over the
// raw request/response protocol.
type Client struct {
	c *inproc.Client
}

func New(d *registry.Dispatcher, sessions *registry.SessionTable, pid int32, creds []int32) (*Client, error) {
	ic, err := inproc.Open(d, sessions, pid, creds)
	if err != nil {
		return nil, err
	}
	return &Client{c: ic}, nil
}

func (c *Client) Close() { c.c.Close() }

// New creates a variable and returns its handle.
func (c *Client) New(info registry.VariableInfo) (registry.Handle, error) {
	resp := c.c.Do(registry.Request{Kind: registry.ReqNew, NewInfo: info})
	return resp.Handle, asErr(resp.Code)
}

func (c *Client) Find(name string, instance int32) (registry.Handle, error) {
	resp := c.c.Do(registry.Request{Kind: registry.ReqFind, Name: name, Instance: instance})
	return resp.Handle, asErr(resp.Code)
}

func (c *Client) Get(h registry.Handle) (registry.Value, error) {
	resp := c.c.Do(registry.Request{Kind: registry.ReqGet, Handle: h})
	return resp.Value, asErr(resp.Code)
}

func (c *Client) Set(h registry.Handle, v registry.Value) error {
	resp := c.c.Do(registry.Request{Kind: registry.ReqSet, Handle: h, Value: v})
	return asErr(resp.Code)
}

func asErr(code registry.Code) error {
	if code == registry.Already {
		return nil
	}
	return registry.ErrFromCode(code)
}

package networktables

import "github.com/nt2go/ntclient/pkg/networktables/types"

// GetBool returns the boolean value of name, or false/false if name is
// unknown or its current value is not boolean-tagged. A tag mismatch is
// treated as absence, not an error.
func (c *Client) GetBool(name string) (bool, bool) {
	v, ok := c.Store.Get(name)
	if !ok || v.Kind != types.KindBoolean {
		return false, false
	}
	return v.Bool, true
}

// GetNumber returns the numeric value of name, or 0/false if name is unknown
// or its current value is not number-tagged.
func (c *Client) GetNumber(name string) (float64, bool) {
	v, ok := c.Store.Get(name)
	if !ok || v.Kind != types.KindNumber {
		return 0, false
	}
	return v.Number, true
}

// GetString returns the string value of name, or ""/false if name is
// unknown or its current value is not string-tagged.
func (c *Client) GetString(name string) (string, bool) {
	v, ok := c.Store.Get(name)
	if !ok || v.Kind != types.KindString {
		return "", false
	}
	return v.Str, true
}

// SetBool queues a local boolean mutation for name.
func (c *Client) SetBool(name string, v bool) {
	c.Store.Set(name, types.Boolean(v))
}

// SetNumber queues a local numeric mutation for name.
func (c *Client) SetNumber(name string, v float64) {
	c.Store.Set(name, types.Number(v))
}

// SetString queues a local string mutation for name.
func (c *Client) SetString(name string, v string) {
	c.Store.Set(name, types.String(v))
}

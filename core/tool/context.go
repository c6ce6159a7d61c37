package tool

import (
	"context"

	"github.com/mitchellh/mapstructure"

	"github.com/compozy/kestrel/core/source"
)

// Context is the run-time data bag passed to a tool's run handler,
// initializers, and error/signal handlers. Its key set is the union of the
// tool's default data, its declared flag keys, and its declared positional
// keys (spec.md §3's "keys ⊆ declared_keys ∪ default_data.keys" invariant);
// Set enforces that membership.
type Context struct {
	StdContext context.Context
	Tool       *Tool
	Args       []string
	Source     *source.Info

	data    map[string]any
	allowed map[string]bool
}

// NewContext builds a Context for a run of t, seeded from its default data.
func NewContext(std context.Context, t *Tool, args []string) *Context {
	c := &Context{
		StdContext: std,
		Tool:       t,
		Args:       args,
		Source:     t.SourceInfo,
		data:       make(map[string]any, len(t.DefaultData)),
		allowed:    make(map[string]bool),
	}
	for k, v := range t.DefaultData {
		c.data[k] = v
		c.allowed[k] = true
	}
	for _, f := range t.Flags {
		c.allowed[f.Key] = true
		if _, ok := c.data[f.Key]; !ok {
			c.data[f.Key] = f.Default
		}
	}
	for _, p := range t.PositionalArgs {
		c.allowed[p.Key] = true
		if _, ok := c.data[p.Key]; !ok {
			c.data[p.Key] = p.Default
		}
	}
	if t.RemainingArg != nil {
		c.allowed[t.RemainingArg.Key] = true
	}
	return c
}

// NewContextFromParsed builds a Context for a run of t, seeded with
// already-parsed flag/positional values (as produced by a parse.Parser's
// Data()), falling back to t's own defaults for any key parsed omitted.
// Keys outside t's declared set are silently dropped, matching Context's
// own membership invariant.
func NewContextFromParsed(std context.Context, t *Tool, parsed map[string]any, args []string) *Context {
	c := NewContext(std, t, args)
	for k, v := range parsed {
		if c.allowed[k] {
			c.data[k] = v
		}
	}
	return c
}

// Get returns the value stored under key and whether it was present.
func (c *Context) Get(key string) (any, bool) {
	v, ok := c.data[key]
	return v, ok
}

// MustGet returns the value stored under key, or nil if absent.
func (c *Context) MustGet(key string) any {
	return c.data[key]
}

// Set stores value under key. key must be one of the tool's declared
// flag/positional keys or a pre-seeded default-data key; anything else
// panics, since it indicates a programming error in the run handler.
func (c *Context) Set(key string, value any) {
	if !c.allowed[key] {
		panic("tool: Context.Set of undeclared key " + key)
	}
	c.data[key] = value
}

// Decode fills dst (a pointer to a struct) from the context's data bag
// using field-name/tag matching, convenient for run handlers that want a
// typed view over the parsed flags instead of repeated Get calls.
func (c *Context) Decode(dst any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "tool",
		WeaklyTypedInput: true,
		Result:           dst,
	})
	if err != nil {
		return err
	}
	return dec.Decode(c.data)
}

// Keys returns every key currently stored in the context's data bag.
func (c *Context) Keys() []string {
	out := make([]string, 0, len(c.data))
	for k := range c.data {
		out = append(out, k)
	}
	return out
}

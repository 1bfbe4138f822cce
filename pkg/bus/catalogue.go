package bus

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sync"
)

// Op names one catalogue operation and pins its request and response types.
// Ops are only obtained from Define.
type Op[Req, Resp any] struct {
	tag string
}

// Tag returns the operation tag.
func (o Op[Req, Resp]) Tag() string { return o.tag }

// Validator is implemented by payload types that carry their own shape rules.
// It runs on both the send and the receive path.
type Validator interface {
	Validate() error
}

// OpInfo describes a catalogue entry for listings.
type OpInfo struct {
	Tag      string
	Request  string
	Response string
	Nullable bool
}

type entry struct {
	req       reflect.Type
	resp      reflect.Type
	checkReq  func(json.RawMessage) error
	checkResp func(json.RawMessage) error
}

// Catalogue maps operation tags to their payload types. It is filled once at
// startup and only read afterwards.
type Catalogue struct {
	mu      sync.RWMutex
	entries map[string]entry
	order   []string
}

func NewCatalogue() *Catalogue {
	return &Catalogue{entries: make(map[string]entry)}
}

// Define adds tag to c with the given payload types. Defining the same tag
// twice is a programming error and panics.
func Define[Req, Resp any](c *Catalogue, tag string) Op[Req, Resp] {
	if tag == "" {
		panic("bus: empty operation tag")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, dup := c.entries[tag]; dup {
		panic(fmt.Sprintf("bus: operation %q defined twice", tag))
	}
	c.entries[tag] = entry{
		req:  reflect.TypeFor[Req](),
		resp: reflect.TypeFor[Resp](),
		checkReq: func(raw json.RawMessage) error {
			_, err := decode[Req](tag, "request", raw)
			return err
		},
		checkResp: func(raw json.RawMessage) error {
			_, err := decode[Resp](tag, "response", raw)
			return err
		},
	}
	c.order = append(c.order, tag)
	return Op[Req, Resp]{tag: tag}
}

// Has reports whether tag is defined.
func (c *Catalogue) Has(tag string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.entries[tag]
	return ok
}

// Ops lists the catalogue in definition order.
func (c *Catalogue) Ops() []OpInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]OpInfo, 0, len(c.order))
	for _, tag := range c.order {
		e := c.entries[tag]
		out = append(out, OpInfo{
			Tag:      tag,
			Request:  e.req.String(),
			Response: e.resp.String(),
			Nullable: nullable(e.req),
		})
	}
	return out
}

func (c *Catalogue) lookup(tag string) (entry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[tag]
	if !ok {
		return entry{}, fmt.Errorf("%w: %q", ErrUnknownOp, tag)
	}
	return e, nil
}

// checkOp verifies that the typed op belongs to c with the same types.
func checkOp[Req, Resp any](c *Catalogue, op Op[Req, Resp]) error {
	e, err := c.lookup(op.tag)
	if err != nil {
		return err
	}
	if e.req != reflect.TypeFor[Req]() {
		return &MismatchError{Tag: op.tag, Side: "request", Err: fmt.Errorf("catalogue has %s, op has %s", e.req, reflect.TypeFor[Req]())}
	}
	if e.resp != reflect.TypeFor[Resp]() {
		return &MismatchError{Tag: op.tag, Side: "response", Err: fmt.Errorf("catalogue has %s, op has %s", e.resp, reflect.TypeFor[Resp]())}
	}
	return nil
}

// nullable reports whether an absent payload is a valid value of t.
func nullable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Slice, reflect.Map, reflect.Interface:
		return true
	case reflect.Struct:
		return t.NumField() == 0
	}
	return false
}

func encode[T any](tag, side string, v T) (json.RawMessage, error) {
	if err := validate(v); err != nil {
		return nil, &MismatchError{Tag: tag, Side: side, Err: err}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, &MismatchError{Tag: tag, Side: side, Err: err}
	}
	return b, nil
}

func decode[T any](tag, side string, raw json.RawMessage) (T, error) {
	var v T
	if isAbsent(raw) {
		if !nullable(reflect.TypeFor[T]()) {
			return v, &MismatchError{Tag: tag, Side: side, Err: errors.New("payload is required")}
		}
		return v, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		return v, &MismatchError{Tag: tag, Side: side, Err: err}
	}
	if dec.More() {
		return v, &MismatchError{Tag: tag, Side: side, Err: errors.New("trailing data after payload")}
	}
	if err := validate(v); err != nil {
		return v, &MismatchError{Tag: tag, Side: side, Err: err}
	}
	return v, nil
}

func validate(v any) error {
	vl, ok := v.(Validator)
	if !ok {
		return nil
	}
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer && rv.IsNil() {
		return nil
	}
	return vl.Validate()
}

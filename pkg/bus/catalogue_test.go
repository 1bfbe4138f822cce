package bus

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefinePanicsOnDuplicateOrEmpty(t *testing.T) {
	c := NewCatalogue()
	Define[string, string](c, "a")
	assert.Panics(t, func() { Define[int, int](c, "a") })
	assert.Panics(t, func() { Define[int, int](c, "") })
	assert.True(t, c.Has("a"))
	assert.False(t, c.Has("b"))
}

func TestOpsListsInDefinitionOrder(t *testing.T) {
	c := NewCatalogue()
	Define[*string, []int](c, "z")
	Define[struct{}, bool](c, "a")
	Define[int, int](c, "m")

	got := c.Ops()
	require.Len(t, got, 3)
	assert.Equal(t, OpInfo{Tag: "z", Request: "*string", Response: "[]int", Nullable: true}, got[0])
	assert.Equal(t, OpInfo{Tag: "a", Request: "struct {}", Response: "bool", Nullable: true}, got[1])
	assert.Equal(t, OpInfo{Tag: "m", Request: "int", Response: "int", Nullable: false}, got[2])
}

func TestDecodeStrict(t *testing.T) {
	type pt struct {
		X int `json:"x"`
	}
	v, err := decode[pt]("t", "request", json.RawMessage(` {"x": 3} `))
	require.NoError(t, err)
	assert.Equal(t, 3, v.X)

	for _, raw := range []string{`{"x":1,"y":2}`, `{"x":"1"}`, `{"x":1}{}`, ``, `null`} {
		_, err := decode[pt]("t", "request", json.RawMessage(raw))
		assert.ErrorIs(t, err, ErrCatalogueMismatch, raw)
	}

	m, err := decode[map[string]int]("t", "response", nil)
	require.NoError(t, err)
	assert.Nil(t, m)
}

type positive int

func (p positive) Validate() error {
	if p <= 0 {
		return errors.New("must be positive")
	}
	return nil
}

type maybe struct{ N int }

func (m *maybe) Validate() error {
	if m.N < 0 {
		return errors.New("negative")
	}
	return nil
}

func TestValidateBothPaths(t *testing.T) {
	_, err := encode("t", "request", positive(0))
	var me *MismatchError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, "t", me.Tag)

	_, err = decode[positive]("t", "response", json.RawMessage(`-1`))
	assert.ErrorIs(t, err, ErrCatalogueMismatch)

	// A nil pointer is an absent payload, not a validation failure.
	_, err = encode[*maybe]("t", "request", nil)
	assert.NoError(t, err)
	_, err = encode("t", "request", &maybe{N: -1})
	assert.ErrorIs(t, err, ErrCatalogueMismatch)
}

func TestRemoteErrorIdentity(t *testing.T) {
	assert.ErrorIs(t, &RemoteError{Code: CodeMismatch}, ErrCatalogueMismatch)
	assert.ErrorIs(t, &RemoteError{Code: CodeUnknownOp}, ErrUnknownOp)
	assert.NotErrorIs(t, &RemoteError{Code: CodeFault}, ErrCatalogueMismatch)
	assert.Equal(t, "boom", (&RemoteError{Message: "boom"}).Error())
}

func TestFaultCode(t *testing.T) {
	assert.Equal(t, CodeFault, FaultCode(errors.New("x")))
	assert.Equal(t, CodeMismatch, FaultCode(&MismatchError{Err: errors.New("x")}))
	assert.Equal(t, CodeUnknownOp, FaultCode(ErrUnknownOp))
	assert.Equal(t, CodePanic, FaultCode(&PanicError{Value: 1}))
	assert.Equal(t, "custom", FaultCode(&RemoteError{Code: "custom"}))
}

func TestIsAbsent(t *testing.T) {
	assert.True(t, isAbsent(nil))
	assert.True(t, isAbsent(json.RawMessage(" null ")))
	assert.False(t, isAbsent(json.RawMessage(`""`)))
	assert.False(t, isAbsent(json.RawMessage(`0`)))
}

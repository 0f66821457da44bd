package document

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `{
  "title": "Quarterly",
  "elements": {"a": {"kind": "text", "attrs": {"color": "#000"}}},
  "order": ["a"]
}`

func newSample(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManagerFrom([]byte(sample))
	require.NoError(t, err)
	return m
}

func TestNewManagerFromRejectsBadInput(t *testing.T) {
	_, err := NewManagerFrom([]byte(`{"a":`))
	assert.Error(t, err)

	_, err = NewManagerFrom([]byte(`[1,2]`))
	assert.Error(t, err)
}

func TestAddRequiresParent(t *testing.T) {
	m := newSample(t)

	_, err := m.Apply(Add(ParsePath("missing.child"), 1))
	var pe *PathError
	require.ErrorAs(t, err, &pe)
	assert.ErrorIs(t, err, ErrParentNotFound)
	assert.ErrorIs(t, err, ErrCommand, "path errors are command errors")

	applied, err := m.Apply(Add(ParsePath("subtitle"), "Q3"))
	require.NoError(t, err)
	assert.Nil(t, applied.PreviousValue)

	v, ok := m.Snapshot().Get(ParsePath("subtitle"))
	require.True(t, ok)
	assert.Equal(t, "Q3", v)
}

func TestAddExistingKeyFails(t *testing.T) {
	m := newSample(t)
	_, err := m.Apply(Add(ParsePath("title"), "x"))
	assert.ErrorIs(t, err, ErrPathExists)
}

func TestAddInsertsIntoArray(t *testing.T) {
	m := newSample(t)

	_, err := m.Apply(Add(ParsePath("order.0"), "z"))
	require.NoError(t, err)
	_, err = m.Apply(Add(ParsePath("order.2"), "end"))
	require.NoError(t, err)

	v, _ := m.Snapshot().Get(ParsePath("order"))
	assert.Equal(t, []interface{}{"z", "a", "end"}, v)

	_, err = m.Apply(Add(ParsePath("order.9"), "far"))
	assert.ErrorIs(t, err, ErrInvalidIndex)
}

func TestRemoveAndUpdateCapturePrevious(t *testing.T) {
	m := newSample(t)

	upd, err := m.Apply(Update(ParsePath("elements.a.attrs.color"), "#fff"))
	require.NoError(t, err)
	assert.Equal(t, json.RawMessage(`"#000"`), upd.PreviousValue)

	rem, err := m.Apply(Remove(ParsePath("order.0")))
	require.NoError(t, err)
	assert.Equal(t, json.RawMessage(`"a"`), rem.PreviousValue)

	assert.Empty(t, m.Snapshot().Result(ParsePath("order")).Array())
}

func TestRemoveAndUpdateMissingPath(t *testing.T) {
	m := newSample(t)

	_, err := m.Apply(Remove(ParsePath("nope")))
	assert.ErrorIs(t, err, ErrPathNotFound)

	_, err = m.Apply(Update(ParsePath("elements.b.x"), 3))
	assert.ErrorIs(t, err, ErrPathNotFound)

	_, err = m.Apply(Update(nil, 3))
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestInverseRestoresState(t *testing.T) {
	m := newSample(t)
	before := m.Snapshot().Value()

	applied, err := m.ApplyAll([]Change{
		Update(ParsePath("title"), "Annual"),
		Add(ParsePath("elements.b"), map[string]interface{}{"kind": "icon"}),
		Add(ParsePath("order.1"), "b"),
		Remove(ParsePath("elements.a.attrs")),
	})
	require.NoError(t, err)
	require.Len(t, applied, 4)
	assert.NotEqual(t, before, m.Snapshot().Value())

	_, err = m.ApplyAll(InvertAll(applied))
	require.NoError(t, err)
	assert.Equal(t, before, m.Snapshot().Value())
}

func TestInverseRestoresExactBytes(t *testing.T) {
	m, err := NewManagerFrom([]byte(`{"id": 9007199254740993, "obj": {"b": 1, "a": 2.50}, "n": 1e3}`))
	require.NoError(t, err)
	before := m.Snapshot().Raw()

	applied, err := m.ApplyAll([]Change{
		Update(ParsePath("id"), 1),
		Update(ParsePath("obj"), map[string]interface{}{"x": 1}),
		Remove(ParsePath("n")),
	})
	require.NoError(t, err)
	assert.Equal(t, json.RawMessage(`9007199254740993`), applied[0].PreviousValue)
	assert.Equal(t, json.RawMessage(`{"b":1,"a":2.50}`), applied[1].PreviousValue)
	assert.Equal(t, json.RawMessage(`1e3`), applied[2].PreviousValue)

	_, err = m.ApplyAll(InvertAll(applied))
	require.NoError(t, err)
	assert.Equal(t, before, m.Snapshot().Raw())
	assert.Equal(t, "9007199254740993", m.Snapshot().Result(ParsePath("id")).Raw)
}

func TestMalformedRawValueRejected(t *testing.T) {
	m := newSample(t)
	before := m.Snapshot().Raw()
	_, err := m.Apply(Update(ParsePath("title"), json.RawMessage(`{"open":`)))
	assert.ErrorIs(t, err, ErrInvalidValue)
	assert.Equal(t, before, m.Snapshot().Raw())
}

func TestApplyAllRollsBackOnFailure(t *testing.T) {
	m := newSample(t)
	before := m.Snapshot().Value()

	_, err := m.ApplyAll([]Change{
		Update(ParsePath("title"), "Annual"),
		Remove(ParsePath("order.0")),
		Remove(ParsePath("does.not.exist")),
	})
	require.Error(t, err)
	assert.Equal(t, before, m.Snapshot().Value())
}

func TestTxRollbackFallsBackToSnapshot(t *testing.T) {
	m := newSample(t)
	before := m.Snapshot().Value()

	tx := m.Begin()
	require.NoError(t, tx.Update(ParsePath("title"), "Changed"))
	// Mutating outside the tx makes the recorded inverse impossible.
	_, err := m.Apply(Remove(ParsePath("title")))
	require.NoError(t, err)

	err = tx.Rollback()
	require.Error(t, err)
	assert.Equal(t, before, m.Snapshot().Value())
}

func TestChangeInvert(t *testing.T) {
	p := ParsePath("a.b")
	tests := []struct {
		name string
		in   Change
		want Change
	}{
		{"add", Change{Op: OpAdd, Path: p, Value: 1}, Change{Op: OpRemove, Path: p, PreviousValue: 1}},
		{"remove", Change{Op: OpRemove, Path: p, PreviousValue: 2}, Change{Op: OpAdd, Path: p, Value: 2}},
		{"update", Change{Op: OpUpdate, Path: p, Value: 3, PreviousValue: 4}, Change{Op: OpUpdate, Path: p, Value: 4, PreviousValue: 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Invert())
		})
	}
}

func TestPathEscaping(t *testing.T) {
	m := NewManager()
	_, err := m.Apply(Add(P("font.size"), 14))
	require.NoError(t, err)

	v, ok := m.Snapshot().Get(P("font.size"))
	require.True(t, ok)
	assert.Equal(t, float64(14), v)

	_, ok = m.Snapshot().Get(ParsePath("font.size"))
	assert.False(t, ok, "dotted notation addresses a nested key")
}

func TestCommandFuncAndBatchable(t *testing.T) {
	m := NewManager()
	cmd := CommandFunc{Label: "set", Fn: func(ctx context.Context, tx *Tx) error {
		return tx.Add(P("k"), "v")
	}}
	assert.True(t, IsBatchable(cmd))

	tx := m.Begin()
	require.NoError(t, cmd.Apply(context.Background(), tx))
	assert.Equal(t, 1, tx.Len())
	assert.Equal(t, "set", cmd.Name())
}

func TestCommandErrorMatching(t *testing.T) {
	cause := &PathError{Op: OpRemove, Path: P("x"), Err: ErrPathNotFound}
	err := error(&CommandError{Command: "remove", Phase: "apply", Err: cause})

	var pe *PathError
	assert.True(t, errors.As(err, &pe))
	assert.ErrorIs(t, err, ErrCommand)
	assert.ErrorIs(t, err, ErrPathNotFound)
	assert.Contains(t, err.Error(), "remove")
}

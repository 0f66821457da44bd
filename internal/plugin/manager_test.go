package plugin

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	log *[]string
}

func (r recorder) plugin(name string, initErr, destroyErr error) Funcs {
	return Funcs{
		PluginName: name,
		OnInit: func(ctx *Context) error {
			*r.log = append(*r.log, "init:"+name)
			return initErr
		},
		OnDestroy: func() error {
			*r.log = append(*r.log, "destroy:"+name)
			return destroyErr
		},
	}
}

func TestRegisterValidation(t *testing.T) {
	m := NewManager()
	var log []string
	r := recorder{&log}

	assert.ErrorIs(t, m.Register(r.plugin("", nil, nil)), ErrEmptyName)
	require.NoError(t, m.Register(r.plugin("a", nil, nil)))
	assert.ErrorIs(t, m.Register(r.plugin("a", nil, nil)), ErrDuplicate)

	require.NoError(t, m.InitAll(&Context{}))
	assert.ErrorIs(t, m.Register(r.plugin("late", nil, nil)), ErrAlreadyStarted)

	p, ok := m.Get("a")
	require.True(t, ok)
	assert.Equal(t, "a", p.Name())
	assert.Equal(t, []string{"a"}, m.Names())
}

func TestLifecycleOrderAndOnce(t *testing.T) {
	m := NewManager()
	var log []string
	r := recorder{&log}
	for _, name := range []string{"state", "history", "selection", "toolbar"} {
		require.NoError(t, m.Register(r.plugin(name, nil, nil)))
	}

	require.NoError(t, m.InitAll(&Context{}))
	require.NoError(t, m.InitAll(&Context{}), "second init is a no-op")
	require.NoError(t, m.DestroyAll())
	require.NoError(t, m.DestroyAll(), "second destroy is a no-op")

	assert.Equal(t, []string{
		"init:state", "init:history", "init:selection", "init:toolbar",
		"destroy:toolbar", "destroy:selection", "destroy:history", "destroy:state",
	}, log)
}

func TestInitFailureDestroysInitialized(t *testing.T) {
	m := NewManager()
	var log []string
	r := recorder{&log}
	require.NoError(t, m.Register(r.plugin("a", nil, nil)))
	require.NoError(t, m.Register(r.plugin("b", errors.New("no"), nil)))
	require.NoError(t, m.Register(r.plugin("c", nil, nil)))

	err := m.InitAll(&Context{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "'b'")

	assert.Equal(t, []string{"init:a", "init:b", "destroy:a"}, log)
}

func TestDestroyCollectsErrors(t *testing.T) {
	m := NewManager()
	var log []string
	r := recorder{&log}
	require.NoError(t, m.Register(r.plugin("a", nil, errors.New("a broke"))))
	require.NoError(t, m.Register(r.plugin("b", nil, errors.New("b broke"))))
	require.NoError(t, m.InitAll(&Context{}))

	err := m.DestroyAll()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a broke")
	assert.Contains(t, err.Error(), "b broke")
	assert.Equal(t, []string{"init:a", "init:b", "destroy:b", "destroy:a"}, log)
}

package vm

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/crest/internal/testing/fake"
	"go.dedis.ch/crest/schema/types"
	"go.dedis.ch/crest/typelib"
)

func TestValidate(t *testing.T) {
	schema := makeSchema(t)

	res, err := Validate(fakeMachine{accepted: true}, schema, 0, NewValues())
	require.NoError(t, err)
	require.True(t, res.Accepted)
}

func TestValidate_UnknownOperation(t *testing.T) {
	schema := makeSchema(t)

	_, err := Validate(fakeMachine{}, schema, 42, NewValues())
	require.EqualError(t, err, "operation 42 is not declared")
}

func TestValidate_BadMachine(t *testing.T) {
	schema := makeSchema(t)

	_, err := Validate(fakeMachine{err: fake.Err}, schema, 0, NewValues())
	require.EqualError(t, err, "execution failed: fake error")
}

func TestValues_GetGlobal(t *testing.T) {
	value := []byte{1, 2, 3}

	vals := NewValues().WithGlobal(7, value)

	value[0] = 99
	require.Equal(t, [][]byte{{1, 2, 3}}, vals.GetGlobal(7))
	require.Empty(t, vals.GetGlobal(8))
}

func TestValues_GetInputAmounts(t *testing.T) {
	vals := NewValues().WithInput(7, 10).WithInput(7, 20)

	require.Equal(t, []uint64{10, 20}, vals.GetInputAmounts(7))
	require.Empty(t, vals.GetInputAmounts(8))
}

func TestValues_GetOutputAmounts(t *testing.T) {
	vals := NewValues().WithOutput(7, 30)

	require.Equal(t, []uint64{30}, vals.GetOutputAmounts(7))
	require.Empty(t, vals.GetOutputAmounts(8))
}

// -----------------------------------------------------------------------------
// Utility functions

type fakeMachine struct {
	accepted bool
	err      error
}

func (m fakeMachine) Execute(script types.Script, env Env) (Result, error) {
	return Result{Accepted: m.accepted}, m.err
}

func makeSchema(t *testing.T) types.Schema {
	builder := typelib.NewBuilder()

	lib, err := builder.Resolve()
	require.NoError(t, err)

	schema, err := types.NewSchema("token", lib, nil, nil, nil,
		[]types.OperationDef{types.NewOperationDef(types.Genesis, 0)},
		map[types.OpID]types.Script{0: types.NewScript([]byte{0})})
	require.NoError(t, err)

	return schema
}

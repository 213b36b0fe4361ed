package native

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/crest/schema/types"
	"go.dedis.ch/crest/vm"
)

func TestMachine_Empty_Execute(t *testing.T) {
	machine := NewMachine()

	res, err := machine.Execute(types.NewScript(nil), vm.NewValues())
	require.NoError(t, err)
	require.True(t, res.Accepted)
}

func TestMachine_Ret_Execute(t *testing.T) {
	machine := NewMachine()

	script := types.NewScript(NewProgram().Ret().Bytes())

	res, err := machine.Execute(script, vm.NewValues())
	require.NoError(t, err)
	require.True(t, res.Accepted)
}

func TestMachine_CheckBalance_Execute(t *testing.T) {
	machine := NewMachine()

	script := types.NewScript(NewProgram().SetErr(2).CheckBalance(4000).Ret().Bytes())

	env := vm.NewValues().
		WithInput(4000, 60).WithInput(4000, 40).
		WithOutput(4000, 100)

	res, err := machine.Execute(script, env)
	require.NoError(t, err)
	require.True(t, res.Accepted)

	env = vm.NewValues().WithInput(4000, 100).WithOutput(4000, 99)

	res, err = machine.Execute(script, env)
	require.NoError(t, err)
	require.False(t, res.Accepted)
	require.Equal(t, uint8(2), res.Code)
	require.Equal(t, "unbalanced amounts", res.Message)
}

func TestMachine_OverflowingBalance_Execute(t *testing.T) {
	machine := NewMachine()

	script := types.NewScript(NewProgram().SetErr(2).CheckBalance(4000).Ret().Bytes())

	// The output total wraps past 2^64 back to the input total, which would
	// mint assets if the addition were unchecked.
	env := vm.NewValues().
		WithInput(4000, 1).
		WithOutput(4000, ^uint64(0)).WithOutput(4000, 2)

	res, err := machine.Execute(script, env)
	require.NoError(t, err)
	require.False(t, res.Accepted)
	require.Equal(t, uint8(2), res.Code)
	require.Equal(t, "amount overflow", res.Message)

	env = vm.NewValues().
		WithInput(4000, ^uint64(0)).WithInput(4000, 1).
		WithOutput(4000, 0)

	res, err = machine.Execute(script, env)
	require.NoError(t, err)
	require.False(t, res.Accepted)
	require.Equal(t, "amount overflow", res.Message)
}

func TestMachine_CheckReported_Execute(t *testing.T) {
	machine := NewMachine()

	script := types.NewScript(NewProgram().SetErr(1).CheckReported(4000, 2002).Bytes())

	env := vm.NewValues().
		WithGlobal(2002, amountBytes(1000)).
		WithOutput(4000, 400).WithOutput(4000, 600)

	res, err := machine.Execute(script, env)
	require.NoError(t, err)
	require.True(t, res.Accepted)

	env = vm.NewValues().
		WithGlobal(2002, amountBytes(1000)).
		WithOutput(4000, 999)

	res, err = machine.Execute(script, env)
	require.NoError(t, err)
	require.False(t, res.Accepted)
	require.Equal(t, uint8(1), res.Code)
	require.Equal(t, "reported amount mismatch", res.Message)
}

func TestMachine_BadGlobal_Execute(t *testing.T) {
	machine := NewMachine()

	script := types.NewScript(NewProgram().CheckReported(4000, 2002).Bytes())

	_, err := machine.Execute(script, vm.NewValues())
	require.EqualError(t, err,
		"couldn't read global 2002: expected one value, got 0")

	env := vm.NewValues().WithGlobal(2002, []byte{1, 2})

	_, err = machine.Execute(script, env)
	require.EqualError(t, err,
		"couldn't read global 2002: expected 8 bytes, got 2")
}

func TestMachine_CheckIssuance_Execute(t *testing.T) {
	machine := NewMachine()

	script := types.NewScript(NewProgram().SetErr(3).CheckIssuance(4001, 4000).Bytes())

	// 1000 allowance consumed, 400 kept, 600 assets issued.
	env := vm.NewValues().
		WithInput(4001, 1000).
		WithOutput(4001, 400).
		WithOutput(4000, 600)

	res, err := machine.Execute(script, env)
	require.NoError(t, err)
	require.True(t, res.Accepted)

	env = vm.NewValues().
		WithInput(4001, 1000).
		WithOutput(4001, 400).
		WithOutput(4000, 601)

	res, err = machine.Execute(script, env)
	require.NoError(t, err)
	require.False(t, res.Accepted)
	require.Equal(t, uint8(3), res.Code)
	require.Equal(t, "issuance exceeds allowance", res.Message)
}

func TestMachine_OverflowingReported_Execute(t *testing.T) {
	machine := NewMachine()

	script := types.NewScript(NewProgram().SetErr(1).CheckReported(4000, 2002).Bytes())

	env := vm.NewValues().
		WithGlobal(2002, amountBytes(1)).
		WithOutput(4000, ^uint64(0)).WithOutput(4000, 2)

	res, err := machine.Execute(script, env)
	require.NoError(t, err)
	require.False(t, res.Accepted)
	require.Equal(t, uint8(1), res.Code)
	require.Equal(t, "amount overflow", res.Message)
}

func TestMachine_OverflowingIssuance_Execute(t *testing.T) {
	machine := NewMachine()

	script := types.NewScript(NewProgram().SetErr(3).CheckIssuance(4001, 4000).Bytes())

	// kept + issued wraps back to the consumed total.
	env := vm.NewValues().
		WithInput(4001, 0).
		WithOutput(4001, ^uint64(0)).
		WithOutput(4000, 1)

	res, err := machine.Execute(script, env)
	require.NoError(t, err)
	require.False(t, res.Accepted)
	require.Equal(t, uint8(3), res.Code)
	require.Equal(t, "amount overflow", res.Message)

	env = vm.NewValues().
		WithInput(4001, ^uint64(0)).WithInput(4001, 1).
		WithOutput(4001, 0).
		WithOutput(4000, 0)

	res, err = machine.Execute(script, env)
	require.NoError(t, err)
	require.False(t, res.Accepted)
	require.Equal(t, "amount overflow", res.Message)
}

func TestMachine_Truncated_Execute(t *testing.T) {
	machine := NewMachine()

	_, err := machine.Execute(types.NewScript([]byte{OpSetErr}), vm.NewValues())
	require.EqualError(t, err, "truncated seterr")

	_, err = machine.Execute(types.NewScript([]byte{OpCheckBalance, 1}), vm.NewValues())
	require.EqualError(t, err, "truncated check")

	_, err = machine.Execute(types.NewScript([]byte{OpCheckReported, 1, 2, 3}), vm.NewValues())
	require.EqualError(t, err, "truncated check")

	_, err = machine.Execute(types.NewScript([]byte{OpCheckIssuance, 1, 2, 3}), vm.NewValues())
	require.EqualError(t, err, "truncated check")
}

func TestMachine_UnknownOpcode_Execute(t *testing.T) {
	machine := NewMachine()

	_, err := machine.Execute(types.NewScript([]byte{0xff}), vm.NewValues())
	require.EqualError(t, err, "unknown opcode 0xff")
}

func TestProgram_Bytes(t *testing.T) {
	program := NewProgram().SetErr(2).CheckBalance(4000).Ret()

	code := program.Bytes()
	require.Equal(t, 6, len(code))
	require.Equal(t, OpSetErr, code[0])
	require.Equal(t, OpCheckBalance, code[2])
	require.Equal(t, OpRet, code[5])

	code[0] = 0xff
	require.Equal(t, OpSetErr, program.Bytes()[0])
}

// -----------------------------------------------------------------------------
// Utility functions

func amountBytes(amount uint64) []byte {
	buffer := make([]byte, 8)
	binary.LittleEndian.PutUint64(buffer, amount)

	return buffer
}

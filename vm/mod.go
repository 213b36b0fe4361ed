// Package vm defines the boundary with the virtual machine that executes the
// validation scripts of a schema.
//
// The machine is a collaborator of the schema subsystem: it receives the
// opaque bytecode attached to an operation declaration and a read-only view
// of the values bound to the operation, and it returns an accept or reject
// verdict. The execution contract requires the machine to be deterministic,
// total and free of side effects, so that every validator reaches the same
// verdict from the same inputs. A rejection is a normal result, not an error:
// errors are reserved for defects of the script or of the machine itself.
package vm

import (
	"go.dedis.ch/crest/schema/types"
	"golang.org/x/xerrors"
)

// Result is the verdict of a validation script execution.
type Result struct {
	// Accepted is true when the operation satisfies the script.
	Accepted bool

	// Code is the numeric diagnostic code reported on rejection.
	Code uint8

	// Message gives a chance to the machine to explain why the operation has
	// been rejected.
	Message string
}

// Env is the read-only view of the values bound to the operation under
// validation.
type Env interface {
	// GetGlobal returns the values declared for the global state field, in
	// their canonical encoding.
	GetGlobal(id types.GlobalID) [][]byte

	// GetInputAmounts returns the amounts of the owned state consumed by the
	// operation for the field.
	GetInputAmounts(id types.OwnedID) []uint64

	// GetOutputAmounts returns the amounts of the owned state produced by
	// the operation for the field.
	GetOutputAmounts(id types.OwnedID) []uint64
}

// Machine is the interface of the virtual machine executing validation
// scripts.
type Machine interface {
	// Execute runs the script against the environment and returns the
	// verdict.
	Execute(script types.Script, env Env) (Result, error)
}

// Validate looks up the validation script of the operation in the schema and
// executes it on the machine. It returns an error when the operation is not
// declared, which is a defect of the caller and not a rejection.
func Validate(machine Machine, schema types.Schema, op types.OpID, env Env) (Result, error) {
	script, found := schema.GetScript(op)
	if !found {
		return Result{}, xerrors.Errorf("operation %d is not declared", op)
	}

	res, err := machine.Execute(script, env)
	if err != nil {
		return Result{}, xerrors.Errorf("execution failed: %v", err)
	}

	return res, nil
}

// Values is an in-memory environment for an operation.
//
// - implements vm.Env
type Values struct {
	globals map[types.GlobalID][][]byte
	inputs  map[types.OwnedID][]uint64
	outputs map[types.OwnedID][]uint64
}

// NewValues returns an empty environment.
func NewValues() Values {
	return Values{
		globals: make(map[types.GlobalID][][]byte),
		inputs:  make(map[types.OwnedID][]uint64),
		outputs: make(map[types.OwnedID][]uint64),
	}
}

// WithGlobal returns the environment with a value appended to the global
// state field.
func (vals Values) WithGlobal(id types.GlobalID, value []byte) Values {
	vals.globals[id] = append(vals.globals[id], append([]byte{}, value...))
	return vals
}

// WithInput returns the environment with an amount appended to the inputs of
// the owned state field.
func (vals Values) WithInput(id types.OwnedID, amount uint64) Values {
	vals.inputs[id] = append(vals.inputs[id], amount)
	return vals
}

// WithOutput returns the environment with an amount appended to the outputs
// of the owned state field.
func (vals Values) WithOutput(id types.OwnedID, amount uint64) Values {
	vals.outputs[id] = append(vals.outputs[id], amount)
	return vals
}

// GetGlobal implements vm.Env.
func (vals Values) GetGlobal(id types.GlobalID) [][]byte {
	return vals.globals[id]
}

// GetInputAmounts implements vm.Env.
func (vals Values) GetInputAmounts(id types.OwnedID) []uint64 {
	return vals.inputs[id]
}

// GetOutputAmounts implements vm.Env.
func (vals Values) GetOutputAmounts(id types.OwnedID) []uint64 {
	return vals.outputs[id]
}

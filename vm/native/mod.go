// Package native implements a small native machine for the validation
// scripts of the built-in schemata.
//
// The instruction set covers the checks the contract schemata need: setting
// the diagnostic code and verifying the arithmetic relations between the
// amounts of an operation. A program is a flat byte sequence of fixed
// instructions and the machine executes it in a single pass: there are no
// jumps, so every program trivially terminates.
package native

import (
	"encoding/binary"

	"go.dedis.ch/crest/schema/types"
	"go.dedis.ch/crest/vm"
	"golang.org/x/xerrors"
)

// Instruction opcodes of the native machine.
const (
	// OpRet terminates the program with an accept verdict.
	OpRet byte = 0x00

	// OpSetErr sets the diagnostic code reported by a subsequent failing
	// check. Operand: code (1 byte).
	OpSetErr byte = 0x01

	// OpCheckBalance verifies that the sum of the input amounts of an owned
	// state field equals the sum of its output amounts. Operand: owned field
	// id (2 bytes).
	OpCheckBalance byte = 0x02

	// OpCheckReported verifies that the amount reported by a global state
	// field equals the sum of the output amounts of an owned state field.
	// Operands: owned field id (2 bytes), global field id (2 bytes).
	OpCheckReported byte = 0x03

	// OpCheckIssuance verifies that the allowance consumed equals the
	// allowance reproduced plus the assets issued. Operands: allowance field
	// id (2 bytes), asset field id (2 bytes).
	OpCheckIssuance byte = 0x04
)

// Machine executes native validation programs.
//
// - implements vm.Machine
type Machine struct{}

// NewMachine returns a native machine.
func NewMachine() Machine {
	return Machine{}
}

// Execute implements vm.Machine. It runs the program in a single pass and
// returns the verdict. A malformed program returns an error, as it is a
// defect of the script rather than a rejection of the operation.
func (m Machine) Execute(script types.Script, env vm.Env) (vm.Result, error) {
	code := script.GetCode()

	var errno uint8

	for pc := 0; pc < len(code); {
		switch code[pc] {
		case OpRet:
			return vm.Result{Accepted: true}, nil
		case OpSetErr:
			if pc+1 >= len(code) {
				return vm.Result{}, xerrors.New("truncated seterr")
			}

			errno = code[pc+1]
			pc += 2
		case OpCheckBalance:
			if pc+2 >= len(code) {
				return vm.Result{}, xerrors.New("truncated check")
			}

			id := types.OwnedID(binary.LittleEndian.Uint16(code[pc+1:]))

			in, inOK := sum(env.GetInputAmounts(id))
			out, outOK := sum(env.GetOutputAmounts(id))

			if !inOK || !outOK {
				return reject(errno, "amount overflow"), nil
			}

			if in != out {
				return reject(errno, "unbalanced amounts"), nil
			}

			pc += 3
		case OpCheckReported:
			if pc+4 >= len(code) {
				return vm.Result{}, xerrors.New("truncated check")
			}

			owned := types.OwnedID(binary.LittleEndian.Uint16(code[pc+1:]))
			global := types.GlobalID(binary.LittleEndian.Uint16(code[pc+3:]))

			reported, err := reportedAmount(env.GetGlobal(global))
			if err != nil {
				return vm.Result{}, xerrors.Errorf("couldn't read global %d: %v", global, err)
			}

			total, ok := sum(env.GetOutputAmounts(owned))
			if !ok {
				return reject(errno, "amount overflow"), nil
			}

			if reported != total {
				return reject(errno, "reported amount mismatch"), nil
			}

			pc += 5
		case OpCheckIssuance:
			if pc+4 >= len(code) {
				return vm.Result{}, xerrors.New("truncated check")
			}

			allowance := types.OwnedID(binary.LittleEndian.Uint16(code[pc+1:]))
			asset := types.OwnedID(binary.LittleEndian.Uint16(code[pc+3:]))

			consumed, consumedOK := sum(env.GetInputAmounts(allowance))
			kept, keptOK := sum(env.GetOutputAmounts(allowance))
			issued, issuedOK := sum(env.GetOutputAmounts(asset))

			produced := kept + issued

			if !consumedOK || !keptOK || !issuedOK || produced < kept {
				return reject(errno, "amount overflow"), nil
			}

			if consumed != produced {
				return reject(errno, "issuance exceeds allowance"), nil
			}

			pc += 5
		default:
			return vm.Result{}, xerrors.Errorf("unknown opcode 0x%x", code[pc])
		}
	}

	return vm.Result{Accepted: true}, nil
}

func reject(code uint8, message string) vm.Result {
	return vm.Result{
		Accepted: false,
		Code:     code,
		Message:  message,
	}
}

// sum adds the amounts with an overflow check. A wrapping total would let an
// inflationary operation satisfy the balance relations, so it is reported and
// rejected instead.
func sum(amounts []uint64) (uint64, bool) {
	var total uint64
	for _, amount := range amounts {
		if total+amount < total {
			return 0, false
		}

		total += amount
	}

	return total, true
}

// reportedAmount reads the unique value of a global state field as a 64-bit
// little-endian amount.
func reportedAmount(values [][]byte) (uint64, error) {
	if len(values) != 1 {
		return 0, xerrors.Errorf("expected one value, got %d", len(values))
	}

	if len(values[0]) != 8 {
		return 0, xerrors.Errorf("expected 8 bytes, got %d", len(values[0]))
	}

	return binary.LittleEndian.Uint64(values[0]), nil
}

// Program is a helper to assemble a native validation program.
type Program struct {
	code []byte
}

// NewProgram returns an empty program.
func NewProgram() *Program {
	return &Program{}
}

// SetErr appends an instruction setting the diagnostic code.
func (p *Program) SetErr(code uint8) *Program {
	p.code = append(p.code, OpSetErr, code)
	return p
}

// CheckBalance appends an instruction verifying that the inputs and outputs
// of the owned state field hold the same total amount.
func (p *Program) CheckBalance(id types.OwnedID) *Program {
	p.code = append(p.code, OpCheckBalance)
	p.code = appendUint16(p.code, uint16(id))

	return p
}

// CheckReported appends an instruction verifying that the amount reported by
// the global state field equals the total amount produced for the owned
// state field.
func (p *Program) CheckReported(owned types.OwnedID, global types.GlobalID) *Program {
	p.code = append(p.code, OpCheckReported)
	p.code = appendUint16(p.code, uint16(owned))
	p.code = appendUint16(p.code, uint16(global))

	return p
}

// CheckIssuance appends an instruction verifying that the allowance consumed
// equals the allowance reproduced plus the assets issued.
func (p *Program) CheckIssuance(allowance, asset types.OwnedID) *Program {
	p.code = append(p.code, OpCheckIssuance)
	p.code = appendUint16(p.code, uint16(allowance))
	p.code = appendUint16(p.code, uint16(asset))

	return p
}

// Ret appends an instruction terminating the program with an accept verdict.
func (p *Program) Ret() *Program {
	p.code = append(p.code, OpRet)
	return p
}

// Bytes returns the bytecode of the program.
func (p *Program) Bytes() []byte {
	return append([]byte{}, p.code...)
}

func appendUint16(code []byte, value uint16) []byte {
	buffer := make([]byte, 2)
	binary.LittleEndian.PutUint16(buffer, value)

	return append(code, buffer...)
}

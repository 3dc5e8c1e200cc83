// Package vector converts pages by rewriting color operators directly in
// their content streams, keeping text and line art crisp.
package vector

import (
	"pdfdusk/converter/colorspace"
	"pdfdusk/converter/contentstream"
)

// Transform inverts the color-setting operations in an operation sequence
// and returns the rewritten sequence plus the number of operations changed.
// Operation order and count are preserved exactly; operations that cannot be
// converted pass through unmodified.
func Transform(ops []contentstream.Operation) ([]contentstream.Operation, int) {
	out := make([]contentstream.Operation, len(ops))
	changed := 0
	for i, op := range ops {
		newOp, ok := transformOperation(op)
		if ok {
			changed++
		}
		out[i] = newOp
	}
	return out, changed
}

func transformOperation(op contentstream.Operation) (contentstream.Operation, bool) {
	switch op.Operator {
	case "rg", "RG":
		return invertOperands(op, 3, func(v []float64) {
			v[0], v[1], v[2] = colorspace.InvertRGB(v[0], v[1], v[2])
		})
	case "g", "G":
		return invertOperands(op, 1, func(v []float64) {
			v[0] = colorspace.InvertGray(v[0])
		})
	case "k", "K":
		return invertOperands(op, 4, func(v []float64) {
			v[0], v[1], v[2], v[3] = colorspace.InvertCMYK(v[0], v[1], v[2], v[3])
		})
	}
	return op, false
}

// invertOperands rewrites the first arity operands through invert, leaving
// any trailing operands untouched. Short or non-numeric operand lists leave
// the operation unmodified.
func invertOperands(op contentstream.Operation, arity int, invert func([]float64)) (contentstream.Operation, bool) {
	if len(op.Operands) < arity {
		return op, false
	}

	values := make([]float64, arity)
	for i := 0; i < arity; i++ {
		v, err := contentstream.ParseNumber(op.Operands[i])
		if err != nil {
			return op, false
		}
		values[i] = v
	}

	invert(values)

	operands := make([]string, len(op.Operands))
	copy(operands, op.Operands)
	for i, v := range values {
		operands[i] = contentstream.FormatNumber(v)
	}
	return contentstream.Operation{Operator: op.Operator, Operands: operands}, true
}

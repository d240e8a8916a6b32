// Package tools implements C3's adapters: the external operations a
// conversation.ToolCall or conversation.FunctionCall dispatches. Grounded
// on original_source/chatbot/src/externals/tool_call_external.rs,
// recall_short_term_external.rs, and recall_long_term_external.rs.
package tools

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/terminal-alpha-beta/hivebot/internal/conversation"
)

// ExecuteMath evaluates each operation in order and formats the result
// the way execute_math does: one "Operation N: <expr> = <result>" line
// per operation, using the original's exact operator glyphs and the
// literal "Error: Division by zero" on division by zero.
func ExecuteMath(operations []conversation.MathOperation) conversation.ToolResultData {
	lines := make([]string, 0, len(operations))
	for i, op := range operations {
		lines = append(lines, fmt.Sprintf("Operation %d: %s", i+1, formatMathOp(op)))
	}
	actual := "MATH TOOL RESULT:\n" + strings.Join(lines, "\n")
	return conversation.ToolResultData{Actual: actual, Simplified: actual}
}

func formatMathOp(op conversation.MathOperation) string {
	a, b := op.A, op.B
	switch op.Op {
	case conversation.MathAdd:
		return fmt.Sprintf("%s + %s = %s", fnum(a), fnum(b), fnum(a+b))
	case conversation.MathSub:
		return fmt.Sprintf("%s - %s = %s", fnum(a), fnum(b), fnum(a-b))
	case conversation.MathMul:
		return fmt.Sprintf("%s × %s = %s", fnum(a), fnum(b), fnum(a*b))
	case conversation.MathDiv:
		if b == 0 {
			return fmt.Sprintf("%s ÷ %s = Error: Division by zero", fnum(a), fnum(b))
		}
		return fmt.Sprintf("%s ÷ %s = %s", fnum(a), fnum(b), fnum(a/b))
	case conversation.MathExp:
		res := math.Pow(float64(a), float64(b))
		return fmt.Sprintf("%s ^ %s = %s", fnum(a), fnum(b), fnum64(res))
	default:
		return fmt.Sprintf("unknown operator %q", op.Op)
	}
}

// fnum formats a float32 the way Rust's default Display does: the
// shortest decimal that round-trips back to the same float32, matching
// f32's Display rather than a fixed 6-decimal truncation.
func fnum(f float32) string {
	return strconv.FormatFloat(float64(f), 'g', -1, 32)
}

// fnum64 is fnum for the Exp operator's f64 powf result, where the
// original's Display operates on a full f64 rather than an f32.
func fnum64(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

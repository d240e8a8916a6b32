package tools

import (
	"strings"
	"testing"

	"github.com/terminal-alpha-beta/hivebot/internal/conversation"
)

func TestExecuteMath_AllOperators(t *testing.T) {
	ops := []conversation.MathOperation{
		{Op: conversation.MathAdd, A: 5, B: 3},
		{Op: conversation.MathSub, A: 10, B: 4},
		{Op: conversation.MathMul, A: 6, B: 7},
		{Op: conversation.MathDiv, A: 20, B: 4},
		{Op: conversation.MathExp, A: 2, B: 8},
	}
	result := ExecuteMath(ops)

	for _, want := range []string{
		"5 + 3 = 8",
		"10 - 4 = 6",
		"6 × 7 = 42",
		"20 ÷ 4 = 5",
		"2 ^ 8 = 256",
	} {
		if !strings.Contains(result.Actual, want) {
			t.Errorf("expected result to contain %q, got:\n%s", want, result.Actual)
		}
	}
}

func TestExecuteMath_DivisionByZero(t *testing.T) {
	result := ExecuteMath([]conversation.MathOperation{{Op: conversation.MathDiv, A: 10, B: 0}})
	if !strings.Contains(result.Actual, "Error: Division by zero") {
		t.Errorf("expected division-by-zero literal, got %q", result.Actual)
	}
}

func TestExecuteMath_FloatOperations(t *testing.T) {
	ops := []conversation.MathOperation{
		{Op: conversation.MathAdd, A: 5.5, B: 3.2},
		{Op: conversation.MathDiv, A: 7, B: 2},
	}
	result := ExecuteMath(ops)
	if !strings.Contains(result.Actual, "5.5 + 3.2 = 8.7") {
		t.Errorf("expected float addition result, got:\n%s", result.Actual)
	}
	if !strings.Contains(result.Actual, "7 ÷ 2 = 3.5") {
		t.Errorf("expected float division result, got:\n%s", result.Actual)
	}
}

func TestExecuteMath_SimplifiedEqualsActual(t *testing.T) {
	result := ExecuteMath([]conversation.MathOperation{{Op: conversation.MathAdd, A: 1, B: 1}})
	if result.Simplified != result.Actual {
		t.Error("expected math results to be unabridged in both actual and simplified")
	}
}

func TestExecuteMath_SequentialOperationIndexing(t *testing.T) {
	ops := []conversation.MathOperation{
		{Op: conversation.MathDiv, A: 10, B: 0},
		{Op: conversation.MathAdd, A: 1, B: 2},
	}
	result := ExecuteMath(ops)
	if !strings.Contains(result.Actual, "Operation 1: 10 ÷ 0 = Error: Division by zero") {
		t.Errorf("expected operation 1 to report the division error, got:\n%s", result.Actual)
	}
	if !strings.Contains(result.Actual, "Operation 2: 1 + 2 = 3") {
		t.Errorf("expected operation 2 to proceed normally, got:\n%s", result.Actual)
	}
}

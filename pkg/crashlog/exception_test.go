package crashlog

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRootCause(t *testing.T) {
	base := errors.New("base")

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"nil", nil, nil},
		{"plain", base, base},
		{"wrapped", fmt.Errorf("a: %w", fmt.Errorf("b: %w", base)), base},
		{"joined follows first branch", errors.Join(base, errors.New("other")), base},
		{"parse error without cause", &ParseError{URI: "x"}, &ParseError{URI: "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RootCause(tt.err))
		})
	}
}

func TestTypeName(t *testing.T) {
	assert.Equal(t, "", TypeName(nil))
	assert.Equal(t, "*errors.errorString", TypeName(errors.New("x")))
	assert.Equal(t, "*crashlog.ParseError", TypeName(&ParseError{}))
	assert.Equal(t, "*fs.PathError", TypeName(&fs.PathError{Op: "open", Path: "a", Err: fs.ErrNotExist}))
}

func TestSourceOf(t *testing.T) {
	assert.Equal(t, "", sourceOf(nil))
	assert.Equal(t, "io/fs", sourceOf(&fs.PathError{}))
	assert.Equal(t, "Orders.Checkout", sourceOf(sourcedError{}))
}

func TestDetailOf(t *testing.T) {
	err := fmt.Errorf("load: %w", &ParseError{URI: "main.xml", Line: 3, Column: 4, Err: errors.New("unexpected token")})

	detail := detailOf(err)

	assert.Equal(t,
		"*fmt.wrapError: load: parse error at main.xml:3:4: unexpected token"+
			"\n ---> *crashlog.ParseError: parse error at main.xml:3:4: unexpected token"+
			"\n ---> *errors.errorString: unexpected token",
		detail)
}

func TestErrorData_CollectsChain(t *testing.T) {
	inner := &dataError{msg: "inner", items: []Item{{Key: "Inner", Value: "1"}}}
	err := &ResourceKeyError{Key: "Brush", Err: inner}

	items := errorData(err)

	assert.Equal(t, []Item{
		{Key: "Inner", Value: "1"},
		{Key: "ResourceKey", Value: "Brush"},
	}, items)
}

func TestErrorData_ParseErrorWithoutLine(t *testing.T) {
	items := errorData(&ParseError{URI: "main.xml"})
	assert.Equal(t, []Item{{Key: "ParseError.BaseUri", Value: "main.xml"}}, items)
}

func TestIsDispatcherMarker(t *testing.T) {
	assert.True(t, isDispatcherMarker(Item{Key: "System.Windows.Threading.Dispatcher.Unhandled"}))
	assert.False(t, isDispatcherMarker(Item{Key: "System.Windows.Threading.Dispatcher.Unhandled", Value: "x"}))
	assert.False(t, isDispatcherMarker(Item{Key: "Order"}))
}

func TestRootCause_TypedNil(t *testing.T) {
	var pe *ParseError
	if got := RootCause(pe); got != nil {
		t.Errorf("RootCause(typed nil) = %v, want nil", got)
	}

	wrapped := fmt.Errorf("load: %w", pe)
	if got := RootCause(wrapped); got != wrapped {
		t.Errorf("RootCause(wrapped typed nil) = %v, want the wrapper", got)
	}
	if n := len(chain(wrapped)); n != 1 {
		t.Errorf("chain length = %d, want 1", n)
	}
}

func TestIsNilError(t *testing.T) {
	var pe *ParseError
	var rke *ResourceKeyError
	assert.True(t, isNilError(nil))
	assert.True(t, isNilError(pe))
	assert.True(t, isNilError(rke))
	assert.False(t, isNilError(errors.New("x")))
	assert.False(t, isNilError(&ParseError{URI: "a.xml"}))
}

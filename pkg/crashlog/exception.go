// exception.go inspects captured errors: root cause, type names, and known error shapes.

package crashlog

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// dispatcherMarkerSuffix ends the key a GUI dispatcher leaves on errors it
// has already routed. Paired with an empty value it is framework noise.
const dispatcherMarkerSuffix = "Dispatcher.Unhandled"

// ParseError is reported by markup or document loaders.
type ParseError struct {
	URI    string
	Line   int
	Column int
	Err    error
}

func (e *ParseError) Error() string {
	if e == nil {
		return "parse error"
	}
	loc := e.URI
	if e.Line > 0 {
		loc = fmt.Sprintf("%s:%d:%d", e.URI, e.Line, e.Column)
	}
	if e.Err == nil {
		return "parse error at " + loc
	}
	return fmt.Sprintf("parse error at %s: %v", loc, e.Err)
}

func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ResourceKeyError is reported when a named resource lookup fails.
type ResourceKeyError struct {
	Key string
	Err error
}

func (e *ResourceKeyError) Error() string {
	if e == nil {
		return "resource not found"
	}
	if e.Err == nil {
		return fmt.Sprintf("resource %q not found", e.Key)
	}
	return fmt.Sprintf("resource %q: %v", e.Key, e.Err)
}

func (e *ResourceKeyError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// DataCarrier is implemented by errors that carry their own key/value data.
type DataCarrier interface {
	Data() []Item
}

// SourceCarrier is implemented by errors that know where they originated.
type SourceCarrier interface {
	Source() string
}

// stackCarrier is implemented by errors that captured a stack trace.
type stackCarrier interface {
	StackTrace() string
}

// isNilError reports whether err is nil or a nil pointer, map, slice,
// func, chan or interface stored in a non-nil error interface.
func isNilError(err error) bool {
	if err == nil {
		return true
	}
	v := reflect.ValueOf(err)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return v.IsNil()
	}
	return false
}

// RootCause returns the innermost error of a wrapped chain.
// For multi-errors the first branch is followed. Typed-nil links end the chain.
func RootCause(err error) error {
	if isNilError(err) {
		return nil
	}
	for err != nil {
		var next error
		switch x := err.(type) {
		case interface{ Unwrap() error }:
			next = x.Unwrap()
		case interface{ Unwrap() []error }:
			if errs := x.Unwrap(); len(errs) > 0 {
				next = errs[0]
			}
		}
		if isNilError(next) {
			return err
		}
		err = next
	}
	return nil
}

// chain returns err followed by every error it wraps, outermost first.
func chain(err error) []error {
	var out []error
	for !isNilError(err) {
		out = append(out, err)
		switch x := err.(type) {
		case interface{ Unwrap() error }:
			err = x.Unwrap()
		case interface{ Unwrap() []error }:
			if errs := x.Unwrap(); len(errs) > 0 {
				err = errs[0]
			} else {
				err = nil
			}
		default:
			err = nil
		}
	}
	return out
}

// TypeName returns the Go type of err, e.g. "*errors.errorString".
func TypeName(err error) string {
	if isNilError(err) {
		return ""
	}
	return fmt.Sprintf("%T", err)
}

// sourceOf returns the origin of err: a self-reported source, else the
// package path of its type.
func sourceOf(err error) string {
	if isNilError(err) {
		return ""
	}
	if sc, ok := err.(SourceCarrier); ok {
		if src := sc.Source(); src != "" {
			return src
		}
	}
	t := reflect.TypeOf(err)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.PkgPath()
}

// detailOf renders the full chain, one "<type>: <message>" line per level,
// followed by any captured stack trace.
func detailOf(err error) string {
	if isNilError(err) {
		return ""
	}
	var b strings.Builder
	var stack string
	for i, e := range chain(err) {
		if i > 0 {
			b.WriteString("\n ---> ")
		}
		b.WriteString(TypeName(e))
		b.WriteString(": ")
		b.WriteString(e.Error())
		if sc, ok := e.(stackCarrier); ok && stack == "" {
			stack = sc.StackTrace()
		}
	}
	if stack != "" {
		b.WriteString("\n")
		b.WriteString(stack)
	}
	return b.String()
}

// errorData extracts structured fields from err: carried data from every
// level of the chain, then fields of recognized error shapes.
func errorData(err error) []Item {
	if isNilError(err) {
		return nil
	}
	var items []Item
	for _, e := range chain(err) {
		if dc, ok := e.(DataCarrier); ok {
			items = append(items, dc.Data()...)
		}
	}

	var pe *ParseError
	if errors.As(err, &pe) && pe != nil {
		if pe.URI != "" {
			items = append(items, Item{Key: "ParseError.BaseUri", Value: pe.URI})
		}
		if pe.Line > 0 {
			items = append(items,
				Item{Key: "ParseError.LineNumber", Value: strconv.Itoa(pe.Line)},
				Item{Key: "ParseError.LinePosition", Value: strconv.Itoa(pe.Column)},
			)
		}
	}

	var rke *ResourceKeyError
	if errors.As(err, &rke) && rke != nil && rke.Key != "" {
		items = append(items, Item{Key: "ResourceKey", Value: rke.Key})
	}
	return items
}

func isDispatcherMarker(item Item) bool {
	return item.Value == "" && strings.HasSuffix(item.Key, dispatcherMarkerSuffix)
}

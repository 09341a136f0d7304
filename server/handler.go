package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"

	"github.com/akhenakh/jsondate-lsp/jsonrpc2"
)

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	connType    = reflect.TypeOf((*jsonrpc2.Conn)(nil))
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

// typedHandler wraps a user function with a decoded parameter type.
//
// Accepted shapes, where each bracketed part is optional:
//
//	func(ctx context.Context [, conn *jsonrpc2.Conn] [, params P]) [(R)] [(error)] [(R, error)]
type typedHandler struct {
	fn          reflect.Value
	paramType   reflect.Type // element type when the handler takes a pointer
	paramIsPtr  bool
	takesConn   bool
	takesParams bool
	hasResult   bool
	hasError    bool
}

// newTypedHandler validates h and records how to call it.
func newTypedHandler(h any) (*typedHandler, error) {
	if h == nil {
		return nil, errors.New("handler is nil")
	}
	fn := reflect.ValueOf(h)
	ft := fn.Type()
	if ft.Kind() != reflect.Func {
		return nil, fmt.Errorf("handler must be a function, got %s", ft)
	}
	if ft.IsVariadic() {
		return nil, errors.New("handler must not be variadic")
	}
	if ft.NumIn() < 1 || ft.In(0) != contextType {
		return nil, errors.New("handler must accept context.Context as first argument")
	}

	th := &typedHandler{fn: fn}
	next := 1
	if ft.NumIn() > next && ft.In(next) == connType {
		th.takesConn = true
		next++
	}
	if ft.NumIn() > next {
		th.takesParams = true
		th.paramType = ft.In(next)
		if th.paramType.Kind() == reflect.Ptr {
			th.paramIsPtr = true
			th.paramType = th.paramType.Elem()
		}
		next++
	}
	if ft.NumIn() > next {
		return nil, errors.New("handler has too many input arguments (max context, [conn], [params])")
	}

	switch ft.NumOut() {
	case 0:
	case 1:
		if ft.Out(0) == errorType {
			th.hasError = true
		} else {
			th.hasResult = true
		}
	case 2:
		if ft.Out(1) != errorType {
			return nil, errors.New("handler's last return value must be error")
		}
		th.hasResult, th.hasError = true, true
	default:
		return nil, errors.New("handler has too many return values (max result, error)")
	}
	return th, nil
}

// invoke decodes params and calls the handler. Errors returned by the
// handler are passed through unchanged; decoding problems come back as
// InvalidParams.
func (th *typedHandler) invoke(ctx context.Context, conn *jsonrpc2.Conn, params json.RawMessage) (any, error) {
	args := []reflect.Value{reflect.ValueOf(ctx)}
	if th.takesConn {
		args = append(args, reflect.ValueOf(conn))
	}
	if th.takesParams {
		ptr := reflect.New(th.paramType)
		if len(params) > 0 && string(params) != "null" {
			if err := json.Unmarshal(params, ptr.Interface()); err != nil {
				return nil, jsonrpc2.Errorf(jsonrpc2.InvalidParams, "failed to decode params: %v", err)
			}
		} else if !th.paramIsPtr && th.paramType.Kind() == reflect.Struct && th.paramType.NumField() > 0 {
			return nil, jsonrpc2.NewError(jsonrpc2.InvalidParams, "missing non-nullable params")
		}
		if th.paramIsPtr {
			args = append(args, ptr)
		} else {
			args = append(args, ptr.Elem())
		}
	}

	out := th.fn.Call(args)

	if th.hasError {
		if errVal := out[len(out)-1]; !errVal.IsNil() {
			return nil, errVal.Interface().(error)
		}
	}
	if !th.hasResult {
		return nil, nil
	}
	result := out[0]
	switch result.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface, reflect.Chan, reflect.Func:
		if result.IsNil() {
			return nil, nil
		}
	}
	return result.Interface(), nil
}

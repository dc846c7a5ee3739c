package mex

import (
	"fmt"
	"reflect"
)

// Key is a typed attachment key. The attachment store is keyed by the name
// and the static type T together, so the same name can hold different types
// without collisions, and readers never need a type assertion of their own.
type Key[T any] struct {
	name string
}

// NewKey returns an attachment key for name and type T.
func NewKey[T any](name string) Key[T] {
	return Key[T]{name: name}
}

func (k Key[T]) Name() string {
	return k.name
}

func (k Key[T]) String() string {
	return fmt.Sprintf("%s[%s]", k.name, k.typ())
}

func (k Key[T]) typ() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

func (k Key[T]) id() attachID {
	return attachID{name: k.name, typ: k.typ()}
}

type attachID struct {
	name string
	typ  reflect.Type
}

// Put stores the value by the key.
func Put[T any](x *Exchange, key Key[T], value T) {
	x.lk.Lock()
	defer x.lk.Unlock()
	x.attachments[key.id()] = value
}

// Get returns the value and true if it exists.
func Get[T any](x *Exchange, key Key[T]) (value T, ok bool) {
	x.lk.RLock()
	defer x.lk.RUnlock()
	v, ok := x.attachments[key.id()]
	if !ok {
		return value, false
	}
	return v.(T), true
}

// Remove removes the value and returns it if it existed.
func Remove[T any](x *Exchange, key Key[T]) (value T, ok bool) {
	x.lk.Lock()
	defer x.lk.Unlock()
	v, ok := x.attachments[key.id()]
	if !ok {
		return value, false
	}
	delete(x.attachments, key.id())
	return v.(T), true
}

// Require returns the value or precondition failed error naming the key.
func Require[T any](x *Exchange, key Key[T]) (value T, err error) {
	value, ok := Get(x, key)
	if !ok {
		return value, precondition(key.String())
	}
	return value, nil
}

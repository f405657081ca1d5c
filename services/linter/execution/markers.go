// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package execution

import (
	"math"
	"reflect"
	"strings"
)

// MarkerKind tags a decoded program result element.
type MarkerKind int

const (
	// NumericMarker is a bare 0-indexed line number.
	NumericMarker MarkerKind = iota + 1

	// PositionedMarker carries a 0-indexed line and an optional character.
	PositionedMarker
)

// Marker is one element of a program result after decoding.
type Marker struct {
	Kind      MarkerKind
	Line      float64
	Character float64
}

// DecodeMarker interprets one element returned by checkSourceCode.
//
// Description:
//
//	Numbers (any integer kind, or a finite float) decode to NumericMarker.
//	Maps with string keys holding a numeric "line", and structs with a
//	numeric field named line (any case, unexported fields of interpreted
//	structs included), decode to PositionedMarker; a
//	numeric "character" is taken along, anything else leaves it 0.
//	Pointers and interfaces are followed.
//
// Outputs:
//
//	Marker - The decoded marker.
//	bool - False when the element has no usable line.
func DecodeMarker(v any) (Marker, bool) {
	return decodeValue(reflect.ValueOf(v))
}

func decodeValue(v reflect.Value) (Marker, bool) {
	v = indirect(v)
	if !v.IsValid() {
		return Marker{}, false
	}

	if n, ok := number(v); ok {
		return Marker{Kind: NumericMarker, Line: n}, true
	}

	switch v.Kind() {
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return Marker{}, false
		}
		line, ok := number(indirect(mapField(v, "line")))
		if !ok {
			return Marker{}, false
		}
		character, _ := number(indirect(mapField(v, "character")))
		return Marker{Kind: PositionedMarker, Line: line, Character: character}, true

	case reflect.Struct:
		line, ok := number(indirect(structField(v, "line")))
		if !ok {
			return Marker{}, false
		}
		character, _ := number(indirect(structField(v, "character")))
		return Marker{Kind: PositionedMarker, Line: line, Character: character}, true
	}

	return Marker{}, false
}

// indirect follows interfaces and non-nil pointers.
func indirect(v reflect.Value) reflect.Value {
	for v.IsValid() && (v.Kind() == reflect.Interface || v.Kind() == reflect.Pointer) {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

// number returns the numeric value of v. NaN and infinities are rejected.
func number(v reflect.Value) (float64, bool) {
	if !v.IsValid() {
		return 0, false
	}
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(v.Uint()), true
	case reflect.Float32, reflect.Float64:
		f := v.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

func mapField(m reflect.Value, key string) reflect.Value {
	return m.MapIndex(reflect.ValueOf(key).Convert(m.Type().Key()))
}

// structField finds a field by case-insensitive name. Structs declared by
// interpreted programs carry their unexported fields with an "X" prefix
// ("line" becomes "Xline"), so that spelling matches as well.
func structField(s reflect.Value, name string) reflect.Value {
	t := s.Type()
	for i := 0; i < t.NumField(); i++ {
		if strings.EqualFold(t.Field(i).Name, name) {
			return s.Field(i)
		}
	}
	for i := 0; i < t.NumField(); i++ {
		if f := t.Field(i).Name; strings.HasPrefix(f, "X") && strings.EqualFold(f[1:], name) {
			return s.Field(i)
		}
	}
	return reflect.Value{}
}

// toLine converts a 0-indexed marker line to a 1-indexed line.
// The result must be a non-negative integer.
func toLine(line float64) (int, bool) {
	l := line + 1
	if math.IsNaN(l) || math.IsInf(l, 0) || l < 0 || l != math.Trunc(l) || l > math.MaxInt32 {
		return 0, false
	}
	return int(l), true
}

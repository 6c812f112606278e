// Copyright 2025 Magnus Pierre
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package script compiles cell renderers written as Go snippets and runs
// them with the yaegi interpreter.
//
// A snippet is either an expression, such as
//
//	fmt.Sprintf("%.1f %%", value)
//
// or a function body that returns a string. The snippet sees the raw cell
// value as value and the row as a map[string]interface{} named row. The
// packages fmt, strings, strconv, math and time are imported.
package script

import (
	"errors"
	"fmt"
	"go/scanner"
	"go/token"
	"strings"
	"sync"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
	"go.uber.org/zap"

	"github.com/magpierre/ontogrid/datagrid"
)

// ErrCompile is returned when a snippet does not compile.
var ErrCompile = errors.New("render script does not compile")

const template = `package render

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

var (
	_ = fmt.Sprint
	_ = math.Abs
	_ = strconv.Itoa
	_ = strings.ToUpper
	_ = time.Now
)

func Render(value interface{}, row map[string]interface{}) string {
%s
}
`

type renderFunc = func(interface{}, map[string]interface{}) string

// Renderer is a compiled snippet. It is safe for concurrent use.
type Renderer struct {
	source string
	logger *zap.Logger

	mu sync.Mutex
	fn renderFunc
}

// Compile compiles a snippet into a Renderer. logger may be nil.
func Compile(source string, logger *zap.Logger) (*Renderer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	body := strings.TrimSpace(source)
	if body == "" {
		return nil, fmt.Errorf("%w: empty script", ErrCompile)
	}
	if !hasReturn(body) {
		body = "return " + body
	}

	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("failed to load stdlib: %w", err)
	}

	if _, err := i.Eval(fmt.Sprintf(template, body)); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCompile, err)
	}
	v, err := i.Eval("render.Render")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCompile, err)
	}
	fn, ok := v.Interface().(renderFunc)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected render signature %s", ErrCompile, v.Type())
	}

	return &Renderer{source: source, logger: logger, fn: fn}, nil
}

// hasReturn reports whether src contains the return keyword as a token,
// not merely inside an identifier or string literal.
func hasReturn(src string) bool {
	fset := token.NewFileSet()
	file := fset.AddFile("", fset.Base(), len(src))

	var s scanner.Scanner
	s.Init(file, []byte(src), nil, 0)
	for {
		_, tok, _ := s.Scan()
		switch tok {
		case token.RETURN:
			return true
		case token.EOF:
			return false
		}
	}
}

// Source returns the snippet as given to Compile.
func (r *Renderer) Source() string {
	return r.source
}

// Render runs the snippet. A panicking snippet falls back to the plain
// string form of value.
func (r *Renderer) Render(value any, row map[string]any) (out string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	defer func() {
		if p := recover(); p != nil {
			r.logger.Warn("render script panicked", zap.Any("panic", p), zap.String("script", r.source))
			out = datagrid.String(value)
		}
	}()
	return r.fn(value, row)
}

// Format implements datagrid.Formatter for Record rows.
func (r *Renderer) Format(value any, row datagrid.Record) string {
	return r.Render(value, row)
}

// Formatter adapts a Renderer to typed rows. toMap exposes the row to the
// snippet and may be nil, in which case the snippet sees an empty row.
func Formatter[R any](r *Renderer, toMap func(R) map[string]any) datagrid.Formatter[R] {
	return datagrid.FormatFunc[R](func(value any, row R) string {
		var m map[string]any
		if toMap != nil {
			m = toMap(row)
		}
		if m == nil {
			m = map[string]any{}
		}
		return r.Render(value, m)
	})
}

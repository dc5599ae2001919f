// Copyright 2017 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package util

import (
	"fmt"
	"strings"
)

// EnumFlag implements the pflag.Value interface to provide enumerated command
// line parameter values.
type EnumFlag struct {
	value string
	vs    []string
}

// NewEnumFlag returns a new EnumFlag that has a defaultValue and vs enumerated
// values.
func NewEnumFlag(defaultValue string, vs []string) *EnumFlag {
	return &EnumFlag{
		value: defaultValue,
		vs:    vs,
	}
}

// Set implements pflag.Value, rejecting any value not in the enumeration.
func (f *EnumFlag) Set(v string) error {
	for _, allowed := range f.vs {
		if v == allowed {
			f.value = v
			return nil
		}
	}
	return fmt.Errorf("invalid value %q: must be one of %s", v, strings.Join(f.vs, ","))
}

// String implements pflag.Value.
func (f *EnumFlag) String() string {
	return f.value
}

// Type implements pflag.Value.
func (f *EnumFlag) Type() string {
	return fmt.Sprintf("<%s>", strings.Join(f.vs, ","))
}

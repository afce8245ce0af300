package godi

import (
	"fmt"

	"github.com/a-peyrard/godi-datasource/option"
)

type (
	condition struct {
		namedStringComponent string
		operator             operator
		value                string
	}

	operator struct {
		symbol string
		test   func(string, string) bool
	}

	ConditionNameBuilder struct {
		namedStringComponent string
	}
)

var (
	equals = operator{
		symbol: "==",
		test: func(a, b string) bool {
			return a == b
		},
	}

	notEquals = operator{
		symbol: "!=",
		test: func(a, b string) bool {
			return a != b
		},
	}
)

// When starts a registration condition on the named string component, for example an environment variable.
//
// The condition is evaluated once, when the provider is registered.
func When(namedStringComponent string) ConditionNameBuilder {
	return ConditionNameBuilder{
		namedStringComponent: namedStringComponent,
	}
}

func (cn ConditionNameBuilder) Equals(value string) option.Option[RegistrableOptions] {
	return cn.with(equals, value)
}

func (cn ConditionNameBuilder) NotEquals(value string) option.Option[RegistrableOptions] {
	return cn.with(notEquals, value)
}

func (cn ConditionNameBuilder) with(op operator, value string) option.Option[RegistrableOptions] {
	return func(opts *RegistrableOptions) {
		opts.conditions = append(
			opts.conditions,
			condition{
				namedStringComponent: cn.namedStringComponent,
				operator:             op,
				value:                value,
			},
		)
	}
}

func (c condition) test(actual string) bool {
	return c.operator.test(actual, c.value)
}

func (c condition) String() string {
	return fmt.Sprintf("%s %s %q", c.namedStringComponent, c.operator.symbol, c.value)
}

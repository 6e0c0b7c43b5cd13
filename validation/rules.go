// Package validation registers the query vocabulary as go-playground validator tags
// so request and spec-file types can be checked with struct tags.
package validation

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/gaborage/dbworkbench/database/types"
)

// Tag names installed by Register.
const (
	TagDialect       = "dialect"
	TagOperator      = "sqloperator"
	TagConnector     = "connector"
	TagSortDirection = "sortdirection"
	TagJoinType      = "jointype"
	TagColumnFn      = "columnfn"
)

var rules = map[string]validator.Func{
	TagDialect:       validateDialect,
	TagOperator:      validateOperator,
	TagConnector:     validateConnector,
	TagSortDirection: validateSortDirection,
	TagJoinType:      validateJoinType,
	TagColumnFn:      validateColumnFn,
}

// Register installs the query vocabulary tags on v.
func Register(v *validator.Validate) error {
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("register %s validation: %w", tag, err)
		}
	}
	return nil
}

// New returns a validator with the query vocabulary tags registered.
// Struct field names in errors use the json tag so messages match the wire format.
func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}
		return name
	})
	// Registration only fails for empty tag names or nil functions.
	if err := Register(v); err != nil {
		panic(err)
	}
	return v
}

// Message returns a readable description of a failed tag, or "" for tags it does not know.
func Message(tag string) string {
	switch tag {
	case TagDialect:
		return "must be one of: mysql, postgres"
	case TagOperator:
		return "must be a supported filter operator"
	case TagConnector:
		return "must be AND or OR"
	case TagSortDirection:
		return "must be ASC or DESC"
	case TagJoinType:
		return "must be one of: INNER, LEFT, RIGHT, FULL"
	case TagColumnFn:
		return "must be one of: YEAR, MONTH, DAY, SUM, COUNT, AVG, MAX, MIN"
	default:
		return ""
	}
}

func validateDialect(fl validator.FieldLevel) bool {
	_, err := types.ParseDialect(fl.Field().String())
	return err == nil
}

func validateOperator(fl validator.FieldLevel) bool {
	return types.Operator(fl.Field().String()).IsValid()
}

func validateConnector(fl validator.FieldLevel) bool {
	switch types.Connector(fl.Field().String()) {
	case types.And, types.Or:
		return true
	default:
		return false
	}
}

func validateSortDirection(fl validator.FieldLevel) bool {
	switch types.Direction(strings.ToUpper(fl.Field().String())) {
	case types.Asc, types.Desc:
		return true
	default:
		return false
	}
}

func validateJoinType(fl validator.FieldLevel) bool {
	switch types.JoinType(fl.Field().String()) {
	case types.InnerJoin, types.LeftJoin, types.RightJoin, types.FullJoin:
		return true
	default:
		return false
	}
}

func validateColumnFn(fl validator.FieldLevel) bool {
	return types.ColumnFunction(fl.Field().String()).IsKnown()
}

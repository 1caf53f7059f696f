// Package validate performs the one structural check the invocation
// pipeline does before dispatch: required members are present and any
// enum-constrained string member carries an allowed value. Full
// JSON-Schema style validation (types, patterns, ranges) is deliberately
// out of scope here; spec §8 scenario 2 only asks for a narrow
// "wrong key" rejection, and a generic schema validator would be teaching
// a library this repo never needs (see DESIGN.md).
package validate

import (
	"fmt"

	"github.com/nyaws/awsclient/internal/model"
)

// Error reports one or more validation failures for a single operation.
type Error struct {
	Violations []string
}

func (e *Error) Error() string {
	return fmt.Sprintf("validate: %d violation(s): %v", len(e.Violations), e.Violations)
}

// Request checks input (a map[string]interface{} keyed by member name)
// against op's input shape.
func Request(svc *model.Service, op *model.Operation, input interface{}) error {
	sh := svc.Shape(op.InputShape)
	if sh == nil {
		return nil
	}
	m, _ := input.(map[string]interface{})

	var violations []string
	for _, name := range sh.Required {
		if m == nil {
			violations = append(violations, fmt.Sprintf("missing required member %q", name))
			continue
		}
		if v, ok := m[name]; !ok || v == nil {
			violations = append(violations, fmt.Sprintf("missing required member %q", name))
		}
	}

	for name, member := range sh.Members {
		v, present := m[name]
		if !present || v == nil {
			continue
		}
		memberShape := svc.MemberShape(member)
		if len(memberShape.Enum) == 0 {
			continue
		}
		s, ok := v.(string)
		if !ok {
			continue
		}
		if !contains(memberShape.Enum, s) {
			violations = append(violations, fmt.Sprintf("member %q: %q is not one of %v", name, s, memberShape.Enum))
		}
	}

	if len(violations) > 0 {
		return &Error{Violations: violations}
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

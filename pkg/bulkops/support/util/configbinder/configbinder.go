// Package configbinder decodes weakly typed property maps, as read from the
// YAML configuration tree, into typed structs. The named database and storage
// connection resolvers both bind through this helper so the decoding rules
// stay uniform across adapters.
package configbinder

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// BindProperties decodes properties into target, a pointer to a struct.
// Fields match on their yaml tag and input is weakly typed, so "5432" binds
// to an int port and 1 to a bool flag. Keys without a matching field are
// ignored rather than rejected; callers routinely pass a full connection
// mapping to a narrower adapter config.
func BindProperties(properties map[string]interface{}, target interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          "yaml",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("configbinder: building decoder for %T: %w", target, err)
	}

	if err := decoder.Decode(properties); err != nil {
		return fmt.Errorf("configbinder: binding connection properties into %T: %w", target, err)
	}
	return nil
}

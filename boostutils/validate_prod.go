//go:build !debug_boost_utils

package boostutils

// DebugValidate will call Validate on the provided object and panics if any errors are returned. This
// method no-ops unless the debug_boost_utils build tag is present
func DebugValidate(validatable Validatable) {
}

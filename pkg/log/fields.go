package log

import (
	"fmt"

	"go.uber.org/zap"
)

const (
	FieldNameModule    = "module"
	FieldNameComponent = "component"
	FieldNameDigest    = "planDigest"
)

// FieldModule returns a zap field with the module name.
func FieldModule(module string) zap.Field {
	return zap.String(FieldNameModule, module)
}

// FieldComponent returns a zap field with the component name.
func FieldComponent(component string) zap.Field {
	return zap.String(FieldNameComponent, component)
}

// FieldDigest returns a zap field carrying a hex plan digest.
func FieldDigest(digest uint64) zap.Field {
	return zap.String(FieldNameDigest, fmt.Sprintf("%016x", digest))
}

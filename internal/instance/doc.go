// Package instance models the declaration file callers write: named btrbk
// instances with a schedule, per-level option overrides and volume layouts,
// plus the SSH keys allowed to reach the btrbk service account.
//
// Mapping order in the declaration is significant and is preserved through
// parsing; it determines sibling order in the rendered btrbk configuration.
// Decoding therefore walks yaml.Node values directly instead of unmarshaling
// into Go maps.
package instance

// Package domain defines the core business types for the newsletter service.
//
// Types in this package are validated value objects with no database or HTTP
// concerns. They are the shared language between handlers, services, and the
// store: once a value is constructed here, downstream code may assume it is
// well-formed.
//
// Rules for this package:
//   - No imports from other internal/ packages
//   - No *sql.DB, no http.Request in struct fields
//   - Validation lives in the Parse* constructors, nowhere else
package domain

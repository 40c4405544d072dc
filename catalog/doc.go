// Package catalog implements the write/read core of the chips product catalog.
//
// The package owns the business rules for catalog items: schema validation,
// uniqueness of the product name, and version-stamped optimistic concurrency on
// updates. Persistence is delegated to a [Repository]; the DynamoDB
// implementation lives in the store package.
//
// # Services
//
//   - [ReadService] resolves items by identifier or by a query filter.
//   - [WriteService] creates, updates and deletes items.
//
// # Expected failures
//
// Business failures are returned as values of a closed set of error types:
//
//	CreateError = ConstraintViolations | NameExists
//	UpdateError = ConstraintViolations | NameExists | RecordNotExists |
//	              VersionInvalid | VersionOutdated
//
// Callers extract them with errors.As and switch on the concrete type:
//
//	var uerr catalog.UpdateError
//	if errors.As(err, &uerr) {
//	    switch e := uerr.(type) {
//	    case catalog.VersionOutdated:
//	        // 412
//	    ...
//	    }
//	}
//
// Any other non-nil error is an internal failure (store unreachable and the
// like) and should be surfaced as an opaque service failure.
//
// # Versions
//
// Every stored item carries a version counter starting at 0. Updates carry a
// version token of the form "<digits>" (quotes included, as in an HTTP
// If-Match header). Updates with a token strictly older than the stored
// version are rejected; equal or newer tokens are accepted.
package catalog

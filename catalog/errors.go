package catalog

import (
	"errors"
	"fmt"
	"strings"
)

// Repository contract errors. Implementations return errors that match these
// with errors.Is.
var (
	// ErrNotFound is returned when no item exists for an identifier.
	ErrNotFound = errors.New("catalog: item not found")

	// ErrDuplicateName is returned when the storage layer rejects a write
	// because another item already owns the name.
	ErrDuplicateName = errors.New("catalog: duplicate item name")

	// ErrVersionConflict is returned when the stored version no longer
	// matches the version a write was conditioned on.
	ErrVersionConflict = errors.New("catalog: item was modified concurrently")
)

// CreateError is the closed set of expected failures of WriteService.Create:
// ConstraintViolations or NameExists.
type CreateError interface {
	error
	Message() string
	createError()
}

// UpdateError is the closed set of expected failures of WriteService.Update:
// ConstraintViolations, NameExists, RecordNotExists, VersionInvalid or
// VersionOutdated.
type UpdateError interface {
	error
	Message() string
	updateError()
}

// ConstraintViolations reports a candidate rejected by the schema validator.
type ConstraintViolations struct {
	Messages []string
}

// NameExists reports that another item already uses the name. ID is the
// conflicting item's identifier when known.
type NameExists struct {
	Name string
	ID   string
}

// RecordNotExists reports an update of an identifier without an item.
type RecordNotExists struct {
	ID string
}

// VersionInvalid reports a version token that is not a quoted non-negative
// integer.
type VersionInvalid struct {
	Token string
}

// VersionOutdated reports a version token older than the stored version.
type VersionOutdated struct {
	ID      string
	Version int64
}

func (e ConstraintViolations) Message() string { return strings.Join(e.Messages, " ") }
func (e ConstraintViolations) Error() string   { return e.Message() }
func (ConstraintViolations) createError()      {}
func (ConstraintViolations) updateError()      {}

func (e NameExists) Message() string {
	return `Der Produktname "` + e.Name + `" existiert bereits.`
}
func (e NameExists) Error() string { return e.Message() }
func (NameExists) createError()    {}
func (NameExists) updateError()    {}

func (e RecordNotExists) Message() string {
	return "Es gibt kein Chips-Produkt mit der ID " + e.ID
}
func (e RecordNotExists) Error() string { return e.Message() }
func (RecordNotExists) updateError()    {}

func (e VersionInvalid) Message() string {
	return `"` + e.Token + `" ist keine gueltige Versionsnummer`
}
func (e VersionInvalid) Error() string { return e.Message() }
func (VersionInvalid) updateError()    {}

func (e VersionOutdated) Message() string {
	return fmt.Sprintf(`Die Versionsnummer "%d" ist nicht mehr aktuell`, e.Version)
}
func (e VersionOutdated) Error() string { return e.Message() }
func (VersionOutdated) updateError()    {}

package engine

import "errors"

// Static errors for mapping validation and table preparation
var (
	ErrMappingNotSet      = errors.New("column mapping must be set before comparison")
	ErrColumnNotFound     = errors.New("mapped column not found")
	ErrSourceRequired     = errors.New("mapping entry requires a source column name")
	ErrDuplicateSource    = errors.New("duplicate source column in mapping")
	ErrDuplicateTarget    = errors.New("duplicate target column in mapping")
	ErrJoinWithoutTarget  = errors.New("join column must be mapped to a target column")
	ErrJoinColumnUnknown  = errors.New("join column not present in mapping")
	ErrJoinColumnExcluded = errors.New("join column is excluded from comparison")
	ErrColumnLengths      = errors.New("all columns in a table must have the same number of rows")
)

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dedup

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/pdiddy/paper-search/pkg/types"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidationError reports a structurally invalid record found at the
// dedup boundary, before normalization. The engine never partially
// processes an invalid record.
type ValidationError struct {
	// Index is the record's position in the input slice.
	Index int
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("record %d is not a valid paper record: %v", e.Index, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// ValidateRecords checks that every input is structurally a paper record.
// Records merely missing optional fields pass: inside the engine they
// degrade to unmatchable singletons rather than errors, because duplicate
// detection is best-effort and must not sink a whole aggregation pass.
// Only a record with no identity field at all (no paper_id, title, doi,
// or url) or a negative citation count is rejected.
func ValidateRecords(papers []types.Paper) error {
	for i, p := range papers {
		if err := validate.Struct(p); err != nil {
			return &ValidationError{Index: i, Err: err}
		}
	}
	return nil
}

/*******************************************************************************
* File name: errors.go
*
* Description: domain error taxonomy for the striped-parity engine.
* Existence and size preconditions belong to internal/validator; the
* engine itself only ever rejects a structurally invalid block index.
*******************************************************************************/

package stripe

import "errors"

// ErrInvalidBlock is returned by Repair when a block index is outside
// [0, N). Wrap with fmt.Errorf("...: %w", ErrInvalidBlock) to add context
// while keeping errors.Is matching intact.
var ErrInvalidBlock = errors.New("stripe: invalid block id")

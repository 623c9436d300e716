package editor

import (
	"fmt"
	"strings"
)

// BlockReason identifies why submission is not allowed.
type BlockReason int

const (
	BlockNone BlockReason = iota
	BlockNoAuthor
	BlockInvalidContent
	BlockNoDestination
	BlockPickerUnavailable
	BlockValidationPending
)

func (b BlockReason) String() string {
	switch b {
	case BlockNoAuthor:
		return "no-author"
	case BlockInvalidContent:
		return "invalid-content"
	case BlockNoDestination:
		return "no-destination"
	case BlockPickerUnavailable:
		return "picker-unavailable"
	case BlockValidationPending:
		return "validation-pending"
	default:
		return "none"
	}
}

// Reason texts shown next to the submit action.
const (
	ReasonNoAuthor          = "Not authenticated - login required"
	ReasonInvalidContent    = "TTL content is invalid"
	ReasonNoDestination     = "Graph path is required"
	ReasonPickerLoading     = "Cannot submit - destination picker is still loading"
	ReasonPickerUnavailable = "Cannot submit - destination picker not available"
	ReasonValidationPending = "Validation pending"
)

// GateInput is everything the gate looks at.
type GateInput struct {
	Validity    Validity
	TripleCount int
	Destination string
	Author      string
}

// Eligibility is the gate's verdict plus one human-readable reason.
type Eligibility struct {
	CanSubmit bool
	Block     BlockReason
	Reason    string
}

// CanSubmit is the bare conjunction of the three gate signals.
func CanSubmit(hasValidContent, hasDestination, hasAuthor bool) bool {
	return hasValidContent && hasDestination && hasAuthor
}

// Evaluate applies the gate. When blocked, the first failing condition in the order
// author, content, destination supplies the reason, so authentication problems are
// surfaced before content problems.
func Evaluate(in GateInput) Eligibility {
	hasValidContent := in.Validity == ValidityValid
	hasDestination := strings.TrimSpace(in.Destination) != ""
	hasAuthor := in.Author != ""

	if CanSubmit(hasValidContent, hasDestination, hasAuthor) {
		return Eligibility{
			CanSubmit: true,
			Reason:    fmt.Sprintf("Submit %s as %s", pluralTriples(in.TripleCount), in.Author),
		}
	}

	switch {
	case !hasAuthor:
		return Eligibility{Block: BlockNoAuthor, Reason: ReasonNoAuthor}
	case !hasValidContent:
		return Eligibility{Block: BlockInvalidContent, Reason: ReasonInvalidContent}
	default:
		return Eligibility{Block: BlockNoDestination, Reason: ReasonNoDestination}
	}
}

func pluralTriples(n int) string {
	if n == 1 {
		return "1 triple"
	}
	return fmt.Sprintf("%d triples", n)
}

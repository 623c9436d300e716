package editor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanSubmit_TruthTable(t *testing.T) {
	for _, content := range []bool{false, true} {
		for _, dest := range []bool{false, true} {
			for _, author := range []bool{false, true} {
				want := content && dest && author
				assert.Equal(t, want, CanSubmit(content, dest, author),
					"content=%v dest=%v author=%v", content, dest, author)
			}
		}
	}
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name string
		in   GateInput
		want Eligibility
	}{
		{
			name: "eligible plural",
			in:   GateInput{Validity: ValidityValid, TripleCount: 5, Destination: "mntl:publ/x", Author: "agent:gpt"},
			want: Eligibility{CanSubmit: true, Reason: "Submit 5 triples as agent:gpt"},
		},
		{
			name: "eligible singular",
			in:   GateInput{Validity: ValidityValid, TripleCount: 1, Destination: "mntl:publ/x", Author: testIdentity},
			want: Eligibility{CanSubmit: true, Reason: "Submit 1 triple as " + testIdentity},
		},
		{
			name: "author reported before content",
			in:   GateInput{Validity: ValidityInvalid, Destination: "mntl:publ/x"},
			want: Eligibility{Block: BlockNoAuthor, Reason: ReasonNoAuthor},
		},
		{
			name: "content reported before destination",
			in:   GateInput{Validity: ValidityEmpty, Author: testIdentity},
			want: Eligibility{Block: BlockInvalidContent, Reason: ReasonInvalidContent},
		},
		{
			name: "blank destination",
			in:   GateInput{Validity: ValidityValid, TripleCount: 1, Destination: "   ", Author: testIdentity},
			want: Eligibility{Block: BlockNoDestination, Reason: ReasonNoDestination},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(tt.in))
		})
	}
}

func TestBlockReason_String(t *testing.T) {
	assert.Equal(t, "none", BlockNone.String())
	assert.Equal(t, "no-author", BlockNoAuthor.String())
	assert.Equal(t, "picker-unavailable", BlockPickerUnavailable.String())
	assert.Equal(t, "validation-pending", BlockValidationPending.String())
}

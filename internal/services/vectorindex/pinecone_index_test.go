package vectorindex

import (
	"testing"

	"github.com/pinecone-io/go-pinecone/v4/pinecone"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/iyunix/go-triage/internal/domain"
)

func scored(t *testing.T, id string, score float32, fields map[string]interface{}) *pinecone.ScoredVector {
	t.Helper()
	v := &pinecone.Vector{Id: id}
	if fields != nil {
		md, err := structpb.NewStruct(fields)
		require.NoError(t, err)
		v.Metadata = md
	}
	return &pinecone.ScoredVector{Vector: v, Score: score}
}

func TestMatchesFromResponse(t *testing.T) {
	tests := []struct {
		name    string
		matches []*pinecone.ScoredVector
		want    []domain.IndexMatch
	}{
		{
			name: "score becomes distance",
			matches: []*pinecone.ScoredVector{
				scored(t, "a", 0.75, map[string]interface{}{"disease": "Migraine", "symptoms": "headache, nausea"}),
				scored(t, "b", -0.5, map[string]interface{}{"disease": "Flu"}),
			},
			want: []domain.IndexMatch{
				{ID: "a", Disease: "Migraine", SymptomText: "headache, nausea", Distance: 0.25},
				{ID: "b", Disease: "Flu", Distance: 1.5},
			},
		},
		{
			name: "unlabelled matches skipped",
			matches: []*pinecone.ScoredVector{
				scored(t, "a", 0.9, nil),
				scored(t, "b", 0.8, map[string]interface{}{"symptoms": "cough"}),
				scored(t, "c", 0.7, map[string]interface{}{"disease": ""}),
				scored(t, "d", 0.5, map[string]interface{}{"disease": "Asthma"}),
			},
			want: []domain.IndexMatch{
				{ID: "d", Disease: "Asthma", Distance: 0.5},
			},
		},
		{
			name:    "nil entries skipped",
			matches: []*pinecone.ScoredVector{nil, {Score: 1}},
			want:    []domain.IndexMatch{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := matchesFromResponse(&pinecone.QueryVectorsResponse{Matches: tt.matches}, noopLogger{})
			require.Len(t, got, len(tt.want))
			for i := range tt.want {
				assert.Equal(t, tt.want[i].ID, got[i].ID)
				assert.Equal(t, tt.want[i].Disease, got[i].Disease)
				assert.Equal(t, tt.want[i].SymptomText, got[i].SymptomText)
				assert.InDelta(t, tt.want[i].Distance, got[i].Distance, 1e-6)
			}
		})
	}
}

func TestMatchesFromResponse_NilResponse(t *testing.T) {
	assert.Empty(t, matchesFromResponse(nil, noopLogger{}))
}

package corpus

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iyunix/go-triage/internal/domain"
	"github.com/iyunix/go-triage/internal/services/embedding"
	"github.com/iyunix/go-triage/internal/services/vectorindex"
)

type noopLogger struct{}

func (noopLogger) Info(string, ...interface{})  {}
func (noopLogger) Error(string, ...interface{}) {}
func (noopLogger) Debug(string, ...interface{}) {}
func (noopLogger) Warn(string, ...interface{})  {}

func openIndex(t *testing.T) *vectorindex.SQLiteIndex {
	t.Helper()
	cfg := vectorindex.DefaultConfig()
	cfg.DBPath = filepath.Join(t.TempDir(), "v.db")
	idx, err := vectorindex.OpenSQLiteIndex(context.Background(), cfg, noopLogger{})
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })
	return idx
}

const sampleCSV = `id,query,response
1,"throbbing headache, sensitivity to light",Migraine
2,high fever and cough,Flu
3,,Eczema
4,itchy red patches,
5,wheezing and shortness of breath,Asthma
`

func TestReadCSV(t *testing.T) {
	rows, err := ReadCSV(strings.NewReader(sampleCSV), 0)
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, domain.CorpusRow{ID: "1", QueryText: "throbbing headache, sensitivity to light", ResponseLabel: "Migraine"}, rows[0])

	capped, err := ReadCSV(strings.NewReader(sampleCSV), 2)
	require.NoError(t, err)
	assert.Len(t, capped, 2)
}

func TestReadCSV_HeaderVariants(t *testing.T) {
	rows, err := ReadCSV(strings.NewReader("\ufeffResponse,Query\nFlu,fever\n"), 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "", rows[0].ID)
	assert.Equal(t, "fever", rows[0].QueryText)
	assert.Equal(t, "Flu", rows[0].ResponseLabel)

	_, err = ReadCSV(strings.NewReader("id,text\n1,a\n"), 0)
	assert.ErrorContains(t, err, "query")

	_, err = ReadCSV(strings.NewReader(""), 0)
	assert.Error(t, err)
}

func TestLoader_LoadIsIdempotent(t *testing.T) {
	ctx := context.Background()
	idx := openIndex(t)
	loader := NewLoader(embedding.NewHashingEncoder(64), idx, noopLogger{})
	rows, err := ReadCSV(strings.NewReader(sampleCSV), 0)
	require.NoError(t, err)

	report, err := loader.Load(ctx, rows, 2)
	require.NoError(t, err)
	assert.False(t, report.Skipped)
	assert.Equal(t, 3, report.Inserted)
	assert.Equal(t, 2, report.Invalid)
	assert.Equal(t, 2, report.Batches)

	again, err := loader.Load(ctx, rows, 2)
	require.NoError(t, err)
	assert.True(t, again.Skipped)
	assert.Zero(t, again.Inserted)

	n, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestLoader_DerivesMissingIDs(t *testing.T) {
	ctx := context.Background()
	idx := openIndex(t)
	loader := NewLoader(embedding.NewHashingEncoder(32), idx, noopLogger{})

	rows := []domain.CorpusRow{
		{QueryText: "fever and chills", ResponseLabel: "Flu"},
		{QueryText: "fever and chills", ResponseLabel: "Flu"},
		{QueryText: "joint pain", ResponseLabel: "Arthritis"},
	}
	report, err := loader.Load(ctx, rows, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Batches)

	// identical query text maps to one id
	n, _ := idx.Count(ctx)
	assert.Equal(t, 2, n)

	matches, err := idx.Query(ctx, mustEncode(t, "joint pain"), 1)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "Arthritis", matches[0].Disease)
	assert.Len(t, matches[0].ID, 36)
}

func mustEncode(t *testing.T, text string) []float32 {
	vec, err := embedding.NewHashingEncoder(32).Encode(context.Background(), text)
	require.NoError(t, err)
	return vec
}

func TestLoader_Reload(t *testing.T) {
	ctx := context.Background()
	idx := openIndex(t)
	loader := NewLoader(embedding.NewHashingEncoder(16), idx, noopLogger{})

	_, err := loader.Load(ctx, []domain.CorpusRow{{ID: "a", QueryText: "rash", ResponseLabel: "Eczema"}}, 10)
	require.NoError(t, err)

	report, err := loader.Reload(ctx, []domain.CorpusRow{
		{ID: "b", QueryText: "cough", ResponseLabel: "Bronchitis"},
		{ID: "c", QueryText: "chest pain", ResponseLabel: "Angina"},
	}, 10)
	require.NoError(t, err)
	assert.False(t, report.Skipped)
	assert.Equal(t, 2, report.Inserted)

	n, _ := idx.Count(ctx)
	assert.Equal(t, 2, n)
}

type brokenEncoder struct {
	*embedding.HashingEncoder
}

func (brokenEncoder) EncodeBatch(context.Context, []string) ([][]float32, error) {
	return nil, errors.New("model unavailable")
}

func TestLoader_EncoderFailure(t *testing.T) {
	loader := NewLoader(brokenEncoder{embedding.NewHashingEncoder(8)}, openIndex(t), noopLogger{})
	_, err := loader.Load(context.Background(), []domain.CorpusRow{{ID: "a", QueryText: "rash", ResponseLabel: "Eczema"}}, 10)
	assert.ErrorContains(t, err, "model unavailable")
}

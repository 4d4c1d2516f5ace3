package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractCSV(t *testing.T) {
	csvData := `Question,Option_A,option_b,CORRECT_ANSWER
What is Go?,A language,A game,A
Second question,Yes,No,B`

	extractor := NewTextExtractor()
	rows, err := extractor.ExtractCSV(strings.NewReader(csvData))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	// header names are lowercased
	assert.Equal(t, "What is Go?", rows[0]["question"])
	assert.Equal(t, "A language", rows[0]["option_a"])
	assert.Equal(t, "A", rows[0]["correct_answer"])
	assert.Equal(t, "B", rows[1]["correct_answer"])
}

func TestExtractCSVRaggedRows(t *testing.T) {
	csvData := `question,option_a,option_b
only the question
full question,yes,no`

	extractor := NewTextExtractor()
	rows, err := extractor.ExtractCSV(strings.NewReader(csvData))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	// short rows leave trailing columns unset
	assert.Equal(t, "only the question", rows[0]["question"])
	assert.Equal(t, "", rows[0]["option_a"])
	assert.Equal(t, "no", rows[1]["option_b"])
}

func TestExtractCSVEmpty(t *testing.T) {
	extractor := NewTextExtractor()
	_, err := extractor.ExtractCSV(strings.NewReader(""))
	assert.Error(t, err)
}

func TestExtractPDFRejectsNonPDF(t *testing.T) {
	extractor := NewTextExtractor()
	_, err := extractor.ExtractPDF([]byte("this is just text"))
	assert.Error(t, err)

	_, err = extractor.ExtractPDF(nil)
	assert.Error(t, err)
}

func TestIsPDF(t *testing.T) {
	assert.True(t, isPDF([]byte("%PDF-1.7 rest of file")))
	assert.False(t, isPDF([]byte("%PD")))
	assert.False(t, isPDF([]byte("PK\x03\x04")))
}

package fetcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(rowCh <-chan []string, errCh <-chan error) ([][]string, error) {
	var rows [][]string
	for row := range rowCh {
		rows = append(rows, row)
	}
	return rows, <-errCh
}

func TestStreamCSV(t *testing.T) {
	tests := []struct {
		name  string
		input string
		opts  CSVOptions
		want  [][]string
	}{
		{
			name:  "comma",
			input: "Contact Time,ANI\n2024-03-04 10:22,5551234567\n",
			want:  [][]string{{"Contact Time", "ANI"}, {"2024-03-04 10:22", "5551234567"}},
		},
		{
			name:  "pipe",
			input: "id|phone_number\n7|5551234567\n",
			opts:  CSVOptions{Delimiter: '|'},
			want:  [][]string{{"id", "phone_number"}, {"7", "5551234567"}},
		},
		{
			name:  "trim space",
			input: " Deal - ID , Phones \n 42 , 5551234567 \n",
			opts:  CSVOptions{TrimSpace: true},
			want:  [][]string{{"Deal - ID", "Phones"}, {"42", "5551234567"}},
		},
		{
			name:  "ragged rows",
			input: "a,b,c\n1\n",
			want:  [][]string{{"a", "b", "c"}, {"1"}},
		},
		{
			name:  "byte order mark",
			input: "\ufeffState,Time Zone\nTX,CST\n",
			want:  [][]string{{"State", "Time Zone"}, {"TX", "CST"}},
		},
		{
			name:  "empty",
			input: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := drain(StreamCSV(context.Background(), strings.NewReader(tt.input), tt.opts))
			require.NoError(t, err)
			assert.Equal(t, tt.want, rows)
		})
	}
}

func TestStreamCSV_LazyQuotes(t *testing.T) {
	input := "Title,Note\nSmith,said \"call me\" later\n"

	_, err := drain(StreamCSV(context.Background(), strings.NewReader("a\n\"x\"y\n"), CSVOptions{}))
	assert.Error(t, err)

	rows, err := drain(StreamCSV(context.Background(), strings.NewReader(input), CSVOptions{LazyQuotes: true}))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Smith", rows[1][0])
}

func TestStreamCSV_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rows, err := drain(StreamCSV(ctx, strings.NewReader("a,b\n1,2\n"), CSVOptions{}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "csv: context cancelled")
	assert.Empty(t, rows)
}

func TestStreamCSV_CancelMidStream(t *testing.T) {
	var sb strings.Builder
	for range 5000 {
		sb.WriteString("5551234567,Austin,TX\n")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rowCh, errCh := StreamCSV(ctx, strings.NewReader(sb.String()), CSVOptions{})

	got := 0
	for range rowCh {
		got++
		if got == 10 {
			cancel()
		}
	}
	if err := <-errCh; err != nil {
		assert.Contains(t, err.Error(), "context cancelled")
	}
	assert.Less(t, got, 5000)
}

func TestReadCSVFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipedrive_data.csv")
	require.NoError(t, os.WriteFile(path, []byte("\ufeffDeal - ID,phone_number\n1,5551234567\n"), 0o644))

	rows, err := ReadCSVFile(context.Background(), path, CSVOptions{})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Deal - ID", rows[0][0])
	assert.Equal(t, []string{"1", "5551234567"}, rows[1])
}

func TestReadCSVFile_NotFound(t *testing.T) {
	_, err := ReadCSVFile(context.Background(), filepath.Join(t.TempDir(), "missing.csv"), CSVOptions{})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "csv: open file")
}

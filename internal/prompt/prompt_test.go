package prompt

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolver_Path(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		input   string
		want    string
		wantErr error
		asked   bool
	}{
		{name: "argument wins", args: []string{"data.xlsx"}, want: "data.xlsx"},
		{name: "typed path", input: "  /tmp/in.csv \n", want: "/tmp/in.csv", asked: true},
		{name: "quoted path", input: "'/tmp/my file.xlsx'\n", want: "/tmp/my file.xlsx", asked: true},
		{name: "blank argument prompts", args: []string{" "}, input: "x.xlsx\n", want: "x.xlsx", asked: true},
		{name: "empty answer", input: "\n", wantErr: ErrNoSelection, asked: true},
		{name: "end of input", input: "", wantErr: ErrNoSelection, asked: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			r := NewResolver(strings.NewReader(tt.input), &out)

			got, err := r.Path(tt.args)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
			assert.Equal(t, tt.asked, out.Len() > 0)
		})
	}
}

func TestResolver_SearchTerm(t *testing.T) {
	r := NewResolver(strings.NewReader("oat milk\n\n"), &bytes.Buffer{})

	term, err := r.SearchTerm()
	require.NoError(t, err)
	assert.Equal(t, "oat milk", term)

	term, err = r.SearchTerm()
	require.NoError(t, err)
	assert.Empty(t, term)

	term, err = r.SearchTerm()
	require.NoError(t, err)
	assert.Empty(t, term, "end of input skips")
}

func TestResolver_SharesReaderAcrossPrompts(t *testing.T) {
	r := NewResolver(strings.NewReader("in.xlsx\nbread\n"), &bytes.Buffer{})

	path, err := r.Path(nil)
	require.NoError(t, err)
	term, err := r.SearchTerm()
	require.NoError(t, err)

	assert.Equal(t, "in.xlsx", path)
	assert.Equal(t, "bread", term)
}

package commands

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nonibytes/tarpit/tarpit"
)

func TestSplitRemovals(t *testing.T) {
	got := splitRemovals([]string{"comment1, Branch", "", "status,,comment_2"})
	assert.Equal(t, []string{"comment1", "branch", "status", "comment_2"}, got)
	assert.Nil(t, splitRemovals(nil))
}

func TestBindFieldFlags(t *testing.T) {
	in := tarpit.Input{}
	fs := pflag.NewFlagSet("add", pflag.ContinueOnError)
	bindFieldFlags(fs, tarpit.DefaultSchema(), in)

	require.NoError(t, fs.Parse([]string{
		"--hd", "3", "--comment", "a,b", "--comment", "c", "--assigned", "--reported=2024-01-02",
	}))

	assert.Equal(t, tarpit.Input{
		"hd":       {"3"},
		"comment":  {"a,b", "c"},
		"assigned": {},
		"reported": {"2024-01-02"},
	}, in)

	// only dates accept a bare flag
	assert.Equal(t, "", fs.Lookup("status").NoOptDefVal)
	assert.Equal(t, useDefault, fs.Lookup("resolved").NoOptDefVal)
	assert.Equal(t, "stringArray", fs.Lookup("comment").Value.Type())
}

func TestRepeatedScalarReachesValidation(t *testing.T) {
	in := tarpit.Input{}
	fs := pflag.NewFlagSet("add", pflag.ContinueOnError)
	bindFieldFlags(fs, tarpit.DefaultSchema(), in)

	require.NoError(t, fs.Parse([]string{"--desc", "one", "--desc", "two"}))
	assert.Equal(t, []string{"one", "two"}, in["desc"])
}

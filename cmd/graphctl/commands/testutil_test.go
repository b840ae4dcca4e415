package commands

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

// testCmd wraps a minimal root command carrying the same persistent
// flags main.go registers, so subcommand RunE functions (which read
// --manifest/--data-dir/--server/--output off cmd.Root()) behave the
// same under test as under the real binary.
type testCmd struct {
	root *cobra.Command
}

func newTestCmd(t *testing.T, manifestPath string) *testCmd {
	t.Helper()
	root := &cobra.Command{Use: "graphctl"}
	root.PersistentFlags().StringP("manifest", "m", manifestPath, "")
	root.PersistentFlags().String("data-dir", t.TempDir(), "")
	root.PersistentFlags().String("server", "http://127.0.0.1:8080", "")
	root.PersistentFlags().BoolP("debug", "d", false, "")
	root.PersistentFlags().StringP("output", "o", "auto", "")
	return &testCmd{root: root}
}

func (tc *testCmd) execute(t *testing.T, args ...string) error {
	t.Helper()
	tc.root.SetArgs(args)
	var out bytes.Buffer
	tc.root.SetOut(&out)
	tc.root.SetErr(&out)
	return tc.root.Execute()
}

func (tc *testCmd) run(t *testing.T, args ...string) {
	t.Helper()
	require.NoError(t, tc.execute(t, args...))
}

package maincmd_test

import (
	"bytes"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mna/mainer"
	"github.com/pl0dash/plzero/internal/filetest"
	"github.com/pl0dash/plzero/internal/maincmd"
	"github.com/stretchr/testify/require"
)

var testUpdateMaincmdTests = flag.Bool("test.update-maincmd-tests", false, "If set, replace expected maincmd test results with actual results.")

// TestRun golden-tests the full CLI pipeline (flag parsing, source read,
// compile, execute) over the .pl0 corpus under testdata/in, matching
// stdout against testdata/out.
func TestRun(t *testing.T) {
	srcDir, resultDir := filepath.Join("testdata", "in"), filepath.Join("testdata", "out")

	for _, fi := range filetest.SourceFiles(t, srcDir, ".pl0") {
		t.Run(fi.Name(), func(t *testing.T) {
			var out, eout bytes.Buffer
			stdio := mainer.Stdio{Stdout: &out, Stderr: &eout}

			c := &maincmd.Cmd{}
			code := c.Main([]string{"plzero", filepath.Join(srcDir, fi.Name())}, stdio)

			require.Equal(t, mainer.Success, code)
			require.Empty(t, eout.String())
			filetest.DiffOutput(t, fi, out.String(), resultDir, testUpdateMaincmdTests)
		})
	}
}

func TestDumpFlagPrintsInstructionsInsteadOfExecuting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "src.pl0")
	require.NoError(t, writeFile(path, "const c=7; begin write c; writeln end.\n"))

	var out, eout bytes.Buffer
	stdio := mainer.Stdio{Stdout: &out, Stderr: &eout}
	c := &maincmd.Cmd{}
	code := c.Main([]string{"plzero", path, "-p"}, stdio)

	require.Equal(t, mainer.Success, code)
	require.Empty(t, eout.String())
	require.Contains(t, out.String(), "lit 7")
	require.Contains(t, out.String(), "opr wrt")
	require.NotContains(t, out.String(), "\n7\n")
}

func TestNoSourceFilePromptsAndReadsStdin(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prompted.pl0")
	require.NoError(t, writeFile(path, "const c=7; begin write c; writeln end.\n"))

	var out, eout bytes.Buffer
	stdio := mainer.Stdio{
		Stdin:  strings.NewReader(path + "\n"),
		Stdout: &out,
		Stderr: &eout,
	}
	c := &maincmd.Cmd{}
	code := c.Main([]string{"plzero"}, stdio)

	require.Equal(t, mainer.Success, code)
	require.Contains(t, out.String(), "enter source file name")
	require.Contains(t, out.String(), "7\n")
}

func TestMissingSourceFileIsFailure(t *testing.T) {
	var out, eout bytes.Buffer
	stdio := mainer.Stdio{Stdout: &out, Stderr: &eout}
	c := &maincmd.Cmd{}
	code := c.Main([]string{"plzero", filepath.Join(t.TempDir(), "nope.pl0")}, stdio)

	require.Equal(t, mainer.Failure, code)
	require.NotEmpty(t, eout.String())
}

func TestTooManySourceArgsIsInvalidArgs(t *testing.T) {
	var out, eout bytes.Buffer
	stdio := mainer.Stdio{Stdout: &out, Stderr: &eout}
	c := &maincmd.Cmd{}
	code := c.Main([]string{"plzero", "a.pl0", "b.pl0"}, stdio)

	require.Equal(t, mainer.InvalidArgs, code)
}

func TestHelpFlag(t *testing.T) {
	var out, eout bytes.Buffer
	stdio := mainer.Stdio{Stdout: &out, Stderr: &eout}
	c := &maincmd.Cmd{}
	code := c.Main([]string{"plzero", "-h"}, stdio)

	require.Equal(t, mainer.Success, code)
	require.Contains(t, out.String(), "usage: plzero")
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o600)
}

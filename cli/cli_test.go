package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"probe-ids/dataset"
	"probe-ids/pipeline"
	"probe-ids/testutil"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeFixtures(t *testing.T) (dir, train, valid string) {
	t.Helper()
	dir = t.TempDir()
	train = testutil.WriteARFF(t, dir, "train.arff", testutil.ProbeRelation(30, 20, 2, 1))
	valid = testutil.WriteARFF(t, dir, "valid.arff", testutil.ProbeRelation(10, 20, 2, 2))
	return dir, train, valid
}

func TestRunCommand(t *testing.T) {
	dir, train, valid := writeFixtures(t)
	image := filepath.Join(dir, "tree.png")
	dot := filepath.Join(dir, "tree.dot")

	stdout, _, err := execute(t, "run",
		"--train", train,
		"--validation", valid,
		"--image", image,
		"--dot", dot,
		"--print-tree",
	)
	require.NoError(t, err)
	assert.Contains(t, stdout, "features (20): hdr_00")
	assert.Contains(t, stdout, "Decision Node: hdr_01 <= 0.50 (gini")
	assert.Contains(t, stdout, "precision")
	assert.FileExists(t, image)
	assert.FileExists(t, dot)
}

func TestRunCommandConfigFile(t *testing.T) {
	dir, train, valid := writeFixtures(t)
	cfgFile := filepath.Join(dir, "idstree.yaml")
	content := "train:\n  - " + train + "\nvalidation:\n  - " + valid + "\n" +
		"tree:\n  criterion: entropy\n" +
		"output:\n  image: \"\"\n  print_tree: true\n  report_format: json\n"
	require.NoError(t, os.WriteFile(cfgFile, []byte(content), 0o644))

	stdout, _, err := execute(t, "run", "--config", cfgFile)
	require.NoError(t, err)
	assert.Contains(t, stdout, "(entropy = 1.000, samples = 30)")
	assert.Contains(t, stdout, `"accuracy": 1`)

	// Flags win over the file.
	stdout, _, err = execute(t, "run", "--config", cfgFile, "--criterion", "gini", "--format", "text")
	require.NoError(t, err)
	assert.Contains(t, stdout, "(gini = 0.500, samples = 30)")
	assert.NotContains(t, stdout, `"accuracy"`)
}

func TestRunCommandFailures(t *testing.T) {
	dir, train, valid := writeFixtures(t)

	_, _, err := execute(t, "run", "--train", train, "--validation", valid, "--image", "", "--features", "40")
	require.Error(t, err)
	assert.True(t, errors.Is(err, dataset.ErrTooFewColumns), "got %v", err)

	_, _, err = execute(t, "run", "--train", train, "--validation", valid,
		"--image", filepath.Join(dir, "absent", "tree.png"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, pipeline.ErrStagesFailed), "got %v", err)

	_, _, err = execute(t, "run", "--train", train, "--validation", valid, "--criterion", "chaos")
	assert.ErrorContains(t, err, "tree.criterion")

	_, _, err = execute(t, "run", "--config", filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	_, _, err = execute(t, "run", "extra")
	assert.Error(t, err)
}

func TestRunCommandDebugLogging(t *testing.T) {
	_, train, valid := writeFixtures(t)

	_, stderr, err := execute(t, "run", "--train", train, "--validation", valid,
		"--image", "", "--log-level", "debug", "--log-format", "json")
	require.NoError(t, err)
	assert.Contains(t, stderr, `"run_id"`)
}

func TestInspectCommand(t *testing.T) {
	_, train, valid := writeFixtures(t)

	stdout, _, err := execute(t, "inspect", train, valid)
	require.NoError(t, err)
	assert.Contains(t, stdout, `relation "probe_attack", 30 rows, 23 attributes`)
	assert.Contains(t, stdout, `relation "probe_attack", 10 rows, 23 attributes`)
	assert.Contains(t, stdout, "hdr_19")
	assert.Contains(t, stdout, "feature")
	assert.Contains(t, stdout, "dropped")
	assert.Contains(t, stdout, "{normal,attack}")
	assert.Contains(t, stdout, "50.0%")

	stdout, _, err = execute(t, "inspect", "--features", "2", train)
	require.Error(t, err, "inspect does not take run flags")
	assert.Empty(t, stdout)

	_, _, err = execute(t, "inspect")
	assert.Error(t, err)

	_, _, err = execute(t, "inspect", filepath.Join(t.TempDir(), "absent.arff"))
	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	stdout, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "idstree v"+Version+" ("+GitCommit+")\n", stdout)
}

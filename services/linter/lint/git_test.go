// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package lint

import (
	"context"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PackmindHub/packmind-linter/services/linter/execution"
)

const samplePatch = `diff --git a/src/a.ts b/src/a.ts
index 1111111..2222222 100644
--- a/src/a.ts
+++ b/src/a.ts
@@ -3,0 +4,2 @@ interface A {
+  b: string;
+  c: string;
@@ -10 +11,0 @@ export {};
-removed
diff --git a/lib/c.ts b/lib/c.ts
index 3333333..4444444 100644
--- a/lib/c.ts
+++ b/lib/c.ts
@@ -1 +1 @@
-const c = 1;
+const c = 2;
`

func TestParseModifiedLines(t *testing.T) {
	root := filepath.FromSlash("/repo")
	lines, err := parseModifiedLines(root, []byte(samplePatch))
	require.NoError(t, err)

	assert.Equal(t, []ModifiedLine{
		{File: filepath.Join(root, "src", "a.ts"), StartLine: 4, LineCount: 2},
		{File: filepath.Join(root, "lib", "c.ts"), StartLine: 1, LineCount: 1},
	}, lines)

	lines, err = parseModifiedLines(root, nil)
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestModifiedLine_Contains(t *testing.T) {
	m := ModifiedLine{StartLine: 10, LineCount: 10}
	assert.True(t, m.Contains(10))
	assert.True(t, m.Contains(19))
	assert.False(t, m.Contains(20))
	assert.False(t, m.Contains(9))
}

func TestFilterByLines(t *testing.T) {
	v := func(line int) execution.Violation {
		return execution.Violation{Line: line, Rule: "r", Standard: "s", Severity: execution.SeverityError}
	}
	files := []FileViolations{
		{File: "/a.ts", Violations: []execution.Violation{v(5), v(15), v(25)}},
		{File: "/b.ts", Violations: []execution.Violation{v(1)}},
	}
	modified := []ModifiedLine{
		{File: "/a.ts", StartLine: 1, LineCount: 5},
		{File: "/a.ts", StartLine: 20, LineCount: 10},
	}

	out := filterByLines(files, modified)
	require.Len(t, out, 1)
	assert.Equal(t, "/a.ts", out[0].File)
	assert.Equal(t, []execution.Violation{v(5), v(25)}, out[0].Violations)
	assert.Len(t, files[0].Violations, 3, "input must not be modified")
}

func TestCountLines(t *testing.T) {
	assert.Equal(t, 0, countLines(nil))
	assert.Equal(t, 1, countLines([]byte("a")))
	assert.Equal(t, 2, countLines([]byte("a\nb\n")))
	assert.Equal(t, 3, countLines([]byte("a\nb\nc")))
}

func TestCLIGit_Repository(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}

	ctx := context.Background()
	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)

	gitCmd := func(args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = root
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, string(out))
	}
	gitCmd("init", "-q")
	gitCmd("config", "user.email", "test@example.com")
	gitCmd("config", "user.name", "Test User")
	writeFile(t, filepath.Join(root, "a.ts"), "one\ntwo\nthree\n")
	gitCmd("add", ".")
	gitCmd("commit", "-q", "-m", "init")

	writeFile(t, filepath.Join(root, "a.ts"), "one\nTWO\nthree\n")
	writeFile(t, filepath.Join(root, "new.ts"), "x\ny\n")

	g := NewCLIGit(0)
	gotRoot, err := g.Root(ctx, root)
	require.NoError(t, err)
	assert.Equal(t, root, gotRoot)

	files, err := g.ModifiedFiles(ctx, root)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "a.ts"), filepath.Join(root, "new.ts")}, files)

	lines, err := g.ModifiedLines(ctx, root)
	require.NoError(t, err)
	assert.ElementsMatch(t, []ModifiedLine{
		{File: filepath.Join(root, "a.ts"), StartLine: 2, LineCount: 1},
		{File: filepath.Join(root, "new.ts"), StartLine: 1, LineCount: 2},
	}, lines)

	_, err = g.Root(ctx, t.TempDir())
	assert.ErrorIs(t, err, ErrNotGitRepo)
}

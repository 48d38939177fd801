package yindex

import (
	"bytes"
	"context"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

var update = flag.Bool("update", false, "rewrite testdata/*/expected.sql")

// TestGolden emits every testdata/{case}/ directory and compares the SQL text
// with expected.sql. The case's *.yang files are the indexed modules; a lib/
// subdirectory, when present, is the search path for their dependencies.
func TestGolden(t *testing.T) {
	cases, err := os.ReadDir("testdata")
	if err != nil {
		t.Skip("no testdata directory found")
	}

	for _, c := range cases {
		if !c.IsDir() {
			continue
		}
		dir := filepath.Join("testdata", c.Name())
		t.Run(c.Name(), func(t *testing.T) {
			paths, err := filepath.Glob(filepath.Join(dir, "*.yang"))
			require.NoError(t, err)
			require.NotEmpty(t, paths)

			opts := []Option{WithModuleTable(true)}
			lib := filepath.Join(dir, "lib")
			if info, err := os.Stat(lib); err == nil && info.IsDir() {
				opts = append(opts, WithSearchPath(lib))
			}

			var buf bytes.Buffer
			_, err = Emit(context.Background(), &buf, paths, opts...)
			require.NoError(t, err)

			goldenPath := filepath.Join(dir, "expected.sql")
			if *update {
				require.NoError(t, os.WriteFile(goldenPath, buf.Bytes(), 0o644))
				return
			}
			want, err := os.ReadFile(goldenPath)
			require.NoError(t, err)
			if diff := cmp.Diff(string(want), buf.String()); diff != "" {
				t.Errorf("emitted SQL mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// TestGolden_LoadsIntoSQLite applies every golden script to a fresh database
// and checks that each insert produced a row.
func TestGolden_LoadsIntoSQLite(t *testing.T) {
	goldens, err := filepath.Glob(filepath.Join("testdata", "*", "expected.sql"))
	require.NoError(t, err)

	for _, path := range goldens {
		t.Run(filepath.Base(filepath.Dir(path)), func(t *testing.T) {
			script, err := os.ReadFile(path)
			require.NoError(t, err)

			e := newTestEngine(t)
			stats, err := e.Load(bytes.NewReader(script))
			require.NoError(t, err)
			require.Equal(t, 2, stats.Tables)

			sum, err := e.Query().Summary()
			require.NoError(t, err)
			require.Equal(t, stats.Nodes, sum.Nodes)

			mods, err := e.Query().Modules()
			require.NoError(t, err)
			require.Len(t, mods, stats.Modules)
		})
	}
}

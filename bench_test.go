package yindex

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// benchModule renders a module with n containers of a few leaves each, plus
// a grouping used by every container.
func benchModule(name string, n int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "module %s {\n  namespace \"urn:bench:%s\";\n  prefix %s;\n", name, name, name)
	b.WriteString("  revision 2024-01-01;\n")
	b.WriteString("  grouping counters {\n    leaf in-octets { type uint64; }\n    leaf out-octets { type uint64; }\n  }\n")
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "  container c%d {\n", i)
		fmt.Fprintf(&b, "    description \"Container %d's settings\";\n", i)
		b.WriteString("    leaf name { type string { length \"1..64\"; } }\n")
		b.WriteString("    leaf enabled { type boolean; default true; }\n")
		b.WriteString("    list entry { key id; leaf id { type uint32; } uses counters; }\n")
		b.WriteString("  }\n")
	}
	b.WriteString("}\n")
	return b.String()
}

func writeBenchModules(b *testing.B, files, containers int) []string {
	b.Helper()
	dir := b.TempDir()
	paths := make([]string, files)
	for i := 0; i < files; i++ {
		name := fmt.Sprintf("bench%d", i)
		paths[i] = filepath.Join(dir, name+".yang")
		if err := os.WriteFile(paths[i], []byte(benchModule(name, containers)), 0o644); err != nil {
			b.Fatal(err)
		}
	}
	return paths
}

func BenchmarkEmit(b *testing.B) {
	paths := writeBenchModules(b, 8, 200)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Emit(ctx, io.Discard, paths, WithModuleTable(true)); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkIndexFiles(b *testing.B) {
	paths := writeBenchModules(b, 8, 200)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		b.StopTimer()
		e, err := New(filepath.Join(b.TempDir(), "bench.db"))
		if err != nil {
			b.Fatal(err)
		}
		b.StartTimer()

		if _, err := e.IndexFiles(ctx, paths); err != nil {
			b.Fatal(err)
		}

		b.StopTimer()
		e.Close()
		b.StartTimer()
	}
}

func BenchmarkIndexFiles_Unchanged(b *testing.B) {
	paths := writeBenchModules(b, 8, 200)
	ctx := context.Background()
	e, err := New(filepath.Join(b.TempDir(), "bench.db"))
	if err != nil {
		b.Fatal(err)
	}
	defer e.Close()
	if _, err := e.IndexFiles(ctx, paths); err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := e.IndexFiles(ctx, paths); err != nil {
			b.Fatal(err)
		}
	}
}

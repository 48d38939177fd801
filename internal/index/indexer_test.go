package index

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/jward/yindex/internal/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func paths(rows []IndexRow) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Module + " " + r.Statement + " " + r.Path
	}
	return out
}

func TestEmit_TraversalOrder(t *testing.T) {
	t.Parallel()
	m := newTestModule("module", "foo",
		st("prefix", "foo"),
		st("container", "top",
			st("leaf", "a"),
			st("list", "items", st("key", "name"), st("leaf", "name")),
		),
		st("grouping", "g", st("leaf", "inside-grouping")),
		st("extension", "ext"),
		st("identity", "base-id"),
		st("feature", "fancy"),
		st("typedef", "percent", st("type", "uint8")),
		st("leaf", "last"),
	)

	var c Collector
	stats, err := New(&c, nil, Options{NoSchema: true}).Emit(context.Background(), []*schema.Module{m})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"foo typedef /foo:percent",
		"foo feature /foo:fancy",
		"foo identity /foo:base-id",
		"foo grouping /foo:g",
		"foo extension /foo:ext",
		"foo container /foo:top",
		"foo leaf /foo:top/foo:a",
		"foo list /foo:top/foo:items",
		"foo leaf /foo:top/foo:items/foo:name",
		"foo leaf /foo:last",
	}, paths(c.Nodes))
	assert.Equal(t, 1, stats.Modules)
	assert.Equal(t, 10, stats.Nodes)
	assert.False(t, c.SchemaRequested)
}

func TestEmit_ChildrenWithoutArgumentAreSkippedButVisited(t *testing.T) {
	t.Parallel()
	m := newTestModule("module", "foo",
		st("prefix", "foo"),
		st("rpc", "reboot",
			st("input", "", st("leaf", "delay")),
			st("output", ""),
		),
	)

	var c Collector
	stats, err := New(&c, nil, Options{NoSchema: true}).Emit(context.Background(), []*schema.Module{m})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"foo rpc /foo:reboot",
		"foo leaf /foo:reboot/foo:delay",
	}, paths(c.Nodes))
	assert.Equal(t, 2, stats.SkippedArgs)

	// The rpc row lists input and output as flat entries.
	assert.Equal(t,
		`[{"input":{"value":"","has_children":true,"children":[]}},{"output":{"value":"","has_children":false,"children":[]}}]`,
		c.Nodes[0].Properties)
}

func TestEmit_IncludedSubmoduleIsAdded(t *testing.T) {
	t.Parallel()
	sub := newTestModule("submodule", "foo-sub",
		st("belongs-to", "foo", st("prefix", "foo")),
		st("container", "extra", st("leaf", "x")),
	)
	foo := newTestModule("module", "foo",
		st("namespace", "urn:example:foo"),
		st("prefix", "foo"),
		st("include", "foo-sub"),
		st("leaf", "bar"),
	)
	reg := newFakeRegistry(foo)
	reg.onDisk["foo-sub"] = sub

	var c Collector
	ix := New(&c, reg, Options{NoSchema: true, MakeModuleTable: true})
	stats, err := ix.Emit(context.Background(), []*schema.Module{foo})
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Modules)
	require.Len(t, c.Modules, 2)
	assert.Equal(t, "foo", c.Modules[0].Module)
	assert.Equal(t, "foo-sub", c.Modules[1].Module)
	assert.Equal(t, "urn:example:foo", c.Modules[1].Namespace)
	assert.Equal(t, "example", c.Modules[1].Organization)

	assert.Equal(t, []string{
		"foo leaf /foo:bar",
		"foo-sub container /foo:extra",
		"foo-sub leaf /foo:extra/foo:x",
	}, paths(c.Nodes))
}

func TestExpand_Deduplicates(t *testing.T) {
	t.Parallel()
	sub := newTestModule("submodule", "s", st("belongs-to", "a", st("prefix", "a")))
	a := newTestModule("module", "a", st("prefix", "a"), st("include", "s"))
	b := newTestModule("module", "b", st("prefix", "b"), st("include", "s"))
	reg := newFakeRegistry(a, b, sub)

	got := New(&Collector{}, reg, Options{}).Expand([]*schema.Module{a, b, a})
	require.Len(t, got, 3)
	assert.Equal(t, "a", got[0].Name)
	assert.Equal(t, "b", got[1].Name)
	assert.Equal(t, "s", got[2].Name)
}

func TestExpand_NestedIncludesAndMissing(t *testing.T) {
	t.Parallel()
	inner := newTestModule("submodule", "inner", st("belongs-to", "a", st("prefix", "a")))
	outer := newTestModule("submodule", "outer",
		st("belongs-to", "a", st("prefix", "a")),
		st("include", "inner"),
	)
	a := newTestModule("module", "a",
		st("prefix", "a"),
		st("revision", "2022-01-01"),
		st("include", "outer"),
		st("include", "ghost"),
	)
	reg := newFakeRegistry(a)
	reg.onDisk["outer"] = outer
	reg.onDisk["inner"] = inner

	got := New(&Collector{}, reg, Options{}).Expand([]*schema.Module{a})
	require.Len(t, got, 3)
	assert.Equal(t, "outer", got[1].Name)
	assert.Equal(t, "inner", got[2].Name)
	assert.Contains(t, reg.searches, "ghost@2022-01-01")
}

func TestEmit_ForeignAugmentIsIndexedOnce(t *testing.T) {
	t.Parallel()
	base := newTestModule("module", "base",
		st("prefix", "b"),
		st("container", "system"),
	)
	augStmt := st("augment", "/b:system", st("leaf", "hostname"))
	ext := newTestModule("module", "ext",
		st("prefix", "x"),
		st("import", "base", st("prefix", "b")),
		augStmt,
	)
	augment(ext, augStmt, base.Children[0])

	t.Run("target module outside the set", func(t *testing.T) {
		var c Collector
		_, err := New(&c, nil, Options{NoSchema: true}).Emit(context.Background(), []*schema.Module{ext})
		require.NoError(t, err)
		assert.Equal(t, []string{"ext leaf /b:system/x:hostname"}, paths(c.Nodes))
	})

	t.Run("target module in the set", func(t *testing.T) {
		var c Collector
		_, err := New(&c, nil, Options{NoSchema: true}).Emit(context.Background(), []*schema.Module{ext, base})
		require.NoError(t, err)
		assert.Equal(t, []string{
			"base container /b:system",
			"ext leaf /b:system/x:hostname",
		}, paths(c.Nodes))
	})
}

func TestEmit_Options(t *testing.T) {
	t.Parallel()
	m := newTestModule("module", "foo",
		st("prefix", "foo"),
		st("leaf", "bar", st("description", "hello")),
	)
	const (
		schemaLines = CreateIndexTable + "\n" + CreateModulesTable + "\n"
		moduleLine  = "insert into modules (module, revision, yang_version, belongs_to, namespace, prefix, organization) values('foo', '', '1.0', '', '', 'foo', '');\n"
		nodeLine    = "insert into yindex values('foo', '', '/foo:bar', 'leaf', 'bar', 'hello', '[]');\n"
	)

	tests := []struct {
		name string
		opts Options
		want string
	}{
		{"default", Options{}, schemaLines + nodeLine},
		{"no schema", Options{NoSchema: true}, nodeLine},
		{"schema only", Options{SchemaOnly: true}, schemaLines},
		{"schema only and no schema", Options{SchemaOnly: true, NoSchema: true}, ""},
		{"module table", Options{MakeModuleTable: true}, schemaLines + moduleLine + nodeLine},
		{"module table without schema", Options{MakeModuleTable: true, NoSchema: true}, moduleLine + nodeLine},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			w := NewSQLWriter(&buf)
			_, err := New(w, nil, tt.opts).Emit(context.Background(), []*schema.Module{m})
			require.NoError(t, err)
			require.NoError(t, w.Flush())
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestEmit_Cancelled(t *testing.T) {
	t.Parallel()
	m := newTestModule("module", "foo", st("prefix", "foo"), st("leaf", "bar"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var c Collector
	_, err := New(&c, nil, Options{NoSchema: true}).Emit(ctx, []*schema.Module{m})
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, c.Nodes)
}

type failingSink struct{ Collector }

func (f *failingSink) InsertNode(row *IndexRow) error {
	return assert.AnError
}

func TestEmit_SinkErrorAborts(t *testing.T) {
	t.Parallel()
	m := newTestModule("module", "foo", st("prefix", "foo"), st("leaf", "a"), st("leaf", "b"))

	_, err := New(&failingSink{}, nil, Options{NoSchema: true}).Emit(context.Background(), []*schema.Module{m})
	require.ErrorIs(t, err, assert.AnError)
	assert.True(t, strings.Contains(err.Error(), "index module foo"))
}

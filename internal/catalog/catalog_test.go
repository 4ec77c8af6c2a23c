package catalog_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/goap/internal/catalog"
	"github.com/cory-johannsen/goap/internal/goap"
)

// repoRoot walks up from the test's working directory to find the module root.
func repoRoot(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	root := wd
	for {
		if _, err := os.Stat(filepath.Join(root, "go.mod")); err == nil {
			return root
		}
		parent := filepath.Dir(root)
		if parent == root {
			t.Fatalf("could not find repo root from %s", wd)
		}
		root = parent
	}
}

func minimal() *catalog.Catalog {
	return &catalog.Catalog{
		ID:         "test",
		Predicates: []string{"a", "b"},
		Actions:    []*catalog.ActionSpec{{Name: "SetA", Cost: 1, Sets: []string{"a"}}},
	}
}

func TestCatalog_Validate_AcceptsMinimal(t *testing.T) {
	require.NoError(t, minimal().Validate())
}

func TestCatalog_Validate_Rejects(t *testing.T) {
	neg := -1
	cases := map[string]func(c *catalog.Catalog){
		"empty id":            func(c *catalog.Catalog) { c.ID = "" },
		"no actions":          func(c *catalog.Catalog) { c.Actions = nil },
		"duplicate predicate": func(c *catalog.Catalog) { c.Predicates = append(c.Predicates, "a") },
		"unknown initial":     func(c *catalog.Catalog) { c.Initial = []string{"z"} },
		"empty action name":   func(c *catalog.Catalog) { c.Actions[0].Name = "" },
		"duplicate action": func(c *catalog.Catalog) {
			c.Actions = append(c.Actions, &catalog.ActionSpec{Name: "SetA"})
		},
		"negative cost":          func(c *catalog.Catalog) { c.Actions[0].Cost = -1 },
		"negative reversed cost": func(c *catalog.Catalog) { c.Actions[0].ReversedCost = &neg },
		"unknown requires":       func(c *catalog.Catalog) { c.Actions[0].Requires = []string{"z"} },
		"unknown clears":         func(c *catalog.Catalog) { c.Actions[0].Clears = []string{"z"} },
		"sets clears overlap":    func(c *catalog.Catalog) { c.Actions[0].Clears = []string{"a"} },
		"requires forbids overlap": func(c *catalog.Catalog) {
			c.Actions[0].Requires = []string{"b"}
			c.Actions[0].Forbids = []string{"b"}
		},
		"empty goal name": func(c *catalog.Catalog) { c.Goals = []*catalog.GoalSpec{{Active: []string{"a"}}} },
		"duplicate goal": func(c *catalog.Catalog) {
			c.Goals = []*catalog.GoalSpec{{Name: "g"}, {Name: "g"}}
		},
		"unknown goal predicate": func(c *catalog.Catalog) {
			c.Goals = []*catalog.GoalSpec{{Name: "g", Inactive: []string{"z"}}}
		},
		"goal overlap": func(c *catalog.Catalog) {
			c.Goals = []*catalog.GoalSpec{{Name: "g", Active: []string{"a"}, Inactive: []string{"a"}}}
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := minimal()
			mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestCatalog_Goal(t *testing.T) {
	c := minimal()
	c.Goals = []*catalog.GoalSpec{
		{Name: "want_a", Active: []string{"a"}},
		{Name: "avoid_b", Inactive: []string{"b"}},
		{Name: "anything"},
	}
	s, err := c.Schema()
	require.NoError(t, err)
	a, _ := s.Bit("a")
	b, _ := s.Bit("b")

	g, err := c.Goal("want_a")
	require.NoError(t, err)
	assert.Equal(t, goap.Goal{Active: a, Inactive: goap.None}, g)

	g, err = c.Goal("avoid_b")
	require.NoError(t, err)
	assert.Equal(t, goap.Goal{Active: goap.None, Inactive: b}, g)

	g, err = c.Goal("anything")
	require.NoError(t, err)
	assert.True(t, g.Matches(0))
	assert.True(t, g.Matches(a|b))

	_, err = c.Goal("missing")
	assert.Error(t, err)
	assert.Equal(t, []string{"want_a", "avoid_b", "anything"}, c.GoalNames())
}

func TestCatalog_InitialState(t *testing.T) {
	c := minimal()
	c.Initial = []string{"b"}
	s, err := c.InitialState()
	require.NoError(t, err)
	assert.Equal(t, goap.WorldState(1<<2), s)
}

func TestDecode_MissingTopLevelKey(t *testing.T) {
	_, err := catalog.Decode([]byte("id: x\n"))
	assert.ErrorContains(t, err, "catalog")
}

func TestDecode_InvalidYAML(t *testing.T) {
	_, err := catalog.Decode([]byte("catalog: [\n"))
	assert.Error(t, err)
}

func TestEncode_DecodesBack(t *testing.T) {
	c := minimal()
	rc := 7
	c.Actions[0].ReversedCost = &rc
	c.Goals = []*catalog.GoalSpec{{Name: "g", Active: []string{"a"}}}
	data, err := catalog.Encode(c)
	require.NoError(t, err)
	back, err := catalog.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, c, back)
}

func TestLoadCatalogs_LoadsYAML(t *testing.T) {
	dir := t.TempDir()
	doc := `
catalog:
  id: test_catalog
  description: Test
  predicates: [lit]
  actions:
    - name: Light
      cost: 1
      sets: [lit]
  goals:
    - name: bright
      active: [lit]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "test.yaml"), []byte(doc), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0600))
	catalogs, err := catalog.LoadCatalogs(dir)
	require.NoError(t, err)
	require.Len(t, catalogs, 1)
	assert.Equal(t, "test_catalog", catalogs[0].ID)
	assert.Equal(t, "Light", catalogs[0].Actions[0].Name)
}

func TestLoadCatalogs_DuplicateIDAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	doc := "catalog:\n  id: same\n  predicates: [a]\n  actions:\n    - name: A\n      sets: [a]\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "one.yaml"), []byte(doc), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "two.yml"), []byte(doc), 0600))
	_, err := catalog.LoadCatalogs(dir)
	assert.ErrorContains(t, err, "same")
}

func TestLoadCatalogs_InvalidFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("catalog:\n  id: bad\n"), 0600))
	_, err := catalog.LoadCatalogs(dir)
	assert.ErrorContains(t, err, "bad.yaml")
}

func TestLoadCatalogs_MissingDir(t *testing.T) {
	_, err := catalog.LoadCatalogs(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestLoadCatalogs_ShippedContent(t *testing.T) {
	catalogs, err := catalog.LoadCatalogs(filepath.Join(repoRoot(t), "content", "catalogs"))
	require.NoError(t, err)
	require.NotEmpty(t, catalogs)
	assert.Equal(t, "woodcutting", catalogs[0].ID)
}

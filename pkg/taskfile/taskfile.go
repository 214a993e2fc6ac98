// Package taskfile loads recipe definitions from a tasks.yml runfile,
// resolves recipe names and aliases and executes recipe bodies through an
// embedded POSIX shell.
package taskfile

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Name is the file name the upward search looks for.
const Name = "tasks.yml"

// namePattern restricts recipe names and aliases.
var namePattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// WatchSpec tells the runner which files should trigger a re-run of the
// recipe.
type WatchSpec struct {
	// Paths are doublestar patterns relative to the runfile. Empty means
	// the default pattern set.
	Paths []string `yaml:"paths"`
	// Exclude patterns are added on top of the built-in excludes.
	Exclude []string `yaml:"exclude"`
}

// Recipe is a single named shell script.
type Recipe struct {
	Name  string `yaml:"name"`
	Alias string `yaml:"alias"`
	Desc  string `yaml:"desc"`
	// Run holds the literal shell commands, one statement per line.
	Run string `yaml:"run"`
	// Dir is the working directory, relative to the runfile.
	Dir string `yaml:"dir"`
	// Env wins over the runfile env and the process environment.
	Env map[string]string `yaml:"env"`
	// Watch marks the recipe as a watch recipe.
	Watch *WatchSpec `yaml:"watch"`
}

// File is a parsed runfile.
type File struct {
	// Requires constrains the runner version, for example ">= 0.3".
	Requires string `yaml:"requires"`
	// Env applies to every recipe, beneath the recipe's own env.
	Env map[string]string `yaml:"env"`
	// Recipes in declaration order.
	Recipes []*Recipe `yaml:"recipes"`

	path  string
	index map[string]*Recipe
}

// Find locates the nearest runfile, walking up from dir.
func Find(dir string) (string, error) {
	path, err := filepath.Abs(dir)
	if err != nil {
		return "", eris.Wrapf(err, "cannot resolve %s", dir)
	}

	for {
		runfile := filepath.Join(path, Name)
		_, err := os.Stat(runfile)
		if err == nil {
			return runfile, nil
		}
		if !eris.Is(err, os.ErrNotExist) {
			return "", eris.Wrapf(err, "cannot check %s", runfile)
		}

		parent := filepath.Dir(path)
		if parent == path {
			return "", eris.Errorf("no %s found in %s or any parent directory", Name, dir)
		}

		path = parent
	}
}

// Load parses and validates the runfile at path. The version is the runner's
// own version and is checked against the file's requires constraint.
func Load(path, version string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "cannot read %s", path)
	}

	file := &File{path: path}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	err = dec.Decode(file)
	if err != nil {
		if eris.Is(err, io.EOF) {
			return nil, eris.Errorf("%s is empty", path)
		}

		return nil, eris.Wrapf(err, "cannot parse %s", path)
	}

	err = file.validate(version)
	if err != nil {
		return nil, eris.Wrapf(err, "invalid runfile %s", path)
	}

	return file, nil
}

// Path returns the location the file was loaded from.
func (f *File) Path() string {
	return f.path
}

// Dir returns the directory containing the runfile. Recipes run relative to
// it.
func (f *File) Dir() string {
	return filepath.Dir(f.path)
}

// Lookup resolves a name or alias to its recipe. Both forms yield the same
// recipe.
func (f *File) Lookup(nameOrAlias string) (*Recipe, bool) {
	recipe, ok := f.index[nameOrAlias]
	return recipe, ok
}

func (f *File) validate(version string) error {
	if f.Requires != "" {
		constraint, err := semver.NewConstraint(f.Requires)
		if err != nil {
			return eris.Wrapf(err, "cannot parse the version requirement %q", f.Requires)
		}

		current, err := semver.NewVersion(version)
		if err != nil {
			return eris.Wrapf(err, "cannot parse the runner version %q", version)
		}

		if !constraint.Check(current) {
			return eris.Errorf("runner version %s does not satisfy the required %q", version, f.Requires)
		}
	}

	if len(f.Recipes) == 0 {
		return eris.New("no recipes defined")
	}

	f.index = make(map[string]*Recipe, len(f.Recipes)*2)
	for _, recipe := range f.Recipes {
		if recipe.Name == "" {
			return eris.New("recipe without a name")
		}
		if !namePattern.MatchString(recipe.Name) {
			return eris.Errorf("recipe name %q contains unsupported characters", recipe.Name)
		}
		if strings.TrimSpace(recipe.Run) == "" {
			return eris.Errorf("recipe %s has no commands", recipe.Name)
		}
		if _, dup := f.index[recipe.Name]; dup {
			return eris.Errorf("recipe name %s collides with an earlier name or alias", recipe.Name)
		}
		f.index[recipe.Name] = recipe

		if recipe.Alias == "" {
			continue
		}
		if !namePattern.MatchString(recipe.Alias) {
			return eris.Errorf("alias %q contains unsupported characters", recipe.Alias)
		}
		if _, dup := f.index[recipe.Alias]; dup {
			return eris.Errorf("alias %s collides with an earlier name or alias", recipe.Alias)
		}
		f.index[recipe.Alias] = recipe
	}

	return nil
}

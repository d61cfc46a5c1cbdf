// Package workspace loads the CLI's workspace document: a local module
// index, project outputs and per-suite bucket declarations, and wires
// them into an engine.
package workspace

import (
	"fmt"
	"os"

	"github.com/go-logr/logr"
	"gopkg.in/yaml.v3"

	"github.com/anvil-platform/suitepath/internal/catalog"
	"github.com/anvil-platform/suitepath/internal/coordinate"
	"github.com/anvil-platform/suitepath/internal/dependency"
	"github.com/anvil-platform/suitepath/internal/engine"
	"github.com/anvil-platform/suitepath/internal/resolver"
	"github.com/anvil-platform/suitepath/internal/suite"
)

// Workspace models a workspace document:
//
//	project: demo
//	index:
//	  - module: org.apache.commons:commons-lang3:3.11
//	    file: libs/commons-lang3-3.11.jar
//	    dependencies: ["org.apache.commons:commons-text:1.9"]
//	projects:
//	  ":":
//	    files: [build/libs/demo.jar]
//	    exports: ["org.apache.commons:commons-lang3:3.11"]
//	production:
//	  implementation: ["org.apache.commons:commons-lang3:3.11"]
//	suites:
//	  - name: test
//	    implementation:
//	      - alias: commons-beanutils
//	        excludes: ["commons-collections:commons-collections"]
type Workspace struct {
	Project    string                 `yaml:"project"`
	Index      []ModuleDecl           `yaml:"index"`
	Projects   map[string]ProjectDecl `yaml:"projects"`
	Production BucketsDecl            `yaml:"production"`
	Suites     []SuiteDecl            `yaml:"suites"`
}

type ModuleDecl struct {
	Module       string   `yaml:"module"`
	File         string   `yaml:"file"`
	Dependencies []string `yaml:"dependencies"`
}

type ProjectDecl struct {
	Files   []string `yaml:"files"`
	Exports []string `yaml:"exports"`
}

type SuiteDecl struct {
	Name        string      `yaml:"name"`
	BucketsDecl `yaml:",inline"`
}

type BucketsDecl struct {
	Implementation      []EntryDecl `yaml:"implementation"`
	CompileOnly         []EntryDecl `yaml:"compileOnly"`
	RuntimeOnly         []EntryDecl `yaml:"runtimeOnly"`
	AnnotationProcessor []EntryDecl `yaml:"annotationProcessor"`
}

// EntryDecl is one bucket declaration. A bare scalar is shorthand for
// the gav form.
type EntryDecl struct {
	GAV      string        `yaml:"gav"`
	Alias    string        `yaml:"alias"`
	Bundle   string        `yaml:"bundle"`
	Project  string        `yaml:"project"`
	Files    []string      `yaml:"files"`
	Tree     *TreeDecl     `yaml:"tree"`
	Platform *PlatformDecl `yaml:"platform"`
	Excludes []string      `yaml:"excludes"`
}

type TreeDecl struct {
	Root     string   `yaml:"root"`
	Includes []string `yaml:"includes"`
	Excludes []string `yaml:"excludes"`
}

type PlatformDecl struct {
	Module   string `yaml:"module"`
	Enforced bool   `yaml:"enforced"`
}

func (e *EntryDecl) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		return node.Decode(&e.GAV)
	}
	type plain EntryDecl
	return node.Decode((*plain)(e))
}

// Parse decodes and validates a workspace document.
func Parse(data []byte) (*Workspace, error) {
	var ws Workspace
	if err := yaml.Unmarshal(data, &ws); err != nil {
		return nil, fmt.Errorf("workspace: decode document: %w", err)
	}
	if len(ws.Suites) == 0 {
		return nil, fmt.Errorf("workspace: at least one suite is required")
	}
	return &ws, nil
}

// LoadFile reads and parses a workspace file.
func LoadFile(path string) (*Workspace, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("workspace: read %s: %w", path, err)
	}
	ws, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("workspace: %s: %w", path, err)
	}
	return ws, nil
}

// Build wires the workspace into an engine: the index becomes an
// IndexResolver, project declarations a StaticProjects locator, and
// every bucket declaration lands in its suite. The first declared
// suite is the default one.
func (ws *Workspace) Build(cat *catalog.Catalog, log logr.Logger) (*engine.Engine, error) {
	index := resolver.NewIndexResolver()
	for _, m := range ws.Index {
		if err := index.Register(m.Module, m.File, m.Dependencies...); err != nil {
			return nil, err
		}
	}

	projects := resolver.StaticProjects{}
	for path, decl := range ws.Projects {
		exports := make([]resolver.ModuleQuery, 0, len(decl.Exports))
		for _, raw := range decl.Exports {
			dep, err := dependency.Normalize(raw)
			if err != nil {
				return nil, err
			}
			mod, ok := dep.(dependency.Module)
			if !ok {
				return nil, fmt.Errorf("workspace: project %q export %q is not a module coordinate", path, raw)
			}
			exports = append(exports, resolver.ModuleQuery{Coordinate: mod.Coordinate, Constraint: mod.Constraint})
		}
		projects[coordinate.ProjectPath(path)] = resolver.ProjectOutput{
			Files:   decl.Files,
			Exports: exports,
		}
	}

	opts := []engine.Option{
		engine.WithDefaultSuite(ws.Suites[0].Name),
		engine.WithProjectLocator(projects),
		engine.WithLogger(log),
	}
	if cat != nil {
		opts = append(opts, engine.WithCatalog(cat))
	}
	eng, err := engine.New(index, opts...)
	if err != nil {
		return nil, err
	}

	if err := ws.declareBuckets(eng, suite.ProductionName, ws.Production); err != nil {
		return nil, err
	}
	for i, decl := range ws.Suites {
		if i > 0 {
			if err := eng.NewSuite(decl.Name); err != nil {
				return nil, err
			}
		}
		if err := ws.declareBuckets(eng, decl.Name, decl.BucketsDecl); err != nil {
			return nil, err
		}
	}
	return eng, nil
}

func (ws *Workspace) declareBuckets(eng *engine.Engine, suiteName string, buckets BucketsDecl) error {
	byRole := map[suite.Role][]EntryDecl{
		suite.RoleImplementation:      buckets.Implementation,
		suite.RoleCompileOnly:         buckets.CompileOnly,
		suite.RoleRuntimeOnly:         buckets.RuntimeOnly,
		suite.RoleAnnotationProcessor: buckets.AnnotationProcessor,
	}
	for _, role := range suite.Roles() {
		for _, decl := range byRole[role] {
			if err := ws.declare(eng, suiteName, role, decl); err != nil {
				return fmt.Errorf("workspace: suite %q, bucket %s: %w", suiteName, role, err)
			}
		}
	}
	return nil
}

func (ws *Workspace) declare(eng *engine.Engine, suiteName string, role suite.Role, decl EntryDecl) error {
	actions, err := excludeActions(decl.Excludes)
	if err != nil {
		return err
	}
	switch {
	case decl.Alias != "":
		return eng.DeclareAlias(suiteName, role, decl.Alias, actions...)
	case decl.Bundle != "":
		return eng.DeclareBundle(suiteName, role, decl.Bundle, actions...)
	case decl.Project != "":
		return eng.DeclareBucketEntry(suiteName, role, coordinate.ProjectPath(decl.Project), actions...)
	case len(decl.Files) > 0:
		return eng.DeclareBucketEntry(suiteName, role, dependency.FileCollection{Paths: decl.Files}, actions...)
	case decl.Tree != nil:
		return eng.DeclareBucketEntry(suiteName, role, dependency.FileTree{
			Root:     decl.Tree.Root,
			Includes: decl.Tree.Includes,
			Excludes: decl.Tree.Excludes,
		}, actions...)
	case decl.Platform != nil:
		target, err := dependency.Normalize(decl.Platform.Module)
		if err != nil {
			return err
		}
		return eng.DeclareBucketEntry(suiteName, role, dependency.Platform{
			Target:   target,
			Enforced: decl.Platform.Enforced,
		}, actions...)
	case decl.GAV != "":
		return eng.DeclareBucketEntry(suiteName, role, decl.GAV, actions...)
	default:
		return fmt.Errorf("entry declares nothing")
	}
}

func excludeActions(raw []string) ([]dependency.MutationAction, error) {
	actions := make([]dependency.MutationAction, 0, len(raw))
	for _, spec := range raw {
		ex, err := coordinate.ParseExclude(spec)
		if err != nil {
			return nil, err
		}
		actions = append(actions, dependency.ExcludeModule(ex.Group, ex.Name))
	}
	return actions, nil
}

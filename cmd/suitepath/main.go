package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/anvil-platform/suitepath/internal/catalog"
	"github.com/anvil-platform/suitepath/internal/logging"
	"github.com/anvil-platform/suitepath/internal/suite"
	"github.com/anvil-platform/suitepath/internal/workspace"
)

func main() {
	var workspacePath string
	var catalogPath string
	var development bool

	flag.StringVar(&workspacePath, "workspace", "workspace.yaml", "Path to the workspace file.")
	flag.StringVar(&catalogPath, "catalog", "", "Optional path to a libs.versions.yaml catalog.")
	flag.BoolVar(&development, "dev", false, "Enable development (console) logging.")
	flag.Parse()

	log, err := logging.New(development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "suitepath: set up logging: %v\n", err)
		os.Exit(1)
	}
	log = log.WithName("suitepath")

	var cat *catalog.Catalog
	if catalogPath != "" {
		cat, err = catalog.LoadFile(catalogPath)
		if err != nil {
			log.Error(err, "unable to load catalog", "path", catalogPath)
			os.Exit(1)
		}
	}

	ws, err := workspace.LoadFile(workspacePath)
	if err != nil {
		log.Error(err, "unable to load workspace", "path", workspacePath)
		os.Exit(1)
	}

	eng, err := ws.Build(cat, log)
	if err != nil {
		log.Error(err, "unable to build engine", "project", ws.Project)
		os.Exit(1)
	}

	ctx := context.Background()
	failed := false
	for _, decl := range ws.Suites {
		for _, kind := range []suite.Kind{suite.KindCompile, suite.KindRuntime} {
			files, err := eng.Classpath(ctx, decl.Name, kind)
			if err != nil {
				log.Error(err, "classpath composition failed", "suite", decl.Name, "kind", kind.String())
				failed = true
				continue
			}
			fmt.Printf("%s (%s):\n", decl.Name, kind)
			for _, f := range files {
				fmt.Printf("  %s\n", f)
			}
		}
		processors, err := eng.ProcessorPath(ctx, decl.Name)
		if err != nil {
			log.Error(err, "processor path composition failed", "suite", decl.Name)
			failed = true
			continue
		}
		if len(processors) > 0 {
			fmt.Printf("%s (annotation processors):\n", decl.Name)
			for _, f := range processors {
				fmt.Printf("  %s\n", f)
			}
		}
	}
	if failed {
		os.Exit(1)
	}
}

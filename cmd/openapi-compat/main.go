// Package main checks that a revision of the API description keeps every
// path, operation and response code of a base revision.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"stocktalk/docs"
)

func main() {
	basePath := flag.String("base", "", "base OpenAPI document (YAML or JSON)")
	revisionPath := flag.String("revision", "", "revision OpenAPI document; defaults to the document built into the server")
	writePath := flag.String("write", "", "write the built-in document to this path and exit")
	flag.Parse()

	if *writePath != "" {
		// #nosec G306: the snapshot is meant to be committed and read by CI
		if err := os.WriteFile(*writePath, []byte(docs.SwaggerInfo.ReadDoc()), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write snapshot: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("wrote %s\n", *writePath)
		return
	}

	if strings.TrimSpace(*basePath) == "" {
		fmt.Fprintln(os.Stderr, "usage: openapi-compat -base <path> [-revision <path>] | -write <path>")
		os.Exit(2)
	}

	baseSpec, err := loadSpecFile(*basePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load base spec: %v\n", err)
		os.Exit(1)
	}

	var revisionSpec parsedSpec
	if strings.TrimSpace(*revisionPath) == "" {
		revisionSpec, err = parseSpec([]byte(docs.SwaggerInfo.ReadDoc()))
	} else {
		revisionSpec, err = loadSpecFile(*revisionPath)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load revision spec: %v\n", err)
		os.Exit(1)
	}

	issues := compare(baseSpec, revisionSpec)
	if len(issues) > 0 {
		fmt.Fprintln(os.Stderr, "backward compatibility check failed:")
		for _, issue := range issues {
			fmt.Fprintf(os.Stderr, "- %s\n", issue)
		}
		os.Exit(1)
	}

	fmt.Println("openapi compatibility check passed")
}

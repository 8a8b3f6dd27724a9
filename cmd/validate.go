package cmd

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"scenarist/internal/registry"
	"scenarist/internal/scenario"
)

// newValidateCmd creates the Cobra command that validates scenario definition
// files without starting anything.
func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [path]",
		Short: "Validate scenario definition files",
		Long: `Validate loads every scenario definition under the given file or
directory, runs full validation including URL pattern and regex compilation,
and reports each problem with its location. The path defaults to "scenarios".`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "scenarios"
			if len(args) == 1 {
				path = args[0]
			}

			files, err := definitionFiles(path)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				return fmt.Errorf("no scenario definition files under %s", path)
			}

			out := cmd.OutOrStdout()
			reg := registry.New()
			scenarios := 0
			failures := 0
			for _, file := range files {
				defs, err := scenario.LoadFile(file)
				if err != nil {
					fmt.Fprintf(out, "FAIL %s: %v\n", file, err)
					failures++
					continue
				}
				for _, def := range defs {
					if err := reg.Register(def); err != nil {
						fmt.Fprintf(out, "FAIL %s: %v\n", file, err)
						failures++
						continue
					}
					scenarios++
				}
			}

			if failures > 0 {
				return fmt.Errorf("%d validation failure(s) across %d file(s)", failures, len(files))
			}
			if err := reg.EnsureDefault(); err != nil {
				fmt.Fprintf(out, "WARN no %q scenario defined: the engine needs one as its fallback tier\n", "default")
			}
			fmt.Fprintf(out, "OK %d scenario(s) across %d file(s)\n", scenarios, len(files))
			return nil
		},
	}
}

// definitionFiles resolves a path to the sorted list of scenario definition
// files it names: the file itself, or every definition file under the tree.
func definitionFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && scenario.IsDefinitionFile(p) {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

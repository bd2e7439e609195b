package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/labstack/gommon/log"
	"github.com/spf13/cobra"

	"github.com/eringen/layoutkit/layout"
	"github.com/eringen/layoutkit/views"
)

var (
	templatesDir string
	strict       bool

	renderStaticURL string
	renderDebug     bool
	renderVars      []string
	renderQueries   []string
)

var renderCmd = &cobra.Command{
	Use:   "render <template>",
	Short: "Render a template to stdout",
	Long: `Render a template to stdout.

Variables are given as key=value; a dotted key such as page.Title sets a
field of a nested map. With --debug, each --query adds a row to the debug
panel.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		page, err := loadPage(args[0])
		if err != nil {
			return err
		}
		ctx, err := renderContext()
		if err != nil {
			return err
		}
		return page.Execute(cmd.OutOrStdout(), ctx)
	},
}

var blocksCmd = &cobra.Command{
	Use:   "blocks <template>",
	Short: "Print the resolved block tree of a template",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		page, err := loadPage(args[0])
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		for _, b := range page.Blocks() {
			fmt.Fprintf(w, "%s%s  (%s)\n", strings.Repeat("  ", b.Depth), b.Name, b.Source)
		}
		return nil
	},
}

func loadPage(name string) (*layout.Page, error) {
	logger := log.New("layoutkit")
	logger.SetOutput(os.Stderr)
	opts := []layout.Option{layout.WithLogger(logger), layout.WithStrict(strict)}

	var (
		reg *layout.Registry
		err error
	)
	if templatesDir != "" {
		reg, err = views.LoadFS(os.DirFS(templatesDir), opts...)
	} else {
		reg, err = views.Load(opts...)
	}
	if err != nil {
		return nil, err
	}
	return reg.Page(name)
}

func renderContext() (layout.Context, error) {
	ctx := layout.Context{
		layout.KeyStaticURL: renderStaticURL,
		layout.KeyDebug:     renderDebug,
	}
	for _, kv := range renderVars {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --var %q, want key=value", kv)
		}
		setVar(ctx, strings.Split(key, "."), value)
	}
	if renderDebug {
		queries := make([]layout.Query, 0, len(renderQueries))
		for _, q := range renderQueries {
			queries = append(queries, layout.Query{SQL: q})
		}
		ctx[layout.KeySQLQueries] = queries
	}
	return ctx, nil
}

// setVar stores value under path, creating nested maps for dotted keys.
func setVar(m map[string]any, path []string, value string) {
	for _, p := range path[:len(path)-1] {
		next, ok := m[p].(map[string]any)
		if !ok {
			next = make(map[string]any)
			m[p] = next
		}
		m = next
	}
	m[path[len(path)-1]] = value
}

func init() {
	for _, c := range []*cobra.Command{renderCmd, blocksCmd} {
		c.Flags().StringVar(&templatesDir, "templates", "", "template directory (default: the embedded templates)")
		c.Flags().BoolVar(&strict, "strict", false, "fail on overrides of unknown blocks")
	}
	renderCmd.Flags().StringVar(&renderStaticURL, "static-url", "/static/", "STATIC_URL of the rendered page")
	renderCmd.Flags().BoolVar(&renderDebug, "debug", false, "render the debug panel")
	renderCmd.Flags().StringArrayVar(&renderVars, "var", nil, "template variable as key=value (repeatable)")
	renderCmd.Flags().StringArrayVar(&renderQueries, "query", nil, "SQL statement shown in the debug panel (repeatable)")
	rootCmd.AddCommand(renderCmd, blocksCmd)
}

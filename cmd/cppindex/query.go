package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/andreymedv/clang-index-mcp/internal/engine"
)

// queryCommand builds the index and answers one question about it. Each
// subcommand maps to one engine query.
func queryCommand() *cli.Command {
	jsonFlag := &cli.BoolFlag{Name: "json", Aliases: []string{"j"}, Usage: "Output as JSON"}

	withEngine := func(c *cli.Context, fn func(*engine.Engine) error) error {
		cfg, err := loadConfigWithOverrides(c)
		if err != nil {
			return err
		}
		eng, err := buildIndex(c.Context, cfg)
		if err != nil {
			return err
		}
		return fn(eng)
	}

	requireArg := func(c *cli.Context, usage string) (string, error) {
		if c.Args().Len() < 1 {
			return "", fmt.Errorf("usage: %s", usage)
		}
		return c.Args().Get(0), nil
	}

	return &cli.Command{
		Name:    "query",
		Aliases: []string{"q"},
		Usage:   "Query the index",
		Subcommands: []*cli.Command{
			{
				Name:  "symbol",
				Usage: "Show a symbol: cppindex query symbol <qualified-name>",
				Flags: []cli.Flag{jsonFlag},
				Action: func(c *cli.Context) error {
					name, err := requireArg(c, "cppindex query symbol <qualified-name>")
					if err != nil {
						return err
					}
					return withEngine(c, func(eng *engine.Engine) error {
						info, err := eng.GetSymbol(name)
						if err != nil {
							return err
						}
						if c.Bool("json") {
							return printJSON(info)
						}
						fmt.Printf("%s  %s", info.Name, info.Kind)
						if info.IsDefinition {
							fmt.Printf("  (defined at %s:%d)", info.DefLocation.File, info.DefLocation.Line)
						} else {
							fmt.Printf("  (declared at %s:%d)", info.Location.File, info.Location.Line)
						}
						fmt.Println()
						if info.Doc != nil && info.Doc.Brief != "" {
							fmt.Printf("  %s\n", info.Doc.Brief)
						}
						return nil
					})
				},
			},
			{
				Name:  "ancestors",
				Usage: "List base classes: cppindex query ancestors <class>",
				Flags: []cli.Flag{jsonFlag},
				Action: func(c *cli.Context) error {
					name, err := requireArg(c, "cppindex query ancestors <class>")
					if err != nil {
						return err
					}
					return withEngine(c, func(eng *engine.Engine) error {
						ancestors, err := eng.GetAncestors(name)
						if err != nil {
							return err
						}
						if c.Bool("json") {
							return printJSON(ancestors)
						}
						for _, a := range ancestors {
							virtual := ""
							if a.Virtual {
								virtual = " virtual"
							}
							ambiguous := ""
							if a.AmbiguousAccess {
								ambiguous = " (ambiguous)"
							}
							fmt.Printf("%*s%s%s %s%s\n", a.Depth*2, "", a.Access, virtual, a.Name, ambiguous)
						}
						return nil
					})
				},
			},
			{
				Name:  "derived",
				Usage: "List direct subclasses: cppindex query derived <class>",
				Flags: []cli.Flag{jsonFlag},
				Action: func(c *cli.Context) error {
					name, err := requireArg(c, "cppindex query derived <class>")
					if err != nil {
						return err
					}
					return withEngine(c, func(eng *engine.Engine) error {
						derived, err := eng.GetDerived(name)
						if err != nil {
							return err
						}
						if c.Bool("json") {
							return printJSON(derived)
						}
						for _, d := range derived {
							fmt.Println(d)
						}
						return nil
					})
				},
			},
			{
				Name:  "overriders",
				Usage: "List overriding classes: cppindex query overriders <class> <method>",
				Flags: []cli.Flag{jsonFlag},
				Action: func(c *cli.Context) error {
					if c.Args().Len() < 2 {
						return fmt.Errorf("usage: cppindex query overriders <class> <method>")
					}
					name, method := c.Args().Get(0), c.Args().Get(1)
					return withEngine(c, func(eng *engine.Engine) error {
						overriders, err := eng.GetOverriders(name, method)
						if err != nil {
							return err
						}
						if c.Bool("json") {
							return printJSON(overriders)
						}
						for _, o := range overriders {
							fmt.Println(o)
						}
						return nil
					})
				},
			},
			{
				Name:  "callsites",
				Usage: "List call edges: cppindex query callsites <function>",
				Flags: []cli.Flag{jsonFlag},
				Action: func(c *cli.Context) error {
					name, err := requireArg(c, "cppindex query callsites <function>")
					if err != nil {
						return err
					}
					return withEngine(c, func(eng *engine.Engine) error {
						incoming, outgoing, err := eng.GetCallSites(name)
						if err != nil {
							return err
						}
						if c.Bool("json") {
							return printJSON(map[string]interface{}{
								"incoming": incoming, "outgoing": outgoing,
							})
						}
						for _, site := range incoming {
							fmt.Printf("<- %s  [%s]  %s:%d\n", site.Caller, site.Kind, site.Location.File, site.Location.Line)
						}
						for _, site := range outgoing {
							callee := site.Callee
							if site.Indirect {
								callee = "(indirect)"
							}
							fmt.Printf("-> %s  [%s]  %s:%d\n", callee, site.Kind, site.Location.File, site.Location.Line)
						}
						return nil
					})
				},
			},
			{
				Name:  "doc",
				Usage: "Show documentation: cppindex query doc <qualified-name>",
				Flags: []cli.Flag{jsonFlag},
				Action: func(c *cli.Context) error {
					name, err := requireArg(c, "cppindex query doc <qualified-name>")
					if err != nil {
						return err
					}
					return withEngine(c, func(eng *engine.Engine) error {
						doc, err := eng.GetDocumentation(name)
						if err != nil {
							return err
						}
						if doc == nil {
							fmt.Println("(no documentation)")
							return nil
						}
						if c.Bool("json") {
							return printJSON(doc)
						}
						fmt.Println(doc.Text)
						return nil
					})
				},
			},
			{
				Name:  "alias",
				Usage: "Resolve an alias chain: cppindex query alias <qualified-name>",
				Flags: []cli.Flag{jsonFlag},
				Action: func(c *cli.Context) error {
					name, err := requireArg(c, "cppindex query alias <qualified-name>")
					if err != nil {
						return err
					}
					return withEngine(c, func(eng *engine.Engine) error {
						res, err := eng.ResolveAlias(name)
						if err != nil {
							return err
						}
						if c.Bool("json") {
							return printJSON(res)
						}
						fmt.Printf("%s -> %s  [%s]\n", name, res.Target, res.Status)
						return nil
					})
				},
			},
			{
				Name:  "search",
				Usage: "Search documentation: cppindex query search <words...>",
				Flags: []cli.Flag{
					jsonFlag,
					&cli.IntFlag{Name: "max", Aliases: []string{"m"}, Usage: "Maximum results", Value: 20},
				},
				Action: func(c *cli.Context) error {
					if c.Args().Len() < 1 {
						return fmt.Errorf("usage: cppindex query search <words...>")
					}
					query := ""
					for i := 0; i < c.Args().Len(); i++ {
						if i > 0 {
							query += " "
						}
						query += c.Args().Get(i)
					}
					return withEngine(c, func(eng *engine.Engine) error {
						hits, err := eng.SearchDocumentation(query, c.Int("max"))
						if err != nil {
							return err
						}
						if c.Bool("json") {
							return printJSON(hits)
						}
						for _, h := range hits {
							fmt.Printf("%s  [%s]  %s\n", h.Symbol, h.Kind, h.Brief)
						}
						return nil
					})
				},
			},
		},
	}
}

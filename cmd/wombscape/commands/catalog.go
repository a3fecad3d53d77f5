package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/haivivi/wombscape/pkg/catalog"
	"github.com/haivivi/wombscape/pkg/cli"
	"github.com/haivivi/wombscape/pkg/render"
)

var catalogQuery string

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Browse past renders",
	Long: `Browse past renders.

Every render is recorded with its parameters and levels. IDs may be
abbreviated to any unique prefix.

Examples:
  wombscape catalog list
  wombscape catalog list --query '.preset == "soft" and .anomalies == 0'
  wombscape catalog show 3f2a
  wombscape catalog prune 20`,
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List renders, oldest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCatalog(func(ctx context.Context, cat *catalog.Catalog) error {
			var (
				reports []*render.Report
				err     error
			)
			if catalogQuery != "" {
				reports, err = cat.Query(ctx, catalogQuery)
			} else {
				reports, err = cat.List(ctx)
			}
			if err != nil {
				return err
			}
			if outputJSON || outputFormat != "" {
				return outputResult(reports)
			}
			if len(reports) == 0 {
				fmt.Println("No renders")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tCREATED\tPRESET\tSEED\tDURATION\tPEAK\tTARGET")
			for _, r := range reports {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
					catalog.ShortID(r.ID),
					r.CreatedAt.Local().Format(time.DateTime),
					r.Preset,
					r.Seed,
					cli.FormatDuration(r.Duration),
					cli.FormatDB(r.PeakDB),
					r.Target,
				)
			}
			return w.Flush()
		})
	},
}

var catalogShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a render",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCatalog(func(ctx context.Context, cat *catalog.Catalog) error {
			r, err := cat.Get(ctx, args[0])
			if err != nil {
				return err
			}
			return outputCard(r, reportCard(r))
		})
	},
}

var catalogDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a render record (the WAV file is kept)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCatalog(func(ctx context.Context, cat *catalog.Catalog) error {
			r, err := cat.Delete(ctx, args[0])
			if err != nil {
				return err
			}
			cli.PrintSuccess("Render %s deleted", catalog.ShortID(r.ID))
			return nil
		})
	},
}

var catalogPruneCmd = &cobra.Command{
	Use:   "prune <keep>",
	Short: "Delete all but the newest <keep> render records",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var keep int
		if _, err := fmt.Sscan(args[0], &keep); err != nil || keep < 0 {
			return fmt.Errorf("invalid keep count %q", args[0])
		}
		return withCatalog(func(ctx context.Context, cat *catalog.Catalog) error {
			n, err := cat.Prune(ctx, keep)
			if err != nil {
				return err
			}
			cli.PrintSuccess("Pruned %d render(s)", n)
			return nil
		})
	},
}

func init() {
	catalogListCmd.Flags().StringVarP(&catalogQuery, "query", "q", "", "jq expression; keep renders where it is truthy")

	catalogCmd.AddCommand(catalogListCmd)
	catalogCmd.AddCommand(catalogShowCmd)
	catalogCmd.AddCommand(catalogDeleteCmd)
	catalogCmd.AddCommand(catalogPruneCmd)
}

func withCatalog(fn func(ctx context.Context, cat *catalog.Catalog) error) error {
	cliCtx, err := getContext()
	if err != nil {
		return err
	}
	cat, closeCatalog, err := openCatalog(cliCtx)
	if err != nil {
		return err
	}
	defer closeCatalog()
	return fn(context.Background(), cat)
}

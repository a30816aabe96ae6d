package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Jimmy-INL/critical-minerals-data-tools/internal/app"
	"github.com/Jimmy-INL/critical-minerals-data-tools/internal/config"
	"github.com/Jimmy-INL/critical-minerals-data-tools/internal/core"
	"github.com/Jimmy-INL/critical-minerals-data-tools/internal/export"
	"github.com/Jimmy-INL/critical-minerals-data-tools/internal/logging"
	"github.com/Jimmy-INL/critical-minerals-data-tools/internal/render"
)

// cli holds the state shared by every subcommand.
type cli struct {
	envFile string
	asJSON  bool

	cfg *config.Config
	svc *core.Service
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "mineralctl",
		Short: "Query critical mineral production statistics",
		Long: `mineralctl loads the configured USGS and BGS releases and the MRDS deposit
inventory, and answers the same questions as the HTTP API.

Sources are configured through the same environment variables as the server
(USGS_MCS_LOCAL_CSV, BGS_LOCAL_FILE, MRDS_LOCAL_CSV).`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
	}

	root.PersistentFlags().StringVar(&c.envFile, "env-file", "", "load environment from this file instead of .env")
	root.PersistentFlags().BoolVar(&c.asJSON, "json", false, "print JSON instead of Markdown")

	root.AddCommand(
		c.sourcesCmd(),
		c.commoditiesCmd(),
		c.countriesCmd(),
		c.searchCmd(),
		c.rankingCmd(),
		c.timeSeriesCmd(),
		c.compareCmd(),
		c.profileCmd(),
		c.depositsCmd(),
		c.exportCmd(),
	)
	return root
}

// setup loads configuration and builds the service. Logs go to stderr so
// stdout carries only the result.
func (c *cli) setup(cmd *cobra.Command, args []string) error {
	if c.envFile != "" {
		if err := godotenv.Overload(c.envFile); err != nil {
			return fmt.Errorf("load %s: %w", c.envFile, err)
		}
	} else {
		_ = godotenv.Overload()
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.SetupWriter(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)

	svc, err := app.NewService(cfg, nil)
	if err != nil {
		return err
	}
	c.cfg, c.svc = cfg, svc
	return nil
}

// print writes v as JSON or as the Markdown produced by md.
func (c *cli) print(w io.Writer, v any, md func() string) error {
	if c.asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	_, err := fmt.Fprint(w, md())
	return err
}

// checkRange rejects an inverted year range.
func checkRange(from, to int) error {
	if from != 0 && to != 0 && from > to {
		return fmt.Errorf("%w: --from %d is after --to %d", core.ErrInvalidParameter, from, to)
	}
	return nil
}

func (c *cli) sourcesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List the registered sources and whether they are configured",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			infos := c.svc.Sources()
			return c.print(cmd.OutOrStdout(), infos, func() string { return render.Sources(infos) })
		},
	}
}

func (c *cli) commoditiesCmd() *cobra.Command {
	var categorize bool
	cmd := &cobra.Command{
		Use:   "commodities SOURCE",
		Short: "List the commodities of a source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := c.svc.Commodities(cmd.Context(), args[0], categorize)
			if err != nil {
				return err
			}
			return c.print(cmd.OutOrStdout(), list, func() string { return render.Commodities(list) })
		},
	}
	cmd.Flags().BoolVar(&categorize, "categorize", false, "group commodities by category")
	return cmd
}

func (c *cli) countriesCmd() *cobra.Command {
	var commodity string
	cmd := &cobra.Command{
		Use:   "countries SOURCE",
		Short: "List the countries of a source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := c.svc.Countries(cmd.Context(), args[0], commodity)
			if err != nil {
				return err
			}
			return c.print(cmd.OutOrStdout(), list, func() string { return render.Countries(list, commodity) })
		},
	}
	cmd.Flags().StringVar(&commodity, "commodity", "", "only countries reporting this commodity")
	return cmd
}

func (c *cli) searchCmd() *cobra.Command {
	var q core.RecordsQuery
	cmd := &cobra.Command{
		Use:   "search SOURCE",
		Short: "Search raw observations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkRange(q.YearFrom, q.YearTo); err != nil {
				return err
			}
			if q.Limit == 0 {
				q.Limit = c.cfg.Query.RecordLimit
			}
			list, err := c.svc.Records(cmd.Context(), args[0], q)
			if err != nil {
				return err
			}
			return c.print(cmd.OutOrStdout(), list, func() string { return render.Records(list) })
		},
	}
	cmd.Flags().StringVar(&q.Commodity, "commodity", "", "commodity name")
	cmd.Flags().StringVar(&q.Country, "country", "", "country name, alias or ISO code")
	cmd.Flags().StringVar(&q.StatisticType, "statistic", "", "statistic type, such as Production or Imports")
	cmd.Flags().IntVar(&q.YearFrom, "from", 0, "first year")
	cmd.Flags().IntVar(&q.YearTo, "to", 0, "last year")
	cmd.Flags().IntVar(&q.Limit, "limit", 0, "maximum rows (default from QUERY_RECORD_LIMIT)")
	return cmd
}

func (c *cli) rankingCmd() *cobra.Command {
	var q core.RankingQuery
	cmd := &cobra.Command{
		Use:   "ranking SOURCE COMMODITY",
		Short: "Rank producing countries by quantity",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			def, err := c.svc.Definition(args[0])
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("top") {
				q.TopN = c.cfg.Query.DefaultTopN
				if def.DefaultTopN > 0 {
					q.TopN = def.DefaultTopN
				}
			}
			if q.StatisticType == "" {
				q.StatisticType = c.cfg.Query.DefaultStatistic
			}
			q.Commodity = args[1]

			res, err := c.svc.Ranking(cmd.Context(), args[0], q)
			if err != nil {
				return err
			}
			return c.print(cmd.OutOrStdout(), res, func() string { return render.Ranking(res) })
		},
	}
	cmd.Flags().IntVar(&q.Year, "year", 0, "year to rank (default latest)")
	cmd.Flags().StringVar(&q.StatisticType, "statistic", "", "statistic type (default from QUERY_DEFAULT_STATISTIC)")
	cmd.Flags().IntVar(&q.TopN, "top", 0, "number of countries, 0 for all (default per source)")
	return cmd
}

func (c *cli) timeSeriesCmd() *cobra.Command {
	var q core.TimeSeriesQuery
	cmd := &cobra.Command{
		Use:   "timeseries SOURCE COMMODITY",
		Short: "Show yearly quantities with year-over-year change",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkRange(q.YearFrom, q.YearTo); err != nil {
				return err
			}
			if q.StatisticType == "" {
				q.StatisticType = c.cfg.Query.DefaultStatistic
			}
			q.Commodity = args[1]

			res, err := c.svc.TimeSeries(cmd.Context(), args[0], q)
			if err != nil {
				return err
			}
			return c.print(cmd.OutOrStdout(), res, func() string { return render.TimeSeries(res) })
		},
	}
	cmd.Flags().StringVar(&q.Country, "country", "", "one country; all countries are summed when empty")
	cmd.Flags().StringVar(&q.StatisticType, "statistic", "", "statistic type")
	cmd.Flags().IntVar(&q.YearFrom, "from", 0, "first year")
	cmd.Flags().IntVar(&q.YearTo, "to", 0, "last year")
	return cmd
}

func (c *cli) compareCmd() *cobra.Command {
	var q core.CompareQuery
	cmd := &cobra.Command{
		Use:     "compare SOURCE COMMODITY COUNTRIES",
		Short:   "Compare yearly quantities across countries",
		Example: `  mineralctl compare usgs-mcs Lithium "Australia,Chile,China"`,
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkRange(q.YearFrom, q.YearTo); err != nil {
				return err
			}
			if q.StatisticType == "" {
				q.StatisticType = c.cfg.Query.DefaultStatistic
			}
			q.Commodity, q.Countries = args[1], args[2]

			res, err := c.svc.Compare(cmd.Context(), args[0], q)
			if err != nil {
				return err
			}
			return c.print(cmd.OutOrStdout(), res, func() string { return render.Compare(res) })
		},
	}
	cmd.Flags().StringVar(&q.StatisticType, "statistic", "", "statistic type")
	cmd.Flags().IntVar(&q.YearFrom, "from", 0, "first year")
	cmd.Flags().IntVar(&q.YearTo, "to", 0, "last year")
	return cmd
}

func (c *cli) profileCmd() *cobra.Command {
	var q core.ProfileQuery
	cmd := &cobra.Command{
		Use:   "profile SOURCE COUNTRY",
		Short: "Show a country's commodity mix",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("limit") {
				q.Limit = c.cfg.Query.ProfileLimit
			}
			if q.StatisticType == "" {
				q.StatisticType = c.cfg.Query.DefaultStatistic
			}
			q.Country = args[1]

			res, err := c.svc.Profile(cmd.Context(), args[0], q)
			if err != nil {
				return err
			}
			return c.print(cmd.OutOrStdout(), res, func() string { return render.Profile(res) })
		},
	}
	cmd.Flags().IntVar(&q.Year, "year", 0, "year (default latest for the country)")
	cmd.Flags().StringVar(&q.StatisticType, "statistic", "", "statistic type")
	cmd.Flags().IntVar(&q.Limit, "limit", 0, "maximum commodities, 0 for all")
	return cmd
}

func (c *cli) depositsCmd() *cobra.Command {
	var (
		source string
		q      core.DepositQuery
	)
	cmd := &cobra.Command{
		Use:   "deposits",
		Short: "Search mineral deposit locations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("limit") {
				q.Limit = c.cfg.Query.DepositLimit
			}
			if q.Limit <= 0 || q.Limit > c.cfg.Query.MaxDepositLimit {
				q.Limit = c.cfg.Query.MaxDepositLimit
			}
			list, err := c.svc.FindDeposits(cmd.Context(), source, q)
			if err != nil {
				return err
			}
			if list.CommodityIgnored {
				slog.Warn("no deposits matched the commodity; filter dropped", "commodity", q.Commodity)
			}
			return c.print(cmd.OutOrStdout(), list, func() string { return render.Deposits(list) })
		},
	}
	cmd.Flags().StringVar(&source, "source", "mrds", "deposit source")
	cmd.Flags().StringVar(&q.Commodity, "commodity", "", "commodity; only the first of a comma separated list is used")
	cmd.Flags().StringVar(&q.Country, "country", "", "country name, alias or ISO code")
	cmd.Flags().IntVar(&q.Limit, "limit", 0, "maximum deposits (default from QUERY_DEPOSIT_LIMIT)")
	return cmd
}

func (c *cli) exportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export SOURCE",
		Short: "Replace a source's rows in the Postgres export table",
		Long: `export loads SOURCE and copies its normalized observations into the table
named by DB_EXPORT_TABLE, replacing any rows from an earlier export of
the same source. DATABASE_URL must be set.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.cfg.RequireDatabase(); err != nil {
				return err
			}
			rel, err := c.svc.Relation(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			pool, err := export.NewPool(cmd.Context(), c.cfg.Database)
			if err != nil {
				return err
			}
			defer pool.Close()

			res, err := export.NewExporter(pool, c.cfg.Database.ExportTable).Export(cmd.Context(), rel)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d rows from %s (batch %s, replaced %d) in %s\n",
				res.Rows, res.Source, res.BatchID, res.Replaced, res.Duration.Round(time.Millisecond))
			return nil
		},
	}
}

// Package main is the itemshelf command-line client.
package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ymori/itemshelf/internal/client"
	"github.com/ymori/itemshelf/internal/config"
	"github.com/ymori/itemshelf/internal/form"
	"github.com/ymori/itemshelf/internal/lookup"
	"github.com/ymori/itemshelf/internal/manager"
	"github.com/ymori/itemshelf/internal/model"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// cliOptions carries the persistent flag values shared by all
// subcommands. Flag values override the environment configuration.
type cliOptions struct {
	backendURL string
	apiKey     string
	logLevel   string

	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	opts := &cliOptions{}

	root := &cobra.Command{
		Use:           "shelfctl",
		Short:         "Manage an itemshelf collection from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("loading configuration: %w", err)
			}
			if opts.backendURL != "" {
				cfg.BackendURL = opts.backendURL
			}
			if opts.apiKey != "" {
				cfg.APIKey = opts.apiKey
			}
			if opts.logLevel != "" {
				cfg.LogLevel = opts.logLevel
			}
			opts.cfg = cfg
			return nil
		},
	}

	root.PersistentFlags().StringVar(&opts.backendURL, "backend-url", "", "base URL of the itemshelf API server")
	root.PersistentFlags().StringVar(&opts.apiKey, "api-key", "", "API key sent with every request")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(
		newListCmd(opts),
		newAddCmd(opts),
		newSearchCmd(opts),
		newRateCmd(opts),
		newSetCmd(opts),
		newDeleteCmd(opts),
		newLookupCmd(opts),
	)

	return root
}

// newLogger builds a console logger at the configured level.
func newLogger(opts *cliOptions) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(opts.cfg.LogLevel)); err != nil {
		level = zapcore.InfoLevel
	}

	zapConfig := zap.NewProductionConfig()
	zapConfig.Level = zap.NewAtomicLevelAt(level)
	zapConfig.OutputPaths = []string{"stderr"}

	return zapConfig.Build()
}

// newManager builds the store client and manager from the options.
func newManager(opts *cliOptions, logger *zap.Logger) *manager.Manager {
	var clientOpts []client.Option
	if opts.cfg.APIKey != "" {
		clientOpts = append(clientOpts, client.WithAPIKey(opts.cfg.APIKey))
	}

	storeClient := client.New(opts.cfg.BackendURL, logger, clientOpts...)
	return manager.New(storeClient, logger)
}

// runAction initializes the manager, applies the request if one is
// given, and prints the resulting display list.
func runAction(cmd *cobra.Command, opts *cliOptions, req form.Request) error {
	logger, err := newLogger(opts)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	m := newManager(opts, logger)

	ctx := cmd.Context()
	if err := m.Init(ctx); err != nil {
		return fmt.Errorf("loading items: %w", err)
	}

	if req != nil {
		if err := m.Apply(ctx, form.Encode(req)); err != nil {
			return err
		}
	}

	printItems(cmd.OutOrStdout(), m.Display())
	return nil
}

// printItems writes the display list as an aligned table.
func printItems(out io.Writer, items []model.Item) {
	w := tabwriter.NewWriter(out, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tAUTHOR\tFORMAT\tPOINT")
	for _, item := range items {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\n",
			item.ID,
			item.Title,
			deref(item.Author),
			deref(item.Format),
			item.Point,
		)
	}
	_ = w.Flush()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func newListCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all items, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAction(cmd, opts, nil)
		},
	}
}

func newAddCmd(opts *cliOptions) *cobra.Command {
	var author, image, format string

	cmd := &cobra.Command{
		Use:   "add TITLE",
		Short: "Add a new item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAction(cmd, opts, form.Add{
				Title:  args[0],
				Author: author,
				Image:  image,
				Format: format,
			})
		},
	}

	cmd.Flags().StringVar(&author, "author", "", "item author")
	cmd.Flags().StringVar(&image, "image", "", "cover image URL")
	cmd.Flags().StringVar(&format, "format", "", "physical format")

	return cmd
}

func newSearchCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "search [KEYWORD]",
		Short: "List items matching a keyword; no keyword clears the filter",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return runAction(cmd, opts, form.SearchReset{})
			}
			return runAction(cmd, opts, form.Search{Keyword: args[0]})
		},
	}
}

func newRateCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rate ID POINT",
		Short: "Set an item's rating (0-5)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAction(cmd, opts, form.UpdatePoint{
				ID:    args[0],
				Point: args[1],
			})
		},
	}
}

func newSetCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set ID FIELD VALUE",
		Short: "Set one item field (title, author, image, format)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAction(cmd, opts, form.UpdateField{
				ID:    args[0],
				Field: args[1],
				Value: args[2],
			})
		},
	}
}

func newDeleteCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAction(cmd, opts, form.Delete{ID: args[0]})
		},
	}
}

func newLookupCmd(opts *cliOptions) *cobra.Command {
	var addItem bool

	cmd := &cobra.Command{
		Use:   "lookup {isbn|upc} CODE",
		Short: "Look up item metadata by barcode",
		Long: "Look up item metadata by ISBN (book catalog) or UPC " +
			"(Discogs). With --add the result is inserted as a new item.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(opts)
			if err != nil {
				return fmt.Errorf("initializing logger: %w", err)
			}
			defer func() {
				_ = logger.Sync()
			}()

			ctx := cmd.Context()

			var meta *lookup.Metadata
			switch args[0] {
			case "isbn":
				meta, err = lookup.NewBooksClient(logger).LookupISBN(ctx, args[1])
			case "upc":
				meta, err = lookup.NewDiscogsClient(opts.cfg.DiscogsToken, logger).LookupUPC(ctx, args[1])
			default:
				return fmt.Errorf("unknown code type %q, want isbn or upc", args[0])
			}
			if err != nil {
				return err
			}

			if addItem {
				return runAction(cmd, opts, form.Add{
					Title:  meta.Title,
					Author: meta.Author,
					Image:  meta.Image,
					Format: meta.Format,
				})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Title:  %s\n", meta.Title)
			fmt.Fprintf(out, "Author: %s\n", meta.Author)
			fmt.Fprintf(out, "Image:  %s\n", meta.Image)
			fmt.Fprintf(out, "Format: %s\n", meta.Format)
			return nil
		},
	}

	cmd.Flags().BoolVar(&addItem, "add", false, "add the looked-up item to the shelf")

	return cmd
}

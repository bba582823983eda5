package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"budget/internal/core"
	"budget/internal/ports"
	"budget/internal/services"
	"budget/internal/storage"
)

// App carries what budgetctl commands need; tests swap OpenStore and Now.
type App struct {
	Out       io.Writer
	DBPath    string
	Now       func() time.Time
	OpenStore func(ctx context.Context, dbPath string) (ports.Store, func() error, error)
	Migrator  Migrator
}

// Migrator runs schema migrations against a database file.
type Migrator interface {
	Up(dbPath string) error
	Down(dbPath string, steps int) error
	Version(dbPath string) (uint, bool, error)
}

type sqliteMigrator struct{}

func (sqliteMigrator) Up(dbPath string) error { return storage.RunMigrations(dbPath) }

func (sqliteMigrator) Down(dbPath string, steps int) error {
	return storage.RollbackMigrations(dbPath, steps)
}

func (sqliteMigrator) Version(dbPath string) (uint, bool, error) {
	return storage.MigrationVersion(dbPath)
}

// NewApp returns an App backed by the SQLite database at dbPath.
func NewApp(out io.Writer, dbPath string) *App {
	return &App{
		Out:    out,
		DBPath: dbPath,
		Now:    time.Now,
		OpenStore: func(_ context.Context, path string) (ports.Store, func() error, error) {
			repo, err := storage.NewSQLiteRepository(path)
			if err != nil {
				return nil, nil, err
			}
			return repo, repo.Close, nil
		},
		Migrator: sqliteMigrator{},
	}
}

// NewRootCommand builds the budgetctl command tree.
func NewRootCommand(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "budgetctl",
		Short:         "Inspect installment plans and household spending",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(app.Out)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return invalidInput(err)
	})
	root.PersistentFlags().StringVar(&app.DBPath, "db", app.DBPath, "SQLite database path")

	root.AddCommand(
		newProgressCommand(app),
		newTotalCommand(app),
		newAddCommand(app),
		newMigrateCommand(app),
	)
	return root
}

func (a *App) withStore(ctx context.Context, fn func(ports.Store) error) error {
	store, closeFn, err := a.OpenStore(ctx, a.DBPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() { _ = closeFn() }()
	return fn(store)
}

// monthFlag resolves --month, defaulting to the current month.
func (a *App) monthFlag(v string) (core.YearMonth, error) {
	if v == "" {
		return core.YearMonthOf(a.Now()), nil
	}
	ym, err := core.ParseYearMonth(v)
	if err != nil {
		return core.YearMonth{}, invalidInput(err)
	}
	return ym, nil
}

// invalidInput marks err as bad user input so ExitCode reports 2.
func invalidInput(err error) error {
	return fmt.Errorf("%w: %w", services.ErrValidation, err)
}

// checkedArgs wraps a positional argument validator so its errors count
// as invalid input.
func checkedArgs(fn cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := fn(cmd, args); err != nil {
			return invalidInput(err)
		}
		return nil
	}
}

// requireFlags reports every named flag that was not set on cmd.
func requireFlags(cmd *cobra.Command, names ...string) error {
	var missing []string
	for _, name := range names {
		if !cmd.Flags().Changed(name) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return invalidInput(fmt.Errorf("required flag(s) %q not set", missing))
	}
	return nil
}

func newProgressCommand(app *App) *cobra.Command {
	var month string
	cmd := &cobra.Command{
		Use:   "progress [id]",
		Short: "Show how far each installment plan has been paid",
		Args:  checkedArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			ym, err := app.monthFlag(month)
			if err != nil {
				return err
			}
			return app.withStore(cmd.Context(), func(store ports.Store) error {
				svc := services.NewInstallmentService(store)
				ref := ym.FirstDay().Time

				var results []services.InstallmentProgress
				if len(args) == 1 {
					ip, err := svc.Progress(cmd.Context(), args[0], ref)
					if err != nil {
						return err
					}
					results = append(results, ip)
				} else if results, err = svc.ProgressAll(cmd.Context(), ref); err != nil {
					return err
				}
				app.printProgress(ym, results)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&month, "month", "m", "", "Reference month (YYYY-MM), defaults to the current month")
	return cmd
}

func (a *App) printProgress(ym core.YearMonth, results []services.InstallmentProgress) {
	fmt.Fprintln(a.Out, RenderTitle("INSTALLMENTS  "+ym.String()))
	if len(results) == 0 {
		fmt.Fprintln(a.Out, mutedStyle.Render("  No installment plans."))
		return
	}

	rows := make([][]string, 0, len(results))
	for _, ip := range results {
		total := "-"
		if ip.Payment.TotalAmount.Valid {
			total = ip.Payment.TotalAmount.Decimal.StringFixed(2)
		}
		rows = append(rows, []string{
			ip.Payment.Description,
			total,
			ip.Progress.MonthlyInstallment.StringFixed(2),
			fmt.Sprintf("%d/%d", ip.Progress.MonthsElapsed, ip.Payment.InstallmentCount),
			RenderProgressBar(ip.Progress.PercentComplete, 10) + " " + strconv.FormatFloat(ip.Progress.PercentComplete, 'f', 1, 64) + "%",
			ip.Progress.RemainingAmount.StringFixed(2),
		})
	}
	fmt.Fprint(a.Out, RenderTable(Table{
		Headers: []string{"Description", "Total", "Monthly", "Paid", "Progress", "Remaining"},
		Rows:    rows,
	}))
}

func newTotalCommand(app *App) *cobra.Command {
	var month string
	cmd := &cobra.Command{
		Use:   "total",
		Short: "Sum the installments due in a month",
		Args:  checkedArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			ym, err := app.monthFlag(month)
			if err != nil {
				return err
			}
			return app.withStore(cmd.Context(), func(store ports.Store) error {
				total, err := services.NewInstallmentService(store).MonthTotal(cmd.Context(), ym)
				if err != nil {
					return err
				}
				fmt.Fprintf(app.Out, "%s %s\n", headerStyle.Render(ym.String()), valueStyle.Render(core.MoneyFromDecimal(total).String()))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&month, "month", "m", "", "Month (YYYY-MM), defaults to the current month")
	return cmd
}

func newAddCommand(app *App) *cobra.Command {
	var (
		description string
		category    string
		total       string
		count       int
		start       string
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a new installment plan",
		Args:  checkedArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := requireFlags(cmd, "description", "total", "count"); err != nil {
				return err
			}
			amount, err := core.ParseAmount(total)
			if err != nil {
				return invalidInput(fmt.Errorf("total: %w", err))
			}
			startMonth, err := app.monthFlag(start)
			if err != nil {
				return fmt.Errorf("start: %w", err)
			}
			p := core.NewInstallmentPayment(description, amount, count, startMonth)
			p.Category = category

			return app.withStore(cmd.Context(), func(store ports.Store) error {
				created, err := services.NewInstallmentService(store).Create(cmd.Context(), p)
				if err != nil {
					return err
				}
				fmt.Fprintf(app.Out, "Created %s: %s x %d from %s\n",
					created.ID,
					created.MonthlyInstallment().StringFixed(2),
					created.InstallmentCount,
					created.StartMonth)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "What was bought (required)")
	cmd.Flags().StringVarP(&category, "category", "c", "", "Spending category")
	cmd.Flags().StringVarP(&total, "total", "t", "", "Total amount, e.g. 1200 or 1199,90 (required)")
	cmd.Flags().IntVarP(&count, "count", "n", 0, "Number of monthly installments (required)")
	cmd.Flags().StringVarP(&start, "start", "s", "", "First installment month (YYYY-MM), defaults to the current month")
	return cmd
}

func newMigrateCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  checkedArgs(cobra.NoArgs),
		RunE: func(*cobra.Command, []string) error {
			if err := app.Migrator.Up(app.DBPath); err != nil {
				return err
			}
			return app.printVersion()
		},
	})

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Revert applied migrations",
		Args:  checkedArgs(cobra.NoArgs),
		RunE: func(*cobra.Command, []string) error {
			if steps < 1 {
				return invalidInput(fmt.Errorf("--steps must be at least 1, got %d", steps))
			}
			if err := app.Migrator.Down(app.DBPath, steps); err != nil {
				return err
			}
			return app.printVersion()
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "Number of migrations to revert")
	cmd.AddCommand(down)

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the applied schema version",
		Args:  checkedArgs(cobra.NoArgs),
		RunE: func(*cobra.Command, []string) error {
			return app.printVersion()
		},
	})
	return cmd
}

func (a *App) printVersion() error {
	version, dirty, err := a.Migrator.Version(a.DBPath)
	if err != nil {
		return err
	}
	state := doneStyle.Render("clean")
	if dirty {
		state = pendingStyle.Render("dirty")
	}
	fmt.Fprintf(a.Out, "schema version %d (%s)\n", version, state)
	return nil
}

// ExitCode maps command errors to process exit codes: 2 for invalid input,
// 1 otherwise.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, services.ErrValidation):
		return 2
	default:
		return 1
	}
}

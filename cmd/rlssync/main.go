package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tenantkit/tenantkit/pkg/config"
	"github.com/tenantkit/tenantkit/pkg/isolation"
	"github.com/tenantkit/tenantkit/pkg/logger"
	"github.com/tenantkit/tenantkit/pkg/pg"
	"github.com/tenantkit/tenantkit/pkg/rlssync"
)

var (
	applyFlag    bool
	forceFlag    bool
	entitiesPath string
)

var rootCmd = &cobra.Command{
	Use:   "rlssync",
	Short: "Synchronize row-level security policies for tenant-aware tables",
	Long: `rlssync reads the entity metadata catalog and the live database catalog,
then generates the idempotent DDL needed to enable row security and create
one policy per tenant-aware table. Default mode is dry-run: statements are
printed, nothing is executed.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	rootCmd.Flags().BoolVar(&applyFlag, "apply", false, "execute the generated statements (default: dry-run)")
	rootCmd.Flags().BoolVar(&forceFlag, "force", false, "drop and recreate policies that already exist")
	rootCmd.Flags().StringVar(&entitiesPath, "entities", "entities.yaml", "path to the entity catalog declaration file")
}

func run(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	log := logger.New(logger.WithFormat(logger.FormatText))

	catalog, err := isolation.LoadCatalogFile(entitiesPath)
	if err != nil {
		return err
	}

	var pgCfg pg.Config
	if err := config.Load(&pgCfg); err != nil {
		return err
	}
	var rlsCfg rlssync.Config
	if err := config.Load(&rlsCfg); err != nil {
		return err
	}

	pool, err := pg.Connect(ctx, pgCfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	sync := rlssync.New(pool, catalog,
		rlssync.WithPolicyPrefix(rlsCfg.PolicyPrefix),
		rlssync.WithSessionVariable(rlsCfg.SessionVariable),
		rlssync.WithForce(forceFlag),
		rlssync.WithLogger(log),
	)

	if !applyFlag {
		stmts, err := sync.Plan(ctx)
		if err != nil {
			return err
		}
		if len(stmts) == 0 {
			fmt.Println("-- nothing to do")
			return nil
		}
		for _, st := range stmts {
			fmt.Println(st.SQL + ";")
		}
		return nil
	}

	applied, err := sync.Apply(ctx)
	if err != nil {
		var applyErr *rlssync.ApplyError
		if errors.As(err, &applyErr) {
			fmt.Fprintf(os.Stderr, "failed statement: %s\nengine error: %v\n%d statements were applied before the failure and remain applied\n",
				applyErr.SQL, applyErr.Err, len(applied))
		}
		return err
	}
	fmt.Printf("applied %d statements\n", len(applied))
	return nil
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "rlssync:", err)
		os.Exit(1)
	}
}

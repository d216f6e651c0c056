package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/m-mizutani/drover/pkg/cli/config"
	"github.com/m-mizutani/drover/pkg/domain/model"
	"github.com/m-mizutani/drover/pkg/domain/types"
)

// runLister is implemented by history sources that can enumerate runs
type runLister interface {
	List(ctx context.Context, limit int) ([]*model.RunRecord, error)
}

func cmdHistory() *cli.Command {
	var (
		historyCfg config.History
		limit      int
		runID      string
	)

	flags := append(historyCfg.SourceFlags(),
		&cli.IntFlag{
			Name:        "limit",
			Usage:       "Number of runs to show",
			Value:       20,
			Destination: &limit,
		},
		&cli.StringFlag{
			Name:        "run-id",
			Usage:       "Show the jobs of a single run",
			Destination: &runID,
		},
	)

	return &cli.Command{
		Name:  "history",
		Usage: "Show past runs stored in run history",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			w := c.Root().Writer

			if runID == "" && historyCfg.Source != "" && historyCfg.Source != config.HistorySourceSQLite {
				return goerr.New("--run-id is required unless --source is sqlite",
					goerr.V("source", historyCfg.Source),
					goerr.T(types.ErrTagConfig))
			}

			store, err := historyCfg.Store(ctx)
			if err != nil {
				return err
			}
			defer func() {
				_ = store.Close()
			}()

			if runID != "" {
				rec, err := store.Get(ctx, runID)
				if err != nil {
					return err
				}
				if rec == nil {
					_, _ = headerColor.Fprintf(w, "run %s not found\n", runID)
					return nil
				}
				printRunRecord(w, rec)
				return nil
			}

			lister, ok := store.(runLister)
			if !ok {
				return goerr.New("history source cannot list runs", goerr.V("source", historyCfg.Source), goerr.T(types.ErrTagConfig))
			}
			records, err := lister.List(ctx, limit)
			if err != nil {
				return err
			}
			for _, rec := range records {
				printRunSummary(w, rec)
			}
			return nil
		},
	}
}

func printRunSummary(w io.Writer, rec *model.RunRecord) {
	line := fmt.Sprintf("%s  %s  %-12s %s%s", rec.StartedAt.Local().Format(time.DateTime), rec.RunID, rec.EventKind, rec.Branch, rec.HeadRef)
	if rec.Succeeded {
		_, _ = successColor.Fprintln(w, line)
	} else {
		_, _ = failureColor.Fprintln(w, line)
	}
}

func printRunRecord(w io.Writer, rec *model.RunRecord) {
	printRunSummary(w, rec)
	for _, j := range rec.Jobs {
		line := fmt.Sprintf("  %s: %s (attempts %d)", j.ArtifactID, j.Status, j.Attempts)
		if j.Error != "" {
			line = fmt.Sprintf("  %s: %s: %s: %s (attempts %d)", j.ArtifactID, j.Status, j.ErrorKind, j.Error, j.Attempts)
		}
		_, _ = fmt.Fprintln(w, line)
	}
}

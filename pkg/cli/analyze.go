package cli

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/devmon-lab/chreos/pkg/cli/config"
	"github.com/devmon-lab/chreos/pkg/domain/types"
	"github.com/devmon-lab/chreos/pkg/usecase"
)

func cmdAnalyze() *cli.Command {
	var (
		firestoreCfg config.Firestore
		areasCfg     config.Areas

		org   string
		area  string
		asOf  string
		store bool
	)

	flags := joinFlags(
		firestoreCfg.Flags(),
		areasCfg.Flags(),
		[]cli.Flag{
			&cli.StringFlag{
				Name:        "org",
				Usage:       "Organization to analyze",
				Required:    true,
				Sources:     cli.EnvVars("CHREOS_ORG"),
				Destination: &org,
			},
			&cli.StringFlag{
				Name:        "area",
				Usage:       "Analyze a single product area instead of the whole organization",
				Destination: &area,
			},
			&cli.StringFlag{
				Name:        "as-of",
				Usage:       "Reference time for the analysis (RFC3339 or YYYY-MM-DD, default now)",
				Destination: &asOf,
			},
			&cli.BoolFlag{
				Name:        "store",
				Usage:       "Persist the computed results as history rows",
				Destination: &store,
			},
		},
	)

	return &cli.Command{
		Name:  "analyze",
		Usage: "Run a one-shot technical debt analysis and print JSON to stdout",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := ctxlog.From(ctx)

			repo, err := firestoreCfg.Configure(ctx)
			if err != nil {
				return err
			}
			defer repo.Close()

			ingestUC := usecase.NewIngest(repo)
			debtUC := usecase.NewTechnicalDebt(repo)

			catalog, err := areasCfg.LoadOptional(logger)
			if err != nil {
				return err
			}
			if catalog != nil {
				if err := ingestUC.SeedAreas(ctx, catalog); err != nil {
					return err
				}
			}

			reference, err := parseReferenceTime(asOf)
			if err != nil {
				return err
			}

			var output any
			switch {
			case area != "":
				result, err := debtUC.CalculateTechnicalDebtAt(ctx, types.OrgID(org), types.AreaID(area), reference)
				if err != nil {
					return err
				}
				if store {
					if _, err := debtUC.StoreAnalysis(ctx, result); err != nil {
						return err
					}
				}
				output = result

			case store:
				analyses, err := debtUC.RunOrganizationAnalysis(ctx, types.OrgID(org), true)
				if err != nil {
					return err
				}
				output = analyses

			default:
				results, err := debtUC.CalculateOrganizationTechnicalDebt(ctx, types.OrgID(org))
				if err != nil {
					return err
				}
				output = results
			}

			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(output); err != nil {
				return goerr.Wrap(err, "failed to encode analysis output")
			}

			return nil
		},
	}
}

// parseReferenceTime parses the --as-of value, defaulting to now
func parseReferenceTime(value string) (time.Time, error) {
	if value == "" {
		return time.Now(), nil
	}

	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}

	return time.Time{}, goerr.New("invalid as-of time", goerr.V("value", value))
}

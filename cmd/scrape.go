package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/JakeFAU/election-results-scraper/internal/output"
	"github.com/JakeFAU/election-results-scraper/internal/pipeline"
	"github.com/JakeFAU/election-results-scraper/internal/scope"
	"github.com/JakeFAU/election-results-scraper/internal/walker"
)

const finishedMessage = "Scraping finished. File saved."

// prompter asks for a missing value. Tests replace it.
var prompter = func(message, help string) (string, error) {
	var answer string
	err := survey.AskOne(&survey.Input{Message: message, Help: help}, &answer)
	return strings.TrimSpace(answer), err
}

func newScrapeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Scrapes one election into a result file",
	}
	cmd.AddCommand(newMunicipalesCmd(), newLegislativesCmd())
	return cmd
}

func newMunicipalesCmd() *cobra.Command {
	var department, name string
	cmd := &cobra.Command{
		Use:   "municipales",
		Short: "Scrapes the 2020 municipal results of one department",
		Example: `  elections scrape municipales --department 69 --output rhone
  elections scrape municipales --department 2A --output corse-du-sud`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if department == "" {
				department, err = prompter("Enter the number of the department to retrieve, e.g. 75:",
					"Metropolitan departments 1 to 95 (2A and 2B for Corsica), overseas 971 to 976 and 988.")
				if err != nil {
					return err
				}
			}
			if name, err = askName(name); err != nil {
				return err
			}

			dep, err := scope.ParseDepartment(department)
			if err != nil {
				fmt.Fprintln(out, "The department number is incorrect.")
				return nil
			}
			if err := scope.ValidateFileName(name); err != nil {
				fmt.Fprintln(out, "Incorrect file name.")
				return nil
			}

			h, err := appInstance.MunicipalHierarchy()
			if err != nil {
				return err
			}
			root, err := dep.RootURL(appInstance.Config().Municipales.BaseURL)
			if err != nil {
				return err
			}
			return run(cmd.Context(), out, appInstance.Runner(), pipeline.Job{
				Hierarchy: h,
				RootURL:   root,
				Entity:    dep.IsParis(),
				Target:    dep.Code,
				Name:      name,
			})
		},
	}
	cmd.Flags().StringVarP(&department, "department", "d", "", "department code, e.g. 69 or 2A")
	cmd.Flags().StringVarP(&name, "output", "o", "", "base name of the result file, without extension")
	return cmd
}

func newLegislativesCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:     "legislatives",
		Short:   "Scrapes the legislative results of every district",
		Example: `  elections scrape legislatives --output legislatives`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if name, err = askName(name); err != nil {
				return err
			}
			if err := scope.ValidateFileName(name); err != nil {
				fmt.Fprintln(out, "Incorrect file name.")
				return nil
			}
			return run(cmd.Context(), out, appInstance.Runner(), pipeline.Job{
				Hierarchy: walker.Districts(),
				RootURL:   appInstance.Config().Legislatives.IndexURL,
				Name:      name,
			})
		},
	}
	cmd.Flags().StringVarP(&name, "output", "o", "", "base name of the result file, without extension")
	return cmd
}

func askName(name string) (string, error) {
	if name != "" {
		return name, nil
	}
	return prompter("Under what name do you want to save the result?",
		"Letters, digits, underscores and hyphens only. The extension is added for you.")
}

func run(ctx context.Context, out io.Writer, runner Runner, job pipeline.Job) error {
	summary, err := runner.Run(ctx, job)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return fmt.Errorf("scrape interrupted: %w", err)
		}
		return fmt.Errorf("scrape %s: %w", job.Hierarchy.Name, err)
	}
	if summary.Dataset != nil {
		output.RenderSummary(out, summary.Dataset, summary.Records)
	}
	fmt.Fprintf(out, "%s %s\n", finishedMessage, summary.Output)
	return nil
}

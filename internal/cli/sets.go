package cli

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"trivia-client/internal/domain"
)

// NewSetsCmd groups the trivia-set content commands.
func NewSetsCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sets",
		Short: "Browse and author trivia sets",
	}
	cmd.AddCommand(newSetsListCmd(configPath), newSetsShowCmd(configPath), newSetsCreateCmd(configPath))
	return cmd
}

func newSetsListCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List public trivia sets",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, cleanup, err := contentDeps(cmd, *configPath)
			if err != nil {
				return err
			}
			defer cleanup()

			sets, err := d.content.ListSets(cmd.Context())
			if err != nil {
				return err
			}
			printSets(cmd.OutOrStdout(), sets)
			return nil
		},
	}
}

func newSetsShowCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one trivia set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, cleanup, err := contentDeps(cmd, *configPath)
			if err != nil {
				return err
			}
			defer cleanup()

			set, err := d.sets.GetSet(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printSet(cmd.OutOrStdout(), set)
			return nil
		},
	}
}

func newSetsCreateCmd(configPath *string) *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a trivia set from a YAML file",
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := readCreateSet(path)
			if err != nil {
				return err
			}
			if err := in.Validate(); err != nil {
				return err
			}
			d, cleanup, err := contentDeps(cmd, *configPath)
			if err != nil {
				return err
			}
			defer cleanup()

			set, err := d.content.CreateSet(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s)\n", set.ID, set.Name)
			return nil
		},
	}
	cmd.Flags().StringVarP(&path, "file", "f", "", "YAML file describing the set")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func contentDeps(cmd *cobra.Command, configPath string) (*deps, func(), error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}
	return buildDeps(cmd.Context(), cfg)
}

func readCreateSet(path string) (domain.CreateTriviaSet, error) {
	var in domain.CreateTriviaSet
	data, err := os.ReadFile(path)
	if err != nil {
		return in, err
	}
	if err := yaml.Unmarshal(data, &in); err != nil {
		return in, fmt.Errorf("parse %s: %w", path, err)
	}
	return in, nil
}

func printSets(w io.Writer, sets []domain.TriviaSet) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tDIFFICULTY\tQUESTIONS")
	for _, s := range sets {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n", s.ID, s.Name, s.Category, s.Difficulty, len(s.Questions))
	}
	_ = tw.Flush()
}

func printSet(w io.Writer, s domain.TriviaSet) {
	fmt.Fprintf(w, "%s (%s, %s)\n", s.Name, s.Category, s.Difficulty)
	if s.Description != "" {
		fmt.Fprintln(w, s.Description)
	}
	for i, q := range s.Questions {
		fmt.Fprintf(w, "\n%d. %s\n", i+1, q.Question)
		for j, a := range q.Answers {
			marker := " "
			if j == q.CorrectAnswer {
				marker = "*"
			}
			fmt.Fprintf(w, "  %s %d) %s\n", marker, j+1, a)
		}
	}
}

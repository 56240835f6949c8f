package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/brogergvhs/yandanshe/internal/config"
	"github.com/brogergvhs/yandanshe/internal/library"

	"github.com/spf13/cobra"
)

var libraryCmd = &cobra.Command{
	Use:   "library",
	Short: "Follow titles and check them for new chapters",
}

func init() {
	libraryCmd.AddCommand(
		&cobra.Command{
			Use:   "add <id|url>",
			Short: "Follow a title",
			Args:  cobra.ExactArgs(1),
			RunE:  runLibraryAdd,
		},
		&cobra.Command{
			Use:   "list",
			Short: "List followed titles",
			Args:  cobra.NoArgs,
			RunE:  runLibraryList,
		},
		&cobra.Command{
			Use:   "remove <id>",
			Short: "Stop following a title",
			Args:  cobra.ExactArgs(1),
			RunE:  runLibraryRemove,
		},
		&cobra.Command{
			Use:   "check",
			Short: "Look for chapters newer than the last check",
			Args:  cobra.NoArgs,
			RunE:  runLibraryCheck,
		},
	)

	rootCmd.AddCommand(libraryCmd)
}

func openLibrary(cmd *cobra.Command) (*session, *library.DB, error) {
	s, err := newSession(cmd, config.Options{})
	if err != nil {
		return nil, nil, err
	}

	lib, err := library.Open(s.cfg.LibraryPath)
	if err != nil {
		return nil, nil, err
	}
	s.log.Debugf("library: %s\n", lib.Path())

	return s, lib, nil
}

func runLibraryAdd(cmd *cobra.Command, args []string) error {
	s, lib, err := openLibrary(cmd)
	if err != nil {
		return err
	}
	defer func() {
		_ = lib.Close()
	}()

	ctx := commandContext(cmd)
	m, _, err := resolveTarget(ctx, s, args[0])
	if err != nil {
		return err
	}

	if err := lib.Add(ctx, *m); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Following %s (%s)\n", m.Title, m.ID)
	return nil
}

func runLibraryList(cmd *cobra.Command, _ []string) error {
	_, lib, err := openLibrary(cmd)
	if err != nil {
		return err
	}
	defer func() {
		_ = lib.Close()
	}()

	entries, err := lib.List(commandContext(cmd))
	if err != nil {
		return err
	}

	return emit(cmd.OutOrStdout(), entries, func(out io.Writer) {
		w := tabwriter.NewWriter(out, 0, 0, 4, ' ', 0)
		_, _ = fmt.Fprintln(w, "ID\tTITLE\tSTATUS\tLAST")
		for _, e := range entries {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%g\n", e.ID, e.Title, e.Status, e.LastChapter)
		}
		_ = w.Flush()
	})
}

func runLibraryRemove(cmd *cobra.Command, args []string) error {
	_, lib, err := openLibrary(cmd)
	if err != nil {
		return err
	}
	defer func() {
		_ = lib.Close()
	}()

	if err := lib.Remove(commandContext(cmd), args[0]); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
	return nil
}

type checkResult struct {
	ID       string  `yaml:"id"`
	Title    string  `yaml:"title"`
	Previous float64 `yaml:"previous"`
	Latest   float64 `yaml:"latest"`
}

func runLibraryCheck(cmd *cobra.Command, _ []string) error {
	s, lib, err := openLibrary(cmd)
	if err != nil {
		return err
	}
	defer func() {
		_ = lib.Close()
	}()

	ctx := commandContext(cmd)
	entries, err := lib.List(ctx)
	if err != nil {
		return err
	}

	var updates []checkResult
	for _, e := range entries {
		list, err := s.src.GetChapterList(ctx, e.ID)
		if err != nil {
			s.log.Warnf("%s: %v\n", e.ID, err)
			continue
		}

		// Newest first.
		latest := 0.0
		if len(list) > 0 {
			latest = list[0].Number
		}

		if latest > e.LastChapter {
			updates = append(updates, checkResult{ID: e.ID, Title: e.Title, Previous: e.LastChapter, Latest: latest})
		}

		if err := lib.MarkChecked(ctx, e.ID, latest); err != nil {
			return err
		}
	}

	return emit(cmd.OutOrStdout(), updates, func(w io.Writer) {
		if len(updates) == 0 {
			_, _ = fmt.Fprintln(w, "No new chapters.")
			return
		}
		for _, u := range updates {
			_, _ = fmt.Fprintf(w, "%s (%s): %g -> %g\n", u.Title, u.ID, u.Previous, u.Latest)
		}
	})
}

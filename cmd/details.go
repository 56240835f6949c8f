package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/brogergvhs/yandanshe/internal/config"
	"github.com/brogergvhs/yandanshe/internal/providers"

	"github.com/spf13/cobra"
)

func init() {
	detailsCmd := &cobra.Command{
		Use:   "details <id>",
		Short: "Show the details of a title",
		Args:  cobra.ExactArgs(1),
		RunE:  runDetails,
	}

	chaptersCmd := &cobra.Command{
		Use:   "chapters <id>",
		Short: "List the chapters of a title, newest first",
		Args:  cobra.ExactArgs(1),
		RunE:  runChapters,
	}

	pagesCmd := &cobra.Command{
		Use:   "pages <id> <chapter>",
		Short: "List the page images of a chapter",
		Args:  cobra.ExactArgs(2),
		RunE:  runPages,
	}

	resolveCmd := &cobra.Command{
		Use:   "resolve <url>",
		Short: "Resolve a site URL to a title and chapter",
		Args:  cobra.ExactArgs(1),
		RunE:  runResolve,
	}

	rootCmd.AddCommand(detailsCmd, chaptersCmd, pagesCmd, resolveCmd)
}

func runDetails(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd, config.Options{})
	if err != nil {
		return err
	}

	m, err := s.src.GetMangaDetails(commandContext(cmd), args[0])
	if err != nil {
		return err
	}

	return emit(cmd.OutOrStdout(), m, func(w io.Writer) { printManga(w, m) })
}

func runChapters(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd, config.Options{})
	if err != nil {
		return err
	}

	list, err := s.src.GetChapterList(commandContext(cmd), args[0])
	if err != nil {
		return err
	}

	return emit(cmd.OutOrStdout(), list, func(w io.Writer) {
		for _, ch := range list {
			line := fmt.Sprintf("%4s  %s", ch.ID, ch.URL)
			if !ch.DateUpdated.IsZero() {
				line += "  " + ch.DateUpdated.Format("2006-01-02")
			}
			_, _ = fmt.Fprintln(w, line)
		}
	})
}

func runPages(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd, config.Options{})
	if err != nil {
		return err
	}

	pages, err := s.src.GetPageList(commandContext(cmd), args[0], args[1])
	if err != nil {
		return err
	}

	return emit(cmd.OutOrStdout(), pages, func(w io.Writer) {
		for _, p := range pages {
			if p.Base64 != "" {
				_, _ = fmt.Fprintf(w, "%3d  (sign-in required)\n", p.Index+1)
				continue
			}
			_, _ = fmt.Fprintf(w, "%3d  %s\n", p.Index+1, p.URL)
		}
	})
}

func runResolve(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd, config.Options{})
	if err != nil {
		return err
	}

	link, err := s.src.HandleURL(commandContext(cmd), args[0])
	if err != nil {
		return err
	}

	if link.Manga == nil {
		return fmt.Errorf("not a title or chapter URL: %s", args[0])
	}

	return emit(cmd.OutOrStdout(), link, func(w io.Writer) {
		printManga(w, link.Manga)
		if link.Chapter != nil {
			_, _ = fmt.Fprintf(w, "Chapter:     %s\n", link.Chapter.ID)
		}
	})
}

func printManga(w io.Writer, m *providers.Manga) {
	_, _ = fmt.Fprintf(w, "Title:       %s\n", m.Title)
	_, _ = fmt.Fprintf(w, "ID:          %s\n", m.ID)
	_, _ = fmt.Fprintf(w, "Author:      %s\n", m.Author)
	_, _ = fmt.Fprintf(w, "Status:      %s\n", m.Status)
	_, _ = fmt.Fprintf(w, "Rating:      %s\n", m.Rating)
	if len(m.Categories) > 0 {
		_, _ = fmt.Fprintf(w, "Tags:        %s\n", strings.Join(m.Categories, ", "))
	}
	if m.Cover != "" {
		_, _ = fmt.Fprintf(w, "Cover:       %s\n", m.Cover)
	}
	_, _ = fmt.Fprintf(w, "URL:         %s\n", m.URL)
	if m.Description != "" {
		_, _ = fmt.Fprintf(w, "\n%s\n", m.Description)
	}
}

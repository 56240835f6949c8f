package cmd

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/brogergvhs/yandanshe/internal/config"
	"github.com/brogergvhs/yandanshe/internal/providers"
	"github.com/brogergvhs/yandanshe/internal/providers/yandanshe"

	"github.com/spf13/cobra"
)

var (
	flagPage   int
	flagTitle  string
	flagGenre  string
	flagStatus string
	flagMode   string
	flagSort   string
	flagTags   []string
)

func init() {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Browse the catalogue by genre, status and tags, or search by title",
		Args:  cobra.NoArgs,
		RunE:  runList,
	}

	f := listCmd.Flags()
	f.IntVar(&flagPage, "page", 1, "result page")
	f.StringVar(&flagTitle, "title", "", "search by keyword; other filters are ignored")
	f.StringVar(&flagGenre, "genre", "", "yaoi or yuri")
	f.StringVar(&flagStatus, "status", "", "completed or ongoing")
	f.StringVar(&flagMode, "mode", "", "combine tags with and/or")
	f.StringVar(&flagSort, "sort", "", "likes or updated")
	f.StringArrayVar(&flagTags, "tag", nil, "tag to filter by, repeatable")

	homeCmd := &cobra.Command{
		Use:   "home",
		Short: "Show the latest updates from the front page",
		Args:  cobra.NoArgs,
		RunE:  runHome,
	}
	homeCmd.Flags().IntVar(&flagPage, "page", 1, "result page")

	rootCmd.AddCommand(listCmd, homeCmd)
}

func runList(cmd *cobra.Command, _ []string) error {
	filters, err := buildFilters()
	if err != nil {
		return err
	}

	s, err := newSession(cmd, config.Options{})
	if err != nil {
		return err
	}

	s.log.Debugf("list: %s\n", yandanshe.FromFilters(filters, flagPage))

	res, err := s.src.GetMangaList(commandContext(cmd), filters, flagPage)
	if err != nil {
		return err
	}

	return emit(cmd.OutOrStdout(), res, func(w io.Writer) { printPage(w, res) })
}

func runHome(cmd *cobra.Command, _ []string) error {
	s, err := newSession(cmd, config.Options{})
	if err != nil {
		return err
	}

	res, err := s.src.GetMangaListing(commandContext(cmd), providers.Listing{Name: yandanshe.HomeListing}, flagPage)
	if err != nil {
		return err
	}

	return emit(cmd.OutOrStdout(), res, func(w io.Writer) { printPage(w, res) })
}

// buildFilters turns the list flags into the filter values the source
// expects: select options by index, tags as included genre toggles.
func buildFilters() ([]providers.Filter, error) {
	var filters []providers.Filter

	selects := []struct {
		name, value string
	}{
		{yandanshe.GenreFilter, flagGenre},
		{yandanshe.StatusFilter, flagStatus},
		{yandanshe.ModeFilter, flagMode},
	}
	for _, sel := range selects {
		if sel.value == "" {
			continue
		}

		i, err := choiceIndex(yandanshe.Choices[sel.name], sel.value)
		if err != nil {
			return nil, err
		}
		filters = append(filters, providers.Filter{Kind: providers.FilterSelect, Name: sel.name, Value: i})
	}

	if flagSort != "" {
		i, err := choiceIndex(yandanshe.SortChoices, flagSort)
		if err != nil {
			return nil, err
		}
		filters = append(filters, providers.Filter{
			Kind:  providers.FilterSort,
			Name:  "排序",
			Value: map[string]any{"index": i, "ascending": false},
		})
	}

	for _, tag := range flagTags {
		if tag = strings.TrimSpace(tag); tag != "" {
			filters = append(filters, providers.Filter{Kind: providers.FilterGenre, Name: tag, Value: 1})
		}
	}

	if flagTitle != "" {
		filters = append(filters, providers.Filter{Kind: providers.FilterTitle, Name: "title", Value: flagTitle})
	}

	return filters, nil
}

func choiceIndex(choices []string, value string) (int, error) {
	i := slices.Index(choices, strings.ToLower(strings.TrimSpace(value)))
	if i < 0 {
		return 0, fmt.Errorf("invalid value %q (expected one of %s)", value, strings.Join(choices, ", "))
	}

	return i, nil
}

func printPage(w io.Writer, res *providers.MangaPageResult) {
	for _, m := range res.Manga {
		_, _ = fmt.Fprintf(w, "%-8s %-10s %s\n", m.ID, m.Status, m.Title)
	}

	if res.HasMore {
		_, _ = fmt.Fprintln(w, "\n(more results on the next page)")
	}
}

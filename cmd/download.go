package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/brogergvhs/yandanshe/internal/chapters"
	"github.com/brogergvhs/yandanshe/internal/config"
	"github.com/brogergvhs/yandanshe/internal/downloader"
	"github.com/brogergvhs/yandanshe/internal/library"
	"github.com/brogergvhs/yandanshe/internal/providers"
	"github.com/brogergvhs/yandanshe/internal/ui"
	"github.com/brogergvhs/yandanshe/internal/util"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	// selection
	flagChapter string
	flagRange   string
	flagList    string
	flagPick    bool
	flagNew     bool

	// runtime
	flagOutput         string
	flagImageWorkers   int
	flagChapterWorkers int
	flagKeepFolders    bool
	flagDryRun         bool
	flagSkipBroken     bool
)

func init() {
	downloadCmd := &cobra.Command{
		Use:   "download <id|url>",
		Short: "Download chapters as CBZ files. Uses the defaults from the selected config, overwritten by CLI flags",
		Args:  cobra.ExactArgs(1),
		RunE:  runDownload,
	}

	f := downloadCmd.Flags()

	// selection
	f.StringVar(&flagChapter, "chapter", "", "download a single chapter by id")
	f.StringVar(&flagRange, "range", "", "download range of chapters by number (e.g. 5-12)")
	f.StringVar(&flagList, "list", "", "download specific chapter numbers (e.g. 1,3,5)")
	f.BoolVar(&flagPick, "pick", false, "choose a chapter interactively")
	f.BoolVar(&flagNew, "new", false, "skip chapters already recorded in the library")

	// runtime
	f.StringVar(&flagOutput, "output", "", "output folder for CBZ files")
	f.IntVar(&flagImageWorkers, "image-workers", 5, "parallel image downloads per chapter")
	f.IntVar(&flagChapterWorkers, "chapter-workers", 2, "parallel chapter downloads")
	f.BoolVar(&flagKeepFolders, "keep-folders", false, "keep temporary folders")
	f.BoolVar(&flagDryRun, "dry-run", false, "show what would be downloaded, don't download")
	f.BoolVar(&flagSkipBroken, "skip-broken", false, "skip failed images instead of failing the whole chapter")

	rootCmd.AddCommand(downloadCmd)
}

func runDownload(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd, config.Options{
		Output:      flagOutput,
		KeepFolders: flagKeepFolders,
		SkipBroken:  flagSkipBroken,
	})
	if err != nil {
		return err
	}

	cfg := s.cfg
	if cmd.Flags().Changed("image-workers") {
		cfg.ImageWorkers = flagImageWorkers
	}
	if cmd.Flags().Changed("chapter-workers") {
		cfg.ChapterWorkers = flagChapterWorkers
	}

	if err := os.MkdirAll(cfg.Output, 0755); err != nil {
		return fmt.Errorf("cannot create output folder: %w", err)
	}

	if cfg.Debug {
		fmt.Printf("Config file: %s\n", s.usedPath)
		fmt.Println("Full config:")
		cfg.Print()
		fmt.Println()
	}

	ctx, cleanup := util.InterruptContext(commandContext(cmd), cfg.Output)
	defer cleanup()

	manga, preselected, err := resolveTarget(ctx, s, args[0])
	if err != nil {
		return err
	}

	list, err := s.src.GetChapterList(ctx, manga.ID)
	if err != nil {
		return err
	}
	all := chapters.Wrap(manga, list)

	chapterSel := flagChapter
	if chapterSel == "" {
		chapterSel = preselected
	}

	var selected []chapters.Chapter
	if flagPick && chapterSel == "" && flagRange == "" && flagList == "" {
		selected, err = pickChapter(all)
		if err != nil {
			return err
		}
	} else {
		selected = chapters.Filter(all, chapterSel, flagRange, flagList)
	}

	lib, err := library.Open(cfg.LibraryPath)
	if err != nil {
		s.log.Warnf("library unavailable: %v\n", err)
	} else {
		defer func() {
			_ = lib.Close()
		}()
	}

	if flagNew && lib != nil {
		selected, err = skipDownloaded(ctx, lib, manga.ID, selected)
		if err != nil {
			return err
		}
	}

	if len(selected) == 0 {
		return fmt.Errorf("no chapters selected")
	}

	fmt.Printf("%s: %d of %d chapters selected.\n\n", manga.Title, len(selected), len(all))

	if flagDryRun {
		for i, ch := range selected {
			fmt.Printf("%3d) Ch.%s\n    %s\n", i+1, ch.Label(), ch.URL)
		}
		return nil
	}

	pm := ui.NewProgressManager(os.Stdout)
	stats := &ui.Stats{}
	dl := downloader.New(s.fetcher.Client, s.src.ModifyImageRequest, cfg.SkipBroken)
	info := comicInfo(manga)
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, cfg.ChapterWorkers))

	for _, ch := range selected {
		g.Go(func() error {
			err := downloadChapter(gctx, s, dl, pm, cfg, ch, info, stats, lib)
			if err != nil && !errors.Is(err, context.Canceled) {
				s.log.Errorf("Chapter %s failed: %v\n", ch.Label(), err)
				stats.Failed.Add(1)
				return nil
			}

			return err
		})
	}
	werr := g.Wait()
	pm.Close()

	fmt.Println()
	stats.Print(os.Stdout, time.Since(start))

	if werr != nil {
		return werr
	}
	if n := stats.Failed.Load(); n > 0 {
		return fmt.Errorf("%d chapters failed", n)
	}

	fmt.Println("\nAll done.")
	return nil
}

// resolveTarget accepts a bare id or any site URL. Chapter URLs preselect
// their chapter.
func resolveTarget(ctx context.Context, s *session, target string) (*providers.Manga, string, error) {
	if !strings.Contains(target, "://") {
		m, err := s.src.GetMangaDetails(ctx, strings.Trim(target, "/"))
		return m, "", err
	}

	link, err := s.src.HandleURL(ctx, target)
	if err != nil {
		return nil, "", err
	}
	if link.Manga == nil {
		return nil, "", fmt.Errorf("not a title or chapter URL: %s", target)
	}

	chapterID := ""
	if link.Chapter != nil {
		chapterID = link.Chapter.ID
	}

	return link.Manga, chapterID, nil
}

func pickChapter(all []chapters.Chapter) ([]chapters.Chapter, error) {
	items := make([]string, 0, len(all)+1)
	items = append(items, "All chapters")
	for _, ch := range all {
		items = append(items, "Ch."+ch.Label())
	}

	prompt := promptui.Select{
		Label: "Select chapter",
		Items: items,
		Size:  15,
	}

	idx, _, err := prompt.Run()
	if err != nil {
		return nil, fmt.Errorf("selection cancelled")
	}

	if idx == 0 {
		return all, nil
	}

	return all[idx-1 : idx], nil
}

func skipDownloaded(ctx context.Context, lib *library.DB, mangaID string, selected []chapters.Chapter) ([]chapters.Chapter, error) {
	done, err := lib.Downloaded(ctx, mangaID)
	if err != nil {
		return nil, err
	}

	out := selected[:0:0]
	for _, ch := range selected {
		if !done[ch.ID] {
			out = append(out, ch)
		}
	}

	return out, nil
}

func downloadChapter(
	ctx context.Context,
	s *session,
	dl *downloader.Downloader,
	pm *ui.MPBProgressManager,
	cfg *config.Config,
	ch chapters.Chapter,
	info util.ComicInfo,
	stats *ui.Stats,
	lib *library.DB,
) error {
	pages, err := s.src.GetPageList(ctx, ch.MangaID, ch.ID)
	if err != nil {
		return err
	}
	if len(pages) == 0 {
		return fmt.Errorf("no images")
	}

	handle := pm.Register("Ch." + ch.Label())
	handle.SetTotal(len(pages))

	tmpFolder := util.TempFolder(cfg.Output, ch.FolderName())
	cbzOut := ch.OutputCBZPath(cfg.Output)

	files, bytes, err := dl.DownloadPages(ctx, pages, tmpFolder, max(1, cfg.ImageWorkers), handle)
	if err != nil {
		handle.Fail()
		util.CleanupFolder(tmpFolder)
		return err
	}

	info.Number = ch.Label()
	info.Title = fmt.Sprintf("%s Ch.%s", info.Series, ch.Label())
	if err := util.CreateCBZ(files, cbzOut, &info); err != nil {
		util.CleanupFolder(tmpFolder)
		return fmt.Errorf("cbz: %w", err)
	}

	if !cfg.KeepFolders {
		util.CleanupFolder(tmpFolder)
	}

	if lib != nil {
		if err := lib.RecordDownload(ctx, ch.MangaID, ch.Chapter, cbzOut); err != nil {
			s.log.Warnf("library: %v\n", err)
		}
	}

	stats.TotalChapters.Add(1)
	stats.TotalImages.Add(int64(len(files)))
	stats.TotalBytes.Add(bytes)

	return nil
}

func comicInfo(m *providers.Manga) util.ComicInfo {
	info := util.ComicInfo{
		Series:      m.Title,
		Summary:     m.Description,
		Writer:      m.Author,
		Genre:       strings.Join(m.Categories, ","),
		Web:         m.URL,
		LanguageISO: "zh",
		Manga:       "Yes",
	}

	if m.Rating == providers.Nsfw {
		info.AgeRating = "Adults Only 18+"
	}

	return info
}

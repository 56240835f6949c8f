package util

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
)

// ComicInfo is the subset of the ComicRack metadata readers look for in a CBZ.
type ComicInfo struct {
	XMLName      xml.Name `xml:"ComicInfo"`
	Title        string   `xml:"Title,omitempty"`
	Series       string   `xml:"Series,omitempty"`
	Number       string   `xml:"Number,omitempty"`
	Summary      string   `xml:"Summary,omitempty"`
	Writer       string   `xml:"Writer,omitempty"`
	Genre        string   `xml:"Genre,omitempty"`
	Web          string   `xml:"Web,omitempty"`
	PageCount    int      `xml:"PageCount,omitempty"`
	LanguageISO  string   `xml:"LanguageISO,omitempty"`
	AgeRating    string   `xml:"AgeRating,omitempty"`
	Manga        string   `xml:"Manga,omitempty"`
}

// CreateCBZ zips files in name order into output. When info is not nil it
// is stored as ComicInfo.xml next to the pages. A failed archive is removed.
func CreateCBZ(files []string, output string, info *ComicInfo) (err error) {
	out, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("cbz: %w", err)
	}

	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("cbz: close %s: %w", output, cerr)
		}
		if err != nil {
			_ = os.Remove(output)
		}
	}()

	return writeCBZ(out, files, info)
}

func writeCBZ(w io.Writer, files []string, info *ComicInfo) (err error) {
	z := zip.NewWriter(w)
	defer func() {
		if cerr := z.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("cbz: finish archive: %w", cerr)
		}
	}()

	sorted := append([]string(nil), files...)
	sort.Strings(sorted)
	for _, file := range sorted {
		if err := addFileToZip(z, file); err != nil {
			return err
		}
	}

	if info != nil {
		if info.PageCount == 0 {
			info.PageCount = len(sorted)
		}
		if err := addComicInfo(z, info); err != nil {
			return err
		}
	}

	return nil
}

func addComicInfo(z *zip.Writer, info *ComicInfo) error {
	data, err := xml.MarshalIndent(info, "", "  ")
	if err != nil {
		return fmt.Errorf("comicinfo: %w", err)
	}

	w, err := z.Create("ComicInfo.xml")
	if err != nil {
		return err
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func addFileToZip(z *zip.Writer, file string) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			log.Printf("error closing input file %s: %v", file, cerr)
		}
	}()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}

	header.Name = filepath.Base(file)
	header.Method = zip.Deflate

	w, err := z.CreateHeader(header)
	if err != nil {
		return err
	}

	if _, err := io.Copy(w, f); err != nil {
		return err
	}

	return nil
}

func HumanBytes(n int64) string {
	switch {
	case n >= 1<<30:
		return fmt.Sprintf("%.2f GB", float64(n)/(1<<30))
	case n >= 1<<20:
		return fmt.Sprintf("%.2f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.2f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

package util

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
)

const tempSuffix = "_tmp"

// InterruptContext is cancelled on SIGINT or SIGTERM. Once the caller has
// unwound, the returned cleanup removes half-written chapter folders from
// outputDir.
func InterruptContext(parent context.Context, outputDir string) (context.Context, func()) {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)

	return ctx, func() {
		interrupted := ctx.Err() != nil && parent.Err() == nil
		stop()

		if !interrupted {
			return
		}

		fmt.Println("\nInterrupt received. Cleaning up...")
		CleanupUnfinishedTempFolders(outputDir)
		RemoveIfEmpty(outputDir)
	}
}

func TempFolder(outputDir, name string) string {
	return filepath.Join(outputDir, name+tempSuffix)
}

func CleanupUnfinishedTempFolders(outputDir string) []string {
	entries, err := os.ReadDir(outputDir)
	if err != nil {
		return nil
	}

	var removed []string
	for _, e := range entries {
		name := e.Name()
		if !e.IsDir() || !strings.HasSuffix(name, tempSuffix) {
			continue
		}

		full := filepath.Join(outputDir, name)
		if err := os.RemoveAll(full); err != nil {
			fmt.Printf("Error cleaning up %s: %v\n", full, err)
			continue
		}

		fmt.Printf("Removed %s\n", full)
		removed = append(removed, full)
	}

	return removed
}

func RemoveIfEmpty(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) != 0 {
		return false
	}

	if err := os.Remove(dir); err != nil {
		return false
	}

	fmt.Printf("Removed empty output folder: %s\n", dir)
	return true
}

func CleanupFolder(folder string) {
	_ = os.RemoveAll(folder)
}

package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"sfenimg/pkg/archive"
)

func main() {
	parquetPath := flag.String("parquet", "diagrams.parquet", "input parquet file")
	binSize := flag.Int("bin-size", 5, "piece count bin size")
	top := flag.Int("top", 10, "failure reasons to list (0 for all)")
	listFailed := flag.Bool("list-failed", false, "print the ids of failed rows")
	flag.Parse()

	if *binSize <= 0 {
		fatal(fmt.Errorf("bin-size must be > 0"))
	}
	absPath := *parquetPath
	if resolved, err := filepath.Abs(absPath); err == nil {
		absPath = resolved
	}

	s := newSummary(*binSize)
	if err := archive.Scan(absPath, 4, s.Add); err != nil {
		fatal(err)
	}
	fmt.Printf("input parquet: %s\n", *parquetPath)
	s.Write(os.Stdout, *top)
	if *listFailed {
		for _, id := range s.failedIDs {
			fmt.Println(id)
		}
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}

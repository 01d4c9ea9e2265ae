// bench - hvmc size benchmark runner
//
// Compares, for every book in the corpus:
//   - Canonical source text bytes
//   - Compiled flat buffer bytes
//   - zstd-compressed buffer bytes
//   - Parse and compile time
//
// Output: CSV and markdown summary
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/Neumenon/hvmc/ast"
	"github.com/Neumenon/hvmc/stream"
)

type CaseResult struct {
	Name        string
	Defs        int
	Nodes       int
	TextBytes   int
	BufferBytes int
	ZstdBytes   int
	ZstdPct     float64 // compressed size relative to the buffer
	Compile     time.Duration
}

func main() {
	// Find testdata directory
	testdataDir := findTestdata()
	if testdataDir == "" {
		fmt.Fprintln(os.Stderr, "Cannot find testdata directory with .hvm files")
		os.Exit(1)
	}

	files, err := filepath.Glob(filepath.Join(testdataDir, "*.hvm"))
	if err != nil || len(files) == 0 {
		fmt.Fprintf(os.Stderr, "No .hvm files in %s\n", testdataDir)
		os.Exit(1)
	}
	sort.Strings(files)

	fmt.Fprintf(os.Stderr, "hvmc Benchmark Runner\n")
	fmt.Fprintf(os.Stderr, "=====================\n")
	fmt.Fprintf(os.Stderr, "Corpus: %s (%d cases)\n\n", testdataDir, len(files))

	var results []CaseResult
	var totalText, totalBuffer, totalZstd int

	for _, path := range files {
		name := strings.TrimSuffix(filepath.Base(path), ".hvm")
		src, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Skip %s: %v\n", name, err)
			continue
		}

		start := time.Now()
		book, err := ast.ParseBook(string(src))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Skip %s: parse error: %v\n", name, err)
			continue
		}
		compiled, err := ast.Compile(book)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Skip %s: compile error: %v\n", name, err)
			continue
		}
		elapsed := time.Since(start)

		buf, err := compiled.MarshalBinary()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Skip %s: serialize error: %v\n", name, err)
			continue
		}
		packed, err := stream.Compress(buf, zstd.SpeedBestCompression)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Skip %s: compress error: %v\n", name, err)
			continue
		}

		// Calculate metrics
		text := book.String()
		st := compiled.Stats()
		zstdPct := 0.0
		if len(buf) > 0 {
			zstdPct = float64(len(packed)) / float64(len(buf)) * 100.0
		}

		results = append(results, CaseResult{
			Name:        name,
			Defs:        st.Defs,
			Nodes:       st.Nodes,
			TextBytes:   len(text),
			BufferBytes: len(buf),
			ZstdBytes:   len(packed),
			ZstdPct:     zstdPct,
			Compile:     elapsed,
		})

		totalText += len(text)
		totalBuffer += len(buf)
		totalZstd += len(packed)
	}

	// Output CSV
	csvPath := "bench_results.csv"
	csvFile, err := os.Create(csvPath)
	if err == nil {
		writeCSV(csvFile, results)
		csvFile.Close()
		fmt.Fprintf(os.Stderr, "CSV written to: %s\n", csvPath)
	}

	// Output Markdown
	mdPath := "BENCH.md"
	mdFile, err := os.Create(mdPath)
	if err == nil {
		writeMarkdown(mdFile, results, totalText, totalBuffer, totalZstd)
		mdFile.Close()
		fmt.Fprintf(os.Stderr, "Markdown written to: %s\n", mdPath)
	}

	// Summary to stdout
	fmt.Printf("\n=== SUMMARY ===\n")
	fmt.Printf("Cases:         %d\n", len(results))
	fmt.Printf("Text total:    %d bytes\n", totalText)
	fmt.Printf("Buffer total:  %d bytes\n", totalBuffer)
	fmt.Printf("zstd total:    %d bytes (%.1f%% of buffer)\n", totalZstd, pct(totalZstd, totalBuffer))
}

func pct(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}

func findTestdata() string {
	// Try relative paths from likely locations
	paths := []string{
		"ast/testdata",
		"../ast/testdata",
		"../../ast/testdata",
		"testdata",
	}

	for _, p := range paths {
		if matches, _ := filepath.Glob(filepath.Join(p, "*.hvm")); len(matches) > 0 {
			return p
		}
	}

	return ""
}

func writeCSV(w io.Writer, results []CaseResult) {
	fmt.Fprintln(w, "name,defs,nodes,text_bytes,buffer_bytes,zstd_bytes,zstd_pct,compile_us")
	for _, r := range results {
		fmt.Fprintf(w, "%s,%d,%d,%d,%d,%d,%.1f,%d\n",
			r.Name, r.Defs, r.Nodes, r.TextBytes, r.BufferBytes, r.ZstdBytes, r.ZstdPct,
			r.Compile.Microseconds())
	}
}

func writeMarkdown(w io.Writer, results []CaseResult, totalText, totalBuffer, totalZstd int) {
	fmt.Fprintf(w, "# hvmc Benchmark Results\n\n")
	fmt.Fprintf(w, "**Date:** %s  \n", time.Now().Format("2006-01-02"))
	fmt.Fprintf(w, "**Cases:** %d  \n\n", len(results))

	fmt.Fprintf(w, "## Summary\n\n")
	fmt.Fprintf(w, "| Metric | Text | Buffer | zstd |\n")
	fmt.Fprintf(w, "|--------|------|--------|------|\n")
	fmt.Fprintf(w, "| **Bytes** | %d | %d | %d (%.1f%%) |\n\n", totalText, totalBuffer, totalZstd, pct(totalZstd, totalBuffer))

	// Largest buffers first
	sorted := make([]CaseResult, len(results))
	copy(sorted, results)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].BufferBytes > sorted[j].BufferBytes
	})

	fmt.Fprintf(w, "## Methodology\n\n")
	fmt.Fprintf(w, "- **Text:** canonical form via `ast.(*Book).String`\n")
	fmt.Fprintf(w, "- **Buffer:** flat little-endian buffer via `hvm.(*Book).MarshalBinary` (256-byte names)\n")
	fmt.Fprintf(w, "- **zstd:** buffer compressed with `stream.Compress` at best compression\n\n")

	fmt.Fprintf(w, "## Detailed Results\n\n")
	fmt.Fprintf(w, "| Case | Defs | Nodes | Text | Buffer | zstd | zstd %% | Compile |\n")
	fmt.Fprintf(w, "|------|------|-------|------|--------|------|--------|---------|\n")
	for _, r := range sorted {
		fmt.Fprintf(w, "| %s | %d | %d | %d | %d | %d | %.1f%% | %s |\n",
			truncateName(r.Name, 25), r.Defs, r.Nodes, r.TextBytes, r.BufferBytes, r.ZstdBytes,
			r.ZstdPct, r.Compile.Round(time.Microsecond))
	}
}

func truncateName(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

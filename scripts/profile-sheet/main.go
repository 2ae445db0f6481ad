// profile-sheet prints the profile of a local spreadsheet: detected header,
// per-column types and categories, recommended fields and template suggestions.
// Nothing is written anywhere.
//
// Usage: go run ./scripts/profile-sheet [flags] <file.xlsx|file.csv>
//
// Flags:
//
//	-sheet        Worksheet name (default: first sheet)
//	-dictionary   Dictionary YAML overriding the built-in one
//	-json         Print the full profile as JSON
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-sheets/pkg/models"
	"github.com/ekaya-inc/ekaya-sheets/pkg/profiling"
	"github.com/ekaya-inc/ekaya-sheets/pkg/services"
)

func main() {
	sheet := flag.String("sheet", "", "Worksheet name (default: first sheet)")
	dictPath := flag.String("dictionary", "", "Dictionary YAML overriding the built-in one")
	asJSON := flag.Bool("json", false, "Print the full profile as JSON")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: %s [-sheet=name] [-json] <file.xlsx|file.csv>\n", os.Args[0])
		os.Exit(1)
	}
	path := flag.Arg(0)

	logConfig := zap.NewDevelopmentConfig()
	logConfig.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	logger, _ := logConfig.Build()
	defer logger.Sync()

	dict := profiling.DefaultDictionary()
	if *dictPath != "" {
		var err error
		if dict, err = profiling.LoadDictionary(*dictPath); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load dictionary: %v\n", err)
			os.Exit(1)
		}
	}

	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open file: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	service := services.NewAnalyzeService(profiling.NewAnalyzer(dict, logger), logger)
	profile, err := service.Analyze(context.Background(), services.AnalyzeRequest{
		File:      f,
		FileName:  filepath.Base(path),
		SheetName: *sheet,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Analyze failed: %v\n", err)
		os.Exit(1)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(profile); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode profile: %v\n", err)
			os.Exit(1)
		}
		return
	}
	printProfile(profile)
}

func printProfile(p *models.TableProfile) {
	fmt.Printf("Sheet %q: header on row %d, %d rows, %d columns\n\n", p.SheetName, p.HeaderRow, p.TotalRows, p.TotalColumns)

	fmt.Printf("%-30s %-8s %-12s %5s %6s  %s\n", "COLUMN", "TYPE", "CATEGORY", "NULL%", "SCORE", "SAMPLES")
	fmt.Println(strings.Repeat("-", 90))
	for _, c := range p.Columns {
		mark := " "
		if c.IsRecommended {
			mark = "*"
		}
		fmt.Printf("%s%-29s %-8s %-12s %5d %6.1f  %s\n",
			mark, truncate(c.Name, 29), c.DataType, c.Category, c.Stats.NullPercentage,
			c.RecommendationScore, truncate(strings.Join(c.SampleValues, ", "), 40))
	}

	fmt.Printf("\nRecommended: %s\n", strings.Join(p.RecommendedFields, ", "))
	fmt.Println("\nTemplates:")
	for _, t := range p.Templates {
		fmt.Printf("  %-22s %s\n", t.ID, strings.Join(t.Columns, ", "))
	}
}

// truncate shortens a string to maxLen characters, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

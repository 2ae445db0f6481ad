package profiling

import (
	"context"
	"runtime"
	"strings"
	"unicode"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ekaya-inc/ekaya-sheets/pkg/models"
)

const (
	// TopRecommendedFields is the number of recommended field names on a table profile.
	TopRecommendedFields = 10

	sampleValueCount = 5
)

// Analyzer profiles the columns of a sheet.
type Analyzer struct {
	dict        *Dictionary
	synthesizer *Synthesizer
	workers     int
	logger      *zap.Logger
}

// NewAnalyzer creates an Analyzer. A nil dictionary uses the built-in one.
func NewAnalyzer(dict *Dictionary, logger *zap.Logger) *Analyzer {
	if dict == nil {
		dict = DefaultDictionary()
	}
	return &Analyzer{
		dict:        dict,
		synthesizer: NewSynthesizer(dict),
		workers:     runtime.GOMAXPROCS(0),
		logger:      logger.Named("profiling"),
	}
}

// WithWorkers bounds how many columns are analyzed in parallel.
// Values below one are ignored.
func (a *Analyzer) WithWorkers(n int) *Analyzer {
	if n > 0 {
		a.workers = n
	}
	return a
}

// AnalyzeColumn builds the profile of one column. It never fails: columns
// that match no rule come out as text/other.
func (a *Analyzer) AnalyzeColumn(name string, index int, values []string) models.ColumnProfile {
	dataType := InferType(values)
	col := models.ColumnProfile{
		Name:         name,
		DisplayName:  Humanize(name),
		Index:        index,
		DataType:     dataType,
		Category:     a.dict.Categorize(name),
		Stats:        ComputeStats(values, dataType),
		SampleValues: sampleValues(values),
	}
	col.RecommendationScore = Score(col)
	col.IsRecommended = col.RecommendationScore >= RecommendationThreshold
	return col
}

// AnalyzeTable profiles every column of a sheet and synthesizes templates.
// headers and rows are the sheet after header detection; short rows are
// padded with blanks.
func (a *Analyzer) AnalyzeTable(ctx context.Context, sheetName string, headers []string, rows [][]string) (*models.TableProfile, error) {
	columns := make([]models.ColumnProfile, len(headers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for i, name := range headers {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			columns[i] = a.AnalyzeColumn(name, i, columnValues(rows, i))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	profile := &models.TableProfile{
		SheetName:       sheetName,
		TotalRows:       len(rows),
		TotalColumns:    len(headers),
		Columns:         columns,
		CategoryBuckets: make(map[models.Category][]string),
	}
	for _, c := range columns {
		profile.CategoryBuckets[c.Category] = append(profile.CategoryBuckets[c.Category], c.Name)
	}

	var recommended []string
	for _, c := range Rank(columns) {
		if c.IsRecommended {
			recommended = append(recommended, c.Name)
		}
	}
	profile.RecommendedFields = recommended
	if len(profile.RecommendedFields) > TopRecommendedFields {
		profile.RecommendedFields = profile.RecommendedFields[:TopRecommendedFields]
	}
	if profile.RecommendedFields == nil {
		profile.RecommendedFields = []string{}
	}

	profile.Templates = a.synthesizer.Synthesize(profile.CategoryBuckets, recommended, columns)

	a.logger.Debug("Analyzed sheet",
		zap.String("sheet", sheetName),
		zap.Int("rows", profile.TotalRows),
		zap.Int("columns", profile.TotalColumns),
		zap.Int("recommended", len(recommended)),
		zap.Int("templates", len(profile.Templates)))

	return profile, nil
}

func columnValues(rows [][]string, index int) []string {
	values := make([]string, len(rows))
	for r, row := range rows {
		if index < len(row) {
			values[r] = row[index]
		}
	}
	return values
}

func sampleValues(values []string) []string {
	out := []string{}
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
			if len(out) == sampleValueCount {
				break
			}
		}
	}
	return out
}

var titleCaser = cases.Title(language.Und, cases.NoLower)

// Humanize turns a raw column name into a display name:
// "expected_accumulation" and "expectedAccumulation" both become "Expected Accumulation".
// Names that already contain spaces keep their casing apart from the first letter.
func Humanize(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	if strings.ContainsRune(name, ' ') {
		r := []rune(name)
		r[0] = unicode.ToUpper(r[0])
		return string(r)
	}

	var b strings.Builder
	prev := rune(0)
	for _, r := range name {
		switch {
		case r == '_' || r == '-' || r == '.':
			b.WriteRune(' ')
		case unicode.IsUpper(r) && unicode.IsLower(prev):
			b.WriteRune(' ')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
		prev = r
	}
	return titleCaser.String(strings.Join(strings.Fields(b.String()), " "))
}

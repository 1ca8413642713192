package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ikkim/videokb-backend/internal/app/model"
	"github.com/ikkim/videokb-backend/internal/app/service"
	"github.com/xuri/excelize/v2"
)

// Column order of the import sheet; the first row is a header.
const (
	colTitle = iota
	colDescription
	colCategory
	colPlatform
	colShareStatus
	colRating
	colProductID
	colTags
	columnCount
)

const defaultTagWeight = 5

type tagSpec struct {
	Name   string
	Weight int
}

type videoRow struct {
	Line  int
	Input service.VideoInput
	Tags  []tagSpec
}

type importSummary struct {
	videos    int
	relations int
	failed    int
}

// importer writes rows through the services so product-code tags are ensured
// and usage counters stay exact.
type importer struct {
	videos  service.VideoService
	tags    service.TagService
	findTag func(name string) (*model.Tag, error) // nil tag when absent
}

func readVideosFromXLSX(filePath string) ([]videoRow, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("no sheets found in XLSX file")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no data found in XLSX file")
	}

	return parseRows(rows), nil
}

// parseRows skips the header and rows without a title. Malformed cells are
// reported and the row is dropped.
func parseRows(rows [][]string) []videoRow {
	var out []videoRow
	for i, row := range rows {
		if i == 0 {
			continue
		}

		parsed, err := parseRow(row)
		if err != nil {
			fmt.Printf("  row %d skipped: %v\n", i+1, err)
			continue
		}
		if parsed == nil {
			continue
		}
		parsed.Line = i + 1
		out = append(out, *parsed)
	}
	return out
}

func parseRow(row []string) (*videoRow, error) {
	// GetRows trims trailing empty cells
	cells := make([]string, columnCount)
	for i := 0; i < columnCount && i < len(row); i++ {
		cells[i] = strings.TrimSpace(row[i])
	}

	if cells[colTitle] == "" {
		return nil, nil
	}

	input := service.VideoInput{
		Title:       cells[colTitle],
		Description: cells[colDescription],
		Category:    model.VideoCategory(strings.ToLower(cells[colCategory])),
		Platform:    model.VideoPlatform(strings.ToLower(cells[colPlatform])),
		ShareStatus: model.ShareStatus(strings.ToLower(cells[colShareStatus])),
	}
	if input.Category == "" {
		input.Category = model.CategoryOther
	}

	if cells[colRating] != "" {
		rating, err := strconv.Atoi(cells[colRating])
		if err != nil {
			return nil, fmt.Errorf("rating %q is not a number", cells[colRating])
		}
		input.Rating = &rating
	}
	if cells[colProductID] != "" {
		productID := cells[colProductID]
		input.ProductID = &productID
	}

	tags, err := parseTagList(cells[colTags])
	if err != nil {
		return nil, err
	}

	return &videoRow{Input: input, Tags: tags}, nil
}

// parseTagList parses "name:weight" entries separated by ',' or ';'.
// A missing weight defaults to 5.
func parseTagList(s string) ([]tagSpec, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ';' })

	var specs []tagSpec
	for _, field := range fields {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}

		name, weightStr, hasWeight := strings.Cut(field, ":")
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("empty tag name in %q", field)
		}

		weight := defaultTagWeight
		if hasWeight {
			w, err := strconv.Atoi(strings.TrimSpace(weightStr))
			if err != nil {
				return nil, fmt.Errorf("tag %q has invalid weight %q", name, weightStr)
			}
			weight = w
		}
		specs = append(specs, tagSpec{Name: name, Weight: weight})
	}
	return specs, nil
}

func (imp *importer) run(rows []videoRow) importSummary {
	var summary importSummary
	for _, row := range rows {
		video, err := imp.videos.CreateVideo(row.Input)
		if err != nil {
			fmt.Printf("  row %d failed: %v\n", row.Line, err)
			summary.failed++
			continue
		}
		summary.videos++

		for _, spec := range row.Tags {
			tag, err := imp.resolveTag(spec.Name)
			if err == nil {
				err = imp.tags.AddTagToVideo(video.ID, tag.ID, spec.Weight)
			}
			if err != nil {
				fmt.Printf("  row %d tag %q failed: %v\n", row.Line, spec.Name, err)
				continue
			}
			summary.relations++
		}

		if summary.videos%100 == 0 {
			fmt.Printf("Imported %d videos...\n", summary.videos)
		}
	}
	return summary
}

func (imp *importer) resolveTag(name string) (*model.Tag, error) {
	tag, err := imp.findTag(name)
	if err != nil {
		return nil, err
	}
	if tag != nil {
		return tag, nil
	}
	return imp.tags.CreateTag(service.TagInput{Name: name})
}

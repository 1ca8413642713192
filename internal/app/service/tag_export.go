package service

import (
	"fmt"
	"io"

	"github.com/ikkim/videokb-backend/internal/app/repository"
	"github.com/ikkim/videokb-backend/pkg/logger"
	"github.com/xuri/excelize/v2"
)

const tagExportSheet = "Tags"

var tagExportHeaders = []interface{}{"ID", "名稱", "類型", "說明", "顏色", "使用次數", "建立時間"}

// ExportTagsXLSX 匯出標籤使用報表 (依使用次數排序)
func (s *tagService) ExportTagsXLSX(w io.Writer) error {
	tags, err := s.tagRepo.FindAll(repository.TagFilter{})
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), tagExportSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	if err := f.SetSheetRow(tagExportSheet, "A1", &tagExportHeaders); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, tag := range tags {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{
			tag.ID,
			tag.Name,
			string(tag.Type),
			tag.Description,
			tag.Color,
			tag.UsageCount,
			tag.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		if err := f.SetSheetRow(tagExportSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	logger.Info("Tag report exported", map[string]interface{}{
		"tag_count": len(tags),
	})
	return nil
}

package fulltext

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
)

const (
	fieldContent   = "content"
	fieldProductID = "product_id"
)

// mappingVersion is bumped whenever buildIndexMapping changes; on-disk
// indexes with another version are recreated.
const mappingVersion = "1"

// buildIndexMapping 影片文件映射: content 全文欄位 + product_id 精確欄位
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = standard.Name

	docMapping := bleve.NewDocumentMapping()

	contentFieldMapping := bleve.NewTextFieldMapping()
	contentFieldMapping.Analyzer = standard.Name
	contentFieldMapping.Store = false
	docMapping.AddFieldMappingsAt(fieldContent, contentFieldMapping)

	productFieldMapping := bleve.NewTextFieldMapping()
	productFieldMapping.Analyzer = keyword.Name
	productFieldMapping.Store = false
	productFieldMapping.IncludeInAll = false
	docMapping.AddFieldMappingsAt(fieldProductID, productFieldMapping)

	indexMapping.AddDocumentMapping("_default", docMapping)
	return indexMapping
}

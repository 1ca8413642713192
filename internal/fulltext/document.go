package fulltext

import (
	"strconv"
	"strings"

	"github.com/ikkim/videokb-backend/internal/app/model"
)

// videoDocument flattens a video into its searchable text.
// Nullable fields contribute empty strings.
func videoDocument(video *model.Video) (string, map[string]interface{}) {
	productID := ""
	if video.ProductID != nil {
		productID = *video.ProductID
	}

	content := strings.Join([]string{video.Title, video.Description, productID}, " ")
	return docID(video.ID), map[string]interface{}{
		fieldContent:   content,
		fieldProductID: productID,
	}
}

func docID(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func parseDocID(id string) (uint, bool) {
	n, err := strconv.ParseUint(id, 10, 64)
	if err != nil {
		return 0, false
	}
	return uint(n), true
}

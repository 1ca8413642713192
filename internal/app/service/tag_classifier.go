package service

import (
	"regexp"

	"github.com/ikkim/videokb-backend/internal/app/model"
)

// ProductCodePattern 產品型號格式: 3 英文字母 + 6 數字 + a/b/c 後綴 (不分大小寫)
const ProductCodePattern = `^[A-Za-z]{3}[0-9]{6}[abcABC]$`

var productCodeRegexp = regexp.MustCompile(ProductCodePattern)

// ClassifyTagName 依名稱判斷標籤類型
func ClassifyTagName(name string) model.TagType {
	if productCodeRegexp.MatchString(name) {
		return model.TagTypeProductCode
	}
	return model.TagTypeKeyword
}

package errors

import (
	"errors"
	"net/http"
	"strings"

	"gorm.io/gorm"
)

// ErrorInfo 解析後的錯誤資訊
type ErrorInfo struct {
	Status  int
	Code    string
	Message string
}

// ParseError maps storage-level errors to a response without leaking driver text.
// context names the operation, e.g. "tag create".
func ParseError(err error, context string) ErrorInfo {
	if err == nil {
		return ErrorInfo{Status: http.StatusInternalServerError, Code: InternalServerError, Message: "伺服器發生錯誤"}
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorInfo{Status: http.StatusNotFound, Code: ResourceNotFound, Message: getNotFoundMessage(context)}
	}

	errLower := strings.ToLower(err.Error())

	if errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(errLower, "duplicate key") ||
		strings.Contains(errLower, "unique constraint") {
		return parseDuplicateKeyError(errLower)
	}

	if errors.Is(err, gorm.ErrForeignKeyViolated) || strings.Contains(errLower, "foreign key constraint") {
		return ErrorInfo{Status: http.StatusConflict, Code: ResourceConflict, Message: "參照的資料不存在或仍被使用"}
	}

	if strings.Contains(errLower, "connection refused") ||
		strings.Contains(errLower, "no such host") ||
		strings.Contains(errLower, "timeout") {
		return ErrorInfo{Status: http.StatusBadGateway, Code: InternalExternalAPI, Message: "外部服務連線失敗，請稍後再試"}
	}

	return ErrorInfo{Status: http.StatusInternalServerError, Code: InternalDatabaseError, Message: getDefaultErrorMessage(context)}
}

func parseDuplicateKeyError(errLower string) ErrorInfo {
	if strings.Contains(errLower, "tags") || strings.Contains(errLower, "idx_tags_name") {
		return ErrorInfo{Status: http.StatusConflict, Code: TagNameExists, Message: "標籤名稱已存在"}
	}
	return ErrorInfo{Status: http.StatusConflict, Code: ResourceAlreadyExists, Message: "資料已存在"}
}

func getNotFoundMessage(context string) string {
	contextLower := strings.ToLower(context)

	if strings.Contains(contextLower, "tag") {
		return "找不到標籤"
	}
	if strings.Contains(contextLower, "video") {
		return "找不到影片"
	}
	return "找不到要求的資料"
}

func getDefaultErrorMessage(context string) string {
	contextLower := strings.ToLower(context)

	if strings.Contains(contextLower, "create") {
		return "建立時發生錯誤，請稍後再試"
	}
	if strings.Contains(contextLower, "update") {
		return "修改時發生錯誤，請稍後再試"
	}
	if strings.Contains(contextLower, "delete") {
		return "刪除時發生錯誤，請稍後再試"
	}
	if strings.Contains(contextLower, "search") {
		return "搜尋時發生錯誤，請稍後再試"
	}
	return "伺服器發生錯誤，請稍後再試"
}

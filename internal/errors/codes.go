package errors

// 錯誤碼常數
// 格式: CATEGORY_SPECIFIC_DETAIL
// 前端依錯誤碼對應顯示訊息

const (
	// ==================== 認證 (AUTH_) ====================
	AuthUnauthorized = "AUTH_UNAUTHORIZED"  // 需要登入
	AuthTokenExpired = "AUTH_TOKEN_EXPIRED" // Token 過期
	AuthTokenInvalid = "AUTH_TOKEN_INVALID" // Token 無效

	// ==================== 授權 (AUTHZ_) ====================
	AuthzForbidden = "AUTHZ_FORBIDDEN"  // 無存取權限
	AuthzAdminOnly = "AUTHZ_ADMIN_ONLY" // 僅限管理員

	// ==================== 驗證 (VALIDATION_) ====================
	ValidationInvalidInput = "VALIDATION_INVALID_INPUT" // 輸入錯誤
	ValidationInvalidID    = "VALIDATION_INVALID_ID"    // ID 格式錯誤
	ValidationInvalidRange = "VALIDATION_INVALID_RANGE" // 超出範圍
	ValidationRequired     = "VALIDATION_REQUIRED"      // 必填

	// ==================== 資源 (RESOURCE_) ====================
	ResourceNotFound      = "RESOURCE_NOT_FOUND"      // 資料不存在
	ResourceAlreadyExists = "RESOURCE_ALREADY_EXISTS" // 資料已存在
	ResourceConflict      = "RESOURCE_CONFLICT"       // 資料衝突

	// ==================== 標籤 (TAG_) ====================
	TagNotFound      = "TAG_NOT_FOUND"      // 標籤不存在
	TagNameExists    = "TAG_NAME_EXISTS"    // 標籤名稱重複
	TagInvalidWeight = "TAG_INVALID_WEIGHT" // 權重超出 1~10

	// ==================== 影片 (VIDEO_) ====================
	VideoNotFound = "VIDEO_NOT_FOUND" // 影片不存在

	// ==================== 搜尋 (SEARCH_) ====================
	SearchQueryUnparsable = "SEARCH_QUERY_UNPARSABLE" // 無法理解查詢
	SearchInvalidFilter   = "SEARCH_INVALID_FILTER"   // 搜尋條件格式錯誤

	// ==================== 內部錯誤 (INTERNAL_) ====================
	InternalServerError   = "INTERNAL_SERVER_ERROR"   // 伺服器錯誤
	InternalDatabaseError = "INTERNAL_DATABASE_ERROR" // 資料庫錯誤
	InternalExternalAPI   = "INTERNAL_EXTERNAL_API"   // 外部 API 錯誤
)

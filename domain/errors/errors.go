package errors

import "errors"

// ================= 业务领域错误定义 =================
// 所有业务逻辑相关的错误统一在此定义，避免跨包重复定义

// ErrPageNotFound 页面不存在错误
var ErrPageNotFound = errors.New("page not found in database")

// ErrOptimisticLock 乐观锁冲突错误
// 当数据库中的版本与期望版本不匹配时返回此错误
var ErrOptimisticLock = errors.New("optimistic lock error: version mismatch, please refresh and retry")

// ErrSaveInFlight 同一页面已有保存请求在进行中
// 等同于前端保存按钮在保存期间被禁用
var ErrSaveInFlight = errors.New("a save for this page is already in progress")

// ErrRoomClosing 房间正在关闭（刷盘中），客户端应稍后重试
var ErrRoomClosing = errors.New("room is closing, please retry")

// ErrUnauthorized 无权限操作该资源
var ErrUnauthorized = errors.New("not allowed to modify this page")

// ErrBlockNotFound 组件不存在
var ErrBlockNotFound = errors.New("block not found in page")

// ================= 认证相关 =================

// ErrInvalidCredentials 登录凭据错误
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrInvalidToken token 无法解码或已过期
var ErrInvalidToken = errors.New("invalid token provided")

// ErrNotAuthenticated 未登录
var ErrNotAuthenticated = errors.New("user not authenticated")

// ================= 上传相关 =================

// ErrUploadFailed 存储后端上传失败（对外只暴露通用错误）
var ErrUploadFailed = errors.New("upload failed")

// ErrUnsupportedFileType 文件类型不在允许列表中
var ErrUnsupportedFileType = errors.New("unsupported file type")

// ErrFileTooLarge 文件超过大小限制
var ErrFileTooLarge = errors.New("file too large")

// ErrEmptyFile 空文件
var ErrEmptyFile = errors.New("file is empty")

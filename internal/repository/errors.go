package repository

import "errors"

var (
	// 対象が存在しない
	ErrNotFound = errors.New("not found")
	// 一意制約違反（emailなど）
	ErrDuplicate = errors.New("duplicate key")
)

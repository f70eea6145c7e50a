// Package storage は商品画像などのファイル保存先を抽象化する。
//
//   - "local" ローカルファイルシステム（デフォルト）
//   - "s3"    S3互換ストレージ（AWS S3, MinIO, R2）
package storage

import (
	"context"
	"fmt"
	"io"

	"storefront/internal/config"
)

// Diskは保存先ドライバの約束
type Disk interface {
	// Putはrの内容をpathに書く（親ディレクトリは自動で作る）
	Put(ctx context.Context, path string, r io.Reader, contentType string) error
	// Deleteはファイルを消す。存在しなければnil
	Delete(ctx context.Context, path string) error
	// URLは公開URLを返す
	URL(path string) string
}

// NewはSTORAGE_DISKに応じたDiskを作る
func New(ctx context.Context, cfg config.Config) (Disk, error) {
	switch cfg.StorageDisk {
	case "local":
		return NewLocalDisk(cfg.StorageLocalRoot, cfg.StoragePublicURL), nil
	case "s3":
		return NewS3Disk(ctx, S3Options{
			Bucket:   cfg.S3Bucket,
			Region:   cfg.S3Region,
			Key:      cfg.S3Key,
			Secret:   cfg.S3Secret,
			Endpoint: cfg.S3Endpoint,
			BaseURL:  cfg.S3URL,
		})
	default:
		return nil, fmt.Errorf("storage: unsupported disk %q", cfg.StorageDisk)
	}
}

package minio

import (
	"bytes"
	"context"

	"github.com/jimlawless/whereami"
	"github.com/minio/minio-go/v7"
	"github.com/softvape/shop-bot/internal/cfg"
	"github.com/softvape/shop-bot/pkg/e"
)

// BackupRepo хранит резервные копии каталога в MinIO.
// Копии никогда не удаляются и не перезаписываются: имя объекта содержит
// отметку времени с точностью до секунды.
type BackupRepo struct {
	mc  *minio.Client
	cfg *cfg.MinIOCfg
}

func NewBackupRepo(mc *minio.Client, cfg *cfg.MinIOCfg) *BackupRepo {
	return &BackupRepo{
		mc:  mc,
		cfg: cfg,
	}
}

// Store загружает CSV-копию каталога в бакет резервных копий.
func (b *BackupRepo) Store(ctx context.Context, objectName string, data []byte) error {
	reader := bytes.NewReader(data)

	_, err := b.mc.PutObject(ctx, b.cfg.BucketName, objectName, reader, int64(len(data)), minio.PutObjectOptions{
		ContentType: "text/csv",
	})
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

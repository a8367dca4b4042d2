package storage

import (
	"context"
	"fmt"
	"path"

	"storyweave-server/internal/interfaces"

	gcs "cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// Compile-time check
var _ interfaces.CoverStorage = (*firebaseCoverStorage)(nil)

// firebaseCoverStorage хранит обложки историй в бакете Firebase Storage
// и отдает публичные URL.
type firebaseCoverStorage struct {
	bucketName string
	app        *firebase.App
	logger     *zap.Logger
}

// NewFirebaseCoverStorage создает хранилище обложек.
// Требует путь к файлу ключа сервис-аккаунта и имя бакета.
func NewFirebaseCoverStorage(ctx context.Context, credentialsFile, bucketName string, logger *zap.Logger) (interfaces.CoverStorage, error) {
	if credentialsFile == "" || bucketName == "" {
		logger.Warn("Firebase credentials or bucket not configured, cover storage disabled")
		return nil, nil
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{StorageBucket: bucketName},
		option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации Firebase App из файла %q: %w", credentialsFile, err)
	}

	logger.Info("Firebase cover storage initialized", zap.String("bucket", bucketName))
	return &firebaseCoverStorage{
		bucketName: bucketName,
		app:        app,
		logger:     logger.Named("FirebaseCoverStorage"),
	}, nil
}

func (s *firebaseCoverStorage) UploadCover(ctx context.Context, storyID, filename, contentType string, data []byte) (string, error) {
	client, err := s.app.Storage(ctx)
	if err != nil {
		return "", fmt.Errorf("ошибка получения Storage client: %w", err)
	}
	bucket, err := client.Bucket(s.bucketName)
	if err != nil {
		return "", fmt.Errorf("ошибка получения бакета %q: %w", s.bucketName, err)
	}

	// Имя объекта уникально: старая обложка остается до чистки бакета.
	objectName := path.Join("covers", storyID, uuid.New().String()+path.Ext(filename))
	obj := bucket.Object(objectName)

	w := obj.NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("ошибка записи обложки %q: %w", objectName, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("ошибка завершения записи обложки %q: %w", objectName, err)
	}

	if err := obj.ACL().Set(ctx, gcs.AllUsers, gcs.RoleReader); err != nil {
		return "", fmt.Errorf("ошибка публикации обложки %q: %w", objectName, err)
	}

	url := fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucketName, objectName)
	s.logger.Info("Cover uploaded to bucket",
		zap.String("storyID", storyID), zap.String("object", objectName))
	return url, nil
}

// noopCoverStorage используется, когда Firebase не настроен (dev-окружение).
type noopCoverStorage struct {
	logger *zap.Logger
}

func NewNoopCoverStorage(logger *zap.Logger) interfaces.CoverStorage {
	return &noopCoverStorage{logger: logger.Named("NoopCoverStorage")}
}

func (s *noopCoverStorage) UploadCover(_ context.Context, storyID, filename, _ string, _ []byte) (string, error) {
	s.logger.Warn("Cover storage is not configured, upload rejected",
		zap.String("storyID", storyID), zap.String("filename", filename))
	return "", fmt.Errorf("cover storage is not configured")
}

package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const (
	aclHeader  = "x-amz-acl"
	aclPublic  = "public-read"
	aclPrivate = "private"
)

// objectAPI - часть клиента MinIO, которой пользуется MinioClient.
type objectAPI interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64,
		opts minio.PutObjectOptions) (minio.UploadInfo, error)
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
}

// MinioClient реализует ImageStorage для S3-совместимого хранилища.
type MinioClient struct {
	client     objectAPI
	bucketName string
	cdnURL     string
	acl        string
}

// MinioConfig содержит параметры для подключения к S3/MinIO.
type MinioConfig struct {
	Endpoint        string // URL ("https://s3.example.com") или host:port
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	Region          string
	CDNURL          string // Базовый URL для ссылок на загруженные объекты
	Public          bool   // Загружать объекты с ACL public-read
}

// NewMinioClient создает клиент и проверяет наличие бакета, создавая его при необходимости.
func NewMinioClient(ctx context.Context, cfg MinioConfig) (*MinioClient, error) {
	host, secure, err := parseEndpoint(cfg.Endpoint)
	if err != nil {
		return nil, err
	}
	log.Printf("[Minio] Инициализация клиента для эндпоинта %s (TLS: %t)...", host, secure)

	minioClient, err := minio.New(host, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: ошибка инициализации клиента MinIO: %w", ErrStorage, err)
	}

	c := newMinioClient(minioClient, cfg)
	if err = c.ensureBucket(ctx, cfg.Region); err != nil {
		return nil, err
	}

	log.Printf("[Minio] Клиент успешно инициализирован для бакета '%s'.", cfg.BucketName)
	return c, nil
}

func newMinioClient(api objectAPI, cfg MinioConfig) *MinioClient {
	acl := aclPrivate
	if cfg.Public {
		acl = aclPublic
	}
	return &MinioClient{
		client:     api,
		bucketName: cfg.BucketName,
		cdnURL:     strings.TrimRight(cfg.CDNURL, "/"),
		acl:        acl,
	}
}

func (c *MinioClient) ensureBucket(ctx context.Context, region string) error {
	exists, err := c.client.BucketExists(ctx, c.bucketName)
	if err != nil {
		return fmt.Errorf("%w: ошибка проверки существования бакета '%s': %w", ErrStorage, c.bucketName, err)
	}
	if exists {
		log.Printf("[Minio] Бакет '%s' уже существует.", c.bucketName)
		return nil
	}

	log.Printf("[Minio] Бакет '%s' не найден, попытка создания...", c.bucketName)
	if err = c.client.MakeBucket(ctx, c.bucketName, minio.MakeBucketOptions{Region: region}); err != nil {
		return fmt.Errorf("%w: ошибка создания бакета '%s': %w", ErrStorage, c.bucketName, err)
	}
	log.Printf("[Minio] Бакет '%s' успешно создан.", c.bucketName)
	return nil
}

// Store загружает объект в бакет и возвращает его адрес на CDN.
func (c *MinioClient) Store(
	ctx context.Context,
	objectKey string,
	reader io.Reader,
	size int64,
	contentType string,
) (string, error) {
	key, err := cleanKey(objectKey)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrStorage, err)
	}
	if contentType == "" {
		contentType = defaultContentType
	}
	log.Printf("[Minio] Загрузка файла '%s' в бакет '%s'...", key, c.bucketName)

	opts := minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: map[string]string{aclHeader: c.acl},
	}

	uploadInfo, err := c.client.PutObject(ctx, c.bucketName, key, reader, size, opts)
	if err != nil {
		log.Printf("[Minio] Ошибка загрузки файла '%s': %v", key, err)
		var minioErr minio.ErrorResponse
		if errors.As(err, &minioErr) && minioErr.Code == "NoSuchBucket" {
			return "", fmt.Errorf("%w: бакет '%s' не найден: %w", ErrStorage, c.bucketName, err)
		}
		return "", fmt.Errorf("%w: ошибка загрузки файла в MinIO: %w", ErrStorage, err)
	}

	log.Printf("[Minio] Файл '%s' успешно загружен, размер: %d, ETag: %s", key, uploadInfo.Size, uploadInfo.ETag)
	return joinURL(c.cdnURL, key), nil
}

// parseEndpoint принимает URL или host:port. Схема https включает TLS.
func parseEndpoint(endpoint string) (string, bool, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return "", false, fmt.Errorf("%w: не указан эндпоинт S3", ErrStorage)
	}
	if !strings.Contains(endpoint, "://") {
		return strings.TrimRight(endpoint, "/"), false, nil
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return "", false, fmt.Errorf("%w: некорректный эндпоинт S3 %q: %w", ErrStorage, endpoint, err)
	}
	switch u.Scheme {
	case "https":
		return u.Host, true, nil
	case "http":
		return u.Host, false, nil
	default:
		return "", false, fmt.Errorf("%w: неподдерживаемая схема эндпоинта S3: %q", ErrStorage, u.Scheme)
	}
}

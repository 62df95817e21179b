package workspace

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscreds "github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	appcfg "github.com/marginalia-app/core/internal/config"
	"github.com/marginalia-app/core/internal/models"
	"gorm.io/gorm"
)

// ErrExportUnconfigured means the object store credentials are missing.
var ErrExportUnconfigured = errors.New("share export is not configured")

// ShareBundle is the exported snapshot of a workspace: the workspace itself
// plus every member paper with its identity layer. Full text is included so
// the bundle can be re-imported elsewhere.
type ShareBundle struct {
	Version    int                   `json:"version"`
	ExportedAt time.Time             `json:"exportedAt"`
	Workspace  models.WorkspaceModel `json:"workspace"`
	Papers     []models.PaperModel   `json:"papers"`
}

// Exporter uploads share bundles to S3-compatible object storage.
type Exporter struct {
	db  *gorm.DB
	cfg appcfg.ShareExportConfig
}

// NewExporter returns nil when export is not configured; the handler maps
// that to 503.
func NewExporter(db *gorm.DB, cfg appcfg.ShareExportConfig) *Exporter {
	if !cfg.Configured() {
		return nil
	}
	return &Exporter{db: db, cfg: cfg}
}

// Export bundles the workspace and uploads it, returning the object URL.
func (e *Exporter) Export(ctx context.Context, ws *models.WorkspaceModel) (string, error) {
	if e == nil {
		return "", ErrExportUnconfigured
	}

	var papers []models.PaperModel
	if len(ws.PaperIDs) > 0 {
		if err := e.db.WithContext(ctx).Find(&papers, "id IN ?", ws.PaperIDs).Error; err != nil {
			return "", err
		}
	}

	bundle := ShareBundle{
		Version:    1,
		ExportedAt: time.Now().UTC(),
		Workspace:  *ws,
		Papers:     papers,
	}
	data, err := json.Marshal(bundle)
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("shares/%s/%d.json", ws.ID, time.Now().Unix())
	client := e.client()
	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(e.cfg.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("share upload failed: %w", err)
	}

	return e.objectURL(key), nil
}

func (e *Exporter) client() *s3.Client {
	opts := s3.Options{
		Region: e.cfg.Region,
		Credentials: aws.NewCredentialsCache(
			awscreds.NewStaticCredentialsProvider(e.cfg.AccessKeyID, e.cfg.SecretAccessKey, ""),
		),
		UsePathStyle: e.cfg.PathStyleAccess,
	}
	if endpoint := strings.TrimSpace(e.cfg.Endpoint); endpoint != "" {
		opts.BaseEndpoint = aws.String(endpoint)
	}
	return s3.New(opts)
}

func (e *Exporter) objectURL(key string) string {
	if domain := strings.TrimRight(strings.TrimSpace(e.cfg.CustomDomain), "/"); domain != "" {
		return domain + "/" + key
	}
	if endpoint := strings.TrimRight(strings.TrimSpace(e.cfg.Endpoint), "/"); endpoint != "" {
		if e.cfg.PathStyleAccess {
			return fmt.Sprintf("%s/%s/%s", endpoint, e.cfg.Bucket, key)
		}
		return fmt.Sprintf("%s/%s", endpoint, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", e.cfg.Bucket, e.cfg.Region, key)
}

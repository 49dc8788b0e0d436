// Package drive implements the remote mirror on Google Drive.
package drive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	gdrive "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	goption "google.golang.org/api/option"

	"github.com/NikBulygin/financeTracker/internal/log"
	"github.com/NikBulygin/financeTracker/internal/mirror"
)

const mimeType = "text/csv"

type Client struct {
	svc    *gdrive.Service
	logger *log.Logger
}

var _ mirror.Storage = (*Client)(nil)

// NewFromEnv creates a Drive client using Service Account credentials from
// GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS, falling back to Application Default
// Credentials.
func NewFromEnv(ctx context.Context, logger *log.Logger) (*Client, error) {
	opts := []goption.ClientOption{goption.WithScopes(gdrive.DriveFileScope)}

	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case serviceAccountJSON != "":
		opts = append(opts, goption.WithCredentialsJSON([]byte(serviceAccountJSON)))
	case serviceAccountFile != "":
		credentialsJSON, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		opts = append(opts, goption.WithCredentialsJSON(credentialsJSON))
	}
	// Otherwise the client library resolves Application Default Credentials.

	svc, err := gdrive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("drive service: %w", err)
	}

	return &Client{
		svc:    svc,
		logger: logger.WithComponent(log.ComponentMirror),
	}, nil
}

func (c *Client) FindByName(ctx context.Context, name string) (*mirror.FileInfo, error) {
	query := fmt.Sprintf("name = '%s' and trashed = false", escapeQuery(name))
	list, err := c.svc.Files.List().
		Q(query).
		Fields(googleapi.Field("files(id, name, modifiedTime, webViewLink)")).
		OrderBy("modifiedTime desc").
		PageSize(1).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("search file %q: %w", name, err)
	}
	if len(list.Files) == 0 {
		return nil, nil
	}
	return toInfo(list.Files[0]), nil
}

func (c *Client) Upload(ctx context.Context, name, content, existingID string) (*mirror.FileInfo, error) {
	meta := &gdrive.File{Name: name, MimeType: mimeType}
	media := strings.NewReader(content)
	fields := googleapi.Field("id, name, modifiedTime, webViewLink")

	var (
		file *gdrive.File
		err  error
	)
	if existingID != "" {
		// Updates must not repeat the mime type in metadata.
		file, err = c.svc.Files.Update(existingID, &gdrive.File{Name: name}).
			Media(media, googleapi.ContentType(mimeType)).
			Fields(fields).
			Context(ctx).
			Do()
	} else {
		file, err = c.svc.Files.Create(meta).
			Media(media, googleapi.ContentType(mimeType)).
			Fields(fields).
			Context(ctx).
			Do()
	}
	if err != nil {
		return nil, fmt.Errorf("upload file %q: %w", name, err)
	}

	c.logger.InfoContext(ctx, "uploaded file",
		log.FieldFileName, name, log.FieldFileID, file.Id)
	return toInfo(file), nil
}

func (c *Client) Download(ctx context.Context, id string) (string, error) {
	if id == "" {
		return "", errors.New("download: empty file id")
	}
	resp, err := c.svc.Files.Get(id).Context(ctx).Download()
	if err != nil {
		return "", fmt.Errorf("download file %s: %w", id, err)
	}
	defer resp.Body.Close()

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read file %s: %w", id, err)
	}
	return string(content), nil
}

func toInfo(f *gdrive.File) *mirror.FileInfo {
	info := &mirror.FileInfo{
		ID:          f.Id,
		Name:        f.Name,
		WebViewLink: f.WebViewLink,
	}
	if t, err := time.Parse(time.RFC3339, f.ModifiedTime); err == nil {
		info.ModifiedTime = t
	}
	return info
}

func escapeQuery(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, `\`, `\\`), `'`, `\'`)
}

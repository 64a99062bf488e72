package drive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/andresuchdata/autotransfer/backend-go/internal/sheet"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

const (
	googleSheetMime  = "application/vnd.google-apps.spreadsheet"
	googleFolderMime = "application/vnd.google-apps.folder"
	xlsxMime         = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	// RefScheme prefixes inventory references that live on Drive.
	RefScheme = "drive://"
)

type Service struct {
	srv *drive.Service
}

func NewService(ctx context.Context, credentialsJSON string) (*Service, error) {
	// Parse credentials from JSON
	config, err := google.JWTConfigFromJSON(
		[]byte(credentialsJSON),
		drive.DriveReadonlyScope,
	)
	if err != nil {
		return nil, fmt.Errorf("unable to parse service account credentials: %w", err)
	}

	srv, err := drive.NewService(ctx, option.WithHTTPClient(config.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve Drive client: %w", err)
	}

	return &Service{srv: srv}, nil
}

type File struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	MimeType     string `json:"mimeType"`
	ModifiedTime string `json:"modifiedTime,omitempty"`
	Size         int64  `json:"size,string,omitempty"`
}

// ListFiles lists the spreadsheets in a folder, newest first.
func (s *Service) ListFiles(ctx context.Context, folderID string) ([]*File, error) {
	// If no folder ID is provided, use "root"
	if folderID == "" {
		folderID = "root"
	}

	result, err := s.srv.Files.List().
		Q(fmt.Sprintf("'%s' in parents and trashed=false and mimeType!='%s'", folderID, googleFolderMime)).
		Fields("files(id, name, mimeType, modifiedTime, size)").
		OrderBy("modifiedTime desc").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve files: %w", err)
	}

	var files []*File
	for _, f := range result.Files {
		file := &File{
			ID:           f.Id,
			Name:         f.Name,
			MimeType:     f.MimeType,
			ModifiedTime: f.ModifiedTime,
			Size:         f.Size,
		}
		if Readable(file) {
			files = append(files, file)
		}
	}

	return files, nil
}

// FindFolderByPath walks a slash separated path from the Drive root.
func (s *Service) FindFolderByPath(ctx context.Context, path string) (string, error) {
	if path == "" {
		return "root", nil
	}

	currentID := "root"
	for _, folder := range strings.Split(path, "/") {
		if folder == "" {
			continue
		}

		result, err := s.srv.Files.List().
			Q(fmt.Sprintf("'%s' in parents and name='%s' and mimeType='%s' and trashed=false",
				currentID, strings.ReplaceAll(folder, "'", `\'`), googleFolderMime)).
			Fields("files(id, name)").
			Context(ctx).
			Do()
		if err != nil {
			return "", fmt.Errorf("error finding folder %s: %w", folder, err)
		}

		if len(result.Files) == 0 {
			return "", fmt.Errorf("folder not found: %s", folder)
		}

		currentID = result.Files[0].Id
	}

	return currentID, nil
}

// Fetch downloads a file as a sheet.Source. Native Google Sheets are exported as xlsx.
func (s *Service) Fetch(ctx context.Context, fileID string) (sheet.Source, error) {
	meta, err := s.srv.Files.Get(fileID).Fields("id, name, mimeType").Context(ctx).Do()
	if err != nil {
		return sheet.Source{}, fmt.Errorf("unable to get file %s: %w", fileID, err)
	}

	file := &File{ID: meta.Id, Name: meta.Name, MimeType: meta.MimeType}
	if !Readable(file) {
		return sheet.Source{}, fmt.Errorf("file %s (%s) is not a spreadsheet", meta.Name, meta.MimeType)
	}

	var buf bytes.Buffer
	if file.MimeType == googleSheetMime {
		resp, err := s.srv.Files.Export(fileID, xlsxMime).Context(ctx).Download()
		if err != nil {
			return sheet.Source{}, fmt.Errorf("unable to export file: %w", err)
		}
		defer resp.Body.Close()
		if _, err := io.Copy(&buf, resp.Body); err != nil {
			return sheet.Source{}, fmt.Errorf("unable to read export: %w", err)
		}
	} else {
		resp, err := s.srv.Files.Get(fileID).Context(ctx).Download()
		if err != nil {
			return sheet.Source{}, fmt.Errorf("unable to download file: %w", err)
		}
		defer resp.Body.Close()
		if _, err := io.Copy(&buf, resp.Body); err != nil {
			return sheet.Source{}, fmt.Errorf("unable to read download: %w", err)
		}
	}

	return sheet.Source{Name: LocalName(file), Data: buf.Bytes()}, nil
}

// FetchLatest downloads the most recently modified spreadsheet in a folder.
func (s *Service) FetchLatest(ctx context.Context, folderPath string) (sheet.Source, error) {
	folderID, err := s.FindFolderByPath(ctx, folderPath)
	if err != nil {
		return sheet.Source{}, err
	}
	files, err := s.ListFiles(ctx, folderID)
	if err != nil {
		return sheet.Source{}, err
	}
	if len(files) == 0 {
		return sheet.Source{}, fmt.Errorf("no spreadsheet found in %q", folderPath)
	}
	return s.Fetch(ctx, files[0].ID)
}

// Readable reports whether the sheet reader can handle the file.
func Readable(f *File) bool {
	if f.MimeType == googleSheetMime {
		return true
	}
	switch strings.ToLower(filepath.Ext(f.Name)) {
	case ".csv", ".xlsx", ".xlsm", ".xls":
		return true
	}
	return false
}

// LocalName is the name the downloaded bytes should be read under.
func LocalName(f *File) string {
	if f.MimeType == googleSheetMime && !strings.EqualFold(filepath.Ext(f.Name), ".xlsx") {
		return f.Name + ".xlsx"
	}
	return f.Name
}

// ParseRef extracts the file ID from a drive://<id> reference.
func ParseRef(ref string) (string, bool) {
	if !strings.HasPrefix(ref, RefScheme) {
		return "", false
	}
	id := strings.TrimSpace(strings.TrimPrefix(ref, RefScheme))
	return id, id != ""
}

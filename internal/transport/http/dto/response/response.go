package response

import (
	"memorial/internal/domain/models"
	"memorial/internal/transport/http/dto"
)

type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func Error(msg string) ErrorResponse {
	return ErrorResponse{Error: msg}
}

func ErrorWithDetails(msg, details string) ErrorResponse {
	return ErrorResponse{Error: msg, Details: details}
}

type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type FilesResponse struct {
	Success bool               `json:"success"`
	Files   []dto.FileResponse `json:"files"`
}

type UploadResponse struct {
	Success  bool                  `json:"success"`
	URL      string                `json:"url"`
	Key      string                `json:"key"`
	Metadata models.UploadMetadata `json:"metadata"`
}

type CaptionsResponse struct {
	Success  bool              `json:"success"`
	Captions map[string]string `json:"captions"`
}

type DeletedResponse struct {
	Success bool     `json:"success"`
	Deleted []string `json:"deleted"`
}

type SlideshowResponse struct {
	Success   bool                   `json:"success"`
	Slideshow models.SlideshowConfig `json:"slideshow"`
}

type StatsResponse struct {
	Success bool                  `json:"success"`
	Stats   models.SlideshowStats `json:"stats"`
}

type TributesResponse struct {
	Success  bool             `json:"success"`
	Tributes []models.Tribute `json:"tributes"`
}

type TributeResponse struct {
	Success bool           `json:"success"`
	Tribute models.Tribute `json:"tribute"`
}

type TimelineResponse struct {
	Success bool                   `json:"success"`
	Events  []models.TimelineEvent `json:"events"`
}

type SessionResponse struct {
	Success bool               `json:"success"`
	User    models.SessionUser `json:"user"`
	Token   string             `json:"token,omitempty"`
}

type AdminFilesResponse struct {
	Success bool                    `json:"success"`
	Users   []dto.UserFilesResponse `json:"users"`
}

func Files(records []models.MediaRecord) []dto.FileResponse {
	out := make([]dto.FileResponse, 0, len(records))
	for _, r := range records {
		out = append(out, dto.FileResponse{
			Key:          r.Key,
			URL:          r.URL,
			Size:         r.Size,
			LastModified: r.LastModified.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
			Type:         string(r.Kind),
			Caption:      r.Caption,
		})
	}
	return out
}

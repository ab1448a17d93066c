package dto

import (
	"mime/multipart"

	"memorial/internal/domain/models"
)

// MediaUploadInput - разобранная multipart-форма загрузки
type MediaUploadInput struct {
	UserID   string                `form:"userId" validate:"required,max=128"`
	File     *multipart.FileHeader `form:"file" validate:"required"`
	Caption  string                `form:"caption" validate:"max=2000"`
	Metadata map[string]string     `form:"-"`
}

// ContentType возвращает MIME-тип из заголовка части или по расширению файла.
func (in *MediaUploadInput) ContentType() string {
	ct := in.File.Header.Get("Content-Type")
	if ct == "" || ct == "application/octet-stream" {
		return models.ContentTypeByName(in.File.Filename)
	}
	return ct
}

type FileResponse struct {
	Key          string `json:"key"`
	URL          string `json:"url"`
	Size         int64  `json:"size"`
	LastModified string `json:"lastModified"`
	Type         string `json:"type"`
	Caption      string `json:"caption,omitempty"`
}

type UserFilesResponse struct {
	UserID string         `json:"userId"`
	Files  []FileResponse `json:"files"`
}

type CaptionsRequest struct {
	Captions map[string]string `json:"captions" validate:"required"`
}

type TributeRequest struct {
	Name         string `json:"name" validate:"required,max=200"`
	Relationship string `json:"relationship" validate:"max=200"`
	Memory       string `json:"memory" validate:"required,max=5000"`
}

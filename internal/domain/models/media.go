package models

import (
	"fmt"
	"path"
	"strings"
	"time"
)

type MediaKind string

const (
	MediaKindImage MediaKind = "image"
	MediaKindVideo MediaKind = "video"
	MediaKindAudio MediaKind = "audio"
	// MediaKindFile marks stored objects that are none of the above.
	MediaKindFile MediaKind = "file"
)

// Folder возвращает имя каталога в пространстве пользователя (images, videos, audios).
func (k MediaKind) Folder() string {
	switch k {
	case MediaKindImage, MediaKindVideo, MediaKindAudio:
		return string(k) + "s"
	default:
		return "files"
	}
}

const (
	MaxImageSize int64 = 10 * 1024 * 1024
	MaxVideoSize int64 = 100 * 1024 * 1024
	MaxAudioSize int64 = 20 * 1024 * 1024
)

// MaxSize возвращает лимит размера файла для данного типа медиа.
func (k MediaKind) MaxSize() int64 {
	switch k {
	case MediaKindImage:
		return MaxImageSize
	case MediaKindVideo:
		return MaxVideoSize
	case MediaKindAudio:
		return MaxAudioSize
	default:
		return 0
	}
}

var contentTypes = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",

	"mp4":  "video/mp4",
	"mov":  "video/quicktime",
	"avi":  "video/x-msvideo",
	"webm": "video/webm",

	"mp3": "audio/mpeg",
	"wav": "audio/wav",
	"ogg": "audio/ogg",
}

var allowedTypes = map[string]MediaKind{
	"image/jpeg":      MediaKindImage,
	"image/jpg":       MediaKindImage,
	"image/png":       MediaKindImage,
	"image/gif":       MediaKindImage,
	"image/webp":      MediaKindImage,
	"video/mp4":       MediaKindVideo,
	"video/quicktime": MediaKindVideo,
	"video/x-msvideo": MediaKindVideo,
	"video/webm":      MediaKindVideo,
	"audio/mpeg":      MediaKindAudio,
	"audio/mp3":       MediaKindAudio,
	"audio/wav":       MediaKindAudio,
	"audio/ogg":       MediaKindAudio,
}

// ContentTypeByName определяет MIME-тип по расширению файла.
// Для неизвестных расширений возвращает application/octet-stream.
func ContentTypeByName(filename string) string {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(filename), "."))
	if ct, ok := contentTypes[ext]; ok {
		return ct
	}
	return "application/octet-stream"
}

// KindOfContentType возвращает тип медиа для разрешенного MIME-типа.
func KindOfContentType(contentType string) (MediaKind, bool) {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	kind, ok := allowedTypes[ct]
	return kind, ok
}

// KindOfKey определяет тип медиа по сегменту пути ключа.
func KindOfKey(key string) MediaKind {
	switch {
	case strings.Contains(key, "/images/"):
		return MediaKindImage
	case strings.Contains(key, "/videos/"):
		return MediaKindVideo
	case strings.Contains(key, "/audios/"):
		return MediaKindAudio
	default:
		return MediaKindFile
	}
}

// MediaRecord - один загруженный файл в пространстве пользователя
type MediaRecord struct {
	Key          string    `json:"key"`
	URL          string    `json:"url"`
	Kind         MediaKind `json:"type"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"lastModified"`
	Caption      string    `json:"caption,omitempty"`
}

// UploadMetadata описывает результат загрузки
type UploadMetadata struct {
	Size       int64     `json:"size"`
	Type       string    `json:"type"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// UploadResult - ответ прокси после успешной загрузки
type UploadResult struct {
	URL      string         `json:"url"`
	Key      string         `json:"key"`
	Metadata UploadMetadata `json:"metadata"`
}

// MediaValidationError кастомный тип ошибки для валидации
type MediaValidationError struct {
	Errors []string
}

func (e *MediaValidationError) Error() string {
	return fmt.Sprintf("media validation failed: %s", strings.Join(e.Errors, "; "))
}

// IsMediaValidationError проверяет, является ли ошибка ошибкой валидации
func IsMediaValidationError(err error) bool {
	_, ok := err.(*MediaValidationError)
	return ok
}

// Validate проверяет корректность записи, прочитанной из кэша или хранилища
func (m *MediaRecord) Validate() error {
	var validationErrors []string

	if m.Key == "" {
		validationErrors = append(validationErrors, "key is required")
	}
	if m.Size < 0 {
		validationErrors = append(validationErrors, "size must not be negative")
	}

	switch m.Kind {
	case MediaKindImage, MediaKindVideo, MediaKindAudio, MediaKindFile:
	default:
		validationErrors = append(validationErrors,
			fmt.Sprintf("invalid media type '%s'", m.Kind))
	}

	if len(validationErrors) > 0 {
		return &MediaValidationError{Errors: validationErrors}
	}

	return nil
}

// UserFiles - файлы одного пространства для панели модерации
type UserFiles struct {
	UserID string        `json:"userId"`
	Files  []MediaRecord `json:"files"`
}

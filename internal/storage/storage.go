package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"regexp"
	"strings"
	"time"
)

var (
	ErrNotFound          = errors.New("object not found")
	ErrAccessDenied      = errors.New("access denied")
	ErrBucketNotFound    = errors.New("bucket not found")
	ErrInvalidAccessKey  = errors.New("invalid access key id")
	ErrSignatureMismatch = errors.New("signature does not match")
	ErrNetwork           = errors.New("network error")
)

// Object описывает объект в хранилище без содержимого
type Object struct {
	Key          string
	Size         int64
	LastModified time.Time
	ContentType  string
	Metadata     map[string]string
}

// PutInput - параметры записи объекта
type PutInput struct {
	Key         string
	Body        io.Reader
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// ObjectStore - хранилище объектов (S3, локальный диск, память).
// Get возвращает ErrNotFound для отсутствующих ключей.
type ObjectStore interface {
	Put(ctx context.Context, in PutInput) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, prefix string) ([]Object, error)
	// ListPrefixes возвращает "подкаталоги" prefix, разделенные символом '/'.
	ListPrefixes(ctx context.Context, prefix string) ([]string, error)
	PublicURL(key string) string
}

// Hint возвращает понятное человеку описание ошибки хранилища.
func Hint(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNetwork):
		return "Network error: cannot connect to the storage backend."
	case errors.Is(err, ErrAccessDenied):
		return "Access denied: check the IAM permissions and bucket policy."
	case errors.Is(err, ErrBucketNotFound):
		return "Bucket not found: verify the configured bucket name."
	case errors.Is(err, ErrInvalidAccessKey):
		return "Invalid credentials: check the access key id."
	case errors.Is(err, ErrSignatureMismatch):
		return "Invalid credentials: check the secret access key."
	default:
		return err.Error()
	}
}

const (
	UsersPrefix     = "users/"
	CaptionsFile    = "captions.json"
	DeletedFile     = "deleted.json"
	SlideshowPrefix = "memorial/"
	TributesKey     = SlideshowPrefix + "tributes.json"
	TimelineKey     = SlideshowPrefix + "timeline.json"
)

var (
	userIDRe   = regexp.MustCompile(`[^a-zA-Z0-9_-]`)
	filenameRe = regexp.MustCompile(`[^a-zA-Z0-9.-]`)
)

// SanitizeUserID приводит идентификатор пользователя к имени пространства.
func SanitizeUserID(userID string) string {
	return strings.ToLower(userIDRe.ReplaceAllString(userID, "_"))
}

// SanitizeFilename заменяет недопустимые символы имени файла на '_'.
func SanitizeFilename(name string) string {
	return filenameRe.ReplaceAllString(name, "_")
}

// UserPrefix возвращает префикс пространства пользователя: users/{id}/
func UserPrefix(userID string) string {
	return UsersPrefix + SanitizeUserID(userID) + "/"
}

func MediaKey(userID, folder, filename string) string {
	return UserPrefix(userID) + folder + "/" + SanitizeFilename(filename)
}

// SuffixKey вставляет suffix перед расширением имени файла в ключе
func SuffixKey(key, suffix string) string {
	dir, name := path.Split(key)
	ext := path.Ext(name)
	if ext == name {
		ext = ""
	}
	return dir + strings.TrimSuffix(name, ext) + suffix + ext
}

func CaptionsKey(userID string) string {
	return UserPrefix(userID) + CaptionsFile
}

func DeletedKey(userID string) string {
	return UserPrefix(userID) + DeletedFile
}

// IsSidecar сообщает, является ли ключ служебным JSON-документом пространства.
func IsSidecar(key string) bool {
	return strings.HasSuffix(key, "/"+CaptionsFile) || strings.HasSuffix(key, "/"+DeletedFile)
}

// OwnedBy сообщает, лежит ли ключ в пространстве пользователя.
func OwnedBy(key, userID string) bool {
	return strings.HasPrefix(key, UserPrefix(userID)) && !strings.Contains(key, "..")
}

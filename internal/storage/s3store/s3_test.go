package s3store

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"memorial/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listXML = `<?xml version="1.0" encoding="UTF-8"?>
<ListBucketResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/">
  <Name>memorial</Name>
  <Prefix>users/</Prefix>
  <KeyCount>2</KeyCount>
  <MaxKeys>1000</MaxKeys>
  <IsTruncated>false</IsTruncated>
  <Contents>
    <Key>users/a/images/1.jpg</Key>
    <LastModified>2024-05-01T10:00:00.000Z</LastModified>
    <Size>3</Size>
  </Contents>
  <Contents>
    <Key>users/a/captions.json</Key>
    <LastModified>2024-05-01T11:00:00.000Z</LastModified>
    <Size>12</Size>
  </Contents>
  <CommonPrefixes><Prefix>users/a/</Prefix></CommonPrefixes>
  <CommonPrefixes><Prefix>users/b/</Prefix></CommonPrefixes>
</ListBucketResult>`

func errorXML(code string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?><Error><Code>%s</Code><Message>%s</Message></Error>`, code, code)
}

// newFakeS3 поднимает минимальный S3-совместимый сервер (path-style).
func newFakeS3(t *testing.T) *S3Store {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Query().Get("list-type") == "2":
			w.Header().Set("Content-Type", "application/xml")
			_, _ = w.Write([]byte(listXML))
		case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/users/a/captions.json"):
			_, _ = w.Write([]byte(`{"k":"v"}`))
		case r.Method == http.MethodGet:
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(errorXML("NoSuchKey")))
		case r.Method == http.MethodDelete && strings.Contains(r.URL.Path, "/forbidden/"):
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(errorXML("AccessDenied")))
		case r.Method == http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))
	t.Cleanup(srv.Close)

	store, err := NewS3Store(context.Background(), Options{
		Region:          "us-east-1",
		Bucket:          "memorial",
		Endpoint:        srv.URL,
		AccessKeyID:     "test",
		SecretAccessKey: "test",
		UsePathStyle:    true,
	})
	require.NoError(t, err)

	return store
}

func TestS3Store(t *testing.T) {
	ctx := context.Background()
	store := newFakeS3(t)

	t.Run("get existing", func(t *testing.T) {
		data, err := store.Get(ctx, "users/a/captions.json")
		require.NoError(t, err)
		assert.JSONEq(t, `{"k":"v"}`, string(data))
	})

	t.Run("get missing maps to ErrNotFound", func(t *testing.T) {
		_, err := store.Get(ctx, "users/new/captions.json")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		assert.NoError(t, store.Delete(ctx, "users/a/images/1.jpg"))
	})

	t.Run("delete access denied", func(t *testing.T) {
		err := store.Delete(ctx, "users/forbidden/images/1.jpg")
		assert.ErrorIs(t, err, storage.ErrAccessDenied)
		assert.Contains(t, storage.Hint(err), "Access denied")
	})

	t.Run("list", func(t *testing.T) {
		objs, err := store.List(ctx, "users/")
		require.NoError(t, err)
		require.Len(t, objs, 2)
		assert.Equal(t, "users/a/images/1.jpg", objs[0].Key)
		assert.Equal(t, int64(3), objs[0].Size)
		assert.Equal(t, 2024, objs[0].LastModified.Year())
	})

	t.Run("list prefixes", func(t *testing.T) {
		prefixes, err := store.ListPrefixes(ctx, "users/")
		require.NoError(t, err)
		assert.Equal(t, []string{"users/a/", "users/b/"}, prefixes)
	})
}

func TestS3Store_PublicURL(t *testing.T) {
	s := &S3Store{bucket: "memorial", region: "us-east-1"}
	assert.Equal(t, "https://memorial.s3.us-east-1.amazonaws.com/users/a/images/1.jpg", s.PublicURL("users/a/images/1.jpg"))

	s.publicBaseURL = "https://cdn.example.com"
	assert.Equal(t, "https://cdn.example.com/users/a/images/1.jpg", s.PublicURL("users/a/images/1.jpg"))
}

func TestEncodeMetadata(t *testing.T) {
	meta := encodeMetadata(map[string]string{
		"user-id":       "sarah_example_com",
		"caption":       "Grandma's café — 1962",
		"original-name": "фото.jpg",
	})

	assert.Equal(t, "sarah_example_com", meta["user-id"])

	dec := new(mime.WordDecoder)
	for key, want := range map[string]string{
		"caption":       "Grandma's café — 1962",
		"original-name": "фото.jpg",
	} {
		v := meta[key]
		assert.True(t, strings.HasPrefix(v, "=?utf-8?q?"), key)
		for i := 0; i < len(v); i++ {
			require.Less(t, v[i], byte(0x80), key)
		}

		got, err := dec.DecodeHeader(v)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	assert.Nil(t, encodeMetadata(nil))
}

func TestS3Store_PutEncodesMetadata(t *testing.T) {
	var (
		mu      sync.Mutex
		headers http.Header
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		mu.Lock()
		headers = r.Header.Clone()
		mu.Unlock()
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	store, err := NewS3Store(context.Background(), Options{
		Region:          "us-east-1",
		Bucket:          "memorial",
		Endpoint:        srv.URL,
		AccessKeyID:     "test",
		SecretAccessKey: "test",
		UsePathStyle:    true,
	})
	require.NoError(t, err)

	err = store.Put(context.Background(), storage.PutInput{
		Key:         "users/a/images/photo.jpg",
		Body:        bytes.NewReader([]byte("jpg")),
		Size:        3,
		ContentType: "image/jpeg",
		Metadata:    map[string]string{"caption": "Grandma's café", "user-id": "a"},
	})
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.NotNil(t, headers)
	assert.Equal(t, "a", headers.Get("X-Amz-Meta-User-Id"))

	caption := headers.Get("X-Amz-Meta-Caption")
	assert.True(t, strings.HasPrefix(caption, "=?utf-8?q?"))
	got, err := new(mime.WordDecoder).DecodeHeader(caption)
	require.NoError(t, err)
	assert.Equal(t, "Grandma's café", got)
}
